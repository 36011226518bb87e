// Package discovery turns declared binding metadata into registry
// entries. Declarations arrive as plain data records paired with an
// invocable reference; reflection over the invocable happens here,
// once, so no reflection-style dispatch is needed at match time.
package discovery

import (
	"fmt"
	"reflect"

	"github.com/ormasoftchile/stepbind/pkg/binding"
	"github.com/ormasoftchile/stepbind/pkg/invoke"
	"github.com/ormasoftchile/stepbind/pkg/match"
	"github.com/ormasoftchile/stepbind/pkg/registry"
)

// Record is one discovered declaration: metadata plus the invocable it
// was found on. Kind selects the record family; the remaining fields
// are family-specific.
type Record struct {
	// Kind is "step", "hook", or "transform".
	Kind string

	// Keywords lists the step keywords a step record answers to
	// ("Given", "When", "Then", "Step"/"Any"), including discovery-time
	// aliases. Required for step records.
	Keywords []string

	// Pattern is the step or transform pattern text. Required for step
	// records; optional for transforms (absent = type-keyed).
	Pattern string

	// Event names the lifecycle point for hook records. Synonyms and
	// deprecated aliases ("Before", "AfterScenario", ...) resolve
	// through a flat table at discovery time.
	Event string

	// Tags is the hook's tag filter; empty means unconditional.
	Tags []string

	// Scopes carries declared scope constraints. Class-level and
	// method-level declarations compose by union: callers append both
	// into this one list.
	Scopes []binding.ScopeConstraint

	// Target is the bound Go function.
	Target any
}

// eventAliases maps every accepted hook event name, including the
// deprecated short forms, onto its canonical lifecycle event. The
// short forms are discovery-time synonyms only; there is no separate
// runtime hook type behind them.
var eventAliases = map[string]binding.Event{
	"BeforeTestRun":       binding.RunStart,
	"AfterTestRun":        binding.RunEnd,
	"BeforeFeature":       binding.FeatureStart,
	"AfterFeature":        binding.FeatureEnd,
	"BeforeScenario":      binding.ScenarioStart,
	"Before":              binding.ScenarioStart,
	"AfterScenario":       binding.ScenarioEnd,
	"After":               binding.ScenarioEnd,
	"BeforeScenarioBlock": binding.BlockStart,
	"AfterScenarioBlock":  binding.BlockEnd,
	"BeforeStep":          binding.StepStart,
	"AfterStep":           binding.StepEnd,
}

// keywordAliases maps accepted step keyword spellings onto kind-set
// bits. "StepDefinition" is the deprecated alias for the generic
// "Step" keyword; the mapping is a flat table, not a type hierarchy.
var keywordAliases = map[string]binding.KindSet{
	"Given":          binding.Given,
	"When":           binding.When,
	"Then":           binding.Then,
	"Step":           binding.AnyStep,
	"Any":            binding.AnyStep,
	"StepDefinition": binding.AnyStep,
}

// ResolveEvent maps an event name or alias to its canonical event.
func ResolveEvent(name string) (binding.Event, error) {
	ev, ok := eventAliases[name]
	if !ok {
		return 0, fmt.Errorf("unknown hook event %q", name)
	}
	return ev, nil
}

// Populate registers every record, collecting one error per rejected
// record. A bad record aborts discovery of that binding only; the
// others still load.
func Populate(reg *registry.Registry, records []Record) []error {
	var errs []error
	for i, rec := range records {
		if err := register(reg, rec); err != nil {
			errs = append(errs, fmt.Errorf("record %d (%s): %w", i, rec.Kind, err))
		}
	}
	return errs
}

func register(reg *registry.Registry, rec Record) error {
	switch rec.Kind {
	case "step":
		return registerStep(reg, rec)
	case "hook":
		return registerHook(reg, rec)
	case "transform":
		return registerTransform(reg, rec)
	}
	return &binding.ConfigError{Reason: fmt.Sprintf("unknown record kind %q", rec.Kind)}
}

func registerStep(reg *registry.Registry, rec Record) error {
	if rec.Pattern == "" {
		return &binding.ConfigError{Reason: "step record has no pattern"}
	}
	var kinds binding.KindSet
	for _, kw := range rec.Keywords {
		bit, ok := keywordAliases[kw]
		if !ok {
			return &binding.ConfigError{Reason: fmt.Sprintf("unknown step keyword %q", kw)}
		}
		kinds |= bit
	}
	re, err := match.Compile(rec.Pattern)
	if err != nil {
		return &binding.ConfigError{Reason: err.Error()}
	}
	target, err := invoke.NewTarget(rec.Target)
	if err != nil {
		return &binding.ConfigError{Reason: "step " + rec.Pattern + ": " + err.Error()}
	}
	b, err := binding.NewStepBinding(re, rec.Pattern, kinds, target, rec.Scopes...)
	if err != nil {
		return err
	}
	return reg.AddStep(b)
}

func registerHook(reg *registry.Registry, rec Record) error {
	ev, err := ResolveEvent(rec.Event)
	if err != nil {
		return &binding.ConfigError{Reason: err.Error()}
	}
	target, err := invoke.NewTarget(rec.Target)
	if err != nil {
		return &binding.ConfigError{Reason: rec.Event + " hook: " + err.Error()}
	}
	if target.NumIn() > 1 {
		return &binding.ConfigError{Reason: rec.Event + " hook: at most one parameter (the execution context) is allowed"}
	}
	if target.NumIn() == 1 && target.In(0) != reflect.TypeOf((*binding.ExecutionContext)(nil)) {
		return &binding.ConfigError{Reason: rec.Event + " hook: parameter must be *binding.ExecutionContext"}
	}
	return reg.AddHook(&binding.HookBinding{
		Event:  ev,
		Tags:   rec.Tags,
		Target: target,
		Scopes: rec.Scopes,
	})
}

func registerTransform(reg *registry.Registry, rec Record) error {
	target, err := invoke.NewTarget(rec.Target)
	if err != nil {
		return &binding.ConfigError{Reason: "transform: " + err.Error()}
	}
	if target.NumIn() != 1 || target.In(0).Kind() != reflect.String {
		return &binding.ConfigError{Reason: "transform must take exactly one string parameter"}
	}
	if target.Result() == nil {
		return &binding.ConfigError{Reason: "transform must return a value"}
	}
	t := &binding.ArgumentTransform{Source: rec.Pattern, Target: target}
	if rec.Pattern != "" {
		re, err := match.Compile(rec.Pattern)
		if err != nil {
			return &binding.ConfigError{Reason: err.Error()}
		}
		t.Pattern = re
	}
	return reg.AddTransform(t)
}
