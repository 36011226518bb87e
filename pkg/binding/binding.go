// Package binding defines the data model shared by the registry,
// matcher, scope evaluator, and dispatcher: binding kinds, lifecycle
// events, step/hook/transform bindings, and scope constraints.
package binding

import (
	"regexp"

	"github.com/ormasoftchile/stepbind/pkg/invoke"
)

// Kind classifies a step definition by the keyword(s) it answers to.
type Kind int

const (
	KindGiven Kind = iota
	KindWhen
	KindThen
	// KindStep is the generic step-definition kind: it matches step
	// text regardless of keyword.
	KindStep
)

func (k Kind) String() string {
	switch k {
	case KindGiven:
		return "Given"
	case KindWhen:
		return "When"
	case KindThen:
		return "Then"
	case KindStep:
		return "Step"
	}
	return "Unknown"
}

// KindSet is a set of step-definition kinds.
type KindSet uint8

const (
	Given KindSet = 1 << iota
	When
	Then
	AnyStep

	// GivenWhenThen is shorthand for a binding answering all three
	// concrete keywords.
	GivenWhenThen = Given | When | Then
)

// Has reports whether the set contains k.
func (s KindSet) Has(k Kind) bool {
	switch k {
	case KindGiven:
		return s&Given != 0
	case KindWhen:
		return s&When != 0
	case KindThen:
		return s&Then != 0
	case KindStep:
		return s&AnyStep != 0
	}
	return false
}

// Generic reports whether the set contains the keyword-agnostic kind.
func (s KindSet) Generic() bool { return s&AnyStep != 0 }

func (s KindSet) String() string {
	names := ""
	add := func(n string) {
		if names != "" {
			names += "|"
		}
		names += n
	}
	if s&Given != 0 {
		add("Given")
	}
	if s&When != 0 {
		add("When")
	}
	if s&Then != 0 {
		add("Then")
	}
	if s&AnyStep != 0 {
		add("Step")
	}
	if names == "" {
		return "none"
	}
	return names
}

// Event enumerates the lifecycle points a hook can bind to. Start
// events fire entering a scope, End events fire leaving it, with
// innermost Ends firing before outer ones.
type Event int

const (
	RunStart Event = iota
	RunEnd
	FeatureStart
	FeatureEnd
	ScenarioStart
	ScenarioEnd
	BlockStart
	BlockEnd
	StepStart
	StepEnd
)

var eventNames = [...]string{
	"RunStart", "RunEnd",
	"FeatureStart", "FeatureEnd",
	"ScenarioStart", "ScenarioEnd",
	"BlockStart", "BlockEnd",
	"StepStart", "StepEnd",
}

func (e Event) String() string {
	if int(e) < len(eventNames) {
		return eventNames[e]
	}
	return "Unknown"
}

// IsStart reports whether e is a scope-entry event.
func (e Event) IsStart() bool { return e%2 == 0 }

// ScopeConstraint restricts when a binding applies. Fields that are
// present must all match (AND); a binding carrying several constraints
// is in scope when any one of them is satisfied (OR).
//
// Tag is a case-sensitive membership test against the active tag set.
// Feature and Scenario are matched as case-insensitive substrings of
// the current feature/scenario name; an empty field is unconstrained.
// Condition is an optional expr-lang expression evaluated against the
// execution context (tags, feature, scenario, step).
type ScopeConstraint struct {
	Tag       string
	Feature   string
	Scenario  string
	Condition string
}

// StepBinding associates a compiled step pattern with an invocable
// action. Owned by the registry for the lifetime of a run.
type StepBinding struct {
	// Pattern is the compiled, full-string-anchored expression.
	Pattern *regexp.Regexp
	// Source is the pattern text as declared, for diagnostics.
	Source string
	Kinds  KindSet
	Target *invoke.Target
	Scopes []ScopeConstraint
}

// NewStepBinding builds a step binding, rejecting an empty kind set.
func NewStepBinding(pattern *regexp.Regexp, source string, kinds KindSet, target *invoke.Target, scopes ...ScopeConstraint) (*StepBinding, error) {
	if kinds == 0 {
		return nil, &ConfigError{Reason: "step binding " + source + " declares no kinds"}
	}
	if target == nil {
		return nil, &ConfigError{Reason: "step binding " + source + " has no target"}
	}
	return &StepBinding{
		Pattern: pattern,
		Source:  source,
		Kinds:   kinds,
		Target:  target,
		Scopes:  scopes,
	}, nil
}

// HookBinding runs at a lifecycle event rather than on step text.
// A non-empty Tags set means the hook fires only when the active tag
// set intersects it.
type HookBinding struct {
	Event  Event
	Tags   []string
	Target *invoke.Target
	Scopes []ScopeConstraint
}

// ArgumentTransform converts a raw captured string into a typed value.
// A nil Pattern means the transform is keyed by its result type; a
// non-nil Pattern gates the transform to raw text it fully matches.
//
// Transform targets must not read or mutate the execution context;
// that purity is a caller obligation, not a runtime check.
type ArgumentTransform struct {
	Pattern *regexp.Regexp
	Source  string
	Target  *invoke.Target
}
