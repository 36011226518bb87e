package discovery

import (
	"errors"

	"github.com/ormasoftchile/stepbind/pkg/binding"
	"github.com/ormasoftchile/stepbind/pkg/registry"
)

// Source is a fluent registration surface over a registry, for
// binding packages that register directly from Go rather than through
// a record feed. Errors are accumulated; check Err once after all
// declarations.
type Source struct {
	reg  *registry.Registry
	errs []error
}

// NewSource wraps reg for fluent registration.
func NewSource(reg *registry.Registry) *Source {
	return &Source{reg: reg}
}

func (s *Source) step(keywords []string, pattern string, fn any, scopes []binding.ScopeConstraint) *Source {
	err := register(s.reg, Record{
		Kind:     "step",
		Keywords: keywords,
		Pattern:  pattern,
		Target:   fn,
		Scopes:   scopes,
	})
	if err != nil {
		s.errs = append(s.errs, err)
	}
	return s
}

// Given registers a step definition answering the Given keyword.
func (s *Source) Given(pattern string, fn any, scopes ...binding.ScopeConstraint) *Source {
	return s.step([]string{"Given"}, pattern, fn, scopes)
}

// When registers a step definition answering the When keyword.
func (s *Source) When(pattern string, fn any, scopes ...binding.ScopeConstraint) *Source {
	return s.step([]string{"When"}, pattern, fn, scopes)
}

// Then registers a step definition answering the Then keyword.
func (s *Source) Then(pattern string, fn any, scopes ...binding.ScopeConstraint) *Source {
	return s.step([]string{"Then"}, pattern, fn, scopes)
}

// Step registers a generic step definition matching any keyword.
func (s *Source) Step(pattern string, fn any, scopes ...binding.ScopeConstraint) *Source {
	return s.step([]string{"Step"}, pattern, fn, scopes)
}

func (s *Source) hook(event string, fn any, tags []string, scopes []binding.ScopeConstraint) *Source {
	err := register(s.reg, Record{
		Kind:   "hook",
		Event:  event,
		Tags:   tags,
		Target: fn,
		Scopes: scopes,
	})
	if err != nil {
		s.errs = append(s.errs, err)
	}
	return s
}

// BeforeRun registers a RunStart hook.
func (s *Source) BeforeRun(fn any) *Source { return s.hook("BeforeTestRun", fn, nil, nil) }

// AfterRun registers a RunEnd hook.
func (s *Source) AfterRun(fn any) *Source { return s.hook("AfterTestRun", fn, nil, nil) }

// BeforeFeature registers a FeatureStart hook.
func (s *Source) BeforeFeature(fn any, tags ...string) *Source {
	return s.hook("BeforeFeature", fn, tags, nil)
}

// AfterFeature registers a FeatureEnd hook.
func (s *Source) AfterFeature(fn any, tags ...string) *Source {
	return s.hook("AfterFeature", fn, tags, nil)
}

// BeforeScenario registers a ScenarioStart hook, optionally restricted
// to scenarios whose active tag set intersects tags.
func (s *Source) BeforeScenario(fn any, tags ...string) *Source {
	return s.hook("BeforeScenario", fn, tags, nil)
}

// AfterScenario registers a ScenarioEnd hook.
func (s *Source) AfterScenario(fn any, tags ...string) *Source {
	return s.hook("AfterScenario", fn, tags, nil)
}

// BeforeBlock registers a BlockStart hook.
func (s *Source) BeforeBlock(fn any, tags ...string) *Source {
	return s.hook("BeforeScenarioBlock", fn, tags, nil)
}

// AfterBlock registers a BlockEnd hook.
func (s *Source) AfterBlock(fn any, tags ...string) *Source {
	return s.hook("AfterScenarioBlock", fn, tags, nil)
}

// BeforeStep registers a StepStart hook.
func (s *Source) BeforeStep(fn any, tags ...string) *Source {
	return s.hook("BeforeStep", fn, tags, nil)
}

// AfterStep registers a StepEnd hook.
func (s *Source) AfterStep(fn any, tags ...string) *Source {
	return s.hook("AfterStep", fn, tags, nil)
}

// HookScoped registers a hook with explicit scope constraints, for
// declarations that carry more than a tag filter.
func (s *Source) HookScoped(event string, fn any, scopes ...binding.ScopeConstraint) *Source {
	return s.hook(event, fn, nil, scopes)
}

// Transform registers a regex-keyed argument transform.
func (s *Source) Transform(pattern string, fn any) *Source {
	err := register(s.reg, Record{Kind: "transform", Pattern: pattern, Target: fn})
	if err != nil {
		s.errs = append(s.errs, err)
	}
	return s
}

// TransformType registers a type-keyed argument transform, keyed by
// the function's result type.
func (s *Source) TransformType(fn any) *Source {
	err := register(s.reg, Record{Kind: "transform", Target: fn})
	if err != nil {
		s.errs = append(s.errs, err)
	}
	return s
}

// Err returns the accumulated registration errors, joined, or nil.
func (s *Source) Err() error {
	return errors.Join(s.errs...)
}
