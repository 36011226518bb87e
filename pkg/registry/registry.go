// Package registry indexes discovered bindings by kind and event and
// enumerates candidates for the dispatcher. It is append-only during
// discovery and read-only once frozen, so a frozen registry is safe to
// share across concurrently executing scenarios without locking.
package registry

import (
	"github.com/ormasoftchile/stepbind/pkg/binding"
)

// Registry holds every discovered step definition, hook, and argument
// transform. Registration order is preserved and is the tie-break
// order wherever declaration order matters.
//
// Registration is not safe for concurrent use; discovery is a
// single-threaded startup pass.
type Registry struct {
	steps      []*binding.StepBinding
	hooks      []*binding.HookBinding
	transforms []*binding.ArgumentTransform
	frozen     bool
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{}
}

// Freeze marks the registry read-only. Further registration fails
// with a ConfigError. Called once, before a run starts.
func (r *Registry) Freeze() { r.frozen = true }

// Frozen reports whether the registry has been frozen.
func (r *Registry) Frozen() bool { return r.frozen }

func (r *Registry) checkOpen() error {
	if r.frozen {
		return &binding.ConfigError{Reason: "registry is frozen; bindings must be registered before the run starts"}
	}
	return nil
}

// AddStep registers a step definition. Duplicate (pattern, kinds)
// pairs are legal; the resulting ambiguity surfaces only when step
// text matches both.
func (r *Registry) AddStep(b *binding.StepBinding) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	if b.Kinds == 0 {
		return &binding.ConfigError{Reason: "step binding " + b.Source + " declares no kinds"}
	}
	r.steps = append(r.steps, b)
	return nil
}

// AddHook registers a lifecycle hook.
func (r *Registry) AddHook(h *binding.HookBinding) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	r.hooks = append(r.hooks, h)
	return nil
}

// AddTransform registers an argument transform.
func (r *Registry) AddTransform(t *binding.ArgumentTransform) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	r.transforms = append(r.transforms, t)
	return nil
}

// StepCandidates enumerates step definitions answering to kind: those
// declaring the kind plus the generic step-definition bindings. The
// returned slice is a fresh view in registration order; scope and
// pattern filtering are the caller's concern.
func (r *Registry) StepCandidates(kind binding.Kind) []*binding.StepBinding {
	var out []*binding.StepBinding
	for _, b := range r.steps {
		if b.Kinds.Has(kind) || b.Kinds.Generic() {
			out = append(out, b)
		}
	}
	return out
}

// Hooks enumerates hooks bound to event, in registration order.
func (r *Registry) Hooks(event binding.Event) []*binding.HookBinding {
	var out []*binding.HookBinding
	for _, h := range r.hooks {
		if h.Event == event {
			out = append(out, h)
		}
	}
	return out
}

// Transforms returns all registered argument transforms in
// registration order.
func (r *Registry) Transforms() []*binding.ArgumentTransform {
	out := make([]*binding.ArgumentTransform, len(r.transforms))
	copy(out, r.transforms)
	return out
}

// Steps returns every registered step definition, for diagnostics.
func (r *Registry) Steps() []*binding.StepBinding {
	out := make([]*binding.StepBinding, len(r.steps))
	copy(out, r.steps)
	return out
}

// Counts summarizes registry contents for inspection output.
func (r *Registry) Counts() (steps, hooks, transforms int) {
	return len(r.steps), len(r.hooks), len(r.transforms)
}
