// Package runner walks suite documents through the dispatcher. It is
// the upstream scenario-runner collaborator: it supplies step text,
// active tags, and feature/scenario names, and owns the coordination
// that scenario parallelism needs above the dispatcher — run- and
// feature-level hooks fire exactly once regardless of worker count.
package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/ormasoftchile/stepbind/pkg/binding"
	"github.com/ormasoftchile/stepbind/pkg/dispatch"
	"github.com/ormasoftchile/stepbind/pkg/registry"
	"github.com/ormasoftchile/stepbind/pkg/suite"
)

// Options configures a Runner.
type Options struct {
	// Parallelism is the number of scenarios executed concurrently
	// within a feature. Values below 2 select the sequential path.
	Parallelism int
	// Observer receives step and hook results (e.g. a trace writer).
	Observer dispatch.Observer
}

// Runner executes suites against a registry of bindings.
type Runner struct {
	reg  *registry.Registry
	opts Options
}

// New builds a runner. The registry is frozen on first use.
func New(reg *registry.Registry, opts Options) *Runner {
	return &Runner{reg: reg, opts: opts}
}

// Run executes every feature and scenario of the suite and returns
// the aggregated result. Scenario failures never abort the run; ctx
// cancellation stops before the next scenario starts.
func (r *Runner) Run(ctx context.Context, s *suite.Suite) (*dispatch.RunResult, error) {
	if r.opts.Parallelism > 1 {
		return r.runParallel(ctx, s)
	}
	return r.runSequential(ctx, s)
}

func (r *Runner) runSequential(ctx context.Context, s *suite.Suite) (*dispatch.RunResult, error) {
	d := dispatch.New(r.reg, dispatch.WithObserver(r.opts.Observer))
	if err := d.StartRun(); err != nil {
		return nil, err
	}
	for _, f := range s.Features {
		if err := d.StartFeature(f.Name, f.Tags); err != nil {
			return nil, err
		}
		for _, sc := range f.Scenarios {
			if err := ctx.Err(); err != nil {
				break
			}
			if err := runScenario(d, sc); err != nil {
				return nil, err
			}
		}
		if _, err := d.EndFeature(); err != nil {
			return nil, err
		}
	}
	res, err := d.EndRun()
	if err != nil {
		return nil, err
	}
	return res, ctx.Err()
}

// runScenario drives one scenario through a dispatcher already in
// FeatureActive state.
func runScenario(d *dispatch.Dispatcher, sc suite.Scenario) error {
	if err := d.StartScenario(sc.Name, sc.Tags); err != nil {
		return err
	}
	for i, st := range sc.Steps {
		kw, text, count := st.Keyword()
		if count != 1 {
			return fmt.Errorf("scenario %q step %d: exactly one keyword required", sc.Name, i)
		}
		if _, err := d.Step(dispatch.Keyword(kw), text); err != nil {
			return err
		}
	}
	_, err := d.EndScenario()
	return err
}

// runParallel runs scenarios of each feature across workers. A
// coordinating dispatcher fires the run- and feature-level hooks once;
// worker dispatchers replay the outer transitions with those events
// suppressed, so every worker still carries the right context while
// hooks fire exactly once. Features remain sequential relative to one
// another.
func (r *Runner) runParallel(ctx context.Context, s *suite.Suite) (*dispatch.RunResult, error) {
	coord := dispatch.New(r.reg, dispatch.WithObserver(r.opts.Observer))
	if err := coord.StartRun(); err != nil {
		return nil, err
	}

	for _, f := range s.Features {
		if err := coord.StartFeature(f.Name, f.Tags); err != nil {
			return nil, err
		}
		// A FeatureStart hook failure on the coordinator must poison
		// worker scenarios exactly as it does sequentially.
		featureErr := coord.FeatureError()

		results := make([]*dispatch.ScenarioResult, len(f.Scenarios))
		errs := make([]error, len(f.Scenarios))
		sem := make(chan struct{}, r.opts.Parallelism)
		var wg sync.WaitGroup

		for i, sc := range f.Scenarios {
			if ctx.Err() != nil {
				break
			}
			wg.Add(1)
			go func(i int, sc suite.Scenario) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				results[i], errs[i] = r.runWorkerScenario(f, sc, featureErr)
			}(i, sc)
		}
		wg.Wait()

		for i, res := range results {
			if errs[i] != nil {
				return nil, errs[i]
			}
			if res == nil {
				continue // cancelled before start
			}
			if err := coord.AdoptScenario(res); err != nil {
				return nil, err
			}
		}
		if _, err := coord.EndFeature(); err != nil {
			return nil, err
		}
	}

	res, err := coord.EndRun()
	if err != nil {
		return nil, err
	}
	return res, ctx.Err()
}

// runWorkerScenario executes one scenario on a private dispatcher.
// Run and feature events are suppressed: the transitions happen (the
// worker's context needs the feature name and tags) but their hooks
// belong to the coordinator, whose FeatureStart failure arrives as
// featureErr.
func (r *Runner) runWorkerScenario(f suite.Feature, sc suite.Scenario, featureErr error) (*dispatch.ScenarioResult, error) {
	d := dispatch.New(r.reg,
		dispatch.WithObserver(r.opts.Observer),
		dispatch.SuppressEvents(binding.RunStart, binding.RunEnd, binding.FeatureStart, binding.FeatureEnd),
		dispatch.WithFeatureError(featureErr),
	)
	if err := d.StartRun(); err != nil {
		return nil, err
	}
	if err := d.StartFeature(f.Name, f.Tags); err != nil {
		return nil, err
	}
	if err := d.StartScenario(sc.Name, sc.Tags); err != nil {
		return nil, err
	}
	for i, st := range sc.Steps {
		kw, text, count := st.Keyword()
		if count != 1 {
			return nil, fmt.Errorf("scenario %q step %d: exactly one keyword required", sc.Name, i)
		}
		if _, err := d.Step(dispatch.Keyword(kw), text); err != nil {
			return nil, err
		}
	}
	res, err := d.EndScenario()
	if err != nil {
		return nil, err
	}
	if _, err := d.EndFeature(); err != nil {
		return nil, err
	}
	if _, err := d.EndRun(); err != nil {
		return nil, err
	}
	return res, nil
}
