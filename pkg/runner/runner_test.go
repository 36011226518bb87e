package runner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ormasoftchile/stepbind/pkg/discovery"
	"github.com/ormasoftchile/stepbind/pkg/registry"
	"github.com/ormasoftchile/stepbind/pkg/suite"
	"gopkg.in/yaml.v3"
)

func loadSuite(t *testing.T, doc string) *suite.Suite {
	t.Helper()
	var s suite.Suite
	require.NoError(t, yaml.Unmarshal([]byte(doc), &s))
	return &s
}

// counter is shared scenario state guarded for parallel runs.
type counter struct {
	mu    sync.Mutex
	calls map[string]int
}

func newCounter() *counter {
	return &counter{calls: make(map[string]int)}
}

func (c *counter) bump(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[name]++
}

func (c *counter) get(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[name]
}

const basketSuite = `
apiVersion: suite/v0
name: basket
features:
  - name: Eating cucumbers
    tags: [basket]
    scenarios:
      - name: Eat a few
        steps:
          - given: I note setup
          - when: I note action
          - then: I note outcome
      - name: Eat them all
        steps:
          - given: I note setup
          - then: I note outcome
`

func declareNotes(c *counter) func(*discovery.Source) {
	return func(src *discovery.Source) {
		src.Step(`I note (\w+)`, func(what string) { c.bump(what) }).
			BeforeRun(func() { c.bump("run-start") }).
			AfterRun(func() { c.bump("run-end") }).
			BeforeFeature(func() { c.bump("feature-start") }).
			AfterFeature(func() { c.bump("feature-end") }).
			BeforeScenario(func() { c.bump("scenario-start") })
	}
}

func buildRegistry(t *testing.T, declare func(*discovery.Source)) *registry.Registry {
	t.Helper()
	reg := registry.New()
	src := discovery.NewSource(reg)
	declare(src)
	require.NoError(t, src.Err())
	return reg
}

func TestRunSequential(t *testing.T) {
	c := newCounter()
	reg := buildRegistry(t, declareNotes(c))

	res, err := New(reg, Options{}).Run(context.Background(), loadSuite(t, basketSuite))
	require.NoError(t, err)

	assert.False(t, res.Failed())
	assert.Equal(t, 5, res.Steps.Total)
	assert.Equal(t, 5, res.Steps.Passed)
	assert.Equal(t, 2, c.get("setup"))
	assert.Equal(t, 1, c.get("action"))
	assert.Equal(t, 2, c.get("outcome"))
	assert.Equal(t, 1, c.get("run-start"))
	assert.Equal(t, 1, c.get("feature-start"))
	assert.Equal(t, 2, c.get("scenario-start"))

	require.Len(t, res.Features, 1)
	assert.Equal(t, 2, res.Features[0].ScenariosPassed)
}

// TestRunParallelHooksFireOnce checks that with parallel scenarios,
// run- and feature-level hooks still fire exactly once while every
// scenario gets its own ScenarioStart.
func TestRunParallelHooksFireOnce(t *testing.T) {
	c := newCounter()
	reg := buildRegistry(t, declareNotes(c))

	res, err := New(reg, Options{Parallelism: 4}).Run(context.Background(), loadSuite(t, basketSuite))
	require.NoError(t, err)

	assert.False(t, res.Failed())
	assert.Equal(t, 1, c.get("run-start"), "RunStart must fire once")
	assert.Equal(t, 1, c.get("run-end"), "RunEnd must fire once")
	assert.Equal(t, 1, c.get("feature-start"), "FeatureStart must fire once")
	assert.Equal(t, 1, c.get("feature-end"), "FeatureEnd must fire once")
	assert.Equal(t, 2, c.get("scenario-start"))

	require.Len(t, res.Features, 1)
	assert.Len(t, res.Features[0].Scenarios, 2)
	assert.Equal(t, 2, res.Features[0].ScenariosPassed)
	assert.Equal(t, 5, res.Steps.Total)
}

// TestRunParallelFeatureFailurePoisonsScenarios checks the parallel
// path reports a failed FeatureStart hook the same way the sequential
// path does: no steps run and every scenario of the feature fails.
func TestRunParallelFeatureFailurePoisonsScenarios(t *testing.T) {
	for name, parallelism := range map[string]int{"sequential": 0, "parallel": 4} {
		t.Run(name, func(t *testing.T) {
			c := newCounter()
			reg := buildRegistry(t, func(src *discovery.Source) {
				src.Step(`I note (\w+)`, func(what string) { c.bump(what) }).
					BeforeFeature(func() error { return errors.New("feature setup broke") }).
					AfterScenario(func() { c.bump("cleanup") })
			})

			res, err := New(reg, Options{Parallelism: parallelism}).Run(context.Background(), loadSuite(t, basketSuite))
			require.NoError(t, err)

			assert.True(t, res.Failed())
			require.Len(t, res.Features, 1)
			assert.Equal(t, 2, res.Features[0].ScenariosFailed)
			assert.Equal(t, 0, res.Features[0].ScenariosPassed)
			assert.Zero(t, c.get("setup"), "no step may run in a poisoned feature")
			assert.Zero(t, c.get("action"))
			assert.Equal(t, 2, c.get("cleanup"), "scenario cleanup still runs")
		})
	}
}

// TestRunParallelPreservesScenarioOrder checks results come back in
// declaration order regardless of completion order.
func TestRunParallelPreservesScenarioOrder(t *testing.T) {
	reg := buildRegistry(t, func(src *discovery.Source) {
		src.Step(`.*`, func() {})
	})
	s := loadSuite(t, basketSuite)

	res, err := New(reg, Options{Parallelism: 2}).Run(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, res.Features[0].Scenarios, 2)
	assert.Equal(t, "Eat a few", res.Features[0].Scenarios[0].Name)
	assert.Equal(t, "Eat them all", res.Features[0].Scenarios[1].Name)
}

func TestRunFailureDoesNotAbortRun(t *testing.T) {
	reg := buildRegistry(t, func(src *discovery.Source) {
		src.Given(`I note setup`, func() error { return errors.New("broken fixture") }).
			Step(`I note (\w+)`, func(string) {})
	})
	res, err := New(reg, Options{}).Run(context.Background(), loadSuite(t, basketSuite))
	require.NoError(t, err)

	assert.True(t, res.Failed())
	// The Given collides with the generic binding, so the scenario is
	// ambiguous, which still counts as failed.
	assert.Equal(t, 2, res.Features[0].ScenariosFailed)
}

func TestRunTaggedScenarios(t *testing.T) {
	c := newCounter()
	reg := buildRegistry(t, func(src *discovery.Source) {
		src.Step(`.*`, func() {}).
			BeforeScenario(func() { c.bump("slow-hook") }, "slow")
	})
	doc := `
apiVersion: suite/v0
name: tagged
features:
  - name: f
    scenarios:
      - name: fast one
        tags: [fast]
        steps:
          - given: a step
      - name: slow one
        tags: [slow]
        steps:
          - given: a step
`
	res, err := New(reg, Options{}).Run(context.Background(), loadSuite(t, doc))
	require.NoError(t, err)
	assert.False(t, res.Failed())
	assert.Equal(t, 1, c.get("slow-hook"))
}

func TestRunRejectsMalformedStep(t *testing.T) {
	reg := buildRegistry(t, func(src *discovery.Source) {
		src.Step(`.*`, func() {})
	})
	s := &suite.Suite{
		APIVersion: "suite/v0",
		Name:       "bad",
		Features: []suite.Feature{{
			Name: "f",
			Scenarios: []suite.Scenario{{
				Name:  "s",
				Steps: []suite.Step{{Given: "a", When: "b"}},
			}},
		}},
	}
	_, err := New(reg, Options{}).Run(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one keyword")
}

func TestRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reg := buildRegistry(t, func(src *discovery.Source) {
		src.Step(`.*`, func() { t.Error("step ran despite cancellation") })
	})
	_, err := New(reg, Options{}).Run(ctx, loadSuite(t, basketSuite))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConsoleResolvesBindings(t *testing.T) {
	reg := buildRegistry(t, func(src *discovery.Source) {
		src.Given(`I have (\d+) cukes`, func(n int) {})
	})
	var out strings.Builder
	c := NewConsole(reg, &out)

	if !c.Eval("given I have 5 cukes") {
		t.Fatal("Eval should continue the session")
	}
	assert.Contains(t, out.String(), `I have (\d+) cukes`)

	out.Reset()
	c.Eval("given I have no cukes at all")
	assert.Contains(t, out.String(), "undefined")

	if c.Eval("quit") {
		t.Error("quit should end the session")
	}
}
