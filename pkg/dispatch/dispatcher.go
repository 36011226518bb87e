// Package dispatch orchestrates the run/feature/scenario/block/step
// lifecycle: it selects the winning step-definition candidate, runs
// hooks in declaration order (reverse on exit), and aggregates
// failures without ever aborting the run.
package dispatch

import (
	"fmt"
	"reflect"
	"time"

	"github.com/ormasoftchile/stepbind/pkg/binding"
	"github.com/ormasoftchile/stepbind/pkg/match"
	"github.com/ormasoftchile/stepbind/pkg/registry"
	"github.com/ormasoftchile/stepbind/pkg/scope"
	"github.com/ormasoftchile/stepbind/pkg/transform"
)

var ctxType = reflect.TypeOf((*binding.ExecutionContext)(nil))

// Observer receives step and hook results as they are produced, for
// tracing and live reporting. Observers must not mutate the context.
type Observer interface {
	StepFinished(ctx *binding.ExecutionContext, res StepResult)
	HookFinished(ctx *binding.ExecutionContext, res HookResult)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithObserver attaches a result observer.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) { d.observer = o }
}

// WithTransforms supplies the argument transformation pipeline. When
// absent, only the built-in coercions apply.
func WithTransforms(p *transform.Pipeline) Option {
	return func(d *Dispatcher) { d.pipeline = p }
}

// WithFeatureError seeds every feature entered on this dispatcher with
// a pre-existing setup failure, as if its FeatureStart hooks had
// failed. Used by the parallel runner to carry the coordinator's
// FeatureStart failure into worker dispatchers, which suppress the
// event itself.
func WithFeatureError(err error) Option {
	return func(d *Dispatcher) { d.seedErr = err }
}

// SuppressEvents disables hook firing for the given events on this
// dispatcher. Used by the parallel runner, where run- and
// feature-level hooks are coordinated once, above the per-scenario
// dispatchers.
func SuppressEvents(events ...binding.Event) Option {
	return func(d *Dispatcher) {
		for _, e := range events {
			d.suppress[e] = true
		}
	}
}

// Dispatcher drives a single path through the lifecycle state
// machine. It is not safe for concurrent use; parallel scenario
// execution uses one dispatcher per worker over the shared frozen
// registry.
type Dispatcher struct {
	reg      *registry.Registry
	pipeline *transform.Pipeline
	ctx      *binding.ExecutionContext
	observer Observer
	suppress map[binding.Event]bool

	state    State
	run      *RunResult
	feature  *FeatureResult
	scenario *ScenarioResult

	featureTags  []string
	scenarioTags []string

	// featureErr poisons every scenario in the feature after a
	// FeatureStart hook failure: steps are skipped, cleanup still runs.
	featureErr error
	// seedErr pre-poisons features entered on this dispatcher (see
	// WithFeatureError).
	seedErr error

	// halted marks the scenario's terminal substate: once set, the
	// remaining steps report Skipped and are not executed.
	halted  bool
	blockKw Keyword
	prevKw  Keyword
}

// New builds a dispatcher over a frozen registry. Freezing is the
// caller's responsibility; New freezes defensively so a run never
// races discovery.
func New(reg *registry.Registry, opts ...Option) *Dispatcher {
	reg.Freeze()
	d := &Dispatcher{
		reg:      reg,
		pipeline: transform.NewPipeline(reg.Transforms()),
		ctx:      binding.NewExecutionContext(),
		suppress: make(map[binding.Event]bool),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Context exposes the dispatcher's execution context, read-only by
// convention: only the dispatcher mutates it.
func (d *Dispatcher) Context() *binding.ExecutionContext { return d.ctx }

// State returns the current lifecycle state.
func (d *Dispatcher) State() State { return d.state }

func (d *Dispatcher) invalid(op string) error {
	return fmt.Errorf("cannot %s in state %s", op, d.state)
}

// StartRun enters RunActive and fires RunStart hooks.
func (d *Dispatcher) StartRun() error {
	if d.state != Idle {
		return d.invalid("start run")
	}
	d.run = &RunResult{StartedAt: time.Now()}
	d.state = RunActive
	d.run.Hooks = append(d.run.Hooks, d.fireHooks(binding.RunStart)...)
	return nil
}

// EndRun fires RunEnd hooks in reverse registration order and returns
// the aggregated result.
func (d *Dispatcher) EndRun() (*RunResult, error) {
	if d.state != RunActive {
		return nil, d.invalid("end run")
	}
	d.run.Hooks = append(d.run.Hooks, d.fireHooks(binding.RunEnd)...)
	d.run.EndedAt = time.Now()
	d.state = Idle
	return d.run, nil
}

// StartFeature enters FeatureActive: the context gains the feature
// name and tags, then FeatureStart hooks fire. A failing FeatureStart
// hook does not abort the run; it marks every scenario in the feature
// failed while their cleanup hooks still run.
func (d *Dispatcher) StartFeature(name string, tags []string) error {
	if d.state != RunActive {
		return d.invalid("start feature")
	}
	d.ctx.Feature = name
	d.ctx.AddTags(tags)
	d.featureTags = tags
	d.featureErr = d.seedErr
	d.feature = &FeatureResult{Name: name, Tags: tags}
	d.state = FeatureActive

	for _, res := range d.fireHooks(binding.FeatureStart) {
		d.feature.Hooks = append(d.feature.Hooks, res)
		if res.Err != nil && d.featureErr == nil {
			d.featureErr = res.Err
		}
	}
	return nil
}

// EndFeature fires FeatureEnd hooks in reverse order and folds the
// feature into the run result.
func (d *Dispatcher) EndFeature() (*FeatureResult, error) {
	if d.state != FeatureActive {
		return nil, d.invalid("end feature")
	}
	d.feature.Hooks = append(d.feature.Hooks, d.fireHooks(binding.FeatureEnd)...)
	d.ctx.RemoveTags(d.featureTags)
	d.ctx.Feature = ""
	d.featureTags = nil

	d.run.Features = append(d.run.Features, d.feature)
	d.run.Steps.Merge(d.feature.Steps)
	feature := d.feature
	d.feature = nil
	d.state = RunActive
	return feature, nil
}

// StartScenario enters ScenarioActive and fires ScenarioStart hooks.
// A failing ScenarioStart hook (or an earlier FeatureStart failure)
// halts the scenario: its steps are skipped, its End hooks still run.
func (d *Dispatcher) StartScenario(name string, tags []string) error {
	if d.state != FeatureActive {
		return d.invalid("start scenario")
	}
	d.ctx.Scenario = name
	d.ctx.AddTags(tags)
	d.scenarioTags = tags
	d.scenario = &ScenarioResult{Name: name, Tags: tags}
	d.halted = false
	d.blockKw = ""
	d.prevKw = ""
	d.state = ScenarioActive

	if d.featureErr != nil {
		d.haltScenario(Failed, d.featureErr)
	}
	for _, res := range d.fireHooks(binding.ScenarioStart) {
		d.scenario.Hooks = append(d.scenario.Hooks, res)
		if res.Err != nil && !d.halted {
			d.haltScenario(Failed, res.Err)
		}
	}
	return nil
}

// EndScenario closes any open block, fires ScenarioEnd hooks in
// reverse order, and returns the scenario result. Cleanup hooks run
// unconditionally; their failures are collected as secondary errors
// and never replace the primary cause.
func (d *Dispatcher) EndScenario() (*ScenarioResult, error) {
	switch d.state {
	case BlockActive:
		d.endBlock()
	case ScenarioActive:
	default:
		return nil, d.invalid("end scenario")
	}

	for _, res := range d.fireHooks(binding.ScenarioEnd) {
		d.scenario.Hooks = append(d.scenario.Hooks, res)
		if res.Err != nil {
			if d.scenario.Primary == nil {
				d.scenario.Status = Failed
				d.scenario.Primary = res.Err
			} else {
				d.scenario.Secondary = append(d.scenario.Secondary, res.Err)
			}
		}
	}

	d.ctx.RemoveTags(d.scenarioTags)
	d.ctx.Scenario = ""
	d.scenarioTags = nil

	d.scenario.StatusStr = d.scenario.Status.String()
	d.recordScenario(d.scenario)
	scenario := d.scenario
	d.scenario = nil
	d.state = FeatureActive
	return scenario, nil
}

// recordScenario folds a finished scenario into the current feature.
func (d *Dispatcher) recordScenario(res *ScenarioResult) {
	d.feature.Scenarios = append(d.feature.Scenarios, res)
	for _, step := range res.Steps {
		d.feature.Steps.Add(step.Status)
	}
	if res.Status == Passed {
		d.feature.ScenariosPassed++
	} else {
		d.feature.ScenariosFailed++
	}
}

// FeatureError returns the current feature's setup failure, nil when
// its FeatureStart hooks all passed. Valid between StartFeature and
// EndFeature.
func (d *Dispatcher) FeatureError() error { return d.featureErr }

// AdoptScenario folds a scenario result produced by another dispatcher
// into the current feature. Used by the parallel runner to merge
// worker results under the coordinating dispatcher.
func (d *Dispatcher) AdoptScenario(res *ScenarioResult) error {
	if d.state != FeatureActive {
		return d.invalid("adopt scenario")
	}
	d.recordScenario(res)
	return nil
}

func (d *Dispatcher) startBlock(kw Keyword) {
	d.blockKw = kw
	d.state = BlockActive
	for _, res := range d.fireHooks(binding.BlockStart) {
		d.scenario.Hooks = append(d.scenario.Hooks, res)
		if res.Err != nil && !d.halted {
			d.haltScenario(Failed, res.Err)
		}
	}
}

// endBlock fires BlockEnd hooks. A failing BlockEnd hook terminates
// the scenario like any other hook failure.
func (d *Dispatcher) endBlock() {
	for _, res := range d.fireHooks(binding.BlockEnd) {
		d.scenario.Hooks = append(d.scenario.Hooks, res)
		if res.Err != nil {
			d.haltScenario(Failed, res.Err)
		}
	}
	d.blockKw = ""
	d.state = ScenarioActive
}

// haltScenario moves the scenario into a terminal substate. The first
// cause wins status and primary; later failures during unwind become
// secondary.
func (d *Dispatcher) haltScenario(status Status, cause error) {
	d.halted = true
	if d.scenario.Primary == nil {
		d.scenario.Status = status
		d.scenario.Primary = cause
	} else if cause != nil {
		d.scenario.Secondary = append(d.scenario.Secondary, cause)
	}
}

// Step executes one step of the current scenario. And/But inherit the
// preceding primary keyword; a keyword change closes the previous
// block and opens a new one. Once the scenario is halted — by a
// failure, an undefined step, or an ambiguous step — remaining steps
// are reported Skipped without being executed.
func (d *Dispatcher) Step(keyword Keyword, text string) (StepResult, error) {
	if d.state != ScenarioActive && d.state != BlockActive {
		return StepResult{}, d.invalid("execute step")
	}

	primary := keyword
	if !keyword.Primary() {
		if d.prevKw == "" {
			return StepResult{}, fmt.Errorf("step %q: %s without a preceding Given/When/Then", text, keyword)
		}
		primary = d.prevKw
	}
	d.prevKw = primary

	if d.halted {
		res := newStepResult(keyword, text, Skipped, nil)
		d.finishStep(&res)
		return res, nil
	}

	if d.state == BlockActive && d.blockKw != primary {
		d.endBlock()
	}
	if d.state == ScenarioActive && !d.halted {
		d.startBlock(primary)
	}
	if d.halted { // BlockEnd or BlockStart hook failed
		res := newStepResult(keyword, text, Skipped, nil)
		d.finishStep(&res)
		return res, nil
	}

	d.state = StepActive
	d.ctx.StepText = text
	res := newStepResult(keyword, text, Passed, nil)

	hookFailed := false
	for _, hr := range d.fireHooks(binding.StepStart) {
		d.scenario.Hooks = append(d.scenario.Hooks, hr)
		if hr.Err != nil {
			hookFailed = true
			res.Status = Failed
			res.Err = hr.Err
		}
	}
	if !hookFailed {
		d.executeStep(&res, primary, text)
	}

	// The step's own outcome halts first so it stays the primary cause
	// ahead of any StepEnd hook failure.
	switch res.Status {
	case Failed:
		d.haltScenario(Failed, res.Err)
	case Undefined:
		d.haltScenario(Undefined, res.Err)
	case Ambiguous:
		d.haltScenario(Ambiguous, res.Err)
	}

	for _, hr := range d.fireHooks(binding.StepEnd) {
		d.scenario.Hooks = append(d.scenario.Hooks, hr)
		if hr.Err != nil {
			d.haltScenario(Failed, hr.Err)
		}
	}
	d.ctx.StepText = ""
	d.state = BlockActive

	d.finishStep(&res)
	return res, nil
}

// finishStep stamps timing, records, and notifies the observer.
func (d *Dispatcher) finishStep(res *StepResult) {
	res.Duration = time.Since(res.StartedAt)
	res.StatusStr = res.Status.String()
	if res.Err != nil {
		res.Error = res.Err.Error()
	}
	d.scenario.Steps = append(d.scenario.Steps, *res)
	if d.observer != nil {
		d.observer.StepFinished(d.ctx, *res)
	}
}

// executeStep resolves the winning candidate and invokes it.
func (d *Dispatcher) executeStep(res *StepResult, primary Keyword, text string) {
	candidates := d.reg.StepCandidates(kindFor(primary))

	inScope := candidates[:0:0]
	for _, c := range candidates {
		ok, err := scope.InScope(c.Scopes, d.ctx)
		if err != nil {
			res.Status = Failed
			res.Err = &binding.StepFailure{Text: text, Cause: err}
			return
		}
		if ok {
			inScope = append(inScope, c)
		}
	}

	matches := match.Match(text, inScope)
	switch len(matches) {
	case 0:
		res.Status = Undefined
		res.Err = &binding.UndefinedStepError{Text: text}
		for _, c := range inScope {
			res.Candidates = append(res.Candidates, c.Source)
		}
		return
	case 1:
	default:
		patterns := make([]string, len(matches))
		for i, m := range matches {
			patterns[i] = m.Binding.Source
		}
		res.Status = Ambiguous
		res.Err = &binding.AmbiguousStepError{Text: text, Candidates: patterns}
		res.Candidates = patterns
		return
	}

	m := matches[0]
	target := m.Binding.Target

	args := make([]reflect.Value, 0, target.NumIn())
	params := target.NumIn()
	first := 0
	if params > 0 && target.In(0) == ctxType {
		args = append(args, reflect.ValueOf(d.ctx))
		first = 1
	}
	if params-first != len(m.Captures) {
		res.Status = Failed
		res.Err = &binding.StepFailure{
			Text:  text,
			Cause: fmt.Errorf("pattern %q captures %d arguments but target takes %d", m.Binding.Source, len(m.Captures), params-first),
		}
		return
	}
	for i, raw := range m.Captures {
		v, err := d.pipeline.Convert(raw, target.In(first+i))
		if err != nil {
			res.Status = Failed
			res.Err = &binding.StepFailure{Text: text, Cause: err}
			return
		}
		args = append(args, v)
	}

	if _, err := target.Call(args); err != nil {
		res.Status = Failed
		res.Err = &binding.StepFailure{Text: text, Cause: err}
	}
}

// fireHooks runs the in-scope hooks for event: registration order on
// entry, reverse registration order on exit, so the most recently
// registered cleanup runs first.
func (d *Dispatcher) fireHooks(event binding.Event) []HookResult {
	if d.suppress[event] {
		return nil
	}
	hooks := d.reg.Hooks(event)
	if !event.IsStart() {
		reversed := make([]*binding.HookBinding, len(hooks))
		for i, h := range hooks {
			reversed[len(hooks)-1-i] = h
		}
		hooks = reversed
	}

	var out []HookResult
	for _, h := range hooks {
		ok, err := d.hookInScope(h)
		if err == nil && !ok {
			continue
		}
		if err == nil {
			err = d.invokeHook(h)
		}
		res := HookResult{Event: event, Name: event.String()}
		if err != nil {
			res.Err = &binding.HookFailure{Event: event, Cause: err}
			res.Error = res.Err.Error()
		}
		if d.observer != nil {
			d.observer.HookFinished(d.ctx, res)
		}
		out = append(out, res)
	}
	return out
}

// hookInScope applies the tag filter, then the declared scopes.
func (d *Dispatcher) hookInScope(h *binding.HookBinding) (bool, error) {
	if len(h.Tags) > 0 {
		hit := false
		for _, t := range h.Tags {
			if d.ctx.HasTag(t) {
				hit = true
				break
			}
		}
		if !hit {
			return false, nil
		}
	}
	return scope.InScope(h.Scopes, d.ctx)
}

func (d *Dispatcher) invokeHook(h *binding.HookBinding) error {
	var args []reflect.Value
	if h.Target.NumIn() == 1 {
		args = []reflect.Value{reflect.ValueOf(d.ctx)}
	}
	_, err := h.Target.Call(args)
	return err
}

func kindFor(kw Keyword) binding.Kind {
	switch kw {
	case Given:
		return binding.KindGiven
	case When:
		return binding.KindWhen
	case Then:
		return binding.KindThen
	}
	return binding.KindStep
}
