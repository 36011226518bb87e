package dispatch

import (
	"time"

	"github.com/ormasoftchile/stepbind/pkg/binding"
)

// Status is the outcome of a step or scenario.
type Status int

const (
	Passed Status = iota
	Failed
	Undefined
	Skipped
	Ambiguous
)

var statusNames = [...]string{"passed", "failed", "undefined", "skipped", "ambiguous"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// StepResult is the per-step outcome handed to the upstream runner.
type StepResult struct {
	Keyword    string        `json:"keyword"`
	Text       string        `json:"text"`
	Status     Status        `json:"-"`
	StatusStr  string        `json:"status"`
	Err        error         `json:"-"`
	Error      string        `json:"error,omitempty"`
	Candidates []string      `json:"candidates,omitempty"` // pattern text, for undefined/ambiguous diagnosis
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}

// HookResult is the per-hook outcome; Err is nil when the hook passed.
type HookResult struct {
	Event binding.Event `json:"-"`
	Name  string        `json:"event"`
	Err   error         `json:"-"`
	Error string        `json:"error,omitempty"`
}

// Summary counts step results by status.
type Summary struct {
	Total     int `json:"total"`
	Passed    int `json:"passed"`
	Failed    int `json:"failed"`
	Undefined int `json:"undefined"`
	Skipped   int `json:"skipped"`
	Ambiguous int `json:"ambiguous"`
}

// Add records one result of the given status.
func (s *Summary) Add(st Status) {
	s.Total++
	switch st {
	case Passed:
		s.Passed++
	case Failed:
		s.Failed++
	case Undefined:
		s.Undefined++
	case Skipped:
		s.Skipped++
	case Ambiguous:
		s.Ambiguous++
	}
}

// Merge folds other into s.
func (s *Summary) Merge(other Summary) {
	s.Total += other.Total
	s.Passed += other.Passed
	s.Failed += other.Failed
	s.Undefined += other.Undefined
	s.Skipped += other.Skipped
	s.Ambiguous += other.Ambiguous
}

// ScenarioResult aggregates one scenario's steps and hooks. Primary is
// the original cause when the scenario failed; Secondary collects hook
// failures gathered during unwind, which never replace the primary.
type ScenarioResult struct {
	Name      string       `json:"name"`
	Tags      []string     `json:"tags,omitempty"`
	Status    Status       `json:"-"`
	StatusStr string       `json:"status"`
	Steps     []StepResult `json:"steps"`
	Hooks     []HookResult `json:"hooks,omitempty"`
	Primary   error        `json:"-"`
	Secondary []error      `json:"-"`
}

// FeatureResult aggregates one feature's scenarios.
type FeatureResult struct {
	Name      string            `json:"name"`
	Tags      []string          `json:"tags,omitempty"`
	Scenarios []*ScenarioResult `json:"scenarios"`
	Hooks     []HookResult      `json:"hooks,omitempty"`
	Steps     Summary           `json:"steps"`
	// ScenariosPassed / ScenariosFailed count terminal scenario states;
	// undefined and ambiguous scenarios count as failed here.
	ScenariosPassed int `json:"scenarios_passed"`
	ScenariosFailed int `json:"scenarios_failed"`
}

// RunResult is the whole-run aggregate.
type RunResult struct {
	Features  []*FeatureResult `json:"features"`
	Hooks     []HookResult     `json:"hooks,omitempty"`
	Steps     Summary          `json:"steps"`
	StartedAt time.Time        `json:"started_at"`
	EndedAt   time.Time        `json:"ended_at"`
}

// Failed reports whether any scenario or run-level hook failed.
func (r *RunResult) Failed() bool {
	for _, h := range r.Hooks {
		if h.Err != nil {
			return true
		}
	}
	for _, f := range r.Features {
		if f.ScenariosFailed > 0 {
			return true
		}
		for _, h := range f.Hooks {
			if h.Err != nil {
				return true
			}
		}
	}
	return false
}

func newStepResult(keyword Keyword, text string, status Status, err error) StepResult {
	res := StepResult{
		Keyword:   string(keyword),
		Text:      text,
		Status:    status,
		StatusStr: status.String(),
		Err:       err,
		StartedAt: time.Now(),
	}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}
