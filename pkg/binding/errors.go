package binding

import (
	"fmt"
	"strings"
)

// ConfigError reports a binding rejected at registration time. It is
// fatal to the offending binding only; discovery of other bindings
// continues.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Reason
}

// UndefinedStepError reports step text that no in-scope step
// definition matches.
type UndefinedStepError struct {
	Text string
}

func (e *UndefinedStepError) Error() string {
	return fmt.Sprintf("no step definition matches %q", e.Text)
}

// AmbiguousStepError reports step text matched by more than one
// in-scope step definition. Candidates holds the literal pattern text
// of every match so authors can disambiguate.
type AmbiguousStepError struct {
	Text       string
	Candidates []string
}

func (e *AmbiguousStepError) Error() string {
	return fmt.Sprintf("ambiguous step %q: matched by %s", e.Text, strings.Join(e.Candidates, ", "))
}

// StepFailure wraps an error raised by a step invocable.
type StepFailure struct {
	Text  string
	Cause error
}

func (e *StepFailure) Error() string {
	return fmt.Sprintf("step %q failed: %v", e.Text, e.Cause)
}

func (e *StepFailure) Unwrap() error { return e.Cause }

// HookFailure wraps an error raised by a hook invocable.
type HookFailure struct {
	Event Event
	Cause error
}

func (e *HookFailure) Error() string {
	return fmt.Sprintf("%s hook failed: %v", e.Event, e.Cause)
}

func (e *HookFailure) Unwrap() error { return e.Cause }

// TransformError wraps a failure converting a raw capture to a typed
// argument. It aborts the step, never the run.
type TransformError struct {
	Raw   string
	Cause error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform argument %q: %v", e.Raw, e.Cause)
}

func (e *TransformError) Unwrap() error { return e.Cause }
