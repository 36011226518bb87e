// Package report emits run results: a JSONL trace artifact written at
// step boundaries and a styled terminal summary.
package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ormasoftchile/stepbind/pkg/binding"
	"github.com/ormasoftchile/stepbind/pkg/dispatch"
)

// Event wraps a step or hook result for JSONL trace output.
type Event struct {
	Type      string               `json:"type"` // step_result, hook_result
	Timestamp time.Time            `json:"timestamp"`
	Feature   string               `json:"feature"`
	Scenario  string               `json:"scenario"`
	Step      *dispatch.StepResult `json:"step,omitempty"`
	Hook      *dispatch.HookResult `json:"hook,omitempty"`
}

// TraceWriter appends trace events to a JSONL file. It implements
// dispatch.Observer; write errors are held and surfaced by Close so
// observation never interrupts a run. Safe for concurrent use: the
// parallel runner shares one writer across worker dispatchers.
type TraceWriter struct {
	mu       sync.Mutex
	file     *os.File
	writer   *bufio.Writer
	enc      *json.Encoder
	writeErr error
}

// NewTraceWriter creates a trace writer that appends to path.
func NewTraceWriter(path string) (*TraceWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	w := bufio.NewWriter(f)
	return &TraceWriter{
		file:   f,
		writer: w,
		enc:    json.NewEncoder(w),
	}, nil
}

// StepFinished implements dispatch.Observer.
func (tw *TraceWriter) StepFinished(ctx *binding.ExecutionContext, res dispatch.StepResult) {
	tw.write(Event{
		Type:      "step_result",
		Timestamp: time.Now(),
		Feature:   ctx.Feature,
		Scenario:  ctx.Scenario,
		Step:      &res,
	})
}

// HookFinished implements dispatch.Observer.
func (tw *TraceWriter) HookFinished(ctx *binding.ExecutionContext, res dispatch.HookResult) {
	tw.write(Event{
		Type:      "hook_result",
		Timestamp: time.Now(),
		Feature:   ctx.Feature,
		Scenario:  ctx.Scenario,
		Hook:      &res,
	})
}

// write encodes one event and flushes at the step boundary.
func (tw *TraceWriter) write(evt Event) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.writeErr != nil {
		return
	}
	if err := tw.enc.Encode(evt); err != nil {
		tw.writeErr = fmt.Errorf("encode trace event: %w", err)
		return
	}
	if err := tw.writer.Flush(); err != nil {
		tw.writeErr = fmt.Errorf("flush trace: %w", err)
		return
	}
	if err := tw.file.Sync(); err != nil {
		tw.writeErr = fmt.Errorf("sync trace: %w", err)
	}
}

// Close flushes and closes the trace file, returning the first write
// error encountered during the run, if any.
func (tw *TraceWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if err := tw.writer.Flush(); err != nil {
		return err
	}
	if err := tw.file.Close(); err != nil {
		return err
	}
	return tw.writeErr
}

// ReadTrace loads every event from a JSONL trace file.
func ReadTrace(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	defer f.Close()

	var events []Event
	dec := json.NewDecoder(f)
	for dec.More() {
		var evt Event
		if err := dec.Decode(&evt); err != nil {
			return nil, fmt.Errorf("decode trace event %d: %w", len(events), err)
		}
		events = append(events, evt)
	}
	return events, nil
}
