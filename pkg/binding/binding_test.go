package binding

import (
	"reflect"
	"testing"

	"github.com/ormasoftchile/stepbind/pkg/invoke"
)

func TestKindSetHas(t *testing.T) {
	if !GivenWhenThen.Has(KindGiven) || !GivenWhenThen.Has(KindWhen) || !GivenWhenThen.Has(KindThen) {
		t.Error("GivenWhenThen should contain all three concrete kinds")
	}
	if GivenWhenThen.Generic() {
		t.Error("GivenWhenThen should not be generic")
	}
	if !AnyStep.Generic() {
		t.Error("AnyStep should be generic")
	}
	if Given.Has(KindWhen) {
		t.Error("Given should not contain KindWhen")
	}
}

func TestKindSetString(t *testing.T) {
	if got := (Given | Then).String(); got != "Given|Then" {
		t.Errorf("String = %q, want Given|Then", got)
	}
	if got := KindSet(0).String(); got != "none" {
		t.Errorf("String = %q, want none", got)
	}
}

func TestEventIsStart(t *testing.T) {
	starts := []Event{RunStart, FeatureStart, ScenarioStart, BlockStart, StepStart}
	ends := []Event{RunEnd, FeatureEnd, ScenarioEnd, BlockEnd, StepEnd}
	for _, e := range starts {
		if !e.IsStart() {
			t.Errorf("%s should be a start event", e)
		}
	}
	for _, e := range ends {
		if e.IsStart() {
			t.Errorf("%s should be an end event", e)
		}
	}
}

func TestNewStepBindingRejectsEmptyKinds(t *testing.T) {
	target, err := invoke.NewTarget(func() {})
	if err != nil {
		t.Fatalf("NewTarget: %v", err)
	}
	if _, err := NewStepBinding(nil, "x", 0, target); err == nil {
		t.Error("expected error for empty kind set")
	}
	if _, err := NewStepBinding(nil, "x", Given, nil); err == nil {
		t.Error("expected error for nil target")
	}
}

func TestExecutionContextTagMultiset(t *testing.T) {
	ctx := NewExecutionContext()
	ctx.AddTags([]string{"slow", "db"})
	ctx.AddTags([]string{"slow"}) // scenario repeats a feature tag

	if !ctx.HasTag("slow") || !ctx.HasTag("db") {
		t.Fatal("expected slow and db active")
	}

	ctx.RemoveTags([]string{"slow"}) // scenario exit
	if !ctx.HasTag("slow") {
		t.Error("feature contribution of slow should survive scenario exit")
	}
	ctx.RemoveTags([]string{"slow", "db"}) // feature exit
	if ctx.HasTag("slow") || ctx.HasTag("db") {
		t.Error("all tags should be gone after feature exit")
	}
}

func TestExecutionContextTagsCaseSensitive(t *testing.T) {
	ctx := NewExecutionContext()
	ctx.AddTags([]string{"Slow"})
	if ctx.HasTag("slow") {
		t.Error("tag membership must be case-sensitive")
	}
}

func TestActiveTagsSorted(t *testing.T) {
	ctx := NewExecutionContext()
	ctx.AddTags([]string{"zeta", "alpha", "mid"})
	got := ctx.ActiveTags()
	want := []string{"alpha", "mid", "zeta"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ActiveTags = %v, want %v", got, want)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	ctx := NewExecutionContext()
	ctx.Feature = "f"
	ctx.AddTags([]string{"a"})

	clone := ctx.Clone()
	clone.AddTags([]string{"b"})
	clone.Feature = "g"

	if ctx.HasTag("b") {
		t.Error("mutating the clone leaked into the original")
	}
	if ctx.Feature != "f" {
		t.Errorf("original feature = %q, want f", ctx.Feature)
	}
	if !clone.HasTag("a") {
		t.Error("clone should carry the original's tags")
	}
}
