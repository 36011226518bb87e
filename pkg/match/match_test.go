package match

import (
	"testing"

	"github.com/ormasoftchile/stepbind/pkg/binding"
	"github.com/ormasoftchile/stepbind/pkg/invoke"
)

func mustBinding(t *testing.T, pattern string) *binding.StepBinding {
	t.Helper()
	re, err := Compile(pattern)
	if err != nil {
		t.Fatalf("Compile(%q): %v", pattern, err)
	}
	target, err := invoke.NewTarget(func() {})
	if err != nil {
		t.Fatalf("NewTarget: %v", err)
	}
	b, err := binding.NewStepBinding(re, pattern, binding.GivenWhenThen, target)
	if err != nil {
		t.Fatalf("NewStepBinding: %v", err)
	}
	return b
}

func TestCompileRejectsBadPattern(t *testing.T) {
	if _, err := Compile(`I have (\d+ cukes`); err == nil {
		t.Error("expected error for unbalanced group")
	}
}

// TestMatchIsAnchored checks that a pattern matching only a prefix or
// substring of the step text is not reported.
func TestMatchIsAnchored(t *testing.T) {
	candidates := []*binding.StepBinding{mustBinding(t, `I have (\d+) cukes`)}

	cases := []struct {
		text string
		hit  bool
	}{
		{"I have 5 cukes", true},
		{"I have 5 cukes in my basket", false},
		{"today I have 5 cukes", false},
		{"I have  cukes", false},
	}
	for _, c := range cases {
		got := Match(c.text, candidates)
		if (len(got) == 1) != c.hit {
			t.Errorf("Match(%q) = %d results, want hit=%v", c.text, len(got), c.hit)
		}
	}
}

func TestMatchAlternationStaysAnchored(t *testing.T) {
	// Without the non-capturing wrap, `a|b` anchors only the branches.
	candidates := []*binding.StepBinding{mustBinding(t, `red|green`)}
	if got := Match("red light", candidates); len(got) != 0 {
		t.Errorf("Match(%q) matched; alternation escaped the anchors", "red light")
	}
	if got := Match("green", candidates); len(got) != 1 {
		t.Errorf("Match(%q) = %d results, want 1", "green", len(got))
	}
}

func TestMatchCapturesInDeclarationOrder(t *testing.T) {
	candidates := []*binding.StepBinding{mustBinding(t, `I move (\d+) from (\w+) to (\w+)`)}
	got := Match("I move 3 from savings to checking", candidates)
	if len(got) != 1 {
		t.Fatalf("Match = %d results, want 1", len(got))
	}
	want := []string{"3", "savings", "checking"}
	if len(got[0].Captures) != len(want) {
		t.Fatalf("captures = %v, want %v", got[0].Captures, want)
	}
	for i := range want {
		if got[0].Captures[i] != want[i] {
			t.Errorf("capture %d = %q, want %q", i, got[0].Captures[i], want[i])
		}
	}
}

func TestMatchReturnsAllCandidatesInOrder(t *testing.T) {
	first := mustBinding(t, `I have \d+ cukes`)
	second := mustBinding(t, `I have .* cukes`)
	got := Match("I have 5 cukes", []*binding.StepBinding{first, second})
	if len(got) != 2 {
		t.Fatalf("Match = %d results, want 2", len(got))
	}
	if got[0].Binding != first || got[1].Binding != second {
		t.Error("results not in candidate order")
	}
}
