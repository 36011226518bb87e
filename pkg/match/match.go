// Package match compiles step patterns and matches them against step
// text, extracting raw capture groups for the transformation pipeline.
package match

import (
	"fmt"
	"regexp"

	"github.com/ormasoftchile/stepbind/pkg/binding"
)

// Compile compiles a step pattern for full-string matching. The
// pattern is wrapped so it must consume the entire step text; a
// pattern matching only a prefix or substring is never reported as a
// match, which keeps similarly worded steps from colliding.
func Compile(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, fmt.Errorf("compile step pattern %q: %w", pattern, err)
	}
	return re, nil
}

// Result pairs a matched binding with its raw captured arguments, in
// group declaration order. Produced transiently per step.
type Result struct {
	Binding  *binding.StepBinding
	Captures []string
}

// Match applies every candidate's anchored pattern to text and returns
// all full-string matches in candidate order. Zero results means an
// undefined step, more than one an ambiguous step; the caller decides
// policy.
func Match(text string, candidates []*binding.StepBinding) []Result {
	var out []Result
	for _, c := range candidates {
		m := c.Pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		out = append(out, Result{Binding: c, Captures: m[1:]})
	}
	return out
}
