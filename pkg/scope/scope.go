// Package scope decides whether a binding's declared scope constraints
// are satisfied by the current execution context.
package scope

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/ormasoftchile/stepbind/pkg/binding"
)

// InScope reports whether the constraint list admits the context.
// An empty list means the binding is unconstrained and always applies.
// Otherwise satisfying any single constraint is sufficient; within one
// constraint every present field must match.
func InScope(scopes []binding.ScopeConstraint, ctx *binding.ExecutionContext) (bool, error) {
	if len(scopes) == 0 {
		return true, nil
	}
	for _, sc := range scopes {
		ok, err := satisfied(sc, ctx)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// satisfied evaluates a single constraint. Feature and scenario names
// are matched as case-insensitive substrings; empty fields are
// unconstrained, not "matches empty string".
func satisfied(sc binding.ScopeConstraint, ctx *binding.ExecutionContext) (bool, error) {
	if sc.Tag != "" && !ctx.HasTag(sc.Tag) {
		return false, nil
	}
	if sc.Feature != "" && !containsFold(ctx.Feature, sc.Feature) {
		return false, nil
	}
	if sc.Scenario != "" && !containsFold(ctx.Scenario, sc.Scenario) {
		return false, nil
	}
	if sc.Condition != "" {
		return evalCondition(sc.Condition, ctx)
	}
	return true, nil
}

func containsFold(name, pattern string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(pattern))
}

// evalCondition evaluates a guard expression using expr-lang against
// the context's tags, feature, scenario, and step text.
func evalCondition(cond string, ctx *binding.ExecutionContext) (bool, error) {
	env := map[string]any{
		"tags":     ctx.ActiveTags(),
		"feature":  ctx.Feature,
		"scenario": ctx.Scenario,
		"step":     ctx.StepText,
	}
	program, err := expr.Compile(cond, expr.Env(env), expr.AsBool())
	if err != nil {
		return false, fmt.Errorf("compile scope condition %q: %w", cond, err)
	}
	output, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("eval scope condition %q: %w", cond, err)
	}
	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("scope condition %q did not return bool (got %T)", cond, output)
	}
	return result, nil
}
