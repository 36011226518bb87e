package binding

import "sort"

// ExecutionContext is the mutable per-run context read by the scope
// evaluator and matcher. It is mutated only by the dispatcher at
// scope entry/exit; each concurrently executing scenario owns its own
// instance, so no locking is needed.
type ExecutionContext struct {
	// tags is a multiset: feature and scenario scopes may contribute
	// the same tag, and exits must remove only their own contribution.
	tags map[string]int

	Feature  string
	Scenario string
	StepText string
}

// NewExecutionContext returns an empty context.
func NewExecutionContext() *ExecutionContext {
	return &ExecutionContext{tags: make(map[string]int)}
}

// AddTags records tags entering a scope.
func (c *ExecutionContext) AddTags(tags []string) {
	for _, t := range tags {
		c.tags[t]++
	}
}

// RemoveTags removes one contribution of each tag, on scope exit.
func (c *ExecutionContext) RemoveTags(tags []string) {
	for _, t := range tags {
		if c.tags[t] <= 1 {
			delete(c.tags, t)
		} else {
			c.tags[t]--
		}
	}
}

// HasTag reports case-sensitive membership in the active tag set.
func (c *ExecutionContext) HasTag(tag string) bool {
	return c.tags[tag] > 0
}

// ActiveTags returns the active tag set, sorted for stable output.
func (c *ExecutionContext) ActiveTags() []string {
	out := make([]string, 0, len(c.tags))
	for t := range c.tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy for a parallel scenario path.
func (c *ExecutionContext) Clone() *ExecutionContext {
	tags := make(map[string]int, len(c.tags))
	for t, n := range c.tags {
		tags[t] = n
	}
	return &ExecutionContext{
		tags:     tags,
		Feature:  c.Feature,
		Scenario: c.Scenario,
		StepText: c.StepText,
	}
}
