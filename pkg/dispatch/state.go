package dispatch

// State is the dispatcher's position in the lifecycle nesting. The
// machine moves Idle → RunActive → FeatureActive → ScenarioActive →
// BlockActive → StepActive and unwinds symmetrically back to Idle.
type State int

const (
	Idle State = iota
	RunActive
	FeatureActive
	ScenarioActive
	BlockActive
	StepActive
)

var stateNames = [...]string{
	"Idle", "RunActive", "FeatureActive", "ScenarioActive", "BlockActive", "StepActive",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// Keyword is a step keyword as written in the suite. And and But are
// continuation keywords: they inherit the preceding primary keyword.
type Keyword string

const (
	Given Keyword = "Given"
	When  Keyword = "When"
	Then  Keyword = "Then"
	And   Keyword = "And"
	But   Keyword = "But"
)

// Primary reports whether k opens a scenario block on its own.
func (k Keyword) Primary() bool {
	return k == Given || k == When || k == Then
}
