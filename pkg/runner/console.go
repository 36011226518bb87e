package runner

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/ormasoftchile/stepbind/pkg/binding"
	"github.com/ormasoftchile/stepbind/pkg/match"
	"github.com/ormasoftchile/stepbind/pkg/registry"
	"github.com/ormasoftchile/stepbind/pkg/scope"
)

// Console is an interactive REPL for diagnosing step resolution:
// type step text and see which binding wins, the raw captures, and
// the full candidate list on ambiguity. Context (tags, feature,
// scenario names) can be adjusted to probe scope constraints.
type Console struct {
	reg    *registry.Registry
	ctx    *binding.ExecutionContext
	output io.Writer
}

// NewConsole builds a console over a registry.
func NewConsole(reg *registry.Registry, output io.Writer) *Console {
	reg.Freeze()
	return &Console{
		reg:    reg,
		ctx:    binding.NewExecutionContext(),
		output: output,
	}
}

// Run starts the interactive loop. Returns on EOF, interrupt, or the
// quit command.
func (c *Console) Run() error {
	commands := []string{"given", "when", "then", "any", "tags", "feature", "scenario", "bindings", "help", "quit"}

	completer := readline.NewPrefixCompleter()
	for _, cmd := range commands {
		completer.Children = append(completer.Children, readline.PcItem(cmd))
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "stepbind> ",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	steps, hooks, transforms := c.reg.Counts()
	fmt.Fprintf(c.output, "stepbind console — %d steps, %d hooks, %d transforms registered\n", steps, hooks, transforms)
	fmt.Fprintf(c.output, "Type 'help' for commands, 'given <text>' to resolve a step.\n\n")

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !c.Eval(line) {
			return nil
		}
	}
}

// Eval executes one console line; it returns false on quit.
func (c *Console) Eval(line string) bool {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "quit", "exit":
		return false
	case "help":
		c.help()
	case "tags":
		c.setTags(rest)
	case "feature":
		c.ctx.Feature = rest
		fmt.Fprintf(c.output, "feature = %q\n", rest)
	case "scenario":
		c.ctx.Scenario = rest
		fmt.Fprintf(c.output, "scenario = %q\n", rest)
	case "bindings":
		c.listBindings()
	case "given":
		c.resolve(binding.KindGiven, rest)
	case "when":
		c.resolve(binding.KindWhen, rest)
	case "then":
		c.resolve(binding.KindThen, rest)
	case "any":
		c.resolve(binding.KindStep, rest)
	default:
		fmt.Fprintf(c.output, "unknown command %q — try 'help'\n", cmd)
	}
	return true
}

func (c *Console) help() {
	fmt.Fprint(c.output, `commands:
  given|when|then|any <text>   resolve step text against the registry
  tags @a @b                   set the active tag set
  feature <name>               set the current feature name
  scenario <name>              set the current scenario name
  bindings                     list registered step patterns
  quit                         leave the console
`)
}

func (c *Console) setTags(rest string) {
	c.ctx.RemoveTags(c.ctx.ActiveTags())
	var tags []string
	for _, t := range strings.Fields(rest) {
		tags = append(tags, strings.TrimPrefix(t, "@"))
	}
	c.ctx.AddTags(tags)
	fmt.Fprintf(c.output, "tags = %v\n", c.ctx.ActiveTags())
}

func (c *Console) listBindings() {
	for _, b := range c.reg.Steps() {
		fmt.Fprintf(c.output, "  [%s] %s\n", b.Kinds, b.Source)
	}
}

// resolve mirrors the dispatcher's candidate selection: kind filter,
// scope filter, then anchored matching.
func (c *Console) resolve(kind binding.Kind, text string) {
	if text == "" {
		fmt.Fprintln(c.output, "usage: given <step text>")
		return
	}
	c.ctx.StepText = text
	defer func() { c.ctx.StepText = "" }()

	candidates := c.reg.StepCandidates(kind)
	var inScope []*binding.StepBinding
	for _, b := range candidates {
		ok, err := scope.InScope(b.Scopes, c.ctx)
		if err != nil {
			fmt.Fprintf(c.output, "  scope error on %s: %v\n", b.Source, err)
			return
		}
		if ok {
			inScope = append(inScope, b)
		}
	}

	results := match.Match(text, inScope)
	switch len(results) {
	case 0:
		fmt.Fprintf(c.output, "undefined — %d candidate(s) considered:\n", len(inScope))
		for _, b := range inScope {
			fmt.Fprintf(c.output, "  %s\n", b.Source)
		}
	case 1:
		fmt.Fprintf(c.output, "matched: %s\n", results[0].Binding.Source)
		for i, cap := range results[0].Captures {
			fmt.Fprintf(c.output, "  $%d = %q\n", i+1, cap)
		}
	default:
		fmt.Fprintf(c.output, "ambiguous — %d matches:\n", len(results))
		for _, r := range results {
			fmt.Fprintf(c.output, "  %s\n", r.Binding.Source)
		}
	}
}
