// Package suite defines the suite document schema — features,
// scenarios, and steps as structured YAML data — plus loading and the
// three-phase validation pipeline. Suites are data handed to the
// engine; they are deliberately not Gherkin and no feature-syntax
// parsing happens here.
package suite

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Suite is the top-level suite document.
type Suite struct {
	// APIVersion pins the document format (currently "suite/v0").
	APIVersion string    `yaml:"apiVersion" json:"apiVersion" jsonschema:"required"`
	Name       string    `yaml:"name"       json:"name"       jsonschema:"required"`
	Features   []Feature `yaml:"features"   json:"features"   jsonschema:"required"`
}

// Feature groups scenarios under a name and shared tags.
type Feature struct {
	Name string `yaml:"name" json:"name" jsonschema:"required"`
	// Description is markdown, shown by the TUI browser.
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Tags        []string   `yaml:"tags,omitempty"        json:"tags,omitempty"`
	Scenarios   []Scenario `yaml:"scenarios"             json:"scenarios" jsonschema:"required"`
}

// Scenario is an ordered sequence of steps. Its tags combine with the
// feature's tags into the active tag set while it executes.
type Scenario struct {
	Name        string   `yaml:"name" json:"name" jsonschema:"required"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Tags        []string `yaml:"tags,omitempty"        json:"tags,omitempty"`
	Steps       []Step   `yaml:"steps"                 json:"steps" jsonschema:"required"`
}

// Step carries exactly one keyword field. And/But continue the
// preceding primary keyword's block.
type Step struct {
	Given string `yaml:"given,omitempty" json:"given,omitempty"`
	When  string `yaml:"when,omitempty"  json:"when,omitempty"`
	Then  string `yaml:"then,omitempty"  json:"then,omitempty"`
	And   string `yaml:"and,omitempty"   json:"and,omitempty"`
	But   string `yaml:"but,omitempty"   json:"but,omitempty"`
}

// Keyword returns the step's keyword name and text. The count return
// is the number of keyword fields set, for validation.
func (s Step) Keyword() (keyword, text string, count int) {
	set := func(k, t string) {
		if t != "" {
			keyword, text = k, t
			count++
		}
	}
	set("Given", s.Given)
	set("When", s.When)
	set("Then", s.Then)
	set("And", s.And)
	set("But", s.But)
	return keyword, text, count
}

// LoadFile reads and parses a suite YAML file with strict
// unknown-field rejection.
func LoadFile(path string) (*Suite, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open suite: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a suite from an io.Reader with strict unknown-field
// rejection (yaml.v3 KnownFields).
func Load(r io.Reader) (*Suite, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Suite
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode suite: %w", err)
	}
	return &s, nil
}
