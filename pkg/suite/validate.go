package suite

import (
	"encoding/json"
	"fmt"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidationError is a single validation finding with location context.
type ValidationError struct {
	Phase    string `json:"phase"` // structural, semantic, domain
	Path     string `json:"path"`  // JSON-path-like location (e.g. "features[0].scenarios[2]")
	Message  string `json:"message"`
	Severity string `json:"severity"` // error, warning
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Phase, e.Path, e.Message)
}

// ValidateFile runs the full validation pipeline on a suite file.
// Phase 1: structural (strict YAML decode)
// Phase 2: semantic (JSON Schema validation)
// Phase 3: domain (custom Go rules)
func ValidateFile(path string) (*Suite, []*ValidationError) {
	s, err := LoadFile(path)
	if err != nil {
		return nil, []*ValidationError{{
			Phase:    "structural",
			Message:  err.Error(),
			Severity: "error",
		}}
	}
	return s, Validate(s)
}

// Validate runs the semantic and domain phases on an already-decoded
// suite.
func Validate(s *Suite) []*ValidationError {
	var all []*ValidationError
	all = append(all, validateSemantic(s)...)
	all = append(all, ValidateDomain(s)...)
	return all
}

// validateSemantic validates the suite against the generated JSON
// Schema.
func validateSemantic(s *Suite) []*ValidationError {
	fail := func(msg string) []*ValidationError {
		return []*ValidationError{{Phase: "semantic", Message: msg, Severity: "error"}}
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fail(fmt.Sprintf("marshal for schema validation: %v", err))
	}

	schemaJSON, err := GenerateJSONSchema()
	if err != nil {
		return fail(fmt.Sprintf("generate schema: %v", err))
	}

	var schemaDoc any
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return fail(fmt.Sprintf("unmarshal schema: %v", err))
	}

	c := sjsonschema.NewCompiler()
	if err := c.AddResource("suite-v0.json", schemaDoc); err != nil {
		return fail(fmt.Sprintf("add schema resource: %v", err))
	}
	sch, err := c.Compile("suite-v0.json")
	if err != nil {
		return fail(fmt.Sprintf("compile schema: %v", err))
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fail(fmt.Sprintf("unmarshal suite: %v", err))
	}
	if err := sch.Validate(doc); err != nil {
		return fail(err.Error())
	}
	return nil
}

// ValidateDomain applies the Go-level rules the schema cannot express:
// exactly one keyword per step, no scenario opening with a
// continuation keyword, non-empty names. Valid-but-suspect shapes come
// back with warning severity.
func ValidateDomain(s *Suite) []*ValidationError {
	var errs []*ValidationError
	add := func(path, msg string) {
		errs = append(errs, &ValidationError{Phase: "domain", Path: path, Message: msg, Severity: "error"})
	}
	warn := func(path, msg string) {
		errs = append(errs, &ValidationError{Phase: "domain", Path: path, Message: msg, Severity: "warning"})
	}

	if s.APIVersion != "suite/v0" {
		add("apiVersion", fmt.Sprintf("unsupported apiVersion %q (want suite/v0)", s.APIVersion))
	}
	if s.Name == "" {
		add("name", "suite name is required")
	}
	for fi, f := range s.Features {
		fpath := fmt.Sprintf("features[%d]", fi)
		if f.Name == "" {
			add(fpath+".name", "feature name is required")
		}
		if len(f.Scenarios) == 0 {
			warn(fpath+".scenarios", "feature has no scenarios")
		}
		for si, sc := range f.Scenarios {
			spath := fmt.Sprintf("%s.scenarios[%d]", fpath, si)
			if sc.Name == "" {
				add(spath+".name", "scenario name is required")
			}
			if len(sc.Steps) == 0 {
				add(spath+".steps", "scenario has no steps")
			}
			for ti, st := range sc.Steps {
				tpath := fmt.Sprintf("%s.steps[%d]", spath, ti)
				kw, _, count := st.Keyword()
				switch {
				case count == 0:
					add(tpath, "step sets no keyword field")
				case count > 1:
					add(tpath, fmt.Sprintf("step sets %d keyword fields, want exactly one", count))
				case ti == 0 && (kw == "And" || kw == "But"):
					add(tpath, kw+" cannot open a scenario; it continues a preceding Given/When/Then")
				}
			}
		}
	}
	return errs
}

// HasErrors reports whether any finding has error severity.
func HasErrors(errs []*ValidationError) bool {
	for _, e := range errs {
		if e.Severity == "error" {
			return true
		}
	}
	return false
}
