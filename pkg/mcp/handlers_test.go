package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ormasoftchile/stepbind/pkg/discovery"
	"github.com/ormasoftchile/stepbind/pkg/registry"
)

const testSuite = `
apiVersion: suite/v0
name: cucumber-basket
features:
  - name: Eating cucumbers
    tags: [basket]
    scenarios:
      - name: Eat a few
        tags: [fast]
        steps:
          - given: I have 5 cukes
          - when: I eat 2 cukes
          - then: I should have 3 cukes
`

func writeSuite(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "suite.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", result.Content[0])
	}
	return tc.Text
}

func TestValidateMissingPath(t *testing.T) {
	h := &handlers{}
	result, err := h.Validate(context.Background(), callRequest(map[string]any{}))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("expected error for missing path")
	}
}

func TestValidateGoodSuite(t *testing.T) {
	h := &handlers{}
	path := writeSuite(t, testSuite)
	result, err := h.Validate(context.Background(), callRequest(map[string]any{"path": path}))
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Errorf("expected success, got %s", textOf(t, result))
	}
	if !strings.Contains(textOf(t, result), "cucumber-basket") {
		t.Errorf("expected suite name in output, got %s", textOf(t, result))
	}
}

func TestValidateBadSuite(t *testing.T) {
	h := &handlers{}
	path := writeSuite(t, `
apiVersion: suite/v9
name: bad
features: []
`)
	result, err := h.Validate(context.Background(), callRequest(map[string]any{"path": path}))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("expected error for unsupported apiVersion")
	}
	if !strings.Contains(textOf(t, result), "apiVersion") {
		t.Errorf("expected apiVersion finding, got %s", textOf(t, result))
	}
}

func TestSchemaExport(t *testing.T) {
	h := &handlers{}
	result, err := h.Schema(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatal("expected success")
	}
	if !strings.Contains(textOf(t, result), "apiVersion") {
		t.Error("expected schema content")
	}
}

func TestInspectSummarizes(t *testing.T) {
	h := &handlers{}
	path := writeSuite(t, testSuite)
	result, err := h.Inspect(context.Background(), callRequest(map[string]any{"path": path}))
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatalf("expected success, got %s", textOf(t, result))
	}
	out := textOf(t, result)
	for _, want := range []string{`"features": 1`, `"scenarios": 1`, `"steps": 3`, "basket", "fast"} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect output missing %s:\n%s", want, out)
		}
	}
}

func TestRunWithoutRegistry(t *testing.T) {
	h := &handlers{}
	path := writeSuite(t, testSuite)
	result, err := h.Run(context.Background(), callRequest(map[string]any{"path": path}))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("expected error when no registry is attached")
	}
	if !strings.Contains(textOf(t, result), "no bindings") {
		t.Errorf("unexpected message: %s", textOf(t, result))
	}
}

func TestRunWithRegistry(t *testing.T) {
	basket := 0
	reg := registry.New()
	err := discovery.NewSource(reg).
		Given(`I have (\d+) cukes`, func(n int) { basket = n }).
		When(`I eat (\d+) cukes`, func(n int) { basket -= n }).
		Then(`I should have (\d+) cukes`, func(n int) error {
			if basket != n {
				return fmt.Errorf("expected %d cukes, have %d", n, basket)
			}
			return nil
		}).
		Err()
	if err != nil {
		t.Fatal(err)
	}

	h := &handlers{reg: reg}
	path := writeSuite(t, testSuite)
	result, err := h.Run(context.Background(), callRequest(map[string]any{"path": path}))
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatalf("expected passing run, got %s", textOf(t, result))
	}
	out := textOf(t, result)
	if !strings.Contains(out, `"status": "passed"`) {
		t.Errorf("expected passed scenario in result JSON:\n%s", out)
	}
}
