package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ormasoftchile/stepbind/pkg/registry"
	"github.com/ormasoftchile/stepbind/pkg/runner"
	"github.com/ormasoftchile/stepbind/pkg/suite"
)

type handlers struct {
	reg *registry.Registry
}

// Validate implements the stepbind/validate MCP tool.
func (h *handlers) Validate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}

	s, errs := suite.ValidateFile(path)
	if suite.HasErrors(errs) {
		return errorResult(formatErrors(errs)), nil
	}
	return textResult(fmt.Sprintf("✓ %s is valid (%d features)", s.Name, len(s.Features))), nil
}

// Schema implements the stepbind/schema MCP tool.
func (h *handlers) Schema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := suite.GenerateJSONSchema()
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(string(data)), nil
}

// Inspect implements the stepbind/inspect MCP tool.
func (h *handlers) Inspect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}

	s, errs := suite.ValidateFile(path)
	if suite.HasErrors(errs) {
		return errorResult(formatErrors(errs)), nil
	}

	scenarios, steps := 0, 0
	tags := map[string]bool{}
	for _, f := range s.Features {
		scenarios += len(f.Scenarios)
		for _, t := range f.Tags {
			tags[t] = true
		}
		for _, sc := range f.Scenarios {
			steps += len(sc.Steps)
			for _, t := range sc.Tags {
				tags[t] = true
			}
		}
	}
	tagList := make([]string, 0, len(tags))
	for t := range tags {
		tagList = append(tagList, t)
	}

	response := map[string]any{
		"suite":     s.Name,
		"features":  len(s.Features),
		"scenarios": scenarios,
		"steps":     steps,
		"tags":      tagList,
	}
	data, _ := json.MarshalIndent(response, "", "  ")
	return textResult(string(data)), nil
}

// Run implements the stepbind/run MCP tool.
func (h *handlers) Run(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.reg == nil {
		return errorResult("no bindings registered: this server was started without a binding registry"), nil
	}
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}

	s, errs := suite.ValidateFile(path)
	if suite.HasErrors(errs) {
		return errorResult(formatErrors(errs)), nil
	}

	res, err := runner.New(h.reg, runner.Options{}).Run(ctx, s)
	if err != nil {
		return errorResult(fmt.Sprintf("run suite: %s", err)), nil
	}

	data, _ := json.MarshalIndent(res, "", "  ")
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(data))},
		IsError: res.Failed(),
	}, nil
}

func formatErrors(errs []*suite.ValidationError) string {
	var msgs []string
	for _, e := range errs {
		if e.Severity == "error" {
			msgs = append(msgs, fmt.Sprintf("[%s] %s", e.Phase, e.Message))
		}
	}
	return strings.Join(msgs, "; ")
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(msg),
		},
		IsError: true,
	}
}
