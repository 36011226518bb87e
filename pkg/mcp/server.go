// Package mcp exposes stepbind over the Model Context Protocol so AI
// agents can validate and inspect suite files — and, when the
// embedding binary supplies a populated registry, run them.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ormasoftchile/stepbind/pkg/registry"
)

// NewServer creates an MCP server with the stepbind tools registered.
// reg may be nil: the run tool then reports that no bindings are
// available, while validate/schema/inspect still work.
func NewServer(version string, reg *registry.Registry) *server.MCPServer {
	s := server.NewMCPServer(
		"stepbind",
		version,
		server.WithToolCapabilities(true),
	)
	h := &handlers{reg: reg}

	s.AddTool(
		mcp.NewTool("stepbind/validate",
			mcp.WithDescription("Validate a stepbind suite YAML file"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the suite YAML file")),
		),
		h.Validate,
	)

	s.AddTool(
		mcp.NewTool("stepbind/schema",
			mcp.WithDescription("Export the stepbind suite JSON Schema"),
		),
		h.Schema,
	)

	s.AddTool(
		mcp.NewTool("stepbind/inspect",
			mcp.WithDescription("Summarize a suite file: features, scenarios, steps, tags"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the suite YAML file")),
		),
		h.Inspect,
	)

	s.AddTool(
		mcp.NewTool("stepbind/run",
			mcp.WithDescription("Run a suite against the registered bindings"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the suite YAML file")),
		),
		h.Run,
	)

	return s
}
