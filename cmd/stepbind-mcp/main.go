// Package main provides the stepbind-mcp binary — an MCP server over
// suite tooling for AI agents. It is started without a binding
// registry, so the run tool is unavailable; embed pkg/mcp in a binary
// with registered bindings to serve runs.
package main

import (
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	smcp "github.com/ormasoftchile/stepbind/pkg/mcp"
)

var version = "dev"

func main() {
	// Stdout carries the protocol; log to stderr only.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	s := smcp.NewServer(version, nil)
	if err := server.ServeStdio(s); err != nil {
		slog.Error("serve stdio", "error", err)
		os.Exit(1)
	}
}
