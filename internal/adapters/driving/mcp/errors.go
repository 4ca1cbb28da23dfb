// Package mcp provides an MCP (Model Context Protocol) server adapter for Workbench.
// It enables AI assistants like Claude to drive the workbench agent and search notes.
package mcp

import "errors"

// ErrMissingAgentService is returned when the agent service is not provided.
var ErrMissingAgentService = errors.New("mcp: agent service is required")

// ErrMissingSearchService is returned when the note search service is not provided.
var ErrMissingSearchService = errors.New("mcp: note search service is required")
