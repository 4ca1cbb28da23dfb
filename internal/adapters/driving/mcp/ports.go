package mcp

import (
	"github.com/custodia-labs/workbench-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Agent runs conversational agent turns.
	Agent driving.AgentService

	// Search provides semantic note search.
	Search driving.NoteSearchService

	// Owner is the identity attached to every call.
	Owner string
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Agent == nil {
		return ErrMissingAgentService
	}
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
