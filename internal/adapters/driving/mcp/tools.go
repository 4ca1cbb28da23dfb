package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ChatInput is the input schema for the chat tool.
type ChatInput struct {
	Message string `json:"message" jsonschema:"the message to send to the workbench agent"`
}

// ChatOutput is the output schema for the chat tool.
type ChatOutput struct {
	Reply       string          `json:"reply"`
	Outcomes    []OutcomeOutput `json:"outcomes,omitempty"`
	Suggestions []string        `json:"suggestions,omitempty"`
}

// OutcomeOutput represents one tool outcome from an agent turn.
type OutcomeOutput struct {
	Tool    string `json:"tool"`
	Success bool   `json:"success"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// SearchNotesInput is the input schema for the search_notes tool.
type SearchNotesInput struct {
	Query string `json:"query" jsonschema:"the query to find relevant notes"`
}

// SearchNotesOutput is the output schema for the search_notes tool.
type SearchNotesOutput struct {
	Results  []NoteResultOutput `json:"results"`
	Count    int                `json:"count"`
	Degraded bool               `json:"degraded,omitempty"`
}

// NoteResultOutput represents a single note search result.
type NoteResultOutput struct {
	NoteID  string  `json:"note_id"`
	Title   string  `json:"title"`
	Excerpt string  `json:"excerpt,omitempty"`
	Score   float64 `json:"score"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "chat",
		Description: "Send a message to the workbench agent (tasks, expenses, notes, weather)",
	}, s.handleChat)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_notes",
		Description: "Semantically search the user's notes",
	}, s.handleSearchNotes)
}

// handleChat handles the chat tool invocation.
func (s *Server) handleChat(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ChatInput,
) (*mcp.CallToolResult, ChatOutput, error) {
	response := s.ports.Agent.Run(ctx, s.ports.Owner, input.Message, nil)

	output := ChatOutput{
		Reply:       response.Message,
		Suggestions: response.Suggestions,
	}
	for _, outcome := range response.Outcomes {
		output.Outcomes = append(output.Outcomes, OutcomeOutput{
			Tool:    string(outcome.Tool),
			Success: outcome.Success,
			Kind:    outcome.Kind,
			Message: outcome.Message,
		})
	}

	return nil, output, nil
}

// handleSearchNotes handles the search_notes tool invocation.
func (s *Server) handleSearchNotes(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchNotesInput,
) (*mcp.CallToolResult, SearchNotesOutput, error) {
	result, err := s.ports.Search.Search(ctx, s.ports.Owner, input.Query)
	if err != nil {
		return nil, SearchNotesOutput{}, err
	}

	output := SearchNotesOutput{
		Count:    len(result.Results),
		Degraded: result.Degraded,
	}
	for _, hit := range result.Results {
		output.Results = append(output.Results, NoteResultOutput{
			NoteID:  hit.NoteID,
			Title:   hit.Title,
			Excerpt: hit.Excerpt,
			Score:   hit.Score,
		})
	}

	return nil, output, nil
}
