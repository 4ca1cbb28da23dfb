package mcp

import (
	"context"

	"github.com/custodia-labs/workbench-cli/internal/core/domain"
)

// mockAgentService is a mock implementation of driving.AgentService.
type mockAgentService struct {
	response  domain.AgentResponse
	lastOwner string
	lastInput string
}

func (m *mockAgentService) Run(_ context.Context, owner, utterance string, _ []domain.Utterance) domain.AgentResponse {
	m.lastOwner = owner
	m.lastInput = utterance
	return m.response
}

// mockSearchService is a mock implementation of driving.NoteSearchService.
type mockSearchService struct {
	output    *domain.NoteSearchOutput
	err       error
	lastQuery string
}

func (m *mockSearchService) Search(_ context.Context, _, query string) (*domain.NoteSearchOutput, error) {
	m.lastQuery = query
	if m.err != nil {
		return nil, m.err
	}
	if m.output == nil {
		return &domain.NoteSearchOutput{}, nil
	}
	return m.output, nil
}

func (m *mockSearchService) IndexNote(_ context.Context, _ domain.Note) error {
	return m.err
}
