package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/workbench-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/workbench-cli/internal/core/domain"
	"github.com/custodia-labs/workbench-cli/internal/core/services"
)

// fakeAgent is a canned driving.AgentService for command tests.
type fakeAgent struct {
	response  domain.AgentResponse
	lastInput string
}

func (f *fakeAgent) Run(_ context.Context, _, utterance string, _ []domain.Utterance) domain.AgentResponse {
	f.lastInput = utterance
	return f.response
}

// fakeSearch is a canned driving.NoteSearchService for command tests.
type fakeSearch struct {
	output *domain.NoteSearchOutput
	err    error
}

func (f *fakeSearch) Search(_ context.Context, _, _ string) (*domain.NoteSearchOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.output == nil {
		return &domain.NoteSearchOutput{}, nil
	}
	return f.output, nil
}

func (f *fakeSearch) IndexNote(_ context.Context, _ domain.Note) error {
	return f.err
}

// setupTestServices presets the package-level services so ensure functions
// become no-ops and commands stay hermetic.
func setupTestServices(t *testing.T, agent *fakeAgent, search *fakeSearch) {
	t.Helper()

	configStore, err := file.NewConfigStore(t.TempDir())
	require.NoError(t, err)

	settingsService = services.NewSettingsService(configStore, nil)
	agentService = agent
	searchService = search
	owner = "local"

	t.Cleanup(func() {
		settingsService = nil
		agentService = nil
		searchService = nil
		owner = ""
		searchJSON = false
	})
}

// execute runs the root command with args and returns its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}
