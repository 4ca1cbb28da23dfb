// Package cli provides the command-line interface for Workbench.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/workbench-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/workbench-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/workbench-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/workbench-cli/internal/adapters/driven/weather/openmeteo"
	"github.com/custodia-labs/workbench-cli/internal/core/domain"
	"github.com/custodia-labs/workbench-cli/internal/core/ports/driven"
	"github.com/custodia-labs/workbench-cli/internal/core/ports/driving"
	"github.com/custodia-labs/workbench-cli/internal/core/services"
	"github.com/custodia-labs/workbench-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var verboseFlag bool

// Services wired lazily by the commands that need them.
var (
	settingsService driving.SettingsService
	agentService    driving.AgentService
	searchService   driving.NoteSearchService

	owner       string
	defaultCity string

	store    *sqlite.Store
	aiResult *ai.InitResult
)

var rootCmd = &cobra.Command{
	Use:   "workbench",
	Short: "Personal productivity workbench with a conversational agent",
	Long: `Workbench is a personal productivity assistant for tasks, expenses,
notes and weather, driven by a conversational AI agent.

Run without arguments to start an interactive chat session, or use the
subcommands for one-shot operations.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
	RunE: runChat,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	defer shutdown()
	return rootCmd.Execute()
}

// ensureSettings wires the config store and settings service.
// Cheap: no network, no database.
func ensureSettings() error {
	if settingsService != nil {
		return nil
	}

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config store: %w", err)
	}

	settingsService = services.NewSettingsService(configStore, ai.NewConfigValidator())
	return nil
}

// ensureAgent wires the full agent stack: AI providers, storage, weather
// and the core services. Provider failures degrade with a warning rather
// than aborting, so the agent always starts.
func ensureAgent() error {
	if agentService != nil {
		return nil
	}

	if err := ensureSettings(); err != nil {
		return err
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	owner = settings.Owner
	defaultCity = settings.Weather.DefaultCity

	aiResult = ai.InitServices(*settings)
	for _, warning := range aiResult.Warnings {
		logger.Warn("%s", warning)
	}

	store, err = sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}

	gateway := services.NewModelGateway(aiResult.LLMService, aiResult.EmbeddingService, aiResult.RerankService)
	search := services.NewNoteSearchService(gateway, store.NoteStore(), domain.NoteSearchOptions{})
	searchService = search

	catalog := services.BuildCatalog()
	executor := services.NewToolExecutor(catalog, services.ExecutorDeps{
		Gateway:     gateway,
		Tasks:       store.TaskService(),
		Expenses:    store.ExpenseService(),
		Notes:       store.NoteStore(),
		Search:      search,
		Weather:     openmeteo.NewService(openmeteo.Config{}),
		Clock:       driven.SystemClock{},
		DefaultCity: defaultCity,
	})
	agentService = services.NewAgentOrchestrator(gateway, catalog, executor, driven.SystemClock{})

	return nil
}

// shutdown releases resources acquired by ensureAgent.
func shutdown() {
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Error("closing storage: %v", err)
		}
	}
	if aiResult != nil {
		aiResult.Close()
	}
}

// errNotWired is returned when a command runs before its service exists.
// Only reachable from tests that bypass the ensure functions.
var errNotWired = errors.New("service not configured")
