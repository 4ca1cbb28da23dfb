package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/workbench-cli/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers, the default weather city and other options.

Chat, embedding and rerank are three independent configuration points:
each can point at a different provider, and leaving one unconfigured only
degrades the features that need it.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure all settings step by step.`,
	RunE:  runSettingsWizard,
}

var settingsChatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Configure chat provider",
	Long:  `Configure the chat model provider used for agent replies and planning.`,
	RunE:  runSettingsChat,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider used for semantic note search.`,
	RunE:  runSettingsEmbedding,
}

var settingsRerankCmd = &cobra.Command{
	Use:   "rerank",
	Short: "Configure rerank provider",
	Long: `Configure the rerank provider used to reorder note search results.

Without one, search degrades to similarity ordering - still usable, just
less precise.`,
	RunE: runSettingsRerank,
}

var settingsCityCmd = &cobra.Command{
	Use:   "city [name]",
	Short: "Set the default weather city",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsCity,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsChatCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsRerankCmd)
	settingsCmd.AddCommand(settingsCityCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if err := ensureSettings(); err != nil {
		return err
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	printProviderSection(cmd, "Chat", settings.Chat.Provider, settings.Chat.Model,
		settings.Chat.BaseURL, settings.Chat.APIKey, settings.Chat.IsConfigured())
	printProviderSection(cmd, "Embedding", settings.Embedding.Provider, settings.Embedding.Model,
		settings.Embedding.BaseURL, settings.Embedding.APIKey, settings.Embedding.IsConfigured())
	printProviderSection(cmd, "Rerank", settings.Rerank.Provider, settings.Rerank.Model,
		settings.Rerank.BaseURL, settings.Rerank.APIKey, settings.Rerank.IsConfigured())

	cmd.Println("[Weather]")
	cmd.Printf("  Default city: %s\n", settings.Weather.DefaultCity)
	cmd.Println()

	if !settings.Chat.IsConfigured() {
		cmd.Println("Chat is not configured: the agent will answer with canned replies.")
		cmd.Println("Run 'workbench settings wizard' to set up providers.")
	}

	return nil
}

func printProviderSection(cmd *cobra.Command, name string, provider domain.AIProvider,
	model, baseURL, apiKey string, configured bool) {
	cmd.Printf("[%s]\n", name)
	cmd.Printf("  Provider: %s\n", provider.Description())
	cmd.Printf("  Model: %s\n", model)
	if provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if provider.RequiresAPIKey() {
		if apiKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(apiKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !configured {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if err := ensureSettings(); err != nil {
		return err
	}

	cmd.Println("Workbench Settings Wizard")
	cmd.Println("=========================")
	cmd.Println()

	reader := bufio.NewReader(os.Stdin)

	cmd.Println("Step 1: Configure Chat Provider")
	cmd.Println("-------------------------------")
	if err := configureChatProvider(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Step 2: Configure Embedding Provider")
	cmd.Println("------------------------------------")
	cmd.Println("Required for semantic note search. Leave blank to skip.")
	cmd.Println()
	if err := configureEmbeddingProvider(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Step 3: Configure Rerank Provider")
	cmd.Println("---------------------------------")
	cmd.Println("Improves note search precision. Leave blank to skip.")
	cmd.Println()
	if err := configureRerankProvider(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Step 4: Default Weather City")
	cmd.Println("----------------------------")
	settings, err := settingsService.Get()
	if err != nil {
		return err
	}
	cmd.Printf("Enter city [%s]: ", settings.Weather.DefaultCity)
	if city := readLine(reader); city != "" {
		if err := settingsService.SetDefaultCity(city); err != nil {
			return fmt.Errorf("failed to set default city: %w", err)
		}
	}

	cmd.Println()
	cmd.Println("Configuration Complete!")
	return nil
}

func runSettingsChat(cmd *cobra.Command, _ []string) error {
	if err := ensureSettings(); err != nil {
		return err
	}
	return configureChatProvider(cmd, bufio.NewReader(os.Stdin))
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if err := ensureSettings(); err != nil {
		return err
	}
	return configureEmbeddingProvider(cmd, bufio.NewReader(os.Stdin))
}

func runSettingsRerank(cmd *cobra.Command, _ []string) error {
	if err := ensureSettings(); err != nil {
		return err
	}
	return configureRerankProvider(cmd, bufio.NewReader(os.Stdin))
}

func runSettingsCity(cmd *cobra.Command, args []string) error {
	if err := ensureSettings(); err != nil {
		return err
	}

	if err := settingsService.SetDefaultCity(args[0]); err != nil {
		return fmt.Errorf("failed to set default city: %w", err)
	}
	cmd.Printf("Default weather city set to: %s\n", args[0])
	return nil
}

//nolint:dupl // Similar to the embedding/rerank flows - intentional for CLI flow clarity
func configureChatProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	provider, model, apiKey, err := promptProvider(cmd, reader, domain.AllChatProviders(), domain.DefaultChatModels())
	if err != nil {
		return err
	}

	if err := settingsService.SetChatProvider(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure chat provider: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateChatConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("chat configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Chat provider configured: %s (%s)\n\n", provider.Description(), model)
	return nil
}

//nolint:dupl // Similar to the chat/rerank flows - intentional for CLI flow clarity
func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	provider, model, apiKey, err := promptProvider(cmd, reader, domain.AllEmbeddingProviders(), domain.DefaultEmbeddingModels())
	if err != nil {
		return err
	}

	if err := settingsService.SetEmbeddingProvider(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s (%s)\n\n", provider.Description(), model)
	return nil
}

func configureRerankProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	provider, model, apiKey, err := promptProvider(cmd, reader, domain.AllRerankProviders(), domain.DefaultRerankModels())
	if err != nil {
		return err
	}

	if err := settingsService.SetRerankProvider(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure rerank provider: %w", err)
	}

	// Rerank has no cheap validation endpoint: connectivity problems
	// surface on first search and degrade to similarity ordering.
	cmd.Printf("Rerank provider configured: %s (%s)\n\n", provider.Description(), model)
	return nil
}

// promptProvider walks the user through a provider choice, model and API key.
func promptProvider(cmd *cobra.Command, reader *bufio.Reader,
	providers []domain.AIProvider, defaults map[domain.AIProvider]string,
) (domain.AIProvider, string, string, error) {
	cmd.Println("Select provider:")
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	provider := providers[idx-1]

	defaultModel := defaults[provider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if provider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword()
		cmd.Println()
		if apiKey == "" {
			return "", "", "", errors.New("API key is required for this provider")
		}
	}

	return provider, model, apiKey, nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
