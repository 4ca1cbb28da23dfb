package driving

import "github.com/custodia-labs/workbench-cli/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetChatProvider configures the chat model provider.
	SetChatProvider(provider domain.AIProvider, model, apiKey string) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetRerankProvider configures the rerank provider.
	SetRerankProvider(provider domain.AIProvider, model, apiKey string) error

	// SetDefaultCity sets the fallback city for weather lookups.
	SetDefaultCity(city string) error

	// ValidateChatConfig pings the configured chat provider.
	ValidateChatConfig() error

	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig() error
}
