package services

import (
	"fmt"

	"github.com/custodia-labs/workbench-cli/internal/core/domain"
	"github.com/custodia-labs/workbench-cli/internal/core/ports/driven"
	"github.com/custodia-labs/workbench-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyOwner          = "owner"
	keyChatProvider   = "chat.provider"
	keyChatModel      = "chat.model"
	keyChatBaseURL    = "chat.base_url"
	keyChatAPIKey     = "chat.api_key"
	keyEmbedProvider  = "embedding.provider"
	keyEmbedModel     = "embedding.model"
	keyEmbedBaseURL   = "embedding.base_url"
	keyEmbedAPIKey    = "embedding.api_key"
	keyRerankProvider = "rerank.provider"
	keyRerankModel    = "rerank.model"
	keyRerankBaseURL  = "rerank.base_url"
	keyRerankAPIKey   = "rerank.api_key"
	keyWeatherCity    = "weather.default_city"
)

// SettingsService manages application settings. Chat, embedding and rerank
// are three independent configuration points: setting one never touches
// the others.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Owner: s.getString(keyOwner, defaults.Owner),
		Chat: domain.ChatSettings{
			Provider: s.getProvider(keyChatProvider),
			Model:    s.configStore.GetString(keyChatModel),
			BaseURL:  s.configStore.GetString(keyChatBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyChatAPIKey),
		},
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider),
			Model:    s.configStore.GetString(keyEmbedModel),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL),
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		Rerank: domain.RerankSettings{
			Provider: s.getProvider(keyRerankProvider),
			Model:    s.configStore.GetString(keyRerankModel),
			BaseURL:  s.configStore.GetString(keyRerankBaseURL),
			APIKey:   s.configStore.GetString(keyRerankAPIKey),
		},
		Weather: domain.WeatherSettings{
			DefaultCity: s.getString(keyWeatherCity, defaults.Weather.DefaultCity),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	pairs := []struct {
		key   string
		value string
	}{
		{keyOwner, settings.Owner},
		{keyChatProvider, settings.Chat.Provider.String()},
		{keyChatModel, settings.Chat.Model},
		{keyChatBaseURL, settings.Chat.BaseURL},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyRerankProvider, settings.Rerank.Provider.String()},
		{keyRerankModel, settings.Rerank.Model},
		{keyRerankBaseURL, settings.Rerank.BaseURL},
		{keyWeatherCity, settings.Weather.DefaultCity},
	}
	for _, p := range pairs {
		if err := s.configStore.Set(p.key, p.value); err != nil {
			return fmt.Errorf("save %s: %w", p.key, err)
		}
	}

	// API keys are only written when present, so clearing a provider
	// doesn't wipe a stored credential.
	secrets := []struct {
		key   string
		value string
	}{
		{keyChatAPIKey, settings.Chat.APIKey},
		{keyEmbedAPIKey, settings.Embedding.APIKey},
		{keyRerankAPIKey, settings.Rerank.APIKey},
	}
	for _, p := range secrets {
		if p.value == "" {
			continue
		}
		if err := s.configStore.Set(p.key, p.value); err != nil {
			return fmt.Errorf("save %s: %w", p.key, err)
		}
	}

	return nil
}

// SetChatProvider configures the chat model provider.
func (s *SettingsService) SetChatProvider(provider domain.AIProvider, model, apiKey string) error {
	if err := validateProviderChoice(provider, apiKey, domain.AllChatProviders(), "chat"); err != nil {
		return err
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Chat.Provider = provider
	settings.Chat.Model = pickModel(model, provider, domain.DefaultChatModels())
	settings.Chat.BaseURL = baseURLFor(provider, settings.Chat.BaseURL)
	settings.Chat.APIKey = apiKey

	return s.Save(settings)
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if err := validateProviderChoice(provider, apiKey, domain.AllEmbeddingProviders(), "embedding"); err != nil {
		return err
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = pickModel(model, provider, domain.DefaultEmbeddingModels())
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetRerankProvider configures the rerank provider.
func (s *SettingsService) SetRerankProvider(provider domain.AIProvider, model, apiKey string) error {
	if err := validateProviderChoice(provider, apiKey, domain.AllRerankProviders(), "rerank"); err != nil {
		return err
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Rerank.Provider = provider
	settings.Rerank.Model = pickModel(model, provider, domain.DefaultRerankModels())
	settings.Rerank.APIKey = apiKey

	return s.Save(settings)
}

// SetDefaultCity sets the fallback city for weather lookups.
func (s *SettingsService) SetDefaultCity(city string) error {
	if city == "" {
		return fmt.Errorf("%w: city must not be empty", domain.ErrInvalidInput)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Weather.DefaultCity = city
	return s.Save(settings)
}

// ValidateChatConfig validates the current chat configuration by pinging the provider.
func (s *SettingsService) ValidateChatConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateChat(&settings.Chat)
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// validateProviderChoice checks a provider selection for one of the three
// configuration points.
func validateProviderChoice(provider domain.AIProvider, apiKey string, supported []domain.AIProvider, role string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid %s provider: %s", role, provider)
	}

	found := false
	for _, p := range supported {
		if p == provider {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("provider %s does not support %s", provider, role)
	}

	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	return nil
}

// pickModel returns the explicit model, or the provider's default.
func pickModel(model string, provider domain.AIProvider, defaults map[domain.AIProvider]string) string {
	if model != "" {
		return model
	}
	return defaults[provider]
}

// baseURLFor keeps an existing base URL for local providers (which need
// one) and clears it for cloud providers (which use their well-known
// endpoint).
func baseURLFor(provider domain.AIProvider, current string) string {
	if provider.IsLocal() {
		if current == "" {
			return "http://localhost:11434"
		}
		return current
	}
	return ""
}

// getString reads a config value with a fallback default.
func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getProvider reads a provider value, treating unknown values as unset.
func (s *SettingsService) getProvider(key string) domain.AIProvider {
	val := s.configStore.GetString(key)
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return ""
	}
	return provider
}
