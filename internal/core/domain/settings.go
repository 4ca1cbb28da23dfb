package domain

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for chat, embeddings or rerank.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API or any compatible endpoint.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderSiliconFlow is the SiliconFlow cloud API
	// (OpenAI-compatible chat/embeddings plus a rerank endpoint).
	AIProviderSiliconFlow AIProvider = "siliconflow"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderSiliconFlow:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p != AIProviderOllama
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderSiliconFlow:
		return "SiliconFlow (cloud)"
	default:
		return unknownDescription
	}
}

// ChatSettings holds chat model provider configuration.
type ChatSettings struct {
	// Provider is the chat service provider.
	Provider AIProvider

	// Model is the chat model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible APIs).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string
}

// IsConfigured returns true if the chat provider is set up.
func (c ChatSettings) IsConfigured() bool {
	if !c.Provider.IsValid() {
		return false
	}
	if c.Provider.RequiresAPIKey() && c.APIKey == "" {
		return false
	}
	return true
}

// EmbeddingSettings holds embedding provider configuration.
// Embedding, chat and rerank are three independent configuration points:
// the availability of one is never inferred from another's provider.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible APIs).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// RerankSettings holds rerank provider configuration.
type RerankSettings struct {
	// Provider is the rerank service provider.
	Provider AIProvider

	// Model is the rerank model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key.
	APIKey string
}

// IsConfigured returns true if the rerank provider is set up.
func (r RerankSettings) IsConfigured() bool {
	if !r.Provider.IsValid() {
		return false
	}
	if r.Provider.RequiresAPIKey() && r.APIKey == "" {
		return false
	}
	return true
}

// WeatherSettings holds weather lookup configuration.
type WeatherSettings struct {
	// DefaultCity is used when a briefing needs weather and no city was given.
	DefaultCity string
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Owner is the identity attached to every collaborator call.
	Owner string

	// Chat holds chat model provider settings.
	Chat ChatSettings

	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// Rerank holds rerank provider settings.
	Rerank RerankSettings

	// Weather holds weather lookup settings.
	Weather WeatherSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// AI providers are left unconfigured; the agent falls back to canned
// replies and keyword-free search stays unavailable until configured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Owner:   "local",
		Weather: WeatherSettings{DefaultCity: "Hangzhou"},
	}
}

// AllChatProviders returns providers that support chat completions.
func AllChatProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderSiliconFlow,
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderSiliconFlow,
	}
}

// AllRerankProviders returns providers that support reranking.
func AllRerankProviders() []AIProvider {
	return []AIProvider{
		AIProviderSiliconFlow,
	}
}

// DefaultChatModels returns default models for each chat provider.
func DefaultChatModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:      "llama3.2",
		AIProviderOpenAI:      "gpt-4o-mini",
		AIProviderAnthropic:   "claude-3-5-sonnet-latest",
		AIProviderSiliconFlow: "deepseek-ai/DeepSeek-V3.2",
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:      "nomic-embed-text",
		AIProviderOpenAI:      "text-embedding-3-small",
		AIProviderSiliconFlow: "BAAI/bge-m3",
	}
}

// DefaultRerankModels returns default models for each rerank provider.
func DefaultRerankModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderSiliconFlow: "BAAI/bge-reranker-v2-m3",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// SiliconFlow models
		"BAAI/bge-m3": 1024,
	}
}
