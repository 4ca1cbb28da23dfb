package driven

import "github.com/custodia-labs/workbench-cli/internal/core/domain"

// ConfigStore provides access to application configuration.
// Implementations handle persistence (e.g., TOML files) and type conversion.
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	// Returns the value and a boolean indicating if the key exists.
	Get(key string) (any, bool)

	// GetString retrieves a string configuration value.
	// Returns empty string if key doesn't exist or isn't a string.
	GetString(key string) string

	// GetInt retrieves an integer configuration value.
	// Returns 0 if key doesn't exist or isn't an integer.
	GetInt(key string) int

	// GetBool retrieves a boolean configuration value.
	// Returns false if key doesn't exist or isn't a boolean.
	GetBool(key string) bool

	// Set stores a configuration value.
	// The value is persisted immediately.
	Set(key string, value any) error

	// Save persists the current configuration to storage.
	Save() error

	// Load reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}

// AIConfigValidator validates AI provider configuration by contacting the
// provider. Lives behind a port so the settings service stays offline in
// tests.
type AIConfigValidator interface {
	// ValidateChat checks chat provider connectivity.
	ValidateChat(settings *domain.ChatSettings) error

	// ValidateEmbedding checks embedding provider connectivity.
	ValidateEmbedding(settings *domain.EmbeddingSettings) error
}
