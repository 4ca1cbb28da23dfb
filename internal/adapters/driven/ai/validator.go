package ai

import (
	"github.com/custodia-labs/workbench-cli/internal/core/domain"
	"github.com/custodia-labs/workbench-cli/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator validates AI provider configurations.
type ConfigValidator struct{}

// NewConfigValidator creates a new AI config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateChat validates a chat configuration by pinging the provider.
func (v *ConfigValidator) ValidateChat(config *domain.ChatSettings) error {
	return ValidateChatConfig(config)
}

// ValidateEmbedding validates an embedding configuration by pinging the provider.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	return ValidateEmbeddingConfig(config)
}
