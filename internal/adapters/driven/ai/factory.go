// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/workbench-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/workbench-cli/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/workbench-cli/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/workbench-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/workbench-cli/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/workbench-cli/internal/adapters/driven/rerank/siliconflow"
	"github.com/custodia-labs/workbench-cli/internal/core/domain"
	"github.com/custodia-labs/workbench-cli/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// siliconFlowBaseURL is SiliconFlow's OpenAI-compatible endpoint.
const siliconFlowBaseURL = "https://api.siliconflow.cn/v1"

// InitResult contains the result of AI service initialisation. The three
// services are independent: any of them may be nil when unconfigured or
// unreachable, and the agent degrades per service.
type InitResult struct {
	LLMService       driven.LLMService
	EmbeddingService driven.EmbeddingService
	RerankService    driven.RerankService
	Warnings         []string // Non-fatal issues that caused a service to be dropped.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.LLMService != nil {
		r.LLMService.Close()
	}
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.RerankService != nil {
		r.RerankService.Close()
	}
}

// InitServices creates and validates all three AI services from settings.
// A service that is unconfigured or unreachable becomes nil plus a warning;
// initialisation itself never fails.
func InitServices(settings domain.AppSettings) *InitResult {
	result := &InitResult{}

	llm, err := CreateAndValidateLLMService(&settings.Chat)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
	} else {
		result.LLMService = llm
	}

	embed, err := CreateAndValidateEmbeddingService(&settings.Embedding)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
	} else {
		result.EmbeddingService = embed
	}

	rerank, err := CreateRerankService(&settings.Rerank)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
	} else {
		result.RerankService = rerank
	}

	return result
}

// CreateAndValidateLLMService creates a chat service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateLLMService(settings *domain.ChatSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'workbench settings' to fix",
			domain.ErrModelUnavailable, err)
	}

	if svc == nil {
		return nil, nil
	}

	// Validate connectivity.
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'workbench settings' to fix",
			domain.ErrModelUnavailable, err)
	}

	return svc, nil
}

// CreateAndValidateEmbeddingService creates an embedding service and validates
// connectivity. Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'workbench settings' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	if svc == nil {
		return nil, nil
	}

	// Validate connectivity.
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'workbench settings' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// ValidateChatConfig validates a chat configuration by creating a service and
// pinging it. Intended for the settings command to validate credentials.
func ValidateChatConfig(settings *domain.ChatSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a
// service and pinging it. Intended for the settings command.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// CreateLLMService creates the appropriate chat service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.ChatSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderSiliconFlow:
		// SiliconFlow chat is OpenAI-compatible.
		baseURL := settings.BaseURL
		if baseURL == "" {
			baseURL = siliconFlowBaseURL
		}
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: baseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported chat provider: %s", settings.Provider)
	}
}

// CreateEmbeddingService creates the appropriate embedding service based on
// settings. Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		dimensions := domain.EmbeddingDimensions()[settings.Model]
		if dimensions == 0 {
			dimensions = ollamaembed.DefaultDimensions
		}
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: domain.EmbeddingDimensions()[settings.Model],
		})

	case domain.AIProviderSiliconFlow:
		// SiliconFlow embeddings are OpenAI-compatible.
		baseURL := settings.BaseURL
		if baseURL == "" {
			baseURL = siliconFlowBaseURL
		}
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    baseURL,
			Model:      settings.Model,
			Dimensions: domain.EmbeddingDimensions()[settings.Model],
		})

	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("anthropic does not support embeddings, use ollama, openai or siliconflow")

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateRerankService creates the appropriate rerank service based on
// settings. Returns nil if the provider is not configured. Rerank has no
// cheap ping endpoint, so connectivity problems surface on first use and
// degrade search to cosine ordering.
func CreateRerankService(settings *domain.RerankSettings) (driven.RerankService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderSiliconFlow:
		return siliconflow.NewRerankService(siliconflow.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported rerank provider: %s", settings.Provider)
	}
}
