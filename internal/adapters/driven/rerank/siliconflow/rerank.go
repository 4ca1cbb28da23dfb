// Package siliconflow provides a rerank service adapter using the
// SiliconFlow API.
package siliconflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/workbench-cli/internal/core/ports/driven"
)

// Ensure RerankService implements the interface.
var _ driven.RerankService = (*RerankService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.siliconflow.cn/v1"
	DefaultModel   = "BAAI/bge-reranker-v2-m3"
	DefaultTimeout = 60 * time.Second
)

// Config holds configuration for the SiliconFlow rerank service.
type Config struct {
	// APIKey is the SiliconFlow API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.siliconflow.cn/v1).
	BaseURL string

	// Model is the rerank model to use (default: BAAI/bge-reranker-v2-m3).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration
}

// RerankService scores documents against a query using the SiliconFlow API.
type RerankService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// rerankRequest is the SiliconFlow /rerank request format.
type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n,omitempty"`
}

// rerankResponse is the SiliconFlow /rerank response format.
type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewRerankService creates a new SiliconFlow rerank service.
func NewRerankService(cfg Config) (*RerankService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("siliconflow: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &RerankService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Rerank scores documents against the query, returning at most topN hits
// by descending relevance. Hit indices refer to the input documents.
func (s *RerankService) Rerank(ctx context.Context, query string, documents []string, topN int) ([]driven.RerankHit, error) {
	if len(documents) == 0 {
		return nil, nil
	}

	reqBody := rerankRequest{
		Model:     s.model,
		Query:     query,
		Documents: documents,
	}
	if topN > 0 {
		reqBody.TopN = topN
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/rerank",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var rerankResp rerankResponse
	if err := json.Unmarshal(body, &rerankResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if rerankResp.Error != nil {
		return nil, fmt.Errorf("siliconflow error: %s", rerankResp.Error.Message)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("siliconflow error (status %d): %s", resp.StatusCode, string(body))
	}

	hits := make([]driven.RerankHit, len(rerankResp.Results))
	for i, r := range rerankResp.Results {
		hits[i] = driven.RerankHit{Index: r.Index, Score: r.RelevanceScore}
	}

	return hits, nil
}

// ModelName returns the name of the rerank model being used.
func (s *RerankService) ModelName() string {
	return s.model
}

// Close releases resources.
func (s *RerankService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
