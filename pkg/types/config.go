// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by every network collaborator.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "arXiv-Assistant/0.6").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries is the number of times an HTTP 429 is retried. Zero means a
	// single attempt.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// SearchConfig holds the session's initial search settings.
type SearchConfig struct {
	// MaxResults is the page size (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`

	SortBy    SortField `json:"sort_by" yaml:"sort_by"`
	SortOrder SortOrder `json:"sort_order" yaml:"sort_order"`

	// BaseURL overrides the arXiv API endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// RateInterval is the minimum spacing between arXiv API calls (default 3s).
	RateInterval time.Duration `json:"rate_interval" yaml:"rate_interval"`
}

// AcquisitionConfig holds settings for PDF downloads.
type AcquisitionConfig struct {
	// DownloadDir is where PDFs are written (default "arxiv_downloads").
	DownloadDir string `json:"download_dir" yaml:"download_dir"`
}

// AIProvider identifies the AI analysis API.
type AIProvider string

const (
	ProviderGemini AIProvider = "gemini"
	ProviderClaude AIProvider = "claude"
)

// AIConfig holds settings for the AI analysis collaborator.
type AIConfig struct {
	Provider AIProvider `json:"provider" yaml:"provider"`

	// Model is the AI model identifier (e.g. "gemini-2.5-pro-exp-03-25").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxTokens caps the response length where the provider requires it.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`
}

// WebSearchConfig holds settings for related-work discovery.
type WebSearchConfig struct {
	// APIKey is the Serper key; empty disables related-work search.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// NumResults is the number of hits requested per query (default 10).
	NumResults int `json:"num_results" yaml:"num_results"`
}

// AppConfig groups every setting the CLI resolves at startup.
type AppConfig struct {
	HTTP        HTTPConfig        `json:"http" yaml:"http"`
	Search      SearchConfig      `json:"search" yaml:"search"`
	Acquisition AcquisitionConfig `json:"acquisition" yaml:"acquisition"`
	AI          AIConfig          `json:"ai" yaml:"ai"`
	WebSearch   WebSearchConfig   `json:"serper" yaml:"serper"`
}
