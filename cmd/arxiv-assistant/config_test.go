// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/arxiv-assistant/internal/secrets"
	"github.com/pdiddy/arxiv-assistant/pkg/types"
)

func newTestViper(t *testing.T) *viper.Viper {
	t.Helper()
	for _, env := range []string{"GEMINI_API_KEY", "ANTHROPIC_API_KEY", "SERPER_API_KEY"} {
		t.Setenv(env, "")
	}
	v := viper.New()
	setDefaults(v)
	return v
}

func TestConfigDefaults(t *testing.T) {
	v := newTestViper(t)
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, err := configFrom(v, nil)
	require.NoError(t, err)

	assert.Equal(t, types.HTTPConfig{Timeout: 60 * time.Second, UserAgent: defaultUserAgent}, cfg.HTTP)
	assert.Equal(t, 10, cfg.Search.MaxResults)
	assert.Equal(t, types.SortSubmittedDate, cfg.Search.SortBy)
	assert.Equal(t, types.SortDescending, cfg.Search.SortOrder)
	assert.Equal(t, 3*time.Second, cfg.Search.RateInterval)
	assert.Equal(t, "arxiv_downloads", cfg.Acquisition.DownloadDir)
	assert.Equal(t, types.ProviderGemini, cfg.AI.Provider)
	assert.Equal(t, "g-key", cfg.AI.APIKey)
	assert.Equal(t, "gemini-2.5-pro-exp-03-25", cfg.AI.Model)
	assert.Empty(t, cfg.WebSearch.APIKey)
	assert.Equal(t, 10, cfg.WebSearch.NumResults)
}

func TestConfigOverrides(t *testing.T) {
	v := newTestViper(t)
	v.Set(keyProvider, "Claude")
	v.Set(keyMaxResults, 25)
	v.Set(keySortBy, "relevance")
	v.Set(keySortOrder, "asc")
	v.Set(keyModel, "claude-opus")

	cfg, err := configFrom(v, map[string]string{"anthropic-api-key": "a-key", "serper-api-key": "s-key"})
	require.NoError(t, err)

	assert.Equal(t, types.ProviderClaude, cfg.AI.Provider)
	assert.Equal(t, "a-key", cfg.AI.APIKey)
	assert.Equal(t, "claude-opus", cfg.AI.Model)
	assert.Equal(t, 25, cfg.Search.MaxResults)
	assert.Equal(t, types.SortRelevance, cfg.Search.SortBy)
	assert.Equal(t, types.SortAscending, cfg.Search.SortOrder)
	assert.Equal(t, "s-key", cfg.WebSearch.APIKey)
}

func TestConfigMissingAIKey(t *testing.T) {
	v := newTestViper(t)
	_, err := configFrom(v, nil)

	var mc *secrets.MissingCredentialError
	require.ErrorAs(t, err, &mc)
	assert.Equal(t, secrets.GeminiAPIKey, mc.Credential)
}

func TestConfigInvalid(t *testing.T) {
	tests := []struct {
		key   string
		value any
	}{
		{keyMaxResults, 0},
		{keyMaxResults, 5000},
		{keySortBy, "popularity"},
		{keySortOrder, "sideways"},
		{keyProvider, "openai"},
		{keyMaxRetries, -1},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			v := newTestViper(t)
			t.Setenv("GEMINI_API_KEY", "g-key")
			v.Set(tt.key, tt.value)
			_, err := configFrom(v, nil)
			assert.Error(t, err)
		})
	}
}
