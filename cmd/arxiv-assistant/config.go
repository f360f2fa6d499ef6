// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/arxiv-assistant/internal/ai"
	"github.com/pdiddy/arxiv-assistant/internal/arxiv"
	"github.com/pdiddy/arxiv-assistant/internal/related"
	"github.com/pdiddy/arxiv-assistant/internal/secrets"
	"github.com/pdiddy/arxiv-assistant/internal/session"
	"github.com/pdiddy/arxiv-assistant/pkg/types"
)

const (
	defaultTimeout     = 60 * time.Second
	defaultUserAgent   = "arXiv-Assistant/0.6"
	defaultDownloadDir = "arxiv_downloads"
)

// Config keys.
const (
	keyDownloadDir  = "download_dir"
	keyMaxResults   = "max_results"
	keySortBy       = "sort_by"
	keySortOrder    = "sort_order"
	keyProvider     = "ai.provider"
	keyModel        = "ai.model"
	keyMaxTokens    = "ai.max_tokens"
	keyAIKey        = "ai.api_key"
	keyTimeout      = "http.timeout"
	keyUserAgent    = "http.user_agent"
	keyMaxRetries   = "http.max_retries"
	keyArxivBaseURL = "arxiv.base_url"
	keyRateInterval = "arxiv.rate_interval"
	keySerperKey    = "serper.api_key"
	keySerperNum    = "serper.num_results"
)

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("arxiv-assistant")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "arxiv-assistant"))
		}
	}

	viper.SetEnvPrefix("ARXIV_ASSISTANT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyDownloadDir, defaultDownloadDir)
	v.SetDefault(keyMaxResults, session.DefaultMaxResults)
	v.SetDefault(keySortBy, string(session.DefaultSortField))
	v.SetDefault(keySortOrder, string(session.DefaultSortOrder))
	v.SetDefault(keyProvider, string(types.ProviderGemini))
	v.SetDefault(keyTimeout, defaultTimeout)
	v.SetDefault(keyUserAgent, defaultUserAgent)
	v.SetDefault(keyMaxRetries, 0)
	v.SetDefault(keyRateInterval, arxiv.DefaultRateInterval)
	v.SetDefault(keySerperNum, related.DefaultNumResults)

	v.BindEnv(keySerperKey, secrets.SerperAPIKey.EnvVar)
}

// addSettingFlags registers the flags that override config keys.
func addSettingFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntP("max-results", "m", 0, "results per page (1-2000, default 10)")
	f.String("sort-by", "", "sort field: relevance, lastUpdatedDate, submittedDate")
	f.String("sort-order", "", "sort order: ascending, descending")
	f.String("model", "", "AI model identifier")
	f.String("provider", "", "AI provider: gemini or claude")
	f.String("download-dir", "", "directory for downloaded PDFs (default arxiv_downloads)")

	for key, flag := range map[string]string{
		keyMaxResults:  "max-results",
		keySortBy:      "sort-by",
		keySortOrder:   "sort-order",
		keyModel:       "model",
		keyProvider:    "provider",
		keyDownloadDir: "download-dir",
	} {
		viper.BindPFlag(key, f.Lookup(flag))
	}
}

// loadConfig builds the application config from viper and resolves the
// credentials. A missing AI key is fatal; a missing Serper key only
// disables related-work search.
func loadConfig() (types.AppConfig, error) {
	return configFrom(viper.GetViper(), loadedSecrets)
}

func configFrom(v *viper.Viper, files map[string]string) (types.AppConfig, error) {
	var cfg types.AppConfig

	cfg.HTTP = types.HTTPConfig{
		Timeout:    v.GetDuration(keyTimeout),
		UserAgent:  v.GetString(keyUserAgent),
		MaxRetries: v.GetInt(keyMaxRetries),
	}
	if cfg.HTTP.MaxRetries < 0 {
		return cfg, fmt.Errorf("%s must not be negative", keyMaxRetries)
	}

	maxResults, err := session.ParseMaxResults(v.GetString(keyMaxResults))
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	sortBy, err := session.ParseSortField(v.GetString(keySortBy))
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	sortOrder, err := session.ParseSortOrder(v.GetString(keySortOrder))
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	cfg.Search = types.SearchConfig{
		MaxResults:   maxResults,
		SortBy:       sortBy,
		SortOrder:    sortOrder,
		BaseURL:      v.GetString(keyArxivBaseURL),
		RateInterval: v.GetDuration(keyRateInterval),
	}

	cfg.Acquisition = types.AcquisitionConfig{DownloadDir: v.GetString(keyDownloadDir)}

	provider := types.AIProvider(strings.ToLower(v.GetString(keyProvider)))
	cred, err := credentialFor(provider)
	if err != nil {
		return cfg, err
	}
	v.BindEnv(keyAIKey, cred.EnvVar)
	key := v.GetString(keyAIKey)
	if key == "" {
		if key, err = secrets.Require(cred, files); err != nil {
			return cfg, err
		}
	}
	cfg.AI = types.AIConfig{
		Provider:  provider,
		Model:     v.GetString(keyModel),
		APIKey:    key,
		MaxTokens: v.GetInt(keyMaxTokens),
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = ai.DefaultModel(provider)
	}

	cfg.WebSearch = types.WebSearchConfig{
		APIKey:     v.GetString(keySerperKey),
		NumResults: v.GetInt(keySerperNum),
	}
	if cfg.WebSearch.APIKey == "" {
		cfg.WebSearch.APIKey, _ = secrets.Lookup(secrets.SerperAPIKey, files)
	}
	return cfg, nil
}

func credentialFor(p types.AIProvider) (secrets.Credential, error) {
	switch p {
	case types.ProviderGemini:
		return secrets.GeminiAPIKey, nil
	case types.ProviderClaude:
		return secrets.AnthropicAPIKey, nil
	default:
		return secrets.Credential{}, fmt.Errorf("unknown AI provider %q (supported: gemini, claude)", p)
	}
}
