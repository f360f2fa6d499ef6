// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withClaudeServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	orig := claudeAPIURL
	claudeAPIURL = srv.URL
	t.Cleanup(func() { claudeAPIURL = orig })
	return srv
}

func TestClaudeGenerate(t *testing.T) {
	var got claudeRequest
	srv := withClaudeServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"content":[{"type":"text","text":"Part one. "},{"type":"text","text":"Part two."}],"stop_reason":"end_turn"}`)
	})

	pdf := writePDF(t)
	c := &ClaudeBackend{APIKey: "test-key", Client: srv.Client()}
	text, err := c.Generate(context.Background(), Request{Model: "claude-test", Prompt: "Summarize.", Documents: []string{pdf}})
	require.NoError(t, err)
	assert.Equal(t, "Part one. Part two.", text)

	assert.Equal(t, "claude-test", got.Model)
	assert.Equal(t, claudeDefaultMaxTokens, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	blocks := got.Messages[0].Content
	require.Len(t, blocks, 2)

	assert.Equal(t, "document", blocks[0].Type)
	require.NotNil(t, blocks[0].Source)
	assert.Equal(t, "application/pdf", blocks[0].Source.MediaType)
	data, err := base64.StdEncoding.DecodeString(blocks[0].Source.Data)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 test", string(data))

	assert.Equal(t, "text", blocks[1].Type)
	assert.Equal(t, "Summarize.", blocks[1].Text)
}

func TestClaudeSchemaInPrompt(t *testing.T) {
	var got claudeRequest
	srv := withClaudeServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		io.WriteString(w, `{"content":[{"type":"text","text":"{}"}]}`)
	})

	c := &ClaudeBackend{APIKey: "k", Client: srv.Client(), MaxTokens: 1000}
	_, err := c.Generate(context.Background(), Request{
		Model:  "m",
		Prompt: "Extract.",
		Schema: prompts.Extractions["conclusion"].Schema,
	})
	require.NoError(t, err)

	assert.Equal(t, 1000, got.MaxTokens)
	prompt := got.Messages[0].Content[0].Text
	assert.True(t, strings.HasPrefix(prompt, "Extract.\n\nRespond with a single JSON object"))
	assert.Contains(t, prompt, `"main_conclusion"`)
}

func TestClaudeErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"http error", http.StatusUnauthorized, `{"error":{"message":"invalid x-api-key"}}`, "Claude API returned 401"},
		{"no text", http.StatusOK, `{"content":[{"type":"tool_use"}]}`, "no text content"},
		{"bad json", http.StatusOK, `not json`, "decoding Claude response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := withClaudeServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			c := &ClaudeBackend{APIKey: "k", Client: srv.Client()}
			_, err := c.Generate(context.Background(), Request{Model: "m", Prompt: "q"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestClaudeMissingDocument(t *testing.T) {
	c := &ClaudeBackend{APIKey: "k"}
	_, err := c.Generate(context.Background(), Request{Model: "m", Prompt: "q", Documents: []string{"/nonexistent/a.pdf"}})
	assert.ErrorContains(t, err, "reading a.pdf")
}
