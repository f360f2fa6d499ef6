// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/arxiv-assistant/internal/httputil"
	"github.com/pdiddy/arxiv-assistant/pkg/types"
)

// geminiAPIBase is the Generative Language API host. Package-level var for
// test substitution.
var geminiAPIBase = "https://generativelanguage.googleapis.com"

// pollInterval is the wait between file state checks while Gemini processes
// an upload.
var pollInterval = 5 * time.Second

// maxPolls bounds the processing wait for one upload.
const maxPolls = 60

const (
	fileProcessing = "PROCESSING"
	fileActive     = "ACTIVE"
	fileFailed     = "FAILED"
)

// GeminiBackend uploads PDFs through the Gemini File API and references
// them from generateContent requests. Uploaded handles are cached per local
// path for the life of the backend.
type GeminiBackend struct {
	APIKey     string
	MaxTokens  int
	Client     *http.Client
	MaxRetries int
	Progress   io.Writer

	mu    sync.Mutex
	files map[string]geminiFile
}

// geminiFile is a File API resource.
type geminiFile struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`
	State    string `json:"state"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text     string          `json:"text,omitempty"`
	FileData *geminiFileData `json:"file_data,omitempty"`
}

type geminiFileData struct {
	MimeType string `json:"mime_type"`
	FileURI  string `json:"file_uri"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
	MaxOutputTokens  int            `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Provider reports types.ProviderGemini.
func (g *GeminiBackend) Provider() types.AIProvider { return types.ProviderGemini }

// Generate uploads every document that is not already active, then calls
// generateContent with the prompt followed by the file references.
func (g *GeminiBackend) Generate(ctx context.Context, req Request) (string, error) {
	parts := []geminiPart{{Text: req.Prompt}}
	for _, path := range req.Documents {
		f, err := g.ensureUploaded(ctx, path)
		if err != nil {
			return "", err
		}
		parts = append(parts, geminiPart{FileData: &geminiFileData{MimeType: f.MimeType, FileURI: f.URI}})
	}

	body := geminiRequest{Contents: []geminiContent{{Role: "user", Parts: parts}}}
	if req.Schema != nil || g.MaxTokens > 0 {
		body.GenerationConfig = &geminiGenerationConfig{MaxOutputTokens: g.MaxTokens}
		if req.Schema != nil {
			body.GenerationConfig.ResponseMimeType = "application/json"
			body.GenerationConfig.ResponseSchema = req.Schema
		}
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", geminiAPIBase, req.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var gResp geminiResponse
	if err := g.do(httpReq, &gResp); err != nil {
		return "", fmt.Errorf("calling Gemini API: %w", err)
	}

	if r := gResp.PromptFeedback.BlockReason; r != "" {
		return "", fmt.Errorf("Gemini blocked the prompt: %s", r)
	}
	if len(gResp.Candidates) == 0 {
		return "", fmt.Errorf("Gemini API returned no candidates")
	}
	var text strings.Builder
	for _, p := range gResp.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("Gemini API returned no text (finish reason %s)", gResp.Candidates[0].FinishReason)
	}
	return text.String(), nil
}

// ensureUploaded returns an ACTIVE handle for path, reusing a cached upload
// when the service still reports it active.
func (g *GeminiBackend) ensureUploaded(ctx context.Context, path string) (geminiFile, error) {
	g.mu.Lock()
	cached, ok := g.files[path]
	g.mu.Unlock()

	if ok {
		current, err := g.getFile(ctx, cached.Name)
		if err == nil && current.State == fileActive {
			return current, nil
		}
		g.printf("re-uploading %s: previous upload is no longer active\n", filepath.Base(path))
	}

	f, err := g.upload(ctx, path)
	if err != nil {
		return geminiFile{}, fmt.Errorf("uploading %s: %w", filepath.Base(path), err)
	}
	f, err = g.waitActive(ctx, f)
	if err != nil {
		return geminiFile{}, fmt.Errorf("processing %s: %w", filepath.Base(path), err)
	}

	g.mu.Lock()
	if g.files == nil {
		g.files = make(map[string]geminiFile)
	}
	g.files[path] = f
	g.mu.Unlock()
	return f, nil
}

// upload sends the PDF as a multipart/related request: JSON metadata first,
// then the file bytes.
func (g *GeminiBackend) upload(ctx context.Context, path string) (geminiFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return geminiFile{}, fmt.Errorf("reading file: %w", err)
	}
	g.printf("uploading: %s\n", filepath.Base(path))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	meta, err := json.Marshal(map[string]any{"file": map[string]string{"display_name": filepath.Base(path)}})
	if err != nil {
		return geminiFile{}, fmt.Errorf("marshaling metadata: %w", err)
	}
	metaPart, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"application/json; charset=UTF-8"}})
	if err != nil {
		return geminiFile{}, err
	}
	if _, err := metaPart.Write(meta); err != nil {
		return geminiFile{}, err
	}
	filePart, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"application/pdf"}})
	if err != nil {
		return geminiFile{}, err
	}
	if _, err := filePart.Write(data); err != nil {
		return geminiFile{}, err
	}
	if err := mw.Close(); err != nil {
		return geminiFile{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, geminiAPIBase+"/upload/v1beta/files", bytes.NewReader(buf.Bytes()))
	if err != nil {
		return geminiFile{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "multipart/related; boundary="+mw.Boundary())
	req.Header.Set("X-Goog-Upload-Protocol", "multipart")

	var resp struct {
		File geminiFile `json:"file"`
	}
	if err := g.do(req, &resp); err != nil {
		return geminiFile{}, err
	}
	if resp.File.Name == "" {
		return geminiFile{}, fmt.Errorf("upload response has no file name")
	}
	if resp.File.MimeType == "" {
		resp.File.MimeType = "application/pdf"
	}
	return resp.File, nil
}

// waitActive polls the file until it leaves PROCESSING.
func (g *GeminiBackend) waitActive(ctx context.Context, f geminiFile) (geminiFile, error) {
	for i := 0; f.State == fileProcessing || f.State == ""; i++ {
		if i >= maxPolls {
			return geminiFile{}, fmt.Errorf("file %s still processing after %d checks", f.Name, maxPolls)
		}
		g.printf("waiting: %s is %s\n", f.Name, strings.ToLower(stateOr(f.State)))
		select {
		case <-ctx.Done():
			return geminiFile{}, ctx.Err()
		case <-time.After(pollInterval):
		}
		next, err := g.getFile(ctx, f.Name)
		if err != nil {
			return geminiFile{}, err
		}
		if next.MimeType == "" {
			next.MimeType = f.MimeType
		}
		f = next
	}
	if f.State != fileActive {
		return geminiFile{}, fmt.Errorf("file %s ended in state %s", f.Name, f.State)
	}
	return f, nil
}

func stateOr(s string) string {
	if s == "" {
		return fileProcessing
	}
	return s
}

func (g *GeminiBackend) getFile(ctx context.Context, name string) (geminiFile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, geminiAPIBase+"/v1beta/"+name, nil)
	if err != nil {
		return geminiFile{}, fmt.Errorf("creating request: %w", err)
	}
	var f geminiFile
	if err := g.do(req, &f); err != nil {
		return geminiFile{}, fmt.Errorf("checking file %s: %w", name, err)
	}
	return f, nil
}

// do authenticates req, sends it and decodes a 200 JSON body into out.
func (g *GeminiBackend) do(req *http.Request, out any) error {
	req.Header.Set("x-goog-api-key", g.APIKey)

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(req.Context(), client, req, g.MaxRetries)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("Gemini API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding Gemini response: %w", err)
	}
	return nil
}

func (g *GeminiBackend) printf(format string, args ...any) {
	if g.Progress != nil {
		fmt.Fprintf(g.Progress, format, args...)
	}
}
