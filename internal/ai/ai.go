// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ai answers questions about downloaded papers using a generative
// model. Backends handle transport (Gemini file upload or Claude inline
// documents); Client turns commands into prompts from the embedded catalog.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/pdiddy/arxiv-assistant/pkg/types"
)

// Request is one generation call against a set of PDF documents.
type Request struct {
	Model     string
	Prompt    string
	Documents []string       // local PDF paths, attached in order
	Schema    map[string]any // non-nil asks for JSON output matching the schema
}

// Backend abstracts the model API so tests can supply a mock.
type Backend interface {
	Generate(ctx context.Context, req Request) (string, error)
	Provider() types.AIProvider
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(p types.AIProvider) string {
	if p == types.ProviderClaude {
		return "claude-sonnet-4-5"
	}
	return "gemini-2.5-pro-exp-03-25"
}

// NewBackend builds the backend named by cfg.Provider.
func NewBackend(cfg types.AIConfig, client *http.Client, maxRetries int, progress io.Writer) (Backend, error) {
	switch cfg.Provider {
	case types.ProviderGemini, "":
		return &GeminiBackend{
			APIKey:     cfg.APIKey,
			MaxTokens:  cfg.MaxTokens,
			Client:     client,
			MaxRetries: maxRetries,
			Progress:   progress,
		}, nil
	case types.ProviderClaude:
		return &ClaudeBackend{
			APIKey:     cfg.APIKey,
			MaxTokens:  cfg.MaxTokens,
			Client:     client,
			MaxRetries: maxRetries,
		}, nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q (supported: gemini, claude)", cfg.Provider)
	}
}

// SummaryStyle selects a summary prompt.
type SummaryStyle string

const (
	SummaryDefault     SummaryStyle = "default"
	SummarySimple      SummaryStyle = "simple"
	SummaryTechnical   SummaryStyle = "technical"
	SummaryKeyFindings SummaryStyle = "key_findings"
	SummaryELI5        SummaryStyle = "eli5"
)

// SummaryStyles lists the accepted styles.
var SummaryStyles = []SummaryStyle{SummaryDefault, SummarySimple, SummaryTechnical, SummaryKeyFindings, SummaryELI5}

// ExtractKind selects a structured-extraction schema.
type ExtractKind string

const (
	ExtractMethods    ExtractKind = "methods"
	ExtractConclusion ExtractKind = "conclusion"
	ExtractDatasets   ExtractKind = "datasets"
)

// ExtractKinds lists the accepted extraction types.
var ExtractKinds = []ExtractKind{ExtractMethods, ExtractConclusion, ExtractDatasets}

// CompareKind selects the focus of a comparison.
type CompareKind string

const (
	CompareGeneral CompareKind = "general"
	CompareMethods CompareKind = "methods"
	CompareResults CompareKind = "results"
	CompareImpact  CompareKind = "impact"
)

// CompareKinds lists the accepted comparison types.
var CompareKinds = []CompareKind{CompareGeneral, CompareMethods, CompareResults, CompareImpact}

// ParseSummaryStyle matches s case-insensitively.
func ParseSummaryStyle(s string) (SummaryStyle, error) {
	return parseEnum(s, SummaryStyles, "summary style")
}

// ParseExtractKind matches s case-insensitively.
func ParseExtractKind(s string) (ExtractKind, error) {
	return parseEnum(s, ExtractKinds, "extraction type")
}

// ParseCompareKind matches s case-insensitively.
func ParseCompareKind(s string) (CompareKind, error) {
	return parseEnum(s, CompareKinds, "comparison type")
}

func parseEnum[T ~string](s string, valid []T, what string) (T, error) {
	v := T(strings.ToLower(strings.TrimSpace(s)))
	names := make([]string, len(valid))
	for i, known := range valid {
		if v == known {
			return v, nil
		}
		names[i] = string(known)
	}
	return "", fmt.Errorf("unknown %s %q (valid: %s)", what, s, strings.Join(names, ", "))
}

// Paper is one input to a comparison.
type Paper struct {
	Title string
	Path  string
}

// Client renders prompts and sends them through a Backend.
type Client struct {
	Backend Backend
}

// NewClient returns a Client over b.
func NewClient(b Backend) *Client {
	return &Client{Backend: b}
}

// Provider reports which backend answers requests.
func (c *Client) Provider() types.AIProvider {
	return c.Backend.Provider()
}

// Ask answers a free-form question about one paper. With figures set, the
// question is framed around the paper's figures and tables.
func (c *Client) Ask(ctx context.Context, model, pdfPath, question string, figures bool) (string, error) {
	prompt := strings.TrimSpace(question)
	if prompt == "" {
		return "", fmt.Errorf("empty question")
	}
	if figures {
		var err error
		prompt, err = render(figuresTmpl, struct{ Question string }{prompt})
		if err != nil {
			return "", err
		}
	}
	return c.generate(ctx, Request{Model: model, Prompt: prompt, Documents: []string{pdfPath}})
}

// Summarize summarizes one paper in the given style.
func (c *Client) Summarize(ctx context.Context, model, pdfPath string, style SummaryStyle) (string, error) {
	prompt, ok := prompts.Summaries[string(style)]
	if !ok {
		_, err := ParseSummaryStyle(string(style))
		return "", err
	}
	return c.generate(ctx, Request{Model: model, Prompt: strings.TrimSpace(prompt), Documents: []string{pdfPath}})
}

// Extract pulls structured data from one paper and returns it as indented
// JSON. A response that is not valid JSON is an error.
func (c *Client) Extract(ctx context.Context, model, pdfPath string, kind ExtractKind) (string, error) {
	ex, ok := prompts.Extractions[string(kind)]
	if !ok {
		_, err := ParseExtractKind(string(kind))
		return "", err
	}
	raw, err := c.generate(ctx, Request{
		Model:     model,
		Prompt:    strings.TrimSpace(ex.Prompt),
		Documents: []string{pdfPath},
		Schema:    ex.Schema,
	})
	if err != nil {
		return "", err
	}
	return prettyJSON(raw)
}

// Compare analyzes two or more papers together.
func (c *Client) Compare(ctx context.Context, model string, papers []Paper, kind CompareKind) (string, error) {
	if len(papers) < 2 {
		return "", fmt.Errorf("comparison needs at least 2 papers, got %d", len(papers))
	}
	focus, ok := prompts.Compare.Focus[string(kind)]
	if !ok {
		_, err := ParseCompareKind(string(kind))
		return "", err
	}

	titles := make([]string, len(papers))
	docs := make([]string, len(papers))
	for i, p := range papers {
		titles[i] = strings.Join(strings.Fields(p.Title), " ")
		docs[i] = p.Path
	}
	prompt, err := render(compareTmpl, struct {
		Titles []string
		Focus  compareFocus
	}{titles, focus})
	if err != nil {
		return "", err
	}
	return c.generate(ctx, Request{Model: model, Prompt: prompt, Documents: docs})
}

var jsonArray = regexp.MustCompile(`(?s)\[.*\]`)

// Keywords asks the model for search keywords describing a paper. It uses
// only the title and abstract, so no PDF is needed.
func (c *Client) Keywords(ctx context.Context, model, title, abstract string) ([]string, error) {
	prompt, err := render(keywordsTmpl, struct{ Title, Abstract string }{
		Title:    strings.Join(strings.Fields(title), " "),
		Abstract: strings.Join(strings.Fields(abstract), " "),
	})
	if err != nil {
		return nil, err
	}
	raw, err := c.generate(ctx, Request{Model: model, Prompt: prompt})
	if err != nil {
		return nil, err
	}

	match := jsonArray.FindString(raw)
	if match == "" {
		return nil, fmt.Errorf("no JSON array in keyword response")
	}
	var words []string
	if err := json.Unmarshal([]byte(match), &words); err != nil {
		return nil, fmt.Errorf("parsing keyword response: %w", err)
	}
	var out []string
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			out = append(out, w)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("keyword response was empty")
	}
	return out, nil
}

func (c *Client) generate(ctx context.Context, req Request) (string, error) {
	if c.Backend == nil {
		return "", fmt.Errorf("no AI backend configured")
	}
	if req.Model == "" {
		req.Model = DefaultModel(c.Backend.Provider())
	}
	text, err := c.Backend.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%s returned an empty response", c.Backend.Provider())
	}
	return text, nil
}

// prettyJSON validates raw as JSON and re-indents it. Markdown code fences
// around the payload are tolerated.
func prettyJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(s), "", "  "); err != nil {
		return "", fmt.Errorf("response was not valid JSON: %w", err)
	}
	return buf.String(), nil
}
