// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package related

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/pdiddy/arxiv-assistant/internal/httputil"
	"github.com/pdiddy/arxiv-assistant/pkg/types"
)

// serperBaseURL is the Serper API host. Declared as a var so tests can
// substitute an httptest server.
var serperBaseURL = "https://google.serper.dev"

// DefaultNumResults is the number of hits requested per query.
const DefaultNumResults = 10

// SerperClient queries Google Scholar through the Serper API.
type SerperClient struct {
	Client     *http.Client
	APIKey     string
	NumResults int
	MaxRetries int
	Progress   io.Writer
}

// NewSerperClient builds a client from config. The API key is required.
func NewSerperClient(client *http.Client, cfg types.WebSearchConfig, httpCfg types.HTTPConfig, w io.Writer) *SerperClient {
	return &SerperClient{
		Client:     client,
		APIKey:     cfg.APIKey,
		NumResults: cfg.NumResults,
		MaxRetries: httpCfg.MaxRetries,
		Progress:   w,
	}
}

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type serperResponse struct {
	Organic []serperHit `json:"organic"`
}

type serperHit struct {
	Title           string  `json:"title"`
	Link            string  `json:"link"`
	Snippet         string  `json:"snippet"`
	PublicationInfo string  `json:"publicationInfo"`
	Year            flexInt `json:"year"`
	CitedBy         flexInt `json:"citedBy"`
}

// flexInt accepts a JSON number or a numeric string. Anything else decodes
// as zero.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	n, err := strconv.Atoi(s)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}

// Search queries the Scholar endpoint. When it returns no organic hits the
// query is retried against general web search restricted to
// scholar.google.com.
func (s *SerperClient) Search(ctx context.Context, query string) ([]types.RelatedPaper, error) {
	hits, err := s.post(ctx, "/scholar", query)
	if err != nil {
		return nil, err
	}
	if len(hits) > 0 {
		return hits, nil
	}
	s.printf("no Scholar results, trying web search\n")
	return s.post(ctx, "/search", query+" site:scholar.google.com")
}

func (s *SerperClient) post(ctx context.Context, path, query string) ([]types.RelatedPaper, error) {
	num := s.NumResults
	if num <= 0 {
		num = DefaultNumResults
	}
	body, err := json.Marshal(serperRequest{Q: query, Num: num})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serperBaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", s.APIKey)

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, s.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("Serper API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("Serper API returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var sr serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decoding Serper response: %w", err)
	}

	papers := make([]types.RelatedPaper, 0, len(sr.Organic))
	for _, h := range sr.Organic {
		papers = append(papers, types.RelatedPaper{
			Title:           strings.TrimSpace(h.Title),
			Link:            h.Link,
			Snippet:         strings.Join(strings.Fields(h.Snippet), " "),
			PublicationInfo: h.PublicationInfo,
			Year:            int(h.Year),
			CitedBy:         int(h.CitedBy),
		})
	}
	return papers, nil
}

func (s *SerperClient) printf(format string, args ...any) {
	if s.Progress != nil {
		fmt.Fprintf(s.Progress, format, args...)
	}
}
