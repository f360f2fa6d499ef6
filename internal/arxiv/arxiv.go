// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package arxiv queries the arXiv Atom API and turns feed entries into
// page-indexed search results.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/arxiv-assistant/internal/httputil"
	"github.com/pdiddy/arxiv-assistant/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "http://export.arxiv.org/api/query"

// arxivPDFBase is the prefix used when an entry carries no PDF link.
var arxivPDFBase = "https://arxiv.org/pdf/"

// DefaultRateInterval is the spacing arXiv asks API clients to keep between
// consecutive requests.
const DefaultRateInterval = 3 * time.Second

// Client is the search collaborator backed by the arXiv API.
type Client struct {
	HTTP      *http.Client
	UserAgent string

	// BaseURL overrides arxivAPIBase when set.
	BaseURL string

	// MaxRetries is passed to httputil.DoWithRetry for HTTP 429 responses.
	MaxRetries int

	limiter *rate.Limiter
}

// NewClient returns a Client that waits at least interval between requests.
// A non-positive interval uses DefaultRateInterval.
func NewClient(httpClient *http.Client, cfg types.HTTPConfig, search types.SearchConfig) *Client {
	interval := search.RateInterval
	if interval <= 0 {
		interval = DefaultRateInterval
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		HTTP:       httpClient,
		UserAgent:  cfg.UserAgent,
		BaseURL:    search.BaseURL,
		MaxRetries: cfg.MaxRetries,
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Search runs one query against the arXiv API and returns the page of
// results with indices starting at 1. An empty feed is not an error here;
// callers decide what zero results mean.
func (c *Client) Search(ctx context.Context, req types.SearchRequest) (*types.ResultPage, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("empty arXiv query")
	}
	if req.MaxResults <= 0 {
		req.MaxResults = 10
	}
	if req.SortBy == "" {
		req.SortBy = types.SortSubmittedDate
	}
	if req.SortOrder == "" {
		req.SortOrder = types.SortDescending
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for arXiv rate limit: %w", err)
		}
	}

	base := c.BaseURL
	if base == "" {
		base = arxivAPIBase
	}
	params := url.Values{}
	params.Set("search_query", req.Query)
	params.Set("start", strconv.Itoa(req.Start))
	params.Set("max_results", strconv.Itoa(req.MaxResults))
	params.Set("sortBy", string(req.SortBy))
	params.Set("sortOrder", string(req.SortOrder))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.UserAgent)
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, httpReq, c.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading arXiv response: %w", err)
	}

	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	// arXiv reports query errors as a single entry titled "Error", sometimes
	// with a 400 status.
	if len(feed.Entries) > 0 && isErrorEntry(feed.Entries[0]) {
		return nil, &APIError{Message: collapse(feed.Entries[0].Summary), ID: feed.Entries[0].ID}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	page := &types.ResultPage{
		Query:        req.Query,
		Start:        req.Start,
		TotalResults: feed.TotalResults,
	}
	if feed.StartIndex > 0 {
		page.Start = feed.StartIndex
	}

	for _, entry := range feed.Entries {
		r, ok := entry.toResult()
		if !ok {
			continue
		}
		r.Index = len(page.Results) + 1
		page.Results = append(page.Results, r)
	}
	return page, nil
}

// APIError is an error entry returned inside an otherwise valid feed.
type APIError struct {
	Message string
	ID      string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return "arXiv API error"
	}
	return "arXiv API error: " + e.Message
}

func isErrorEntry(e arxivEntry) bool {
	return strings.TrimSpace(e.Title) == "Error" || strings.Contains(e.ID, "/api/errors")
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	TotalResults int          `xml:"http://a9.com/-/spec/opensearch/1.1/ totalResults"`
	StartIndex   int          `xml:"http://a9.com/-/spec/opensearch/1.1/ startIndex"`
	Entries      []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID              string          `xml:"id"`
	Title           string          `xml:"title"`
	Summary         string          `xml:"summary"`
	Published       string          `xml:"published"`
	Updated         string          `xml:"updated"`
	Authors         []arxivAuthor   `xml:"author"`
	Links           []arxivLink     `xml:"link"`
	Categories      []arxivCategory `xml:"category"`
	PrimaryCategory arxivCategory   `xml:"http://arxiv.org/schemas/atom primary_category"`
	DOI             string          `xml:"http://arxiv.org/schemas/atom doi"`
	JournalRef      string          `xml:"http://arxiv.org/schemas/atom journal_ref"`
	Comment         string          `xml:"http://arxiv.org/schemas/atom comment"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

// toResult converts a feed entry. Entries without a recognizable arXiv id
// are dropped.
func (e arxivEntry) toResult() (types.SearchResult, bool) {
	arxivID := ExtractID(e.ID)
	if arxivID == "" {
		return types.SearchResult{}, false
	}

	r := types.SearchResult{
		ArxivID:         arxivID,
		Title:           collapse(e.Title),
		Abstract:        collapse(e.Summary),
		AbsURL:          strings.TrimSpace(e.ID),
		PrimaryCategory: e.PrimaryCategory.Term,
		DOI:             strings.TrimSpace(e.DOI),
		JournalRef:      collapse(e.JournalRef),
		Comment:         collapse(e.Comment),
	}

	for _, a := range e.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			r.Authors = append(r.Authors, name)
		}
	}
	for _, c := range e.Categories {
		if c.Term != "" {
			r.Categories = append(r.Categories, c.Term)
		}
	}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Published)); err == nil {
		r.Published = t
	}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Updated)); err == nil {
		r.Updated = t
	}

	for _, l := range e.Links {
		switch {
		case l.Title == "pdf" || l.Type == "application/pdf":
			if r.PDFURL == "" {
				r.PDFURL = NormalizeURL(l.Href)
			}
		case l.Rel == "alternate" && l.Href != "":
			r.AbsURL = NormalizeURL(l.Href)
		}
	}
	if r.PDFURL == "" {
		r.PDFURL = arxivPDFBase + arxivID
	}
	return r, true
}

// ExtractID pulls the versioned arXiv ID from an entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041v1").
func ExtractID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(idURL[idx+len(prefix):])
}

// BaseID strips a version suffix (e.g. "2301.07041v2" → "2301.07041").
func BaseID(id string) string {
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			return id[:vIdx]
		}
	}
	return id
}

// NormalizeURL makes protocol-relative links absolute.
func NormalizeURL(link string) string {
	link = strings.TrimSpace(link)
	if strings.HasPrefix(link, "//") {
		return "https:" + link
	}
	return link
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
