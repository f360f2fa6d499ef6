// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data structures shared by the session, the
// command dispatcher, and the external collaborators (arXiv, AI provider,
// web search, citation formatter).
package types

import "time"

// SearchResult is one paper on a page of arXiv results. It is immutable once
// fetched and is discarded with the page that holds it.
type SearchResult struct {
	// Index is the 1-based display number, relative to the page.
	Index int `json:"index" yaml:"index"`

	// ArxivID is the versioned arXiv identifier (e.g. "1707.08567v1").
	ArxivID string `json:"arxiv_id" yaml:"arxiv_id"`

	// Title is the paper title with whitespace collapsed.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in feed order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the paper summary.
	Abstract string `json:"abstract" yaml:"abstract"`

	// PDFURL is the absolute URL of the paper PDF.
	PDFURL string `json:"pdf_url" yaml:"pdf_url"`

	// AbsURL is the abstract page URL.
	AbsURL string `json:"abs_url,omitempty" yaml:"abs_url,omitempty"`

	Published time.Time `json:"published" yaml:"published"`
	Updated   time.Time `json:"updated" yaml:"updated"`

	// PrimaryCategory is the arXiv primary category (e.g. "cs.LG").
	PrimaryCategory string   `json:"primary_category,omitempty" yaml:"primary_category,omitempty"`
	Categories      []string `json:"categories,omitempty" yaml:"categories,omitempty"`

	DOI        string `json:"doi,omitempty" yaml:"doi,omitempty"`
	JournalRef string `json:"journal_ref,omitempty" yaml:"journal_ref,omitempty"`
	Comment    string `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// ResultPage is one page of search results together with the query and
// offset that produced it. Indices are contiguous from 1 within a page.
type ResultPage struct {
	// Query is the search query string that produced this page.
	Query string `json:"query" yaml:"query"`

	// Start is the 0-based offset of the first result in the full result set.
	Start int `json:"start" yaml:"start"`

	// TotalResults is the total number of matches reported by the API.
	TotalResults int `json:"total_results" yaml:"total_results"`

	// PageSize is the MaxResults the page was requested with.
	PageSize int `json:"page_size" yaml:"page_size"`

	Results []SearchResult `json:"results" yaml:"results"`
}

// Len returns the number of results on the page.
func (p *ResultPage) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Results)
}

// NextStart returns the offset of the first result after this page.
func (p *ResultPage) NextStart() int {
	return p.Start + len(p.Results)
}

// HasMore reports whether the API advertised results beyond this page.
func (p *ResultPage) HasMore() bool {
	if p == nil {
		return false
	}
	return p.NextStart() < p.TotalResults
}

// Lookup returns the result displayed with the given 1-based index.
func (p *ResultPage) Lookup(index int) (SearchResult, bool) {
	if p == nil || index < 1 || index > len(p.Results) {
		return SearchResult{}, false
	}
	return p.Results[index-1], true
}

// PageNumber returns the 1-based page number under the page size the page
// was fetched with. It falls back to the number of results when PageSize
// is unset.
func (p *ResultPage) PageNumber() int {
	if p == nil {
		return 0
	}
	size := p.PageSize
	if size <= 0 {
		size = len(p.Results)
	}
	if size <= 0 {
		return 0
	}
	return p.Start/size + 1
}

// SortField selects the arXiv sortBy parameter.
type SortField string

const (
	SortRelevance       SortField = "relevance"
	SortLastUpdatedDate SortField = "lastUpdatedDate"
	SortSubmittedDate   SortField = "submittedDate"
)

// SortOrder selects the arXiv sortOrder parameter.
type SortOrder string

const (
	SortAscending  SortOrder = "ascending"
	SortDescending SortOrder = "descending"
)

// SearchRequest is one call to the search collaborator.
type SearchRequest struct {
	Query      string
	Start      int
	MaxResults int
	SortBy     SortField
	SortOrder  SortOrder
}
