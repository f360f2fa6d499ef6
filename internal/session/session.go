// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session holds the state of one interactive run: the current page
// of search results, the pagination cursor, the search and model settings,
// and the cache of downloaded PDFs.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/arxiv-assistant/pkg/types"
)

var errEmptyQuery = errors.New("empty query")

// Searcher is the search collaborator (arXiv).
type Searcher interface {
	Search(ctx context.Context, req types.SearchRequest) (*types.ResultPage, error)
}

// Session is the process-lifetime state. It exclusively owns the current
// page and the download cache; superseded pages are dropped.
type Session struct {
	searcher Searcher
	settings Settings
	page     *types.ResultPage

	// Downloads maps arXiv ids to local PDFs.
	Downloads *DownloadCache
}

// New creates a session with the given settings. Zero-valued settings fall
// back to DefaultSettings.
func New(searcher Searcher, fetcher Fetcher, settings Settings) *Session {
	def := DefaultSettings()
	if settings.MaxResults <= 0 {
		settings.MaxResults = def.MaxResults
	}
	if settings.SortField == "" {
		settings.SortField = def.SortField
	}
	if settings.SortOrder == "" {
		settings.SortOrder = def.SortOrder
	}
	if strings.TrimSpace(settings.Model) == "" {
		settings.Model = def.Model
	}
	return &Session{
		searcher:  searcher,
		settings:  settings,
		Downloads: NewDownloadCache(fetcher),
	}
}

// Settings returns a copy of the current settings.
func (s *Session) Settings() Settings { return s.settings }

// Page returns the current result page, or nil before the first query.
func (s *Session) Page() *types.ResultPage { return s.page }

// Query returns the query that produced the current page.
func (s *Session) Query() string {
	if s.page == nil {
		return ""
	}
	return s.page.Query
}

// NewQuery runs q from offset 0 and replaces the current page. A failed or
// empty search returns SearchError and leaves the current page in place.
func (s *Session) NewQuery(ctx context.Context, q string) (*types.ResultPage, error) {
	return s.NewQueryFrom(ctx, q, 0)
}

// NewQueryFrom is NewQuery starting at result offset start.
func (s *Session) NewQueryFrom(ctx context.Context, q string, start int) (*types.ResultPage, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, &SearchError{Query: q, Err: errEmptyQuery}
	}
	if start < 0 {
		return nil, &SearchError{Query: q, Err: fmt.Errorf("negative start offset %d", start)}
	}

	page, err := s.fetch(ctx, q, start)
	if err != nil {
		return nil, &SearchError{Query: q, Err: err}
	}
	if page.Len() == 0 {
		return nil, &SearchError{Query: q}
	}
	s.page = page
	return page, nil
}

// NextPage fetches the page following the current one with the stored query
// and the current page size. When the cursor is exhausted it returns
// NoMoreResultsError and leaves the current page in place.
func (s *Session) NextPage(ctx context.Context) (*types.ResultPage, error) {
	if s.page == nil {
		return nil, &NoMoreResultsError{Reason: "no active query, use 'q' first"}
	}
	if !s.page.HasMore() {
		return nil, &NoMoreResultsError{Reason: "already on the last page"}
	}

	page, err := s.fetch(ctx, s.page.Query, s.page.NextStart())
	if err != nil {
		return nil, &SearchError{Query: s.page.Query, Err: err}
	}
	if page.Len() == 0 {
		return nil, &NoMoreResultsError{Reason: "the API returned no further entries"}
	}
	s.page = page
	return page, nil
}

// SetOption validates and stores one setting. Later searches use it.
func (s *Session) SetOption(name Option, value string) error {
	return s.settings.Apply(name, value)
}

// SetSort validates both sort values before changing either.
func (s *Session) SetSort(field, order string) error {
	f, err := ParseSortField(field)
	if err != nil {
		return err
	}
	o, err := ParseSortOrder(order)
	if err != nil {
		return err
	}
	s.settings.SortField = f
	s.settings.SortOrder = o
	return nil
}

// Resolve maps display indices on the current page to results. It is
// all-or-nothing: the first unknown index fails the whole call. Duplicates
// are kept in input order.
func (s *Session) Resolve(indices []int) ([]types.SearchResult, error) {
	out := make([]types.SearchResult, 0, len(indices))
	for _, i := range indices {
		r, ok := s.page.Lookup(i)
		if !ok {
			return nil, &IndexOutOfRangeError{Index: i, Size: s.page.Len()}
		}
		out = append(out, r)
	}
	return out, nil
}

// ResolveOne is Resolve for a single index.
func (s *Session) ResolveOne(index int) (types.SearchResult, error) {
	rs, err := s.Resolve([]int{index})
	if err != nil {
		return types.SearchResult{}, err
	}
	return rs[0], nil
}

func (s *Session) fetch(ctx context.Context, q string, start int) (*types.ResultPage, error) {
	page, err := s.searcher.Search(ctx, types.SearchRequest{
		Query:      q,
		Start:      start,
		MaxResults: s.settings.MaxResults,
		SortBy:     s.settings.SortField,
		SortOrder:  s.settings.SortOrder,
	})
	if err != nil {
		return nil, err
	}
	if page == nil {
		page = &types.ResultPage{}
	}
	page.Query = q
	page.PageSize = s.settings.MaxResults
	if page.Start == 0 {
		page.Start = start
	}
	reindex(page)
	return page, nil
}

// reindex numbers the page from 1 whatever the collaborator returned.
func reindex(page *types.ResultPage) {
	for i := range page.Results {
		page.Results[i].Index = i + 1
	}
}
