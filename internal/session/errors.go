// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"fmt"
	"strings"
)

// SearchError reports a failed or empty search. The session stays usable.
type SearchError struct {
	Query string
	Err   error
}

func (e *SearchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("no results found for %q", e.Query)
	}
	return fmt.Sprintf("search %q failed: %v", e.Query, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }

// NoMoreResultsError is returned by NextPage when the cursor is exhausted.
type NoMoreResultsError struct {
	Reason string
}

func (e *NoMoreResultsError) Error() string {
	if e.Reason == "" {
		return "no more results"
	}
	return "no more results: " + e.Reason
}

// InvalidOptionError rejects a setting value. The setting is left unchanged.
type InvalidOptionError struct {
	Option string
	Value  string
	Reason string
}

func (e *InvalidOptionError) Error() string {
	msg := fmt.Sprintf("invalid value %q for %s", e.Value, e.Option)
	if e.Option == "" {
		msg = fmt.Sprintf("unknown setting %q", e.Value)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// IndexOutOfRangeError names an index that is not on the current page.
type IndexOutOfRangeError struct {
	Index int
	Size  int
}

func (e *IndexOutOfRangeError) Error() string {
	if e.Size == 0 {
		return fmt.Sprintf("index %d out of range: no results on the current page", e.Index)
	}
	return fmt.Sprintf("index %d out of range: valid indices are 1-%d", e.Index, e.Size)
}

// DownloadError reports a failed PDF download. No cache entry is recorded.
type DownloadError struct {
	ArxivID string
	Err     error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("downloading %s: %v", e.ArxivID, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// CollaboratorError wraps a failure of an external service (AI provider,
// web search).
type CollaboratorError struct {
	Service string
	Err     error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

func quoteAll(values []string) string {
	q := make([]string, len(values))
	for i, v := range values {
		q[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(q, ", ")
}
