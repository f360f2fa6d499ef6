// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"strconv"
	"strings"

	"github.com/pdiddy/arxiv-assistant/pkg/types"
)

// Option names a mutable session setting.
type Option string

const (
	OptMax       Option = "max"
	OptSortField Option = "sort_field"
	OptSortOrder Option = "sort_order"
	OptModel     Option = "model"
)

// MaxResultsLimit is the largest page size the arXiv API serves per request.
const MaxResultsLimit = 2000

// Defaults for a fresh session.
const (
	DefaultMaxResults = 10
	DefaultSortField  = types.SortSubmittedDate
	DefaultSortOrder  = types.SortDescending
	DefaultModel      = "gemini-2.5-pro-exp-03-25"
)

// Settings are the user-adjustable parameters of a session.
type Settings struct {
	MaxResults int
	SortField  types.SortField
	SortOrder  types.SortOrder
	Model      string
}

// DefaultSettings returns the settings a session starts with.
func DefaultSettings() Settings {
	return Settings{
		MaxResults: DefaultMaxResults,
		SortField:  DefaultSortField,
		SortOrder:  DefaultSortOrder,
		Model:      DefaultModel,
	}
}

var sortFields = []types.SortField{types.SortRelevance, types.SortLastUpdatedDate, types.SortSubmittedDate}

var sortFieldAliases = map[string]types.SortField{
	"date":      types.SortSubmittedDate,
	"submitted": types.SortSubmittedDate,
	"updated":   types.SortLastUpdatedDate,
}

// ParseSortField accepts a field name, a case-insensitive prefix of one, or
// the aliases "date", "submitted" and "updated".
func ParseSortField(value string) (types.SortField, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return "", &InvalidOptionError{Option: string(OptSortField), Value: value, Reason: "value required"}
	}
	if f, ok := sortFieldAliases[v]; ok {
		return f, nil
	}
	var match types.SortField
	for _, f := range sortFields {
		if strings.HasPrefix(strings.ToLower(string(f)), v) {
			if match != "" {
				return "", &InvalidOptionError{Option: string(OptSortField), Value: value, Reason: "ambiguous prefix"}
			}
			match = f
		}
	}
	if match == "" {
		return "", &InvalidOptionError{
			Option: string(OptSortField),
			Value:  value,
			Reason: "choose one of " + quoteAll([]string{"relevance", "lastUpdatedDate", "submittedDate"}),
		}
	}
	return match, nil
}

// ParseSortOrder accepts a case-insensitive prefix of "ascending" or
// "descending" ("asc", "desc").
func ParseSortOrder(value string) (types.SortOrder, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch {
	case v == "":
	case strings.HasPrefix(string(types.SortAscending), v):
		return types.SortAscending, nil
	case strings.HasPrefix(string(types.SortDescending), v):
		return types.SortDescending, nil
	}
	return "", &InvalidOptionError{
		Option: string(OptSortOrder),
		Value:  value,
		Reason: "choose one of " + quoteAll([]string{"ascending", "descending"}),
	}
}

// ParseMaxResults accepts an integer in 1..MaxResultsLimit.
func ParseMaxResults(value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, &InvalidOptionError{Option: string(OptMax), Value: value, Reason: "not an integer"}
	}
	if n <= 0 {
		return 0, &InvalidOptionError{Option: string(OptMax), Value: value, Reason: "must be greater than 0"}
	}
	if n > MaxResultsLimit {
		return 0, &InvalidOptionError{Option: string(OptMax), Value: value, Reason: "must be at most " + strconv.Itoa(MaxResultsLimit)}
	}
	return n, nil
}

// Apply validates value and stores it in s. On error s is unchanged.
func (s *Settings) Apply(name Option, value string) error {
	switch name {
	case OptMax:
		n, err := ParseMaxResults(value)
		if err != nil {
			return err
		}
		s.MaxResults = n
	case OptSortField:
		f, err := ParseSortField(value)
		if err != nil {
			return err
		}
		s.SortField = f
	case OptSortOrder:
		o, err := ParseSortOrder(value)
		if err != nil {
			return err
		}
		s.SortOrder = o
	case OptModel:
		m := strings.TrimSpace(value)
		if m == "" {
			return &InvalidOptionError{Option: string(OptModel), Value: value, Reason: "model name cannot be empty"}
		}
		s.Model = m
	default:
		return &InvalidOptionError{Value: string(name)}
	}
	return nil
}
