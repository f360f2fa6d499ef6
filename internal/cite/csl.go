// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cite

import (
	"bytes"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/arxiv-assistant/internal/arxiv"
	"github.com/pdiddy/arxiv-assistant/pkg/types"
)

// CSLItem represents a bibliographic entry in CSL (Citation Style Language)
// format. The field names follow the CSL-YAML schema so that output is
// consumable by Pandoc and reference managers.
type CSLItem struct {
	ID             string    `yaml:"id"`
	Type           string    `yaml:"type"`
	Title          string    `yaml:"title"`
	Author         []CSLName `yaml:"author,omitempty"`
	Abstract       string    `yaml:"abstract,omitempty"`
	Issued         *CSLDate  `yaml:"issued,omitempty"`
	DOI            string    `yaml:"DOI,omitempty"`
	URL            string    `yaml:"URL,omitempty"`
	Number         string    `yaml:"number,omitempty"`
	Publisher      string    `yaml:"publisher,omitempty"`
	ContainerTitle string    `yaml:"container-title,omitempty"`
}

// CSLName represents a person's name in CSL format.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate represents a date in CSL format using date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// FormatCSL renders results as a CSL-YAML list.
func FormatCSL(results []types.SearchResult) (string, error) {
	items := make([]CSLItem, len(results))
	for i, r := range results {
		items[i] = toCSLItem(r)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(items); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// toCSLItem converts a search result. Preprints are typed "article" with the
// arXiv id as number; a journal reference becomes the container title.
func toCSLItem(r types.SearchResult) CSLItem {
	item := CSLItem{
		ID:             "arxiv:" + arxiv.BaseID(r.ArxivID),
		Type:           "article",
		Title:          oneLine(r.Title),
		Abstract:       oneLine(r.Abstract),
		DOI:            r.DOI,
		URL:            r.AbsURL,
		Number:         r.ArxivID,
		Publisher:      "arXiv",
		ContainerTitle: r.JournalRef,
	}
	if r.JournalRef != "" {
		item.Type = "article-journal"
	}

	for _, a := range r.Authors {
		item.Author = append(item.Author, parseAuthorName(a))
	}

	if !r.Published.IsZero() {
		item.Issued = &CSLDate{
			DateParts: [][]int{{r.Published.Year(), int(r.Published.Month()), r.Published.Day()}},
		}
	}
	return item
}

// parseAuthorName splits a full name string into CSL family/given parts.
// It splits on the last space: everything before is given, the last token
// is family. Single-token names use the literal field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  strings.TrimSpace(name[:idx]),
		Family: name[idx+1:],
	}
}
