// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cite renders arXiv metadata as citation strings. Formatting is
// plain field substitution; it does not check style-guide conformance.
package cite

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/arxiv-assistant/pkg/types"
)

// Format is a citation style.
type Format string

const (
	BibTeX  Format = "bibtex"
	APA     Format = "apa"
	MLA     Format = "mla"
	Chicago Format = "chicago"
	IEEE    Format = "ieee"
	CSL     Format = "csl"
)

// Formats lists the supported styles in display order.
var Formats = []Format{BibTeX, APA, MLA, Chicago, IEEE, CSL}

// ParseFormat matches a style name case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	names := make([]string, len(Formats))
	for i, known := range Formats {
		names[i] = string(known)
	}
	return "", fmt.Errorf("unsupported citation format %q (supported: %s)", s, strings.Join(names, ", "))
}

// abstractLimit caps the abstract embedded in BibTeX entries.
const abstractLimit = 500

// Formatter renders citations. Now supplies the access date used by MLA.
type Formatter struct {
	Now func() time.Time
}

// Format renders r in style f.
func (c Formatter) Format(r types.SearchResult, f Format) (string, error) {
	m := newMeta(r)
	switch f {
	case BibTeX:
		return m.bibtex(), nil
	case APA:
		return m.apa(), nil
	case MLA:
		return m.mla(c.now()), nil
	case Chicago:
		return m.chicago(), nil
	case IEEE:
		return m.ieee(), nil
	case CSL:
		return FormatCSL([]types.SearchResult{r})
	default:
		_, err := ParseFormat(string(f))
		return "", err
	}
}

func (c Formatter) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// meta is the subset of a search result every style draws from.
type meta struct {
	id         string
	title      string
	authors    []string
	year       string
	month      time.Month
	url        string
	doi        string
	journalRef string
	category   string
	abstract   string
}

func newMeta(r types.SearchResult) meta {
	m := meta{
		id:         r.ArxivID,
		title:      oneLine(r.Title),
		authors:    r.Authors,
		url:        r.AbsURL,
		doi:        r.DOI,
		journalRef: r.JournalRef,
		category:   r.PrimaryCategory,
		abstract:   oneLine(r.Abstract),
		year:       "n.d.",
		month:      time.January,
	}
	if m.title == "" {
		m.title = "Unknown Title"
	}
	if m.url == "" && m.id != "" {
		m.url = "https://arxiv.org/abs/" + m.id
	}
	if !r.Published.IsZero() {
		m.year = fmt.Sprint(r.Published.Year())
		m.month = r.Published.Month()
	}
	return m
}

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]`)

func (m meta) bibtex() string {
	authors := "Unknown Author"
	if len(m.authors) > 0 {
		authors = strings.Join(m.authors, " and ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "@article{%s,\n", nonAlnum.ReplaceAllString(m.id, ""))
	field := func(name, value string) {
		fmt.Fprintf(&b, "  %s = {%s},\n", name, value)
	}
	field("title", m.title)
	field("author", authors)
	field("year", m.year)
	field("month", fmt.Sprint(int(m.month)))
	field("eprint", m.id)
	field("archivePrefix", "arXiv")
	field("primaryClass", m.category)
	if m.doi != "" {
		field("doi", m.doi)
	}
	if m.journalRef != "" {
		field("journal", m.journalRef)
	}
	if m.url != "" {
		field("url", m.url)
	}
	if m.abstract != "" {
		field("abstract", truncate(m.abstract, abstractLimit))
	}
	b.WriteString("}")
	return b.String()
}

func (m meta) apa() string {
	s := fmt.Sprintf("%s. (%s). %s.", m.authorList(" & ", "et al."), m.year, m.title)
	if m.journalRef != "" {
		s += " " + m.journalRef + "."
	} else {
		s += " arXiv preprint."
	}
	switch {
	case m.doi != "":
		s += " https://doi.org/" + m.doi
	case m.url != "":
		s += " Retrieved from " + m.url
	}
	return s
}

func (m meta) mla(accessed time.Time) string {
	s := fmt.Sprintf("%s. \"%s.\" arXiv, %s.", m.authorList(" and ", "et al."), m.title, m.year)
	if m.url != "" {
		s += fmt.Sprintf(" %s. Accessed %s.", m.url, accessed.Format("02 Jan. 2006"))
	}
	return s
}

func (m meta) chicago() string {
	authors := "Unknown Author"
	switch len(m.authors) {
	case 0:
	case 1:
		authors = m.authors[0]
	default:
		authors = m.authors[0] + ", et al."
	}
	s := fmt.Sprintf("%s. \"%s.\" %s %s.", authors, m.title, m.month, m.year)
	switch {
	case m.doi != "":
		s += " https://doi.org/" + m.doi + "."
	case m.url != "":
		s += " " + m.url + "."
	}
	return s
}

func (m meta) ieee() string {
	authors := "Unknown Author"
	switch n := len(m.authors); {
	case n == 1:
		authors = m.authors[0]
	case n == 2:
		authors = m.authors[0] + " and " + m.authors[1]
	case n > 2:
		var last []string
		for _, a := range m.authors[:min(3, n)] {
			name := parseAuthorName(a)
			if name.Family != "" {
				last = append(last, name.Family)
			} else {
				last = append(last, name.Literal)
			}
		}
		authors = strings.Join(last, ", ") + " et al."
	}

	s := fmt.Sprintf("%s, \"%s\", ", authors, m.title)
	if m.journalRef != "" {
		s += fmt.Sprintf("%s, %s.", m.journalRef, m.year)
	} else {
		s += fmt.Sprintf("arXiv preprint arXiv:%s, %s.", m.id, m.year)
	}
	if m.doi != "" {
		s += " doi: " + m.doi + "."
	}
	return s
}

// authorList joins one or two authors with sep and abbreviates three or more.
func (m meta) authorList(sep, etAl string) string {
	switch len(m.authors) {
	case 0:
		return "Unknown Author"
	case 1:
		return m.authors[0]
	case 2:
		return m.authors[0] + sep + m.authors[1]
	default:
		return m.authors[0] + " " + etAl
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
