// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package related finds work related to an arXiv paper. Keywords come from
// the AI provider when one is available and from the title otherwise; a
// sequence of progressively broader scholar queries is tried until one
// returns hits other than the paper itself.
package related

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/pdiddy/arxiv-assistant/pkg/types"
)

// MaxResults caps the number of related papers returned.
const MaxResults = 5

// titlePrefixLen is how much of a title is compared when filtering out the
// source paper.
const titlePrefixLen = 30

// Searcher runs one scholar query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]types.RelatedPaper, error)
}

// KeywordSource extracts search keywords from a paper's title and abstract.
type KeywordSource interface {
	Keywords(ctx context.Context, model, title, abstract string) ([]string, error)
}

// Finder builds scholar queries for a paper and filters the hits.
type Finder struct {
	Searcher Searcher
	Keywords KeywordSource // nil uses title keywords only
	Progress io.Writer
}

// Find returns up to MaxResults papers related to r. An empty result with a
// nil error means every strategy came back empty.
func (f *Finder) Find(ctx context.Context, model string, r types.SearchResult) ([]types.RelatedPaper, error) {
	title := strings.Join(strings.Fields(r.Title), " ")
	if title == "" {
		return nil, fmt.Errorf("paper %s has no title to search with", r.ArxivID)
	}

	keywords := f.keywords(ctx, model, title, r.Abstract)
	f.printf("keywords: %s\n", strings.Join(keywords, ", "))

	queries := Strategies(title, keywords, r.Authors)
	for i, q := range queries {
		f.printf("searching (%d/%d): %s\n", i+1, len(queries), q)
		hits, err := f.Searcher.Search(ctx, q)
		if err != nil {
			return nil, err
		}
		if found := Filter(hits, title); len(found) > 0 {
			return found, nil
		}
	}
	return nil, nil
}

func (f *Finder) keywords(ctx context.Context, model, title, abstract string) []string {
	if f.Keywords != nil {
		kw, err := f.Keywords.Keywords(ctx, model, title, abstract)
		if err == nil && len(kw) > 0 {
			return kw
		}
		if err != nil {
			f.printf("keyword extraction failed, using title words: %v\n", err)
		}
	}
	return TitleKeywords(title)
}

// Strategies returns the queries to try in order: the top three keywords
// quoted and excluding the title's opening words, then the first keyword
// alone, then the title itself. Every query excludes the first two authors
// by last name. Duplicate queries are dropped.
func Strategies(title string, keywords, authors []string) []string {
	exclude := authorFilter(authors)

	var queries []string
	add := func(q string) {
		q = strings.TrimSpace(q)
		for _, seen := range queries {
			if seen == q {
				return
			}
		}
		if q != "" {
			queries = append(queries, q)
		}
	}

	if len(keywords) >= 2 {
		q := quoteTerms(keywords[:min(3, len(keywords))]) + exclude
		if lead := leadingWords(title, 3); lead != "" {
			q += fmt.Sprintf(` -intitle:"%s"`, lead)
		}
		add(q)
	}
	if len(keywords) > 0 {
		add(quoteTerms(keywords[:1]) + exclude)
	}
	add(title + exclude)
	return queries
}

// Filter drops hits that look like the source paper and caps the list.
func Filter(hits []types.RelatedPaper, title string) []types.RelatedPaper {
	var out []types.RelatedPaper
	for _, h := range hits {
		if h.Title == "" || samePaper(title, h.Title) {
			continue
		}
		out = append(out, h)
		if len(out) == MaxResults {
			break
		}
	}
	return out
}

// samePaper reports whether either title starts with the other's first
// titlePrefixLen characters, case-insensitively.
func samePaper(a, b string) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	return strings.HasPrefix(a, prefix(b, titlePrefixLen)) || strings.HasPrefix(b, prefix(a, titlePrefixLen))
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}

var (
	inlineMath = regexp.MustCompile(`\$[^$]*\$`)
	wordRe     = regexp.MustCompile(`[A-Za-z][A-Za-z-]+`)
)

var stopwords = map[string]bool{
	"about": true, "across": true, "after": true, "against": true, "among": true,
	"based": true, "between": true, "beyond": true, "from": true, "into": true,
	"more": true, "than": true, "that": true, "their": true, "these": true,
	"this": true, "through": true, "towards": true, "toward": true, "under": true,
	"using": true, "very": true, "what": true, "when": true, "where": true,
	"which": true, "while": true, "with": true, "within": true, "without": true,
	"your": true, "does": true, "over": true, "via": true, "study": true,
}

// TitleKeywords picks up to five distinct title words of four or more
// letters that are not stopwords. Inline TeX is ignored.
func TitleKeywords(title string) []string {
	clean := inlineMath.ReplaceAllString(title, " ")
	seen := map[string]bool{}
	var out []string
	for _, w := range wordRe.FindAllString(clean, -1) {
		lw := strings.ToLower(w)
		if len(w) < 4 || stopwords[lw] || seen[lw] {
			continue
		}
		seen[lw] = true
		out = append(out, w)
		if len(out) == 5 {
			break
		}
	}
	return out
}

func authorFilter(authors []string) string {
	var b strings.Builder
	for _, a := range authors[:min(2, len(authors))] {
		fields := strings.Fields(a)
		if len(fields) == 0 {
			continue
		}
		b.WriteString(" -")
		b.WriteString(fields[len(fields)-1])
	}
	return b.String()
}

func quoteTerms(terms []string) string {
	q := make([]string, len(terms))
	for i, t := range terms {
		if strings.ContainsAny(t, " \t") {
			q[i] = `"` + t + `"`
		} else {
			q[i] = t
		}
	}
	return strings.Join(q, " ")
}

func leadingWords(s string, n int) string {
	f := strings.Fields(s)
	return strings.Join(f[:min(n, len(f))], " ")
}

func (f *Finder) printf(format string, args ...any) {
	if f.Progress != nil {
		fmt.Fprintf(f.Progress, format, args...)
	}
}
