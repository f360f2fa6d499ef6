// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package command

import (
	"strconv"
	"strings"

	"github.com/pdiddy/arxiv-assistant/internal/ai"
	"github.com/pdiddy/arxiv-assistant/internal/cite"
)

// Command is one parsed input line. The set of implementations is closed;
// Parse is the only constructor.
type Command interface {
	keyword() string
}

type (
	// QueryCmd starts a new search. An empty Query asks for one
	// interactively. Start is the offset of the first result; the REPL
	// syntax always leaves it at 0.
	QueryCmd struct {
		Query string
		Start int
	}

	// NextCmd fetches the next page.
	NextCmd struct{}

	// DownloadCmd downloads each index independently.
	DownloadCmd struct{ Indices []int }

	// AskCmd asks a question about one paper. Figures selects the
	// figures-and-tables framing (ask_fig).
	AskCmd struct {
		Index    int
		Question string
		Figures  bool
	}

	// SummarizeCmd summarizes one paper.
	SummarizeCmd struct {
		Index int
		Style ai.SummaryStyle
	}

	// ExtractCmd extracts structured data from one paper.
	ExtractCmd struct {
		Index int
		Kind  ai.ExtractKind
	}

	// CompareCmd compares two or more papers.
	CompareCmd struct {
		Indices []int
		Kind    ai.CompareKind
	}

	// RelatedCmd looks up related work for one paper.
	RelatedCmd struct{ Index int }

	// CiteCmd prints a citation for one paper.
	CiteCmd struct {
		Index  int
		Format cite.Format
	}

	// SetCmd changes a setting. Name "sort" carries a field and an order.
	SetCmd struct {
		Name   string
		Values []string
	}

	// ShowCmd prints session information.
	ShowCmd struct{ What string }

	HelpCmd struct{}
	QuitCmd struct{}
)

func (QueryCmd) keyword() string     { return "q" }
func (NextCmd) keyword() string      { return "n" }
func (DownloadCmd) keyword() string  { return "download" }
func (SummarizeCmd) keyword() string { return "sum" }
func (ExtractCmd) keyword() string   { return "ext" }
func (CompareCmd) keyword() string   { return "compare" }
func (RelatedCmd) keyword() string   { return "rel" }
func (CiteCmd) keyword() string      { return "cite" }
func (SetCmd) keyword() string       { return "set" }
func (ShowCmd) keyword() string      { return "show" }
func (HelpCmd) keyword() string      { return "help" }
func (QuitCmd) keyword() string      { return "quit" }

func (c AskCmd) keyword() string {
	if c.Figures {
		return "ask_fig"
	}
	return "ask"
}

// Show subjects.
const (
	ShowDownloads = "downloads"
	ShowModel     = "model"
	ShowSettings  = "settings"
)

// Parse turns an input line into a Command. A blank line yields a nil
// Command and a nil error. Enumerated arguments are validated here so that
// malformed input never reaches the session.
func Parse(line string) (Command, error) {
	keyword, rest := splitWord(strings.TrimSpace(line))
	if keyword == "" {
		return nil, nil
	}
	kw := strings.ToLower(keyword)

	switch kw {
	case "q":
		return QueryCmd{Query: unquote(rest)}, nil
	case "n":
		return NextCmd{}, nil
	case "download", "d":
		kw = "download"
		if rest == "" {
			return nil, &ArgumentParseError{Command: kw, Reason: "missing result numbers"}
		}
		idx, err := parseIndexList(kw, rest)
		if err != nil {
			return nil, err
		}
		return DownloadCmd{Indices: idx}, nil
	case "ask", "ask_fig":
		return parseAsk(kw, rest)
	case "sum":
		n, tail, err := leadingIndex(kw, rest)
		if err != nil {
			return nil, err
		}
		style := ai.SummaryDefault
		if tail != "" {
			if style, err = ai.ParseSummaryStyle(tail); err != nil {
				return nil, &ArgumentParseError{Command: kw, Token: tail, Reason: reason(err)}
			}
		}
		return SummarizeCmd{Index: n, Style: style}, nil
	case "ext":
		n, tail, err := leadingIndex(kw, rest)
		if err != nil {
			return nil, err
		}
		if tail == "" {
			return nil, &ArgumentParseError{Command: kw, Reason: "missing extraction type (methods, conclusion, datasets)"}
		}
		kind, err := ai.ParseExtractKind(tail)
		if err != nil {
			return nil, &ArgumentParseError{Command: kw, Token: tail, Reason: reason(err)}
		}
		return ExtractCmd{Index: n, Kind: kind}, nil
	case "compare":
		return parseCompare(kw, rest)
	case "rel":
		n, tail, err := leadingIndex(kw, rest)
		if err != nil {
			return nil, err
		}
		if tail != "" {
			return nil, &ArgumentParseError{Command: kw, Token: tail, Reason: "unexpected argument"}
		}
		return RelatedCmd{Index: n}, nil
	case "cite":
		n, tail, err := leadingIndex(kw, rest)
		if err != nil {
			return nil, err
		}
		format := cite.BibTeX
		if tail != "" {
			if format, err = cite.ParseFormat(tail); err != nil {
				return nil, &ArgumentParseError{Command: kw, Token: tail, Reason: reason(err)}
			}
		}
		return CiteCmd{Index: n, Format: format}, nil
	case "set":
		return parseSet(kw, rest)
	case "show":
		what := strings.ToLower(strings.TrimSpace(rest))
		switch what {
		case ShowDownloads, ShowModel, ShowSettings:
			return ShowCmd{What: what}, nil
		case "":
			return nil, &ArgumentParseError{Command: kw, Reason: "missing subject"}
		default:
			return nil, &ArgumentParseError{Command: kw, Token: rest, Reason: "expected downloads, model or settings"}
		}
	case "help", "?":
		return HelpCmd{}, nil
	case "quit", "exit":
		return QuitCmd{}, nil
	default:
		return nil, &UnknownCommandError{Keyword: keyword}
	}
}

func parseAsk(kw, rest string) (Command, error) {
	n, tail, err := leadingIndex(kw, rest)
	if err != nil {
		return nil, err
	}
	q := unquote(tail)
	if q == "" {
		return nil, &ArgumentParseError{Command: kw, Reason: "missing question"}
	}
	return AskCmd{Index: n, Question: q, Figures: kw == "ask_fig"}, nil
}

// parseCompare splits "1, 2,3 methods" into the index list and an optional
// trailing comparison type.
func parseCompare(kw, rest string) (Command, error) {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return nil, &ArgumentParseError{Command: kw, Reason: "missing result numbers"}
	}

	kind := ai.CompareGeneral
	if n := len(fields); n > 1 {
		last := fields[n-1]
		_, numErr := strconv.Atoi(last)
		if numErr != nil && !strings.HasSuffix(fields[n-2], ",") && !strings.HasPrefix(last, ",") {
			k, err := ai.ParseCompareKind(last)
			if err != nil {
				return nil, &ArgumentParseError{Command: kw, Token: last, Reason: reason(err)}
			}
			kind = k
			fields = fields[:n-1]
		}
	}

	idx, err := parseIndexList(kw, strings.Join(fields, " "))
	if err != nil {
		return nil, err
	}
	if len(idx) < 2 {
		return nil, &ArgumentParseError{Command: kw, Reason: "need at least two result numbers"}
	}
	return CompareCmd{Indices: idx, Kind: kind}, nil
}

func parseSet(kw, rest string) (Command, error) {
	name, tail := splitWord(rest)
	if name == "" {
		return nil, &ArgumentParseError{Command: kw, Reason: "missing setting name"}
	}
	name = strings.ToLower(name)
	values := strings.Fields(tail)

	switch {
	case name == "sort" && len(values) != 2:
		return nil, &ArgumentParseError{Command: kw, Token: tail, Reason: "expected a sort field and an order"}
	case len(values) == 0:
		return nil, &ArgumentParseError{Command: kw, Reason: "missing value for " + name}
	}
	return SetCmd{Name: name, Values: values}, nil
}

// parseIndexList parses comma-separated integers. Spaces around commas are
// allowed; an empty or non-integer token fails the whole list.
func parseIndexList(kw, s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		tok := strings.TrimSpace(p)
		if tok == "" {
			return nil, &ArgumentParseError{Command: kw, Token: s, Reason: "empty entry in list"}
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, &ArgumentParseError{Command: kw, Token: tok, Reason: "not an integer"}
		}
		out = append(out, n)
	}
	return out, nil
}

// leadingIndex parses the first word of s as a result number and returns
// the trimmed remainder.
func leadingIndex(kw, s string) (int, string, error) {
	first, tail := splitWord(s)
	if first == "" {
		return 0, "", &ArgumentParseError{Command: kw, Reason: "missing result number"}
	}
	n, err := strconv.Atoi(first)
	if err != nil {
		return 0, "", &ArgumentParseError{Command: kw, Token: first, Reason: "not an integer"}
	}
	return n, tail, nil
}

// splitWord returns the first whitespace-delimited word of s and the
// trimmed remainder.
func splitWord(s string) (string, string) {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}

// unquote trims s and removes one pair of surrounding double quotes.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// reason strips the redundant prefix from an enum parse error.
func reason(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, "("); i >= 0 {
		return strings.TrimSuffix(msg[i+1:], ")")
	}
	return msg
}
