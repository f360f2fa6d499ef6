// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package command

import (
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/arxiv-assistant/internal/ai"
	"github.com/pdiddy/arxiv-assistant/internal/cite"
)

// usage holds the one-line synopsis of each command, shown with argument
// errors and in help.
var usage = map[string]string{
	"q":        "q [QUERY]",
	"n":        "n",
	"download": "download N[,M,...]",
	"ask":      `ask N "QUESTION"`,
	"ask_fig":  `ask_fig N "QUESTION"`,
	"sum":      "sum N [STYLE]",
	"ext":      "ext N TYPE",
	"compare":  "compare N1,N2[,...] [TYPE]",
	"rel":      "rel N",
	"cite":     "cite N [FORMAT]",
	"set":      "set max N | set sort FIELD ORDER | set model NAME",
	"show":     "show downloads|model|settings",
}

type helpEntry struct {
	keyword string
	text    string
}

func helpEntries() []helpEntry {
	return []helpEntry{
		{"q", "Search arXiv. Without a query you are prompted for one."},
		{"n", "Show the next page of results."},
		{"download", "Download the PDFs of the listed results. Alias: d."},
		{"ask", "Ask a question about one paper."},
		{"ask_fig", "Ask about the figures and tables of one paper."},
		{"sum", "Summarize one paper. Styles: " + joinEnum(ai.SummaryStyles) + " (default " + string(ai.SummaryDefault) + ")."},
		{"ext", "Extract structured data. Types: " + joinEnum(ai.ExtractKinds) + "."},
		{"compare", "Compare two or more papers. Types: " + joinEnum(ai.CompareKinds) + " (default " + string(ai.CompareGeneral) + ")."},
		{"rel", "Find related work on Google Scholar (needs SERPER_API_KEY)."},
		{"cite", "Print a citation. Formats: " + joinEnum(cite.Formats) + " (default " + string(cite.BibTeX) + ")."},
		{"set", "Change page size (1-2000), sort (relevance|lastUpdatedDate|submittedDate, ascending|descending) or model."},
		{"show", "Show downloaded papers, the current model, or all settings."},
	}
}

func renderHelp(w io.Writer) {
	fmt.Fprintln(w, headerStyle.Render("Commands"))
	for _, e := range helpEntries() {
		fmt.Fprintf(w, "  %s\n", indexStyle.Render(usage[e.keyword]))
		fmt.Fprintf(w, "      %s\n", e.text)
	}
	fmt.Fprintf(w, "  %s\n      %s\n", indexStyle.Render("help, ?"), "Show this reference.")
	fmt.Fprintf(w, "  %s\n      %s\n", indexStyle.Render("quit, exit"), "Leave the assistant.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, mutedStyle.Render("Result numbers refer to the page currently displayed."))
}

func joinEnum[T ~string](values []T) string {
	s := make([]string, len(values))
	for i, v := range values {
		s[i] = string(v)
	}
	return strings.Join(s, ", ")
}
