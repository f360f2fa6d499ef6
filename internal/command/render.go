// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package command

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/pdiddy/arxiv-assistant/internal/acquire"
	"github.com/pdiddy/arxiv-assistant/internal/session"
	"github.com/pdiddy/arxiv-assistant/pkg/types"
)

const (
	wrapWidth     = 78
	abstractLimit = 400
	dateLayout    = "2006-01-02"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	indexStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	titleStyle  = lipgloss.NewStyle().Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
)

// Renderer formats markdown for display. A nil Renderer prints text as is.
type Renderer interface {
	Render(markdown string) (string, error)
}

// renderPage prints the header, every result on the page, and an
// end-of-results note when the API has nothing further.
func renderPage(w io.Writer, p *types.ResultPage) {
	first := p.Start + 1
	last := p.Start + p.Len()
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("--- Results %d-%d of %d ---", first, last, p.TotalResults)))
	for _, r := range p.Results {
		fmt.Fprintln(w)
		renderResult(w, r)
	}
	fmt.Fprintln(w)
	if !p.HasMore() {
		fmt.Fprintln(w, mutedStyle.Render("Reached end of results."))
	}
}

func renderResult(w io.Writer, r types.SearchResult) {
	head := indexStyle.Render(fmt.Sprintf("[%d]", r.Index)) + " " + r.ArxivID
	if r.PrimaryCategory != "" {
		head += " (" + r.PrimaryCategory + ")"
	}
	fmt.Fprintln(w, head)
	fmt.Fprintln(w, indent.String(titleStyle.Render(wordwrap.String(r.Title, wrapWidth-4)), 4))

	field := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(w, "    %s %s\n", labelStyle.Render(label+":"), value)
	}
	field("Authors", authorLine(r.Authors))
	field("Published", formatDate(r))
	if len(r.Categories) > 1 {
		field("Categories", strings.Join(r.Categories, ", "))
	}
	field("DOI", r.DOI)
	field("Journal", r.JournalRef)
	field("Abstract page", r.AbsURL)
	field("PDF", r.PDFURL)

	if abs := strings.Join(strings.Fields(r.Abstract), " "); abs != "" {
		abs = truncate.StringWithTail(abs, abstractLimit, "...")
		fmt.Fprintln(w, indent.String(wordwrap.String(abs, wrapWidth-4), 4))
	}
}

func authorLine(authors []string) string {
	const shown = 5
	if len(authors) > shown {
		return strings.Join(authors[:shown], ", ") + fmt.Sprintf(", et al. (%d authors)", len(authors))
	}
	return strings.Join(authors, ", ")
}

func formatDate(r types.SearchResult) string {
	if r.Published.IsZero() {
		return ""
	}
	s := r.Published.Format(dateLayout)
	if !r.Updated.IsZero() && r.Updated.Format(dateLayout) != s {
		s += " (updated " + r.Updated.Format(dateLayout) + ")"
	}
	return s
}

func renderRelated(w io.Writer, source types.SearchResult, papers []types.RelatedPaper) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("--- Related to [%d] %s ---", source.Index, oneLine(source.Title))))
	for i, p := range papers {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s %s\n", indexStyle.Render(fmt.Sprintf("%d.", i+1)), titleStyle.Render(p.Title))
		var meta []string
		if p.PublicationInfo != "" {
			meta = append(meta, p.PublicationInfo)
		}
		if p.Year > 0 && !strings.Contains(p.PublicationInfo, fmt.Sprint(p.Year)) {
			meta = append(meta, fmt.Sprint(p.Year))
		}
		if p.CitedBy > 0 {
			meta = append(meta, fmt.Sprintf("cited by %d", p.CitedBy))
		}
		if len(meta) > 0 {
			fmt.Fprintln(w, "   "+labelStyle.Render(strings.Join(meta, " | ")))
		}
		if p.Link != "" {
			fmt.Fprintln(w, "   "+p.Link)
		}
		if p.Snippet != "" {
			fmt.Fprintln(w, indent.String(wordwrap.String(p.Snippet, wrapWidth-3), 3))
		}
	}
}

func renderDownloads(w io.Writer, entries []types.DownloadEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No papers downloaded in this session.")
		return
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("--- Downloads (%d) ---", len(entries))))
	for _, e := range entries {
		status := okStyle.Render("[OK]")
		detail := ""
		if !acquire.Exists(e.LocalPath) {
			status = errorStyle.Render("[Missing!]")
		} else if info, err := acquire.Inspect(e.LocalPath); err != nil {
			detail = fmt.Sprintf("%s, unreadable", acquire.HumanSize(info.Size))
		} else {
			detail = fmt.Sprintf("%d pages, %s", info.Pages, acquire.HumanSize(info.Size))
		}
		fmt.Fprintf(w, "%s %s\n", status, e.ArxivID)
		fmt.Fprintf(w, "    %s %s\n", labelStyle.Render("Path:"), e.LocalPath)
		if detail != "" {
			fmt.Fprintf(w, "    %s %s\n", labelStyle.Render("File:"), detail)
		}
		fmt.Fprintf(w, "    %s %s\n", labelStyle.Render("Source:"), e.Source)
	}
}

func renderSettings(w io.Writer, s session.Settings, provider types.AIProvider) {
	fmt.Fprintf(w, "%s %d\n", labelStyle.Render("Max results:"), s.MaxResults)
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Sort by:    "), s.SortField)
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Sort order: "), s.SortOrder)
	renderModel(w, s.Model, provider)
}

func renderModel(w io.Writer, model string, provider types.AIProvider) {
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Model:      "), model)
	if provider != "" {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Provider:   "), provider)
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
