// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package command parses interactive input lines and executes them against a
// session. The REPL and batch mode share one Dispatcher, so both surfaces
// report errors and render results identically.
package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/arxiv-assistant/internal/ai"
	"github.com/pdiddy/arxiv-assistant/internal/cite"
	"github.com/pdiddy/arxiv-assistant/internal/secrets"
	"github.com/pdiddy/arxiv-assistant/internal/session"
	"github.com/pdiddy/arxiv-assistant/pkg/types"
)

// confirmThreshold is the number of downloads above which the user is asked
// before starting.
const confirmThreshold = 20

// Analyzer is the AI analysis collaborator.
type Analyzer interface {
	Provider() types.AIProvider
	Ask(ctx context.Context, model, pdfPath, question string, figures bool) (string, error)
	Summarize(ctx context.Context, model, pdfPath string, style ai.SummaryStyle) (string, error)
	Extract(ctx context.Context, model, pdfPath string, kind ai.ExtractKind) (string, error)
	Compare(ctx context.Context, model string, papers []ai.Paper, kind ai.CompareKind) (string, error)
}

// RelatedFinder is the related-work collaborator.
type RelatedFinder interface {
	Find(ctx context.Context, model string, r types.SearchResult) ([]types.RelatedPaper, error)
}

// Dispatcher executes commands against a Session.
type Dispatcher struct {
	Session *session.Session

	// AI answers ask, sum, ext and compare. Nil reports a missing key.
	AI Analyzer

	// Related answers rel. Nil reports a missing Serper key.
	Related RelatedFinder

	Citer cite.Formatter
	Out   io.Writer

	// Markdown renders AI answers. Nil prints them as returned.
	Markdown Renderer

	// Prompt reads a line from the user. Nil means input is not
	// interactive, so a bare "q" is an argument error.
	Prompt func(label string) (string, error)

	// Confirm asks a yes/no question. Nil answers yes.
	Confirm func(question string) bool
}

// Execute parses and runs one line. Failures are printed as a single
// "Error: ..." line and also returned; ErrQuit is returned silently.
func (d *Dispatcher) Execute(ctx context.Context, line string) error {
	cmd, err := Parse(line)
	if err == nil && cmd != nil {
		err = d.run(ctx, cmd)
	}
	if err != nil && !errors.Is(err, ErrQuit) {
		d.printError(err)
	}
	return err
}

// ExecuteCommand runs an already parsed command with the same error
// reporting as Execute.
func (d *Dispatcher) ExecuteCommand(ctx context.Context, cmd Command) error {
	err := d.run(ctx, cmd)
	if err != nil && !errors.Is(err, ErrQuit) {
		d.printError(err)
	}
	return err
}

func (d *Dispatcher) run(ctx context.Context, cmd Command) error {
	switch c := cmd.(type) {
	case QueryCmd:
		return d.query(ctx, c)
	case NextCmd:
		page, err := d.Session.NextPage(ctx)
		if err != nil {
			return err
		}
		renderPage(d.Out, page)
		return nil
	case DownloadCmd:
		return d.download(ctx, c)
	case AskCmd:
		return d.ask(ctx, c)
	case SummarizeCmd:
		return d.analyzeOne(ctx, c.Index, fmt.Sprintf("Summarizing (%s)", c.Style), func(an Analyzer, model, path string) (string, error) {
			return an.Summarize(ctx, model, path, c.Style)
		})
	case ExtractCmd:
		return d.analyzeOne(ctx, c.Index, fmt.Sprintf("Extracting %s from", c.Kind), func(an Analyzer, model, path string) (string, error) {
			out, err := an.Extract(ctx, model, path, c.Kind)
			if err != nil {
				return "", err
			}
			return "```json\n" + out + "\n```", nil
		})
	case CompareCmd:
		return d.compare(ctx, c)
	case RelatedCmd:
		return d.related(ctx, c)
	case CiteCmd:
		r, err := d.Session.ResolveOne(c.Index)
		if err != nil {
			return err
		}
		text, err := d.Citer.Format(r, c.Format)
		if err != nil {
			return err
		}
		fmt.Fprintln(d.Out, strings.TrimRight(text, "\n"))
		return nil
	case SetCmd:
		return d.set(c)
	case ShowCmd:
		d.show(c)
		return nil
	case HelpCmd:
		renderHelp(d.Out)
		return nil
	case QuitCmd:
		return ErrQuit
	default:
		return &UnknownCommandError{Keyword: cmd.keyword()}
	}
}

func (d *Dispatcher) query(ctx context.Context, c QueryCmd) error {
	q := c.Query
	if q == "" {
		if d.Prompt == nil {
			return &ArgumentParseError{Command: "q", Reason: "missing query"}
		}
		var err error
		if q, err = d.Prompt("Search query: "); err != nil {
			return err
		}
	}
	page, err := d.Session.NewQueryFrom(ctx, q, c.Start)
	if err != nil {
		return err
	}
	renderPage(d.Out, page)
	return nil
}

// download fetches each index on its own, reporting every outcome.
func (d *Dispatcher) download(ctx context.Context, c DownloadCmd) error {
	if len(c.Indices) > confirmThreshold && d.Confirm != nil &&
		!d.Confirm(fmt.Sprintf("Download %d papers?", len(c.Indices))) {
		fmt.Fprintln(d.Out, "Download cancelled.")
		return nil
	}

	var failed []int
	for _, i := range c.Indices {
		path, err := d.ensure(ctx, i)
		if err != nil {
			fmt.Fprintf(d.Out, "[%d] %s\n", i, errorStyle.Render(err.Error()))
			failed = append(failed, i)
			continue
		}
		fmt.Fprintf(d.Out, "[%d] %s %s\n", i, okStyle.Render("[OK]"), path)
	}

	fmt.Fprintf(d.Out, "%d of %d downloaded.\n", len(c.Indices)-len(failed), len(c.Indices))
	if len(failed) > 0 {
		return &BatchError{Command: "download", Failed: failed}
	}
	return nil
}

// ensure resolves one index and makes sure its PDF is on disk.
func (d *Dispatcher) ensure(ctx context.Context, index int) (string, error) {
	r, err := d.Session.ResolveOne(index)
	if err != nil {
		return "", err
	}
	return d.Session.Downloads.EnsureDownloaded(ctx, r.ArxivID, r.PDFURL)
}

func (d *Dispatcher) ask(ctx context.Context, c AskCmd) error {
	verb := "Asking about"
	if c.Figures {
		verb = "Asking about the figures in"
	}
	return d.analyzeOne(ctx, c.Index, verb, func(an Analyzer, model, path string) (string, error) {
		return an.Ask(ctx, model, path, c.Question, c.Figures)
	})
}

// analyzeOne runs fn on the PDF of one result and renders its answer.
func (d *Dispatcher) analyzeOne(ctx context.Context, index int, verb string, fn func(an Analyzer, model, path string) (string, error)) error {
	an, err := d.analyzer()
	if err != nil {
		return err
	}
	r, err := d.Session.ResolveOne(index)
	if err != nil {
		return err
	}
	path, err := d.Session.Downloads.EnsureDownloaded(ctx, r.ArxivID, r.PDFURL)
	if err != nil {
		return err
	}

	model := d.Session.Settings().Model
	fmt.Fprintf(d.Out, "%s [%d] %s with %s...\n", verb, index, oneLine(r.Title), model)
	answer, err := fn(an, model, path)
	if err != nil {
		return &session.CollaboratorError{Service: string(an.Provider()), Err: err}
	}
	d.Session.Downloads.MarkUploaded(r.ArxivID)
	d.printMarkdown(answer)
	return nil
}

// compare resolves every index before downloading anything and calls the
// AI only once all PDFs are present.
func (d *Dispatcher) compare(ctx context.Context, c CompareCmd) error {
	an, err := d.analyzer()
	if err != nil {
		return err
	}
	results, err := d.Session.Resolve(c.Indices)
	if err != nil {
		return err
	}

	papers := make([]ai.Paper, len(results))
	var failed []int
	for k, r := range results {
		path, err := d.Session.Downloads.EnsureDownloaded(ctx, r.ArxivID, r.PDFURL)
		if err != nil {
			fmt.Fprintf(d.Out, "[%d] %s\n", c.Indices[k], errorStyle.Render(err.Error()))
			failed = append(failed, c.Indices[k])
			continue
		}
		papers[k] = ai.Paper{Title: r.Title, Path: path}
	}
	if len(failed) > 0 {
		return &BatchError{Command: "compare", Failed: failed}
	}

	model := d.Session.Settings().Model
	fmt.Fprintf(d.Out, "Comparing %d papers (%s) with %s...\n", len(papers), c.Kind, model)
	answer, err := an.Compare(ctx, model, papers, c.Kind)
	if err != nil {
		return &session.CollaboratorError{Service: string(an.Provider()), Err: err}
	}
	for _, r := range results {
		d.Session.Downloads.MarkUploaded(r.ArxivID)
	}
	d.printMarkdown(answer)
	return nil
}

func (d *Dispatcher) related(ctx context.Context, c RelatedCmd) error {
	r, err := d.Session.ResolveOne(c.Index)
	if err != nil {
		return err
	}
	if d.Related == nil {
		return &secrets.MissingCredentialError{Credential: secrets.SerperAPIKey}
	}

	papers, err := d.Related.Find(ctx, d.Session.Settings().Model, r)
	if err != nil {
		return &session.CollaboratorError{Service: "serper", Err: err}
	}
	if len(papers) == 0 {
		fmt.Fprintf(d.Out, "No related papers found for [%d].\n", c.Index)
		return nil
	}
	renderRelated(d.Out, r, papers)
	return nil
}

func (d *Dispatcher) set(c SetCmd) error {
	var err error
	switch c.Name {
	case "sort":
		err = d.Session.SetSort(c.Values[0], c.Values[1])
	case "model":
		err = d.Session.SetOption(session.OptModel, strings.Join(c.Values, " "))
	default:
		if len(c.Values) != 1 {
			return &ArgumentParseError{Command: "set", Token: strings.Join(c.Values, " "), Reason: "expected a single value"}
		}
		err = d.Session.SetOption(session.Option(c.Name), c.Values[0])
	}
	if err != nil {
		return err
	}

	s := d.Session.Settings()
	switch c.Name {
	case "sort", string(session.OptSortField), string(session.OptSortOrder):
		fmt.Fprintf(d.Out, "Sort set to %s %s.\n", s.SortField, s.SortOrder)
	case string(session.OptMax):
		fmt.Fprintf(d.Out, "Max results set to %d.\n", s.MaxResults)
	case string(session.OptModel):
		fmt.Fprintf(d.Out, "Model set to %s.\n", s.Model)
	}
	return nil
}

func (d *Dispatcher) show(c ShowCmd) {
	switch c.What {
	case ShowDownloads:
		renderDownloads(d.Out, d.Session.Downloads.List())
	case ShowModel:
		renderModel(d.Out, d.Session.Settings().Model, d.provider())
	case ShowSettings:
		renderSettings(d.Out, d.Session.Settings(), d.provider())
	}
}

func (d *Dispatcher) analyzer() (Analyzer, error) {
	if d.AI == nil {
		return nil, &secrets.MissingCredentialError{Credential: secrets.GeminiAPIKey}
	}
	return d.AI, nil
}

func (d *Dispatcher) provider() types.AIProvider {
	if d.AI == nil {
		return ""
	}
	return d.AI.Provider()
}

func (d *Dispatcher) printMarkdown(md string) {
	fmt.Fprintln(d.Out)
	if d.Markdown != nil {
		if out, err := d.Markdown.Render(md); err == nil {
			fmt.Fprint(d.Out, out)
			return
		}
	}
	fmt.Fprintln(d.Out, strings.TrimRight(md, "\n"))
}

func (d *Dispatcher) printError(err error) {
	fmt.Fprintln(d.Out, errorStyle.Render("Error: "+oneLine(err.Error())))
}
