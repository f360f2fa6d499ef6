// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/arxiv-assistant/internal/ai"
	"github.com/pdiddy/arxiv-assistant/internal/secrets"
	"github.com/pdiddy/arxiv-assistant/internal/session"
	"github.com/pdiddy/arxiv-assistant/pkg/types"
)

// --- fakes ---

type fakeSearcher struct {
	total    int
	requests []types.SearchRequest
}

func (f *fakeSearcher) Search(_ context.Context, req types.SearchRequest) (*types.ResultPage, error) {
	f.requests = append(f.requests, req)
	page := &types.ResultPage{Query: req.Query, Start: req.Start, TotalResults: f.total}
	for i := req.Start; i < f.total && i < req.Start+req.MaxResults; i++ {
		page.Results = append(page.Results, types.SearchResult{
			ArxivID:  fmt.Sprintf("2401.%05dv1", i),
			Title:    fmt.Sprintf("Paper %d", i),
			Authors:  []string{"Ada Lovelace", "Alan Turing"},
			Abstract: "An abstract.",
			PDFURL:   fmt.Sprintf("https://arxiv.org/pdf/2401.%05dv1", i),
		})
	}
	return page, nil
}

// fakeFetcher writes a small file per id and fails for ids in fail.
type fakeFetcher struct {
	dir   string
	fail  map[string]bool
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, id, _ string) (string, error) {
	f.calls = append(f.calls, id)
	if f.fail[id] {
		return "", errors.New("HTTP 404")
	}
	path := filepath.Join(f.dir, id+".pdf")
	return path, os.WriteFile(path, []byte("%PDF-1.4 test"), 0o644)
}

type fakeAnalyzer struct {
	calls  []string
	papers []ai.Paper
	err    error
}

func (a *fakeAnalyzer) Provider() types.AIProvider { return types.ProviderGemini }

func (a *fakeAnalyzer) Ask(_ context.Context, model, path, q string, figures bool) (string, error) {
	a.calls = append(a.calls, fmt.Sprintf("ask %s %s %q %v", model, filepath.Base(path), q, figures))
	return "the **answer**", a.err
}

func (a *fakeAnalyzer) Summarize(_ context.Context, _, path string, style ai.SummaryStyle) (string, error) {
	a.calls = append(a.calls, fmt.Sprintf("sum %s %s", filepath.Base(path), style))
	return "a summary", a.err
}

func (a *fakeAnalyzer) Extract(_ context.Context, _, path string, kind ai.ExtractKind) (string, error) {
	a.calls = append(a.calls, fmt.Sprintf("ext %s %s", filepath.Base(path), kind))
	return `{"methods": []}`, a.err
}

func (a *fakeAnalyzer) Compare(_ context.Context, _ string, papers []ai.Paper, kind ai.CompareKind) (string, error) {
	a.calls = append(a.calls, fmt.Sprintf("compare %d %s", len(papers), kind))
	a.papers = papers
	return "comparison", a.err
}

type fakeRelated struct {
	papers []types.RelatedPaper
	err    error
}

func (f fakeRelated) Find(context.Context, string, types.SearchResult) ([]types.RelatedPaper, error) {
	return f.papers, f.err
}

type harness struct {
	d        *Dispatcher
	out      *bytes.Buffer
	searcher *fakeSearcher
	fetcher  *fakeFetcher
	ai       *fakeAnalyzer
}

func newHarness(t *testing.T, total int) *harness {
	t.Helper()
	h := &harness{
		out:      &bytes.Buffer{},
		searcher: &fakeSearcher{total: total},
		fetcher:  &fakeFetcher{dir: t.TempDir(), fail: map[string]bool{}},
		ai:       &fakeAnalyzer{},
	}
	h.d = &Dispatcher{
		Session: session.New(h.searcher, h.fetcher, session.Settings{}),
		AI:      h.ai,
		Out:     h.out,
	}
	return h
}

func (h *harness) run(t *testing.T, lines ...string) error {
	t.Helper()
	var err error
	for _, l := range lines {
		err = h.d.Execute(context.Background(), l)
	}
	return err
}

// --- search and pagination ---

func TestQueryRendersPage(t *testing.T) {
	h := newHarness(t, 25)
	require.NoError(t, h.run(t, "q transformers"))

	out := h.out.String()
	assert.Contains(t, out, "--- Results 1-10 of 25 ---")
	assert.Contains(t, out, "[1] 2401.00000v1")
	assert.Contains(t, out, "[10] 2401.00009v1")
	assert.NotContains(t, out, "Reached end of results.")
}

func TestSetSortThenQuery(t *testing.T) {
	h := newHarness(t, 5)
	require.NoError(t, h.run(t, "set sort date desc", "set max 3", "q transformers"))

	require.Len(t, h.searcher.requests, 1)
	req := h.searcher.requests[0]
	assert.Equal(t, types.SortSubmittedDate, req.SortBy)
	assert.Equal(t, types.SortDescending, req.SortOrder)
	assert.Equal(t, 3, req.MaxResults)
	assert.Equal(t, "transformers", req.Query)
}

func TestNextPage(t *testing.T) {
	h := newHarness(t, 15)
	require.NoError(t, h.run(t, "q x"))
	h.out.Reset()

	require.NoError(t, h.run(t, "n"))
	assert.Contains(t, h.out.String(), "--- Results 11-15 of 15 ---")
	assert.Contains(t, h.out.String(), "[1] 2401.00010v1", "indices restart at 1 on each page")
	assert.Contains(t, h.out.String(), "Reached end of results.")

	err := h.run(t, "n")
	var nm *session.NoMoreResultsError
	assert.ErrorAs(t, err, &nm)
}

func TestQueryPrompt(t *testing.T) {
	h := newHarness(t, 3)
	err := h.run(t, "q")
	var ape *ArgumentParseError
	require.ErrorAs(t, err, &ape, "no prompt means batch mode")

	h.d.Prompt = func(string) (string, error) { return "prompted query", nil }
	require.NoError(t, h.run(t, "q"))
	assert.Equal(t, "prompted query", h.searcher.requests[0].Query)
}

// --- downloads ---

func TestDownloadTwo(t *testing.T) {
	h := newHarness(t, 10)
	require.NoError(t, h.run(t, "q x", "download 3,7"))

	entries := h.d.Session.Downloads.List()
	require.Len(t, entries, 2)
	assert.Equal(t, "2401.00002v1", entries[0].ArxivID)
	assert.Equal(t, "2401.00006v1", entries[1].ArxivID)
	assert.Contains(t, h.out.String(), "2 of 2 downloaded.")
}

func TestDownloadPartialFailure(t *testing.T) {
	h := newHarness(t, 10)
	require.NoError(t, h.run(t, "q x"))
	h.out.Reset()

	err := h.run(t, "download 3,99")
	var be *BatchError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, []int{99}, be.Failed)

	out := h.out.String()
	assert.Contains(t, out, "[3]")
	assert.Contains(t, out, "[OK]")
	assert.Contains(t, out, "index 99 out of range")
	assert.Contains(t, out, "1 of 2 downloaded.")
	assert.Contains(t, out, "Error: download failed for index 99")

	_, ok := h.d.Session.Downloads.Get("2401.00002v1")
	assert.True(t, ok, "index 3 is still downloaded")
}

func TestDownloadIsIdempotent(t *testing.T) {
	h := newHarness(t, 10)
	require.NoError(t, h.run(t, "q x", "download 2", "download 2,2"))
	assert.Len(t, h.fetcher.calls, 1)
	assert.Equal(t, 1, h.d.Session.Downloads.Len())
}

func TestDownloadConfirm(t *testing.T) {
	h := newHarness(t, 30)
	require.NoError(t, h.run(t, "set max 30", "q x"))

	var asked string
	h.d.Confirm = func(q string) bool { asked = q; return false }
	var idx []string
	for i := 1; i <= 21; i++ {
		idx = append(idx, fmt.Sprint(i))
	}
	require.NoError(t, h.run(t, "download "+strings.Join(idx, ",")))
	assert.Equal(t, "Download 21 papers?", asked)
	assert.Empty(t, h.fetcher.calls)
}

// --- AI commands ---

func TestAskDownloadsTransparently(t *testing.T) {
	h := newHarness(t, 5)
	require.NoError(t, h.run(t, "q x", `ask 2 "What is new?"`))

	require.Equal(t, []string{`ask gemini-2.5-pro-exp-03-25 2401.00001v1.pdf "What is new?" false`}, h.ai.calls)
	e, ok := h.d.Session.Downloads.Get("2401.00001v1")
	require.True(t, ok)
	assert.Equal(t, types.SourceUploaded, e.Source)
	assert.Contains(t, h.out.String(), "the **answer**")
}

func TestAnalysisCommands(t *testing.T) {
	h := newHarness(t, 5)
	require.NoError(t, h.run(t, "q x", "ask_fig 1 figure 2?", "sum 1 eli5", "ext 3 datasets"))
	assert.Equal(t, []string{
		`ask gemini-2.5-pro-exp-03-25 2401.00000v1.pdf "figure 2?" true`,
		"sum 2401.00000v1.pdf eli5",
		"ext 2401.00002v1.pdf datasets",
	}, h.ai.calls)
	assert.Contains(t, h.out.String(), "```json")
	assert.Len(t, h.fetcher.calls, 2)
}

func TestMarkdownRenderer(t *testing.T) {
	h := newHarness(t, 5)
	h.d.Markdown = upperRenderer{}
	require.NoError(t, h.run(t, "q x", "sum 1"))
	assert.Contains(t, h.out.String(), "A SUMMARY")
}

type upperRenderer struct{}

func (upperRenderer) Render(md string) (string, error) { return strings.ToUpper(md) + "\n", nil }

func TestAIFailureIsCollaboratorError(t *testing.T) {
	h := newHarness(t, 5)
	h.ai.err = errors.New("quota exceeded")
	err := h.run(t, "q x", "sum 1")

	var ce *session.CollaboratorError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "gemini", ce.Service)
	assert.Contains(t, h.out.String(), "Error: gemini: quota exceeded")

	e, _ := h.d.Session.Downloads.Get("2401.00000v1")
	assert.Equal(t, types.SourceDownloaded, e.Source)
}

func TestNoAIConfigured(t *testing.T) {
	h := newHarness(t, 5)
	h.d.AI = nil
	err := h.run(t, "q x", "sum 1")
	var mc *secrets.MissingCredentialError
	require.ErrorAs(t, err, &mc)
	assert.Empty(t, h.fetcher.calls)
}

func TestCompare(t *testing.T) {
	h := newHarness(t, 5)
	require.NoError(t, h.run(t, "q x", "compare 1, 3 results"))
	assert.Equal(t, []string{"compare 2 results"}, h.ai.calls)
	require.Len(t, h.ai.papers, 2)
	assert.Equal(t, "Paper 0", h.ai.papers[0].Title)
	assert.Equal(t, "Paper 2", h.ai.papers[1].Title)
}

func TestCompareDownloadFailure(t *testing.T) {
	h := newHarness(t, 5)
	h.fetcher.fail["2401.00001v1"] = true
	err := h.run(t, "q x", "compare 1,2,3")

	var be *BatchError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, []int{2}, be.Failed)
	assert.Empty(t, h.ai.calls, "no AI call with a missing paper")
	assert.Equal(t, 2, h.d.Session.Downloads.Len())
}

func TestCompareOutOfRangeDownloadsNothing(t *testing.T) {
	h := newHarness(t, 5)
	err := h.run(t, "q x", "compare 1,9")
	var oor *session.IndexOutOfRangeError
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, 9, oor.Index)
	assert.Empty(t, h.fetcher.calls)
}

// --- metadata commands ---

func TestCiteNeedsNoDownload(t *testing.T) {
	h := newHarness(t, 5)
	require.NoError(t, h.run(t, "q x"))
	h.out.Reset()

	require.NoError(t, h.run(t, "cite 1 bibtex"))
	assert.Contains(t, h.out.String(), "@article{")
	assert.Contains(t, h.out.String(), "Paper 0")
	assert.Empty(t, h.fetcher.calls)
	assert.Zero(t, h.d.Session.Downloads.Len())
}

func TestRelatedWithoutKey(t *testing.T) {
	h := newHarness(t, 5)
	err := h.run(t, "q x", "rel 1")
	var mc *secrets.MissingCredentialError
	require.ErrorAs(t, err, &mc)
	assert.Equal(t, secrets.SerperAPIKey, mc.Credential)
	assert.Contains(t, h.out.String(), "SERPER_API_KEY")

	require.NoError(t, h.run(t, "cite 1"), "session stays usable")
}

func TestRelated(t *testing.T) {
	h := newHarness(t, 5)
	h.d.Related = fakeRelated{papers: []types.RelatedPaper{
		{Title: "Neighbour paper", Link: "https://x/1", Year: 2020, CitedBy: 12},
	}}
	require.NoError(t, h.run(t, "q x", "rel 1"))
	out := h.out.String()
	assert.Contains(t, out, "Related to [1] Paper 0")
	assert.Contains(t, out, "Neighbour paper")
	assert.Contains(t, out, "cited by 12")

	h.d.Related = fakeRelated{}
	require.NoError(t, h.run(t, "rel 2"))
	assert.Contains(t, h.out.String(), "No related papers found for [2].")

	h.d.Related = fakeRelated{err: errors.New("HTTP 403")}
	var ce *session.CollaboratorError
	assert.ErrorAs(t, h.run(t, "rel 2"), &ce)
}

func TestIndexWithoutQuery(t *testing.T) {
	h := newHarness(t, 5)
	err := h.run(t, "cite 1")
	var oor *session.IndexOutOfRangeError
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, 0, oor.Size)
}

// --- settings and misc ---

func TestSetErrors(t *testing.T) {
	h := newHarness(t, 5)
	var ioe *session.InvalidOptionError
	assert.ErrorAs(t, h.run(t, "set max 0"), &ioe)
	assert.ErrorAs(t, h.run(t, "set sort sideways desc"), &ioe)
	assert.ErrorAs(t, h.run(t, "set colour blue"), &ioe)
	assert.Equal(t, session.DefaultSettings(), h.d.Session.Settings())
}

func TestShow(t *testing.T) {
	h := newHarness(t, 5)
	require.NoError(t, h.run(t, "show downloads"))
	assert.Contains(t, h.out.String(), "No papers downloaded")

	require.NoError(t, h.run(t, "q x", "download 1", "set model gemini-2.0-flash"))
	h.out.Reset()
	require.NoError(t, h.run(t, "show downloads"))
	assert.Contains(t, h.out.String(), "2401.00000v1")
	assert.Contains(t, h.out.String(), "Source:")

	e, _ := h.d.Session.Downloads.Get("2401.00000v1")
	require.NoError(t, os.Remove(e.LocalPath))
	h.out.Reset()
	require.NoError(t, h.run(t, "show downloads"))
	assert.Contains(t, h.out.String(), "[Missing!]")

	h.out.Reset()
	require.NoError(t, h.run(t, "show model"))
	assert.Contains(t, h.out.String(), "gemini-2.0-flash")
	assert.Contains(t, h.out.String(), "gemini")
}

func TestUnknownCommandLeavesState(t *testing.T) {
	h := newHarness(t, 5)
	require.NoError(t, h.run(t, "q x"))
	page := h.d.Session.Page()

	err := h.run(t, "frobnicate")
	var uc *UnknownCommandError
	require.ErrorAs(t, err, &uc)
	assert.Same(t, page, h.d.Session.Page())
	assert.Contains(t, h.out.String(), `Error: unknown command "frobnicate"`)
}

func TestQuit(t *testing.T) {
	h := newHarness(t, 5)
	assert.ErrorIs(t, h.run(t, "quit"), ErrQuit)
	assert.ErrorIs(t, h.run(t, "exit"), ErrQuit)
	assert.Empty(t, h.out.String())
}

func TestHelp(t *testing.T) {
	h := newHarness(t, 5)
	require.NoError(t, h.run(t, "help"))
	for _, kw := range []string{"download N[,M,...]", "compare", "cite N [FORMAT]", "quit, exit"} {
		assert.Contains(t, h.out.String(), kw)
	}
}

func TestBlankLineIsNoop(t *testing.T) {
	h := newHarness(t, 5)
	assert.NoError(t, h.run(t, "   "))
	assert.Empty(t, h.out.String())
}
