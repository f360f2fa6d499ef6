// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-assistant/internal/command"
)

// batchOptions are the non-interactive flags.
type batchOptions struct {
	Query     string
	Start     int
	Download  string
	Ask       string
	AskFig    bool
	Summarize string
	Extract   string
	Compare   string
	Related   int
	Cite      string
}

func (o batchOptions) any() bool {
	return o.Download != "" || o.Ask != "" || o.Summarize != "" || o.Extract != "" ||
		o.Compare != "" || o.Related > 0 || o.Cite != ""
}

func addBatchFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("query", "q", "", "run this search non-interactively")
	f.IntP("start", "s", 0, "result offset for the --query search")
	f.StringP("download", "d", "", "download results N[,M,...] after the search")
	f.String("ask", "", `ask about a paper: "N QUESTION", or "QUESTION" for the first --download index`)
	f.Bool("ask-fig", false, "frame --ask around the paper's figures and tables")
	f.String("summarize", "", `summarize a paper: "N [style]"`)
	f.String("extract", "", `extract structured data: "N type"`)
	f.String("compare", "", `compare papers: "N1,N2[,...] [type]"`)
	f.Int("related", 0, "find related work for result N")
	f.String("cite", "", `print a citation: "N [format]"`)
}

func batchOptionsFromFlags(cmd *cobra.Command) batchOptions {
	f := cmd.Flags()
	var o batchOptions
	o.Query, _ = f.GetString("query")
	o.Start, _ = f.GetInt("start")
	o.Download, _ = f.GetString("download")
	o.Ask, _ = f.GetString("ask")
	o.AskFig, _ = f.GetBool("ask-fig")
	o.Summarize, _ = f.GetString("summarize")
	o.Extract, _ = f.GetString("extract")
	o.Compare, _ = f.GetString("compare")
	o.Related, _ = f.GetInt("related")
	o.Cite, _ = f.GetString("cite")
	return o
}

// batchLines turns the flags into dispatcher input, in the order a user
// would type them.
func batchLines(o batchOptions) ([]string, error) {
	q := strings.TrimSpace(o.Query)
	if q == "" {
		return nil, errors.New("--query is required")
	}
	if o.Start < 0 {
		return nil, fmt.Errorf("--start must not be negative, got %d", o.Start)
	}
	lines := []string{"q " + q}

	if o.Download != "" {
		lines = append(lines, "download "+o.Download)
	}
	if o.Ask != "" {
		line, err := askLine(o)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	} else if o.AskFig {
		return nil, errors.New("--ask-fig needs --ask")
	}
	if o.Summarize != "" {
		lines = append(lines, "sum "+o.Summarize)
	}
	if o.Extract != "" {
		lines = append(lines, "ext "+o.Extract)
	}
	if o.Compare != "" {
		lines = append(lines, "compare "+o.Compare)
	}
	if o.Related > 0 {
		lines = append(lines, "rel "+strconv.Itoa(o.Related))
	}
	if o.Cite != "" {
		lines = append(lines, "cite "+o.Cite)
	}
	return lines, nil
}

// askLine accepts "N QUESTION" or a bare question, which then targets the
// first --download index.
func askLine(o batchOptions) (string, error) {
	kw := "ask"
	if o.AskFig {
		kw = "ask_fig"
	}
	ask := strings.TrimSpace(o.Ask)
	first, rest, _ := strings.Cut(ask, " ")
	if _, err := strconv.Atoi(first); err == nil && strings.TrimSpace(rest) != "" {
		return kw + " " + ask, nil
	}

	idx, _, _ := strings.Cut(o.Download, ",")
	idx = strings.TrimSpace(idx)
	if idx == "" {
		return "", errors.New(`--ask needs a paper number ("N QUESTION") or --download`)
	}
	return kw + " " + idx + " " + ask, nil
}

// runBatch runs every line. The search runs from --start. A failed search
// stops the batch since later indices would have nothing to refer to.
func runBatch(ctx context.Context, a *app, o batchOptions) error {
	lines, err := batchLines(o)
	if err != nil {
		return err
	}

	failed := 0
	for i, line := range lines {
		var err error
		if i == 0 {
			err = a.dispatcher.ExecuteCommand(ctx, command.QueryCmd{Query: strings.TrimSpace(o.Query), Start: o.Start})
		} else {
			err = a.dispatcher.Execute(ctx, line)
		}
		if err != nil {
			failed++
			if i == 0 {
				return fmt.Errorf("search failed")
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d commands failed", failed, len(lines))
	}
	return nil
}
