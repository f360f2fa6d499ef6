// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package command

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/arxiv-assistant/internal/ai"
	"github.com/pdiddy/arxiv-assistant/internal/cite"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"q transformers", QueryCmd{Query: "transformers"}},
		{`Q "graph neural networks"`, QueryCmd{Query: "graph neural networks"}},
		{"q", QueryCmd{}},
		{"n", NextCmd{}},
		{"download 3", DownloadCmd{Indices: []int{3}}},
		{"download 3,7", DownloadCmd{Indices: []int{3, 7}}},
		{"download 1, 2 ,3", DownloadCmd{Indices: []int{1, 2, 3}}},
		{"download 2,2", DownloadCmd{Indices: []int{2, 2}}},
		{"d 4,5", DownloadCmd{Indices: []int{4, 5}}},
		{"D 1", DownloadCmd{Indices: []int{1}}},
		{`ask 2 "What is the main result?"`, AskCmd{Index: 2, Question: "What is the main result?"}},
		{"ask 2 what dataset is used", AskCmd{Index: 2, Question: "what dataset is used"}},
		{`ask_fig 1 "Explain figure 3"`, AskCmd{Index: 1, Question: "Explain figure 3", Figures: true}},
		{"sum 4", SummarizeCmd{Index: 4, Style: ai.SummaryDefault}},
		{"sum 4 ELI5", SummarizeCmd{Index: 4, Style: ai.SummaryELI5}},
		{"ext 1 methods", ExtractCmd{Index: 1, Kind: ai.ExtractMethods}},
		{"compare 1,2", CompareCmd{Indices: []int{1, 2}, Kind: ai.CompareGeneral}},
		{"compare 1, 2, 3 methods", CompareCmd{Indices: []int{1, 2, 3}, Kind: ai.CompareMethods}},
		{"compare 1,2 impact", CompareCmd{Indices: []int{1, 2}, Kind: ai.CompareImpact}},
		{"rel 5", RelatedCmd{Index: 5}},
		{"cite 1", CiteCmd{Index: 1, Format: cite.BibTeX}},
		{"cite 1 APA", CiteCmd{Index: 1, Format: cite.APA}},
		{"set max 20", SetCmd{Name: "max", Values: []string{"20"}}},
		{"set sort date desc", SetCmd{Name: "sort", Values: []string{"date", "desc"}}},
		{"set model gemini-2.0-flash", SetCmd{Name: "model", Values: []string{"gemini-2.0-flash"}}},
		{"set colour blue", SetCmd{Name: "colour", Values: []string{"blue"}}},
		{"show downloads", ShowCmd{What: ShowDownloads}},
		{"show Model", ShowCmd{What: ShowModel}},
		{"help", HelpCmd{}},
		{"?", HelpCmd{}},
		{"quit", QuitCmd{}},
		{"EXIT", QuitCmd{}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := Parse(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDownloadAliasErrorsNameDownload(t *testing.T) {
	_, err := Parse("d x")
	var ae *ArgumentParseError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "download", ae.Command)
	assert.Contains(t, err.Error(), "usage: download N[,M,...]")
}

func TestParseBlankLine(t *testing.T) {
	for _, line := range []string{"", "   ", "\t"} {
		cmd, err := Parse(line)
		assert.NoError(t, err)
		assert.Nil(t, cmd)
	}
}

func TestParseUnknownCommand(t *testing.T) {
	_, err := Parse("frobnicate 1")
	var uc *UnknownCommandError
	require.ErrorAs(t, err, &uc)
	assert.Equal(t, "frobnicate", uc.Keyword)
}

func TestParseArgumentErrors(t *testing.T) {
	tests := []struct {
		line      string
		wantToken string
	}{
		{"download", ""},
		{"download 3,x", "x"},
		{"download 3,,4", "3,,4"},
		{"download three", "three"},
		{"ask", ""},
		{"ask two why", "two"},
		{"ask 2", ""},
		{`ask 2 ""`, ""},
		{"sum 1 verbose", "verbose"},
		{"ext 1", ""},
		{"ext 1 tables", "tables"},
		{"compare 1", ""},
		{"compare", ""},
		{"compare 1,2 style", "style"},
		{"compare 1,b", "b"},
		{"rel", ""},
		{"rel 1 2", "2"},
		{"cite x", "x"},
		{"cite 1 harvard", "harvard"},
		{"set", ""},
		{"set max", ""},
		{"set sort date", "date"},
		{"show", ""},
		{"show everything", "everything"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, err := Parse(tt.line)
			var ape *ArgumentParseError
			require.True(t, errors.As(err, &ape), "got %v", err)
			assert.Equal(t, tt.wantToken, ape.Token)
		})
	}
}

func TestArgumentParseErrorMessage(t *testing.T) {
	_, err := Parse("sum 1 verbose")
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, `"verbose"`)
	assert.Contains(t, msg, "eli5", "allowed values are listed")
	assert.Contains(t, msg, "usage: sum N [STYLE]")
}

func TestParseIndexList(t *testing.T) {
	got, err := parseIndexList("download", " 10 ,11,  12")
	require.NoError(t, err)
	assert.Equal(t, []int{10, 11, 12}, got)

	_, err = parseIndexList("download", "1,")
	assert.Error(t, err)
}

func TestBatchErrorMessage(t *testing.T) {
	assert.Equal(t, "download failed for index 99", (&BatchError{Command: "download", Failed: []int{99}}).Error())
	assert.Equal(t, "compare failed for indices 2, 4", (&BatchError{Command: "compare", Failed: []int{2, 4}}).Error())
}
