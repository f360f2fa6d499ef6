// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"
	"golang.org/x/term"

	"github.com/pdiddy/arxiv-assistant/internal/command"
	"github.com/pdiddy/arxiv-assistant/internal/session"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	bannerStyle = lipgloss.NewStyle().Bold(true)
	noteStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "arxiv-assistant-history")
	}
	return filepath.Join(home, ".config", "arxiv-assistant", "history")
}

// runREPL reads commands until quit or EOF. Ctrl-C clears the current line.
func runREPL(ctx context.Context, a *app) error {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	histPath := historyFile()
	if f, err := os.Open(histPath); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		saveHistory(line, histPath)
		line.Close()
	}()

	d := a.dispatcher
	d.Prompt = line.Prompt
	d.Confirm = func(question string) bool {
		answer, err := line.Prompt(question + " [y/N] ")
		if err != nil {
			return false
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		return answer == "y" || answer == "yes"
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80)); err == nil {
			d.Markdown = r
		}
	}

	fmt.Fprintln(d.Out, bannerStyle.Render("arXiv Assistant "+version))
	fmt.Fprintf(d.Out, "%s\n\n", noteStyle.Render(fmt.Sprintf("AI: %s (%s). Type 'help' for commands, 'quit' to exit.", a.cfg.AI.Model, a.cfg.AI.Provider)))

	for {
		input, err := line.Prompt(promptStyle.Render(promptText(d.Session)))
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			continue
		case errors.Is(err, io.EOF):
			fmt.Fprintln(d.Out)
			return nil
		case err != nil:
			return fmt.Errorf("reading input: %w", err)
		}

		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)

		if err := d.Execute(ctx, input); errors.Is(err, command.ErrQuit) {
			return nil
		}
	}
}

// promptText summarizes the session state: query, page, page size, sort
// and model.
func promptText(s *session.Session) string {
	set := s.Settings()
	var parts []string
	if q := s.Query(); q != "" {
		if len([]rune(q)) > 30 {
			q = string([]rune(q)[:27]) + "..."
		}
		parts = append(parts, fmt.Sprintf("%q p%d", q, s.Page().PageNumber()))
	}
	parts = append(parts,
		fmt.Sprintf("max=%d", set.MaxResults),
		fmt.Sprintf("%s/%s", set.SortField, set.SortOrder),
		set.Model,
	)
	return "[" + strings.Join(parts, " | ") + "] arxiv> "
}

func saveHistory(line *liner.State, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	line.WriteHistory(f)
}
