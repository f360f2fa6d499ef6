// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/arxiv-assistant/internal/acquire"
	"github.com/pdiddy/arxiv-assistant/internal/ai"
	"github.com/pdiddy/arxiv-assistant/internal/arxiv"
	"github.com/pdiddy/arxiv-assistant/internal/command"
	"github.com/pdiddy/arxiv-assistant/internal/related"
	"github.com/pdiddy/arxiv-assistant/internal/session"
	"github.com/pdiddy/arxiv-assistant/pkg/types"
)

// aiTimeout bounds one AI request. Uploads and long generations take
// minutes, well past the download timeout.
const aiTimeout = 10 * time.Minute

// app is the wired set of collaborators behind one Dispatcher.
type app struct {
	cfg        types.AppConfig
	dispatcher *command.Dispatcher
}

func newApp(cfg types.AppConfig, out, progress io.Writer) (*app, error) {
	client := &http.Client{Timeout: cfg.HTTP.Timeout}

	searcher := arxiv.NewClient(client, cfg.HTTP, cfg.Search)
	fetcher := acquire.NewDownloader(client, cfg.Acquisition, cfg.HTTP, progress)
	sess := session.New(searcher, fetcher, session.Settings{
		MaxResults: cfg.Search.MaxResults,
		SortField:  cfg.Search.SortBy,
		SortOrder:  cfg.Search.SortOrder,
		Model:      cfg.AI.Model,
	})

	backend, err := ai.NewBackend(cfg.AI, &http.Client{Timeout: aiTimeout}, cfg.HTTP.MaxRetries, progress)
	if err != nil {
		return nil, err
	}
	analyzer := ai.NewClient(backend)

	d := &command.Dispatcher{
		Session: sess,
		AI:      analyzer,
		Out:     out,
	}
	if cfg.WebSearch.APIKey != "" {
		d.Related = &related.Finder{
			Searcher: related.NewSerperClient(client, cfg.WebSearch, cfg.HTTP, progress),
			Keywords: analyzer,
			Progress: progress,
		}
	}
	return &app{cfg: cfg, dispatcher: d}, nil
}
