// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/pdiddy/arxiv-assistant/pkg/types"
)

// Fetcher is the download collaborator. It stores the PDF for arxivID and
// returns the local path.
type Fetcher interface {
	Fetch(ctx context.Context, arxivID, pdfURL string) (string, error)
}

// DownloadCache maps arXiv ids to local PDFs in insertion order. Insert-or-get
// is atomic per id; concurrent calls for one id share a single fetch.
type DownloadCache struct {
	fetcher Fetcher

	mu       sync.Mutex
	entries  map[string]*types.DownloadEntry
	order    []string
	inflight map[string]*sync.Mutex
}

// NewDownloadCache returns an empty cache backed by fetcher.
func NewDownloadCache(fetcher Fetcher) *DownloadCache {
	return &DownloadCache{
		fetcher:  fetcher,
		entries:  make(map[string]*types.DownloadEntry),
		inflight: make(map[string]*sync.Mutex),
	}
}

// EnsureDownloaded returns the cached path for arxivID, downloading it first
// if needed. A cached entry whose file has vanished from disk is dropped and
// fetched again. On failure it returns DownloadError and records nothing.
func (c *DownloadCache) EnsureDownloaded(ctx context.Context, arxivID, pdfURL string) (string, error) {
	lock := c.idLock(arxivID)
	lock.Lock()
	defer lock.Unlock()

	if e, ok := c.Get(arxivID); ok {
		if _, err := os.Stat(e.LocalPath); err == nil {
			return e.LocalPath, nil
		}
		c.drop(arxivID)
	}

	if c.fetcher == nil {
		return "", &DownloadError{ArxivID: arxivID, Err: errors.New("no download collaborator configured")}
	}
	path, err := c.fetcher.Fetch(ctx, arxivID, pdfURL)
	if err != nil {
		return "", &DownloadError{ArxivID: arxivID, Err: err}
	}

	c.put(types.DownloadEntry{ArxivID: arxivID, LocalPath: path, Source: types.SourceDownloaded})
	return path, nil
}

// MarkUploaded records that the PDF for arxivID has been sent to the AI
// provider. Unknown ids are ignored.
func (c *DownloadCache) MarkUploaded(arxivID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[arxivID]; ok {
		e.Source = types.SourceUploaded
	}
}

// Get returns the entry for arxivID.
func (c *DownloadCache) Get(arxivID string) (types.DownloadEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[arxivID]
	if !ok {
		return types.DownloadEntry{}, false
	}
	return *e, true
}

// List returns the entries in insertion order.
func (c *DownloadCache) List() []types.DownloadEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.DownloadEntry, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.entries[id])
	}
	return out
}

// Len returns the number of entries.
func (c *DownloadCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// put inserts or overwrites an entry. An overwritten entry keeps its position.
func (c *DownloadCache) put(e types.DownloadEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[e.ArxivID]; ok {
		*existing = e
		return
	}
	c.entries[e.ArxivID] = &e
	c.order = append(c.order, e.ArxivID)
}

// drop removes the entry for arxivID and its position.
func (c *DownloadCache) drop(arxivID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[arxivID]; !ok {
		return
	}
	delete(c.entries, arxivID)
	for i, id := range c.order {
		if id == arxivID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *DownloadCache) idLock(arxivID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.inflight[arxivID]
	if !ok {
		l = &sync.Mutex{}
		c.inflight[arxivID] = l
	}
	return l
}
