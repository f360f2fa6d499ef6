// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/arxiv-assistant/pkg/types"
)

// fakeFetcher writes a small file per id and counts calls.
type fakeFetcher struct {
	dir  string
	fail map[string]error

	mu    sync.Mutex
	calls map[string]int
}

func newFakeFetcher(t *testing.T) *fakeFetcher {
	return &fakeFetcher{dir: t.TempDir(), fail: map[string]error{}, calls: map[string]int{}}
}

func (f *fakeFetcher) Fetch(_ context.Context, arxivID, _ string) (string, error) {
	f.mu.Lock()
	f.calls[arxivID]++
	f.mu.Unlock()
	if err := f.fail[arxivID]; err != nil {
		return "", err
	}
	path := filepath.Join(f.dir, arxivID+".pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (f *fakeFetcher) count(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func TestEnsureDownloadedIsIdempotent(t *testing.T) {
	ff := newFakeFetcher(t)
	c := NewDownloadCache(ff)

	p1, err := c.EnsureDownloaded(context.Background(), "2401.00001v1", "u")
	require.NoError(t, err)
	p2, err := c.EnsureDownloaded(context.Background(), "2401.00001v1", "u")
	require.NoError(t, err)

	assert.Equal(t, p1, p2)
	assert.Equal(t, 1, ff.count("2401.00001v1"))
	assert.Equal(t, 1, c.Len())

	e, ok := c.Get("2401.00001v1")
	require.True(t, ok)
	assert.Equal(t, types.DownloadEntry{ArxivID: "2401.00001v1", LocalPath: p1, Source: types.SourceDownloaded}, e)
}

func TestEnsureDownloadedFailureLeavesNoEntry(t *testing.T) {
	ff := newFakeFetcher(t)
	ff.fail["bad"] = errors.New("HTTP 404")
	c := NewDownloadCache(ff)

	_, err := c.EnsureDownloaded(context.Background(), "bad", "u")
	var de *DownloadError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "bad", de.ArxivID)
	assert.Contains(t, err.Error(), "HTTP 404")

	_, ok := c.Get("bad")
	assert.False(t, ok)
	assert.Empty(t, c.List())

	// A later success is recorded normally.
	delete(ff.fail, "bad")
	_, err = c.EnsureDownloaded(context.Background(), "bad", "u")
	require.NoError(t, err)
	assert.Equal(t, 2, ff.count("bad"))
}

func TestEnsureDownloadedRefetchesVanishedFile(t *testing.T) {
	ff := newFakeFetcher(t)
	c := NewDownloadCache(ff)

	_, err := c.EnsureDownloaded(context.Background(), "a", "u")
	require.NoError(t, err)
	_, err = c.EnsureDownloaded(context.Background(), "b", "u")
	require.NoError(t, err)

	e, _ := c.Get("a")
	require.NoError(t, os.Remove(e.LocalPath))

	_, err = c.EnsureDownloaded(context.Background(), "a", "u")
	require.NoError(t, err)
	assert.Equal(t, 2, ff.count("a"))

	ids := []string{}
	for _, e := range c.List() {
		ids = append(ids, e.ArxivID)
	}
	assert.Equal(t, []string{"b", "a"}, ids, "a vanished entry is re-recorded at the end")
}

func TestEnsureDownloadedVanishedFileFetchFails(t *testing.T) {
	ff := newFakeFetcher(t)
	c := NewDownloadCache(ff)

	path, err := c.EnsureDownloaded(context.Background(), "x1", "u")
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))
	ff.fail["x1"] = errors.New("net down")

	_, err = c.EnsureDownloaded(context.Background(), "x1", "u")
	var de *DownloadError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "x1", de.ArxivID)

	_, ok := c.Get("x1")
	assert.False(t, ok, "stale entry must be gone")
	assert.Empty(t, c.List())
	assert.Equal(t, 0, c.Len())
}

func TestListInsertionOrder(t *testing.T) {
	c := NewDownloadCache(newFakeFetcher(t))
	for _, id := range []string{"c", "a", "b"} {
		_, err := c.EnsureDownloaded(context.Background(), id, "u")
		require.NoError(t, err)
	}
	var got []string
	for _, e := range c.List() {
		got = append(got, e.ArxivID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, got)
}

func TestMarkUploaded(t *testing.T) {
	c := NewDownloadCache(newFakeFetcher(t))
	_, err := c.EnsureDownloaded(context.Background(), "a", "u")
	require.NoError(t, err)

	c.MarkUploaded("a")
	c.MarkUploaded("unknown")

	e, _ := c.Get("a")
	assert.Equal(t, types.SourceUploaded, e.Source)
	assert.Equal(t, 1, c.Len())
}

func TestEnsureDownloadedConcurrentSameID(t *testing.T) {
	ff := newFakeFetcher(t)
	c := NewDownloadCache(ff)

	var wg sync.WaitGroup
	paths := make([]string, 8)
	for i := range paths {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := c.EnsureDownloaded(context.Background(), "same", "u")
			assert.NoError(t, err)
			paths[i] = p
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, ff.count("same"))
	for _, p := range paths {
		assert.Equal(t, paths[0], p)
	}
}

func TestEnsureDownloadedWithoutFetcher(t *testing.T) {
	c := NewDownloadCache(nil)
	_, err := c.EnsureDownloaded(context.Background(), "a", "u")
	var de *DownloadError
	assert.True(t, errors.As(err, &de))
}
