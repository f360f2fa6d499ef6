// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire downloads paper PDFs into a local directory, one file per
// arXiv id.
package acquire

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pdiddy/arxiv-assistant/internal/httputil"
	"github.com/pdiddy/arxiv-assistant/pkg/types"
)

// DefaultDir is the download directory used when none is configured.
const DefaultDir = "arxiv_downloads"

// pdfMagic is the header every PDF file starts with.
var pdfMagic = []byte("%PDF-")

// ErrNotPDF is returned when the server answers with something other than a PDF
// (arXiv serves an HTML page while a PDF is still being generated).
var ErrNotPDF = errors.New("response is not a PDF")

// Downloader fetches PDFs into Dir. It is the download collaborator used by
// the session's download cache.
type Downloader struct {
	Client     *http.Client
	Dir        string
	UserAgent  string
	MaxRetries int

	// Progress receives one line per download event. Nil discards them.
	Progress io.Writer
}

// NewDownloader builds a Downloader from the acquisition and HTTP settings.
func NewDownloader(client *http.Client, cfg types.AcquisitionConfig, httpCfg types.HTTPConfig, w io.Writer) *Downloader {
	dir := cfg.DownloadDir
	if dir == "" {
		dir = DefaultDir
	}
	if client == nil {
		client = &http.Client{Timeout: httpCfg.Timeout}
	}
	return &Downloader{
		Client:     client,
		Dir:        dir,
		UserAgent:  httpCfg.UserAgent,
		MaxRetries: httpCfg.MaxRetries,
		Progress:   w,
	}
}

// Path returns where the PDF for arxivID is stored.
func (d *Downloader) Path(arxivID string) string {
	return filepath.Join(d.Dir, Filename(arxivID))
}

// Fetch makes sure the PDF for arxivID is on disk and returns its path. A
// non-empty file already at the target path is reused without a request.
// On failure no file is left behind at the target path.
func (d *Downloader) Fetch(ctx context.Context, arxivID, pdfURL string) (string, error) {
	dest := d.Path(arxivID)

	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		d.printf("exists:  %s → %s\n", arxivID, dest)
		return dest, nil
	}

	url := PDFURL(arxivID, pdfURL)
	if url == "" {
		return "", fmt.Errorf("no PDF URL for %q", arxivID)
	}

	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating download directory: %w", err)
	}

	d.printf("downloading: %s\n", url)
	n, err := d.downloadFile(ctx, url, dest)
	if err != nil {
		return "", err
	}
	d.printf("saved:   %s (%s)\n", dest, HumanSize(n))
	return dest, nil
}

// downloadFile streams url into a temp file next to destPath, checks the PDF
// header, and renames it into place.
func (d *Downloader) downloadFile(ctx context.Context, url, destPath string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	if d.UserAgent != "" {
		req.Header.Set("User-Agent", d.UserAgent)
	}
	req.Header.Set("Accept", "application/pdf")

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, d.MaxRetries)
	if err != nil {
		return 0, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	body := bufio.NewReader(resp.Body)
	head, _ := body.Peek(len(pdfMagic))
	if !bytes.Equal(head, pdfMagic) {
		return 0, fmt.Errorf("%s: %w", url, ErrNotPDF)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".download-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	n, copyErr := io.Copy(tmpFile, body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("renaming temp file: %w", err)
	}
	return n, nil
}

// Exists reports whether a local PDF path is present on disk.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (d *Downloader) printf(format string, args ...any) {
	if d.Progress == nil {
		return
	}
	fmt.Fprintf(d.Progress, format, args...)
}

// HumanSize formats a byte count for display.
func HumanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
