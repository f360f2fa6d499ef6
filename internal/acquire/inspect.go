// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
)

// Info describes a downloaded PDF as reported by `show downloads`.
type Info struct {
	Path  string
	Size  int64
	Pages int
}

// Inspect opens the PDF at path and reports its size and page count. The
// page count is 0 when the file exists but cannot be parsed.
func Inspect(path string) (info Info, err error) {
	st, err := os.Stat(path)
	if err != nil {
		return Info{Path: path}, err
	}
	info = Info{Path: path, Size: st.Size()}

	pages, perr := countPages(path)
	if perr != nil {
		return info, fmt.Errorf("reading %s: %w", path, perr)
	}
	info.Pages = pages
	return info, nil
}

// countPages wraps the PDF reader, which panics on some malformed files.
func countPages(path string) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	file, reader, err := pdf.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()
	return reader.NumPage(), nil
}
