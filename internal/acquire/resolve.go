// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"regexp"
	"strings"
)

// arxivPDFBase is used when a search result carries no PDF link. Declared
// as a var so tests can substitute an httptest server.
var arxivPDFBase = "https://arxiv.org/pdf/"

// unsafeChars matches everything that is not kept verbatim in a filename.
var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9.\-]`)

// Slug returns the filesystem-safe stem for an arXiv id: letters, digits,
// '.' and '-' are kept, everything else becomes '_'
// (e.g. "hep-th/9901001v2" → "hep-th_9901001v2").
func Slug(arxivID string) string {
	s := unsafeChars.ReplaceAllString(strings.TrimSpace(arxivID), "_")
	if s == "" || strings.Trim(s, ".") == "" {
		return "unknown"
	}
	return s
}

// Filename returns the PDF filename for an arXiv id.
func Filename(arxivID string) string {
	return Slug(arxivID) + ".pdf"
}

// PDFURL returns the download URL for a paper. A protocol-relative link is
// made absolute; an empty link falls back to the arxiv.org PDF endpoint.
func PDFURL(arxivID, link string) string {
	link = strings.TrimSpace(link)
	switch {
	case strings.HasPrefix(link, "//"):
		return "https:" + link
	case link != "":
		return link
	case strings.TrimSpace(arxivID) != "":
		return arxivPDFBase + strings.TrimSpace(arxivID)
	default:
		return ""
	}
}
