// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DownloadSource records how far a local PDF has travelled.
type DownloadSource string

const (
	// SourceDownloaded marks a PDF fetched to local disk.
	SourceDownloaded DownloadSource = "downloaded"

	// SourceUploaded marks a PDF that has also been sent to the AI provider.
	SourceUploaded DownloadSource = "uploaded"
)

// DownloadEntry links an arXiv id to a local PDF file. There is at most one
// entry per id.
type DownloadEntry struct {
	ArxivID   string         `json:"arxiv_id" yaml:"arxiv_id"`
	LocalPath string         `json:"local_path" yaml:"local_path"`
	Source    DownloadSource `json:"source" yaml:"source"`
}

// RelatedPaper is a web-search hit returned for related-work discovery.
type RelatedPaper struct {
	Title           string `json:"title" yaml:"title"`
	Link            string `json:"link" yaml:"link"`
	Snippet         string `json:"snippet,omitempty" yaml:"snippet,omitempty"`
	PublicationInfo string `json:"publication_info,omitempty" yaml:"publication_info,omitempty"`
	Year            int    `json:"year,omitempty" yaml:"year,omitempty"`
	CitedBy         int    `json:"cited_by,omitempty" yaml:"cited_by,omitempty"`
}
