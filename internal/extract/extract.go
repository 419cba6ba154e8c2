// Package extract turns raw artifact bytes into plain text plus any images
// worth describing. Each supported format has its own extractor; everything
// else falls back to charset-detected plain text.
package extract

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat reports bytes that no extractor can read, such as
// unrecognized binary content.
var ErrUnsupportedFormat = errors.New("unsupported artifact format")

// Format identifies how an artifact's bytes should be interpreted.
type Format int

const (
	FormatUnknown Format = iota
	FormatPDF
	FormatDocx
	FormatXlsx
	FormatPptx
	FormatCSV
	FormatText
	FormatHTML
)

// Artifact is one ingestion input: raw bytes plus how to read them.
// BaseURL is set for fetched pages so relative image references resolve
// against the page they came from.
type Artifact struct {
	Data    []byte
	Format  Format
	BaseURL string
}

// Image is a candidate for visual enrichment. Exactly one of URL and Data
// is set: URL for images linked from hypertext, Data for images embedded in
// the artifact itself. Position is the discovery order within the source.
type Image struct {
	URL      string
	Data     []byte
	Position int
}

// Content is the extraction result. Title is only populated for formats
// that carry one.
type Content struct {
	Text   string
	Title  string
	Images []Image
}

// Detect maps a file name to a Format by extension. Unrecognized
// extensions come back as FormatUnknown, which Extract reads as plain text
// on a best-effort basis.
func Detect(name string) Format {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "pdf":
		return FormatPDF
	case "docx":
		return FormatDocx
	case "xlsx":
		return FormatXlsx
	case "pptx":
		return FormatPptx
	case "csv":
		return FormatCSV
	case "txt", "md", "markdown", "log", "rst":
		return FormatText
	case "html", "htm":
		return FormatHTML
	default:
		return FormatUnknown
	}
}

// Extract runs the extractor for the artifact's format. Extraction is pure
// byte processing; discovered image URLs are returned for the caller to
// fetch, never downloaded here.
func Extract(art Artifact) (*Content, error) {
	switch art.Format {
	case FormatPDF:
		return extractPDF(art.Data)
	case FormatDocx:
		return extractDocx(art.Data)
	case FormatXlsx:
		return extractXlsx(art.Data)
	case FormatPptx:
		return extractPptx(art.Data)
	case FormatCSV:
		return extractCSV(art.Data)
	case FormatHTML:
		return extractHTML(art.Data, art.BaseURL)
	default:
		return extractText(art.Data)
	}
}
