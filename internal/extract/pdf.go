package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	// Embedded images smaller than this are almost always glyph masks or
	// decorations, not figures.
	minEmbeddedImageBytes = 2048
	maxEmbeddedImages     = 32
)

// extractPDF reads page text and recovers embedded JPEG figures. The pdf
// library panics on some malformed cross-reference tables, so the whole
// pass runs under a recover guard.
func extractPDF(data []byte) (content *Content, err error) {
	defer func() {
		if r := recover(); r != nil {
			content = nil
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A page with undecodable fonts should not sink the document.
			continue
		}
		sb.WriteString(text)
		sb.WriteByte('\n')
	}

	return &Content{
		Text:   sb.String(),
		Images: scanEmbeddedJPEGs(data, maxEmbeddedImages),
	}, nil
}

// scanEmbeddedJPEGs walks the raw byte stream for JPEG image objects.
// DCTDecode streams store the JPEG bytes verbatim, so SOI/EOI marker
// scanning recovers figures without a rasterizing dependency.
func scanEmbeddedJPEGs(data []byte, limit int) []Image {
	var (
		soi    = []byte{0xFF, 0xD8, 0xFF}
		eoi    = []byte{0xFF, 0xD9}
		images []Image
	)

	pos := 0
	for len(images) < limit {
		i := bytes.Index(data[pos:], soi)
		if i < 0 {
			break
		}
		start := pos + i
		j := bytes.Index(data[start:], eoi)
		if j < 0 {
			break
		}
		end := start + j + len(eoi)
		if end-start >= minEmbeddedImageBytes {
			img := make([]byte, end-start)
			copy(img, data[start:end])
			images = append(images, Image{Data: img, Position: len(images)})
		}
		pos = end
	}
	return images
}
