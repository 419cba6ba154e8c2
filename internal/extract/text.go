package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/htmlindex"
)

// extractText reads bytes as plain text. Valid UTF-8 passes through; other
// encodings go through charset detection and transcoding. Content with NUL
// bytes is treated as binary and rejected.
func extractText(data []byte) (*Content, error) {
	if len(data) == 0 {
		return &Content{}, nil
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return nil, fmt.Errorf("%w: binary content", ErrUnsupportedFormat)
	}
	if utf8.Valid(data) {
		return &Content{Text: string(data)}, nil
	}
	if decoded, ok := transcode(data); ok {
		return &Content{Text: decoded}, nil
	}
	// Last resort keeps whatever decodes rather than refusing the file.
	return &Content{Text: strings.ToValidUTF8(string(data), "")}, nil
}

func transcode(data []byte) (string, bool) {
	best, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil {
		return "", false
	}
	enc, err := htmlindex.Get(strings.ToLower(best.Charset))
	if err != nil || enc == nil {
		return "", false
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil || !utf8.Valid(decoded) {
		return "", false
	}
	return string(decoded), true
}

// extractCSV flattens rows to comma-joined lines, skipping empty cells so
// sparse sheets do not turn into runs of separators.
func extractCSV(data []byte) (*Content, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}

	var sb strings.Builder
	for _, record := range records {
		cells := make([]string, 0, len(record))
		for _, c := range record {
			if c = strings.TrimSpace(c); c != "" {
				cells = append(cells, c)
			}
		}
		if len(cells) > 0 {
			sb.WriteString(strings.Join(cells, ", "))
			sb.WriteByte('\n')
		}
	}
	return &Content{Text: sb.String()}, nil
}
