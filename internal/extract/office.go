package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// extractDocx pulls paragraph text out of word/document.xml. OOXML keeps
// run text in w:t elements and paragraph boundaries as w:p elements.
func extractDocx(data []byte) (*Content, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening docx archive: %w", err)
	}
	f := zipEntry(zr, "word/document.xml")
	if f == nil {
		return nil, fmt.Errorf("%w: no word/document.xml", ErrUnsupportedFormat)
	}
	text, err := ooxmlText(f, "t", "p")
	if err != nil {
		return nil, fmt.Errorf("reading word/document.xml: %w", err)
	}
	return &Content{Text: text}, nil
}

// extractPptx concatenates slide text in slide order. Slides live under
// ppt/slides/slideN.xml with drawing-markup a:t runs and a:p paragraphs.
func extractPptx(data []byte) (*Content, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening pptx archive: %w", err)
	}

	slides := make([]*zip.File, 0, len(zr.File))
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml") {
			slides = append(slides, f)
		}
	}
	if len(slides) == 0 {
		return nil, fmt.Errorf("%w: no slides", ErrUnsupportedFormat)
	}
	sort.Slice(slides, func(i, j int) bool {
		return slideNumber(slides[i].Name) < slideNumber(slides[j].Name)
	})

	var sb strings.Builder
	for _, f := range slides {
		text, err := ooxmlText(f, "t", "p")
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f.Name, err)
		}
		if text != "" {
			sb.WriteString(text)
			sb.WriteByte('\n')
		}
	}
	return &Content{Text: sb.String()}, nil
}

func zipEntry(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func slideNumber(name string) int {
	digits := strings.TrimSuffix(strings.TrimPrefix(name, "ppt/slides/slide"), ".xml")
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

// ooxmlText streams one XML part, collecting character data inside elements
// with the given text local name and emitting a newline when an element
// with the break local name closes.
func ooxmlText(f *zip.File, textLocal, breakLocal string) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	var sb strings.Builder
	dec := xml.NewDecoder(rc)
	depth := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == textLocal {
				depth++
			}
		case xml.EndElement:
			switch t.Name.Local {
			case textLocal:
				if depth > 0 {
					depth--
				}
			case breakLocal:
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if depth > 0 {
				sb.Write(t)
			}
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
