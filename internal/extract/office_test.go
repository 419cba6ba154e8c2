package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func zipBytes(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("creating %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing archive: %v", err)
	}
	return buf.Bytes()
}

func TestExtractDocx(t *testing.T) {
	document := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`

	data := zipBytes(t, map[string]string{"word/document.xml": document})
	got, err := Extract(Artifact{Data: data, Format: FormatDocx})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "First paragraph.\nSecond paragraph."
	if got.Text != want {
		t.Errorf("got %q, want %q", got.Text, want)
	}
}

func TestExtractDocxMissingDocument(t *testing.T) {
	data := zipBytes(t, map[string]string{"other.xml": "<x/>"})
	_, err := Extract(Artifact{Data: data, Format: FormatDocx})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestExtractDocxNotAnArchive(t *testing.T) {
	_, err := Extract(Artifact{Data: []byte("plain text, not a zip"), Format: FormatDocx})
	if err == nil {
		t.Fatal("expected error for non-archive input")
	}
}

func TestExtractPptxSlideOrder(t *testing.T) {
	slide := func(text string) string {
		return `<?xml version="1.0"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">
  <a:p><a:r><a:t>` + text + `</a:t></a:r></a:p>
</p:sld>`
	}

	// Slide 10 must sort after slide 2, not lexicographically before it.
	data := zipBytes(t, map[string]string{
		"ppt/slides/slide10.xml": slide("Slide ten"),
		"ppt/slides/slide1.xml":  slide("Slide one"),
		"ppt/slides/slide2.xml":  slide("Slide two"),
	})
	got, err := Extract(Artifact{Data: data, Format: FormatPptx})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	one := strings.Index(got.Text, "Slide one")
	two := strings.Index(got.Text, "Slide two")
	ten := strings.Index(got.Text, "Slide ten")
	if one < 0 || two < 0 || ten < 0 {
		t.Fatalf("missing slide text: %q", got.Text)
	}
	if !(one < two && two < ten) {
		t.Errorf("slides out of order: %q", got.Text)
	}
}

func TestExtractPptxNoSlides(t *testing.T) {
	data := zipBytes(t, map[string]string{"ppt/presentation.xml": "<p/>"})
	_, err := Extract(Artifact{Data: data, Format: FormatPptx})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}
