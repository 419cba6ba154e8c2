package extract

import (
	"bytes"
	"testing"
)

func jpegBlob(payload int) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xD8, 0xFF, 0xE0})
	buf.Write(bytes.Repeat([]byte{0x42}, payload))
	buf.Write([]byte{0xFF, 0xD9})
	return buf.Bytes()
}

func TestScanEmbeddedJPEGs(t *testing.T) {
	var stream bytes.Buffer
	stream.WriteString("%PDF-1.4 filler ")
	stream.Write(jpegBlob(4096))
	stream.WriteString(" more objects ")
	stream.Write(jpegBlob(8192))
	stream.WriteString(" trailer")

	images := scanEmbeddedJPEGs(stream.Bytes(), 10)
	if len(images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(images))
	}
	for i, img := range images {
		if img.Position != i {
			t.Errorf("image %d has position %d", i, img.Position)
		}
		if !bytes.HasPrefix(img.Data, []byte{0xFF, 0xD8, 0xFF}) || !bytes.HasSuffix(img.Data, []byte{0xFF, 0xD9}) {
			t.Errorf("image %d is not delimited by JPEG markers", i)
		}
	}
}

func TestScanEmbeddedJPEGsSkipsTiny(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(jpegBlob(16)) // glyph-mask sized, below the threshold
	stream.Write(jpegBlob(4096))

	images := scanEmbeddedJPEGs(stream.Bytes(), 10)
	if len(images) != 1 {
		t.Fatalf("expected only the large image, got %d", len(images))
	}
}

func TestScanEmbeddedJPEGsLimit(t *testing.T) {
	var stream bytes.Buffer
	for range 5 {
		stream.Write(jpegBlob(4096))
	}
	if got := scanEmbeddedJPEGs(stream.Bytes(), 3); len(got) != 3 {
		t.Fatalf("expected limit of 3, got %d", len(got))
	}
}

func TestExtractPDFMalformed(t *testing.T) {
	_, err := Extract(Artifact{Data: []byte("%PDF-1.4 truncated garbage"), Format: FormatPDF})
	if err == nil {
		t.Fatal("expected error for malformed pdf")
	}
}
