package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/arneklein/askdocs/internal/chunk"
	"github.com/arneklein/askdocs/internal/enrich"
	"github.com/arneklein/askdocs/internal/extract"
	"github.com/arneklein/askdocs/internal/index"
)

type mockEmbedder struct {
	embedFn func(ctx context.Context, texts []string) ([][]float32, error)
	calls   int
}

func (m *mockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.embedFn != nil {
		return m.embedFn(ctx, texts)
	}
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{0.1, 0.2, 0.3}
	}
	return vectors, nil
}

type mockIndex struct {
	upsertFn func(ctx context.Context, namespace string, entries []index.Entry) error
	upserts  [][]index.Entry
	spaces   []string
}

func (m *mockIndex) Upsert(ctx context.Context, namespace string, entries []index.Entry) error {
	m.spaces = append(m.spaces, namespace)
	m.upserts = append(m.upserts, entries)
	if m.upsertFn != nil {
		return m.upsertFn(ctx, namespace, entries)
	}
	return nil
}

func (m *mockIndex) Query(ctx context.Context, namespace string, vector []float32, topK int, filter index.Filter) ([]index.Match, error) {
	return nil, nil
}

func (m *mockIndex) entries() []index.Entry {
	var all []index.Entry
	for _, batch := range m.upserts {
		all = append(all, batch...)
	}
	return all
}

type mockEnricher struct {
	enrichFn func(ctx context.Context, images []extract.Image) []enrich.Description
}

func (m *mockEnricher) Enrich(ctx context.Context, images []extract.Image) []enrich.Description {
	return m.enrichFn(ctx, images)
}

func textRequest(text string) Request {
	return Request{
		Artifact:   extract.Artifact{Data: []byte(text), Format: extract.FormatText},
		TenantCode: "acme",
		UserCode:   "acme-usr1",
		SourceID:   "notes.txt",
		SourceType: index.SourceTypeDocument,
	}
}

func TestIngestDocument(t *testing.T) {
	embedder := &mockEmbedder{}
	idx := &mockIndex{}
	p := New(nil, embedder, idx, 0, 0)

	res, err := p.Ingest(context.Background(), textRequest("The onboarding guide explains the first week."))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ChunkCount != 1 {
		t.Fatalf("expected 1 chunk, got %d", res.ChunkCount)
	}

	entries := idx.entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.TenantCode != "acme" || e.UserCode != "acme-usr1" {
		t.Errorf("ownership metadata wrong: %+v", e)
	}
	if e.SourceType != index.SourceTypeDocument || e.SourceID != "notes.txt" {
		t.Errorf("source metadata wrong: %+v", e)
	}
	if e.ChunkIndex != 0 {
		t.Errorf("chunk index = %d", e.ChunkIndex)
	}
	if e.ID != index.EntryID("acme", "notes.txt", 0) {
		t.Errorf("entry id not derived from tenant, source, and index")
	}
	if idx.spaces[0] != "acme" {
		t.Errorf("upsert namespace = %q, want tenant code", idx.spaces[0])
	}
}

func TestIngestIdempotentIDs(t *testing.T) {
	run := func() []index.Entry {
		idx := &mockIndex{}
		p := New(nil, &mockEmbedder{}, idx, 0, 0)
		if _, err := p.Ingest(context.Background(), textRequest(strings.Repeat("Stable content. ", 400))); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return idx.entries()
	}

	first := run()
	second := run()
	if len(first) == 0 || len(first) != len(second) {
		t.Fatalf("runs disagree on entry count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("entry %d id changed between identical runs", i)
		}
	}
}

func TestIngestEmptyArtifact(t *testing.T) {
	embedder := &mockEmbedder{}
	idx := &mockIndex{}
	p := New(nil, embedder, idx, 0, 0)

	res, err := p.Ingest(context.Background(), textRequest("   \n\t  "))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ChunkCount != 0 {
		t.Errorf("expected 0 chunks, got %d", res.ChunkCount)
	}
	if embedder.calls != 0 {
		t.Errorf("embedder called %d times for empty content", embedder.calls)
	}
	if len(idx.upserts) != 0 {
		t.Errorf("index written for empty content")
	}
}

func TestNewChunkingDefaults(t *testing.T) {
	p := New(nil, &mockEmbedder{}, &mockIndex{}, 0, 0)
	if p.maxChars != chunk.DefaultMaxChars {
		t.Errorf("maxChars = %d, want %d", p.maxChars, chunk.DefaultMaxChars)
	}
	if p.overlap != chunk.DefaultOverlap {
		t.Errorf("overlap = %d, want %d", p.overlap, chunk.DefaultOverlap)
	}

	p = New(nil, &mockEmbedder{}, &mockIndex{}, 1500, 100)
	if p.maxChars != 1500 || p.overlap != 100 {
		t.Errorf("explicit values overridden: %d/%d", p.maxChars, p.overlap)
	}
}

func TestIngestValidation(t *testing.T) {
	p := New(nil, &mockEmbedder{}, &mockIndex{}, 0, 0)

	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"missing tenant", func(r *Request) { r.TenantCode = " " }},
		{"missing source id", func(r *Request) { r.SourceID = "" }},
		{"unknown source type", func(r *Request) { r.SourceType = "emails" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := textRequest("content")
			tt.mutate(&req)
			if _, err := p.Ingest(context.Background(), req); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestIngestWebsiteHeader(t *testing.T) {
	idx := &mockIndex{}
	p := New(nil, &mockEmbedder{}, idx, 0, 0)

	page := `<html><head><title>Pricing</title></head><body><p>Plans start at ten dollars.</p></body></html>`
	req := Request{
		Artifact:   extract.Artifact{Data: []byte(page), Format: extract.FormatHTML, BaseURL: "https://example.com/pricing"},
		TenantCode: "acme",
		UserCode:   "acme-usr1",
		SourceID:   "https://example.com/pricing",
		SourceType: index.SourceTypeWebsite,
	}
	res, err := p.Ingest(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Title != "Pricing" {
		t.Errorf("title = %q", res.Title)
	}

	entries := idx.entries()
	if len(entries) == 0 {
		t.Fatal("no entries written")
	}
	text := entries[0].Text
	if !strings.Contains(text, "Website: https://example.com/pricing") || !strings.Contains(text, "Title: Pricing") {
		t.Errorf("page header missing from first chunk: %q", text)
	}
	if entries[0].SourceType != index.SourceTypeWebsite {
		t.Errorf("source type = %q", entries[0].SourceType)
	}
}

func TestIngestEnrichmentAppended(t *testing.T) {
	idx := &mockIndex{}
	enricher := &mockEnricher{enrichFn: func(ctx context.Context, images []extract.Image) []enrich.Description {
		return []enrich.Description{{Position: 0, Text: "a bar chart of quarterly revenue"}}
	}}
	p := New(enricher, &mockEmbedder{}, idx, 0, 0)

	page := `<html><body><p>See the chart.</p><img src="https://example.com/chart.png"></body></html>`
	req := Request{
		Artifact:   extract.Artifact{Data: []byte(page), Format: extract.FormatHTML},
		TenantCode: "acme",
		SourceID:   "https://example.com/report",
		SourceType: index.SourceTypeWebsite,
	}
	if _, err := p.Ingest(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := idx.entries()
	if len(entries) == 0 {
		t.Fatal("no entries written")
	}
	text := entries[0].Text
	if !strings.Contains(text, "VISUAL CONTENT") {
		t.Errorf("visual section missing: %q", text)
	}
	if !strings.Contains(text, "[IMAGE 1]: a bar chart of quarterly revenue") {
		t.Errorf("description missing: %q", text)
	}
}

func TestIngestEmbedErrorPropagates(t *testing.T) {
	wantErr := errors.New("rate limited")
	embedder := &mockEmbedder{embedFn: func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, wantErr
	}}
	idx := &mockIndex{}
	p := New(nil, embedder, idx, 0, 0)

	_, err := p.Ingest(context.Background(), textRequest("content"))
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped embed error, got %v", err)
	}
	if len(idx.upserts) != 0 {
		t.Error("index written despite embed failure")
	}
}

func TestIngestPartialUpsertReported(t *testing.T) {
	calls := 0
	idx := &mockIndex{upsertFn: func(ctx context.Context, namespace string, entries []index.Entry) error {
		calls++
		if calls > 1 {
			return errors.New("connection reset")
		}
		return nil
	}}
	p := New(nil, &mockEmbedder{}, idx, 100, 10)
	p.upsertBatch = 2

	// Enough distinct sentences for several 100-char chunks.
	var sb strings.Builder
	for i := 0; i < 12; i++ {
		sb.WriteString("Sentence number ")
		sb.WriteByte(byte('a' + i))
		sb.WriteString(" fills out this line with useful content. ")
	}

	res, err := p.Ingest(context.Background(), textRequest(sb.String()))
	if err == nil {
		t.Fatal("expected upsert error")
	}
	if res.ChunkCount != 2 {
		t.Errorf("partial count = %d, want the 2 chunks of the first batch", res.ChunkCount)
	}
	if !strings.Contains(err.Error(), "wrote 2 of") {
		t.Errorf("error should report partial progress: %v", err)
	}
}
