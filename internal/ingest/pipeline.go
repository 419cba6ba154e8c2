// Package ingest runs artifacts through the extract, enrich, chunk, embed,
// and index stages that make them answerable.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arneklein/askdocs/internal/chunk"
	"github.com/arneklein/askdocs/internal/enrich"
	"github.com/arneklein/askdocs/internal/extract"
	"github.com/arneklein/askdocs/internal/index"
)

const defaultUpsertBatch = 100

// Enricher describes an artifact's images. A nil Enricher disables visual
// enrichment.
type Enricher interface {
	Enrich(ctx context.Context, images []extract.Image) []enrich.Description
}

// Embedder turns chunk texts into vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Pipeline is the ingestion coordinator. It is safe for concurrent use as
// long as its collaborators are.
type Pipeline struct {
	enricher    Enricher
	embedder    Embedder
	index       index.Index
	maxChars    int
	overlap     int
	upsertBatch int
}

func New(enricher Enricher, embedder Embedder, idx index.Index, maxChars, overlap int) *Pipeline {
	if maxChars <= 0 {
		maxChars = chunk.DefaultMaxChars
	}
	if overlap <= 0 {
		overlap = chunk.DefaultOverlap
	}
	return &Pipeline{
		enricher:    enricher,
		embedder:    embedder,
		index:       idx,
		maxChars:    maxChars,
		overlap:     overlap,
		upsertBatch: defaultUpsertBatch,
	}
}

// Request identifies one artifact and who it belongs to. SourceID is the
// stored file name for documents and the page URL for websites; together
// with the tenant code it determines the entry ids, so re-ingesting the
// same source replaces its chunks.
type Request struct {
	Artifact   extract.Artifact
	TenantCode string
	UserCode   string
	SourceID   string
	SourceType string
}

// Result reports what one ingestion produced. On error ChunkCount still
// carries how many chunks were indexed before the failure.
type Result struct {
	ChunkCount int
	Title      string
}

func (r Request) validate() error {
	if strings.TrimSpace(r.TenantCode) == "" {
		return errors.New("tenant code is required")
	}
	if strings.TrimSpace(r.SourceID) == "" {
		return errors.New("source id is required")
	}
	switch r.SourceType {
	case index.SourceTypeDocument, index.SourceTypeWebsite:
		return nil
	default:
		return fmt.Errorf("unknown source type %q", r.SourceType)
	}
}

// Ingest runs the full pipeline for one artifact. An artifact that yields
// no text after extraction is a no-op, not an error: nothing is embedded
// and nothing reaches the index.
func (p *Pipeline) Ingest(ctx context.Context, req Request) (Result, error) {
	if err := req.validate(); err != nil {
		return Result{}, err
	}

	content, err := extract.Extract(req.Artifact)
	if err != nil {
		return Result{}, fmt.Errorf("extracting %s: %w", req.SourceID, err)
	}

	text := content.Text
	if req.SourceType == index.SourceTypeWebsite {
		// The page header lets retrieval surface where a chunk came from
		// even after chunking detaches it from its document.
		text = fmt.Sprintf("Website: %s\nTitle: %s\n\n%s", req.SourceID, content.Title, content.Text)
	}

	if p.enricher != nil && len(content.Images) > 0 {
		if descriptions := p.enricher.Enrich(ctx, content.Images); len(descriptions) > 0 {
			text = appendDescriptions(text, descriptions)
		}
	}

	chunks := chunk.Split(text, p.maxChars, p.overlap)
	if len(chunks) == 0 {
		slog.Debug("nothing to index", "tenant", req.TenantCode, "source", req.SourceID)
		return Result{Title: content.Title}, nil
	}

	vectors, err := p.embedder.Embed(ctx, chunks)
	if err != nil {
		return Result{Title: content.Title}, fmt.Errorf("embedding %d chunks of %s: %w", len(chunks), req.SourceID, err)
	}
	if len(vectors) != len(chunks) {
		return Result{Title: content.Title}, fmt.Errorf("embedding %s: got %d vectors for %d chunks", req.SourceID, len(vectors), len(chunks))
	}

	entries := make([]index.Entry, len(chunks))
	for i, c := range chunks {
		entries[i] = index.Entry{
			ID:         index.EntryID(req.TenantCode, req.SourceID, i),
			Vector:     vectors[i],
			TenantCode: req.TenantCode,
			UserCode:   req.UserCode,
			SourceType: req.SourceType,
			SourceID:   req.SourceID,
			ChunkIndex: i,
			Text:       c,
		}
	}

	written := 0
	for start := 0; start < len(entries); start += p.upsertBatch {
		end := start + p.upsertBatch
		if end > len(entries) {
			end = len(entries)
		}
		if err := p.index.Upsert(ctx, req.TenantCode, entries[start:end]); err != nil {
			// Chunks already written stay; the deterministic ids make a
			// retry overwrite them instead of duplicating.
			return Result{ChunkCount: written, Title: content.Title},
				fmt.Errorf("indexing %s (wrote %d of %d chunks): %w", req.SourceID, written, len(entries), err)
		}
		written = end
	}

	slog.Info("artifact indexed",
		"tenant", req.TenantCode,
		"source", req.SourceID,
		"type", req.SourceType,
		"chunks", written,
	)
	return Result{ChunkCount: written, Title: content.Title}, nil
}

func appendDescriptions(text string, descriptions []enrich.Description) string {
	var sb strings.Builder
	sb.WriteString(text)
	sb.WriteString("\n\n=== VISUAL CONTENT ===\n")
	for _, d := range descriptions {
		fmt.Fprintf(&sb, "\n[IMAGE %d]: %s\n", d.Position+1, d.Text)
	}
	return sb.String()
}
