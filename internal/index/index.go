// Package index persists embedded chunks in a tenant-partitioned vector
// store and serves filtered similarity queries over them.
package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrIndexService marks vector store failures on either the write or the
// read path.
var ErrIndexService = errors.New("vector index service error")

// Source type values stored with every entry.
const (
	SourceTypeDocument = "document"
	SourceTypeWebsite  = "website"
)

// Entry is the persisted unit: one chunk's vector plus the metadata needed
// for filtering and attribution.
type Entry struct {
	ID         string
	Vector     []float32
	TenantCode string
	UserCode   string
	SourceType string
	SourceID   string // stored file name or page URL
	ChunkIndex int
	Text       string
}

// Match is one query hit. Results come back ordered by descending Score,
// where higher means more similar.
type Match struct {
	Score      float32
	TenantCode string
	UserCode   string
	SourceType string
	SourceID   string
	ChunkIndex int
	Text       string
}

// Filter is a conjunction of exact-match predicates over entry metadata.
// TenantCode is mandatory; empty optional fields are not applied.
type Filter struct {
	TenantCode string
	UserCode   string
	SourceType string
}

// Index is the vector store behind ingestion and retrieval. The namespace
// is the tenant partition: entries written under one namespace are never
// visible to queries under another.
type Index interface {
	Upsert(ctx context.Context, namespace string, entries []Entry) error
	Query(ctx context.Context, namespace string, vector []float32, topK int, filter Filter) ([]Match, error)
}

// EntryID derives the deterministic id for one chunk of one source, so
// re-ingesting the same source overwrites its entries instead of
// duplicating them.
func EntryID(tenantCode, sourceID string, chunkIndex int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%d", tenantCode, sourceID, chunkIndex)))
	return hex.EncodeToString(sum[:])
}
