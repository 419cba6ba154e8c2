// Package answer turns a tenant's question into a grounded response:
// embed the question, retrieve the closest chunks under the tenant's
// filters, synthesize from them, and clean the result for display.
package answer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arneklein/askdocs/internal/index"
)

var (
	// ErrNoRelevantResults reports a query whose matches all fell below
	// the minimum score, or that matched nothing at all. Callers decide
	// whether that surfaces as a not-found status or a fallback sentence.
	ErrNoRelevantResults = errors.New("no relevant results")

	// ErrInvalidFilter reports an out-of-range score threshold or an
	// unknown source type. It is raised before any service call.
	ErrInvalidFilter = errors.New("invalid filter")
)

// Source filter values accepted in a Request.
const (
	SourcesAll       = "all"
	SourcesDocuments = "documents"
	SourcesWebsites  = "websites"
)

const (
	defaultTopK        = 8
	maxTopK            = 50
	defaultMaxContexts = 12
)

// Embedder produces the question vector.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Completer synthesizes the answer text from a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Engine wires retrieval and synthesis together. Construct with NewEngine.
type Engine struct {
	embedder    Embedder
	index       index.Index
	chat        Completer
	topK        int
	maxContexts int
}

func NewEngine(embedder Embedder, idx index.Index, chat Completer, topK, maxContexts int) *Engine {
	if topK <= 0 {
		topK = defaultTopK
	}
	if maxContexts <= 0 {
		maxContexts = defaultMaxContexts
	}
	return &Engine{
		embedder:    embedder,
		index:       idx,
		chat:        chat,
		topK:        topK,
		maxContexts: maxContexts,
	}
}

// Request carries one question with its retrieval filters. TopK zero means
// the engine default; UserCode empty means all of the tenant's users;
// SourceType empty means all sources.
type Request struct {
	TenantCode string
	Question   string
	TopK       int
	UserCode   string
	SourceType string
	MinScore   float32
}

// Result is a synthesized answer plus the distinct sources it drew from,
// in relevance order.
type Result struct {
	Answer  string
	Sources []string
}

// Answer runs the retrieval and synthesis pass for one question.
func (e *Engine) Answer(ctx context.Context, req Request) (*Result, error) {
	req.TenantCode = strings.TrimSpace(req.TenantCode)
	req.Question = strings.TrimSpace(req.Question)
	if req.TenantCode == "" {
		return nil, errors.New("tenant code is required")
	}
	if req.Question == "" {
		return nil, errors.New("question is required")
	}
	if req.MinScore < 0 || req.MinScore > 1 {
		return nil, fmt.Errorf("%w: min score %.2f outside [0, 1]", ErrInvalidFilter, req.MinScore)
	}
	sourceType, err := sourceTypeFilter(req.SourceType)
	if err != nil {
		return nil, err
	}

	topK := req.TopK
	if topK <= 0 {
		topK = e.topK
	}
	if topK > maxTopK {
		topK = maxTopK
	}

	vectors, err := e.embedder.Embed(ctx, []string{req.Question})
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedding question: got %d vectors", len(vectors))
	}

	matches, err := e.index.Query(ctx, req.TenantCode, vectors[0], topK, index.Filter{
		TenantCode: req.TenantCode,
		UserCode:   req.UserCode,
		SourceType: sourceType,
	})
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}

	kept := matches[:0:0]
	for _, m := range matches {
		if m.Score >= req.MinScore && m.Text != "" {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		slog.Debug("no matches above threshold",
			"tenant", req.TenantCode,
			"matches", len(matches),
			"min_score", req.MinScore,
		)
		return nil, ErrNoRelevantResults
	}

	limit := len(kept)
	if limit > e.maxContexts {
		limit = e.maxContexts
	}
	contexts := make([]string, 0, limit)
	for _, m := range kept[:limit] {
		contexts = append(contexts, m.Text)
	}

	raw, err := e.chat.Complete(ctx, buildPrompt(req.Question, contexts))
	if err != nil {
		return nil, fmt.Errorf("synthesizing answer: %w", err)
	}

	return &Result{
		Answer:  Clean(raw),
		Sources: distinctSources(kept),
	}, nil
}

func sourceTypeFilter(s string) (string, error) {
	switch s {
	case "", SourcesAll:
		return "", nil
	case SourcesDocuments:
		return index.SourceTypeDocument, nil
	case SourcesWebsites:
		return index.SourceTypeWebsite, nil
	default:
		return "", fmt.Errorf("%w: source type %q (want all, documents, or websites)", ErrInvalidFilter, s)
	}
}

// distinctSources keeps the first occurrence of each source id, preserving
// relevance order.
func distinctSources(matches []index.Match) []string {
	seen := make(map[string]bool, len(matches))
	sources := make([]string, 0, len(matches))
	for _, m := range matches {
		if m.SourceID == "" || seen[m.SourceID] {
			continue
		}
		seen[m.SourceID] = true
		sources = append(sources, m.SourceID)
	}
	return sources
}
