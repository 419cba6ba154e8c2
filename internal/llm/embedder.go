package llm

import (
	"context"
	"fmt"

	openaiembed "github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino/components/embedding"
)

const defaultEmbedBatchSize = 32

// Embedder turns texts into vectors through an OpenAI-compatible embedding
// endpoint, batching requests to stay under payload limits.
type Embedder struct {
	embedder  embedding.Embedder
	batchSize int
}

func NewEmbedder(ctx context.Context, cfg Config) (*Embedder, error) {
	e, err := openaiembed.NewEmbedder(ctx, &openaiembed.EmbeddingConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.EmbedModel,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedding client: %w", err)
	}

	batch := cfg.EmbedBatchSize
	if batch <= 0 {
		batch = defaultEmbedBatchSize
	}
	return &Embedder{embedder: e, batchSize: batch}, nil
}

// Embed returns one vector per input text, in input order. A nil result
// with nil error means there was nothing to embed.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		vectors, err := e.embedder.EmbedStrings(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEmbeddingService, err)
		}
		if len(vectors) != end-start {
			return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbeddingService, len(vectors), end-start)
		}

		for _, v := range vectors {
			vec := make([]float32, len(v))
			for i, x := range v {
				vec[i] = float32(x)
			}
			out = append(out, vec)
		}
	}
	return out, nil
}
