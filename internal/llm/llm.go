// Package llm wraps the OpenAI-compatible embedding and chat services
// behind small clients the pipeline and the answer engine consume.
package llm

import "errors"

var (
	// ErrEmbeddingService marks upstream embedding failures.
	ErrEmbeddingService = errors.New("embedding service error")
	// ErrChatService marks upstream completion failures.
	ErrChatService = errors.New("chat service error")
)

// Config carries the shared service settings for both clients. BaseURL is
// empty for the hosted OpenAI API and set for compatible gateways.
type Config struct {
	APIKey         string
	BaseURL        string
	EmbedModel     string
	ChatModel      string
	VisionModel    string // empty means reuse ChatModel
	EmbedBatchSize int
}
