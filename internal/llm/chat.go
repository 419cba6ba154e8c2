package llm

import (
	"context"
	"fmt"
	"strings"

	openaichat "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const (
	answerTemperature = 0.2

	visionTemperature = 0.1
	visionMaxTokens   = 500
	visionPrompt      = "Describe this image in detail. Include any text, charts, " +
		"diagrams, tables, or visual information. If it contains data or " +
		"specific details, extract them precisely. This will be used for " +
		"content search."
)

// Chat wraps an OpenAI-compatible chat-completion endpoint. Answer
// synthesis and image description can run on different models behind the
// same interface.
type Chat struct {
	answer model.BaseChatModel
	vision model.BaseChatModel
}

func NewChat(ctx context.Context, cfg Config) (*Chat, error) {
	answer, err := openaichat.NewChatModel(ctx, &openaichat.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.ChatModel,
	})
	if err != nil {
		return nil, fmt.Errorf("creating chat client: %w", err)
	}

	vision := answer
	if cfg.VisionModel != "" && cfg.VisionModel != cfg.ChatModel {
		vision, err = openaichat.NewChatModel(ctx, &openaichat.ChatModelConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.VisionModel,
		})
		if err != nil {
			return nil, fmt.Errorf("creating vision client: %w", err)
		}
	}

	return &Chat{answer: answer, vision: vision}, nil
}

// Complete sends one user prompt at the low answering temperature and
// returns the completion text.
func (c *Chat) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := c.answer.Generate(ctx,
		[]*schema.Message{schema.UserMessage(prompt)},
		model.WithTemperature(answerTemperature),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrChatService, err)
	}
	if out == nil {
		return "", fmt.Errorf("%w: empty completion", ErrChatService)
	}
	return strings.TrimSpace(out.Content), nil
}

// DescribeImage asks the vision model for a searchable description of an
// image supplied as a base64 data URL.
func (c *Chat) DescribeImage(ctx context.Context, dataURL string) (string, error) {
	msg := &schema.Message{
		Role: schema.User,
		MultiContent: []schema.ChatMessagePart{
			{
				Type: schema.ChatMessagePartTypeText,
				Text: visionPrompt,
			},
			{
				Type: schema.ChatMessagePartTypeImageURL,
				ImageURL: &schema.ChatMessageImageURL{
					URL:    dataURL,
					Detail: schema.ImageURLDetailHigh,
				},
			},
		},
	}

	out, err := c.vision.Generate(ctx,
		[]*schema.Message{msg},
		model.WithTemperature(visionTemperature),
		model.WithMaxTokens(visionMaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrChatService, err)
	}
	if out == nil {
		return "", fmt.Errorf("%w: empty completion", ErrChatService)
	}
	return strings.TrimSpace(out.Content), nil
}
