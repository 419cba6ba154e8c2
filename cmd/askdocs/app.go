package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/arneklein/askdocs/internal/answer"
	"github.com/arneklein/askdocs/internal/config"
	"github.com/arneklein/askdocs/internal/enrich"
	"github.com/arneklein/askdocs/internal/index"
	"github.com/arneklein/askdocs/internal/ingest"
	"github.com/arneklein/askdocs/internal/llm"
	"github.com/arneklein/askdocs/internal/logging"
	"github.com/arneklein/askdocs/internal/scrape"
)

// app holds the service clients wired once per invocation.
type app struct {
	cfg      config.Config
	fetcher  *scrape.Fetcher
	pipeline *ingest.Pipeline
	engine   *answer.Engine
	idx      *index.Milvus
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logging.Init(cfg.Log.Level, cfg.Log.Format)

	llmCfg := llm.Config{
		APIKey:         cfg.OpenAI.APIKey,
		BaseURL:        cfg.OpenAI.BaseURL,
		EmbedModel:     cfg.OpenAI.EmbedModel,
		ChatModel:      cfg.OpenAI.ChatModel,
		VisionModel:    cfg.OpenAI.VisionModel,
		EmbedBatchSize: cfg.OpenAI.EmbedBatchSize,
	}
	embedder, err := llm.NewEmbedder(ctx, llmCfg)
	if err != nil {
		return nil, err
	}
	chat, err := llm.NewChat(ctx, llmCfg)
	if err != nil {
		return nil, err
	}

	idx, err := index.NewMilvus(ctx, index.MilvusConfig{
		Address:    cfg.Milvus.Address,
		Username:   cfg.Milvus.Username,
		Password:   cfg.Milvus.Password,
		Collection: cfg.Milvus.Collection,
		Dimension:  cfg.Milvus.Dimension,
	})
	if err != nil {
		return nil, err
	}

	fetcher := scrape.NewFetcher(
		cfg.Scrape.Timeout(),
		cfg.Scrape.ConnectTimeout(),
		cfg.Scrape.MaxPageBytes,
		cfg.Scrape.MaxImageBytes,
	)

	enricher := enrich.NewCoordinator(fetcher, chat, enrich.Config{
		MaxImages:        cfg.Enrichment.MaxImages,
		MaxConcurrency:   cfg.Enrichment.MaxConcurrency,
		ItemTimeout:      cfg.Enrichment.ItemTimeout(),
		OverallTimeout:   cfg.Enrichment.OverallTimeout(),
		MinDimension:     cfg.Enrichment.MinDimensionPx,
		MaxBytes:         cfg.Enrichment.MaxImageBytes,
		MaxSendDimension: cfg.Enrichment.MaxSendDimensionPx,
	})

	return &app{
		cfg:      cfg,
		fetcher:  fetcher,
		pipeline: ingest.New(enricher, embedder, idx, cfg.Chunking.MaxChars, cfg.Chunking.OverlapChars),
		engine:   answer.NewEngine(embedder, idx, chat, cfg.Query.TopK, cfg.Query.MaxContexts),
		idx:      idx,
	}, nil
}

func (a *app) Close() {
	if a.idx != nil {
		if err := a.idx.Close(); err != nil {
			slog.Warn("closing index connection", "error", err)
		}
	}
}
