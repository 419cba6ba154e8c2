// Package config loads settings from an optional YAML file, a .env file,
// and ASKDOCS_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	OpenAI     OpenAI     `yaml:"openai"`
	Milvus     Milvus     `yaml:"milvus"`
	Chunking   Chunking   `yaml:"chunking"`
	Enrichment Enrichment `yaml:"enrichment"`
	Scrape     Scrape     `yaml:"scrape"`
	Query      Query      `yaml:"query"`
	Log        Log        `yaml:"log"`
}

// OpenAI configures the OpenAI-compatible embedding and chat services.
// Credentials never come from the YAML file.
type OpenAI struct {
	APIKey         string `yaml:"-"`
	BaseURL        string `yaml:"base_url"`
	EmbedModel     string `yaml:"embed_model"`
	ChatModel      string `yaml:"chat_model"`
	VisionModel    string `yaml:"vision_model"`
	EmbedBatchSize int    `yaml:"embed_batch_size"`
}

type Milvus struct {
	Address    string `yaml:"address"`
	Username   string `yaml:"username"`
	Password   string `yaml:"-"`
	Collection string `yaml:"collection"`
	Dimension  int    `yaml:"dimension"`
}

type Chunking struct {
	MaxChars     int `yaml:"max_chars"`
	OverlapChars int `yaml:"overlap_chars"`
}

type Enrichment struct {
	MaxImages          int `yaml:"max_images"`
	MaxConcurrency     int `yaml:"max_concurrency"`
	ItemTimeoutSecs    int `yaml:"item_timeout_secs"`
	OverallTimeoutSecs int `yaml:"overall_timeout_secs"`
	MinDimensionPx     int `yaml:"min_dimension_px"`
	MaxImageBytes      int `yaml:"max_image_bytes"`
	MaxSendDimensionPx int `yaml:"max_send_dimension_px"`
}

func (e Enrichment) ItemTimeout() time.Duration {
	return time.Duration(e.ItemTimeoutSecs) * time.Second
}

func (e Enrichment) OverallTimeout() time.Duration {
	return time.Duration(e.OverallTimeoutSecs) * time.Second
}

type Scrape struct {
	TimeoutSecs        int   `yaml:"timeout_secs"`
	ConnectTimeoutSecs int   `yaml:"connect_timeout_secs"`
	MaxPageBytes       int64 `yaml:"max_page_bytes"`
	MaxImageBytes      int64 `yaml:"max_image_bytes"`
}

func (s Scrape) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

func (s Scrape) ConnectTimeout() time.Duration {
	return time.Duration(s.ConnectTimeoutSecs) * time.Second
}

type Query struct {
	TopK        int `yaml:"top_k"`
	MaxContexts int `yaml:"max_contexts"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func defaults() Config {
	return Config{
		OpenAI: OpenAI{
			EmbedModel:     "text-embedding-3-large",
			ChatModel:      "gpt-4o",
			EmbedBatchSize: 32,
		},
		Milvus: Milvus{
			Address:    "localhost:19530",
			Collection: "kb_chunks",
			Dimension:  3072,
		},
		Chunking: Chunking{
			MaxChars:     3000,
			OverlapChars: 400,
		},
		Enrichment: Enrichment{
			MaxImages:          10,
			MaxConcurrency:     3,
			ItemTimeoutSecs:    7,
			OverallTimeoutSecs: 60,
			MinDimensionPx:     50,
			MaxImageBytes:      5 << 20,
			MaxSendDimensionPx: 2048,
		},
		Scrape: Scrape{
			TimeoutSecs:        12,
			ConnectTimeoutSecs: 4,
			MaxPageBytes:       5 << 20,
			MaxImageBytes:      5 << 20,
		},
		Query: Query{
			TopK:        8,
			MaxContexts: 12,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration. path may be empty, in which case
// config.yaml in the working directory is tried. A missing file is only an
// error when an explicit path was given.
func Load(path string) (Config, error) {
	cfg := defaults()

	explicit := path != ""
	if path == "" {
		path = "config.yaml"
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// Defaults plus environment are enough.
	default:
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	// A .env file is a convenience for local runs. Its absence is fine and
	// it never overrides the real environment.
	_ = godotenv.Load()

	applyEnv(&cfg)

	if cfg.OpenAI.APIKey == "" {
		return Config{}, fmt.Errorf("missing OpenAI API key: set OPENAI_API_KEY or ASKDOCS_OPENAI_API_KEY")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	envStr("ASKDOCS_OPENAI_API_KEY", &cfg.OpenAI.APIKey)
	if cfg.OpenAI.APIKey == "" {
		envStr("OPENAI_API_KEY", &cfg.OpenAI.APIKey)
	}
	envStr("ASKDOCS_OPENAI_BASE_URL", &cfg.OpenAI.BaseURL)
	envStr("ASKDOCS_EMBED_MODEL", &cfg.OpenAI.EmbedModel)
	envStr("ASKDOCS_CHAT_MODEL", &cfg.OpenAI.ChatModel)
	envStr("ASKDOCS_VISION_MODEL", &cfg.OpenAI.VisionModel)

	envStr("ASKDOCS_MILVUS_ADDRESS", &cfg.Milvus.Address)
	envStr("ASKDOCS_MILVUS_USERNAME", &cfg.Milvus.Username)
	envStr("ASKDOCS_MILVUS_PASSWORD", &cfg.Milvus.Password)
	envStr("ASKDOCS_MILVUS_COLLECTION", &cfg.Milvus.Collection)
	envInt("ASKDOCS_MILVUS_DIMENSION", &cfg.Milvus.Dimension)

	envInt("ASKDOCS_CHUNK_MAX_CHARS", &cfg.Chunking.MaxChars)
	envInt("ASKDOCS_CHUNK_OVERLAP_CHARS", &cfg.Chunking.OverlapChars)

	envInt("ASKDOCS_QUERY_TOP_K", &cfg.Query.TopK)

	envStr("ASKDOCS_LOG_LEVEL", &cfg.Log.Level)
	envStr("ASKDOCS_LOG_FORMAT", &cfg.Log.Format)
}

func envStr(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
