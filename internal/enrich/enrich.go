// Package enrich turns the images discovered during extraction into text
// descriptions so visual content becomes searchable alongside prose.
package enrich

import (
	"context"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/arneklein/askdocs/internal/extract"
)

// Describer produces a text description for an image given as a base64
// data URL.
type Describer interface {
	DescribeImage(ctx context.Context, dataURL string) (string, error)
}

// ImageFetcher downloads linked images.
type ImageFetcher interface {
	FetchImage(ctx context.Context, url string) ([]byte, error)
}

// Config bounds the cost of one enrichment pass.
type Config struct {
	MaxImages        int           // candidates processed per artifact
	MaxConcurrency   int           // images in flight at once
	ItemTimeout      time.Duration // download plus describe, per image
	OverallTimeout   time.Duration // the whole pass
	MinDimension     int           // skip images smaller than this, px
	MaxBytes         int           // skip payloads larger than this
	MaxSendDimension int           // downscale longer side to this before sending
}

func (c *Config) applyDefaults() {
	if c.MaxImages <= 0 {
		c.MaxImages = 10
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = 3
	}
	if c.ItemTimeout <= 0 {
		c.ItemTimeout = 7 * time.Second
	}
	if c.OverallTimeout <= 0 {
		c.OverallTimeout = 60 * time.Second
	}
	if c.MinDimension <= 0 {
		c.MinDimension = 50
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 5 << 20
	}
	if c.MaxSendDimension <= 0 {
		c.MaxSendDimension = 2048
	}
}

// Description is one successful outcome, tagged with the source image's
// discovery position.
type Description struct {
	Position int
	Text     string
}

// Coordinator fans out image downloads and vision calls under a weighted
// semaphore so one artifact cannot monopolize the upstream services.
type Coordinator struct {
	fetcher   ImageFetcher
	describer Describer
	cfg       Config
}

func NewCoordinator(fetcher ImageFetcher, describer Describer, cfg Config) *Coordinator {
	cfg.applyDefaults()
	return &Coordinator{fetcher: fetcher, describer: describer, cfg: cfg}
}

// Enrich describes up to MaxImages of the given images. Per-image failures
// and skips produce no description and never abort sibling work. When the
// overall deadline passes, whatever has completed is returned; a task
// stuck past its own timeout cannot hold the pass hostage. Results come
// back ordered by discovery position.
func (c *Coordinator) Enrich(ctx context.Context, images []extract.Image) []Description {
	if len(images) == 0 {
		return nil
	}
	if len(images) > c.cfg.MaxImages {
		images = images[:c.cfg.MaxImages]
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.OverallTimeout)
	defer cancel()

	sem := semaphore.NewWeighted(int64(c.cfg.MaxConcurrency))
	var (
		mu  sync.Mutex
		out []Description
		wg  sync.WaitGroup
	)

	for _, img := range images {
		wg.Add(1)
		go func(img extract.Image) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				return // overall deadline passed while queued
			}
			defer sem.Release(1)

			text := c.describeOne(ctx, img)
			if text == "" {
				return
			}
			mu.Lock()
			out = append(out, Description{Position: img.Position, Text: text})
			mu.Unlock()
		}(img)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		slog.Warn("enrichment pass hit overall deadline, keeping partial results")
	}

	mu.Lock()
	defer mu.Unlock()
	results := make([]Description, len(out))
	copy(results, out)
	sort.Slice(results, func(i, j int) bool { return results[i].Position < results[j].Position })
	return results
}

func (c *Coordinator) describeOne(parent context.Context, img extract.Image) string {
	ctx, cancel := context.WithTimeout(parent, c.cfg.ItemTimeout)
	defer cancel()

	data := img.Data
	if data == nil {
		if isVectorImage(img.URL) {
			return ""
		}
		b, err := c.fetcher.FetchImage(ctx, img.URL)
		if err != nil {
			slog.Warn("image download failed", "url", img.URL, "error", err)
			return ""
		}
		data = b
	}

	if len(data) > c.cfg.MaxBytes {
		slog.Debug("image skipped, payload too large", "url", img.URL, "bytes", len(data))
		return ""
	}

	dataURL, err := prepareImage(data, c.cfg.MinDimension, c.cfg.MaxSendDimension)
	if err != nil {
		slog.Debug("image skipped", "url", img.URL, "reason", err)
		return ""
	}

	text, err := c.describer.DescribeImage(ctx, dataURL)
	if err != nil {
		slog.Warn("image description failed", "url", img.URL, "error", err)
		return ""
	}
	return strings.TrimSpace(text)
}

// isVectorImage filters SVG references, which raster decoding cannot
// handle.
func isVectorImage(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return strings.Contains(strings.ToLower(rawURL), ".svg")
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".svg")
}
