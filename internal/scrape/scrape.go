// Package scrape downloads web pages and images with bounded size and
// time, for tenants that index websites instead of uploads.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const (
	defaultTimeout        = 12 * time.Second
	defaultConnectTimeout = 4 * time.Second
	defaultMaxPageBytes   = 5 << 20
	defaultMaxImageBytes  = 5 << 20

	userAgent = "askdocs/1.0 (+https://github.com/arneklein/askdocs)"
)

// Fetcher is an HTTP client with scraping limits applied. The zero value is
// not usable; construct with NewFetcher.
type Fetcher struct {
	client        *http.Client
	maxPageBytes  int64
	maxImageBytes int64
}

// Page is a fetched document: the HTML bytes plus the URL the request
// resolved to after redirects, which relative references resolve against.
type Page struct {
	URL  string
	HTML []byte
}

// NewFetcher builds a Fetcher. Zero or negative arguments fall back to the
// package defaults.
func NewFetcher(timeout, connectTimeout time.Duration, maxPageBytes, maxImageBytes int64) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}
	if maxPageBytes <= 0 {
		maxPageBytes = defaultMaxPageBytes
	}
	if maxImageBytes <= 0 {
		maxImageBytes = defaultMaxImageBytes
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: connectTimeout,
		MaxIdleConnsPerHost: 8,
	}

	return &Fetcher{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		maxPageBytes:  maxPageBytes,
		maxImageBytes: maxImageBytes,
	}
}

// FetchPage downloads one page, following redirects and truncating the body
// at the page size cap.
func (f *Fetcher) FetchPage(ctx context.Context, rawURL string) (*Page, error) {
	body, finalURL, err := f.get(ctx, rawURL, f.maxPageBytes, false)
	if err != nil {
		return nil, fmt.Errorf("fetching page %s: %w", rawURL, err)
	}
	return &Page{URL: finalURL, HTML: body}, nil
}

// FetchImage downloads one image. Unlike pages, oversize images fail
// instead of truncating, since a cut-off image cannot be decoded. The
// caller's context carries the per-image deadline.
func (f *Fetcher) FetchImage(ctx context.Context, rawURL string) ([]byte, error) {
	body, _, err := f.get(ctx, rawURL, f.maxImageBytes, true)
	if err != nil {
		return nil, fmt.Errorf("fetching image %s: %w", rawURL, err)
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string, maxBytes int64, strict bool) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(body)) > maxBytes {
		if strict {
			return nil, "", fmt.Errorf("body exceeds %d bytes", maxBytes)
		}
		body = body[:maxBytes]
	}

	return body, resp.Request.URL.String(), nil
}
