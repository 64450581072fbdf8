// Package web fetches pages for the link store and reduces them to plain text.
package web

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jaytaylor/html2text"

	"github.com/kailas-cloud/duet/internal/domain"
)

// Defaults applied when Config leaves a field zero.
const (
	DefaultTimeout   = 15 * time.Second
	DefaultMaxBytes  = 5 << 20
	DefaultUserAgent = "duet-crawler/1.0"
)

// Config controls outbound fetches.
type Config struct {
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string
}

// Crawler downloads a URL and extracts its readable text.
type Crawler struct {
	client   *resty.Client
	maxBytes int64
}

// NewCrawler creates a crawler with bounded timeout and response size.
func NewCrawler(cfg Config) *Crawler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	c := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,text/plain;q=0.9,*/*;q=0.5").
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))
	return &Crawler{client: c, maxBytes: cfg.MaxBytes}
}

// Fetch returns the text content of rawURL.
// HTML is converted with links omitted; text/* and JSON bodies pass through.
func (c *Crawler) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := ValidateURL(rawURL); err != nil {
		return "", err
	}

	resp, err := c.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrFetchFailed, rawURL, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: %s: status %d", domain.ErrFetchFailed, rawURL, resp.StatusCode())
	}
	body := resp.Body()
	if int64(len(body)) > c.maxBytes {
		return "", fmt.Errorf("fetch %s: body exceeds %d bytes: %w", rawURL, c.maxBytes, domain.ErrValidation)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header().Get("Content-Type"))
	switch {
	case mediaType == "" || mediaType == "text/html" || mediaType == "application/xhtml+xml":
		text, err := html2text.FromString(string(body), html2text.Options{OmitLinks: true, TextOnly: true})
		if err != nil {
			return "", fmt.Errorf("html to text: %w", err)
		}
		return strings.TrimSpace(text), nil
	case strings.HasPrefix(mediaType, "text/"), mediaType == "application/json":
		return strings.TrimSpace(string(body)), nil
	default:
		return "", fmt.Errorf("content type %q: %w", mediaType, domain.ErrUnsupportedFormat)
	}
}

// ValidateURL accepts absolute http(s) URLs only.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid url %q: %w", rawURL, domain.ErrValidation)
	}
	return nil
}
