package static

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http/cookiejar"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/couchcryptid/pizzeria-traffic/internal/domain"
	"github.com/couchcryptid/pizzeria-traffic/internal/pipeline"
	"github.com/go-resty/resty/v2"
)

// Options configures the static client.
type Options struct {
	UserAgent    string
	ExtraHeaders map[string]string
	Timeout      time.Duration
	Selector     string
}

// Client reads traffic labels from server-rendered HTML without a browser.
// Pages that only render traffic through JavaScript yield no labels, and the
// observation is skipped downstream. It implements pipeline.SessionOpener,
// pipeline.Session and pipeline.Fetcher.
type Client struct {
	http     *resty.Client
	selector string
	logger   *slog.Logger
}

// NewClient creates a static HTML client.
func NewClient(opts Options, logger *slog.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	client := resty.New().
		SetCookieJar(jar).
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeaders(opts.ExtraHeaders)

	return &Client{http: client, selector: opts.Selector, logger: logger}, nil
}

// Open returns the client itself; it holds no per-cycle resources.
func (c *Client) Open(_ context.Context) (pipeline.Session, error) {
	return c, nil
}

// Close is a no-op.
func (c *Client) Close() error { return nil }

// Fetch downloads target.URL and returns the non-empty aria-label of every
// element matching the selector.
func (c *Client) Fetch(ctx context.Context, target domain.Target) ([]string, error) {
	resp, err := c.http.R().SetContext(ctx).Get(target.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrNavigation, target.URL, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: %s: status %d", domain.ErrNavigation, target.URL, resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %w", domain.ErrFetch, err)
	}

	var labels []string
	doc.Find(c.selector).Each(func(_ int, s *goquery.Selection) {
		if label, ok := s.Attr("aria-label"); ok && label != "" {
			labels = append(labels, label)
		}
	})
	c.logger.Debug("static page fetched", "pizzeria", target.Name, "status", resp.StatusCode(), "labels", len(labels))
	return labels, nil
}
