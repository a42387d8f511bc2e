package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/pizzeria-traffic/internal/domain"
)

// FetchOptions tunes how a target page is loaded and read.
type FetchOptions struct {
	NavigationTimeout time.Duration
	SettleDelay       time.Duration
	ConsentTimeout    time.Duration
	ConsentSelector   string
	TrafficSelector   string
}

// DefaultFetchOptions returns the waits and selectors used against Google Maps
// in French.
func DefaultFetchOptions() FetchOptions {
	return FetchOptions{
		NavigationTimeout: 30 * time.Second,
		SettleDelay:       time.Second,
		ConsentTimeout:    2 * time.Second,
		ConsentSelector:   `input[value="Tout refuser"]`,
		TrafficSelector:   "div.dpoVLd",
	}
}

// BrowserFetcher reads traffic labels through a shared browser, one tab per
// target.
type BrowserFetcher struct {
	browser domain.Browser
	opts    FetchOptions
	logger  *slog.Logger
}

// NewBrowserFetcher creates a BrowserFetcher over an already launched browser.
func NewBrowserFetcher(browser domain.Browser, opts FetchOptions, logger *slog.Logger) *BrowserFetcher {
	return &BrowserFetcher{browser: browser, opts: opts, logger: logger}
}

// Fetch opens target.URL in a fresh tab, dismisses the consent dialog if one
// shows up, and returns the aria-label of every traffic bar. Navigation
// problems wrap domain.ErrNavigation; failures to read the page wrap
// domain.ErrFetch.
func (f *BrowserFetcher) Fetch(ctx context.Context, target domain.Target) ([]string, error) {
	page, err := f.browser.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: open page: %w", domain.ErrNavigation, err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			f.logger.Debug("close page failed", "pizzeria", target.Name, "error", err)
		}
	}()

	navCtx, cancel := context.WithTimeout(ctx, f.opts.NavigationTimeout)
	err = page.Goto(navCtx, target.URL)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrNavigation, target.URL, err)
	}

	if err := page.Wait(ctx, f.opts.SettleDelay); err != nil {
		return nil, fmt.Errorf("%w: settle: %w", domain.ErrFetch, err)
	}

	clicked, err := page.ClickIfPresent(ctx, f.opts.ConsentSelector, f.opts.ConsentTimeout)
	switch {
	case err != nil && ctx.Err() != nil:
		return nil, fmt.Errorf("%w: consent: %w", domain.ErrFetch, ctx.Err())
	case err != nil:
		f.logger.Warn("consent click failed", "pizzeria", target.Name, "error", err)
	case clicked:
		f.logger.Debug("consent dialog dismissed", "pizzeria", target.Name)
		if err := page.Wait(ctx, f.opts.SettleDelay); err != nil {
			return nil, fmt.Errorf("%w: settle: %w", domain.ErrFetch, err)
		}
	}

	labels, err := page.QueryAllLabels(ctx, f.opts.TrafficSelector)
	if err != nil {
		return nil, fmt.Errorf("%w: query labels: %w", domain.ErrFetch, err)
	}
	return labels, nil
}

// BrowserOpener launches one browser per cycle and serves every target of the
// cycle from it.
type BrowserOpener struct {
	launcher domain.BrowserLauncher
	launch   domain.LaunchOptions
	fetch    FetchOptions
	logger   *slog.Logger
}

// NewBrowserOpener creates a SessionOpener backed by launcher.
func NewBrowserOpener(launcher domain.BrowserLauncher, launch domain.LaunchOptions, fetch FetchOptions, logger *slog.Logger) *BrowserOpener {
	return &BrowserOpener{launcher: launcher, launch: launch, fetch: fetch, logger: logger}
}

// Open launches the browser.
func (o *BrowserOpener) Open(ctx context.Context) (Session, error) {
	b, err := o.launcher.Launch(ctx, o.launch)
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	o.logger.Debug("browser launched", "headless", o.launch.Headless, "locale", o.launch.Locale)
	return &browserSession{BrowserFetcher: NewBrowserFetcher(b, o.fetch, o.logger), browser: b}, nil
}

type browserSession struct {
	*BrowserFetcher
	browser domain.Browser
}

func (s *browserSession) Close() error {
	return s.browser.Close()
}
