package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/pizzeria-traffic/internal/domain"
	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Launcher starts Chromium through the DevTools protocol.
// It implements domain.BrowserLauncher.
type Launcher struct {
	logger *slog.Logger
}

// NewLauncher creates a Launcher.
func NewLauncher(logger *slog.Logger) *Launcher {
	return &Launcher{logger: logger}
}

// Launch starts a browser process configured by opts and connects to it.
// The process is tied to ctx and killed when the returned Browser is closed.
func (l *Launcher) Launch(ctx context.Context, opts domain.LaunchOptions) (domain.Browser, error) {
	lc := launcher.New().
		Context(ctx).
		Headless(opts.Headless).
		NoSandbox(true).
		Set("disable-dev-shm-usage")
	if opts.Locale != "" {
		lc = lc.Set("lang", opts.Locale)
	}
	if opts.Bin != "" {
		lc = lc.Bin(opts.Bin)
	}

	controlURL, err := lc.Launch()
	if err != nil {
		return nil, fmt.Errorf("start browser process: %w", err)
	}

	b := rod.New().ControlURL(controlURL).NoDefaultDevice()
	if err := b.Connect(); err != nil {
		lc.Kill()
		lc.Cleanup()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	l.logger.Debug("browser connected", "control_url", controlURL)
	return &Browser{browser: b, launcher: lc, opts: opts}, nil
}

// Browser is a connected Chromium instance.
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	opts     domain.LaunchOptions
}

// NewPage opens a blank tab with the session's user agent, locale and extra
// headers applied.
func (b *Browser) NewPage(ctx context.Context) (domain.Page, error) {
	p, err := b.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create tab: %w", err)
	}

	if b.opts.UserAgent != "" {
		if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      b.opts.UserAgent,
			AcceptLanguage: b.opts.ExtraHeaders["Accept-Language"],
		}); err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("set user agent: %w", err)
		}
	}
	if b.opts.Locale != "" {
		if err := (proto.EmulationSetLocaleOverride{Locale: icuLocale(b.opts.Locale)}).Call(p); err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("set locale: %w", err)
		}
	}
	if len(b.opts.ExtraHeaders) > 0 {
		dict := make([]string, 0, 2*len(b.opts.ExtraHeaders))
		for k, v := range b.opts.ExtraHeaders {
			dict = append(dict, k, v)
		}
		if _, err := p.SetExtraHeaders(dict); err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("set extra headers: %w", err)
		}
	}

	return &Page{page: p}, nil
}

// Close disconnects and kills the browser process.
func (b *Browser) Close() error {
	err := b.browser.Close()
	b.launcher.Kill()
	b.launcher.Cleanup()
	return err
}

// Page is one browser tab.
type Page struct {
	page *rod.Page
}

// Goto navigates to url and waits for the load event. The navigation is
// bounded by ctx.
func (p *Page) Goto(ctx context.Context, url string) error {
	pg := p.page.Context(ctx)
	if err := pg.Navigate(url); err != nil {
		return err
	}
	return pg.WaitLoad()
}

// Wait sleeps for d unless ctx is done first.
func (p *Page) Wait(ctx context.Context, d time.Duration) error {
	if !retry.SleepWithContext(ctx, d) {
		return ctx.Err()
	}
	return nil
}

// ClickIfPresent waits up to timeout for selector and clicks it. Not finding
// the element in time is reported as (false, nil).
func (p *Page) ClickIfPresent(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	timed := p.page.Context(ctx).Timeout(timeout)
	defer timed.CancelTimeout()

	el, err := timed.Element(selector)
	if err != nil {
		var notFound *rod.ElementNotFoundError
		if (errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil) || errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}

	if err := el.Context(ctx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return false, fmt.Errorf("click %s: %w", selector, err)
	}
	return true, nil
}

// QueryAllLabels returns the aria-label of every element matching selector,
// skipping elements without one.
func (p *Page) QueryAllLabels(ctx context.Context, selector string) ([]string, error) {
	els, err := p.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}

	labels := make([]string, 0, len(els))
	for _, el := range els {
		label, err := el.Context(ctx).Attribute("aria-label")
		if err != nil {
			return nil, fmt.Errorf("read aria-label: %w", err)
		}
		if label != nil && *label != "" {
			labels = append(labels, *label)
		}
	}
	return labels, nil
}

// Close closes the tab.
func (p *Page) Close() error {
	return p.page.Close()
}

// icuLocale converts "fr-FR" to the ICU form "fr_FR" expected by the
// emulation domain.
func icuLocale(locale string) string {
	return strings.ReplaceAll(locale, "-", "_")
}
