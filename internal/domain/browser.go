package domain

import (
	"context"
	"time"
)

// LaunchOptions configures a browser session.
type LaunchOptions struct {
	Headless     bool
	Locale       string
	UserAgent    string
	ExtraHeaders map[string]string
	// Bin is the browser executable. Empty lets the driver pick or download one.
	Bin string
}

// BrowserLauncher starts browser sessions.
type BrowserLauncher interface {
	Launch(ctx context.Context, opts LaunchOptions) (Browser, error)
}

// Browser is a running browser session shared by every target of a cycle.
type Browser interface {
	// NewPage opens an isolated tab.
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is a single browser tab.
type Page interface {
	// Goto navigates to url and waits for the load event.
	Goto(ctx context.Context, url string) error

	// Wait pauses for d or until ctx is done.
	Wait(ctx context.Context, d time.Duration) error

	// ClickIfPresent clicks the first element matching selector if it appears
	// within timeout. A missing element is reported as (false, nil).
	ClickIfPresent(ctx context.Context, selector string, timeout time.Duration) (bool, error)

	// QueryAllLabels returns the non-empty aria-label of every element
	// matching selector, in document order.
	QueryAllLabels(ctx context.Context, selector string) ([]string, error)

	Close() error
}
