package domain

import "errors"

var (
	// ErrConfig marks configuration problems that must stop the process before
	// any browser resource is acquired.
	ErrConfig = errors.New("invalid configuration")

	// ErrNavigation marks a target page that could not be opened or loaded.
	ErrNavigation = errors.New("navigation failed")

	// ErrFetch marks a page that loaded but whose labels could not be read.
	ErrFetch = errors.New("fetch failed")

	// ErrParseMismatch marks a page whose labels carried no current traffic
	// reading. It is informational: the observation is skipped, not failed.
	ErrParseMismatch = errors.New("no current traffic label")

	// ErrStore marks storage infrastructure failures.
	ErrStore = errors.New("store failed")
)
