package domain

import "fmt"

// Window is the local-hour gate for collection. An hour is active when it is
// after End or before Start, so the inactive span is [Start, End].
type Window struct {
	Start int
	End   int
}

// DefaultWindow skips collection from 01:00 through 09:59.
var DefaultWindow = Window{Start: 1, End: 9}

// Active reports whether collection may run during hour.
func (w Window) Active(hour int) bool {
	return hour > w.End || hour < w.Start
}

// Validate checks that both bounds are valid hours and Start <= End.
func (w Window) Validate() error {
	if w.Start < 0 || w.Start > 23 || w.End < 0 || w.End > 23 {
		return fmt.Errorf("%w: window bounds must be within 0-23, got %d-%d", ErrConfig, w.Start, w.End)
	}
	if w.Start > w.End {
		return fmt.Errorf("%w: window start %d is after end %d", ErrConfig, w.Start, w.End)
	}
	return nil
}
