package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// Target is one monitored pizzeria and the Google Maps page that reports its
// traffic. Name is the identity of the target.
type Target struct {
	Name string `json:"name" mapstructure:"name"`
	URL  string `json:"url" mapstructure:"url"`
}

// Registry is the immutable, validated set of targets for a process.
type Registry struct {
	targets []Target
}

// NewRegistry validates targets and returns a Registry holding a private copy.
// An empty list, a blank or duplicate name, or a URL that is not an absolute
// http(s) URL is an ErrConfig.
func NewRegistry(targets []Target) (Registry, error) {
	if len(targets) == 0 {
		return Registry{}, fmt.Errorf("%w: no targets configured", ErrConfig)
	}

	seen := make(map[string]struct{}, len(targets))
	out := make([]Target, 0, len(targets))
	for i, t := range targets {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return Registry{}, fmt.Errorf("%w: target %d has an empty name", ErrConfig, i)
		}
		if _, dup := seen[name]; dup {
			return Registry{}, fmt.Errorf("%w: duplicate target name %q", ErrConfig, name)
		}
		seen[name] = struct{}{}

		if err := validateURL(t.URL); err != nil {
			return Registry{}, fmt.Errorf("%w: target %q: %v", ErrConfig, name, err)
		}
		out = append(out, Target{Name: name, URL: strings.TrimSpace(t.URL)})
	}
	return Registry{targets: out}, nil
}

func validateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("malformed url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url %q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", raw)
	}
	return nil
}

// Targets returns a copy of the registered targets in configuration order.
func (r Registry) Targets() []Target {
	out := make([]Target, len(r.targets))
	copy(out, r.targets)
	return out
}

// Len reports the number of registered targets.
func (r Registry) Len() int { return len(r.targets) }
