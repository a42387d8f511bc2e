package domain

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

const (
	// currentMarker identifies the label describing the current hour.
	currentMarker = "actuel"
	maxPercent    = 100
)

var (
	// trafficRe matches the exact French current-traffic sentence, e.g.
	// "Taux de fréquentation actuel de 42 % (17 % en général)." -> 42, 17.
	trafficRe = regexp.MustCompile(`Taux de fréquentation actuel de (\d+) % \((\d+) % en général\)\.`)

	whitespaceRe = regexp.MustCompile(` {2,}`)
)

// ParseTraffic extracts the live and historical traffic percentages from the
// aria-labels of a place page. Only the first label mentioning "actuel" is
// considered; if it does not match the expected sentence exactly, either
// percentage is above 100, or no such label exists, both values are nil.
func ParseTraffic(labels []string) (live, historical *int) {
	for _, label := range labels {
		text := normalizeWhitespace(label)
		if !strings.Contains(text, currentMarker) {
			continue
		}
		m := trafficRe.FindStringSubmatch(text)
		if len(m) != 3 {
			return nil, nil
		}
		l, errL := strconv.Atoi(m[1])
		h, errH := strconv.Atoi(m[2])
		if errL != nil || errH != nil || l > maxPercent || h > maxPercent {
			return nil, nil
		}
		return &l, &h
	}
	return nil, nil
}

// normalizeWhitespace collapses every run of Unicode whitespace, including the
// no-break spaces Google puts around "%", to a single ASCII space.
func normalizeWhitespace(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, s)
	return whitespaceRe.ReplaceAllString(s, " ")
}
