package utils

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidTimestamp is returned when no supported layout matches
var ErrInvalidTimestamp = errors.New("invalid ISO 8601 timestamp")

// timestampLayouts in the order they are tried. Layouts without a zone are UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO 8601 timestamp and normalises it to UTC.
// A '+' in the offset that arrived unescaped in a query string (decoded as a
// space) is accepted.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrInvalidTimestamp
	}

	if t, ok := parseLayouts(value); ok {
		return t, nil
	}
	if strings.Contains(value, " ") {
		if t, ok := parseLayouts(strings.ReplaceAll(value, " ", "+")); ok {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidTimestamp
}

func parseLayouts(value string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// DaysAgo returns the instant n days before now, in UTC
func DaysAgo(now time.Time, days int) time.Time {
	return now.UTC().Add(-time.Duration(days) * 24 * time.Hour)
}
