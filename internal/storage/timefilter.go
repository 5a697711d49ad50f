// ABOUTME: Parsing of relative and absolute time filters for run history
// ABOUTME: Accepts "24h", "7d", "1w", "1m" offsets and YYYY-MM-DD or RFC3339 dates

package storage

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// durationRegex matches relative duration strings like "24h", "7d", "1w", "1m".
var durationRegex = regexp.MustCompile(`^(\d+)([hdwm])$`)

// ParseSince converts a relative duration string into the instant that far before now.
func ParseSince(s string, now time.Time) (time.Time, error) {
	matches := durationRegex.FindStringSubmatch(s)
	if matches == nil {
		return time.Time{}, fmt.Errorf("invalid duration format (use e.g., 24h, 7d, 1w)")
	}

	num, err := strconv.Atoi(matches[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid number in duration '%s': %w", s, err)
	}

	var duration time.Duration
	switch matches[2] {
	case "h":
		duration = time.Duration(num) * time.Hour
	case "d":
		duration = time.Duration(num) * 24 * time.Hour
	case "w":
		duration = time.Duration(num) * 7 * 24 * time.Hour
	case "m":
		duration = time.Duration(num) * 30 * 24 * time.Hour
	}

	return now.Add(-duration), nil
}

// ParseDate parses date strings in RFC3339 or YYYY-MM-DD format.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date format (use YYYY-MM-DD or RFC3339)")
}

// ParseDateEnd parses a date like ParseDate. A bare YYYY-MM-DD is moved to
// the last second of that day so it can close an inclusive range.
func ParseDateEnd(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	return t.Add(24*time.Hour - time.Second), nil
}
