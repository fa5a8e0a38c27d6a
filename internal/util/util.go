// Package util provides shared utilities: ISO duration parsing, date
// handling, and formatting helpers used across the analysis engine and the
// CLI layer.
package util

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

// ─── Duration Parsing ─────────────────────────────────────────────────────────

// isoDurationRe matches the leading hours/minutes portion of an ISO-8601
// time duration: PT, then optional <n>H, then optional <n>M. Hours always
// precede minutes. Trailing garbage after a valid prefix is ignored, which
// matches how providers occasionally append seconds or whitespace.
var isoDurationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?`)

// Unparseable is the sentinel returned by ParseISODuration for input that
// does not match the duration grammar. Comparisons against it always lose,
// so malformed offers drop out of duration ranking without an error.
var Unparseable = math.Inf(1)

// ParseISODuration converts a duration string such as "PT2H30M" into total
// minutes. "PT12H" and "PT45M" are both valid. Input that does not start
// with the PT grammar returns Unparseable (+Inf); malformed durations are a
// silent exclusion, never an error.
func ParseISODuration(s string) float64 {
	m := isoDurationRe.FindStringSubmatch(s)
	if m == nil {
		return Unparseable
	}
	var hours, minutes int
	if m[1] != "" {
		hours, _ = strconv.Atoi(m[1])
	}
	if m[2] != "" {
		minutes, _ = strconv.Atoi(m[2])
	}
	return float64(hours*60 + minutes)
}

// IsParseable reports whether s is a valid duration string.
func IsParseable(s string) bool {
	return !math.IsInf(ParseISODuration(s), 1)
}

// FormatMinutes renders a minute count as "5h 30m", or "45m" when under an
// hour. Non-finite input renders as "?".
func FormatMinutes(minutes float64) string {
	if math.IsInf(minutes, 0) || math.IsNaN(minutes) {
		return "?"
	}
	total := int(minutes)
	h := total / 60
	m := total % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// ─── Date Parsing ─────────────────────────────────────────────────────────────

const dateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string into a time.Time (UTC midnight).
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate formats a time.Time as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// ─── Price Formatting ─────────────────────────────────────────────────────────

// FormatPrice renders a price with two decimal places and its currency code,
// e.g. "95.00 EUR". A nil price renders as "—".
func FormatPrice(price *float64, currency string) string {
	if price == nil {
		return "—"
	}
	return fmt.Sprintf("%.2f %s", *price, currency)
}
