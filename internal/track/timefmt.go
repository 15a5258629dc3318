package track

import (
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the boundary representation of instants: UTC, second
// precision, space separated.
const TimeLayout = "2006-01-02 15:04:05"

// NotAvailable is rendered in place of a missing instant.
const NotAvailable = "N/A"

// FormatTime renders t in TimeLayout, or NotAvailable for the zero time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return NotAvailable
	}
	return t.UTC().Format(TimeLayout)
}

// UnixMillis returns t as milliseconds since the epoch, the unit charts use.
func UnixMillis(t time.Time) int64 {
	return t.UnixMilli()
}

var inputLayouts = []string{
	time.RFC3339Nano,
	TimeLayout,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseTime accepts the boundary layout and the common ISO-8601 variants.
// A value without a zone is taken as UTC; one with a zone is converted.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}
	for _, layout := range inputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}

// TruncateSecond drops the sub-second part of t.
func TruncateSecond(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
