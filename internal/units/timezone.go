package units

import (
	"fmt"
	"time"
)

// DisplayLayout is how instants are printed once moved to a display zone.
const DisplayLayout = "2006-01-02 15:04:05 MST"

// IsTimezoneValid checks if the given timezone is valid by attempting to load it from the tz database
func IsTimezoneValid(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

// ConvertTime converts a UTC time to the specified timezone.
// Track instants are held in UTC; this is for display only.
func ConvertTime(utcTime time.Time, targetTimezone string) (time.Time, error) {
	if targetTimezone == "" || targetTimezone == "UTC" {
		return utcTime.UTC(), nil
	}
	loc, err := time.LoadLocation(targetTimezone)
	if err != nil {
		return utcTime, fmt.Errorf("failed to load timezone %s: %w", targetTimezone, err)
	}
	return utcTime.In(loc), nil
}

// FormatIn renders t in the given zone, falling back to UTC when the zone
// cannot be loaded.
func FormatIn(t time.Time, tz string) string {
	if t.IsZero() {
		return "N/A"
	}
	local, err := ConvertTime(t, tz)
	if err != nil {
		local = t.UTC()
	}
	return local.Format(DisplayLayout)
}
