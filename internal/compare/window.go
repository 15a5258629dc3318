package compare

import (
	"fmt"
	"strings"

	"github.com/banshee-data/flightcompare/internal/track"
)

// FilterWindow returns the points of pts whose instant lies in w, bounds
// included, in their original order.
func FilterWindow(pts []track.EnrichedPoint, w track.Window) []track.EnrichedPoint {
	out := make([]track.EnrichedPoint, 0, len(pts))
	for _, p := range pts {
		if w.Contains(p.Time) {
			out = append(out, p)
		}
	}
	return out
}

// ParseWindow builds a window from boundary strings. Two empty strings mean
// no window. Supplying only one bound, an unparseable bound or an end before
// the start is an error wrapping track.ErrInvalidWindow.
func ParseWindow(start, end string) (*track.Window, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" && end == "" {
		return nil, nil
	}
	if start == "" || end == "" {
		return nil, fmt.Errorf("both start and end are required: %w", track.ErrInvalidWindow)
	}

	s, err := track.ParseTime(start)
	if err != nil {
		return nil, fmt.Errorf("start: %v: %w", err, track.ErrInvalidWindow)
	}
	e, err := track.ParseTime(end)
	if err != nil {
		return nil, fmt.Errorf("end: %v: %w", err, track.ErrInvalidWindow)
	}
	if e.Before(s) {
		return nil, fmt.Errorf("end %s is before start %s: %w",
			track.FormatTime(e), track.FormatTime(s), track.ErrInvalidWindow)
	}
	return &track.Window{Start: s, End: e}, nil
}
