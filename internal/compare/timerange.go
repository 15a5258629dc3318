package compare

import (
	"time"

	"github.com/banshee-data/flightcompare/internal/monitoring"
	"github.com/banshee-data/flightcompare/internal/track"
)

// TimeRangeInfo is the time-range-only report for a pair of tracks.
type TimeRangeInfo struct {
	Common track.Range
	TrackA track.Range
	TrackB track.Range
	// Adjusted is set when a day was added to Common.End because it fell
	// before Common.Start.
	Adjusted bool
}

// TimeRange reports each track's first and last corrected instant and the
// overlap between them. Common is zero when either track is empty.
func TimeRange(a, b []track.Point) TimeRangeInfo {
	info := TimeRangeInfo{
		TrackA: track.RangeOf(a),
		TrackB: track.RangeOf(b),
	}
	if len(a) == 0 || len(b) == 0 {
		monitoring.Warnf("empty_track", "time range: track A has %d points, track B has %d", len(a), len(b))
		return info
	}

	start := info.TrackA.Start
	if info.TrackB.Start.After(start) {
		start = info.TrackB.Start
	}
	end := info.TrackA.End
	if info.TrackB.End.Before(end) {
		end = info.TrackB.End
	}

	if end.Before(start) {
		monitoring.Warnf("time_range_adjusted", "time range: common end %s precedes start %s; adding one day to end",
			track.FormatTime(end), track.FormatTime(start))
		end = end.Add(24 * time.Hour)
		info.Adjusted = true
	}
	info.Common = track.Range{Start: start, End: end}
	return info
}

// TimeRangeEnriched is TimeRange over enriched points.
func TimeRangeEnriched(a, b []track.EnrichedPoint) TimeRangeInfo {
	return TimeRange(track.Points(a), track.Points(b))
}
