package track

import "time"

// Point is a single positional fix from a GPS logger.
//
// Time is the corrected instant after reconciliation, always UTC.
// OriginalTime is the instant exactly as parsed and is kept for auditing.
type Point struct {
	Lat          float64   `json:"lat"`
	Lon          float64   `json:"lon"`
	Ele          float64   `json:"ele"`
	Time         time.Time `json:"time"`
	OriginalTime time.Time `json:"original_time"`
}

// Valid reports whether the coordinates are in range and the point has a time.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 &&
		p.Lon >= -180 && p.Lon <= 180 &&
		!p.Time.IsZero()
}

// Kinematics holds the motion quantities derived from a point and its
// predecessor in the same track.
type Kinematics struct {
	TimeDeltaS          float64 `json:"time_delta"`
	HorizontalDistanceM float64 `json:"horizontal_distance"`
	Distance3DM         float64 `json:"distance_3d"`

	VerticalSpeedMPS   float64 `json:"vertical_speed"`
	HorizontalSpeedMPS float64 `json:"horizontal_speed"`
	Speed3DMPS         float64 `json:"speed_3d"`

	VerticalAccelMPS2   float64 `json:"vertical_accel"`
	HorizontalAccelMPS2 float64 `json:"horizontal_accel"`
	Accel3DMPS2         float64 `json:"accel_3d"`

	AvgVerticalSpeedMPS   float64 `json:"avg_vertical_speed"`
	AvgHorizontalSpeedMPS float64 `json:"avg_horizontal_speed"`
	AvgSpeed3DMPS         float64 `json:"avg_speed_3d"`
}

// EnrichedPoint is a Point plus its derived kinematics. The first point of
// a track has every derived field set to zero.
type EnrichedPoint struct {
	Point
	Kinematics
}

// MergedSample pairs one point of track A with one point of track B that
// share a join key.
type MergedSample struct {
	// Key is the shared instant truncated to whole seconds.
	Key time.Time

	A EnrichedPoint
	B EnrichedPoint

	// HeightDiffM is A.Ele - B.Ele.
	HeightDiffM float64
	// Distance3DM is the straight-line separation between the raw A and B
	// positions, recomputed at merge time.
	Distance3DM float64
}

// Summary aggregates a merged comparison. The zero value describes an empty
// merge.
type Summary struct {
	Count          int
	Start          time.Time
	End            time.Time
	MaxHeightDiffM float64
	MinHeightDiffM float64
	MaxDistance3DM float64

	MeanHeightDiffM float64
	MinDistance3DM  float64
}

// Empty reports whether the summary covers no samples.
func (s Summary) Empty() bool { return s.Count == 0 }

// Window is an inclusive time filter applied before merging.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Range is the first and last instant of a sequence.
type Range struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether the range is unset.
func (r Range) IsZero() bool { return r.Start.IsZero() && r.End.IsZero() }

// Duration returns End - Start.
func (r Range) Duration() time.Duration { return r.End.Sub(r.Start) }

// Points strips the kinematics from a slice of enriched points.
func Points(enriched []EnrichedPoint) []Point {
	out := make([]Point, len(enriched))
	for i, e := range enriched {
		out[i] = e.Point
	}
	return out
}

// RangeOf returns the first and last corrected instant of pts, or the zero
// Range when pts is empty.
func RangeOf(pts []Point) Range {
	if len(pts) == 0 {
		return Range{}
	}
	return Range{Start: pts[0].Time, End: pts[len(pts)-1].Time}
}
