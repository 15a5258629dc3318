package kinematics

import (
	"time"

	"github.com/banshee-data/flightcompare/internal/track"
)

// DefaultAverageWindow is the trailing moving-average width.
const DefaultAverageWindow = 10 * time.Second

// Options configures Derive.
type Options struct {
	// AverageWindow is the trailing moving-average width. Zero means
	// DefaultAverageWindow.
	AverageWindow time.Duration
}

func (o Options) averageWindow() time.Duration {
	if o.AverageWindow <= 0 {
		return DefaultAverageWindow
	}
	return o.AverageWindow
}

// Derive enriches points, in the order given, with per-step kinematics.
// The first point has every derived field zero; a step with a
// non-positive time delta has zero speeds and accelerations.
func Derive(points []track.Point, opts Options) []track.EnrichedPoint {
	out := make([]track.EnrichedPoint, len(points))
	if len(points) == 0 {
		return out
	}

	width := opts.averageWindow()
	avgV := newMovingAverage(width)
	avgH := newMovingAverage(width)
	avg3 := newMovingAverage(width)

	out[0] = track.EnrichedPoint{Point: points[0]}
	avgV.add(points[0].Time, 0)
	avgH.add(points[0].Time, 0)
	avg3.add(points[0].Time, 0)

	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		prevK := out[i-1].Kinematics

		var k track.Kinematics
		k.TimeDeltaS = cur.Time.Sub(prev.Time).Seconds()
		k.HorizontalDistanceM = finite(Haversine(prev.Lat, prev.Lon, cur.Lat, cur.Lon))
		k.Distance3DM = finite(Distance3D(prev.Lat, prev.Lon, prev.Ele, cur.Lat, cur.Lon, cur.Ele))

		k.VerticalSpeedMPS = Speed(cur.Ele-prev.Ele, k.TimeDeltaS)
		k.HorizontalSpeedMPS = Speed(k.HorizontalDistanceM, k.TimeDeltaS)
		k.Speed3DMPS = Speed(k.Distance3DM, k.TimeDeltaS)

		k.VerticalAccelMPS2 = Acceleration(prevK.VerticalSpeedMPS, k.VerticalSpeedMPS, k.TimeDeltaS)
		k.HorizontalAccelMPS2 = Acceleration(prevK.HorizontalSpeedMPS, k.HorizontalSpeedMPS, k.TimeDeltaS)
		k.Accel3DMPS2 = Acceleration(prevK.Speed3DMPS, k.Speed3DMPS, k.TimeDeltaS)

		k.AvgVerticalSpeedMPS = avgV.add(cur.Time, k.VerticalSpeedMPS)
		k.AvgHorizontalSpeedMPS = avgH.add(cur.Time, k.HorizontalSpeedMPS)
		k.AvgSpeed3DMPS = avg3.add(cur.Time, k.Speed3DMPS)

		k.TimeDeltaS = finite(k.TimeDeltaS)
		out[i] = track.EnrichedPoint{Point: cur, Kinematics: k}
	}
	return out
}
