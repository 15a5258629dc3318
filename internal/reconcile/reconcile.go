package reconcile

import (
	"math"
	"time"

	"github.com/banshee-data/flightcompare/internal/monitoring"
	"github.com/banshee-data/flightcompare/internal/track"
)

const (
	day = 24 * time.Hour

	// lateHour and earlyHour bound the late-evening and early-morning
	// buckets (inclusive).
	lateHour  = 21
	earlyHour = 4

	// fileReversal is the backward step that marks a whole file as
	// crossing midnight.
	fileReversal = time.Hour
	// seqReversal is the backward step that triggers a sequential repair.
	seqReversal = 30 * time.Minute
	// largeReversal is the backward step repaired even outside the
	// late-to-early pattern.
	largeReversal = 3 * time.Hour
)

// Options configures Reconcile.
type Options struct {
	Mode Mode
}

// Ambiguity is a backward step the sequential pass chose not to repair.
type Ambiguity struct {
	Index   int
	Prev    time.Time
	Current time.Time
	Delta   time.Duration
}

// Report describes what reconciliation changed.
type Report struct {
	Mode Mode

	// CrossesMidnight is set when the whole-file pass flagged the log.
	CrossesMidnight bool
	// EarlyShifted counts points moved forward a day by the whole-file pass.
	EarlyShifted int

	// OffsetDays is the final cumulative offset of the sequential pass.
	OffsetDays        int
	ReversalsDetected int
	ReversalsFixed    int
	Ambiguities       []Ambiguity
}

// Changed reports whether any timestamp was shifted.
func (r Report) Changed() bool {
	return r.EarlyShifted > 0 || r.ReversalsFixed > 0
}

// Reconcile returns a corrected copy of points. The input is not modified,
// length and order are preserved and OriginalTime is carried through.
// Sequences shorter than two points are returned unchanged.
func Reconcile(points []track.Point, opts Options) ([]track.Point, Report) {
	rep := Report{Mode: opts.Mode}
	out := make([]track.Point, len(points))
	copy(out, points)
	if len(out) < 2 || opts.Mode == ModeOff {
		return out, rep
	}

	rep.CrossesMidnight, rep.EarlyShifted = shiftEarlyHours(out)
	if rep.EarlyShifted > 0 {
		monitoring.DayCorrections.WithLabelValues("file").Add(float64(rep.EarlyShifted))
		monitoring.Logf("reconcile: log crosses midnight, moved %d early-morning points to the next day", rep.EarlyShifted)
	}

	if opts.Mode == ModeTwoPass {
		repairSequence(out, &rep)
	}
	return out, rep
}

// CrossesMidnight reports whether the whole-file pass would flag points.
func CrossesMidnight(points []track.Point) bool {
	if len(points) < 2 {
		return false
	}
	firstLate, firstEarly := -1, -1
	for i, p := range points {
		h := p.Time.Hour()
		switch {
		case h >= lateHour && firstLate < 0:
			firstLate = i
		case h <= earlyHour && firstEarly < 0:
			firstEarly = i
		}
	}

	// Late evening recorded before early morning, where the early
	// instant has not been moved past the late one.
	if firstLate >= 0 && firstEarly > firstLate &&
		points[firstEarly].Time.Before(points[firstLate].Time) {
		return true
	}

	first, last := points[0], points[len(points)-1]
	if first.Time.Hour() >= lateHour && last.Time.Hour() <= earlyHour &&
		last.Time.Before(first.Time) {
		return true
	}

	// A large step back onto an early-morning point that moving that
	// point alone to the next day would resolve.
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1].Time, points[i].Time
		if prev.Sub(cur) > fileReversal &&
			prev.Hour() > earlyHour && cur.Hour() <= earlyHour &&
			!cur.Add(day).Before(prev) {
			return true
		}
	}
	return false
}

// shiftEarlyHours applies the whole-file pass in place.
func shiftEarlyHours(pts []track.Point) (flagged bool, shifted int) {
	if !CrossesMidnight(pts) {
		return false, 0
	}
	for i := range pts {
		if pts[i].Time.Hour() <= earlyHour {
			pts[i].Time = pts[i].Time.Add(day)
			shifted++
		}
	}
	return true, shifted
}

// repairSequence applies the sequential pass in place.
func repairSequence(pts []track.Point, rep *Report) {
	offset := 0
	prev := pts[0].Time

	for i := 1; i < len(pts); i++ {
		raw := pts[i].Time
		adjusted := raw.Add(time.Duration(offset) * day)
		delta := adjusted.Sub(prev)

		if delta < -seqReversal {
			rep.ReversalsDetected++
			switch {
			case prev.Hour() >= lateHour && raw.Hour() <= earlyHour:
				offset++
				rep.ReversalsFixed++
				monitoring.Logf("reconcile: midnight rollover at point %d (%02d:00 -> %02d:00)", i, prev.Hour(), raw.Hour())
			case math.Abs(delta.Seconds()) > largeReversal.Seconds():
				offset++
				rep.ReversalsFixed++
				monitoring.Warnf("reconcile_reversal", "reconcile: large reversal of %v at point %d treated as a day boundary", -delta, i)
			default:
				rep.Ambiguities = append(rep.Ambiguities, Ambiguity{
					Index:   i,
					Prev:    prev,
					Current: adjusted,
					Delta:   delta,
				})
				monitoring.Ambiguities.Inc()
				monitoring.Warnf("reconcile_ambiguity", "reconcile: unexplained reversal of %v at point %d left uncorrected", -delta, i)
			}
			adjusted = raw.Add(time.Duration(offset) * day)
		}

		pts[i].Time = adjusted
		prev = adjusted
	}

	rep.OffsetDays = offset
	if rep.ReversalsFixed > 0 {
		monitoring.DayCorrections.WithLabelValues("sequence").Add(float64(rep.ReversalsFixed))
	}
}
