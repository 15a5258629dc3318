package gpx

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/flightcompare/internal/track"
)

// Stats describes a decoded file before any timestamp repair.
type Stats struct {
	// Total is the number of trkpt elements seen.
	Total int
	// Skipped counts points dropped for a missing elevation or time.
	Skipped int

	// Reversals counts adjacent points whose time steps backward by more
	// than an hour.
	Reversals   int
	MaxReversal time.Duration
	// Ordered is true when every adjacent step is non-negative.
	Ordered bool

	MinEleM  float64
	MaxEleM  float64
	MeanEleM float64
}

func (s *Stats) observe(pts []track.Point) {
	s.Ordered = true
	if len(pts) == 0 {
		return
	}

	ele := make([]float64, len(pts))
	for i, p := range pts {
		ele[i] = p.Ele
		if i == 0 {
			continue
		}
		step := p.Time.Sub(pts[i-1].Time)
		if step < 0 {
			s.Ordered = false
		}
		if -step > reversalThreshold {
			s.Reversals++
			if -step > s.MaxReversal {
				s.MaxReversal = -step
			}
		}
	}
	s.MinEleM = floats.Min(ele)
	s.MaxEleM = floats.Max(ele)
	s.MeanEleM = stat.Mean(ele, nil)
}
