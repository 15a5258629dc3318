package compare

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/flightcompare/internal/track"
)

// Summarize reduces merged samples, which must be in ascending key order.
// An empty input yields the zero Summary.
func Summarize(samples []track.MergedSample) track.Summary {
	if len(samples) == 0 {
		return track.Summary{}
	}

	heights := make([]float64, len(samples))
	dists := make([]float64, len(samples))
	for i, s := range samples {
		heights[i] = s.HeightDiffM
		dists[i] = s.Distance3DM
	}

	return track.Summary{
		Count:           len(samples),
		Start:           samples[0].Key,
		End:             samples[len(samples)-1].Key,
		MaxHeightDiffM:  floats.Max(heights),
		MinHeightDiffM:  floats.Min(heights),
		MaxDistance3DM:  floats.Max(dists),
		MeanHeightDiffM: stat.Mean(heights, nil),
		MinDistance3DM:  floats.Min(dists),
	}
}
