package compare

import (
	"fmt"
	"sort"

	"github.com/banshee-data/flightcompare/internal/kinematics"
	"github.com/banshee-data/flightcompare/internal/monitoring"
	"github.com/banshee-data/flightcompare/internal/track"
)

// Result is the outcome of a merge. An empty result has a non-nil, empty
// Samples slice and a zero Summary.
type Result struct {
	Samples []track.MergedSample
	Summary track.Summary
}

// Empty reports whether no samples were produced.
func (r Result) Empty() bool { return len(r.Samples) == 0 }

func emptyResult() Result {
	return Result{Samples: []track.MergedSample{}}
}

// Merge joins a and b on second-truncated instants. When window is non-nil
// both tracks are first restricted to it. Tracks that are empty, before or
// after filtering, produce an empty result rather than an error. Points
// with no time are structurally invalid and fail with track.ErrInvalidPoint.
func Merge(a, b []track.EnrichedPoint, window *track.Window) (Result, error) {
	if err := validate("A", a); err != nil {
		return Result{}, err
	}
	if err := validate("B", b); err != nil {
		return Result{}, err
	}

	if window != nil {
		a = FilterWindow(a, *window)
		b = FilterWindow(b, *window)
	}
	if len(a) == 0 || len(b) == 0 {
		monitoring.Warnf("empty_merge", "merge: track A has %d points, track B has %d; nothing to join", len(a), len(b))
		return emptyResult(), nil
	}

	byKey := make(map[int64][]int, len(b))
	for j, p := range b {
		k := track.TruncateSecond(p.Time).Unix()
		byKey[k] = append(byKey[k], j)
	}

	samples := make([]track.MergedSample, 0, min(len(a), len(b)))
	for _, pa := range a {
		key := track.TruncateSecond(pa.Time)
		for _, j := range byKey[key.Unix()] {
			pb := b[j]
			samples = append(samples, track.MergedSample{
				Key:         key,
				A:           pa,
				B:           pb,
				HeightDiffM: pa.Ele - pb.Ele,
				Distance3DM: kinematics.Distance3D(pa.Lat, pa.Lon, pa.Ele, pb.Lat, pb.Lon, pb.Ele),
			})
		}
	}
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Key.Before(samples[j].Key)
	})

	if len(samples) == 0 {
		monitoring.Warnf("empty_merge", "merge: tracks share no one-second instants")
		return emptyResult(), nil
	}
	return Result{Samples: samples, Summary: Summarize(samples)}, nil
}

func validate(name string, pts []track.EnrichedPoint) error {
	for i, p := range pts {
		if p.Time.IsZero() {
			return fmt.Errorf("track %s point %d has no time: %w", name, i, track.ErrInvalidPoint)
		}
	}
	return nil
}
