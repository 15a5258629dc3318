package compare

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/banshee-data/flightcompare/internal/track"
)

func lineString(pts []track.EnrichedPoint) orb.LineString {
	ls := make(orb.LineString, 0, len(pts))
	for _, p := range pts {
		ls = append(ls, orb.Point{p.Lon, p.Lat})
	}
	return ls
}

func trackFeature(name string, pts []track.EnrichedPoint) *geojson.Feature {
	ls := lineString(pts)
	f := geojson.NewFeature(ls)
	f.Properties["name"] = name
	f.Properties["points"] = len(pts)
	var length float64
	for _, p := range pts {
		length += p.HorizontalDistanceM
	}
	f.Properties["length_m"] = round(length, 1)
	if len(pts) > 0 {
		f.Properties["start"] = track.FormatTime(pts[0].Time)
		f.Properties["end"] = track.FormatTime(pts[len(pts)-1].Time)
		f.BBox = geojson.NewBBox(ls.Bound())
	}
	return f
}

// GeoJSON renders both tracks as LineString features. When the merge
// produced samples, a third feature joins the two positions at the instant
// of greatest separation. The collection carries the union bounding box.
func GeoJSON(a, b []track.EnrichedPoint, r Result) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fa := trackFeature("track_a", a)
	fb := trackFeature("track_b", b)
	fc.Append(fa)
	fc.Append(fb)

	var bound orb.Bound
	hasBound := false
	for _, pts := range [][]track.EnrichedPoint{a, b} {
		if len(pts) == 0 {
			continue
		}
		bb := lineString(pts).Bound()
		if !hasBound {
			bound, hasBound = bb, true
		} else {
			bound = bound.Union(bb)
		}
	}
	if hasBound {
		fc.BBox = geojson.NewBBox(bound)
	}

	if !r.Empty() {
		far := r.Samples[0]
		for _, s := range r.Samples[1:] {
			if s.Distance3DM > far.Distance3DM {
				far = s
			}
		}
		sep := geojson.NewFeature(orb.LineString{
			{far.A.Lon, far.A.Lat},
			{far.B.Lon, far.B.Lat},
		})
		sep.Properties["name"] = "max_separation"
		sep.Properties["time"] = track.FormatTime(far.Key)
		sep.Properties["distance_3d"] = round(far.Distance3DM, 2)
		sep.Properties["height_diff"] = round(far.HeightDiffM, 2)
		fc.Append(sep)
	}
	return fc
}
