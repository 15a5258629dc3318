package compare

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/flightcompare/internal/track"
)

func TestGeoJSON(t *testing.T) {
	a := []track.EnrichedPoint{ep(0, 100), ep(1, 110)}
	b := []track.EnrichedPoint{ep(0, 90), ep(1, 95)}
	a[1].Lat, a[1].Lon = 35.01, 139.02
	b[1].Lat, b[1].Lon = 34.99, 138.98

	res, err := Merge(a, b, nil)
	require.NoError(t, err)

	fc := GeoJSON(a, b, res)
	require.Len(t, fc.Features, 3)
	assert.Equal(t, "track_a", fc.Features[0].Properties["name"])
	assert.Equal(t, "max_separation", fc.Features[2].Properties["name"])
	assert.Equal(t, "2024-05-01 12:00:01", fc.Features[2].Properties["time"])

	require.NotNil(t, fc.BBox)
	bound := fc.BBox.Bound()
	assert.InDelta(t, 138.98, bound.Min[0], 1e-9)
	assert.InDelta(t, 139.02, bound.Max[0], 1e-9)
	assert.InDelta(t, 34.99, bound.Min[1], 1e-9)
	assert.InDelta(t, 35.01, bound.Max[1], 1e-9)

	data, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"FeatureCollection"`)
}

func TestGeoJSON_Empty(t *testing.T) {
	fc := GeoJSON(nil, nil, emptyResult())
	assert.Len(t, fc.Features, 2)
	assert.Nil(t, fc.BBox)
}
