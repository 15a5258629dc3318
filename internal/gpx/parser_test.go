package gpx

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/flightcompare/internal/monitoring"
	"github.com/banshee-data/flightcompare/internal/track"
)

func init() {
	monitoring.SetLogger(nil)
}

const sampleGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="logger" xmlns="http://www.topografix.com/GPX/1/1">
  <metadata><time>2024-05-01T20:00:00Z</time></metadata>
  <wpt lat="1" lon="1"><ele>5</ele><time>2024-05-01T00:00:00Z</time></wpt>
  <trk>
    <name> Balloon A </name>
    <trkseg>
      <trkpt lat="35.6586" lon="139.7454"><ele>100.5</ele><time>2024-05-01T21:00:00Z</time></trkpt>
      <trkpt lat="35.6590" lon="139.7460"><ele>101</ele></trkpt>
      <trkpt lat="35.6595" lon="139.7465"><time>2024-05-01T21:00:02Z</time></trkpt>
      <trkpt lat="35.6600" lon="139.7470"><ele>102</ele><time>2024-05-02T06:00:03+09:00</time></trkpt>
    </trkseg>
    <trkseg>
      <trkpt lat="35.6605" lon="139.7475"><ele>103</ele><time>2024-05-01T21:00:04</time></trkpt>
    </trkseg>
  </trk>
  <rte><rtept lat="2" lon="2"><ele>1</ele><time>2024-05-01T00:00:00Z</time></rtept></rte>
</gpx>`

func TestParse(t *testing.T) {
	got, err := Parse(strings.NewReader(sampleGPX))
	require.NoError(t, err)

	assert.Equal(t, "Balloon A", got.Name)
	assert.Equal(t, "logger", got.Creator)
	assert.Equal(t, time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC), got.MetadataTime)

	require.Len(t, got.Points, 3)
	assert.Equal(t, 5, got.Stats.Total)
	assert.Equal(t, 2, got.Stats.Skipped)

	base := time.Date(2024, 5, 1, 21, 0, 0, 0, time.UTC)
	wantTimes := []time.Time{base, base.Add(3 * time.Second), base.Add(4 * time.Second)}
	for i, p := range got.Points {
		assert.True(t, p.Time.Equal(wantTimes[i]), "point %d time = %v, want %v", i, p.Time, wantTimes[i])
		assert.Equal(t, time.UTC, p.Time.Location())
		assert.Equal(t, p.Time, p.OriginalTime)
	}
	assert.InDelta(t, 35.6586, got.Points[0].Lat, 1e-9)
	assert.InDelta(t, 100.5, got.Points[0].Ele, 1e-9)
	assert.InDelta(t, 100.5, got.Stats.MinEleM, 1e-9)
	assert.InDelta(t, 103, got.Stats.MaxEleM, 1e-9)
	assert.True(t, got.Stats.Ordered)
}

func TestParse_NoQualifyingPoints(t *testing.T) {
	doc := `<gpx><trk><trkseg><trkpt lat="1" lon="2"><ele>3</ele></trkpt></trkseg></trk></gpx>`
	got, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	assert.NotNil(t, got.Points)
	assert.Empty(t, got.Points)
	assert.Equal(t, 1, got.Stats.Skipped)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"truncated", `<gpx><trk><trkseg><trkpt lat="1"`},
		{"wrong root", `<kml></kml>`},
		{"bad time", `<gpx><trk><trkseg><trkpt lat="1" lon="2"><ele>3</ele><time>noon</time></trkpt></trkseg></trk></gpx>`},
		{"bad elevation", `<gpx><trk><trkseg><trkpt lat="1" lon="2"><ele>high</ele><time>2024-01-01T00:00:00Z</time></trkpt></trkseg></trk></gpx>`},
		{"lat out of range", `<gpx><trk><trkseg><trkpt lat="95" lon="2"><ele>3</ele><time>2024-01-01T00:00:00Z</time></trkpt></trkseg></trk></gpx>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.True(t, track.IsParseError(err), "want *track.ParseError, got %T", err)
		})
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.gpx")
	require.NoError(t, os.WriteFile(path, []byte(sampleGPX), 0o644))

	pts, err := ReadPoints(path)
	require.NoError(t, err)
	assert.Len(t, pts, 3)
}

func TestParseFile_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.gpx")
	_, err := ParseFile(path)
	require.Error(t, err)

	var pe *track.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, path, pe.Path)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestParseFile_SyntaxErrorCarriesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.gpx")
	require.NoError(t, os.WriteFile(path, []byte("<gpx>\n<trk>\n</gpx>"), 0o644))

	_, err := ParseFile(path)
	var pe *track.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, path, pe.Path)
	assert.Greater(t, pe.Line, 0)
}

func TestStats_Reversals(t *testing.T) {
	doc := `<gpx><trk><trkseg>
<trkpt lat="0" lon="0"><ele>1</ele><time>2024-01-01T23:58:00Z</time></trkpt>
<trkpt lat="0" lon="0"><ele>1</ele><time>2024-01-01T23:59:00Z</time></trkpt>
<trkpt lat="0" lon="0"><ele>1</ele><time>2024-01-01T00:01:00Z</time></trkpt>
<trkpt lat="0" lon="0"><ele>1</ele><time>2024-01-01T00:00:30Z</time></trkpt>
</trkseg></trk></gpx>`
	got, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	assert.False(t, got.Stats.Ordered)
	assert.Equal(t, 1, got.Stats.Reversals)
	assert.Equal(t, 23*time.Hour+58*time.Minute, got.Stats.MaxReversal)
}
