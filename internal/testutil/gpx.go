package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// Fix is one fixture point. Time is written without a zone when Naive is
// set, as loggers without a date field do.
type Fix struct {
	Lat, Lon, Ele float64
	Time          time.Time
	Naive         bool
}

// Base is the reference instant used by fixtures.
var Base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// Climb returns n fixes one second apart starting at start, rising rate
// metres per second and drifting north.
func Climb(start time.Time, n int, ele0, rate float64) []Fix {
	out := make([]Fix, n)
	for i := range out {
		out[i] = Fix{
			Lat:  35.0 + float64(i)*0.0001,
			Lon:  139.0,
			Ele:  ele0 + rate*float64(i),
			Time: start.Add(time.Duration(i) * time.Second),
		}
	}
	return out
}

// GPXDocument renders fixes as a single-segment GPX 1.1 document.
func GPXDocument(fixes []Fix) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<gpx version="1.1" creator="testutil" xmlns="http://www.topografix.com/GPX/1/1">` + "\n")
	b.WriteString("<trk><name>fixture</name><trkseg>\n")
	for _, f := range fixes {
		layout := time.RFC3339Nano
		if f.Naive {
			layout = "2006-01-02T15:04:05"
		}
		fmt.Fprintf(&b, `<trkpt lat="%.7f" lon="%.7f"><ele>%.2f</ele><time>%s</time></trkpt>`+"\n",
			f.Lat, f.Lon, f.Ele, f.Time.UTC().Format(layout))
	}
	b.WriteString("</trkseg></trk>\n</gpx>\n")
	return b.String()
}

// WriteGPX writes fixes to dir/name and returns the path.
func WriteGPX(t *testing.T, dir, name string, fixes []Fix) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(GPXDocument(fixes)), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", path, err)
	}
	return path
}
