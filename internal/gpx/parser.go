package gpx

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/flightcompare/internal/monitoring"
	"github.com/banshee-data/flightcompare/internal/track"
)

// reversalThreshold is the backward step between adjacent points that is
// reported as a timestamp reversal.
const reversalThreshold = time.Hour

type gpxPoint struct {
	Lat  string  `xml:"lat,attr"`
	Lon  string  `xml:"lon,attr"`
	Ele  *string `xml:"ele"`
	Time *string `xml:"time"`
}

type gpxFile struct {
	XMLName  xml.Name `xml:"gpx"`
	Creator  string   `xml:"creator,attr"`
	Metadata struct {
		Time string `xml:"time"`
	} `xml:"metadata"`
	Tracks []struct {
		Name     string `xml:"name"`
		Segments []struct {
			Points []gpxPoint `xml:"trkpt"`
		} `xml:"trkseg"`
	} `xml:"trk"`
}

// Track is the decoded content of one file.
type Track struct {
	Name    string
	Creator string
	// MetadataTime is the file-level <metadata><time>, zero if absent.
	MetadataTime time.Time
	Points       []track.Point
	Stats        Stats
}

// ParseFile reads and decodes the file at path.
func ParseFile(path string) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &track.ParseError{Path: path, Err: err}
	}
	defer f.Close()

	t, err := Parse(bufio.NewReader(f))
	if err != nil {
		var pe *track.ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	if len(t.Points) == 0 {
		monitoring.Warnf("empty_track", "%s: %v", path, track.ErrEmptyTrack)
	}
	if t.Stats.Reversals > 0 {
		monitoring.Warnf("timestamp_reversal", "%s: %d timestamp reversals over %v (largest %v)",
			path, t.Stats.Reversals, reversalThreshold, t.Stats.MaxReversal)
	}
	return t, nil
}

// ReadPoints is a shorthand for ParseFile(path).Points.
func ReadPoints(path string) ([]track.Point, error) {
	t, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return t.Points, nil
}

// Parse decodes a GPX document. A document with no qualifying points
// yields an empty, non-nil Points slice and no error.
func Parse(r io.Reader) (*Track, error) {
	var doc gpxFile
	dec := xml.NewDecoder(r)
	dec.CharsetReader = passthroughCharset
	if err := dec.Decode(&doc); err != nil {
		pe := &track.ParseError{Err: fmt.Errorf("malformed gpx: %w", err)}
		var se *xml.SyntaxError
		if errors.As(err, &se) {
			pe.Line = se.Line
		}
		return nil, pe
	}

	out := &Track{Creator: doc.Creator, Points: []track.Point{}}
	if doc.Metadata.Time != "" {
		if mt, err := track.ParseTime(doc.Metadata.Time); err == nil {
			out.MetadataTime = mt
		}
	}

	for _, trk := range doc.Tracks {
		if out.Name == "" {
			out.Name = strings.TrimSpace(trk.Name)
		}
		for _, seg := range trk.Segments {
			for _, gp := range seg.Points {
				out.Stats.Total++
				p, ok, err := convert(gp)
				if err != nil {
					return nil, &track.ParseError{Err: fmt.Errorf("point %d: %w", out.Stats.Total, err)}
				}
				if !ok {
					out.Stats.Skipped++
					continue
				}
				out.Points = append(out.Points, p)
			}
		}
	}

	out.Stats.observe(out.Points)
	return out, nil
}

// convert turns a raw element into a Point. ok is false when the element
// lacks an elevation or a time.
func convert(gp gpxPoint) (p track.Point, ok bool, err error) {
	if gp.Ele == nil || gp.Time == nil {
		return p, false, nil
	}
	eleText := strings.TrimSpace(*gp.Ele)
	timeText := strings.TrimSpace(*gp.Time)
	if eleText == "" || timeText == "" {
		return p, false, nil
	}

	if p.Lat, err = strconv.ParseFloat(strings.TrimSpace(gp.Lat), 64); err != nil {
		return p, false, fmt.Errorf("bad lat %q: %w", gp.Lat, err)
	}
	if p.Lon, err = strconv.ParseFloat(strings.TrimSpace(gp.Lon), 64); err != nil {
		return p, false, fmt.Errorf("bad lon %q: %w", gp.Lon, err)
	}
	if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
		return p, false, fmt.Errorf("coordinates out of range (%v, %v)", p.Lat, p.Lon)
	}
	if p.Ele, err = strconv.ParseFloat(eleText, 64); err != nil {
		return p, false, fmt.Errorf("bad ele %q: %w", eleText, err)
	}
	if p.Time, err = track.ParseTime(timeText); err != nil {
		return p, false, err
	}
	p.OriginalTime = p.Time
	return p, true, nil
}

// passthroughCharset lets documents declaring a legacy single-byte
// encoding through; coordinates and times are ASCII either way.
func passthroughCharset(charset string, input io.Reader) (io.Reader, error) {
	return input, nil
}
