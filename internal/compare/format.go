package compare

import (
	"math"

	"github.com/banshee-data/flightcompare/internal/track"
	"github.com/banshee-data/flightcompare/internal/units"
)

// Speeds is the speed block of a visualisation record, in m/s.
type Speeds struct {
	Vertical           float64 `json:"vertical"`
	Horizontal         float64 `json:"horizontal"`
	Speed3D            float64 `json:"speed_3d"`
	Avg10secVertical   float64 `json:"avg_10sec_vertical"`
	Avg10secHorizontal float64 `json:"avg_10sec_horizontal"`
	Avg10sec3D         float64 `json:"avg_10sec_3d"`
}

// Accelerations is the acceleration block of a visualisation record, in m/s².
type Accelerations struct {
	Vertical   float64 `json:"vertical"`
	Horizontal float64 `json:"horizontal"`
	Accel3D    float64 `json:"accel_3d"`
}

// TrackView is one side of a visualisation record.
type TrackView struct {
	Lat           float64       `json:"lat"`
	Lon           float64       `json:"lon"`
	Ele           float64       `json:"ele"`
	EleFt         float64       `json:"ele_ft"`
	Speeds        Speeds        `json:"speeds"`
	Accelerations Accelerations `json:"accelerations"`
}

// ComparisonView holds the cross-track metrics of a visualisation record.
type ComparisonView struct {
	HeightDiff   float64 `json:"height_diff"`
	HeightDiffFt float64 `json:"height_diff_ft"`
	Distance3D   float64 `json:"distance_3d"`
}

// VisualizationPoint is the per-sample record consumed by chart clients.
type VisualizationPoint struct {
	// Timestamp is milliseconds since the epoch.
	Timestamp  int64          `json:"timestamp"`
	Time       string         `json:"time"`
	TrackA     TrackView      `json:"track_a"`
	TrackB     TrackView      `json:"track_b"`
	Comparison ComparisonView `json:"comparison"`
}

// TableRow is the per-sample record of the tabular view. Elevations are in
// feet; speeds are in the requested unit.
type TableRow struct {
	Time             string  `json:"time"`
	EleAFt           float64 `json:"ele_a_ft"`
	EleBFt           float64 `json:"ele_b_ft"`
	HeightDiffFt     float64 `json:"height_diff_ft"`
	VerticalSpeedA   float64 `json:"vertical_speed_a"`
	VerticalSpeedB   float64 `json:"vertical_speed_b"`
	HorizontalSpeedA float64 `json:"horizontal_speed_a"`
	HorizontalSpeedB float64 `json:"horizontal_speed_b"`
	Speed3DA         float64 `json:"speed_3d_a"`
	Speed3DB         float64 `json:"speed_3d_b"`
	VerticalAccelA   float64 `json:"vertical_accel_a"`
	VerticalAccelB   float64 `json:"vertical_accel_b"`
	HorizontalAccelA float64 `json:"horizontal_accel_a"`
	HorizontalAccelB float64 `json:"horizontal_accel_b"`
	Accel3DA         float64 `json:"accel_3d_a"`
	Accel3DB         float64 `json:"accel_3d_b"`
	Distance3D       float64 `json:"distance_3d"`
}

// Response is the full comparison payload.
type Response struct {
	VisualizationData []VisualizationPoint `json:"visualization_data"`
	TableData         []TableRow           `json:"table_data"`
	Summary           map[string]any       `json:"summary"`
}

// RangeView is a start/end pair rendered for clients.
type RangeView struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// TimeRangeView is the client rendering of TimeRangeInfo.
type TimeRangeView struct {
	TimeRange RangeView `json:"time_range"`
	TrackA    RangeView `json:"track_a"`
	TrackB    RangeView `json:"track_b"`
	Adjusted  bool      `json:"adjusted,omitempty"`
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func trackView(p track.EnrichedPoint) TrackView {
	return TrackView{
		Lat:   p.Lat,
		Lon:   p.Lon,
		Ele:   p.Ele,
		EleFt: p.Ele * units.MetersToFeet,
		Speeds: Speeds{
			Vertical:           p.VerticalSpeedMPS,
			Horizontal:         p.HorizontalSpeedMPS,
			Speed3D:            p.Speed3DMPS,
			Avg10secVertical:   p.AvgVerticalSpeedMPS,
			Avg10secHorizontal: p.AvgHorizontalSpeedMPS,
			Avg10sec3D:         p.AvgSpeed3DMPS,
		},
		Accelerations: Accelerations{
			Vertical:   p.VerticalAccelMPS2,
			Horizontal: p.HorizontalAccelMPS2,
			Accel3D:    p.Accel3DMPS2,
		},
	}
}

// Visualization projects samples into chart records.
func Visualization(samples []track.MergedSample) []VisualizationPoint {
	out := make([]VisualizationPoint, len(samples))
	for i, s := range samples {
		out[i] = VisualizationPoint{
			Timestamp: track.UnixMillis(s.Key),
			Time:      track.FormatTime(s.Key),
			TrackA:    trackView(s.A),
			TrackB:    trackView(s.B),
			Comparison: ComparisonView{
				HeightDiff:   s.HeightDiffM,
				HeightDiffFt: s.HeightDiffM * units.MetersToFeet,
				Distance3D:   s.Distance3DM,
			},
		}
	}
	return out
}

// Table projects samples into rounded table rows with speeds in
// speedUnits (see units.ConvertSpeed).
func Table(samples []track.MergedSample, speedUnits string) []TableRow {
	sp := func(v float64) float64 { return round(units.ConvertSpeed(v, speedUnits), 3) }
	ft := func(v float64) float64 { return round(v*units.MetersToFeet, 2) }

	out := make([]TableRow, len(samples))
	for i, s := range samples {
		out[i] = TableRow{
			Time:             track.FormatTime(s.Key),
			EleAFt:           ft(s.A.Ele),
			EleBFt:           ft(s.B.Ele),
			HeightDiffFt:     ft(s.HeightDiffM),
			VerticalSpeedA:   sp(s.A.VerticalSpeedMPS),
			VerticalSpeedB:   sp(s.B.VerticalSpeedMPS),
			HorizontalSpeedA: sp(s.A.HorizontalSpeedMPS),
			HorizontalSpeedB: sp(s.B.HorizontalSpeedMPS),
			Speed3DA:         sp(s.A.Speed3DMPS),
			Speed3DB:         sp(s.B.Speed3DMPS),
			VerticalAccelA:   round(s.A.VerticalAccelMPS2, 3),
			VerticalAccelB:   round(s.B.VerticalAccelMPS2, 3),
			HorizontalAccelA: round(s.A.HorizontalAccelMPS2, 3),
			HorizontalAccelB: round(s.B.HorizontalAccelMPS2, 3),
			Accel3DA:         round(s.A.Accel3DMPS2, 3),
			Accel3DB:         round(s.B.Accel3DMPS2, 3),
			Distance3D:       round(s.Distance3DM, 3),
		}
	}
	return out
}

// SummaryView renders a summary for clients. The empty summary renders as
// an empty object.
func SummaryView(s track.Summary) map[string]any {
	if s.Empty() {
		return map[string]any{}
	}
	return map[string]any{
		"count":               s.Count,
		"start_time":          track.FormatTime(s.Start),
		"end_time":            track.FormatTime(s.End),
		"max_height_diff_ft":  round(s.MaxHeightDiffM*units.MetersToFeet, 2),
		"min_height_diff_ft":  round(s.MinHeightDiffM*units.MetersToFeet, 2),
		"mean_height_diff_ft": round(s.MeanHeightDiffM*units.MetersToFeet, 2),
		"max_distance_3d":     round(s.MaxDistance3DM, 2),
		"min_distance_3d":     round(s.MinDistance3DM, 2),
	}
}

// NewResponse renders a merge result.
func NewResponse(r Result, speedUnits string) Response {
	return Response{
		VisualizationData: Visualization(r.Samples),
		TableData:         Table(r.Samples, speedUnits),
		Summary:           SummaryView(r.Summary),
	}
}

func rangeView(r track.Range) RangeView {
	return RangeView{Start: track.FormatTime(r.Start), End: track.FormatTime(r.End)}
}

// View renders the time-range report for clients; missing instants render
// as track.NotAvailable.
func (i TimeRangeInfo) View() TimeRangeView {
	return TimeRangeView{
		TimeRange: rangeView(i.Common),
		TrackA:    rangeView(i.TrackA),
		TrackB:    rangeView(i.TrackB),
		Adjusted:  i.Adjusted,
	}
}
