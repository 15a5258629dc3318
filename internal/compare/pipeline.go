package compare

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/flightcompare/internal/gpx"
	"github.com/banshee-data/flightcompare/internal/kinematics"
	"github.com/banshee-data/flightcompare/internal/monitoring"
	"github.com/banshee-data/flightcompare/internal/reconcile"
	"github.com/banshee-data/flightcompare/internal/track"
)

// Config holds the per-track processing options.
type Config struct {
	Reconcile  reconcile.Options
	Kinematics kinematics.Options
}

// ReconcileAndDerive repairs the timestamps of one track and derives its
// kinematics.
func ReconcileAndDerive(points []track.Point, cfg Config) ([]track.EnrichedPoint, reconcile.Report) {
	start := time.Now()
	fixed, rep := reconcile.Reconcile(points, cfg.Reconcile)
	monitoring.StageDuration.WithLabelValues(monitoring.StageReconcile).Observe(time.Since(start).Seconds())

	start = time.Now()
	enriched := kinematics.Derive(fixed, cfg.Kinematics)
	monitoring.StageDuration.WithLabelValues(monitoring.StageDerive).Observe(time.Since(start).Seconds())
	return enriched, rep
}

// TrackResult is one processed input file.
type TrackResult struct {
	Path     string
	File     *gpx.Track
	Enriched []track.EnrichedPoint
	Report   reconcile.Report
}

// Points returns the corrected points without kinematics.
func (t *TrackResult) Points() []track.Point {
	return track.Points(t.Enriched)
}

// Comparison is the outcome of a full pipeline run.
type Comparison struct {
	A, B     *TrackResult
	Window   *track.Window
	Result   Result
	Duration time.Duration
}

// Pipeline runs parse, reconcile, derive and merge for a pair of files.
// It holds configuration only and is safe for concurrent use.
type Pipeline struct {
	cfg Config
}

// NewPipeline returns a Pipeline using cfg.
func NewPipeline(cfg Config) *Pipeline {
	return &Pipeline{cfg: cfg}
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// LoadTrack parses and processes a single file.
func (p *Pipeline) LoadTrack(ctx context.Context, path string) (*TrackResult, error) {
	start := time.Now()
	f, err := gpx.ParseFile(path)
	monitoring.StageDuration.WithLabelValues(monitoring.StageParse).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	enriched, rep := ReconcileAndDerive(f.Points, p.cfg)
	if n := len(rep.Ambiguities); n > 0 {
		monitoring.Logf("%s: %d timestamp reversals left uncorrected", path, n)
	}
	return &TrackResult{Path: path, File: f, Enriched: enriched, Report: rep}, nil
}

// LoadPair processes both files concurrently. The first error cancels the
// other track.
func (p *Pipeline) LoadPair(ctx context.Context, pathA, pathB string) (a, b *TrackResult, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		a, err = p.LoadTrack(gctx, pathA)
		return err
	})
	g.Go(func() error {
		var err error
		b, err = p.LoadTrack(gctx, pathB)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

// Run compares two files, optionally restricted to window.
func (p *Pipeline) Run(ctx context.Context, pathA, pathB string, window *track.Window) (*Comparison, error) {
	began := time.Now()
	a, b, err := p.LoadPair(ctx, pathA, pathB)
	if err != nil {
		monitoring.ComparisonsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		monitoring.ComparisonsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	start := time.Now()
	res, err := Merge(a.Enriched, b.Enriched, window)
	monitoring.StageDuration.WithLabelValues(monitoring.StageMerge).Observe(time.Since(start).Seconds())
	if err != nil {
		monitoring.ComparisonsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	outcome := "ok"
	if res.Empty() {
		outcome = "empty"
	}
	monitoring.ComparisonsTotal.WithLabelValues(outcome).Inc()

	c := &Comparison{A: a, B: b, Window: window, Result: res, Duration: time.Since(began)}
	monitoring.Logf("compared %s (%d points) with %s (%d points): %d samples in %v",
		pathA, len(a.Enriched), pathB, len(b.Enriched), len(res.Samples), c.Duration)
	return c, nil
}

// TimeRange reports the corrected time ranges of two files without merging.
func (p *Pipeline) TimeRange(ctx context.Context, pathA, pathB string) (TimeRangeInfo, error) {
	a, b, err := p.LoadPair(ctx, pathA, pathB)
	if err != nil {
		return TimeRangeInfo{}, err
	}
	return TimeRange(a.Points(), b.Points()), nil
}

// IsClientError reports whether err stems from bad input rather than a
// server fault.
func IsClientError(err error) bool {
	return track.IsParseError(err) || errors.Is(err, track.ErrInvalidWindow)
}
