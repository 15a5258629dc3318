package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/banshee-data/flightcompare/internal/chart"
	"github.com/banshee-data/flightcompare/internal/compare"
	"github.com/banshee-data/flightcompare/internal/gpx"
	"github.com/banshee-data/flightcompare/internal/kinematics"
	"github.com/banshee-data/flightcompare/internal/monitoring"
	"github.com/banshee-data/flightcompare/internal/reconcile"
	"github.com/banshee-data/flightcompare/internal/track"
	"github.com/banshee-data/flightcompare/internal/units"
	"github.com/banshee-data/flightcompare/internal/version"
)

// options shared by the pipeline subcommands
type pipelineFlags struct {
	mode       string
	window     time.Duration
	start, end string
}

func (f *pipelineFlags) register(cmd *cobra.Command, withWindow bool) {
	cmd.Flags().StringVar(&f.mode, "mode", reconcile.ModeTwoPass.String(), "timestamp reconciliation mode: two-pass, early-hours or off")
	cmd.Flags().DurationVar(&f.window, "avg-window", kinematics.DefaultAverageWindow, "moving average window")
	if withWindow {
		cmd.Flags().StringVar(&f.start, "start", "", "window start (YYYY-MM-DD HH:MM:SS, UTC)")
		cmd.Flags().StringVar(&f.end, "end", "", "window end (YYYY-MM-DD HH:MM:SS, UTC)")
	}
}

func (f *pipelineFlags) pipeline() (*compare.Pipeline, error) {
	mode, err := reconcile.ParseMode(f.mode)
	if err != nil {
		return nil, err
	}
	return compare.NewPipeline(compare.Config{
		Reconcile:  reconcile.Options{Mode: mode},
		Kinematics: kinematics.Options{AverageWindow: f.window},
	}), nil
}

func (f *pipelineFlags) run(ctx context.Context, pathA, pathB string) (*compare.Comparison, error) {
	p, err := f.pipeline()
	if err != nil {
		return nil, err
	}
	window, err := compare.ParseWindow(f.start, f.end)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, pathA, pathB, window)
}

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "trackcheck",
		Short:         "Inspect GPX timestamps and compare two flight tracks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if !verbose {
				monitoring.SetLogger(nil)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline diagnostics")
	root.AddCommand(
		newTimestampsCmd(),
		newReconcileCmd(),
		newCompareCmd(),
		newPlotCmd(),
		newVersionCmd(),
	)
	return root
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

// stepReport counts every backward step between adjacent points, however
// small.
type stepReport struct {
	count int
	max   time.Duration
}

func backwardSteps(pts []track.Point) stepReport {
	var r stepReport
	for i := 1; i < len(pts); i++ {
		if d := pts[i].Time.Sub(pts[i-1].Time); d < 0 {
			r.count++
			if -d > r.max {
				r.max = -d
			}
		}
	}
	return r
}

func newTimestampsCmd() *cobra.Command {
	var (
		head int
		tz   string
	)
	cmd := &cobra.Command{
		Use:   "timestamps FILE...",
		Short: "Report the first and last instant, ordering and day-boundary hints of GPX files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if tz != "" && !units.IsTimezoneValid(tz) {
				return fmt.Errorf("invalid timezone %q", tz)
			}
			out := cmd.OutOrStdout()
			for _, path := range args {
				f, err := gpx.ParseFile(path)
				if err != nil {
					return err
				}
				printTimestamps(out, path, f, tz)
				if head > 0 {
					printHead(out, f.Points, head, tz)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&head, "head", 0, "list the first N points in file and sorted order")
	cmd.Flags().StringVar(&tz, "tz", "", "display timezone (IANA name, default UTC)")
	return cmd
}

func printTimestamps(w io.Writer, path string, f *gpx.Track, tz string) {
	t := newTable(w)
	t.SetTitle(path)
	pts := f.Points
	if len(pts) == 0 {
		t.AppendRow(table.Row{"Points", "none found"})
		t.Render()
		return
	}

	first, last := pts[0].Time, pts[len(pts)-1].Time
	t.AppendRow(table.Row{"Points", fmt.Sprintf("%d (%d skipped)", len(pts), f.Stats.Skipped)})
	t.AppendRow(table.Row{"First", units.FormatIn(first, tz)})
	t.AppendRow(table.Row{"Last", units.FormatIn(last, tz)})
	if first.After(last) {
		t.AppendRow(table.Row{"Order", fmt.Sprintf("reversed: first is %.2f h after last", first.Sub(last).Hours())})
	} else {
		t.AppendRow(table.Row{"Order", fmt.Sprintf("ok, elapsed %.2f min", last.Sub(first).Minutes())})
	}
	if reconcile.CrossesMidnight(pts) {
		t.AppendRow(table.Row{"Day boundary", "likely crosses midnight (early-morning and late-night points)"})
	}
	if steps := backwardSteps(pts); steps.count > 0 {
		t.AppendRow(table.Row{"Backward steps", fmt.Sprintf("%d, largest %.2f min", steps.count, steps.max.Minutes())})
	}
	if f.Stats.Reversals > 0 {
		t.AppendRow(table.Row{"Reversals over 1h", fmt.Sprintf("%d, largest %v", f.Stats.Reversals, f.Stats.MaxReversal)})
	}
	t.AppendRow(table.Row{"Elevation (m)", fmt.Sprintf("%.1f to %.1f, mean %.1f", f.Stats.MinEleM, f.Stats.MaxEleM, f.Stats.MeanEleM)})
	t.Render()
}

func printHead(w io.Writer, pts []track.Point, n int, tz string) {
	if n > len(pts) {
		n = len(pts)
	}
	sorted := append([]track.Point(nil), pts...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	t := newTable(w)
	t.AppendHeader(table.Row{"#", "File order", "Sorted order"})
	for i := 0; i < n; i++ {
		t.AppendRow(table.Row{i, units.FormatIn(pts[i].Time, tz), units.FormatIn(sorted[i].Time, tz)})
	}
	t.Render()
}

func newReconcileCmd() *cobra.Command {
	var (
		mode  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "reconcile FILE",
		Short: "Show how timestamp reconciliation changes a GPX file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := reconcile.ParseMode(mode)
			if err != nil {
				return err
			}
			pts, err := gpx.ReadPoints(args[0])
			if err != nil {
				return err
			}
			fixed, rep := reconcile.Reconcile(pts, reconcile.Options{Mode: m})

			out := cmd.OutOrStdout()
			t := newTable(out)
			t.SetTitle(args[0])
			t.AppendRows([]table.Row{
				{"Mode", rep.Mode},
				{"Crosses midnight", rep.CrossesMidnight},
				{"Early points shifted", rep.EarlyShifted},
				{"Reversals detected", rep.ReversalsDetected},
				{"Reversals fixed", rep.ReversalsFixed},
				{"Final day offset", rep.OffsetDays},
				{"Ambiguities", len(rep.Ambiguities)},
			})
			t.Render()

			changes := newTable(out)
			changes.AppendHeader(table.Row{"#", "Original", "Corrected"})
			shown := 0
			for i := range fixed {
				if fixed[i].Time.Equal(pts[i].Time) {
					continue
				}
				if shown == limit {
					changes.AppendFooter(table.Row{"", "…", "more"})
					break
				}
				changes.AppendRow(table.Row{i, track.FormatTime(pts[i].Time), track.FormatTime(fixed[i].Time)})
				shown++
			}
			if shown == 0 {
				fmt.Fprintln(out, "no timestamps changed")
				return nil
			}
			changes.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", reconcile.ModeTwoPass.String(), "reconciliation mode: two-pass, early-hours or off")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum changed points to list")
	return cmd
}

func newCompareCmd() *cobra.Command {
	var (
		pf         pipelineFlags
		asJSON     bool
		speedUnits string
	)
	cmd := &cobra.Command{
		Use:   "compare A.gpx B.gpx",
		Short: "Align two tracks and print the comparison summary",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := units.ValidateSpeedUnit(speedUnits); err != nil {
				return err
			}
			c, err := pf.run(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(compare.NewResponse(c.Result, speedUnits))
			}
			printSummary(out, c)
			return nil
		},
	}
	pf.register(cmd, true)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full response as JSON")
	cmd.Flags().StringVar(&speedUnits, "units", units.MPS, "speed units for table output: "+units.GetValidUnitsString())
	return cmd
}

func printSummary(w io.Writer, c *compare.Comparison) {
	tracks := newTable(w)
	tracks.AppendHeader(table.Row{"Track", "File", "Points", "Start", "End", "Day fixes", "Ambiguities"})
	for _, tr := range []struct {
		name string
		res  *compare.TrackResult
	}{{"A", c.A}, {"B", c.B}} {
		r := track.RangeOf(tr.res.Points())
		tracks.AppendRow(table.Row{
			tr.name, tr.res.Path, len(tr.res.Enriched),
			track.FormatTime(r.Start), track.FormatTime(r.End),
			tr.res.Report.EarlyShifted + tr.res.Report.ReversalsFixed, len(tr.res.Report.Ambiguities),
		})
	}
	tracks.Render()

	s := c.Result.Summary
	if s.Empty() {
		fmt.Fprintln(w, "no overlapping samples")
		return
	}
	sum := newTable(w)
	sum.SetTitle("Comparison")
	sum.AppendRows([]table.Row{
		{"Samples", s.Count},
		{"Start", track.FormatTime(s.Start)},
		{"End", track.FormatTime(s.End)},
		{"Max height diff (ft)", fmt.Sprintf("%.2f", s.MaxHeightDiffM*units.MetersToFeet)},
		{"Min height diff (ft)", fmt.Sprintf("%.2f", s.MinHeightDiffM*units.MetersToFeet)},
		{"Mean height diff (ft)", fmt.Sprintf("%.2f", s.MeanHeightDiffM*units.MetersToFeet)},
		{"Max 3D distance (m)", fmt.Sprintf("%.1f", s.MaxDistance3DM)},
		{"Min 3D distance (m)", fmt.Sprintf("%.1f", s.MinDistance3DM)},
	})
	sum.Render()
}

func newPlotCmd() *cobra.Command {
	var (
		pf     pipelineFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "plot A.gpx B.gpx",
		Short: "Write a PNG of both altitudes and their difference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := pf.run(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if err := chart.SaveComparisonPNG(output, c.Result.Samples); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d samples)\n", output, len(c.Result.Samples))
			return nil
		},
	}
	pf.register(cmd, true)
	cmd.Flags().StringVarP(&output, "output", "o", "comparison.png", "output PNG path")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "trackcheck %s\n", version.String())
		},
	}
}
