package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"time"

	"github.com/banshee-data/flightcompare/internal/cache"
	"github.com/banshee-data/flightcompare/internal/chart"
	"github.com/banshee-data/flightcompare/internal/compare"
	"github.com/banshee-data/flightcompare/internal/db"
	"github.com/banshee-data/flightcompare/internal/fsutil"
	"github.com/banshee-data/flightcompare/internal/httputil"
	"github.com/banshee-data/flightcompare/internal/monitoring"
	"github.com/banshee-data/flightcompare/internal/security"
	"github.com/banshee-data/flightcompare/internal/track"
	"github.com/banshee-data/flightcompare/internal/version"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		httputil.NotFound(w, "not found")
		return
	}
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"message": "GPX 3D Visualization API"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]string{
		"status":    "healthy",
		"timestamp": s.clock.Now().UTC().Format(time.RFC3339),
		"version":   version.Version,
		"git_sha":   version.GitSHA,
	})
}

type uploadResponse struct {
	FileAPath string `json:"file_a_path"`
	FileBPath string `json:"file_b_path"`
	FileAID   string `json:"file_a_id"`
	FileBID   string `json:"file_b_id"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if limit := s.stager.MaxBytes; limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, 2*limit+1<<20)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			httputil.WriteJSONError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		httputil.BadRequest(w, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := make([]*multipart.FileHeader, 2)
	for i, field := range []string{"file_a", "file_b"} {
		fhs := r.MultipartForm.File[field]
		if len(fhs) == 0 {
			httputil.BadRequest(w, fmt.Sprintf("%s is required", field))
			return
		}
		if err := security.ValidateGPXName(fhs[0].Filename); err != nil {
			httputil.BadRequest(w, "only .gpx files can be uploaded")
			return
		}
		headers[i] = fhs[0]
	}

	staged := make([]db.Upload, 2)
	for i, fh := range headers {
		u, err := s.stageFile(r.Context(), fh)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, db.ErrTooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			httputil.WriteJSONError(w, status, fmt.Sprintf("upload failed: %v", err))
			return
		}
		staged[i] = u
	}

	monitoring.Logf("staged uploads %s and %s", staged[0].Path, staged[1].Path)
	httputil.WriteJSONOK(w, uploadResponse{
		FileAPath: staged[0].Path,
		FileBPath: staged[1].Path,
		FileAID:   staged[0].ID,
		FileBID:   staged[1].ID,
	})
}

func (s *Server) stageFile(ctx context.Context, fh *multipart.FileHeader) (db.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return db.Upload{}, err
	}
	defer f.Close()
	return s.stager.Stage(ctx, fh.Filename, f)
}

type sampleResponse struct {
	FileAPath string                `json:"file_a_path"`
	FileBPath string                `json:"file_b_path"`
	TimeRange compare.TimeRangeView `json:"time_range"`
}

func (s *Server) handleLoadSample(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	pathA, pathB := s.samplePaths()
	if !fsutil.Exists(s.fs, pathA) || !fsutil.Exists(s.fs, pathB) {
		monitoring.Logf("sample files not found: %s, %s", pathA, pathB)
		httputil.NotFound(w, "sample files not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.GetRequestTimeout())
	defer cancel()
	info, err := s.pipeline.TimeRange(ctx, pathA, pathB)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("sample data error: %v", err))
		return
	}
	httputil.WriteJSONOK(w, sampleResponse{FileAPath: pathA, FileBPath: pathB, TimeRange: info.View()})
}

// trackRequest is the pair of paths and optional window common to the
// comparison endpoints.
type trackRequest struct {
	PathA, PathB string
	Start, End   string
	Window       *track.Window
}

// parseTrackRequest reads and checks the request's track paths and window,
// writing a 400 and returning false on failure.
func (s *Server) parseTrackRequest(w http.ResponseWriter, r *http.Request) (trackRequest, bool) {
	req := trackRequest{
		PathA: r.FormValue("file_a_path"),
		PathB: r.FormValue("file_b_path"),
		Start: r.FormValue("start_time"),
		End:   r.FormValue("end_time"),
	}
	if req.PathA == "" || req.PathB == "" {
		httputil.BadRequest(w, "file_a_path and file_b_path are required")
		return req, false
	}
	for _, p := range []struct{ label, path string }{{"A", req.PathA}, {"B", req.PathB}} {
		if err := security.ValidateTrackPath(p.path, s.allowedDirs()); err != nil {
			httputil.BadRequest(w, fmt.Sprintf("file %s rejected: %v", p.label, err))
			return req, false
		}
		if !fsutil.Exists(s.fs, p.path) {
			httputil.BadRequest(w, fmt.Sprintf("file %s not found: %s", p.label, p.path))
			return req, false
		}
	}
	window, err := compare.ParseWindow(req.Start, req.End)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return req, false
	}
	req.Window = window
	return req, true
}

func (s *Server) run(r *http.Request, req trackRequest) (*compare.Comparison, error) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.GetRequestTimeout())
	defer cancel()
	return s.pipeline.Run(ctx, req.PathA, req.PathB, req.Window)
}

// writeRunError maps pipeline errors onto 400 for bad input and a
// structured 500 otherwise.
func writeRunError(w http.ResponseWriter, req trackRequest, err error) {
	if compare.IsClientError(err) {
		httputil.BadRequest(w, err.Error())
		return
	}
	monitoring.Logf("comparison of %s and %s failed: %v", req.PathA, req.PathB, err)
	orNA := func(v string) string {
		if v == "" {
			return track.NotAvailable
		}
		return v
	}
	httputil.WriteErrorDetail(w, http.StatusInternalServerError, httputil.ErrorDetail{
		Detail: err.Error(),
		Type:   fmt.Sprintf("%T", err),
		Files: map[string]string{
			"file_a": filepath.Base(req.PathA),
			"file_b": filepath.Base(req.PathB),
		},
		TimeRange: map[string]string{"start": orNA(req.Start), "end": orNA(req.End)},
	})
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	req, ok := s.parseTrackRequest(w, r)
	if !ok {
		return
	}

	key, err := cache.Key(s.fs, "process", req.PathA, req.PathB, req.Start, req.End)
	if err == nil {
		if body, hit := s.cache.Get(key); hit {
			w.Header().Set("X-Cache", "hit")
			writeRawJSON(w, body)
			return
		}
	}

	cmp, err := s.run(r, req)
	if err != nil {
		writeRunError(w, req, err)
		return
	}
	if cmp.Result.Empty() {
		monitoring.Warnf("empty_result", "no overlapping samples between %s and %s", req.PathA, req.PathB)
	}

	body, err := json.Marshal(compare.NewResponse(cmp.Result, s.cfg.GetSpeedUnits()))
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to encode response: %v", err))
		return
	}
	if key != "" {
		s.cache.Set(key, body)
	}
	s.recordRun(r.Context(), cmp)

	w.Header().Set("X-Cache", "miss")
	writeRawJSON(w, body)
}

func (s *Server) recordRun(ctx context.Context, cmp *compare.Comparison) {
	sum := cmp.Result.Summary
	run := db.Run{
		FileA:          cmp.A.Path,
		FileB:          cmp.B.Path,
		SampleCount:    sum.Count,
		MaxHeightDiffM: sum.MaxHeightDiffM,
		MinHeightDiffM: sum.MinHeightDiffM,
		MaxDistance3DM: sum.MaxDistance3DM,
		DurationMS:     cmp.Duration.Milliseconds(),
		CreatedAt:      s.clock.Now(),
	}
	if cmp.Window != nil {
		run.WindowStart, run.WindowEnd = &cmp.Window.Start, &cmp.Window.End
	}
	if _, err := s.db.RecordRun(ctx, run); err != nil {
		monitoring.Warnf("run_history", "failed to record run: %v", err)
	}
}

func writeRawJSON(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (s *Server) handleTimeRange(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	req, ok := s.parseTrackRequest(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.GetRequestTimeout())
	defer cancel()
	info, err := s.pipeline.TimeRange(ctx, req.PathA, req.PathB)
	if err != nil {
		writeRunError(w, req, err)
		return
	}
	httputil.WriteJSONOK(w, info.View())
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	n := s.cache.Clear()
	monitoring.Logf("response cache cleared (%d entries)", n)
	httputil.WriteJSONOK(w, map[string]any{"status": "success", "cleared_items": n})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	req, ok := s.parseTrackRequest(w, r)
	if !ok {
		return
	}
	cmp, err := s.run(r, req)
	if err != nil {
		writeRunError(w, req, err)
		return
	}

	title := fmt.Sprintf("%s vs %s", filepath.Base(req.PathA), filepath.Base(req.PathB))
	var buf bytes.Buffer
	if err := chart.RenderComparisonHTML(&buf, cmp.Result.Samples, title); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) handleGeoJSON(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	req, ok := s.parseTrackRequest(w, r)
	if !ok {
		return
	}
	cmp, err := s.run(r, req)
	if err != nil {
		writeRunError(w, req, err)
		return
	}

	a, b := cmp.A.Enriched, cmp.B.Enriched
	if req.Window != nil {
		a, b = compare.FilterWindow(a, *req.Window), compare.FilterWindow(b, *req.Window)
	}
	body, err := compare.GeoJSON(a, b, cmp.Result).MarshalJSON()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to encode geojson: %v", err))
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Write(body)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	runs, err := s.db.RecentRuns(r.Context(), recentRunsLimit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list runs: %v", err))
		return
	}
	httputil.WriteJSONOK(w, runs)
}
