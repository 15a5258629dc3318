// Package api serves the comparison pipeline over HTTP.
package api

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/banshee-data/flightcompare/internal/cache"
	"github.com/banshee-data/flightcompare/internal/compare"
	"github.com/banshee-data/flightcompare/internal/config"
	"github.com/banshee-data/flightcompare/internal/db"
	"github.com/banshee-data/flightcompare/internal/fsutil"
	"github.com/banshee-data/flightcompare/internal/kinematics"
	"github.com/banshee-data/flightcompare/internal/monitoring"
	"github.com/banshee-data/flightcompare/internal/reconcile"
	"github.com/banshee-data/flightcompare/internal/timeutil"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// recentRunsLimit caps /api/runs.
const recentRunsLimit = 50

type Server struct {
	cfg      *config.ServerConfig
	pipeline *compare.Pipeline
	db       *db.DB
	stager   *db.Stager
	cache    *cache.Cache
	fs       fsutil.FileSystem
	clock    timeutil.Clock
}

// Option customises a Server.
type Option func(*Server)

// WithClock replaces the wall clock used for upload stamps and health.
func WithClock(c timeutil.Clock) Option {
	return func(s *Server) { s.clock = c }
}

// NewServer wires the pipeline, staging store and cache from cfg.
func NewServer(cfg *config.ServerConfig, database *db.DB, c *cache.Cache, opts ...Option) *Server {
	s := &Server{
		cfg: cfg,
		pipeline: compare.NewPipeline(compare.Config{
			Reconcile:  reconcile.Options{Mode: cfg.GetReconcileMode()},
			Kinematics: kinematics.Options{AverageWindow: cfg.GetMovingAverageWindow()},
		}),
		db:    database,
		cache: c,
		fs:    fsutil.OSFileSystem{},
		clock: timeutil.RealClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.stager = &db.Stager{
		DB:       database,
		FS:       s.fs,
		Clock:    s.clock,
		Dir:      cfg.GetUploadDir(),
		MaxBytes: int64(cfg.GetUploadMaxMB()) << 20,
	}
	return s
}

// Stager returns the upload staging store, for running its janitor.
func (s *Server) Stager() *db.Stager { return s.stager }

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/upload", s.handleUpload)
	mux.HandleFunc("/api/load_sample", s.handleLoadSample)
	mux.HandleFunc("/api/process", s.handleProcess)
	mux.HandleFunc("/api/time_range", s.handleTimeRange)
	mux.HandleFunc("/api/clear_cache", s.handleClearCache)
	mux.HandleFunc("/api/chart", s.handleChart)
	mux.HandleFunc("/api/geojson", s.handleGeoJSON)
	mux.HandleFunc("/api/runs", s.handleRuns)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Handler returns the mux wrapped in CORS and request logging.
func (s *Server) Handler(mux *http.ServeMux) http.Handler {
	return LoggingMiddleware(CORSMiddleware(s.cfg.GetCORSOrigins(), mux))
}

// allowedDirs lists where client supplied track paths may point.
func (s *Server) allowedDirs() []string {
	return []string{s.cfg.GetUploadDir(), s.cfg.GetSamplesDir()}
}

func (s *Server) samplePaths() (string, string) {
	dir := s.cfg.GetSamplesDir()
	return filepath.Join(dir, s.cfg.GetSampleFileA()), filepath.Join(dir, s.cfg.GetSampleFileB())
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// CORSMiddleware answers preflight requests and sets the allow-origin
// header for origins in allowed. "*" allows any origin; an empty list
// disables CORS headers.
func CORSMiddleware(allowed []string, next http.Handler) http.Handler {
	if len(allowed) == 0 {
		return next
	}
	origins := make([]string, 0, len(allowed))
	for _, o := range allowed {
		origins = append(origins, strings.TrimRight(o, "/"))
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"X-Cache"},
	}).Handler(next)
}
