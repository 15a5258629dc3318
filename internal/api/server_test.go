package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/flightcompare/internal/cache"
	"github.com/banshee-data/flightcompare/internal/config"
	"github.com/banshee-data/flightcompare/internal/db"
	"github.com/banshee-data/flightcompare/internal/testutil"
	"github.com/banshee-data/flightcompare/internal/timeutil"
)

type testEnv struct {
	server  *Server
	handler http.Handler
	uploads string
	samples string
	sampleA string
	sampleB string
	clock   *timeutil.MockClock
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	env := &testEnv{
		uploads: filepath.Join(root, "uploads"),
		samples: filepath.Join(root, "samples"),
		clock:   timeutil.NewMockClock(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)),
	}
	require.NoError(t, os.MkdirAll(env.uploads, 0o755))
	require.NoError(t, os.MkdirAll(env.samples, 0o755))

	cfg := config.DefaultServerConfig()
	cfg.UploadDir = &env.uploads
	cfg.SamplesDir = &env.samples

	env.sampleA = testutil.WriteGPX(t, env.samples, cfg.GetSampleFileA(), testutil.Climb(testutil.Base, 20, 100, 1))
	env.sampleB = testutil.WriteGPX(t, env.samples, cfg.GetSampleFileB(), testutil.Climb(testutil.Base.Add(5*time.Second), 20, 90, 0.5))

	database, err := db.NewDB(cloneAPITestDB(t))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	env.server = NewServer(cfg, database, cache.New(time.Minute, 16), WithClock(env.clock))
	env.handler = env.server.Handler(env.server.ServeMux())
	return env
}

func (e *testEnv) do(method, target string, body url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(body.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) pair() url.Values {
	return url.Values{"file_a_path": {e.sampleA}, "file_b_path": {e.sampleB}}
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), "body: %s", rec.Body.String())
}

func TestRootAndHealth(t *testing.T) {
	env := setupTestServer(t)

	rec := env.do(http.MethodGet, "/", nil)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.JSONEq(t, `{"message":"GPX 3D Visualization API"}`, rec.Body.String())

	rec = env.do(http.MethodGet, "/nope", nil)
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)

	rec = env.do(http.MethodGet, "/api/health", nil)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	var health map[string]string
	decodeJSON(t, rec, &health)
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "2024-06-01T09:00:00Z", health["timestamp"])
	assert.NotEmpty(t, health["version"])
}

func TestMethodNotAllowed(t *testing.T) {
	env := setupTestServer(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/health"},
		{http.MethodGet, "/api/upload"},
		{http.MethodGet, "/api/process"},
		{http.MethodGet, "/api/load_sample"},
		{http.MethodGet, "/api/clear_cache"},
		{http.MethodPost, "/api/chart"},
		{http.MethodPost, "/api/runs"},
	} {
		rec := env.do(tc.method, tc.path, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestLoadSample(t *testing.T) {
	env := setupTestServer(t)

	rec := env.do(http.MethodPost, "/api/load_sample", nil)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var resp struct {
		FileAPath string `json:"file_a_path"`
		FileBPath string `json:"file_b_path"`
		TimeRange struct {
			TimeRange struct{ Start, End string } `json:"time_range"`
			TrackA    struct{ Start, End string } `json:"track_a"`
		} `json:"time_range"`
	}
	decodeJSON(t, rec, &resp)
	assert.Equal(t, env.sampleA, resp.FileAPath)
	assert.Equal(t, env.sampleB, resp.FileBPath)
	assert.Equal(t, "2024-05-01 12:00:05", resp.TimeRange.TimeRange.Start)
	assert.Equal(t, "2024-05-01 12:00:19", resp.TimeRange.TimeRange.End)
	assert.Equal(t, "2024-05-01 12:00:00", resp.TimeRange.TrackA.Start)

	require.NoError(t, os.Remove(env.sampleB))
	rec = env.do(http.MethodPost, "/api/load_sample", nil)
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, name := range files {
		fw, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(testutil.GPXDocument(testutil.Climb(testutil.Base, 3, 0, 1))))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUpload(t *testing.T) {
	env := setupTestServer(t)

	post := func(files map[string]string) *httptest.ResponseRecorder {
		body, ct := multipartBody(t, files)
		req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		return rec
	}

	rec := post(map[string]string{"file_a": "a.gpx", "file_b": "b.GPX"})
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	var resp uploadResponse
	decodeJSON(t, rec, &resp)
	assert.NotEmpty(t, resp.FileAID)
	assert.NotEqual(t, resp.FileAID, resp.FileBID)
	for _, p := range []string{resp.FileAPath, resp.FileBPath} {
		assert.Equal(t, env.uploads, filepath.Dir(p))
		_, err := os.Stat(p)
		assert.NoError(t, err)
	}

	uploads, err := env.server.db.ListUploads(t.Context())
	require.NoError(t, err)
	assert.Len(t, uploads, 2)

	// The staged files can be compared straight away.
	rec = env.do(http.MethodPost, "/api/process", url.Values{
		"file_a_path": {resp.FileAPath}, "file_b_path": {resp.FileBPath},
	})
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	rec = post(map[string]string{"file_a": "a.gpx", "file_b": "b.txt"})
	testutil.AssertStatusCode(t, rec.Code, http.StatusBadRequest)

	rec = post(map[string]string{"file_a": "a.gpx"})
	testutil.AssertStatusCode(t, rec.Code, http.StatusBadRequest)
}

type processResponse struct {
	VisualizationData []map[string]any `json:"visualization_data"`
	TableData         []map[string]any `json:"table_data"`
	Summary           map[string]any   `json:"summary"`
}

func TestProcess(t *testing.T) {
	env := setupTestServer(t)

	rec := env.do(http.MethodPost, "/api/process", env.pair())
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.Equal(t, "miss", rec.Header().Get("X-Cache"))

	var resp processResponse
	decodeJSON(t, rec, &resp)
	assert.Len(t, resp.VisualizationData, 15)
	assert.Len(t, resp.TableData, 15)
	assert.EqualValues(t, 15, resp.Summary["count"])
	assert.Equal(t, "2024-05-01 12:00:05", resp.Summary["start_time"])

	again := env.do(http.MethodPost, "/api/process", env.pair())
	testutil.AssertStatusCode(t, again.Code, http.StatusOK)
	assert.Equal(t, "hit", again.Header().Get("X-Cache"))
	assert.Equal(t, rec.Body.String(), again.Body.String())

	rec = env.do(http.MethodGet, "/api/runs", nil)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	var runs []db.Run
	decodeJSON(t, rec, &runs)
	require.Len(t, runs, 1, "cache hits are not recorded as runs")
	assert.Equal(t, 15, runs[0].SampleCount)
	assert.Equal(t, env.sampleA, runs[0].FileA)
}

func TestProcess_Window(t *testing.T) {
	env := setupTestServer(t)
	form := env.pair()
	form.Set("start_time", "2024-05-01 12:00:10")
	form.Set("end_time", "2024-05-01 12:00:12")

	rec := env.do(http.MethodPost, "/api/process", form)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	var resp processResponse
	decodeJSON(t, rec, &resp)
	assert.Len(t, resp.VisualizationData, 3)

	rec = env.do(http.MethodGet, "/api/runs", nil)
	var runs []db.Run
	decodeJSON(t, rec, &runs)
	require.Len(t, runs, 1)
	require.NotNil(t, runs[0].WindowStart)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 10, 0, time.UTC), *runs[0].WindowStart)
}

func TestProcess_NoOverlap(t *testing.T) {
	env := setupTestServer(t)
	later := testutil.WriteGPX(t, env.samples, "later.gpx", testutil.Climb(testutil.Base.Add(time.Hour), 5, 0, 1))

	rec := env.do(http.MethodPost, "/api/process", url.Values{"file_a_path": {env.sampleA}, "file_b_path": {later}})
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.JSONEq(t, `{"visualization_data":[],"table_data":[],"summary":{}}`, rec.Body.String())
}

func TestProcess_BadRequests(t *testing.T) {
	env := setupTestServer(t)
	bad := filepath.Join(env.samples, "bad.gpx")
	require.NoError(t, os.WriteFile(bad, []byte("<gpx><trk>"), 0o644))
	outside := testutil.WriteGPX(t, t.TempDir(), "outside.gpx", testutil.Climb(testutil.Base, 3, 0, 1))

	tests := []struct {
		name string
		form url.Values
	}{
		{"missing paths", url.Values{}},
		{"outside allowed dirs", url.Values{"file_a_path": {outside}, "file_b_path": {env.sampleB}}},
		{"missing file", url.Values{"file_a_path": {filepath.Join(env.samples, "nope.gpx")}, "file_b_path": {env.sampleB}}},
		{"not gpx", url.Values{"file_a_path": {env.sampleA + ".txt"}, "file_b_path": {env.sampleB}}},
		{"malformed gpx", url.Values{"file_a_path": {bad}, "file_b_path": {env.sampleB}}},
		{"half window", url.Values{"file_a_path": {env.sampleA}, "file_b_path": {env.sampleB}, "start_time": {"2024-05-01 12:00:00"}}},
		{"reversed window", url.Values{"file_a_path": {env.sampleA}, "file_b_path": {env.sampleB},
			"start_time": {"2024-05-01 13:00:00"}, "end_time": {"2024-05-01 12:00:00"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/process", tt.form)
			testutil.AssertStatusCode(t, rec.Code, http.StatusBadRequest)
			var body map[string]any
			decodeJSON(t, rec, &body)
			assert.NotEmpty(t, body["detail"])
		})
	}
}

func TestTimeRange(t *testing.T) {
	env := setupTestServer(t)
	rec := env.do(http.MethodPost, "/api/time_range", env.pair())
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.JSONEq(t, `{
		"time_range": {"start": "2024-05-01 12:00:05", "end": "2024-05-01 12:00:19"},
		"track_a": {"start": "2024-05-01 12:00:00", "end": "2024-05-01 12:00:19"},
		"track_b": {"start": "2024-05-01 12:00:05", "end": "2024-05-01 12:00:24"}
	}`, rec.Body.String())
}

func TestClearCache(t *testing.T) {
	env := setupTestServer(t)
	env.do(http.MethodPost, "/api/process", env.pair())

	rec := env.do(http.MethodPost, "/api/clear_cache", nil)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.JSONEq(t, `{"status":"success","cleared_items":1}`, rec.Body.String())

	rec = env.do(http.MethodPost, "/api/process", env.pair())
	assert.Equal(t, "miss", rec.Header().Get("X-Cache"))
}

func TestChartAndGeoJSON(t *testing.T) {
	env := setupTestServer(t)
	q := env.pair().Encode()

	rec := env.do(http.MethodGet, "/api/chart?"+q, nil)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Track A")

	rec = env.do(http.MethodGet, "/api/geojson?"+q, nil)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	var fc struct {
		Type     string           `json:"type"`
		Features []map[string]any `json:"features"`
	}
	decodeJSON(t, rec, &fc)
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.GreaterOrEqual(t, len(fc.Features), 2)
}

func TestCORS(t *testing.T) {
	env := setupTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/process", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST", rec.Header().Get("Access-Control-Allow-Methods"))

	restricted := CORSMiddleware([]string{"https://example.org"}, http.NotFoundHandler())
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	restricted.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://example.org")
	rec = httptest.NewRecorder()
	restricted.ServeHTTP(rec, req)
	assert.Equal(t, "https://example.org", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "X-Cache", rec.Header().Get("Access-Control-Expose-Headers"))

	disabled := CORSMiddleware(nil, http.NotFoundHandler())
	rec = httptest.NewRecorder()
	disabled.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetrics(t *testing.T) {
	env := setupTestServer(t)
	env.do(http.MethodPost, "/api/process", env.pair())

	rec := env.do(http.MethodGet, "/metrics", nil)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.Contains(t, rec.Body.String(), "flightcompare_comparisons_total")
}

func TestStatusCodeColor(t *testing.T) {
	assert.Contains(t, statusCodeColor(200), "200")
	assert.Contains(t, statusCodeColor(302), colorYellow)
	assert.Contains(t, statusCodeColor(503), colorBoldRed)
	assert.Equal(t, "100", statusCodeColor(100))
}
