package api

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/vidgrab-go/api/middleware"
	"github.com/yourusername/vidgrab-go/internal/domain"
	"github.com/yourusername/vidgrab-go/internal/infrastructure"
)

type fakeSession struct {
	mu          sync.Mutex
	snap        domain.SessionSnapshot
	submitErr   error
	submitted   []string
	destDirs    []string
	stopOK      bool
	debug       []string
	debugLimit  int
	cleared     bool
	running     bool
	previewBusy bool
}

func (f *fakeSession) Submit(_ context.Context, input, destDir string) (*domain.DownloadRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, input)
	f.destDirs = append(f.destDirs, destDir)
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	v := domain.ValidateURLInput(input)
	if len(v.Valid) == 0 {
		return nil, domain.NewValidationError("urls", "no valid video URLs found")
	}
	return domain.NewDownloadRequest(v.Valid, destDir), nil
}

func (f *fakeSession) Preview(_ context.Context, input string) (domain.SubmissionPreview, error) {
	return domain.NewSubmissionPreview(domain.ValidateURLInput(input), f.previewBusy), nil
}

func (f *fakeSession) RequestStop(context.Context) (bool, error) { return f.stopOK, nil }

func (f *fakeSession) FullSnapshot(context.Context) (domain.SessionSnapshot, error) {
	return f.snap, nil
}

func (f *fakeSession) Snapshot() domain.SessionSnapshot { return f.snap }

func (f *fakeSession) DebugEntries(n int) []string {
	f.debugLimit = n
	return f.debug
}

func (f *fakeSession) ClearDebug() { f.cleared = true }

func (f *fakeSession) Subscribe() (<-chan domain.SessionSnapshot, func()) {
	ch := make(chan domain.SessionSnapshot, 1)
	ch <- f.snap
	return ch, func() {}
}

func (f *fakeSession) IsRunning() bool { return f.running }

type fakeHistory struct {
	batches map[string]*domain.BatchRecord
	limit   int
}

func (f *fakeHistory) CreateBatch(b *domain.BatchRecord) error {
	f.batches[b.ID] = b
	return nil
}
func (f *fakeHistory) UpdateBatch(*domain.BatchRecord) error { return nil }
func (f *fakeHistory) AddFiles(string, []domain.FileRecord) error { return nil }
func (f *fakeHistory) Close() error { return nil }
func (f *fakeHistory) GetStats() (*domain.HistoryStats, error) {
	return &domain.HistoryStats{Batches: int64(len(f.batches))}, nil
}
func (f *fakeHistory) ListBatches(limit int) ([]*domain.BatchRecord, error) {
	f.limit = limit
	out := make([]*domain.BatchRecord, 0, len(f.batches))
	for _, b := range f.batches {
		out = append(out, b)
	}
	return out, nil
}
func (f *fakeHistory) FindBatch(id string) (*domain.BatchRecord, error) {
	b, ok := f.batches[id]
	if !ok {
		return nil, domain.ErrBatchNotFound
	}
	return b, nil
}

type testServer struct {
	router  http.Handler
	session *fakeSession
	history *fakeHistory
	logsDir string
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		session: &fakeSession{running: true},
		history: &fakeHistory{batches: map[string]*domain.BatchRecord{}},
		logsDir: t.TempDir(),
	}
	ts.router = SetupRouter(RouterDeps{
		Session:    ts.session,
		History:    ts.history,
		Bundler:    infrastructure.NewZipBundler(),
		EngineName: "yt-dlp",
		DefaultDir: "/downloads",
		BundleName: "video_downloads.zip",
		LogsDir:    ts.logsDir,
		Logger:     zap.NewNop(),
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestAPI_Health(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "yt-dlp", body["engine"])
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	ts.session.running = false
	rec = ts.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAPI_RequestIDIsEchoed(t *testing.T) {
	ts := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(middleware.RequestIDHeader))
}

func TestAPI_CORSPreflight(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodOptions, "/api/v1/session", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAPI_SubmitUsesDefaultDir(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/session", map[string]interface{}{
		"urls":     "https://www.youtube.com/watch?v=a, https://example.com/x",
		"url_list": []string{"https://youtu.be/b"},
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "/downloads", body["dest_dir"])
	assert.Len(t, body["urls"], 2)
	assert.Equal(t, []string{"/downloads"}, ts.session.destDirs)
}

func TestAPI_SubmitErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		urls   string
		status int
	}{
		{name: "no valid urls", urls: "https://example.com", status: http.StatusBadRequest},
		{name: "batch in progress", urls: "https://youtu.be/a", err: domain.ErrBatchInProgress, status: http.StatusConflict},
		{name: "worker alive", urls: "https://youtu.be/a", err: domain.ErrWorkerStillRunning, status: http.StatusConflict},
		{name: "loop gone", urls: "https://youtu.be/a", err: context.Canceled, status: http.StatusServiceUnavailable},
		{name: "unexpected", urls: "https://youtu.be/a", err: fmt.Errorf("boom"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := setupTestServer(t)
			ts.session.submitErr = tt.err

			rec := ts.do(t, http.MethodPost, "/api/v1/session", map[string]string{"urls": tt.urls, "dest_dir": "/tmp/x"})
			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, decode(t, rec)["error"])
		})
	}
}

func TestAPI_SubmitValidationReportsField(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/session", map[string]string{"urls": "not a url"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "urls", decode(t, rec)["field"])
}

func TestAPI_Preview(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/session/preview", map[string]string{
		"urls": "https://youtu.be/a\nhttps://example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "1 valid, 1 invalid", body["summary"])
	assert.Equal(t, true, body["can_submit"])

	ts.session.previewBusy = true
	body = decode(t, ts.do(t, http.MethodPost, "/api/v1/session/preview", map[string]string{"urls": "https://youtu.be/a"}))
	assert.Equal(t, false, body["can_submit"])
	assert.Contains(t, body["disabled_reason"], "in progress")
}

func TestAPI_Stop(t *testing.T) {
	ts := setupTestServer(t)

	assert.Equal(t, http.StatusConflict, ts.do(t, http.MethodPost, "/api/v1/session/stop", nil).Code)

	ts.session.stopOK = true
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/v1/session/stop", nil).Code)
}

func TestAPI_GetSession(t *testing.T) {
	ts := setupTestServer(t)
	ts.session.snap = domain.SessionSnapshot{BatchID: "b1", IsDownloading: true, TotalRequested: 3, CompletedCount: 1}

	for _, path := range []string{"/api/v1/session", "/api/v1/session?full=true"} {
		rec := ts.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		body := decode(t, rec)
		assert.Equal(t, "b1", body["batch_id"])
		assert.Equal(t, true, body["is_downloading"])
		assert.EqualValues(t, 1, body["completed_count"])
	}
}

func TestAPI_Debug(t *testing.T) {
	ts := setupTestServer(t)
	ts.session.debug = []string{"one", "two"}

	rec := ts.do(t, http.MethodGet, "/api/v1/session/debug?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode(t, rec)["count"])
	assert.Equal(t, 5, ts.session.debugLimit)

	rec = ts.do(t, http.MethodDelete, "/api/v1/session/debug", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ts.session.cleared)
}

func TestAPI_Bundle(t *testing.T) {
	ts := setupTestServer(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.mp4"), []byte("aaaa"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.mp4"), []byte("bbbb"), 0644))

	ts.session.snap = domain.SessionSnapshot{IsDownloading: true, DownloadedFiles: []string{"a.mp4"}, DestDir: dir}
	assert.Equal(t, http.StatusConflict, ts.do(t, http.MethodGet, "/api/v1/session/bundle", nil).Code)

	ts.session.snap = domain.SessionSnapshot{DestDir: dir}
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/v1/session/bundle", nil).Code)

	ts.session.snap = domain.SessionSnapshot{DestDir: dir, DownloadedFiles: []string{"gone.mp4", filepath.Join(dir, "removed.mp4")}}
	rec := ts.do(t, http.MethodGet, "/api/v1/session/bundle", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "every recorded file was removed from disk")
	assert.Empty(t, rec.Header().Get("Content-Disposition"))

	ts.session.snap = domain.SessionSnapshot{
		DestDir:         dir,
		DownloadedFiles: []string{"a.mp4", filepath.Join(dir, "b.mp4"), filepath.Join(dir, "gone.mp4")},
	}
	rec = ts.do(t, http.MethodGet, "/api/v1/session/bundle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "video_downloads.zip")

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"a.mp4", "b.mp4"}, names)
}

func TestAPI_History(t *testing.T) {
	ts := setupTestServer(t)
	req := domain.NewDownloadRequest([]string{"https://youtu.be/a"}, "/d")
	require.NoError(t, ts.history.CreateBatch(domain.NewBatchRecord(req)))

	rec := ts.do(t, http.MethodGet, "/api/v1/history?limit=9999", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["count"])
	assert.Equal(t, 500, ts.history.limit)

	rec = ts.do(t, http.MethodGet, "/api/v1/history/"+req.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{"https://youtu.be/a"}, decode(t, rec)["urls"])

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/v1/history/missing", nil).Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/history/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["batches"])
}

func TestAPI_HistoryDisabled(t *testing.T) {
	router := SetupRouter(RouterDeps{
		Session: &fakeSession{},
		Bundler: infrastructure.NewZipBundler(),
		LogsDir: t.TempDir(),
		Logger:  zap.NewNop(),
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/history", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_Logs(t *testing.T) {
	ts := setupTestServer(t)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/v1/logs/bogus", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/v1/logs/session?date=yesterday", nil).Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/v1/logs/session", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/v1/logs/session/export?date=2020-01-01", nil).Code)

	rec := ts.do(t, http.MethodGet, "/api/v1/logs/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "engine")
}

func TestAPI_IndexAndNoRoute(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/downloads")
	assert.Contains(t, rec.Body.String(), "video_downloads.zip")

	rec = ts.do(t, http.MethodGet, "/static/app.js", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/somewhere", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.True(t, strings.HasSuffix(rec.Header().Get("Location"), "/"))
}
