package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/vidgrab-go/internal/app"
	"github.com/yourusername/vidgrab-go/internal/domain"
)

func TestAPIClient_DecodesAndReportsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/session":
			if r.Method == http.MethodPost {
				var body map[string]string
				_ = json.NewDecoder(r.Body).Decode(&body)
				if body["urls"] == "" {
					w.WriteHeader(http.StatusBadRequest)
					_, _ = w.Write([]byte(`{"error":"invalid urls: no valid video URLs found","field":"urls"}`))
					return
				}
				w.WriteHeader(http.StatusAccepted)
				_, _ = w.Write([]byte(`{"id":"b1","urls":["https://youtu.be/a"],"dest_dir":"/d"}`))
				return
			}
			_, _ = w.Write([]byte(`{"batch_id":"b1","is_downloading":true,"completed_count":1,"total_requested":2}`))
		case "/api/v1/session/stop":
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"no running batch to stop"}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream gone"))
		}
	}))
	defer srv.Close()

	client := newClient(srv.URL + "/")

	var snap domain.SessionSnapshot
	require.NoError(t, client.get("/api/v1/session", &snap))
	assert.Equal(t, "b1", snap.BatchID)
	assert.True(t, snap.IsDownloading)

	var batch domain.DownloadRequest
	require.NoError(t, client.post("/api/v1/session", map[string]string{"urls": "https://youtu.be/a"}, &batch))
	assert.Equal(t, []string{"https://youtu.be/a"}, batch.URLs)

	err := client.post("/api/v1/session", map[string]string{"urls": ""}, nil)
	require.Error(t, err)
	assert.Equal(t, "invalid urls: no valid video URLs found (HTTP 400)", err.Error())

	err = client.post("/api/v1/session/stop", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 409")

	_, err = client.stream("/elsewhere")
	require.Error(t, err)
	assert.Equal(t, "HTTP 502: upstream gone", err.Error())
}

func TestBundleFilename(t *testing.T) {
	h := http.Header{}
	assert.Equal(t, "video_downloads.zip", bundleFilename(h))

	h.Set("Content-Disposition", `attachment; filename="my videos.zip"`)
	assert.Equal(t, "my videos.zip", bundleFilename(h))

	h.Set("Content-Disposition", `attachment; filename="../evil.zip"`)
	assert.Equal(t, "video_downloads.zip", bundleFilename(h))
}

func TestRenderBar(t *testing.T) {
	assert.Equal(t, "[#####.....]  50.0%", renderBar(50, 10))
	assert.Equal(t, "[..........]   0.0%", renderBar(-5, 10))
	assert.Equal(t, "[##########] 100.0%", renderBar(150, 10))
}

func TestPrintSnapshot(t *testing.T) {
	var buf bytes.Buffer
	printSnapshot(&buf, domain.SessionSnapshot{}, 10)
	assert.Contains(t, buf.String(), "idle")

	buf.Reset()
	printSnapshot(&buf, domain.SessionSnapshot{
		BatchID:          "0123456789abcdef",
		DestDir:          "/dl",
		Complete:         true,
		CompletionReason: domain.CompletedByMarker,
		TotalRequested:   2,
		CompletedCount:   2,
		OverallPercent:   100,
		Log:              []string{"[10:00:00] 🎉 DOWNLOAD SESSION COMPLETED"},
		DownloadedFiles:  []string{"/dl/a.mp4", "/dl/b.mp4"},
	}, 10)

	out := buf.String()
	assert.Contains(t, out, "01234...")
	assert.Contains(t, out, "done (marker)")
	assert.Contains(t, out, "2/2 video(s)")
	assert.Contains(t, out, "DOWNLOAD SESSION COMPLETED")
	assert.Contains(t, out, "Downloaded files (2):")
	assert.Contains(t, out, "b.mp4")
}

func TestPrintValidation(t *testing.T) {
	var buf bytes.Buffer
	printValidation(&buf, domain.ValidateURLInput("https://youtu.be/a, https://example.com"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "https://youtu.be/a")
	assert.Contains(t, lines[1], "https://example.com")
	assert.Equal(t, "1 valid, 1 invalid", lines[2])
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, writeDefaultConfig(path, false))
	assert.Error(t, writeDefaultConfig(path, false))
	require.NoError(t, writeDefaultConfig(path, true))

	config, err := app.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8501, config.Server.Port)
	assert.Equal(t, "video_downloads.zip", config.Download.BundleName)
}

func TestProbeServer(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusServiceUnavailable)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ready" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(int(status.Load()))
	}))
	lockFile := filepath.Join(t.TempDir(), "server.lock")

	assert.Equal(t, serverStarting, probeServer(srv.URL, lockFile), "loop not running yet")
	status.Store(http.StatusOK)
	assert.Equal(t, serverReady, probeServer(srv.URL+"/", lockFile))

	down := srv.URL
	srv.Close()
	assert.Equal(t, serverDown, probeServer(down, lockFile))

	lock := flock.New(lockFile)
	locked, err := lock.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer lock.Unlock()
	assert.Equal(t, serverStarting, probeServer(down, lockFile), "lock held but not listening yet")
}

func TestLockHeld_ReleasedLock(t *testing.T) {
	lockFile := filepath.Join(t.TempDir(), "server.lock")
	assert.False(t, lockHeld(lockFile), "missing lock file")

	lock := flock.New(lockFile)
	_, err := lock.TryLock()
	require.NoError(t, err)
	require.NoError(t, lock.Unlock())

	assert.False(t, lockHeld(lockFile))
	assert.False(t, lockHeld(""))
}

func TestServerLogLocation(t *testing.T) {
	config := domain.DefaultConfig()
	config.Logging.LogsDir = "/var/log/vidgrab"

	config.Logging.OutputPath = "stdout"
	assert.Equal(t, "/var/log/vidgrab", serverLogLocation(config))

	config.Logging.OutputPath = "/tmp/vidgrab-server.log"
	assert.Equal(t, "/tmp/vidgrab-server.log", serverLogLocation(config))
}
