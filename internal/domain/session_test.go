package domain

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRequest(n int) *DownloadRequest {
	urls := make([]string, n)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://youtu.be/video%d", i)
	}
	return NewDownloadRequest(urls, "/tmp/out")
}

func TestSessionState_Begin(t *testing.T) {
	s := NewSessionState()
	s.AppendLog(time.Now(), "stale")
	s.CompletedCount = 4

	now := time.Now()
	req := newTestRequest(3)
	s.Begin(req, now)

	assert.True(t, s.IsDownloading)
	assert.False(t, s.Complete)
	assert.Equal(t, req.ID, s.BatchID)
	assert.Equal(t, 3, s.TotalRequested)
	assert.Equal(t, 0, s.CompletedCount)
	assert.Equal(t, now, s.LastEventTime)
	assert.Empty(t, s.Log)
	assert.NotNil(t, s.Files)
}

func TestSessionState_MarkCompleteIsIdempotent(t *testing.T) {
	s := NewSessionState()
	s.Begin(newTestRequest(1), time.Now())
	s.StopRequested = true
	s.Current = &CurrentDownload{Filename: "a.mp4"}

	first := s.MarkComplete(CompletedByEvent, time.Now())
	second := s.MarkComplete(CompletedByMarker, time.Now())

	assert.True(t, first)
	assert.False(t, second)
	assert.False(t, s.IsDownloading)
	assert.True(t, s.Complete)
	assert.False(t, s.StopRequested)
	assert.Nil(t, s.Current)
	assert.Equal(t, CompletedByEvent, s.CompletionReason)
}

func TestSessionState_MarkCompleteWhenIdle(t *testing.T) {
	s := NewSessionState()

	assert.False(t, s.MarkComplete(CompletedByTimeout, time.Now()))
	assert.False(t, s.Complete)
}

func TestSessionState_RecordFinishedBounded(t *testing.T) {
	s := NewSessionState()
	s.Begin(newTestRequest(2), time.Now())

	assert.True(t, s.RecordFinished("/tmp/out/a.mp4", time.Now()))
	assert.False(t, s.RecordFinished("/tmp/out/a.mp4", time.Now()))
	assert.True(t, s.RecordFinished("/tmp/out/b.mp4", time.Now()))
	assert.True(t, s.RecordFinished("/tmp/out/c.mp4", time.Now()))

	assert.Equal(t, 2, s.CompletedCount)
	assert.Len(t, s.DownloadedFiles, 3)
	assert.Equal(t, []string{"a.mp4", "b.mp4", "c.mp4"}, s.FileOrder)
	assert.Equal(t, FileCompleted, s.Files["a.mp4"].Status)
	assert.Equal(t, float64(100), s.OverallPercent())
}

func TestSessionState_FileKeyedByBaseName(t *testing.T) {
	s := NewSessionState()

	a := s.File("/one/clip.mp4")
	b := s.File("/two/clip.mp4")

	assert.Same(t, a, b)
	assert.Equal(t, "/two/clip.mp4", b.Path)
	assert.Len(t, s.FileOrder, 1)
}

func TestSessionState_AppendLogBounded(t *testing.T) {
	s := NewSessionState()
	at := time.Date(2024, 1, 2, 13, 4, 5, 0, time.UTC)

	for i := 0; i < MaxSessionLogLines+10; i++ {
		s.AppendLog(at, fmt.Sprintf("line %d", i))
	}

	require.Len(t, s.Log, MaxSessionLogLines)
	assert.Equal(t, "[13:04:05] line 10", s.Log[0])
}

func TestSessionState_Snapshot(t *testing.T) {
	s := NewSessionState()
	now := time.Now()
	s.Begin(newTestRequest(2), now.Add(-2*time.Second))
	s.File("/tmp/out/a.mp4").Status = FileDownloading
	s.Current = &CurrentDownload{Filename: "a.mp4", Percent: 50, Status: FileDownloading}
	for i := 0; i < 5; i++ {
		s.AppendLog(now, fmt.Sprintf("line %d", i))
	}

	snap := s.Snapshot(3, now)
	s.Current.Percent = 99
	s.Files["a.mp4"].Status = FileErrored

	assert.True(t, snap.IsDownloading)
	assert.Len(t, snap.Log, 3)
	assert.Equal(t, 5, snap.LogTotal)
	assert.InDelta(t, 2.0, snap.SecondsSinceEvent, 0.01)
	assert.Equal(t, float64(50), snap.Current.Percent)
	assert.Equal(t, FileDownloading, snap.Files[0].Status)
	assert.InDelta(t, 25.0, snap.OverallPercent, 0.001)
	require.NotNil(t, snap.StartedAt)
	assert.Nil(t, snap.FinishedAt)
}

func TestSessionSnapshot_BundlePaths(t *testing.T) {
	snap := SessionSnapshot{
		DestDir:         filepath.FromSlash("/dl"),
		DownloadedFiles: []string{"a.mp4", filepath.FromSlash("/other/b.mp4")},
	}

	assert.Equal(t, []string{
		filepath.Join(filepath.FromSlash("/dl"), "a.mp4"),
		filepath.FromSlash("/other/b.mp4"),
	}, snap.BundlePaths())
}
