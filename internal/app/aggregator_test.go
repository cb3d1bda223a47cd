package app

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/vidgrab-go/internal/domain"
)

func newDownloadingState(urls ...string) *domain.SessionState {
	state := domain.NewSessionState()
	req := domain.NewDownloadRequest(urls, "/v")
	state.Begin(req, time.Now())
	return state
}

func downloading(path string, done, total int64) domain.EngineProgress {
	return domain.EngineProgress{Status: domain.EngineStatusDownloading, Filename: path, DownloadedBytes: done, TotalBytes: total, Speed: 1024}
}

func countLogLines(state *domain.SessionState, substr string) int {
	n := 0
	for _, line := range state.Log {
		if strings.Contains(line, substr) {
			n++
		}
	}
	return n
}

func TestAggregator_LogsOncePerStep(t *testing.T) {
	agg := NewProgressAggregator(5, zap.NewNop())
	state := newDownloadingState("https://youtu.be/a")
	now := time.Now()

	for _, done := range []int64{1, 3, 4, 5, 6, 9, 10, 27, 100} {
		agg.Apply(state, domain.NewProgressEvent(state.BatchID, downloading("/v/a.mp4", done, 100)), now)
	}

	// every step from 5 to 100 logs exactly once; 27 and 100 jumped several
	assert.Equal(t, 20, countLogLines(state, "🔄 a.mp4:"))
	assert.Equal(t, 16, countLogLines(state, "🔄 a.mp4: passed"))
	assert.Equal(t, 1, countLogLines(state, "🔄 a.mp4: passed 15%"))
	assert.Equal(t, 1, countLogLines(state, "🔄 a.mp4: passed 20%"))
	assert.Zero(t, countLogLines(state, "🔄 a.mp4: passed 25%"))
	assert.Equal(t, 1, countLogLines(state, "🔄 a.mp4: 27.0%"))
	assert.Equal(t, 100.0, state.Files["a.mp4"].Percent)
	require.NotNil(t, state.Current)
	assert.Equal(t, "100 B", state.Current.Total)
	assert.Equal(t, "1.0 KB/s", state.Current.Speed)
}

func TestAggregator_UsesEstimateAndIgnoresUnknownTotal(t *testing.T) {
	agg := NewProgressAggregator(5, zap.NewNop())
	state := newDownloadingState("https://youtu.be/a")

	agg.Apply(state, domain.NewProgressEvent(state.BatchID, domain.EngineProgress{
		Status: domain.EngineStatusDownloading, Filename: "/v/a.mp4", DownloadedBytes: 10,
	}), time.Now())
	assert.Zero(t, state.Files["a.mp4"].Percent)
	assert.Zero(t, countLogLines(state, "🔄 a.mp4:"))

	agg.Apply(state, domain.NewProgressEvent(state.BatchID, domain.EngineProgress{
		Status: domain.EngineStatusDownloading, Filename: "/v/a.mp4", DownloadedBytes: 50, TotalBytesEstimate: 100,
	}), time.Now())
	assert.Equal(t, 50.0, state.Files["a.mp4"].Percent)
}

func TestAggregator_FinishedCountsDistinctFilesOnly(t *testing.T) {
	agg := NewProgressAggregator(5, zap.NewNop())
	state := newDownloadingState("https://youtu.be/a")
	finished := domain.EngineProgress{Status: domain.EngineStatusFinished, Filename: "/v/a.mp4"}

	agg.Apply(state, domain.NewProgressEvent(state.BatchID, finished), time.Now())
	agg.Apply(state, domain.NewProgressEvent(state.BatchID, finished), time.Now())
	agg.Apply(state, domain.NewProgressEvent(state.BatchID, domain.EngineProgress{Status: domain.EngineStatusFinished, Filename: "/v/b.mp4"}), time.Now())

	assert.Equal(t, 1, state.CompletedCount, "count never exceeds the requested URLs")
	assert.Equal(t, 1, countLogLines(state, "✅ Completed: a.mp4"))
	assert.Equal(t, []string{"/v/a.mp4", "/v/b.mp4"}, state.DownloadedFiles)
}

func TestAggregator_PreparingAndError(t *testing.T) {
	agg := NewProgressAggregator(5, zap.NewNop())
	state := newDownloadingState("https://youtu.be/a")

	agg.Apply(state, domain.NewProgressEvent(state.BatchID, domain.EngineProgress{Status: domain.EngineStatusPreparing}), time.Now())
	require.NotNil(t, state.Current)
	assert.Equal(t, "unknown", state.Current.Filename)
	assert.Equal(t, 1, countLogLines(state, "🔄 Preparing: unknown"))

	agg.Apply(state, domain.NewProgressEvent(state.BatchID, domain.EngineProgress{Status: domain.EngineStatusError}), time.Now())
	assert.Nil(t, state.Current)
	assert.Equal(t, domain.FileErrored, state.Files["unknown"].Status)
	assert.Equal(t, 1, countLogLines(state, "❌ Failed: unknown"))
}

func TestAggregator_EventKinds(t *testing.T) {
	agg := NewProgressAggregator(5, zap.NewNop())
	state := newDownloadingState("https://youtu.be/a")
	before := state.LastEventTime
	later := before.Add(2 * time.Second)

	assert.False(t, agg.Apply(state, domain.NewDebugEvent(state.BatchID, "heartbeat"), later))
	assert.Empty(t, state.Log, "debug events never reach the status log")
	assert.Equal(t, later, state.LastEventTime, "debug events keep the session alive")

	assert.False(t, agg.Apply(state, domain.NewLogEvent(state.BatchID, "hello"), later))
	require.Len(t, state.Log, 1)
	assert.True(t, strings.HasSuffix(state.Log[0], "] hello"))

	assert.True(t, agg.Apply(state, domain.NewCompleteEvent(state.BatchID), later))
}

func TestAggregator_IgnoresForeignBatch(t *testing.T) {
	agg := NewProgressAggregator(5, zap.NewNop())
	state := newDownloadingState("https://youtu.be/a")
	before := state.LastEventTime

	assert.False(t, agg.Apply(state, domain.NewCompleteEvent("other-batch"), before.Add(time.Minute)))
	assert.False(t, agg.Apply(state, domain.NewLogEvent("other-batch", "stale"), before.Add(time.Minute)))
	assert.Empty(t, state.Log)
	assert.Equal(t, before, state.LastEventTime)
}
