package app

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/vidgrab-go/internal/domain"
)

func TestHistoryRecorder_RecordsBatchAndFiles(t *testing.T) {
	repo := newFakeHistoryRepo()
	inspector := &fakeInspector{files: []domain.FileCheck{
		{Name: "a.mp4", Path: "/v/a.mp4", Size: 4096, Valid: true, Detail: "video/mp4"},
	}}
	recorder := NewHistoryRecorder(repo, inspector, zap.NewNop(), nil)

	req := domain.NewDownloadRequest([]string{"https://youtu.be/a", "https://youtu.be/b"}, "/v")
	recorder.OnBatchStarted(req)

	stored, err := repo.FindBatch(req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BatchRunning, stored.Status)

	finished := time.Now()
	recorder.OnBatchCompleted(domain.SessionSnapshot{
		BatchID:          req.ID,
		DestDir:          "/v",
		CompletedCount:   2,
		CompletionReason: domain.CompletedByMarker,
		FinishedAt:       &finished,
		DownloadedFiles:  []string{"/v/a.mp4", "b.mp4"},
	}, false)

	stored, err = repo.FindBatch(req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BatchCompleted, stored.Status)
	assert.Equal(t, 2, stored.CompletedCount)
	assert.Equal(t, domain.CompletedByMarker, stored.CompletionReason)

	files := repo.files[req.ID]
	require.Len(t, files, 2)
	assert.True(t, files[0].Valid)
	assert.Equal(t, int64(4096), files[0].SizeBytes)
	assert.Equal(t, "/v/b.mp4", files[1].Path, "relative names resolve against the destination")
	assert.False(t, files[1].Valid)
}

func TestHistoryRecorder_StoppedBatchFromRepository(t *testing.T) {
	repo := newFakeHistoryRepo()
	req := domain.NewDownloadRequest([]string{"https://youtu.be/a"}, "/v")
	require.NoError(t, repo.CreateBatch(domain.NewBatchRecord(req)))

	recorder := NewHistoryRecorder(repo, nil, zap.NewNop(), nil)
	recorder.OnBatchCompleted(domain.SessionSnapshot{BatchID: req.ID}, true)

	stored, err := repo.FindBatch(req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BatchStopped, stored.Status)
	assert.NotNil(t, stored.FinishedAt)
}

func TestHistoryRecorder_UnknownBatchIsLogged(t *testing.T) {
	repo := newFakeHistoryRepo()
	recorder := NewHistoryRecorder(repo, nil, zap.NewNop(), nil)

	assert.NotPanics(t, func() {
		recorder.OnBatchCompleted(domain.SessionSnapshot{BatchID: "ghost"}, false)
	})
	assert.Zero(t, repo.updates)
}

type recordingNotifier struct {
	mu        sync.Mutex
	started   int
	completed int
	stopped   bool
}

func (n *recordingNotifier) NotifyBatchStarted(req *domain.DownloadRequest) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.started++
}

func (n *recordingNotifier) NotifyBatchCompleted(snap domain.SessionSnapshot, stopped bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed++
	n.stopped = stopped
}

func TestNotificationHook(t *testing.T) {
	notifier := &recordingNotifier{}
	hook := NewNotificationHook(notifier)

	hook.OnBatchStarted(domain.NewDownloadRequest([]string{"https://youtu.be/a"}, "/v"))
	hook.OnBatchCompleted(domain.SessionSnapshot{}, true)
	hook.Wait()

	assert.Equal(t, 1, notifier.started)
	assert.Equal(t, 1, notifier.completed)
	assert.True(t, notifier.stopped)
}
