package app

import (
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/vidgrab-go/internal/domain"
	"github.com/yourusername/vidgrab-go/pkg/logger"
)

// HistoryRecorder persists every batch and the files it produced
type HistoryRecorder struct {
	repo        domain.HistoryRepository
	inspector   domain.FileInspector
	logger      *zap.Logger
	multiLogger *logger.MultiLogger
	mu          sync.Mutex
	running     map[string]*domain.BatchRecord
}

// NewHistoryRecorder creates a recorder; inspector may be nil
func NewHistoryRecorder(repo domain.HistoryRepository, inspector domain.FileInspector, logger *zap.Logger, multiLogger *logger.MultiLogger) *HistoryRecorder {
	return &HistoryRecorder{
		repo:        repo,
		inspector:   inspector,
		logger:      logger,
		multiLogger: multiLogger,
		running:     make(map[string]*domain.BatchRecord),
	}
}

// OnBatchStarted stores a running record
func (h *HistoryRecorder) OnBatchStarted(req *domain.DownloadRequest) {
	record := domain.NewBatchRecord(req)
	if err := h.repo.CreateBatch(record); err != nil {
		h.fail("history_create_failed", req.ID, err)
		return
	}

	h.mu.Lock()
	h.running[req.ID] = record
	h.mu.Unlock()
}

// OnBatchCompleted stores the outcome and the checked files
func (h *HistoryRecorder) OnBatchCompleted(snap domain.SessionSnapshot, stopped bool) {
	h.mu.Lock()
	record, ok := h.running[snap.BatchID]
	delete(h.running, snap.BatchID)
	h.mu.Unlock()

	if !ok {
		found, err := h.repo.FindBatch(snap.BatchID)
		if err != nil {
			h.fail("history_lookup_failed", snap.BatchID, err)
			return
		}
		record = found
	}

	record.MarkFinished(snap, stopped)
	if err := h.repo.UpdateBatch(record); err != nil {
		h.fail("history_update_failed", snap.BatchID, err)
		return
	}

	files := h.fileRecords(snap)
	if err := h.repo.AddFiles(snap.BatchID, files); err != nil {
		h.fail("history_files_failed", snap.BatchID, err)
		return
	}

	h.logger.Debug("Batch recorded",
		zap.String("batch_id", snap.BatchID),
		zap.String("status", string(record.Status)),
		zap.Int("files", len(files)))
}

func (h *HistoryRecorder) fileRecords(snap domain.SessionSnapshot) []domain.FileRecord {
	records := make([]domain.FileRecord, 0, len(snap.DownloadedFiles))
	for _, path := range snap.DownloadedFiles {
		if !filepath.IsAbs(path) && snap.DestDir != "" {
			path = filepath.Join(snap.DestDir, path)
		}
		record := domain.FileRecord{Filename: filepath.Base(path), Path: path}
		if h.inspector != nil {
			check := h.inspector.Check(path)
			record.SizeBytes = check.Size
			record.Valid = check.Valid
			record.Detail = check.Detail
		}
		records = append(records, record)
	}
	return records
}

func (h *HistoryRecorder) fail(event, batchID string, err error) {
	h.logger.Error("Failed to record batch history", zap.String("batch_id", batchID), zap.Error(err))
	if h.multiLogger != nil {
		h.multiLogger.LogAppError(event, zap.String("batch_id", batchID), zap.Error(err))
	}
}

// BatchNotifier is implemented by desktop notification backends
type BatchNotifier interface {
	NotifyBatchStarted(req *domain.DownloadRequest)
	NotifyBatchCompleted(snap domain.SessionSnapshot, stopped bool)
}

// NotificationHook forwards lifecycle transitions to a notifier off the loop goroutine
type NotificationHook struct {
	notifier BatchNotifier
	wg       sync.WaitGroup
}

// NewNotificationHook creates a hook for notifier
func NewNotificationHook(notifier BatchNotifier) *NotificationHook {
	return &NotificationHook{notifier: notifier}
}

// OnBatchStarted notifies asynchronously
func (h *NotificationHook) OnBatchStarted(req *domain.DownloadRequest) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.notifier.NotifyBatchStarted(req)
	}()
}

// OnBatchCompleted notifies asynchronously
func (h *NotificationHook) OnBatchCompleted(snap domain.SessionSnapshot, stopped bool) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.notifier.NotifyBatchCompleted(snap, stopped)
	}()
}

// Wait blocks until pending notifications have been sent
func (h *NotificationHook) Wait() {
	h.wg.Wait()
}
