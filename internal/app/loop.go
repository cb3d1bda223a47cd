package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/vidgrab-go/internal/domain"
	"github.com/yourusername/vidgrab-go/pkg/logger"
)

// BatchRunner executes a batch; DownloadWorker is the production implementation
type BatchRunner interface {
	Run(ctx context.Context, req *domain.DownloadRequest)
}

// SessionHook observes batch lifecycle transitions on the loop goroutine
type SessionHook interface {
	OnBatchStarted(req *domain.DownloadRequest)
	OnBatchCompleted(snap domain.SessionSnapshot, stopped bool)
}

// LoopOptions tunes submission and rendering
type LoopOptions struct {
	StatusTail       int
	CreateDirs       bool
	ExtraURLPatterns []string
}

// LoopDeps groups the collaborators of a PresentationLoop. Events, Cancel and
// Debug must be the same instances the runner was built with.
type LoopDeps struct {
	Runner      BatchRunner
	Events      *EventChannel
	Cancel      *CancelFlag
	Debug       *DebugLog
	Aggregator  *ProgressAggregator
	Detector    *CompletionDetector
	Marker      domain.CompletionMarker
	Hooks       []SessionHook
	Logger      *zap.Logger
	MultiLogger *logger.MultiLogger
}

// TickResult describes what one tick did
type TickResult struct {
	Processed int
	Changed   bool
	Completed bool
	Reason    domain.CompletionReason
}

// PresentationLoop owns the session state. Every method must be called from
// a single goroutine; only the event channel, debug log and cancel flag are
// shared with the worker.
type PresentationLoop struct {
	state        *domain.SessionState
	runner       BatchRunner
	events       *EventChannel
	cancel       *CancelFlag
	debug        *DebugLog
	aggregator   *ProgressAggregator
	detector     *CompletionDetector
	marker       domain.CompletionMarker
	hooks        []SessionHook
	options      LoopOptions
	logger       *zap.Logger
	multiLogger  *logger.MultiLogger
	workerActive atomic.Bool
	now          func() time.Time
}

// NewPresentationLoop creates an idle loop
func NewPresentationLoop(deps LoopDeps, options LoopOptions) *PresentationLoop {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &PresentationLoop{
		state:       domain.NewSessionState(),
		runner:      deps.Runner,
		events:      deps.Events,
		cancel:      deps.Cancel,
		debug:       deps.Debug,
		aggregator:  deps.Aggregator,
		detector:    deps.Detector,
		marker:      deps.Marker,
		hooks:       deps.Hooks,
		options:     options,
		logger:      deps.Logger,
		multiLogger: deps.MultiLogger,
		now:         time.Now,
	}
}

// Preview validates input without submitting it
func (l *PresentationLoop) Preview(input string) domain.SubmissionPreview {
	v := domain.ValidateURLInput(input, l.options.ExtraURLPatterns...)
	return domain.NewSubmissionPreview(v, l.state.IsDownloading || l.workerActive.Load())
}

// Submit validates input and destination and starts a worker for the valid URLs.
// ctx bounds the worker's lifetime, not this call.
func (l *PresentationLoop) Submit(ctx context.Context, input, destDir string) (*domain.DownloadRequest, error) {
	if l.state.IsDownloading {
		return nil, domain.ErrBatchInProgress
	}
	if l.workerActive.Load() {
		return nil, domain.ErrWorkerStillRunning
	}

	v := domain.ValidateURLInput(input, l.options.ExtraURLPatterns...)
	if len(v.Valid) == 0 {
		return nil, domain.NewValidationError("urls", "no valid video URLs found (%s)", v.Summary())
	}

	dest, err := PrepareDestination(destDir, l.options.CreateDirs)
	if err != nil {
		return nil, err
	}

	req := domain.NewDownloadRequest(v.Valid, dest)
	l.start(ctx, req, v)
	return req, nil
}

func (l *PresentationLoop) start(ctx context.Context, req *domain.DownloadRequest, v domain.URLValidation) {
	now := l.now()

	// stale signals from an earlier batch must not complete this one
	dropped := l.events.Reset()
	l.debug.Clear()
	l.cancel.Clear()
	if l.marker != nil {
		if err := l.marker.Clear(); err != nil {
			l.logger.Warn("Failed to clear completion marker", zap.Error(err))
		}
	}

	l.state.Begin(req, now)
	l.state.AppendLog(now, fmt.Sprintf("📋 Queued %d video(s) for %s (%s)", len(req.URLs), req.DestDir, v.Summary()))
	for _, bad := range v.Invalid {
		l.state.AppendLog(now, fmt.Sprintf("⚠️ Skipping invalid URL: %s", bad))
	}
	l.debug.Add("session started: batch=%s urls=%d dropped_events=%d", req.ID, len(req.URLs), dropped)

	l.logger.Info("Batch submitted",
		zap.String("batch_id", req.ID),
		zap.Int("urls", len(req.URLs)),
		zap.Int("invalid", len(v.Invalid)),
		zap.String("dest_dir", req.DestDir))
	if l.multiLogger != nil {
		l.multiLogger.LogSessionEvent("batch_started",
			zap.String("batch_id", req.ID),
			zap.Strings("urls", req.URLs),
			zap.String("dest_dir", req.DestDir))
	}

	for _, h := range l.hooks {
		l.callHook(func() { h.OnBatchStarted(req) })
	}

	l.workerActive.Store(true)
	go func() {
		defer l.workerActive.Store(false)
		l.runner.Run(ctx, req)
	}()
}

// RequestStop asks the worker to stop before the next URL
func (l *PresentationLoop) RequestStop() bool {
	if !l.state.IsDownloading || l.state.StopRequested {
		return false
	}
	l.cancel.Set()
	l.state.StopRequested = true
	l.state.AppendLog(l.now(), "⏹️ Stop requested: the current video will finish first")
	l.debug.Add("stop requested for batch %s", l.state.BatchID)
	return true
}

// Tick drains the event channel, applies the events and runs completion detection
func (l *PresentationLoop) Tick() TickResult {
	now := l.now()
	events := l.events.Drain()

	explicit := false
	for _, ev := range events {
		if l.applySafely(ev, now) {
			explicit = true
		}
	}

	result := TickResult{Processed: len(events), Changed: len(events) > 0}

	if reason, done := l.detector.Detect(l.state, explicit, now); done {
		if l.complete(reason, now) {
			result.Completed = true
			result.Reason = reason
			result.Changed = true
		}
	}

	return result
}

func (l *PresentationLoop) applySafely(ev domain.ProgressEvent, now time.Time) (complete bool) {
	defer func() {
		if r := recover(); r != nil {
			complete = false
			l.logger.Error("Failed to apply event", zap.String("kind", string(ev.Kind)), zap.Any("panic", r))
			if l.multiLogger != nil {
				l.multiLogger.LogAppError("event_apply_panic", zap.String("kind", string(ev.Kind)), zap.Any("panic", r))
			}
		}
	}()
	return l.aggregator.Apply(l.state, ev, now)
}

func (l *PresentationLoop) complete(reason domain.CompletionReason, now time.Time) bool {
	stopped := l.state.StopRequested
	if !l.state.MarkComplete(reason, now) {
		return false
	}
	l.cancel.Clear()

	if reason == domain.CompletedByTimeout {
		l.state.AppendLog(now, "🕐 Download completed (timeout detection)")
	} else {
		l.state.AppendLog(now, "🎉 DOWNLOAD SESSION COMPLETED")
	}
	l.state.AppendLog(now, fmt.Sprintf("📊 %d/%d video(s) completed", l.state.CompletedCount, l.state.TotalRequested))
	l.debug.Add("batch %s completed by %s", l.state.BatchID, reason)

	l.logger.Info("Batch completed",
		zap.String("batch_id", l.state.BatchID),
		zap.String("reason", string(reason)),
		zap.Int("completed", l.state.CompletedCount),
		zap.Int("requested", l.state.TotalRequested),
		zap.Bool("stopped", stopped))
	if l.multiLogger != nil {
		l.multiLogger.LogSessionEvent("batch_completed",
			zap.String("batch_id", l.state.BatchID),
			zap.String("reason", string(reason)),
			zap.Int("completed", l.state.CompletedCount),
			zap.Int("requested", l.state.TotalRequested),
			zap.Bool("stopped", stopped))
	}

	snap := l.state.Snapshot(0, now)
	for _, h := range l.hooks {
		l.callHook(func() { h.OnBatchCompleted(snap, stopped) })
	}
	return true
}

func (l *PresentationLoop) callHook(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Session hook panicked", zap.Any("panic", r))
		}
	}()
	fn()
}

// Snapshot returns a copy of the session with the configured log tail
func (l *PresentationLoop) Snapshot() domain.SessionSnapshot {
	return l.state.Snapshot(l.options.StatusTail, l.now())
}

// FullSnapshot returns a copy of the session including the whole log
func (l *PresentationLoop) FullSnapshot() domain.SessionSnapshot {
	return l.state.Snapshot(0, l.now())
}

// IsDownloading reports whether a batch is in progress
func (l *PresentationLoop) IsDownloading() bool {
	return l.state.IsDownloading
}

// WorkerActive reports whether a worker goroutine is still running
func (l *PresentationLoop) WorkerActive() bool {
	return l.workerActive.Load()
}

// DownloadedFiles returns the files finished in the current or last batch
func (l *PresentationLoop) DownloadedFiles() []string {
	return append([]string{}, l.state.DownloadedFiles...)
}

// DebugEntries returns the last n debug lines (n <= 0 means all)
func (l *PresentationLoop) DebugEntries(n int) []string {
	return l.debug.Tail(n)
}

// ClearDebug empties the debug buffer
func (l *PresentationLoop) ClearDebug() {
	l.debug.Clear()
}
