package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/vidgrab-go/internal/domain"
	"github.com/yourusername/vidgrab-go/pkg/logger"
)

// FFmpegLocator finds the bundled muxing tool; an empty path means "use the system one"
type FFmpegLocator interface {
	Locate() (string, error)
}

// DownloadWorker processes one batch sequentially on its own goroutine.
// It only talks to the presentation side through the event channel, the
// debug log and the marker file; it never sees the session state.
type DownloadWorker struct {
	engine      domain.Engine
	options     domain.EngineOptions
	events      *EventChannel
	cancel      *CancelFlag
	debug       *DebugLog
	marker      domain.CompletionMarker
	inspector   domain.FileInspector
	ffmpeg      FFmpegLocator
	heartbeat   time.Duration
	logger      *zap.Logger
	multiLogger *logger.MultiLogger
}

// WorkerDeps groups the collaborators of a DownloadWorker
type WorkerDeps struct {
	Engine      domain.Engine
	Options     domain.EngineOptions
	Events      *EventChannel
	Cancel      *CancelFlag
	Debug       *DebugLog
	Marker      domain.CompletionMarker
	Inspector   domain.FileInspector
	FFmpeg      FFmpegLocator
	Heartbeat   time.Duration
	Logger      *zap.Logger
	MultiLogger *logger.MultiLogger
}

// NewDownloadWorker creates a worker; Marker, Inspector, FFmpeg and MultiLogger are optional
func NewDownloadWorker(deps WorkerDeps) *DownloadWorker {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &DownloadWorker{
		engine:      deps.Engine,
		options:     deps.Options,
		events:      deps.Events,
		cancel:      deps.Cancel,
		debug:       deps.Debug,
		marker:      deps.Marker,
		inspector:   deps.Inspector,
		ffmpeg:      deps.FFmpeg,
		heartbeat:   deps.Heartbeat,
		logger:      deps.Logger,
		multiLogger: deps.MultiLogger,
	}
}

// Run downloads every URL of req in order. Whatever happens, it finishes by
// writing the completion marker and pushing a Complete event.
func (w *DownloadWorker) Run(ctx context.Context, req *domain.DownloadRequest) {
	batch := req.ID
	defer w.finalize(batch)
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Download worker panicked", zap.String("batch_id", batch), zap.Any("panic", r))
			if w.multiLogger != nil {
				w.multiLogger.LogAppError("worker_panic", zap.String("batch_id", batch), zap.Any("panic", r))
			}
			w.emit(batch, fmt.Sprintf("❌ Critical error: %v", r))
		}
	}()

	stopHeartbeat := w.startHeartbeat(batch)
	defer stopHeartbeat()

	total := len(req.URLs)
	w.debugf(batch, "worker started: %d url(s), destination %s", total, req.DestDir)
	w.logger.Info("Download worker started",
		zap.String("batch_id", batch),
		zap.Int("urls", total),
		zap.String("dest_dir", req.DestDir))

	var before map[string]struct{}
	if w.inspector != nil {
		snap, err := w.inspector.Snapshot(req.DestDir)
		if err != nil {
			w.debugf(batch, "initial directory snapshot failed: %v", err)
		}
		before = snap
		w.debugf(batch, "initial directory has %d file(s)", len(before))
	}

	opts := w.options
	opts.OutputDir = req.DestDir
	w.setupFFmpeg(batch, &opts)

	w.debugf(batch, "preparing engine %s", w.engine.Name())
	if err := w.engine.Prepare(ctx); err != nil {
		w.logger.Error("Engine setup failed", zap.String("batch_id", batch), zap.Error(err))
		w.emit(batch, fmt.Sprintf("❌ Critical error: %v", err))
		return
	}

	w.emit(batch, fmt.Sprintf("🚀 Starting download of %d video(s)", total))

	for i, url := range req.URLs {
		if w.cancel.IsSet() {
			w.emit(batch, fmt.Sprintf("⏹️ Download stopped by user after %d of %d video(s)", i, total))
			w.debugf(batch, "cancellation observed before url %d", i+1)
			break
		}
		if ctx.Err() != nil {
			w.emit(batch, "⏹️ Download aborted: shutting down")
			break
		}

		w.emit(batch, fmt.Sprintf("📺 Video %d/%d: Starting %s", i+1, total, url))
		w.downloadOne(ctx, batch, url, opts)
	}

	w.analyze(batch, req, before)
}

// downloadOne runs the engine for a single URL; errors never abort the batch
func (w *DownloadWorker) downloadOne(ctx context.Context, batch, url string, opts domain.EngineOptions) {
	tracker := &fileTracker{}
	hooks := domain.EngineHooks{
		Progress: func(p domain.EngineProgress) {
			tracker.observe(p)
			w.events.Push(domain.NewProgressEvent(batch, p))
		},
		Logger: &engineLogBridge{worker: w, batch: batch},
	}

	start := time.Now()
	err := w.engine.Download(ctx, url, opts, hooks)
	if err != nil {
		w.logger.Warn("Download failed",
			zap.String("batch_id", batch),
			zap.String("url", url),
			zap.Error(err))
		if w.multiLogger != nil {
			w.multiLogger.LogSessionEvent("url_failed",
				zap.String("batch_id", batch),
				zap.String("url", url),
				zap.Error(err))
		}
		w.emit(batch, fmt.Sprintf("❌ Download error for %s: %v", url, err))
		if name, ok := tracker.unfinished(); ok {
			w.events.Push(domain.NewProgressEvent(batch, domain.EngineProgress{
				Status:   domain.EngineStatusError,
				Filename: name,
			}))
		}
		return
	}

	w.debugf(batch, "url done in %s: %s", time.Since(start).Round(time.Millisecond), url)
	if w.multiLogger != nil {
		w.multiLogger.LogSessionEvent("url_completed",
			zap.String("batch_id", batch),
			zap.String("url", url),
			zap.Duration("duration", time.Since(start)))
	}
	w.emit(batch, fmt.Sprintf("✔️ Finished: %s", url))
}

func (w *DownloadWorker) setupFFmpeg(batch string, opts *domain.EngineOptions) {
	if w.ffmpeg == nil {
		return
	}
	path, err := w.ffmpeg.Locate()
	if err != nil {
		w.debugf(batch, "ffmpeg lookup failed: %v", err)
	}
	if path == "" {
		w.emit(batch, "⚠️ Warning: bundled ffmpeg not found, falling back to the system installation")
		return
	}
	opts.FFmpegLocation = path
	w.emit(batch, fmt.Sprintf("🔧 Using ffmpeg: %s", path))
}

// analyze reports the new video files found in the destination
func (w *DownloadWorker) analyze(batch string, req *domain.DownloadRequest, before map[string]struct{}) {
	if w.inspector == nil {
		return
	}

	files, err := w.inspector.NewFiles(req.DestDir, before)
	if err != nil {
		w.debugf(batch, "final analysis failed: %v", err)
		return
	}

	var valid []domain.FileCheck
	for _, f := range files {
		if f.Valid {
			valid = append(valid, f)
		} else {
			w.emit(batch, fmt.Sprintf("⚠️ WARNING: %s looks incomplete (%s)", f.Name, f.Detail))
		}
	}

	if len(valid) == 0 {
		w.emit(batch, "❌ No videos were downloaded successfully")
		return
	}

	w.emit(batch, fmt.Sprintf("🎉 %d/%d video(s) downloaded successfully!", len(valid), len(req.URLs)))
	for _, f := range valid {
		w.emit(batch, fmt.Sprintf("📁 %s (%s)", filepath.Base(f.Path), FormatBytes(float64(f.Size))))
	}
}

func (w *DownloadWorker) finalize(batch string) {
	if w.marker != nil {
		if err := w.marker.Write(batch); err != nil {
			w.logger.Warn("Failed to write completion marker", zap.String("batch_id", batch), zap.Error(err))
			w.debugf(batch, "marker write failed: %v", err)
		}
	}

	w.debugf(batch, "worker finished")
	w.logger.Info("Download worker finished", zap.String("batch_id", batch))

	// Complete is always the last event of a batch
	w.events.Push(domain.NewCompleteEvent(batch))
}

// startHeartbeat keeps the inactivity detector quiet while the engine is silent
func (w *DownloadWorker) startHeartbeat(batch string) func() {
	if w.heartbeat <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(w.heartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				w.events.Push(domain.NewDebugEvent(batch, "heartbeat"))
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
	}
}

func (w *DownloadWorker) emit(batch, text string) {
	w.events.Push(domain.NewLogEvent(batch, text))
}

func (w *DownloadWorker) debugf(batch, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if w.debug != nil {
		w.debug.Add("%s", msg)
	}
	w.events.Push(domain.NewDebugEvent(batch, msg))
}

// engineLogBridge turns engine log lines into Log and Debug events
type engineLogBridge struct {
	worker *DownloadWorker
	batch  string
}

func (b *engineLogBridge) Debug(msg string) {
	b.record("debug", msg)
	b.worker.debugf(b.batch, "[engine] %s", msg)
}

func (b *engineLogBridge) Info(msg string) {
	b.record("info", msg)
	b.worker.emit(b.batch, "ℹ️ "+msg)
}

func (b *engineLogBridge) Warning(msg string) {
	b.record("warning", msg)
	b.worker.emit(b.batch, "⚠️ WARNING: "+msg)
}

func (b *engineLogBridge) Error(msg string) {
	b.record("error", msg)
	b.worker.emit(b.batch, "❌ ERROR: "+msg)
}

func (b *engineLogBridge) record(level, msg string) {
	if b.worker.multiLogger != nil {
		b.worker.multiLogger.LogEngineLine(b.batch, level, msg)
	}
}

// fileTracker remembers the last file the engine reported for the current URL
type fileTracker struct {
	mu       sync.Mutex
	last     string
	finished map[string]bool
}

func (t *fileTracker) observe(p domain.EngineProgress) {
	if p.Filename == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = p.Filename
	if p.Status == domain.EngineStatusFinished {
		if t.finished == nil {
			t.finished = make(map[string]bool)
		}
		t.finished[p.Filename] = true
	}
}

func (t *fileTracker) unfinished() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.last == "" || t.finished[t.last] {
		return "", false
	}
	return t.last, true
}
