package app

import (
	"go.uber.org/zap"

	"github.com/yourusername/vidgrab-go/internal/domain"
	"github.com/yourusername/vidgrab-go/pkg/logger"
)

// SessionDeps are the infrastructure pieces a session is assembled from.
// Marker, Inspector, FFmpeg and MultiLogger are optional.
type SessionDeps struct {
	Engine      domain.Engine
	Marker      domain.CompletionMarker
	Inspector   domain.FileInspector
	FFmpeg      FFmpegLocator
	Hooks       []SessionHook
	Logger      *zap.Logger
	MultiLogger *logger.MultiLogger
}

// EngineOptionsFromConfig converts the engine configuration; OutputDir is set per batch
func EngineOptionsFromConfig(cfg *domain.EngineConfig) domain.EngineOptions {
	return domain.EngineOptions{
		Format:            cfg.Format,
		MergeOutputFormat: cfg.MergeOutputFormat,
		OutputTemplate:    cfg.OutputTemplate,
		SocketTimeout:     cfg.SocketTimeout,
		Retries:           cfg.Retries,
		IgnoreErrors:      cfg.IgnoreErrors,
		NoPlaylist:        cfg.NoPlaylist,
		Verbose:           cfg.Verbose,
	}
}

// NewSession wires a worker and a presentation loop around one shared
// event channel, cancel flag and debug log
func NewSession(config *domain.Config, deps SessionDeps) *PresentationLoop {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	events := NewEventChannel()
	cancel := &CancelFlag{}
	debug := NewDebugLog(config.Relay.DebugBufferSize)

	worker := NewDownloadWorker(WorkerDeps{
		Engine:      deps.Engine,
		Options:     EngineOptionsFromConfig(&config.Engine),
		Events:      events,
		Cancel:      cancel,
		Debug:       debug,
		Marker:      deps.Marker,
		Inspector:   deps.Inspector,
		FFmpeg:      deps.FFmpeg,
		Heartbeat:   config.Relay.HeartbeatInterval,
		Logger:      deps.Logger.Named("worker"),
		MultiLogger: deps.MultiLogger,
	})

	return NewPresentationLoop(LoopDeps{
		Runner:      worker,
		Events:      events,
		Cancel:      cancel,
		Debug:       debug,
		Aggregator:  NewProgressAggregator(config.Relay.LogStepPercent, deps.Logger.Named("aggregator")),
		Detector:    NewCompletionDetector(deps.Marker, config.Relay.CompletionGrace, deps.Logger.Named("detector")),
		Marker:      deps.Marker,
		Hooks:       deps.Hooks,
		Logger:      deps.Logger.Named("loop"),
		MultiLogger: deps.MultiLogger,
	}, LoopOptions{
		StatusTail:       config.Relay.StatusTail,
		CreateDirs:       config.Download.CreateDirs,
		ExtraURLPatterns: config.Download.ExtraURLPattern,
	})
}
