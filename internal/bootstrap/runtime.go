// Package bootstrap assembles the download session from configuration for
// both front-ends.
package bootstrap

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/yourusername/vidgrab-go/internal/app"
	"github.com/yourusername/vidgrab-go/internal/domain"
	"github.com/yourusername/vidgrab-go/internal/infrastructure"
	"github.com/yourusername/vidgrab-go/pkg/logger"
)

// Runtime is a fully wired session. History is nil when disabled.
type Runtime struct {
	Config     *domain.Config
	Loop       *app.PresentationLoop
	History    domain.HistoryRepository
	Bundler    *infrastructure.ZipBundler
	EngineName string

	notifications *app.NotificationHook
	logger        *zap.Logger
}

// Build creates the engine, marker, inspector, history and notification
// hooks and a presentation loop over them. The default destination is
// resolved in place.
func Build(config *domain.Config, log *zap.Logger, multiLogger *logger.MultiLogger) (*Runtime, error) {
	if log == nil {
		log = zap.NewNop()
	}

	config.Download.DefaultDir = app.ResolveDefaultDir(config.Download.DefaultDir)

	engine := infrastructure.NewYTDLPEngine(config.Engine.YTDLPBinary, log.Named("engine"))
	marker := infrastructure.NewMarkerFile(config.Relay.MarkerFile)
	inspector := infrastructure.NewFileInspector()
	ffmpeg := infrastructure.NewMediaToolLocator(config.Engine.BundleDir, config.Engine.UseBundledFFmpeg, log.Named("ffmpeg"))

	rt := &Runtime{
		Config:     config,
		Bundler:    infrastructure.NewZipBundler(),
		EngineName: engine.Name(),
		logger:     log,
	}

	var hooks []app.SessionHook
	if config.History.Enabled {
		repo, err := infrastructure.NewSQLiteHistoryRepository(config.History.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
		rt.History = repo
		hooks = append(hooks, app.NewHistoryRecorder(repo, inspector, log.Named("history"), multiLogger))
	}
	if config.Notification.Enabled {
		notifier := infrastructure.NewNotificationService(&config.Notification, log.Named("notify"))
		rt.notifications = app.NewNotificationHook(notifier)
		hooks = append(hooks, rt.notifications)
	}

	rt.Loop = app.NewSession(config, app.SessionDeps{
		Engine:      engine,
		Marker:      marker,
		Inspector:   inspector,
		FFmpeg:      ffmpeg,
		Hooks:       hooks,
		Logger:      log,
		MultiLogger: multiLogger,
	})

	log.Info("Session assembled",
		zap.String("engine", rt.EngineName),
		zap.String("default_dir", config.Download.DefaultDir),
		zap.Bool("history", rt.History != nil),
		zap.Bool("notifications", rt.notifications != nil))

	return rt, nil
}

// Close waits for pending notifications and closes the history store
func (rt *Runtime) Close() error {
	if rt.notifications != nil {
		rt.notifications.Wait()
	}
	if rt.History != nil {
		if err := rt.History.Close(); err != nil {
			return fmt.Errorf("failed to close history: %w", err)
		}
	}
	return nil
}
