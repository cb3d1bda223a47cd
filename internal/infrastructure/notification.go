package infrastructure

import (
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/vidgrab-go/internal/domain"
)

// NotificationService sends desktop notifications about batches
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
	run    func(name string, args ...string) error
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		config: config,
		logger: logger,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// Send sends a notification
func (n *NotificationService) Send(title, message string) error {
	if !n.config.Enabled {
		n.logger.Debug("Notifications disabled, skipping",
			zap.String("title", title),
			zap.String("message", message))
		return nil
	}

	var err error
	switch n.config.Method {
	case "osascript":
		script := fmt.Sprintf(`display notification %s with title %s`, appleScriptString(message), appleScriptString(title))
		if n.config.Sound {
			script += ` sound name "Glass"`
		}
		err = n.run("osascript", "-e", script)
	case "notify-send":
		args := []string{"--app-name=vidgrab"}
		if n.config.Sound {
			args = append(args, "--hint=string:sound-name:complete")
		}
		err = n.run("notify-send", append(args, title, message)...)
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}

	if err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", n.config.Method),
			zap.Error(err))
		return err
	}

	n.logger.Debug("Notification sent",
		zap.String("title", title),
		zap.String("message", message))
	return nil
}

// NotifyBatchStarted announces a new batch
func (n *NotificationService) NotifyBatchStarted(req *domain.DownloadRequest) {
	message := fmt.Sprintf("Downloading %d video(s) to %s", len(req.URLs), truncateString(req.DestDir, 40))
	n.Send("Download Started", message)
}

// NotifyBatchCompleted reports how a batch ended
func (n *NotificationService) NotifyBatchCompleted(snap domain.SessionSnapshot, stopped bool) {
	title := "Download Completed"
	if stopped {
		title = "Download Stopped"
	}
	message := fmt.Sprintf("%d/%d video(s) completed", snap.CompletedCount, snap.TotalRequested)
	n.Send(title, message)
}

// appleScriptString quotes s as an AppleScript string literal
func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// truncateString truncates a string to the specified length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
