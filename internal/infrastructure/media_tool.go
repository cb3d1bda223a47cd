package infrastructure

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"
)

// MediaToolLocator finds ffmpeg (and ffprobe) shipped next to the binary
type MediaToolLocator struct {
	bundleDir string
	enabled   bool
	logger    *zap.Logger
}

// NewMediaToolLocator creates a locator; an empty bundleDir means the executable's directory
func NewMediaToolLocator(bundleDir string, enabled bool, logger *zap.Logger) *MediaToolLocator {
	return &MediaToolLocator{bundleDir: bundleDir, enabled: enabled, logger: logger}
}

// Locate returns the bundled ffmpeg path, or "" to let yt-dlp use the system one
func (l *MediaToolLocator) Locate() (string, error) {
	if !l.enabled {
		return "", nil
	}

	dir := l.bundleDir
	if dir == "" {
		exe, err := os.Executable()
		if err != nil {
			return "", fmt.Errorf("failed to resolve executable: %w", err)
		}
		dir = filepath.Dir(exe)
	}

	ffmpeg := filepath.Join(dir, toolName("ffmpeg"))
	if err := ensureExecutable(ffmpeg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}

	// ffprobe is optional; yt-dlp finds it next to ffmpeg
	if err := ensureExecutable(filepath.Join(dir, toolName("ffprobe"))); err != nil && !errors.Is(err, os.ErrNotExist) {
		l.logger.Warn("Bundled ffprobe is not usable", zap.Error(err))
	}

	l.logger.Debug("Using bundled ffmpeg", zap.String("path", ffmpeg))
	return ffmpeg, nil
}

func toolName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

// ensureExecutable adds the execute bits that archive extraction tends to drop
func ensureExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if runtime.GOOS == "windows" || info.Mode()&0100 != 0 {
		return nil
	}
	if err := os.Chmod(path, info.Mode()|0111); err != nil {
		return fmt.Errorf("could not set permissions for %s: %w", filepath.Base(path), err)
	}
	return nil
}
