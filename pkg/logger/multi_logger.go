package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogCategory represents different log categories
type LogCategory string

const (
	CategorySession LogCategory = "session" // Batch lifecycle events (JSON)
	CategoryEngine  LogCategory = "engine"  // Engine output lines per batch (JSON)
	CategoryError   LogCategory = "error"   // Application errors (JSON)
)

// AllCategories lists the categories written by MultiLogger
var AllCategories = []LogCategory{CategorySession, CategoryEngine, CategoryError}

// MultiLogger provides categorized logging with one daily file per category
type MultiLogger struct {
	loggers     map[LogCategory]*zap.Logger
	files       map[LogCategory]*os.File
	config      MultiLoggerConfig
	level       zapcore.Level
	mu          sync.RWMutex
	currentDate string
	now         func() time.Time
}

// MultiLoggerConfig contains configuration for multi-output logging
type MultiLoggerConfig struct {
	Level   string // debug, info, warn, error
	LogsDir string // Directory for log files
}

// NewMultiLogger creates a new multi-output logger
func NewMultiLogger(config MultiLoggerConfig) (*MultiLogger, error) {
	if config.LogsDir == "" {
		return nil, fmt.Errorf("logs_dir must be specified")
	}

	if err := os.MkdirAll(config.LogsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	ml := &MultiLogger{
		config: config,
		level:  level,
		now:    time.Now,
	}

	if err := ml.openAll(ml.now().Format("20060102")); err != nil {
		return nil, err
	}
	return ml, nil
}

// openAll (re)creates the per-category loggers for a date. Callers hold mu or own ml exclusively.
func (ml *MultiLogger) openAll(date string) error {
	loggers := make(map[LogCategory]*zap.Logger, len(AllCategories))
	files := make(map[LogCategory]*os.File, len(AllCategories))

	for _, category := range AllCategories {
		level := ml.level
		if category == CategoryError {
			level = zapcore.ErrorLevel
		}
		if category == CategoryEngine {
			level = zapcore.DebugLevel
		}

		logger, file, err := ml.createStructuredLogger(category, date, level)
		if err != nil {
			for _, f := range files {
				f.Close()
			}
			return fmt.Errorf("failed to create %s logger: %w", category, err)
		}
		loggers[category] = logger
		files[category] = file
	}

	old := ml.files
	ml.loggers = loggers
	ml.files = files
	ml.currentDate = date
	for _, f := range old {
		f.Close()
	}
	return nil
}

// createStructuredLogger creates a JSON-formatted logger for a category
func (ml *MultiLogger) createStructuredLogger(category LogCategory, date string, level zapcore.Level) (*zap.Logger, *os.File, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "msg"
	encoderConfig.LevelKey = "level"
	encoderConfig.CallerKey = ""

	logPath := filepath.Join(ml.config.LogsDir, fmt.Sprintf("%s-%s.log", category, date))
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(file), level)
	return zap.New(core), file, nil
}

// GetLogsDir returns the logs directory path
func (ml *MultiLogger) GetLogsDir() string {
	return ml.config.LogsDir
}

// GetLogger returns the structured logger for a category, rolling files over at midnight
func (ml *MultiLogger) GetLogger(category LogCategory) *zap.Logger {
	today := ml.now().Format("20060102")

	ml.mu.RLock()
	stale := today != ml.currentDate
	if !stale {
		defer ml.mu.RUnlock()
		return ml.pick(category)
	}
	ml.mu.RUnlock()

	ml.mu.Lock()
	defer ml.mu.Unlock()
	if today != ml.currentDate {
		// keep writing to the old files if the new ones cannot be opened
		_ = ml.openAll(today)
	}
	return ml.pick(category)
}

func (ml *MultiLogger) pick(category LogCategory) *zap.Logger {
	if logger, ok := ml.loggers[category]; ok {
		return logger
	}
	return ml.loggers[CategoryError]
}

// Session returns the session logger
func (ml *MultiLogger) Session() *zap.Logger {
	return ml.GetLogger(CategorySession)
}

// Engine returns the engine output logger
func (ml *MultiLogger) Engine() *zap.Logger {
	return ml.GetLogger(CategoryEngine)
}

// Error returns the error logger
func (ml *MultiLogger) Error() *zap.Logger {
	return ml.GetLogger(CategoryError)
}

// LogAppError logs an application-level error (Go errors, panics)
func (ml *MultiLogger) LogAppError(msg string, fields ...zap.Field) {
	ml.Error().Error(msg, fields...)
}

// LogSessionEvent logs a batch lifecycle event with structured data
func (ml *MultiLogger) LogSessionEvent(event string, fields ...zap.Field) {
	ml.Session().Info(event, fields...)
}

// LogEngineLine records one line of engine output for a batch
func (ml *MultiLogger) LogEngineLine(batchID, level, line string) {
	ml.Engine().Info(line, zap.String("batch_id", batchID), zap.String("engine_level", level))
}

// Sync flushes all loggers
func (ml *MultiLogger) Sync() error {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	var lastErr error
	for _, logger := range ml.loggers {
		if err := logger.Sync(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Close flushes and closes all log files
func (ml *MultiLogger) Close() error {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	var lastErr error
	for category, logger := range ml.loggers {
		if err := logger.Sync(); err != nil {
			lastErr = err
		}
		if f, ok := ml.files[category]; ok {
			if err := f.Close(); err != nil {
				lastErr = err
			}
		}
	}
	ml.files = nil
	return lastErr
}
