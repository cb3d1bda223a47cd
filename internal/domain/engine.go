package domain

import (
	"context"
	"time"
)

// EngineStatus is the status reported by the engine for a single file
type EngineStatus string

const (
	EngineStatusPreparing   EngineStatus = "preparing"
	EngineStatusDownloading EngineStatus = "downloading"
	EngineStatusFinished    EngineStatus = "finished"
	EngineStatusError       EngineStatus = "error"
)

// EngineProgress is one progress notification from the engine.
// Zero values mean "unknown".
type EngineProgress struct {
	Status             EngineStatus `json:"status"`
	Filename           string       `json:"filename"`
	DownloadedBytes    int64        `json:"downloaded_bytes"`
	TotalBytes         int64        `json:"total_bytes"`
	TotalBytesEstimate int64        `json:"total_bytes_estimate"`
	Speed              float64      `json:"speed"`
	ETA                int          `json:"eta"`
}

// Total returns the exact total size if known, otherwise the estimate
func (p EngineProgress) Total() int64 {
	if p.TotalBytes > 0 {
		return p.TotalBytes
	}
	return p.TotalBytesEstimate
}

// EngineLogger receives the engine's log lines by severity
type EngineLogger interface {
	Debug(msg string)
	Info(msg string)
	Warning(msg string)
	Error(msg string)
}

// EngineHooks bundles the callbacks the engine reports through
type EngineHooks struct {
	Progress func(EngineProgress)
	Logger   EngineLogger
}

// EngineOptions are the per-batch engine settings
type EngineOptions struct {
	OutputDir         string
	Format            string
	MergeOutputFormat string
	OutputTemplate    string
	FFmpegLocation    string
	SocketTimeout     time.Duration
	Retries           int
	IgnoreErrors      bool
	NoPlaylist        bool
	Verbose           bool
}

// Engine downloads a single URL, reporting progress and log lines through hooks
type Engine interface {
	// Name returns a human readable engine name
	Name() string

	// Prepare checks that the engine can run at all
	Prepare(ctx context.Context) error

	// Download blocks until the URL has been processed
	Download(ctx context.Context, url string, opts EngineOptions, hooks EngineHooks) error
}

// CompletionMarker is the out-of-band "batch finished" signal shared between
// the worker and the completion detector. The worker writes its batch ID;
// Consume only reports (and removes) a marker carrying the given batch ID.
type CompletionMarker interface {
	Write(batchID string) error
	Consume(batchID string) (bool, error)
	Clear() error
}

// FileCheck is the result of inspecting a downloaded file
type FileCheck struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	Valid  bool   `json:"valid"`
	Detail string `json:"detail,omitempty"`
}

// FileInspector snapshots destination directories and checks downloaded files
type FileInspector interface {
	Snapshot(dir string) (map[string]struct{}, error)
	NewFiles(dir string, before map[string]struct{}) ([]FileCheck, error)
	Check(path string) FileCheck
}
