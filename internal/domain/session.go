package domain

import (
	"fmt"
	"path/filepath"
	"time"
)

// FileStatus represents the state of one file within a batch
type FileStatus string

const (
	FilePreparing   FileStatus = "preparing"
	FileDownloading FileStatus = "downloading"
	FileCompleted   FileStatus = "completed"
	FileErrored     FileStatus = "errored"
)

// CompletionReason records which signal ended a batch
type CompletionReason string

const (
	CompletedByEvent   CompletionReason = "event"
	CompletedByMarker  CompletionReason = "marker"
	CompletedByTimeout CompletionReason = "timeout"
)

// MaxSessionLogLines bounds the accumulated status log of a session
const MaxSessionLogLines = 2000

// FileProgress tracks a single file, keyed by base filename.
// Two files with the same base name share an entry.
type FileProgress struct {
	Filename        string     `json:"filename"`
	Path            string     `json:"path"`
	DownloadedBytes int64      `json:"downloaded_bytes"`
	TotalBytes      int64      `json:"total_bytes"`
	Speed           float64    `json:"speed"`
	Percent         float64    `json:"percent"`
	Status          FileStatus `json:"status"`
	UpdatedAt       time.Time  `json:"updated_at"`
	LoggedStep      int        `json:"-"`
}

// CurrentDownload is the preformatted summary of the file in flight
type CurrentDownload struct {
	Filename   string     `json:"filename"`
	Percent    float64    `json:"percent"`
	Downloaded string     `json:"downloaded"`
	Total      string     `json:"total"`
	Speed      string     `json:"speed"`
	ETA        string     `json:"eta"`
	Status     FileStatus `json:"status"`
}

// SessionState is the presentation-side state of the current batch.
// It is owned by the presentation loop and never touched by the worker.
type SessionState struct {
	BatchID          string
	DestDir          string
	IsDownloading    bool
	Complete         bool
	StopRequested    bool
	TotalRequested   int
	CompletedCount   int
	LastEventTime    time.Time
	StartedAt        time.Time
	FinishedAt       time.Time
	CompletionReason CompletionReason
	Files            map[string]*FileProgress
	FileOrder        []string
	Current          *CurrentDownload
	DownloadedFiles  []string
	Log              []string
}

// NewSessionState creates an idle session
func NewSessionState() *SessionState {
	return &SessionState{Files: make(map[string]*FileProgress)}
}

// Begin resets the session for a new batch and marks it as downloading
func (s *SessionState) Begin(req *DownloadRequest, now time.Time) {
	*s = SessionState{
		BatchID:        req.ID,
		DestDir:        req.DestDir,
		IsDownloading:  true,
		TotalRequested: len(req.URLs),
		LastEventTime:  now,
		StartedAt:      now,
		Files:          make(map[string]*FileProgress),
	}
}

// MarkComplete performs the completion transition. It returns false when the
// session was not downloading, so each batch completes exactly once.
func (s *SessionState) MarkComplete(reason CompletionReason, now time.Time) bool {
	if !s.IsDownloading {
		return false
	}
	s.IsDownloading = false
	s.Complete = true
	s.StopRequested = false
	s.Current = nil
	s.CompletionReason = reason
	s.FinishedAt = now
	return true
}

// Touch records activity from the worker
func (s *SessionState) Touch(at time.Time) {
	if at.After(s.LastEventTime) {
		s.LastEventTime = at
	}
}

// AppendLog adds a timestamped line to the status log
func (s *SessionState) AppendLog(at time.Time, text string) {
	s.Log = append(s.Log, fmt.Sprintf("[%s] %s", at.Format("15:04:05"), text))
	if over := len(s.Log) - MaxSessionLogLines; over > 0 {
		s.Log = append([]string(nil), s.Log[over:]...)
	}
}

// File returns the progress entry for a path, creating it on first sight
func (s *SessionState) File(path string) *FileProgress {
	name := filepath.Base(path)
	if f, ok := s.Files[name]; ok {
		if path != "" {
			f.Path = path
		}
		return f
	}
	f := &FileProgress{Filename: name, Path: path, Status: FilePreparing}
	s.Files[name] = f
	s.FileOrder = append(s.FileOrder, name)
	return f
}

// RecordFinished marks a file completed. The completed count grows once per
// distinct file and never exceeds the number of requested URLs.
func (s *SessionState) RecordFinished(path string, at time.Time) bool {
	f := s.File(path)
	if f.Status == FileCompleted {
		return false
	}
	f.Status = FileCompleted
	f.Percent = 100
	if f.TotalBytes > 0 {
		f.DownloadedBytes = f.TotalBytes
	}
	f.UpdatedAt = at

	s.DownloadedFiles = append(s.DownloadedFiles, path)
	if s.CompletedCount < s.TotalRequested {
		s.CompletedCount++
	}
	return true
}

// OverallPercent estimates batch progress from completed files and the file in flight
func (s *SessionState) OverallPercent() float64 {
	if s.TotalRequested == 0 {
		return 0
	}
	if s.Complete {
		return 100
	}
	pct := float64(s.CompletedCount) / float64(s.TotalRequested) * 100
	if s.Current != nil && s.Current.Status == FileDownloading && s.CompletedCount < s.TotalRequested {
		pct += s.Current.Percent / float64(s.TotalRequested)
	}
	if pct > 100 {
		pct = 100
	}
	return pct
}

// SessionSnapshot is an immutable copy of the session handed to renderers
type SessionSnapshot struct {
	BatchID           string           `json:"batch_id,omitempty"`
	DestDir           string           `json:"dest_dir,omitempty"`
	IsDownloading     bool             `json:"is_downloading"`
	Complete          bool             `json:"complete"`
	StopRequested     bool             `json:"stop_requested"`
	TotalRequested    int              `json:"total_requested"`
	CompletedCount    int              `json:"completed_count"`
	OverallPercent    float64          `json:"overall_percent"`
	CompletionReason  CompletionReason `json:"completion_reason,omitempty"`
	StartedAt         *time.Time       `json:"started_at,omitempty"`
	FinishedAt        *time.Time       `json:"finished_at,omitempty"`
	SecondsSinceEvent float64          `json:"seconds_since_event"`
	Current           *CurrentDownload `json:"current,omitempty"`
	Files             []FileProgress   `json:"files"`
	DownloadedFiles   []string         `json:"downloaded_files"`
	Log               []string         `json:"log"`
	LogTotal          int              `json:"log_total"`
}

// Snapshot copies the session; tail limits the number of log lines (0 = all)
func (s *SessionState) Snapshot(tail int, now time.Time) SessionSnapshot {
	snap := SessionSnapshot{
		BatchID:          s.BatchID,
		DestDir:          s.DestDir,
		IsDownloading:    s.IsDownloading,
		Complete:         s.Complete,
		StopRequested:    s.StopRequested,
		TotalRequested:   s.TotalRequested,
		CompletedCount:   s.CompletedCount,
		OverallPercent:   s.OverallPercent(),
		CompletionReason: s.CompletionReason,
		Files:            make([]FileProgress, 0, len(s.FileOrder)),
		DownloadedFiles:  append([]string{}, s.DownloadedFiles...),
		LogTotal:         len(s.Log),
	}

	if !s.StartedAt.IsZero() {
		started := s.StartedAt
		snap.StartedAt = &started
	}
	if !s.FinishedAt.IsZero() {
		finished := s.FinishedAt
		snap.FinishedAt = &finished
	}
	if s.IsDownloading && !s.LastEventTime.IsZero() {
		snap.SecondsSinceEvent = now.Sub(s.LastEventTime).Seconds()
	}
	if s.Current != nil {
		current := *s.Current
		snap.Current = &current
	}
	for _, name := range s.FileOrder {
		snap.Files = append(snap.Files, *s.Files[name])
	}

	log := s.Log
	if tail > 0 && len(log) > tail {
		log = log[len(log)-tail:]
	}
	snap.Log = append([]string{}, log...)

	return snap
}

// BundlePaths returns the downloaded files as absolute paths, resolving
// relative entries against the destination directory
func (s SessionSnapshot) BundlePaths() []string {
	paths := make([]string, 0, len(s.DownloadedFiles))
	for _, p := range s.DownloadedFiles {
		if !filepath.IsAbs(p) && s.DestDir != "" {
			p = filepath.Join(s.DestDir, p)
		}
		paths = append(paths, p)
	}
	return paths
}
