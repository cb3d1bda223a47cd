package domain

import (
	"encoding/json"
	"time"
)

// BatchStatus represents the lifecycle of a recorded batch
type BatchStatus string

const (
	BatchRunning   BatchStatus = "running"
	BatchCompleted BatchStatus = "completed"
	BatchStopped   BatchStatus = "stopped"
)

// BatchRecord is the persisted summary of one download batch
type BatchRecord struct {
	ID               string           `json:"id" gorm:"primaryKey"`
	DestDir          string           `json:"dest_dir" gorm:"not null"`
	URLs             string           `json:"urls" gorm:"type:text"` // JSON array
	Status           BatchStatus      `json:"status" gorm:"not null;index"`
	TotalRequested   int              `json:"total_requested"`
	CompletedCount   int              `json:"completed_count"`
	CompletionReason CompletionReason `json:"completion_reason,omitempty"`
	Files            []FileRecord     `json:"files,omitempty" gorm:"foreignKey:BatchID"`
	CreatedAt        time.Time        `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt        time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
	FinishedAt       *time.Time       `json:"finished_at,omitempty"`
}

// FileRecord is a downloaded file belonging to a batch
type FileRecord struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	BatchID   string    `json:"batch_id" gorm:"not null;index"`
	Filename  string    `json:"filename"`
	Path      string    `json:"path"`
	SizeBytes int64     `json:"size_bytes"`
	Valid     bool      `json:"valid"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// NewBatchRecord creates a running record for a request
func NewBatchRecord(req *DownloadRequest) *BatchRecord {
	urls, _ := json.Marshal(req.URLs)
	return &BatchRecord{
		ID:             req.ID,
		DestDir:        req.DestDir,
		URLs:           string(urls),
		Status:         BatchRunning,
		TotalRequested: len(req.URLs),
		CreatedAt:      req.CreatedAt,
	}
}

// URLList decodes the stored URL list
func (b *BatchRecord) URLList() []string {
	var urls []string
	if err := json.Unmarshal([]byte(b.URLs), &urls); err != nil {
		return nil
	}
	return urls
}

// MarkFinished records the outcome of a completed session
func (b *BatchRecord) MarkFinished(snap SessionSnapshot, stopped bool) {
	b.Status = BatchCompleted
	if stopped {
		b.Status = BatchStopped
	}
	b.CompletedCount = snap.CompletedCount
	b.CompletionReason = snap.CompletionReason
	finished := time.Now()
	if snap.FinishedAt != nil {
		finished = *snap.FinishedAt
	}
	b.FinishedAt = &finished
}
