package domain

// HistoryRepository defines the interface for batch history persistence
type HistoryRepository interface {
	// CreateBatch stores a new batch record
	CreateBatch(batch *BatchRecord) error

	// UpdateBatch updates an existing batch record
	UpdateBatch(batch *BatchRecord) error

	// AddFiles attaches downloaded files to a batch
	AddFiles(batchID string, files []FileRecord) error

	// FindBatch finds a batch by ID, including its files
	FindBatch(id string) (*BatchRecord, error)

	// ListBatches returns the most recent batches first
	ListBatches(limit int) ([]*BatchRecord, error)

	// GetStats returns aggregate history statistics
	GetStats() (*HistoryStats, error)

	// Close releases the underlying storage
	Close() error
}

// HistoryStats represents aggregate download history
type HistoryStats struct {
	Batches        int64 `json:"batches"`
	Running        int64 `json:"running"`
	Completed      int64 `json:"completed"`
	Stopped        int64 `json:"stopped"`
	Files          int64 `json:"files"`
	InvalidFiles   int64 `json:"invalid_files"`
	TotalSizeBytes int64 `json:"total_size_bytes"`
}
