package infrastructure

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/vidgrab-go/internal/domain"
)

// SQLiteHistoryRepository implements HistoryRepository using SQLite
type SQLiteHistoryRepository struct {
	db *gorm.DB
}

// NewSQLiteHistoryRepository opens (and migrates) the history database
func NewSQLiteHistoryRepository(dbPath string) (*SQLiteHistoryRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.BatchRecord{}, &domain.FileRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteHistoryRepository{db: db}, nil
}

// CreateBatch stores a new batch record
func (r *SQLiteHistoryRepository) CreateBatch(batch *domain.BatchRecord) error {
	return r.db.Omit("Files").Create(batch).Error
}

// UpdateBatch updates an existing batch record
func (r *SQLiteHistoryRepository) UpdateBatch(batch *domain.BatchRecord) error {
	return r.db.Omit("Files").Save(batch).Error
}

// AddFiles attaches downloaded files to a batch
func (r *SQLiteHistoryRepository) AddFiles(batchID string, files []domain.FileRecord) error {
	if len(files) == 0 {
		return nil
	}
	for i := range files {
		files[i].BatchID = batchID
	}
	return r.db.Create(&files).Error
}

// FindBatch finds a batch by ID, including its files
func (r *SQLiteHistoryRepository) FindBatch(id string) (*domain.BatchRecord, error) {
	var batch domain.BatchRecord
	err := r.db.Preload("Files", func(db *gorm.DB) *gorm.DB {
		return db.Order("filename ASC")
	}).First(&batch, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBatchNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// ListBatches returns the most recent batches first
func (r *SQLiteHistoryRepository) ListBatches(limit int) ([]*domain.BatchRecord, error) {
	var batches []*domain.BatchRecord
	query := r.db.Preload("Files").Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&batches).Error
	return batches, err
}

// GetStats returns aggregate history statistics
func (r *SQLiteHistoryRepository) GetStats() (*domain.HistoryStats, error) {
	stats := &domain.HistoryStats{}

	if err := r.db.Model(&domain.BatchRecord{}).Count(&stats.Batches).Error; err != nil {
		return nil, err
	}

	statusCounts := []struct {
		Status domain.BatchStatus
		Count  int64
	}{}

	if err := r.db.Model(&domain.BatchRecord{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, err
	}

	for _, sc := range statusCounts {
		switch sc.Status {
		case domain.BatchRunning:
			stats.Running = sc.Count
		case domain.BatchCompleted:
			stats.Completed = sc.Count
		case domain.BatchStopped:
			stats.Stopped = sc.Count
		}
	}

	fileTotals := struct {
		Files   int64
		Invalid int64
		Size    int64
	}{}
	if err := r.db.Model(&domain.FileRecord{}).
		Select("count(*) as files, coalesce(sum(case when valid then 0 else 1 end), 0) as invalid, coalesce(sum(size_bytes), 0) as size").
		Scan(&fileTotals).Error; err != nil {
		return nil, err
	}
	stats.Files = fileTotals.Files
	stats.InvalidFiles = fileTotals.Invalid
	stats.TotalSizeBytes = fileTotals.Size

	return stats, nil
}

// Close closes the database connection
func (r *SQLiteHistoryRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
