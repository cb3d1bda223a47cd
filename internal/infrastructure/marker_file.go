package infrastructure

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// MarkerFile is the out-of-band completion signal: the worker writes it when
// a batch ends and the completion detector consumes it. A sibling lock file
// keeps a write and a consume from interleaving; each operation opens its own
// lock handle since flock(2) only excludes separate descriptors.
type MarkerFile struct {
	path string
}

// NewMarkerFile creates a marker at path; its directory is created on demand
func NewMarkerFile(path string) *MarkerFile {
	return &MarkerFile{path: path}
}

// Path returns the marker location
func (m *MarkerFile) Path() string {
	return m.path
}

// Write creates (or replaces) the marker for batchID
func (m *MarkerFile) Write(batchID string) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("failed to create marker directory: %w", err)
	}
	lock := flock.New(m.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock marker: %w", err)
	}
	defer lock.Unlock()

	content := fmt.Sprintf("%s %s\n", time.Now().Format(time.RFC3339), batchID)
	if err := os.WriteFile(m.path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write marker: %w", err)
	}
	return nil
}

// Consume reports whether the marker was written for batchID and deletes it
// if so. A marker left by another batch is not touched.
func (m *MarkerFile) Consume(batchID string) (bool, error) {
	if _, err := os.Stat(m.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat marker: %w", err)
	}

	lock := flock.New(m.path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to lock marker: %w", err)
	}
	if !locked {
		// being written right now; the next tick will see it
		return false, nil
	}
	defer lock.Unlock()

	data, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read marker: %w", err)
	}
	if markerBatch(data) != batchID {
		return false, nil
	}

	if err := os.Remove(m.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return true, fmt.Errorf("failed to remove marker: %w", err)
	}
	return true, nil
}

// markerBatch extracts the batch ID from "<RFC3339 time> <batch id>"
func markerBatch(data []byte) string {
	_, batchID, found := strings.Cut(strings.TrimSpace(string(data)), " ")
	if !found {
		return ""
	}
	return batchID
}

// Clear removes a stale marker left by an earlier batch
func (m *MarkerFile) Clear() error {
	if err := os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear marker: %w", err)
	}
	return nil
}
