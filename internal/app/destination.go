package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/yourusername/vidgrab-go/internal/domain"
)

// PrepareDestination resolves dir to an absolute, existing, writable directory,
// creating it when allowed. Failures are validation errors.
func PrepareDestination(dir string, create bool) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return "", domain.NewValidationError("dest_dir", "destination directory is required")
	}

	abs, err := filepath.Abs(expandPath(dir))
	if err != nil {
		return "", domain.NewValidationError("dest_dir", "cannot resolve %s: %v", dir, err)
	}

	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if !create {
			return "", domain.NewValidationError("dest_dir", "%s does not exist", abs)
		}
		if err := os.MkdirAll(abs, 0755); err != nil {
			return "", domain.NewValidationError("dest_dir", "%s cannot be created: %v", abs, err)
		}
	case err != nil:
		return "", domain.NewValidationError("dest_dir", "%s is not accessible: %v", abs, err)
	case !info.IsDir():
		return "", domain.NewValidationError("dest_dir", "%s is not a directory", abs)
	}

	probe, err := os.CreateTemp(abs, ".vidgrab-write-*")
	if err != nil {
		return "", domain.NewValidationError("dest_dir", "%s is not writable", abs)
	}
	probe.Close()
	os.Remove(probe.Name())

	return abs, nil
}

// ResolveDefaultDir returns the configured default directory, or the system
// temp directory when it cannot be created
func ResolveDefaultDir(dir string) string {
	if dir != "" {
		if err := os.MkdirAll(expandPath(dir), 0755); err == nil {
			return expandPath(dir)
		}
	}
	return os.TempDir()
}
