package infrastructure

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/h2non/filetype"

	"github.com/yourusername/vidgrab-go/internal/domain"
)

// MinVideoSize is the smallest file considered a real download
const MinVideoSize = 1024

// headerSize is what filetype needs to recognise every supported container
const headerSize = 262

var videoExtensions = map[string]bool{
	".mp4": true, ".m4v": true, ".mkv": true, ".webm": true,
	".mov": true, ".avi": true, ".flv": true,
}

// FileInspector finds new video files in a destination and checks they look complete
type FileInspector struct{}

// NewFileInspector creates a file inspector
func NewFileInspector() *FileInspector {
	return &FileInspector{}
}

// Snapshot records the names present in dir; a missing dir is an empty snapshot
func (fi *FileInspector) Snapshot(dir string) (map[string]struct{}, error) {
	names := make(map[string]struct{})
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return names, nil
		}
		return names, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	for _, e := range entries {
		names[e.Name()] = struct{}{}
	}
	return names, nil
}

// NewFiles checks every video file in dir that was not in before, sorted by name
func (fi *FileInspector) NewFiles(dir string, before map[string]struct{}) ([]domain.FileCheck, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var checks []domain.FileCheck
	for _, e := range entries {
		if e.IsDir() || !isVideoFile(e.Name()) {
			continue
		}
		if _, seen := before[e.Name()]; seen {
			continue
		}
		checks = append(checks, fi.Check(filepath.Join(dir, e.Name())))
	}

	sort.Slice(checks, func(i, j int) bool { return checks[i].Name < checks[j].Name })
	return checks, nil
}

// Check inspects one file's size and container signature
func (fi *FileInspector) Check(path string) domain.FileCheck {
	check := domain.FileCheck{Name: filepath.Base(path), Path: path}

	info, err := os.Stat(path)
	if err != nil {
		check.Detail = fmt.Sprintf("stat failed: %v", err)
		return check
	}
	check.Size = info.Size()

	if check.Size < MinVideoSize {
		check.Detail = fmt.Sprintf("only %d bytes", check.Size)
		return check
	}

	header, err := readHeader(path)
	if err != nil {
		check.Detail = fmt.Sprintf("read failed: %v", err)
		return check
	}

	if filetype.IsVideo(header) {
		kind, _ := filetype.Match(header)
		check.Valid = true
		check.Detail = kind.MIME.Value
		return check
	}

	// fragmented or unusual mp4 brands filetype does not know about
	if len(header) >= 8 && bytes.Equal(header[4:8], []byte("ftyp")) {
		check.Valid = true
		check.Detail = "video/mp4"
		return check
	}

	check.Detail = "unrecognised container"
	return check
}

func readHeader(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, headerSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return buf[:n], nil
}

func isVideoFile(name string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(name))]
}
