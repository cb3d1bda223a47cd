package infrastructure

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ZipBundler streams downloaded files into a single zip archive
type ZipBundler struct{}

// NewZipBundler creates a bundler
func NewZipBundler() *ZipBundler {
	return &ZipBundler{}
}

// Write archives every existing file in paths into w, flat by base name.
// Missing files are skipped; it returns how many files were added.
// Existing filters paths down to regular files still on disk
func (b *ZipBundler) Existing(paths []string) []string {
	var files []string
	for _, path := range paths {
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			files = append(files, path)
		}
	}
	return files
}

func (b *ZipBundler) Write(w io.Writer, paths []string) (int, error) {
	zw := zip.NewWriter(w)
	used := make(map[string]int)
	added := 0

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return added, fmt.Errorf("failed to build zip header for %s: %w", path, err)
		}
		header.Name = uniqueName(filepath.Base(path), used)
		// video containers are already compressed
		header.Method = zip.Store

		if err := copyIntoZip(zw, header, path); err != nil {
			return added, err
		}
		added++
	}

	if err := zw.Close(); err != nil {
		return added, fmt.Errorf("failed to finish zip: %w", err)
	}
	return added, nil
}

func copyIntoZip(zw *zip.Writer, header *zip.FileHeader, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	dst, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", header.Name, err)
	}
	if _, err := io.Copy(dst, f); err != nil {
		return fmt.Errorf("failed to write %s: %w", header.Name, err)
	}
	return nil
}

// uniqueName appends " (n)" before the extension for repeated names
func uniqueName(name string, used map[string]int) string {
	n := used[name]
	used[name] = n + 1
	if n == 0 {
		return name
	}
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(name, ext), n, ext)
}
