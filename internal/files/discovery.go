package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	apperrors "labmeas/internal/errors"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery turns command-line arguments into measurement file paths
type Discovery struct {
	logger *slog.Logger
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{logger: logger}
}

// Expand resolves each pattern to files. A pattern is a glob; a match that
// is a directory contributes the files directly inside it. Matches of one
// pattern are sorted by path, patterns keep their order and each file is
// listed once. Hidden files and Office lock files (~$name) are skipped.
// A literal path that does not exist is an error; a glob with no match only
// logs a warning.
func (d *Discovery) Expand(patterns []string) ([]FileInfo, error) {
	seen := make(map[string]struct{})
	var files []FileInfo

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if !hasMeta(pattern) {
				return nil, apperrors.NewStorageError("no such file "+pattern, os.ErrNotExist).
					WithContext("path", pattern)
			}
			d.logger.Warn("Pattern matched no files", slog.String("pattern", pattern))
		}

		var found []FileInfo
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				d.logger.Warn("Skipping unreadable path",
					slog.String("path", match),
					slog.String("error", err.Error()))
				continue
			}
			if !info.IsDir() {
				if keep(info.Name()) {
					found = append(found, fileInfo(match, info))
				}
				continue
			}
			inner, err := d.listDirectory(match)
			if err != nil {
				return nil, err
			}
			found = append(found, inner...)
		}

		sort.Slice(found, func(i, j int) bool { return found[i].Path < found[j].Path })
		for _, f := range found {
			if _, dup := seen[f.Path]; dup {
				continue
			}
			seen[f.Path] = struct{}{}
			files = append(files, f)
		}
	}

	d.logger.Debug("Files discovered",
		slog.Int("patterns", len(patterns)),
		slog.Int("count", len(files)))
	return files, nil
}

// Paths returns the path of every file in order
func Paths(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func (d *Discovery) listDirectory(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !keep(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, fileInfo(filepath.Join(dir, entry.Name()), info))
	}
	return files, nil
}

// hasMeta reports whether pattern uses any filepath.Match syntax
func hasMeta(pattern string) bool {
	magic := `*?[`
	if filepath.Separator != '\\' {
		magic = `*?[\`
	}
	return strings.ContainsAny(pattern, magic)
}

func keep(name string) bool {
	return !strings.HasPrefix(name, ".") && !strings.HasPrefix(name, "~$")
}

func fileInfo(path string, info os.FileInfo) FileInfo {
	return FileInfo{
		Path:    path,
		Name:    info.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
}
