package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FileSystem is the view of the source tree the loaders read through.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	// Glob returns the regular files matching pattern, sorted. The
	// pattern may contain "**".
	Glob(pattern string) ([]string, error)
}

// OSFS reads the real source tree.
type OSFS struct{}

// NewOSFS creates a new OSFS instance.
func NewOSFS() *OSFS {
	return &OSFS{}
}

// Stat implements FileSystem.
func (o *OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// ReadFile implements FileSystem.
func (o *OSFS) ReadFile(path string) ([]byte, error) {
	// #nosec G304 -- project files are read from the configured source tree
	return os.ReadFile(path)
}

// Glob implements FileSystem.
func (o *OSFS) Glob(pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	slices.Sort(matches)
	return matches, nil
}

// MapFSAdapter serves an fs.FS as if it were mounted at Root. Tests use
// it with fstest.MapFS.
type MapFSAdapter struct {
	FS   fs.FS
	Root string
}

// NewMapFSAdapter mounts fsys at root.
func NewMapFSAdapter(root string, fsys fs.FS) *MapFSAdapter {
	return &MapFSAdapter{FS: fsys, Root: root}
}

// Stat implements FileSystem.
func (m *MapFSAdapter) Stat(path string) (fs.FileInfo, error) {
	return fs.Stat(m.FS, m.rel(path))
}

// ReadFile implements FileSystem.
func (m *MapFSAdapter) ReadFile(path string) ([]byte, error) {
	return fs.ReadFile(m.FS, m.rel(path))
}

// Glob implements FileSystem. Matches are joined back onto Root.
func (m *MapFSAdapter) Glob(pattern string) ([]string, error) {
	matches, err := doublestar.Glob(m.FS, m.rel(pattern), doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	out := make([]string, len(matches))
	for i, match := range matches {
		out[i] = filepath.Join(m.Root, filepath.FromSlash(match))
	}
	slices.Sort(out)
	return out, nil
}

// rel maps an absolute path under Root to an fs.FS name. Paths outside
// Root come back unchanged and fail to resolve.
func (m *MapFSAdapter) rel(path string) string {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(m.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.ToSlash(rel)
}
