package domain

import (
	"path/filepath"
)

// File is a source or built file, relative to the source or build root.
// A file made from an absolute path has an empty Subdir.
type File struct {
	IsBuilt bool
	Subdir  string
	Fname   string
}

// SourceFile returns a file of the source tree.
func SourceFile(subdir, fname string) File {
	return File{Subdir: subdir, Fname: fname}
}

// BuiltFile returns a file of the build tree.
func BuiltFile(subdir, fname string) File {
	return File{IsBuilt: true, Subdir: subdir, Fname: fname}
}

// AbsoluteFile returns a file outside of both trees.
func AbsoluteFile(fname string) File {
	return File{Fname: fname}
}

// RelativeName returns the path of the file below its root.
func (f File) RelativeName() string {
	return filepath.Join(f.Subdir, f.Fname)
}

// AbsolutePath resolves the file against the source and build roots.
func (f File) AbsolutePath(srcdir, builddir string) string {
	if filepath.IsAbs(f.Fname) {
		return f.Fname
	}
	if f.IsBuilt {
		return filepath.Join(builddir, f.Subdir, f.Fname)
	}
	return filepath.Join(srcdir, f.Subdir, f.Fname)
}

// EndsWith reports whether the file name has the given suffix.
func (f File) EndsWith(suffix string) bool {
	return len(f.Fname) >= len(suffix) && f.Fname[len(f.Fname)-len(suffix):] == suffix
}

func (f File) String() string {
	if f.IsBuilt {
		return filepath.Join("@build", f.Subdir, f.Fname)
	}
	return f.RelativeName()
}
