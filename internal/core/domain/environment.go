package domain

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Unity build modes.
const (
	UnityOff         = "off"
	UnityOn          = "on"
	UnitySubprojects = "subprojects"
)

// Options are the project wide settings targets read at construction.
type Options struct {
	Unity string
	// BPIE and BStaticPIC are nil when the compilers do not offer them.
	BPIE       *bool
	BStaticPIC *bool
	Prefix     string
	BinDir     string
	LibDir     string
}

// DefaultOptions returns the options of a fresh native build.
func DefaultOptions() Options {
	pie, pic := false, true
	return Options{
		Unity:      UnityOff,
		BPIE:       &pie,
		BStaticPIC: &pic,
		Prefix:     "/usr/local",
		BinDir:     "bin",
		LibDir:     "lib",
	}
}

// Environment describes the machines, compilers and directories of a build.
type Environment struct {
	SourceDir string
	BuildDir  string
	// SourceFS is used to check that referenced source files exist.
	SourceFS  fs.FS
	Machines  PerMachine[MachineInfo]
	Compilers PerMachine[*CompilerSet]
	Options   Options
	Cross     bool
}

// NewEnvironment returns a native environment rooted at sourceDir.
func NewEnvironment(sourceDir, buildDir string, machine MachineInfo) *Environment {
	return &Environment{
		SourceDir: sourceDir,
		BuildDir:  buildDir,
		SourceFS:  os.DirFS(sourceDir),
		Machines:  PerMachine[MachineInfo]{Build: machine, Host: machine},
		Compilers: PerMachine[*CompilerSet]{Build: NewCompilerSet(), Host: NewCompilerSet()},
		Options:   DefaultOptions(),
	}
}

// IsCrossBuild reports whether the build and host machines differ.
func (e *Environment) IsCrossBuild() bool { return e.Cross }

// Machine returns the description of m.
func (e *Environment) Machine(m MachineChoice) MachineInfo { return e.Machines.Get(m) }

// CompilersFor returns the compilers of m. It never returns nil.
func (e *Environment) CompilersFor(m MachineChoice) *CompilerSet {
	if c := e.Compilers.Get(m); c != nil {
		return c
	}
	return NewCompilerSet()
}

// FileExists reports whether rel names a regular file below the source root.
// Absolute paths are checked on the host filesystem.
func (e *Environment) FileExists(rel string) bool {
	if filepath.IsAbs(rel) {
		info, err := os.Stat(rel)
		return err == nil && !info.IsDir()
	}
	if e.SourceFS == nil {
		return true
	}
	name := path.Clean(filepath.ToSlash(rel))
	if strings.HasPrefix(name, "../") {
		return false
	}
	info, err := fs.Stat(e.SourceFS, name)
	return err == nil && !info.IsDir()
}

// BinDir returns the executable install directory.
func (e *Environment) BinDir() string { return e.Options.BinDir }

// StaticLibDir returns the static library install directory.
func (e *Environment) StaticLibDir() string { return e.Options.LibDir }

// SharedModuleDir returns the shared module install directory.
func (e *Environment) SharedModuleDir() string { return e.Options.LibDir }

// SharedLibDir returns the shared library install directory of m.
// Windows looks up DLLs next to the executables.
func (e *Environment) SharedLibDir(m MachineChoice) string {
	if e.Machine(m).IsWindows() {
		return e.Options.BinDir
	}
	return e.Options.LibDir
}

// IsUnity reports whether a target of subproject is built as a unity build.
func (e *Environment) IsUnity(subproject string) bool {
	switch e.Options.Unity {
	case UnityOn:
		return true
	case UnitySubprojects:
		return subproject != ""
	}
	return false
}
