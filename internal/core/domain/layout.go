package domain

import "path/filepath"

const (
	// ProjectFileName is the name of the project description file.
	ProjectFileName = "weld.yaml"

	// ToolchainFileName is the name of the toolchain description file.
	ToolchainFileName = "weld.toolchain.yaml"

	// PrivateDirName is the name of the private directory inside the build directory.
	PrivateDirName = "weld-private"

	// SnapshotFileName is the name of the persisted build snapshot.
	SnapshotFileName = "build.dat"

	// DefaultBuildDir is used when no build directory is given.
	DefaultBuildDir = "builddir"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// DefaultPrivatePath returns the private directory of a build directory.
func DefaultPrivatePath(buildDir string) string {
	return filepath.Join(buildDir, PrivateDirName)
}

// DefaultSnapshotPath returns the snapshot location of a build directory.
// It joins weld-private and build.dat.
func DefaultSnapshotPath(buildDir string) string {
	return filepath.Join(buildDir, PrivateDirName, SnapshotFileName)
}
