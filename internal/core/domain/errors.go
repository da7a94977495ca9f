package domain

import "go.trai.ch/zerr"

var (
	// ErrInvalidArguments is returned when a target is declared with arguments of the wrong shape or type.
	ErrInvalidArguments = zerr.New("invalid arguments")

	// ErrConfigInvariant is returned when a declaration violates a configuration rule.
	// The specific rules below wrap it.
	ErrConfigInvariant = zerr.New("invalid configuration")

	// ErrEmptyTarget is returned when a build target has nothing to build.
	ErrEmptyTarget = zerr.Wrap(ErrConfigInvariant, "build target has no sources")

	// ErrNonPICLink is returned when a non-PIC static library is linked into a shared object.
	ErrNonPICLink = zerr.Wrap(ErrConfigInvariant, "static library is not position independent")

	// ErrMachineMismatch is returned when targets for different machines are linked in a cross build.
	ErrMachineMismatch = zerr.Wrap(ErrConfigInvariant, "machine mismatch")

	// ErrMutuallyExclusive is returned when two options that cannot be combined are both set.
	ErrMutuallyExclusive = zerr.Wrap(ErrConfigInvariant, "options are mutually exclusive")

	// ErrUnityExtraction is returned when a subset of objects is extracted from a unity build.
	ErrUnityExtraction = zerr.Wrap(ErrConfigInvariant, "cannot extract a subset of objects from a unity build")

	// ErrLanguageMismatch is returned when a single language target carries foreign sources.
	ErrLanguageMismatch = zerr.Wrap(ErrConfigInvariant, "language mismatch")

	// ErrNotLinkable is returned when a target that cannot be linked is passed to link_with or link_whole.
	ErrNotLinkable = zerr.Wrap(ErrConfigInvariant, "target is not linkable")

	// ErrCycleDetected is returned when the target graph contains a cycle.
	ErrCycleDetected = zerr.Wrap(ErrConfigInvariant, "cycle detected")

	// ErrTargetAlreadyExists is returned when a target with the same id is registered twice.
	ErrTargetAlreadyExists = zerr.New("target already exists")

	// ErrTargetNotFound is returned when an id does not name a registered target.
	ErrTargetNotFound = zerr.New("target not found")

	// ErrNoCompiler is returned when no compiler of the target machine can handle a source.
	ErrNoCompiler = zerr.New("no compiler")

	// ErrNoLinker is returned when no dynamic linker can be chosen for a target.
	ErrNoLinker = zerr.New("no linker")

	// ErrFileNotFound is returned when a referenced source file does not exist.
	ErrFileNotFound = zerr.New("file not found")

	// ErrFrozen is returned when the build is mutated after it was frozen.
	ErrFrozen = zerr.New("build is frozen")

	// ErrSnapshotNotFound is returned when no configured build exists in the build directory.
	ErrSnapshotNotFound = zerr.New("build snapshot not found")

	// ErrSnapshotCorrupt is returned when a build snapshot fails verification.
	ErrSnapshotCorrupt = zerr.New("build snapshot is corrupt")

	// ErrSnapshotStale is returned when a build snapshot was written by an incompatible version.
	ErrSnapshotStale = zerr.New("build snapshot is stale")

	// ErrSnapshotWriteFailed is returned when a build snapshot cannot be persisted.
	ErrSnapshotWriteFailed = zerr.New("failed to write build snapshot")

	// ErrConfigNotFound is returned when no project file can be found.
	ErrConfigNotFound = zerr.New("could not find " + ProjectFileName)

	// ErrConfigReadFailed is returned when a project or toolchain file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read configuration file")

	// ErrConfigParseFailed is returned when a project or toolchain file is not valid YAML.
	ErrConfigParseFailed = zerr.New("failed to parse configuration file")

	// ErrToolchainInvalid is returned when the toolchain description is incomplete.
	ErrToolchainInvalid = zerr.New("invalid toolchain")

	// ErrUnknownReference is returned when a project file refers to an undeclared name.
	ErrUnknownReference = zerr.New("unknown reference")
)

// invalidArgs reports an ErrInvalidArguments for the named target.
func invalidArgs(target, msg string) error {
	return zerr.With(zerr.Wrap(ErrInvalidArguments, msg), "target", target)
}

// targetError wraps a specific sentinel for the named target.
func targetError(sentinel error, target, msg string) error {
	return zerr.With(zerr.Wrap(sentinel, msg), "target", target)
}

// tag attaches metadata to a sentinel while keeping it matchable with errors.Is.
func tag(sentinel error, key string, value any) error {
	return zerr.With(zerr.Wrap(sentinel, ""), key, value)
}
