// Package build holds build-time information.
package build

// Version is the application version.
// It defaults to "dev" and can be overwritten by linker flags.
var Version = "dev"

// Commit and Date describe the source revision the binary was built from.
var (
	Commit = "none"
	Date   = "unknown"
)
