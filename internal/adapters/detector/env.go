// Package detector decides whether output may be colored.
package detector

import (
	"os"

	"golang.org/x/term"
)

// OutputMode represents how rich rendered output may be.
type OutputMode int

const (
	// ModeAuto defers to the detected environment.
	ModeAuto OutputMode = iota
	// ModeColor renders styled output.
	ModeColor
	// ModePlain renders plain text.
	ModePlain
)

// DetectEnvironment returns the mode suited to stdout. Pipes and CI
// logs get plain text.
func DetectEnvironment() OutputMode {
	isTTY := term.IsTerminal(int(os.Stdout.Fd()))

	ci := os.Getenv("CI")
	isCI := ci == "true" || ci == "1"

	if !isTTY || isCI {
		return ModePlain
	}
	return ModeColor
}

// ResolveMode applies the --color flag to the detected mode.
// userFlag is one of "auto", "always", "never" or empty.
func ResolveMode(autoDetected OutputMode, userFlag string) OutputMode {
	switch userFlag {
	case "always":
		return ModeColor
	case "never":
		return ModePlain
	default:
		return autoDetected
	}
}
