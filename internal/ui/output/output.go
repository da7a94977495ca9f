// Package output builds the termenv outputs weld writes reports and logs to.
package output

import (
	"io"
	"os"

	"github.com/muesli/termenv"
)

// NoColor reports whether the NO_COLOR convention is in effect.
func NoColor() bool {
	return os.Getenv("NO_COLOR") != ""
}

// ColorProfile detects what the attached terminal can show.
func ColorProfile() termenv.Profile {
	if NoColor() {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}

// ColorProfileANSI is used when color is forced on a stream that may not
// be a terminal, such as CI logs.
func ColorProfileANSI() termenv.Profile {
	if NoColor() {
		return termenv.Ascii
	}
	return termenv.ANSI
}

// Plain never emits escape sequences.
func Plain() termenv.Profile {
	return termenv.Ascii
}

// New returns an output for w using the detected profile. A nil w
// writes to stderr.
func New(w io.Writer, opts ...termenv.OutputOption) *termenv.Output {
	return NewWithProfile(w, ColorProfile, opts...)
}

// NewWithProfile returns an output for w using profileFn.
func NewWithProfile(w io.Writer, profileFn func() termenv.Profile, opts ...termenv.OutputOption) *termenv.Output {
	if w == nil {
		w = os.Stderr
	}
	opts = append(opts, termenv.WithProfile(profileFn()), termenv.WithTTY(true))
	return termenv.NewOutput(w, opts...)
}
