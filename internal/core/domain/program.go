package domain

import (
	"path/filepath"
	"slices"
)

// ExternalProgram is a program found outside of the build.
type ExternalProgram struct {
	Name    string   `msgpack:"name" json:"name"`
	Command []string `msgpack:"command" json:"command"`
}

// NewExternalProgram returns a program that runs command.
// An empty command marks the program as not found.
func NewExternalProgram(name string, command ...string) *ExternalProgram {
	return &ExternalProgram{Name: name, Command: slices.Clone(command)}
}

// Found reports whether the program was located.
func (p *ExternalProgram) Found() bool {
	return p != nil && len(p.Command) > 0 && p.Command[0] != ""
}

// Path returns the executable of the program.
func (p *ExternalProgram) Path() string {
	if !p.Found() {
		return ""
	}
	return p.Command[len(p.Command)-1]
}

// IsAbsolute reports whether the program resolves to an absolute path.
func (p *ExternalProgram) IsAbsolute() bool {
	return filepath.IsAbs(p.Path())
}
