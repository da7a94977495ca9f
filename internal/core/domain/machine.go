package domain

import "strings"

// MachineChoice selects the machine a target is built for.
type MachineChoice uint8

const (
	// MachineBuild is the machine running the build.
	MachineBuild MachineChoice = iota
	// MachineHost is the machine the build artifacts run on.
	MachineHost
)

func (m MachineChoice) String() string {
	if m == MachineBuild {
		return "build"
	}
	return "host"
}

// MachineInfo describes a machine of the build.
type MachineInfo struct {
	System    string `yaml:"system"`
	CPUFamily string `yaml:"cpu_family"`
	CPU       string `yaml:"cpu"`
	Endian    string `yaml:"endian"`
}

// IsWindows reports whether the machine runs Windows.
func (m MachineInfo) IsWindows() bool { return m.System == "windows" }

// IsCygwin reports whether the machine runs Cygwin.
func (m MachineInfo) IsCygwin() bool { return m.System == "cygwin" }

// IsDarwin reports whether the machine runs an Apple operating system.
func (m MachineInfo) IsDarwin() bool {
	switch m.System {
	case "darwin", "ios", "tvos":
		return true
	}
	return false
}

// IsAndroid reports whether the machine runs Android.
func (m MachineInfo) IsAndroid() bool { return m.System == "android" }

// IsWasm reports whether the machine is a WebAssembly target.
func (m MachineInfo) IsWasm() bool {
	return strings.HasPrefix(m.System, "wasm") || m.System == "emscripten"
}

// ExeSuffix returns the executable suffix of the machine, without a dot.
func (m MachineInfo) ExeSuffix() string {
	if m.IsWindows() || m.IsCygwin() {
		return "exe"
	}
	return ""
}

// PerMachine holds one value per machine.
type PerMachine[T any] struct {
	Build T
	Host  T
}

// Get returns the value for the given machine.
func (p PerMachine[T]) Get(m MachineChoice) T {
	if m == MachineBuild {
		return p.Build
	}
	return p.Host
}

// Set stores the value for the given machine.
func (p *PerMachine[T]) Set(m MachineChoice, v T) {
	if m == MachineBuild {
		p.Build = v
		return
	}
	p.Host = v
}
