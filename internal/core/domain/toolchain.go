package domain

import (
	"fmt"
	"slices"

	"go.trai.ch/zerr"
)

// Toolchain describes the machines and tools available to a build. It is
// what the toolchain file declares; nothing is probed.
type Toolchain struct {
	Machines      PerMachine[MachineInfo]
	Compilers     PerMachine[[]*CompilerInfo]
	StaticLinkers PerMachine[[]*LinkerInfo]
	Programs      map[string]*ExternalProgram
}

// IsCross reports whether the build and host machines differ.
func (tc *Toolchain) IsCross() bool {
	return tc.Machines.Build != tc.Machines.Host
}

// Environment returns an environment for a build of sourceDir into buildDir.
func (tc *Toolchain) Environment(sourceDir, buildDir string) *Environment {
	env := NewEnvironment(sourceDir, buildDir, tc.Machines.Host)
	env.Machines = tc.Machines
	env.Cross = tc.IsCross()
	for _, m := range []MachineChoice{MachineBuild, MachineHost} {
		set := NewCompilerSet()
		for _, c := range tc.Compilers.Get(m) {
			set.Add(c)
		}
		env.Compilers.Set(m, set)
	}
	return env
}

// Program returns the program registered under name. A program the
// toolchain does not know is returned as not found.
func (tc *Toolchain) Program(name string) *ExternalProgram {
	if p, ok := tc.Programs[name]; ok {
		return p
	}
	return NewExternalProgram(name)
}

var (
	msvcArchivers = []string{"lib", "llvm-lib", "xilib"}
	unixArchivers = []string{"ar", "gcc-ar", "llvm-ar", "ar2000", "armar"}
)

// StaticLinkerDetector returns a detector choosing among the static linkers
// declared for m. MSVC style compilers prefer lib, the others prefer ar.
func (tc *Toolchain) StaticLinkerDetector(m MachineChoice) StaticLinkerDetector {
	return func(c Compiler) (StaticLinker, error) {
		linkers := tc.StaticLinkers.Get(m)
		if len(linkers) == 0 {
			return nil, zerr.With(zerr.Wrap(ErrNoLinker,
				fmt.Sprintf("no static linker declared for the %s machine", m)), "compiler", c.ID())
		}
		preferred := unixArchivers
		if slices.Contains(msvcLikeIDs, c.ID()) {
			preferred = msvcArchivers
		}
		for _, id := range preferred {
			for _, l := range linkers {
				if l.LinkerID == id {
					return l, nil
				}
			}
		}
		return linkers[0], nil
	}
}
