package domain

import (
	"fmt"
	"slices"

	"go.trai.ch/zerr"
)

// StateVersion is bumped whenever the shape of State changes.
const StateVersion = 1

// State is the serializable form of a frozen Build.
type State struct {
	Version        int
	ProjectName    string
	ProjectVersion string
	Stamp          ConfigStamp

	SourceDir string
	BuildDir  string
	Machines  PerMachine[MachineInfo]
	Compilers PerMachine[[]*CompilerInfo]
	Options   Options
	Cross     bool

	Order           []TargetID
	Executables     []*Executable
	StaticLibraries []*StaticLibrary
	SharedLibraries []*SharedLibrary
	SharedModules   []*SharedModule
	Jars            []*Jar
	CustomTargets   []*CustomTarget
	RunTargets      []*RunTarget
	AliasTargets    []*AliasTarget
	GeneratedLists  []GeneratedListState

	GlobalArgs      PerMachine[map[string][]string]
	GlobalLinkArgs  PerMachine[map[string][]string]
	ProjectArgs     PerMachine[map[string]map[string][]string]
	ProjectLinkArgs PerMachine[map[string]map[string][]string]
	StaticLinkers   PerMachine[*LinkerInfo]

	Warnings []string
}

// GeneratedListState is the serializable form of a GeneratedList.
type GeneratedListState struct {
	Generator        *Generator
	Subdir           string
	PreservePathFrom string
	ExtraArgs        []string
	Entries          []GeneratedEntry
	DependFiles      []File
	ExtraDepends     []TargetID
}

// Export captures b. The build must be frozen.
func (b *Build) Export() (*State, error) {
	if !b.frozen {
		return nil, zerr.Wrap(ErrInvalidArguments, "only a frozen build can be exported")
	}
	s := &State{
		Version:         StateVersion,
		ProjectName:     b.ProjectName,
		ProjectVersion:  b.ProjectVersion,
		Stamp:           b.Stamp,
		SourceDir:       b.env.SourceDir,
		BuildDir:        b.env.BuildDir,
		Machines:        b.env.Machines,
		Options:         b.env.Options,
		Cross:           b.env.Cross,
		Order:           slices.Clone(b.order),
		GlobalArgs:      b.globalArgs,
		GlobalLinkArgs:  b.globalLinkArgs,
		ProjectArgs:     b.projectArgs,
		ProjectLinkArgs: b.projectLinkArgs,
		Warnings:        slices.Clone(b.warnings),
	}
	for _, m := range []MachineChoice{MachineBuild, MachineHost} {
		var infos []*CompilerInfo
		for _, c := range b.env.CompilersFor(m).All() {
			infos = append(infos, FreezeCompiler(c))
		}
		s.Compilers.Set(m, infos)
		if l := b.staticLinker.Get(m); l != nil {
			s.StaticLinkers.Set(m, &LinkerInfo{LinkerID: l.ID()})
		}
	}
	for t := range b.All() {
		switch v := t.(type) {
		case *Executable:
			s.Executables = append(s.Executables, v)
		case *StaticLibrary:
			s.StaticLibraries = append(s.StaticLibraries, v)
		case *SharedLibrary:
			s.SharedLibraries = append(s.SharedLibraries, v)
		case *SharedModule:
			s.SharedModules = append(s.SharedModules, v)
		case *Jar:
			s.Jars = append(s.Jars, v)
		case *CustomTarget:
			s.CustomTargets = append(s.CustomTargets, v)
		case *RunTarget:
			s.RunTargets = append(s.RunTargets, v)
		case *AliasTarget:
			s.AliasTargets = append(s.AliasTargets, v)
		default:
			return nil, tag(ErrInvalidArguments, "target", string(t.ID()))
		}
	}
	for _, gl := range b.lists {
		s.GeneratedLists = append(s.GeneratedLists, GeneratedListState{
			Generator:        gl.Generator,
			Subdir:           gl.Subdir,
			PreservePathFrom: gl.PreservePathFrom,
			ExtraArgs:        gl.ExtraArgs,
			Entries:          gl.EntryList(),
			DependFiles:      gl.DependFiles,
			ExtraDepends:     gl.ExtraDepends,
		})
	}
	return s, nil
}

// Import rebuilds a frozen Build from s. A state of another version fails
// with ErrSnapshotStale, an inconsistent one with ErrSnapshotCorrupt.
func Import(s *State) (*Build, error) {
	if s == nil {
		return nil, ErrSnapshotCorrupt
	}
	if s.Version != StateVersion {
		return nil, zerr.With(zerr.Wrap(ErrSnapshotStale,
			"the build directory was configured by an incompatible version; reconfigure from scratch"),
			"version", s.Version)
	}
	env := &Environment{
		SourceDir: s.SourceDir,
		BuildDir:  s.BuildDir,
		Machines:  s.Machines,
		Options:   s.Options,
		Cross:     s.Cross,
	}
	for _, m := range []MachineChoice{MachineBuild, MachineHost} {
		set := NewCompilerSet()
		for _, c := range s.Compilers.Get(m) {
			if c != nil {
				set.Add(c)
			}
		}
		env.Compilers.Set(m, set)
	}

	b := NewBuild(env, WithProject(s.ProjectName, s.ProjectVersion))
	for _, m := range []MachineChoice{MachineBuild, MachineHost} {
		if args := s.GlobalArgs.Get(m); args != nil {
			b.globalArgs.Set(m, args)
		}
		if args := s.GlobalLinkArgs.Get(m); args != nil {
			b.globalLinkArgs.Set(m, args)
		}
		if args := s.ProjectArgs.Get(m); args != nil {
			b.projectArgs.Set(m, args)
		}
		if args := s.ProjectLinkArgs.Get(m); args != nil {
			b.projectLinkArgs.Set(m, args)
		}
		if l := s.StaticLinkers.Get(m); l != nil {
			b.staticLinker.Set(m, l)
		}
	}
	b.warnings = slices.Clone(s.Warnings)
	b.Stamp = s.Stamp

	all := make(map[TargetID]Target)
	add := func(t Target) error {
		id := t.ID()
		if _, dup := all[id]; dup {
			return zerr.With(zerr.Wrap(ErrSnapshotCorrupt, "duplicate target"), "target", string(id))
		}
		all[id] = t
		return nil
	}
	for _, t := range collectTargets(s) {
		if err := add(t); err != nil {
			return nil, err
		}
	}
	if len(all) != len(s.Order) {
		return nil, zerr.Wrap(ErrSnapshotCorrupt, fmt.Sprintf("order lists %d targets, found %d", len(s.Order), len(all)))
	}
	for _, id := range s.Order {
		t, ok := all[id]
		if !ok {
			return nil, zerr.With(zerr.Wrap(ErrSnapshotCorrupt, "unknown target in order"), "target", string(id))
		}
		b.targets[id] = t
		b.order = append(b.order, id)
		b.declaredIn[t.Base().Subproject] = true
	}
	for _, ls := range s.GeneratedLists {
		gl := &GeneratedList{
			Generator:        ls.Generator,
			Subdir:           ls.Subdir,
			PreservePathFrom: ls.PreservePathFrom,
			ExtraArgs:        ls.ExtraArgs,
			DependFiles:      ls.DependFiles,
			ExtraDepends:     ls.ExtraDepends,
			outputs:          make(map[File][]string),
		}
		for _, e := range ls.Entries {
			gl.Inputs = append(gl.Inputs, e.Input)
			gl.outputs[e.Input] = e.Outputs
		}
		b.addGeneratedList(gl)
	}
	if err := b.Freeze(); err != nil {
		return nil, zerr.Wrap(ErrSnapshotCorrupt, err.Error())
	}
	return b, nil
}

func collectTargets(s *State) []Target {
	var out []Target
	for _, t := range s.Executables {
		out = append(out, t)
	}
	for _, t := range s.StaticLibraries {
		out = append(out, t)
	}
	for _, t := range s.SharedLibraries {
		out = append(out, t)
	}
	for _, t := range s.SharedModules {
		out = append(out, t)
	}
	for _, t := range s.Jars {
		out = append(out, t)
	}
	for _, t := range s.CustomTargets {
		out = append(out, t)
	}
	for _, t := range s.RunTargets {
		out = append(out, t)
	}
	for _, t := range s.AliasTargets {
		out = append(out, t)
	}
	return out
}
