package domain

import (
	"fmt"
	"iter"
	"slices"

	"go.trai.ch/zerr"
)

// Build owns every target of a configured project. Targets refer to each
// other by id and are resolved through the Build.
type Build struct {
	ProjectName    string
	ProjectVersion string
	// Stamp records the files the build was configured from.
	Stamp ConfigStamp

	env     *Environment
	targets map[TargetID]Target
	order   []TargetID
	lists   []*GeneratedList

	globalArgs      PerMachine[map[string][]string]
	globalLinkArgs  PerMachine[map[string][]string]
	projectArgs     PerMachine[map[string]map[string][]string]
	projectLinkArgs PerMachine[map[string]map[string][]string]
	staticLinker    PerMachine[StaticLinker]
	declaredIn      map[string]bool

	warnings []string
	warnSink func(string)
	frozen   bool
	memo     *closureMemo
	// walkOrder is filled by Validate.
	walkOrder []TargetID
}

// BuildOption configures a Build.
type BuildOption func(*Build)

// WithWarningSink forwards every warning to sink as it is raised.
func WithWarningSink(sink func(string)) BuildOption {
	return func(b *Build) { b.warnSink = sink }
}

// WithProject sets the project name and version.
func WithProject(name, version string) BuildOption {
	return func(b *Build) {
		b.ProjectName = name
		b.ProjectVersion = version
	}
}

// NewBuild returns an empty build for env.
func NewBuild(env *Environment, opts ...BuildOption) *Build {
	b := &Build{
		env:        env,
		targets:    make(map[TargetID]Target),
		declaredIn: make(map[string]bool),
		memo:       newClosureMemo(),
	}
	for _, m := range []MachineChoice{MachineBuild, MachineHost} {
		b.globalArgs.Set(m, make(map[string][]string))
		b.globalLinkArgs.Set(m, make(map[string][]string))
		b.projectArgs.Set(m, make(map[string]map[string][]string))
		b.projectLinkArgs.Set(m, make(map[string]map[string][]string))
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Environment returns the environment the build was configured with.
func (b *Build) Environment() *Environment { return b.env }

// Warnings returns the warnings raised so far, in order.
func (b *Build) Warnings() []string { return slices.Clone(b.warnings) }

func (b *Build) warn(msg string) {
	b.warnings = append(b.warnings, msg)
	if b.warnSink != nil {
		b.warnSink(msg)
	}
}

func (b *Build) warnf(format string, args ...any) {
	b.warn(fmt.Sprintf(format, args...))
}

// Freeze validates the graph and marks the build as complete. Later
// mutations fail with ErrFrozen.
func (b *Build) Freeze() error {
	if err := b.Validate(); err != nil {
		return err
	}
	b.frozen = true
	return nil
}

// IsFrozen reports whether Freeze was called.
func (b *Build) IsFrozen() bool { return b.frozen }

func (b *Build) checkMutable() error {
	if b.frozen {
		return ErrFrozen
	}
	return nil
}

// register adds a fully constructed target.
func (b *Build) register(t Target) error {
	if err := b.checkMutable(); err != nil {
		return err
	}
	id := t.ID()
	if _, exists := b.targets[id]; exists {
		return zerr.With(zerr.Wrap(ErrTargetAlreadyExists,
			fmt.Sprintf("tried to create target %q, but a target of that name already exists", t.Base().Name)),
			"target", string(id))
	}
	b.targets[id] = t
	b.order = append(b.order, id)
	b.declaredIn[t.Base().Subproject] = true
	b.memo.reset()
	b.walkOrder = nil
	return nil
}

// Target returns the target with the given id.
func (b *Build) Target(id TargetID) (Target, error) {
	t, ok := b.targets[id]
	if !ok {
		return nil, tag(ErrTargetNotFound, "target", string(id))
	}
	return t, nil
}

// Lookup returns the target with the given id, if any.
func (b *Build) Lookup(id TargetID) (Target, bool) {
	t, ok := b.targets[id]
	return t, ok
}

// Targets returns all targets in registration order.
func (b *Build) Targets() []Target {
	out := make([]Target, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.targets[id])
	}
	return out
}

// All iterates over the targets in registration order.
func (b *Build) All() iter.Seq[Target] {
	return func(yield func(Target) bool) {
		for _, id := range b.order {
			if !yield(b.targets[id]) {
				return
			}
		}
	}
}

// Len returns the number of targets.
func (b *Build) Len() int { return len(b.order) }

// owns reports whether t is the target registered under its id.
func (b *Build) owns(t Target) error {
	if idx, ok := t.(*CustomTargetIndex); ok {
		if idx.Parent == nil {
			return tag(ErrTargetNotFound, "target", "<nil>")
		}
		t = idx.Parent
	}
	got, ok := b.targets[t.ID()]
	if !ok || got.Base() != t.Base() {
		return tag(ErrTargetNotFound, "target", string(t.ID()))
	}
	return nil
}

// Resolve returns the target a ref points to.
func (b *Build) Resolve(r Ref) (Target, bool) {
	switch r.Kind {
	case RefTarget:
		return b.Lookup(r.Target)
	case RefTargetOutput:
		t, ok := b.targets[r.Target]
		if !ok {
			return nil, false
		}
		ct, ok := t.(*CustomTarget)
		if !ok {
			return nil, false
		}
		return &CustomTargetIndex{Parent: ct, Output: r.Output}, true
	}
	return nil, false
}

// RefOutputs returns the file names a ref stands for.
func (b *Build) RefOutputs(r Ref) []string {
	switch r.Kind {
	case RefFile:
		return []string{r.File.Fname}
	case RefTarget, RefTargetOutput:
		if t, ok := b.Resolve(r); ok {
			return t.Outputs()
		}
	case RefGeneratedList:
		if gl, ok := b.GeneratedList(r.List); ok {
			return gl.Outputs()
		}
	}
	return nil
}

// GeneratedList returns the generated list with the given id.
func (b *Build) GeneratedList(id GeneratedListID) (*GeneratedList, bool) {
	if id < 0 || int(id) >= len(b.lists) {
		return nil, false
	}
	return b.lists[id], true
}

// GeneratedLists returns every generated list in creation order.
func (b *Build) GeneratedLists() []*GeneratedList { return slices.Clone(b.lists) }

func (b *Build) addGeneratedList(gl *GeneratedList) GeneratedListID {
	gl.ID = GeneratedListID(len(b.lists))
	b.lists = append(b.lists, gl)
	return gl.ID
}

// AddGlobalArgs adds compile arguments for every target of lang on m.
// Global arguments cannot be added once any target is declared.
func (b *Build) AddGlobalArgs(m MachineChoice, lang string, args ...string) error {
	return b.addGlobal(b.globalArgs.Get(m), "add_global_arguments", lang, args)
}

// AddGlobalLinkArgs adds link arguments for every target of lang on m.
func (b *Build) AddGlobalLinkArgs(m MachineChoice, lang string, args ...string) error {
	return b.addGlobal(b.globalLinkArgs.Get(m), "add_global_link_arguments", lang, args)
}

func (b *Build) addGlobal(dst map[string][]string, fn, lang string, args []string) error {
	if err := b.checkMutable(); err != nil {
		return err
	}
	if len(b.order) > 0 {
		return zerr.With(zerr.Wrap(ErrInvalidArguments,
			fmt.Sprintf("function %s cannot be used once targets are declared", fn)), "language", lang)
	}
	dst[lang] = append(dst[lang], args...)
	return nil
}

// AddProjectArgs adds compile arguments for targets of lang in subproject.
// They cannot be added once the subproject declared a target.
func (b *Build) AddProjectArgs(m MachineChoice, subproject, lang string, args ...string) error {
	return b.addProject(b.projectArgs.Get(m), "add_project_arguments", subproject, lang, args)
}

// AddProjectLinkArgs adds link arguments for targets of lang in subproject.
func (b *Build) AddProjectLinkArgs(m MachineChoice, subproject, lang string, args ...string) error {
	return b.addProject(b.projectLinkArgs.Get(m), "add_project_link_arguments", subproject, lang, args)
}

func (b *Build) addProject(dst map[string]map[string][]string, fn, subproject, lang string, args []string) error {
	if err := b.checkMutable(); err != nil {
		return err
	}
	if b.declaredIn[subproject] {
		return zerr.With(zerr.Wrap(ErrInvalidArguments,
			fmt.Sprintf("function %s cannot be used once targets are declared", fn)), "subproject", subproject)
	}
	if dst[subproject] == nil {
		dst[subproject] = make(map[string][]string)
	}
	dst[subproject][lang] = append(dst[subproject][lang], args...)
	return nil
}

// GlobalArgs returns the global compile arguments of lang on m.
func (b *Build) GlobalArgs(m MachineChoice, lang string) []string {
	return slices.Clone(b.globalArgs.Get(m)[lang])
}

// GlobalLinkArgs returns the global link arguments of lang on m.
func (b *Build) GlobalLinkArgs(m MachineChoice, lang string) []string {
	return slices.Clone(b.globalLinkArgs.Get(m)[lang])
}

// ProjectArgs returns the project compile arguments of lang in subproject.
func (b *Build) ProjectArgs(m MachineChoice, subproject, lang string) []string {
	return slices.Clone(b.projectArgs.Get(m)[subproject][lang])
}

// ProjectLinkArgs returns the project link arguments of lang in subproject.
func (b *Build) ProjectLinkArgs(m MachineChoice, subproject, lang string) []string {
	return slices.Clone(b.projectLinkArgs.Get(m)[subproject][lang])
}

// StaticLinkerDetector finds the archiver matching a compiler.
type StaticLinkerDetector func(c Compiler) (StaticLinker, error)

// EnsureStaticLinker detects the static linker of m once, the first time a
// compiler that needs one is seen.
func (b *Build) EnsureStaticLinker(m MachineChoice, c Compiler, detect StaticLinkerDetector) error {
	if b.staticLinker.Get(m) != nil || !c.NeedsStaticLinker() {
		return nil
	}
	l, err := detect(c)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to detect static linker"), "machine", m.String())
	}
	b.staticLinker.Set(m, l)
	return nil
}

// StaticLinker returns the static linker of m, or nil.
func (b *Build) StaticLinker(m MachineChoice) StaticLinker { return b.staticLinker.Get(m) }
