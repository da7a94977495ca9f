package domain

import (
	"fmt"
	"iter"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

var linkableSuffixes = []string{".a", ".dll", ".lib", ".so"}

// CustomTarget runs an arbitrary command to produce its outputs.
type CustomTarget struct {
	TargetBase

	Sources          []Ref
	Command          []CommandArg
	OutputNames      []string
	Capture          bool
	Console          bool
	Depfile          string
	BuildAlwaysStale bool
	// Dependencies are the targets named in the command.
	Dependencies []TargetID
	ExtraDepends []TargetID
	DependFiles  []File
	Install      bool
	InstallDirs  []InstallDir
	InstallMode  string
	Env          *EnvironmentVariables
}

type customTargetOptions struct {
	BuildByDefault   any      `mapstructure:"build_by_default"`
	Install          any      `mapstructure:"install"`
	OverrideOptions  []string `mapstructure:"override_options"`
	Input            []any    `mapstructure:"input"`
	Output           []any    `mapstructure:"output"`
	Command          []any    `mapstructure:"command"`
	Capture          any      `mapstructure:"capture"`
	Console          any      `mapstructure:"console"`
	Depfile          any      `mapstructure:"depfile"`
	InstallDir       []any    `mapstructure:"install_dir"`
	InstallMode      string   `mapstructure:"install_mode"`
	BuildAlways      any      `mapstructure:"build_always"`
	BuildAlwaysStale any      `mapstructure:"build_always_stale"`
	Depends          []any    `mapstructure:"depends"`
	DependFiles      []any    `mapstructure:"depend_files"`
	Env              any      `mapstructure:"env"`
}

// Outputs implements Target.
func (c *CustomTarget) Outputs() []string { return slices.Clone(c.OutputNames) }

// Filename implements Target.
func (c *CustomTarget) Filename() string {
	if len(c.OutputNames) == 0 {
		return ""
	}
	return c.OutputNames[0]
}

// IsLinkable implements Target. A custom target is linkable when it
// produces a single library.
func (c *CustomTarget) IsLinkable() bool {
	return len(c.OutputNames) == 1 && slices.Contains(linkableSuffixes, filepath.Ext(c.OutputNames[0]))
}

// AddCustomTarget declares a custom target.
func (b *Build) AddCustomTarget(name, subdir, subproject string, kw Kwargs) (*CustomTarget, error) {
	if err := b.checkMutable(); err != nil {
		return nil, err
	}
	base, err := newTargetBase(KindCustom, name, subdir, subproject, MachineHost, false)
	if err != nil {
		return nil, err
	}
	ct := &CustomTarget{TargetBase: base}
	if kw == nil {
		kw = Kwargs{}
	}
	known := knownKwargs(KindCustom)
	var opts customTargetOptions
	if err := decodeKwargs(name, kw.only(known), &opts); err != nil {
		return nil, err
	}
	if err := b.processCustomKwargs(ct, kw, &opts); err != nil {
		return nil, err
	}
	if unknown := kw.unknown(known); len(unknown) > 0 {
		b.warnf("Unknown keyword argument(s) in target %s: %s.", name, strings.Join(unknown, ", "))
	}
	if err := b.register(ct); err != nil {
		return nil, err
	}
	return ct, nil
}

func (b *Build) processCustomKwargs(ct *CustomTarget, kw Kwargs, opts *customTargetOptions) error {
	name := ct.Name
	if err := ct.processBaseOptions(baseOptions{
		BuildByDefault:  opts.BuildByDefault,
		Install:         opts.Install,
		OverrideOptions: opts.OverrideOptions,
	}); err != nil {
		return err
	}

	for _, in := range flatten(opts.Input) {
		ref, err := b.customInput(ct, in)
		if err != nil {
			return err
		}
		ct.Sources = append(ct.Sources, ref)
	}

	if !kw.Has("output") {
		return invalidArgs(name, `missing keyword argument "output"`)
	}
	inputs := b.sourceNames(ct.Sources)
	var outputs []string
	for _, o := range flatten(opts.Output) {
		s, ok := o.(string)
		if !ok {
			return invalidArgs(name, "output argument not a string")
		}
		if err := checkOutputName(name, s); err != nil {
			return err
		}
		if strings.Contains(s, "@INPUT@") || strings.Contains(s, "@INPUT0@") {
			return invalidArgs(name, "output cannot contain @INPUT@ or @INPUT0@, did you mean @PLAINNAME@ or @BASENAME@?")
		}
		if len(inputs) != 1 && (strings.Contains(s, "@PLAINNAME@") || strings.Contains(s, "@BASENAME@")) {
			return invalidArgs(name, "output cannot contain @PLAINNAME@ or @BASENAME@ when there is more than one input (we can't know which to use)")
		}
		outputs = append(outputs, s)
	}
	if len(outputs) == 0 {
		return invalidArgs(name, "custom target must have at least one output")
	}
	subst, err := newTemplateValues(inputs, nil, "").substitute(outputs)
	if err != nil {
		return zerr.With(err, "target", name)
	}
	ct.OutputNames = subst

	if ct.Capture, err = optionalBool(name, "capture", opts.Capture); err != nil {
		return err
	}
	if ct.Capture && len(ct.OutputNames) != 1 {
		return invalidArgs(name, "capturing can only output to a single file")
	}
	if ct.Console, err = optionalBool(name, "console", opts.Console); err != nil {
		return err
	}
	if ct.Capture && ct.Console {
		return targetError(ErrMutuallyExclusive, name, "can't both capture output and output to console")
	}

	if !kw.Has("command") {
		return invalidArgs(name, `missing keyword argument "command"`)
	}
	if kw.Has("depfile") {
		depfile, ok := opts.Depfile.(string)
		if !ok {
			return invalidArgs(name, "depfile must be a string")
		}
		if filepath.Base(depfile) != depfile {
			return invalidArgs(name, "depfile must be a plain filename without a subdirectory")
		}
		ct.Depfile = depfile
	}
	fc, err := b.flattenCommand(name, opts.Command)
	if err != nil {
		return err
	}
	if len(fc.args) == 0 {
		return invalidArgs(name, "command must not be empty")
	}
	ct.Command = fc.args
	ct.Dependencies = fc.deps
	ct.DependFiles = append(ct.DependFiles, fc.dependFiles...)
	if ct.Capture {
		for _, a := range ct.Command {
			if a.Kind == ArgLiteral && strings.Contains(a.Value, "@OUTPUT@") {
				return invalidArgs(name, "@OUTPUT@ is not allowed when capturing output")
			}
		}
	}

	if kw.Has("install") {
		install, ok := opts.Install.(bool)
		if !ok {
			return invalidArgs(name, `"install" must be boolean`)
		}
		ct.Install = install
		if install {
			if !kw.Has("install_dir") {
				return invalidArgs(name, `"install_dir" must be specified when installing a target`)
			}
			if ct.InstallDirs, err = parseInstallDirs(name, opts.InstallDir); err != nil {
				return err
			}
			ct.InstallMode = opts.InstallMode
		}
	}

	switch {
	case kw.Has("build_always") && kw.Has("build_always_stale"):
		return targetError(ErrMutuallyExclusive, name,
			"build_always and build_always_stale are mutually exclusive; combine build_by_default and build_always_stale")
	case kw.Has("build_always"):
		b.warn("build_always is deprecated. Combine build_by_default and build_always_stale instead.")
		always, ok := opts.BuildAlways.(bool)
		if !ok {
			return invalidArgs(name, "argument build_always must be a boolean")
		}
		if !kw.Has("build_by_default") {
			ct.BuildByDefault = always
		}
		ct.BuildAlwaysStale = always
	case kw.Has("build_always_stale"):
		stale, ok := opts.BuildAlwaysStale.(bool)
		if !ok {
			return invalidArgs(name, "argument build_always_stale must be a boolean")
		}
		ct.BuildAlwaysStale = stale
	}

	for _, d := range flatten(opts.Depends) {
		t, ok := d.(Target)
		if _, isIndex := d.(*CustomTargetIndex); !ok || isIndex || !(t.Kind().IsBuildTarget() || t.Kind() == KindCustom) {
			return invalidArgs(name, fmt.Sprintf(
				"can only depend on toplevel targets: custom_target or build_target (executable or a library), got %T", d))
		}
		if err := b.owns(t); err != nil {
			return err
		}
		ct.ExtraDepends = append(ct.ExtraDepends, t.ID())
	}
	for _, f := range flatten(opts.DependFiles) {
		switch v := f.(type) {
		case File:
			ct.DependFiles = append(ct.DependFiles, v)
		case string:
			ct.DependFiles = append(ct.DependFiles, SourceFile(ct.Subdir, v))
		default:
			return invalidArgs(name, fmt.Sprintf("unknown type %T in depend_files", f))
		}
	}

	if opts.Env != nil {
		env, err := EnvironmentFromValue(opts.Env)
		if err != nil {
			return zerr.With(err, "target", name)
		}
		ct.Env = env
	}
	return nil
}

// customInput converts one input of a custom target into a ref.
func (b *Build) customInput(ct *CustomTarget, in any) (Ref, error) {
	switch v := in.(type) {
	case string:
		f, err := b.sourceFile(ct.Name, ct.Subdir, v)
		if err != nil {
			return Ref{}, err
		}
		return FileRef(f), nil
	case File:
		return FileRef(v), nil
	case *ExtractedObjects:
		return ObjectsRef(v), nil
	case *GeneratedList:
		return b.generatedRef(ct.Name, v)
	case Target:
		if err := b.owns(v); err != nil {
			return Ref{}, err
		}
		return refTo(v), nil
	}
	return Ref{}, invalidArgs(ct.Name, fmt.Sprintf("unknown input type %T", in))
}

// sourceNames returns the file names of every input.
func (b *Build) sourceNames(refs []Ref) []string {
	var names []string
	for _, r := range refs {
		if r.Kind == RefExtractedObjects {
			names = append(names, b.ObjectOutputs(r.Objects)...)
			continue
		}
		names = append(names, b.RefOutputs(r)...)
	}
	return names
}

func checkOutputName(target, s string) error {
	switch {
	case s == "":
		return invalidArgs(target, "output must not be empty")
	case strings.TrimSpace(s) == "":
		return invalidArgs(target, "output must not consist only of whitespace")
	case strings.ContainsAny(s, `/\`):
		return invalidArgs(target, fmt.Sprintf("output %q must not contain a path segment", s))
	}
	return nil
}

func optionalBool(target, key string, v any) (bool, error) {
	if v == nil {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, invalidArgs(target, fmt.Sprintf("%q kwarg only accepts booleans", key))
	}
	return b, nil
}

// DepOutname returns the depfile name for the given inputs.
func (c *CustomTarget) DepOutname(infilenames []string) (string, error) {
	if c.Depfile == "" {
		return "", invalidArgs(c.Name, "tried to get depfile name for custom_target that does not have depfile defined")
	}
	if len(infilenames) > 0 {
		plain := filepath.Base(infilenames[0])
		base := strings.TrimSuffix(plain, filepath.Ext(plain))
		return strings.NewReplacer("@BASENAME@", base, "@PLAINNAME@", plain).Replace(c.Depfile), nil
	}
	if strings.Contains(c.Depfile, "@BASENAME@") || strings.Contains(c.Depfile, "@PLAINNAME@") {
		return "", invalidArgs(c.Name, "substitution in depfile for custom_target that does not have an input file")
	}
	return c.Depfile, nil
}

// Index returns the i-th output as a target of its own.
func (c *CustomTarget) Index(i int) (*CustomTargetIndex, error) {
	if i < 0 || i >= len(c.OutputNames) {
		return nil, invalidArgs(c.Name, fmt.Sprintf("index %d out of bounds of custom target with %d outputs", i, len(c.OutputNames)))
	}
	return &CustomTargetIndex{Parent: c, Output: c.OutputNames[i]}, nil
}

// Indexes iterates over every output as a target of its own.
func (c *CustomTarget) Indexes() iter.Seq[*CustomTargetIndex] {
	return func(yield func(*CustomTargetIndex) bool) {
		for _, out := range c.OutputNames {
			if !yield(&CustomTargetIndex{Parent: c, Output: out}) {
				return
			}
		}
	}
}

// TargetDependencies returns the targets the command, depends and inputs
// name, in that order.
func (b *Build) TargetDependencies(c *CustomTarget) []Target {
	var deps []Target
	for _, id := range slices.Concat(c.Dependencies, c.ExtraDepends) {
		if t, ok := b.Lookup(id); ok {
			deps = append(deps, t)
		}
	}
	for _, r := range c.Sources {
		if r.Kind != RefTarget {
			continue
		}
		if t, ok := b.Lookup(r.Target); ok {
			deps = append(deps, t)
		}
	}
	return deps
}

// TransitiveBuildTargetDeps returns the build targets a custom target
// depends on, following other custom targets.
func (b *Build) TransitiveBuildTargetDeps(c *CustomTarget) []Target {
	seen := make(map[TargetID]struct{})
	var out []Target
	var walk func(c *CustomTarget, visiting map[TargetID]bool)
	walk = func(c *CustomTarget, visiting map[TargetID]bool) {
		if visiting[c.ID()] {
			return
		}
		visiting[c.ID()] = true
		for _, d := range b.TargetDependencies(c) {
			switch v := d.(type) {
			case *CustomTarget:
				walk(v, visiting)
			default:
				if !d.Kind().IsBuildTarget() {
					continue
				}
				if _, ok := seen[d.ID()]; !ok {
					seen[d.ID()] = struct{}{}
					out = append(out, d)
				}
			}
		}
	}
	walk(c, make(map[TargetID]bool))
	return out
}

// GeneratedSources returns the generated lists among the inputs.
func (b *Build) GeneratedSources(c *CustomTarget) []*GeneratedList {
	var out []*GeneratedList
	for _, r := range c.Sources {
		if r.Kind != RefGeneratedList {
			continue
		}
		if gl, ok := b.GeneratedList(r.List); ok {
			out = append(out, gl)
		}
	}
	return out
}

// CustomTargetIndex is a single output of a custom target.
type CustomTargetIndex struct {
	Parent *CustomTarget
	Output string
}

// ID implements Target.
func (c *CustomTargetIndex) ID() TargetID { return c.Parent.ID() }

// Base implements Target.
func (c *CustomTargetIndex) Base() *TargetBase { return &c.Parent.TargetBase }

// Kind implements Target.
func (c *CustomTargetIndex) Kind() TargetKind { return KindCustom }

// Outputs implements Target.
func (c *CustomTargetIndex) Outputs() []string { return []string{c.Output} }

// Filename implements Target.
func (c *CustomTargetIndex) Filename() string { return c.Output }

// IsLinkable implements Target.
func (c *CustomTargetIndex) IsLinkable() bool {
	return slices.Contains(linkableSuffixes, filepath.Ext(c.Output))
}

// Aliases implements Target.
func (c *CustomTargetIndex) Aliases() map[string]string { return nil }

func (c *CustomTargetIndex) isTarget() {}

func (c *CustomTargetIndex) String() string {
	return fmt.Sprintf("<custom target index %s[%s]>", c.Parent.ID(), c.Output)
}
