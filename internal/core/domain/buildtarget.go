package domain

import (
	"fmt"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// BuildTarget holds the fields shared by targets compiled and linked from
// sources: executables, libraries, modules and jars.
type BuildTarget struct {
	TargetBase

	Sources   []File
	Generated []Ref
	Objects   []Ref
	// Compilers lists the languages compiled or linked by the target,
	// resolved against the compilers of ForMachine.
	Compilers        []string
	LinkTargets      []Ref
	LinkWholeTargets []Ref
	ExternalDeps     []ExternalDep
	IncludeDirs      []IncludeDirs
	LinkLanguage     string
	LinkArgs         []string
	LinkDepends      []File
	ExtraArgs        map[string][]string
	PCH              map[string][]string
	ExtraFiles       []File
	Resources        []File

	InstallDirs  []InstallDir
	InstallMode  string
	InstallRpath string
	BuildRpath   string
	NeedInstall  bool

	IsUnity   bool
	Prefix    string
	Suffix    string
	PrefixSet bool
	SuffixSet bool

	OutputFilename string
	OutputNames    []string
	DebugFilename  string

	ImplicitIncludeDirectories bool
	GnuSymbolVisibility        string
	RustCrateType              string
	MainClass                  string
}

// InstallDir is one entry of an install_dir list. An empty, enabled entry
// stands for the default directory of the target.
type InstallDir struct {
	Path     string
	Disabled bool
}

type buildTargetNode interface {
	Target
	common() *BuildTarget
}

func (t *BuildTarget) common() *BuildTarget { return t }

// Outputs implements Target.
func (t *BuildTarget) Outputs() []string { return slices.Clone(t.OutputNames) }

// Filename implements Target.
func (t *BuildTarget) Filename() string { return t.OutputFilename }

// HasLanguage reports whether lang is among the target's compilers.
func (t *BuildTarget) HasLanguage(lang string) bool {
	return slices.Contains(t.Compilers, lang)
}

// IsInternal reports whether the target is a convenience library that is
// never installed.
func (t *BuildTarget) IsInternal() bool {
	return t.Type == KindStaticLibrary && !t.NeedInstall
}

// AsBuildTarget returns the shared build fields of t, if t is a build target.
func AsBuildTarget(t Target) (*BuildTarget, bool) {
	n, ok := t.(buildTargetNode)
	if !ok {
		return nil, false
	}
	return n.common(), true
}

var gnuSymbolVisibilities = []string{"default", "internal", "hidden", "protected", "inlineshidden"}

type buildTargetOptions struct {
	BuildByDefault             any      `mapstructure:"build_by_default"`
	Install                    any      `mapstructure:"install"`
	OverrideOptions            []string `mapstructure:"override_options"`
	LinkWith                   []any    `mapstructure:"link_with"`
	LinkWhole                  []any    `mapstructure:"link_whole"`
	Dependencies               []any    `mapstructure:"dependencies"`
	LinkArgs                   []string `mapstructure:"link_args"`
	LinkDepends                []any    `mapstructure:"link_depends"`
	LinkLanguage               string   `mapstructure:"link_language"`
	IncludeDirectories         []any    `mapstructure:"include_directories"`
	InstallDir                 []any    `mapstructure:"install_dir"`
	InstallMode                string   `mapstructure:"install_mode"`
	InstallRpath               any      `mapstructure:"install_rpath"`
	BuildRpath                 any      `mapstructure:"build_rpath"`
	ExtraFiles                 []any    `mapstructure:"extra_files"`
	Resources                  []any    `mapstructure:"resources"`
	NamePrefix                 any      `mapstructure:"name_prefix"`
	NameSuffix                 any      `mapstructure:"name_suffix"`
	ImplicitIncludeDirectories any      `mapstructure:"implicit_include_directories"`
	GnuSymbolVisibility        any      `mapstructure:"gnu_symbol_visibility"`
	GUIApp                     any      `mapstructure:"gui_app"`
	MainClass                  any      `mapstructure:"main_class"`
	CPCH                       []string `mapstructure:"c_pch"`
	CPPPCH                     []string `mapstructure:"cpp_pch"`
	RustCrateType              any      `mapstructure:"rust_crate_type"`

	PIC           any `mapstructure:"pic"`
	PIE           any `mapstructure:"pie"`
	ExportDynamic any `mapstructure:"export_dynamic"`
	Implib        any `mapstructure:"implib"`

	Version        any `mapstructure:"version"`
	Soversion      any `mapstructure:"soversion"`
	DarwinVersions any `mapstructure:"darwin_versions"`
	VSModuleDefs   any `mapstructure:"vs_module_defs"`
}

// targetBuilder carries the state of one build target construction.
type targetBuilder struct {
	b         *Build
	bt        *BuildTarget
	kw        Kwargs
	opts      buildTargetOptions
	addedDeps map[*Dependency]struct{}
}

// kindHook applies the keyword arguments specific to one target kind.
type kindHook func(tb *targetBuilder) error

// initBuildTarget runs the construction steps shared by all build targets.
// The hook runs after the shared keyword arguments and before compilers are
// chosen.
func (b *Build) initBuildTarget(bt *BuildTarget, kind TargetKind, name, subdir, subproject string,
	machine MachineChoice, sources, objects []any, kw Kwargs, hook kindHook,
) (*targetBuilder, error) {
	if err := b.checkMutable(); err != nil {
		return nil, err
	}
	base, err := newTargetBase(kind, name, subdir, subproject, machine, true)
	if err != nil {
		return nil, err
	}
	bt.TargetBase = base
	bt.IsUnity = b.env.IsUnity(subproject)
	bt.ExtraArgs = make(map[string][]string)
	bt.PCH = make(map[string][]string)
	bt.ImplicitIncludeDirectories = true

	if kw == nil {
		kw = Kwargs{}
	}
	tb := &targetBuilder{b: b, bt: bt, kw: kw, addedDeps: make(map[*Dependency]struct{})}
	known := knownKwargs(kind)
	if err := decodeKwargs(name, kw.only(known), &tb.opts); err != nil {
		return nil, err
	}

	if err := tb.processSourceList(flatten(sources)); err != nil {
		return nil, err
	}
	if err := tb.processObjectList(flatten(objects)); err != nil {
		return nil, err
	}
	if err := tb.processKwargs(); err != nil {
		return nil, err
	}
	if hook != nil {
		if err := hook(tb); err != nil {
			return nil, err
		}
	}
	if unknown := kw.unknown(known); len(unknown) > 0 {
		b.warnf("Unknown keyword argument(s) in target %s: %s.", name, strings.Join(unknown, ", "))
	}
	if err := tb.processCompilers(); err != nil {
		return nil, err
	}
	if len(bt.Sources) == 0 && len(bt.Generated) == 0 && len(bt.Objects) == 0 && len(bt.LinkWholeTargets) == 0 {
		return nil, targetError(ErrEmptyTarget, name, fmt.Sprintf("build target %s has no sources", name))
	}
	tb.processCompilersLate()
	if err := tb.validateSources(); err != nil {
		return nil, err
	}
	if err := tb.validateInstall(); err != nil {
		return nil, err
	}
	if err := tb.checkModuleLinking(); err != nil {
		return nil, err
	}
	return tb, nil
}

func (tb *targetBuilder) compilers() *CompilerSet {
	return tb.b.env.CompilersFor(tb.bt.ForMachine)
}

func (tb *targetBuilder) machine() MachineInfo {
	return tb.b.env.Machine(tb.bt.ForMachine)
}

// processSourceList sorts sources into plain files and generated inputs.
// Duplicate files given in one call are kept once.
func (tb *targetBuilder) processSourceList(sources []any) error {
	added := make(map[File]struct{})
	for _, s := range sources {
		var f File
		switch v := s.(type) {
		case string:
			sf, err := tb.sourceFile(v)
			if err != nil {
				return err
			}
			f = sf
		case File:
			f = v
		case *File:
			f = *v
		default:
			ref, err := tb.b.generatedRef(tb.bt.Name, s)
			if err != nil {
				return err
			}
			tb.bt.Generated = append(tb.bt.Generated, ref)
			continue
		}
		if _, ok := added[f]; ok {
			continue
		}
		added[f] = struct{}{}
		tb.bt.Sources = append(tb.bt.Sources, f)
	}
	return nil
}

// generatedRef converts a generated source value into a ref.
func (b *Build) generatedRef(target string, s any) (Ref, error) {
	switch v := s.(type) {
	case *GeneratedList:
		if gl, ok := b.GeneratedList(v.ID); !ok || gl != v {
			return Ref{}, invalidArgs(target, "generated list does not belong to this build")
		}
		return ListRef(v.ID), nil
	case *CustomTarget:
		if err := b.owns(v); err != nil {
			return Ref{}, err
		}
		return TargetRef(v.ID()), nil
	case *CustomTargetIndex:
		if err := b.owns(v); err != nil {
			return Ref{}, err
		}
		return refTo(v), nil
	}
	return Ref{}, invalidArgs(target, fmt.Sprintf("bad source of type %T in target %q", s, target))
}

func (tb *targetBuilder) processObjectList(objects []any) error {
	name := tb.bt.Name
	for _, o := range objects {
		switch v := o.(type) {
		case string:
			f, err := tb.sourceFile(v)
			if err != nil {
				return err
			}
			tb.bt.Objects = append(tb.bt.Objects, FileRef(f))
		case File:
			tb.bt.Objects = append(tb.bt.Objects, FileRef(v))
		case *File:
			tb.bt.Objects = append(tb.bt.Objects, FileRef(*v))
		case *ExtractedObjects:
			tb.bt.Objects = append(tb.bt.Objects, ObjectsRef(v))
		case *GeneratedList, *CustomTarget, *CustomTargetIndex:
			return invalidArgs(name, fmt.Sprintf(
				"generated files are not allowed in the 'objects' kwarg for target %q; "+
					"it is meant only for pre-built object files that are shipped with the source tree, "+
					"try adding it in the list of sources", name))
		default:
			return invalidArgs(name, fmt.Sprintf("bad object of type %T in target %q", o, name))
		}
	}
	return nil
}

func (tb *targetBuilder) processKwargs() error {
	bt, opts, kw, env := tb.bt, &tb.opts, tb.kw, tb.b.env
	name := bt.Name

	if err := bt.processBaseOptions(baseOptions{
		BuildByDefault:  opts.BuildByDefault,
		Install:         opts.Install,
		OverrideOptions: opts.OverrideOptions,
	}); err != nil {
		return err
	}
	if opts.Install != nil {
		install, ok := opts.Install.(bool)
		if !ok {
			return invalidArgs(name, "install must be a boolean value")
		}
		bt.NeedInstall = install
	}

	for _, lt := range flatten(opts.LinkWith) {
		if _, ok := lt.(*Dependency); ok {
			return invalidArgs(name, "an external library was used in link_with keyword argument, "+
				"which is reserved for libraries built as part of this project; "+
				"pass external libraries using the dependencies keyword argument instead")
		}
		peer, err := tb.targetArg("link_with", lt)
		if err != nil {
			return err
		}
		if err := tb.link(peer); err != nil {
			return err
		}
	}
	for _, lt := range flatten(opts.LinkWhole) {
		peer, err := tb.targetArg("link_whole", lt)
		if err != nil {
			return err
		}
		if err := tb.linkWhole(peer); err != nil {
			return err
		}
	}

	if err := tb.addPCH(LangC, opts.CPCH); err != nil {
		return err
	}
	if err := tb.addPCH(LangCPP, opts.CPPPCH); err != nil {
		return err
	}
	for _, lang := range AllLanguages {
		key := lang + "_args"
		if !kw.Has(key) {
			continue
		}
		args, err := stringList(name, key, kw[key])
		if err != nil {
			return err
		}
		bt.ExtraArgs[lang] = append(bt.ExtraArgs[lang], args...)
	}

	bt.LinkArgs = opts.LinkArgs
	for _, l := range bt.LinkArgs {
		if strings.Contains(l, "-Wl,-rpath") || strings.HasPrefix(l, "-rpath") {
			tb.b.warn("Please do not define rpath with a linker argument, use install_rpath or build_rpath properties instead.")
			break
		}
	}
	if err := tb.processLinkDepends(flatten(opts.LinkDepends)); err != nil {
		return err
	}
	bt.LinkLanguage = opts.LinkLanguage

	if err := tb.addIncludeDirs(flatten(opts.IncludeDirectories)); err != nil {
		return err
	}
	if err := tb.addDeps(flatten(opts.Dependencies)); err != nil {
		return err
	}

	dirs, err := parseInstallDirs(name, opts.InstallDir)
	if err != nil {
		return err
	}
	bt.InstallDirs = dirs
	bt.InstallMode = opts.InstallMode

	if opts.MainClass != nil {
		mc, ok := opts.MainClass.(string)
		if !ok {
			return invalidArgs(name, "main class must be a string")
		}
		bt.MainClass = mc
	}
	if kw.Has("gui_app") && bt.Type != KindExecutable {
		return invalidArgs(name, "argument gui_app can only be used on executables")
	}

	for _, e := range flatten(opts.ExtraFiles) {
		var f File
		switch v := e.(type) {
		case string:
			f = SourceFile(bt.Subdir, v)
		case File:
			f = v
		default:
			return invalidArgs(name, fmt.Sprintf("extra file %v is not a string or file", e))
		}
		if !f.IsBuilt && !env.FileExists(f.RelativeName()) {
			return targetError(ErrFileNotFound, name, fmt.Sprintf("tried to add non-existing extra file %s", f))
		}
		bt.ExtraFiles = append(bt.ExtraFiles, f)
	}

	if bt.InstallRpath, err = optionalString(name, "install_rpath", opts.InstallRpath); err != nil {
		return err
	}
	if bt.BuildRpath, err = optionalString(name, "build_rpath", opts.BuildRpath); err != nil {
		return err
	}

	for _, r := range flatten(opts.Resources) {
		s, ok := r.(string)
		if !ok {
			return invalidArgs(name, "resource argument is not a string")
		}
		f := SourceFile(bt.Subdir, s)
		if !env.FileExists(f.RelativeName()) {
			return targetError(ErrFileNotFound, name, fmt.Sprintf("tried to add non-existing resource %s", s))
		}
		bt.Resources = append(bt.Resources, f)
	}

	if kw.Has("name_prefix") {
		p, set, err := namePart(name, "name_prefix", opts.NamePrefix, true)
		if err != nil {
			return err
		}
		bt.Prefix, bt.PrefixSet = p, set
	}
	if kw.Has("name_suffix") {
		s, set, err := namePart(name, "name_suffix", opts.NameSuffix, false)
		if err != nil {
			return err
		}
		bt.Suffix, bt.SuffixSet = s, set
	}

	if opts.ImplicitIncludeDirectories != nil {
		v, ok := opts.ImplicitIncludeDirectories.(bool)
		if !ok {
			return invalidArgs(name, "implicit_include_directories must be a boolean")
		}
		bt.ImplicitIncludeDirectories = v
	}
	if bt.GnuSymbolVisibility, err = optionalString(name, "gnu_symbol_visibility", opts.GnuSymbolVisibility); err != nil {
		return err
	}
	if bt.GnuSymbolVisibility != "" && !slices.Contains(gnuSymbolVisibilities, bt.GnuSymbolVisibility) {
		return invalidArgs(name, fmt.Sprintf("GNU symbol visibility arg %s not one of: %s",
			bt.GnuSymbolVisibility, strings.Join(gnuSymbolVisibilities, ", ")))
	}
	if bt.RustCrateType, err = optionalString(name, "rust_crate_type", opts.RustCrateType); err != nil {
		return err
	}
	return nil
}

// targetArg checks that v is a target of this build.
func (tb *targetBuilder) targetArg(key string, v any) (Target, error) {
	t, ok := v.(Target)
	if !ok {
		return nil, invalidArgs(tb.bt.Name, fmt.Sprintf("%v in %s is not a target", v, key))
	}
	if err := tb.b.owns(t); err != nil {
		return nil, err
	}
	return t, nil
}

// resolveID looks up a target referenced by a dependency.
func (tb *targetBuilder) resolveID(id TargetID) (Target, error) {
	t, ok := tb.b.Lookup(id)
	if !ok {
		return nil, zerr.With(tag(ErrTargetNotFound, "target", tb.bt.Name), "reference", string(id))
	}
	return t, nil
}

// link adds t to the targets linked into this one.
func (tb *targetBuilder) link(t Target) error {
	bt := tb.bt
	if bt.Type == KindStaticLibrary && bt.NeedInstall {
		if peer, ok := AsBuildTarget(t); ok && peer.IsInternal() {
			return tb.linkWhole(t)
		}
	}
	if !t.IsLinkable() {
		return targetError(ErrNotLinkable, bt.Name, fmt.Sprintf("link target %s is not linkable", t.ID()))
	}
	if bt.Type.IsShared() {
		if st, ok := t.(*StaticLibrary); ok && !st.PIC {
			return tb.nonPIC(st)
		}
	}
	if err := tb.checkMachine(t); err != nil {
		return err
	}
	bt.LinkTargets = append(bt.LinkTargets, refTo(t))
	return nil
}

// linkWhole adds t to the archives whose every object is linked in.
func (tb *targetBuilder) linkWhole(t Target) error {
	bt := tb.bt
	switch v := t.(type) {
	case *CustomTarget, *CustomTargetIndex:
		if !t.IsLinkable() {
			return targetError(ErrNotLinkable, bt.Name, fmt.Sprintf("custom target %s is not linkable", t.ID()))
		}
		if !strings.HasSuffix(t.Filename(), ".a") {
			return invalidArgs(bt.Name, "can only link_whole custom targets that are .a archives")
		}
		if bt.Type == KindStaticLibrary {
			return invalidArgs(bt.Name, "cannot link_whole a custom target into a static library")
		}
	case *StaticLibrary:
		if bt.Type.IsShared() && !v.PIC {
			return tb.nonPIC(v)
		}
	default:
		return invalidArgs(bt.Name, fmt.Sprintf("%s is not a static library", t.ID()))
	}
	if err := tb.checkMachine(t); err != nil {
		return err
	}
	if bt.Type == KindStaticLibrary {
		if st, ok := t.(*StaticLibrary); ok {
			for _, eo := range tb.b.extractAllObjectsRecurse(st) {
				bt.Objects = append(bt.Objects, ObjectsRef(eo))
			}
		}
	}
	bt.LinkWholeTargets = append(bt.LinkWholeTargets, refTo(t))
	return nil
}

func (tb *targetBuilder) nonPIC(st *StaticLibrary) error {
	return targetError(ErrNonPICLink, tb.bt.Name, fmt.Sprintf(
		"can't link non-PIC static library %q into shared library %q; "+
			"use the 'pic' option to static_library to build with PIC", st.Name, tb.bt.Name))
}

func (tb *targetBuilder) checkMachine(t Target) error {
	mine, theirs := tb.bt.ForMachine, t.Base().ForMachine
	if mine == theirs {
		return nil
	}
	msg := fmt.Sprintf("tried to mix libraries for machines %s and %s in target %q", mine, theirs, tb.bt.Name)
	if tb.b.env.IsCrossBuild() {
		return targetError(ErrMachineMismatch, tb.bt.Name, msg+"; this is not possible in a cross build")
	}
	tb.b.warn(msg + ". This will fail in a cross build.")
	return nil
}

func (tb *targetBuilder) addPCH(lang string, pch []string) error {
	name := tb.bt.Name
	switch len(pch) {
	case 0:
		return nil
	case 1:
		if !IsHeader(pch[0]) {
			return invalidArgs(name, fmt.Sprintf("PCH argument %s is not a header", pch[0]))
		}
	case 2:
		switch {
		case IsHeader(pch[0]):
			if !IsSource(pch[1]) {
				return invalidArgs(name, "PCH definition must contain one header and at most one source")
			}
		case IsSource(pch[0]):
			if !IsHeader(pch[1]) {
				return invalidArgs(name, "PCH definition must contain one header and at most one source")
			}
			pch = []string{pch[1], pch[0]}
		default:
			return invalidArgs(name, fmt.Sprintf("PCH argument %s is of unknown type", pch[0]))
		}
		if path.Dir(pch[0]) != path.Dir(pch[1]) {
			return invalidArgs(name, "PCH files must be stored in the same folder")
		}
		tb.b.warn("PCH source files are deprecated, only a single header file should be used.")
	default:
		return invalidArgs(name, "PCH definition may have a maximum of 2 files")
	}
	for _, f := range pch {
		if !tb.b.env.FileExists(path.Join(tb.bt.Subdir, f)) {
			return targetError(ErrFileNotFound, name, fmt.Sprintf("file %s does not exist", f))
		}
	}
	tb.bt.PCH[lang] = pch
	return nil
}

func (tb *targetBuilder) processLinkDepends(deps []any) error {
	bt := tb.bt
	for _, d := range deps {
		switch v := d.(type) {
		case File:
			bt.LinkDepends = append(bt.LinkDepends, v)
		case string:
			f, err := tb.sourceFile(v)
			if err != nil {
				return err
			}
			bt.LinkDepends = append(bt.LinkDepends, f)
		case *CustomTarget, *CustomTargetIndex:
			t := v.(Target)
			for _, out := range t.Outputs() {
				bt.LinkDepends = append(bt.LinkDepends, BuiltFile(t.Base().Subdir, out))
			}
		default:
			return invalidArgs(bt.Name, "link_depends arguments must be strings, files, or a custom target, or lists thereof")
		}
	}
	return nil
}

// sourceFile returns a file of the target's subdirectory that must exist.
func (tb *targetBuilder) sourceFile(fname string) (File, error) {
	return tb.b.sourceFile(tb.bt.Name, tb.bt.Subdir, fname)
}

// sourceFile returns fname of subdir, failing when it is not a regular file
// of the source tree. Absolute names are checked as given.
func (b *Build) sourceFile(target, subdir, fname string) (File, error) {
	f := SourceFile(subdir, fname)
	name := f.RelativeName()
	if filepath.IsAbs(fname) {
		name = fname
	}
	if !b.env.FileExists(name) {
		return File{}, targetError(ErrFileNotFound, target, fmt.Sprintf("file %s does not exist", fname))
	}
	return f, nil
}

func (tb *targetBuilder) addIncludeDirs(dirs []any) error {
	bt := tb.bt
	for _, d := range dirs {
		switch v := d.(type) {
		case string:
			bt.IncludeDirs = append(bt.IncludeDirs, IncludeDirs{Subdir: bt.Subdir, Dirs: []string{v}})
		case IncludeDirs:
			bt.IncludeDirs = append(bt.IncludeDirs, v)
		case *IncludeDirs:
			bt.IncludeDirs = append(bt.IncludeDirs, *v)
		default:
			return invalidArgs(bt.Name, "include directory to be added is not an include directory object")
		}
	}
	return nil
}

// addDeps merges dependency descriptors into the target.
func (tb *targetBuilder) addDeps(deps []any) error {
	bt := tb.bt
	for _, d := range deps {
		dep, ok := d.(*Dependency)
		if !ok {
			if _, isTarget := d.(Target); isTarget {
				return invalidArgs(bt.Name, "tried to use a build target as a dependency; you probably should put it in link_with instead")
			}
			return invalidArgs(bt.Name, fmt.Sprintf(
				"argument is of an unacceptable type %T; must be either an external or an internal dependency", d))
		}
		if _, seen := tb.addedDeps[dep]; seen {
			continue
		}
		tb.addedDeps[dep] = struct{}{}
		if dep.Internal {
			if err := tb.addInternalDep(dep); err != nil {
				return err
			}
		} else if !slices.ContainsFunc(bt.ExternalDeps, func(e ExternalDep) bool { return e.Name == dep.Name }) {
			bt.ExternalDeps = append(bt.ExternalDeps, dep.external())
			if err := tb.processSourceList(filesAsAny(dep.Sources)); err != nil {
				return err
			}
		}
		nested := make([]any, len(dep.Deps))
		for i, nd := range dep.Deps {
			nested[i] = nd
		}
		if err := tb.addDeps(nested); err != nil {
			return err
		}
	}
	return nil
}

func (tb *targetBuilder) addInternalDep(dep *Dependency) error {
	bt := tb.bt
	if err := tb.processSourceList(filesAsAny(dep.Sources)); err != nil {
		return err
	}
	for _, dir := range dep.IncludeDirs {
		bt.IncludeDirs = append(bt.IncludeDirs, IncludeDirs{Subdir: bt.Subdir, Dirs: []string{dir}})
	}
	for _, id := range dep.Libraries {
		t, err := tb.resolveID(id)
		if err != nil {
			return err
		}
		if err := tb.link(t); err != nil {
			return err
		}
	}
	for _, id := range dep.WholeLibraries {
		t, err := tb.resolveID(id)
		if err != nil {
			return err
		}
		if err := tb.linkWhole(t); err != nil {
			return err
		}
	}
	if len(dep.CompileArgs) > 0 || len(dep.LinkArgs) > 0 {
		ext := dep.external()
		if ext.Name == "" {
			ext.Name = "undefined"
		}
		bt.ExternalDeps = append(bt.ExternalDeps, ext)
	}
	return nil
}

func filesAsAny(files []File) []any {
	out := make([]any, len(files))
	for i, f := range files {
		out[i] = f
	}
	return out
}

// processCompilers picks a compiler for every source the target builds.
func (tb *targetBuilder) processCompilers() error {
	bt := tb.bt
	if len(bt.Sources) == 0 && len(bt.Generated) == 0 && len(bt.Objects) == 0 {
		return nil
	}
	all := tb.compilers()

	var sources []string
	for _, f := range bt.Sources {
		sources = append(sources, f.Fname)
	}
	for _, g := range bt.Generated {
		for _, out := range tb.b.RefOutputs(g) {
			if !IsObject(out) {
				sources = append(sources, out)
			}
		}
	}
	for _, o := range bt.Objects {
		if o.Kind != RefExtractedObjects || o.Objects == nil {
			continue
		}
		for _, f := range o.Objects.Sources {
			if !slices.ContainsFunc(langSuffixes[LangVala], func(s string) bool { return f.EndsWith("." + s) }) {
				sources = append(sources, f.Fname)
			}
		}
	}

	if len(sources) > 0 {
		for _, s := range sources {
			matched := false
			for lang, c := range all.All() {
				if c.CanCompile(s) {
					if !bt.HasLanguage(lang) {
						bt.Compilers = append(bt.Compilers, lang)
					}
					matched = true
					break
				}
			}
			if !matched && IsKnownSuffix(s) {
				return targetError(ErrNoCompiler, bt.Name,
					fmt.Sprintf("no %s machine compiler for %q", bt.ForMachine, s))
			}
		}
		SortLanguages(bt.Compilers)
	}

	if bt.HasLanguage(LangVala) && !bt.HasLanguage(LangC) {
		if !all.Has(LangC) {
			return targetError(ErrNoCompiler, bt.Name, "vala targets need a C compiler")
		}
		bt.Compilers = append(bt.Compilers, LangC)
	}
	return nil
}

// processCompilersLate adds the compilers needed to link against peers.
func (tb *targetBuilder) processCompilersLate() {
	bt := tb.bt
	linkLangs := clinkLangs
	if bt.LinkLanguage != "" {
		linkLangs = []string{bt.LinkLanguage}
	}

	var extra []string
	for _, ref := range slices.Concat(bt.LinkTargets, bt.LinkWholeTargets) {
		t, ok := tb.b.Resolve(ref)
		if !ok {
			continue
		}
		peer, ok := AsBuildTarget(t)
		if !ok {
			continue
		}
		for _, lang := range peer.Compilers {
			if slices.Contains(linkLangs, lang) && !slices.Contains(extra, lang) {
				extra = append(extra, lang)
			}
		}
	}
	SortLanguages(extra)
	for _, lang := range extra {
		if !bt.HasLanguage(lang) {
			bt.Compilers = append(bt.Compilers, lang)
		}
	}

	if len(bt.Compilers) == 0 {
		all := tb.compilers()
		for _, lang := range linkLangs {
			if all.Has(lang) {
				bt.Compilers = append(bt.Compilers, lang)
				break
			}
		}
	}
}

// validateSources checks that C# and Java targets hold nothing else.
func (tb *targetBuilder) validateSources() error {
	bt := tb.bt
	if len(bt.Sources) == 0 {
		return nil
	}
	for _, lang := range []string{LangCS, LangJava} {
		if !bt.HasLanguage(lang) {
			continue
		}
		c, ok := tb.compilers().Get(lang)
		if !ok {
			return targetError(ErrNoCompiler, bt.Name, fmt.Sprintf("no %s compiler for target %q", lang, bt.Name))
		}
		var rest []string
		for _, f := range bt.Sources {
			if !c.CanCompile(f.Fname) {
				rest = append(rest, f.String())
			}
		}
		if len(rest) == len(bt.Sources) {
			return targetError(ErrLanguageMismatch, bt.Name, fmt.Sprintf("no %s sources found in target %q", lang, bt.Name))
		}
		if len(rest) > 0 {
			return targetError(ErrLanguageMismatch, bt.Name,
				fmt.Sprintf("%s targets can only contain %s files: %s", lang, lang, strings.Join(rest, ", ")))
		}
		if len(bt.Compilers) != 1 {
			return targetError(ErrLanguageMismatch, bt.Name,
				fmt.Sprintf("%s targets cannot be mixed with %s", lang, strings.Join(bt.Compilers, ", ")))
		}
		return nil
	}
	return nil
}

func (tb *targetBuilder) validateInstall() error {
	bt := tb.bt
	if bt.Type == KindJar || bt.ForMachine != MachineBuild || !bt.NeedInstall {
		return nil
	}
	if tb.b.env.IsCrossBuild() {
		return invalidArgs(bt.Name, "tried to install a target for the build machine in a cross build")
	}
	tb.b.warn("Installing target build for the build machine. This will fail in a cross build.")
	return nil
}

func (tb *targetBuilder) checkModuleLinking() error {
	for _, ref := range tb.bt.LinkTargets {
		t, ok := tb.b.Resolve(ref)
		if !ok || t.Kind() != KindSharedModule {
			continue
		}
		if tb.machine().IsDarwin() {
			return invalidArgs(tb.bt.Name, "target links against shared modules, this is not permitted on OSX")
		}
		tb.b.warn("target links against shared modules. This is not recommended as it is not supported on some platforms")
		return nil
	}
	return nil
}

// extractPICPIE resolves the pic or pie flag. A manual -fpic style flag in
// the C or C++ arguments turns it on with a warning.
func (tb *targetBuilder) extractPICPIE(arg string, val any, def *bool) (bool, error) {
	bt := tb.bt
	flags := slices.Concat(bt.ExtraArgs[LangC], bt.ExtraArgs[LangCPP])
	if slices.Contains(flags, "-f"+strings.ToLower(arg)) || slices.Contains(flags, "-f"+strings.ToUpper(arg)) {
		tb.b.warnf("Use the '%s' kwarg instead of passing '-f%s' manually to %q", arg, arg, bt.Name)
		return true, nil
	}
	if !tb.kw.Has(arg) {
		return def != nil && *def, nil
	}
	v, ok := val.(bool)
	if !ok {
		return false, invalidArgs(bt.Name, fmt.Sprintf("argument %s to %q must be boolean", arg, bt.Name))
	}
	return v, nil
}

func (tb *targetBuilder) usingMSVC() bool {
	return tb.b.UsingMSVC(tb.bt)
}

func (tb *targetBuilder) usingRustc() bool {
	return tb.b.UsingRustc(tb.bt)
}

// parseInstallDirs reads an install_dir list of strings and booleans.
func parseInstallDirs(target string, raw []any) ([]InstallDir, error) {
	var dirs []InstallDir
	for _, d := range flatten(raw) {
		switch v := d.(type) {
		case nil:
			dirs = append(dirs, InstallDir{})
		case string:
			dirs = append(dirs, InstallDir{Path: v})
		case bool:
			dirs = append(dirs, InstallDir{Disabled: !v})
		default:
			return nil, invalidArgs(target, fmt.Sprintf("install_dir entries must be strings or booleans, got %T", d))
		}
	}
	return dirs, nil
}

// stringList accepts a string or a possibly nested list of strings.
func stringList(target, key string, v any) ([]string, error) {
	var out []string
	items := []any{v}
	if list, ok := v.([]any); ok {
		items = list
	}
	for _, item := range flatten(items) {
		if item == nil {
			continue
		}
		s, ok := item.(string)
		if !ok {
			return nil, invalidArgs(target, fmt.Sprintf("%s must only contain strings, got %T", key, item))
		}
		out = append(out, s)
	}
	return out, nil
}

func optionalString(target, key string, v any) (string, error) {
	if v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", invalidArgs(target, fmt.Sprintf("%s is not a string", key))
	}
	return s, nil
}

// namePart reads name_prefix or name_suffix. An empty list selects the
// platform default.
func namePart(target, key string, v any, allowEmpty bool) (string, bool, error) {
	switch val := v.(type) {
	case []any:
		if len(val) > 0 {
			return "", false, invalidArgs(target, key+" array must be empty to signify default")
		}
		return "", false, nil
	case []string:
		if len(val) > 0 {
			return "", false, invalidArgs(target, key+" array must be empty to signify default")
		}
		return "", false, nil
	case string:
		if val == "" && !allowEmpty {
			return "", false, invalidArgs(target, key+" should not be an empty string; "+
				"to use the default behaviour for each platform pass an empty array")
		}
		return val, true, nil
	}
	return "", false, invalidArgs(target, key+" must be a string")
}
