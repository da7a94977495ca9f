package config

import (
	"fmt"
	"maps"
	"path"
	"path/filepath"
	"slices"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/zerr"
)

// declare dispatches one declaration of a project file in subdir.
//
//nolint:cyclop // one branch per declaration kind
func (s *session) declare(subdir, subproject string, d *DeclarationDTO) error {
	switch d.Kind {
	case KindSubdir:
		return s.enterSubdir(subdir, d.Path, subproject)
	case KindSubproject:
		return s.enterSubproject(subdir, d.Path)
	}

	if d.Name == "" {
		return zerr.With(zerr.Wrap(domain.ErrInvalidArguments, "declaration has no name"), "kind", d.Kind)
	}

	switch d.Kind {
	case KindExecutable, KindStaticLibrary, KindSharedLibrary, KindSharedModule, KindJar:
		return s.declareBuildTarget(subdir, subproject, d)
	case KindCustomTarget:
		return s.declareCustomTarget(subdir, subproject, d)
	case KindRunTarget:
		return s.declareRunTarget(subdir, subproject, d)
	case KindAliasTarget:
		return s.declareAliasTarget(subdir, subproject, d)
	case KindGenerator:
		return s.declareGenerator(d)
	case KindGenerate:
		return s.declareGenerate(subdir, d)
	case KindExtractObjects:
		return s.declareExtractObjects(d)
	case KindDependency:
		return s.declareDependency(subdir, d)
	case KindEnvironment:
		return s.declareEnvironment(subdir, d)
	}
	return zerr.With(zerr.Wrap(domain.ErrInvalidArguments, "unknown declaration kind"), "kind", d.Kind)
}

func (s *session) declareBuildTarget(subdir, subproject string, d *DeclarationDTO) error {
	machine := domain.MachineHost
	if d.Native {
		machine = domain.MachineBuild
	}
	sources, err := s.resolveSources(subdir, d.Sources)
	if err != nil {
		return err
	}
	objects, err := s.resolveList(d.Objects)
	if err != nil {
		return err
	}
	kw, err := s.resolveKwargs(d.Kwargs)
	if err != nil {
		return err
	}

	var t domain.Target
	switch d.Kind {
	case KindExecutable:
		t, err = s.b.AddExecutable(d.Name, subdir, subproject, machine, sources, objects, kw)
	case KindStaticLibrary:
		t, err = s.b.AddStaticLibrary(d.Name, subdir, subproject, machine, sources, objects, kw)
	case KindSharedLibrary:
		t, err = s.b.AddSharedLibrary(d.Name, subdir, subproject, machine, sources, objects, kw)
	case KindSharedModule:
		t, err = s.b.AddSharedModule(d.Name, subdir, subproject, machine, sources, objects, kw)
	case KindJar:
		t, err = s.b.AddJar(d.Name, subdir, subproject, machine, sources, objects, kw)
	}
	if err != nil {
		return err
	}

	if d.Kind == KindStaticLibrary {
		if err := s.ensureStaticLinker(t, machine); err != nil {
			return err
		}
	}
	s.bind(d.Name, t)
	return nil
}

// ensureStaticLinker picks the archiver of machine from the first compiler
// of t that needs one.
func (s *session) ensureStaticLinker(t domain.Target, machine domain.MachineChoice) error {
	bt, ok := domain.AsBuildTarget(t)
	if !ok {
		return nil
	}
	compilers := s.env.CompilersFor(machine)
	for _, lang := range bt.Compilers {
		c, ok := compilers.Get(lang)
		if !ok {
			continue
		}
		if err := s.b.EnsureStaticLinker(machine, c, s.tc.StaticLinkerDetector(machine)); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) declareCustomTarget(subdir, subproject string, d *DeclarationDTO) error {
	kw, err := s.resolveKwargs(d.Kwargs)
	if err != nil {
		return err
	}
	if len(d.Sources) > 0 {
		if kw.Has("input") {
			return zerr.With(zerr.Wrap(domain.ErrMutuallyExclusive,
				"sources and input cannot both be given"), "target", d.Name)
		}
		if kw["input"], err = s.resolveSources(subdir, d.Sources); err != nil {
			return err
		}
	}
	ct, err := s.b.AddCustomTarget(d.Name, subdir, subproject, kw)
	if err != nil {
		return err
	}
	s.bind(d.Name, ct)
	return nil
}

func (s *session) declareRunTarget(subdir, subproject string, d *DeclarationDTO) error {
	kw, err := s.resolveKwargs(d.Kwargs)
	if err != nil {
		return err
	}
	rt, err := s.b.AddRunTarget(d.Name, subdir, subproject, kw)
	if err != nil {
		return err
	}
	s.bind(d.Name, rt)
	return nil
}

type aliasArgs struct {
	Depends []any `mapstructure:"depends"`
}

func (s *session) declareAliasTarget(subdir, subproject string, d *DeclarationDTO) error {
	var args aliasArgs
	if err := s.decode(d, &args); err != nil {
		return err
	}
	at, err := s.b.AddAliasTarget(d.Name, subdir, subproject, args.Depends...)
	if err != nil {
		return err
	}
	s.bind(d.Name, at)
	return nil
}

func (s *session) declareGenerator(d *DeclarationDTO) error {
	kw, err := s.resolveKwargs(d.Kwargs)
	if err != nil {
		return err
	}
	exe, ok := kw["program"]
	if !ok {
		return zerr.With(zerr.Wrap(domain.ErrInvalidArguments, `missing keyword argument "program"`),
			"generator", d.Name)
	}
	delete(kw, "program")
	g, err := s.b.NewGenerator(exe, kw)
	if err != nil {
		return err
	}
	s.bind(d.Name, g)
	return nil
}

type generateArgs struct {
	Generator        any      `mapstructure:"generator"`
	PreservePathFrom string   `mapstructure:"preserve_path_from"`
	ExtraArgs        []string `mapstructure:"extra_args"`
}

func (s *session) declareGenerate(subdir string, d *DeclarationDTO) error {
	var args generateArgs
	if err := s.decode(d, &args); err != nil {
		return err
	}
	g, ok := args.Generator.(*domain.Generator)
	if !ok {
		return zerr.With(zerr.Wrap(domain.ErrInvalidArguments, "generator must refer to a generator"),
			"list", d.Name)
	}
	files, err := s.resolveSources(subdir, d.Sources)
	if err != nil {
		return err
	}
	preserve := args.PreservePathFrom
	if preserve != "" && !filepath.IsAbs(preserve) {
		preserve = path.Join(subdir, preserve)
	}
	gl, err := g.ProcessFiles(s.b, subdir, files, domain.ProcessOptions{
		PreservePathFrom: preserve,
		ExtraArgs:        args.ExtraArgs,
	})
	if err != nil {
		return err
	}
	s.bind(d.Name, gl)
	return nil
}

type extractArgs struct {
	Target    any  `mapstructure:"target"`
	Recursive bool `mapstructure:"recursive"`
}

func (s *session) declareExtractObjects(d *DeclarationDTO) error {
	var args extractArgs
	if err := s.decode(d, &args); err != nil {
		return err
	}
	t, err := asTarget("target", args.Target)
	if err != nil {
		return err
	}

	var eo *domain.ExtractedObjects
	if len(d.Sources) == 0 {
		eo, err = s.b.ExtractAllObjects(t, args.Recursive)
	} else {
		var sources []any
		if sources, err = s.resolveList(d.Sources); err != nil {
			return err
		}
		eo, err = s.b.ExtractObjects(t, sources...)
	}
	if err != nil {
		return err
	}
	s.bind(d.Name, eo)
	return nil
}

type dependencyArgs struct {
	External           bool     `mapstructure:"external"`
	Version            string   `mapstructure:"version"`
	Language           string   `mapstructure:"language"`
	CompileArgs        []string `mapstructure:"compile_args"`
	LinkArgs           []string `mapstructure:"link_args"`
	IncludeDirectories []string `mapstructure:"include_directories"`
	LinkWith           []any    `mapstructure:"link_with"`
	LinkWhole          []any    `mapstructure:"link_whole"`
	Dependencies       []any    `mapstructure:"dependencies"`
}

func (s *session) declareDependency(subdir string, d *DeclarationDTO) error {
	var args dependencyArgs
	if err := s.decode(d, &args); err != nil {
		return err
	}
	dep := &domain.Dependency{
		Name:        d.Name,
		Internal:    !args.External,
		Language:    args.Language,
		Version:     args.Version,
		CompileArgs: args.CompileArgs,
		LinkArgs:    args.LinkArgs,
		IncludeDirs: args.IncludeDirectories,
	}

	sources, err := s.resolveSources(subdir, d.Sources)
	if err != nil {
		return err
	}
	for _, src := range sources {
		name, ok := src.(string)
		if !ok {
			return zerr.With(zerr.Wrap(domain.ErrInvalidArguments,
				fmt.Sprintf("dependency sources must be files, got %T", src)), "dependency", d.Name)
		}
		dep.Sources = append(dep.Sources, domain.SourceFile(subdir, name))
	}

	for _, v := range args.LinkWith {
		t, err := asTarget("link_with", v)
		if err != nil {
			return err
		}
		dep.Libraries = append(dep.Libraries, t.ID())
	}
	for _, v := range args.LinkWhole {
		t, err := asTarget("link_whole", v)
		if err != nil {
			return err
		}
		dep.WholeLibraries = append(dep.WholeLibraries, t.ID())
	}
	for _, v := range args.Dependencies {
		nested, ok := v.(*domain.Dependency)
		if !ok {
			return zerr.With(zerr.Wrap(domain.ErrInvalidArguments,
				fmt.Sprintf("dependencies must refer to dependencies, got %T", v)), "dependency", d.Name)
		}
		dep.Deps = append(dep.Deps, nested)
	}
	s.bind(d.Name, dep)
	return nil
}

type environmentArgs struct {
	EnvFile   string              `mapstructure:"env_file"`
	Separator string              `mapstructure:"separator"`
	Set       map[string][]string `mapstructure:"set"`
	Append    map[string][]string `mapstructure:"append"`
	Prepend   map[string][]string `mapstructure:"prepend"`
}

// declareEnvironment builds an environment object. Variables of env_file
// are set first, then set, append and prepend apply in that order.
func (s *session) declareEnvironment(subdir string, d *DeclarationDTO) error {
	var args environmentArgs
	if err := s.decode(d, &args); err != nil {
		return err
	}
	env := domain.NewEnvironmentVariables()

	if args.EnvFile != "" {
		file := args.EnvFile
		if !filepath.IsAbs(file) {
			file = filepath.Join(s.env.SourceDir, filepath.FromSlash(subdir), filepath.FromSlash(file))
		}
		data, err := s.loader.FS.ReadFile(file)
		if err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "env_file", args.EnvFile)
		}
		vars, err := godotenv.UnmarshalBytes(data)
		if err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "env_file", args.EnvFile)
		}
		for _, k := range slices.Sorted(maps.Keys(vars)) {
			env.Set(k, []string{vars[k]}, args.Separator)
		}
	}
	for _, k := range slices.Sorted(maps.Keys(args.Set)) {
		env.Set(k, args.Set[k], args.Separator)
	}
	for _, k := range slices.Sorted(maps.Keys(args.Append)) {
		env.Append(k, args.Append[k], args.Separator)
	}
	for _, k := range slices.Sorted(maps.Keys(args.Prepend)) {
		env.Prepend(k, args.Prepend[k], args.Separator)
	}
	s.bind(d.Name, env)
	return nil
}

// decode resolves the keyword arguments of d into out. Unknown keys fail.
func (s *session) decode(d *DeclarationDTO, out any) error {
	kw, err := s.resolveKwargs(d.Kwargs)
	if err != nil {
		return err
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(map[string]any(kw)); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrInvalidArguments, err.Error()), "kind", d.Kind)
	}
	return nil
}
