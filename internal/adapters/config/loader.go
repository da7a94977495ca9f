// Package config loads weld project and toolchain files.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/weld/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ProjectLoader using weld.yaml files.
type Loader struct {
	Logger ports.Logger
	FS     FileSystem
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger, FS: NewOSFS()}
}

// Load reads the weld.yaml at the root of env.SourceDir and every file it
// pulls in, declaring their targets on a new build.
func (l *Loader) Load(
	ctx context.Context,
	tc *domain.Toolchain,
	env *domain.Environment,
	opts ...domain.BuildOption,
) (*domain.Build, error) {
	rootPath := filepath.Join(env.SourceDir, domain.ProjectFileName)

	var root Projectfile
	if err := l.readProjectfile(rootPath, &root); err != nil {
		return nil, err
	}
	if root.Project == "" {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "project name is required"),
			"file", domain.ProjectFileName)
	}
	if err := applyOptions(env, root.Options); err != nil {
		return nil, annotate(err, "file", domain.ProjectFileName)
	}

	if tc == nil {
		tc = &domain.Toolchain{}
	}
	opts = append([]domain.BuildOption{domain.WithProject(root.Project, root.Version)}, opts...)
	s := &session{
		ctx:    ctx,
		loader: l,
		tc:     tc,
		env:    env,
		b:      domain.NewBuild(env, opts...),
		scope:  make(map[string]any),
		loaded: map[string]bool{"": true},
	}

	if err := s.addGlobalArgs(&root); err != nil {
		return nil, annotate(err, "file", domain.ProjectFileName)
	}
	if err := s.loadFile("", "", &root); err != nil {
		return nil, err
	}
	return s.b, nil
}

// DiscoverConfigPaths returns the modification time of every project file
// reachable from srcDir, plus the toolchain file when there is one. Keys
// are relative to srcDir.
func (l *Loader) DiscoverConfigPaths(srcDir string) (map[string]int64, error) {
	found := make(map[string]int64)
	if info, err := l.FS.Stat(filepath.Join(srcDir, domain.ToolchainFileName)); err == nil {
		found[domain.ToolchainFileName] = info.ModTime().UnixNano()
	}

	queue := []string{""}
	for len(queue) > 0 {
		subdir := queue[0]
		queue = queue[1:]

		rel := path.Join(subdir, domain.ProjectFileName)
		if _, seen := found[rel]; seen {
			continue
		}
		abs := filepath.Join(srcDir, filepath.FromSlash(rel))
		info, err := l.FS.Stat(abs)
		if err != nil {
			if subdir == "" {
				return nil, annotate(domain.ErrConfigNotFound, "dir", srcDir)
			}
			// A missing subdir file is reported by Load.
			continue
		}
		found[rel] = info.ModTime().UnixNano()

		var pf Projectfile
		if err := l.readProjectfile(abs, &pf); err != nil {
			return nil, err
		}
		for _, sd := range pf.Subdirs {
			queue = append(queue, path.Join(subdir, sd))
		}
		for _, d := range pf.Declarations {
			if d != nil && (d.Kind == KindSubdir || d.Kind == KindSubproject) && d.Path != "" {
				queue = append(queue, path.Join(subdir, d.Path))
			}
		}
	}
	return found, nil
}

func (l *Loader) readProjectfile(configPath string, pf *Projectfile) error {
	if _, err := l.FS.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		return annotate(domain.ErrConfigNotFound, "file", configPath)
	}
	return readAndUnmarshalYAML(l.FS, configPath, pf)
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
func readAndUnmarshalYAML[T any](fsys FileSystem, configPath string, target *T) error {
	configFile, err := fsys.ReadFile(configPath)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "file", configPath)
	}

	if parseErr := yaml.Unmarshal(configFile, target); parseErr != nil {
		return zerr.With(zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error()), "file", configPath)
	}

	return nil
}

// annotate attaches metadata to err. Wrapping first keeps sentinel errors
// matchable with errors.Is.
func annotate(err error, key string, value any) error {
	return zerr.With(zerr.Wrap(err, ""), key, value)
}

func applyOptions(env *domain.Environment, o *OptionsDTO) error {
	if o == nil {
		return nil
	}
	switch o.Unity {
	case "":
	case domain.UnityOff, domain.UnityOn, domain.UnitySubprojects:
		env.Options.Unity = o.Unity
	default:
		return zerr.With(zerr.Wrap(domain.ErrInvalidArguments,
			"unity must be one of on, off or subprojects"), "unity", o.Unity)
	}
	if o.BPIE != nil {
		env.Options.BPIE = o.BPIE
	}
	if o.BStaticPIC != nil {
		env.Options.BStaticPIC = o.BStaticPIC
	}
	if o.Prefix != "" {
		env.Options.Prefix = o.Prefix
	}
	if o.BinDir != "" {
		env.Options.BinDir = o.BinDir
	}
	if o.LibDir != "" {
		env.Options.LibDir = o.LibDir
	}
	return nil
}

// session carries the state of one Load call.
type session struct {
	ctx    context.Context
	loader *Loader
	tc     *domain.Toolchain
	env    *domain.Environment
	b      *domain.Build
	// scope maps declared names to their values. A later declaration
	// shadows an earlier one.
	scope  map[string]any
	loaded map[string]bool
}

func (s *session) warn(format string, args ...any) {
	if s.loader.Logger != nil {
		s.loader.Logger.Warn(fmt.Sprintf(format, args...))
	}
}

func (s *session) addGlobalArgs(pf *Projectfile) error {
	for _, lang := range slices.Sorted(maps.Keys(pf.GlobalArgs)) {
		if err := s.b.AddGlobalArgs(domain.MachineHost, lang, pf.GlobalArgs[lang]...); err != nil {
			return err
		}
	}
	for _, lang := range slices.Sorted(maps.Keys(pf.GlobalLinkArgs)) {
		if err := s.b.AddGlobalLinkArgs(domain.MachineHost, lang, pf.GlobalLinkArgs[lang]...); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) addProjectArgs(subproject string, pf *Projectfile) error {
	for _, lang := range slices.Sorted(maps.Keys(pf.ProjectArgs)) {
		if err := s.b.AddProjectArgs(domain.MachineHost, subproject, lang, pf.ProjectArgs[lang]...); err != nil {
			return err
		}
	}
	for _, lang := range slices.Sorted(maps.Keys(pf.ProjectLinkArgs)) {
		if err := s.b.AddProjectLinkArgs(domain.MachineHost, subproject, lang, pf.ProjectLinkArgs[lang]...); err != nil {
			return err
		}
	}
	return nil
}

// loadFile processes an already parsed project file living in subdir.
func (s *session) loadFile(subdir, subproject string, pf *Projectfile) error {
	file := path.Join(subdir, domain.ProjectFileName)

	if err := s.addProjectArgs(subproject, pf); err != nil {
		return annotate(err, "file", file)
	}
	for _, sd := range pf.Subdirs {
		if err := s.enterSubdir(subdir, sd, subproject); err != nil {
			return annotate(err, "file", file)
		}
	}
	for _, d := range pf.Declarations {
		if err := s.ctx.Err(); err != nil {
			return err
		}
		if d == nil {
			continue
		}
		if err := s.declare(subdir, subproject, d); err != nil {
			return zerr.With(zerr.Wrap(err, describeDeclaration(d)), "file", file)
		}
	}
	return nil
}

func describeDeclaration(d *DeclarationDTO) string {
	switch {
	case d.Name != "":
		return fmt.Sprintf("failed to declare %s %q", d.Kind, d.Name)
	case d.Path != "":
		return fmt.Sprintf("failed to load %s %q", d.Kind, d.Path)
	}
	return fmt.Sprintf("failed to declare %s", d.Kind)
}

// childDir joins rel to parent and rejects paths leaving the source tree.
func childDir(parent, rel string) (string, error) {
	if rel == "" || path.IsAbs(rel) {
		return "", zerr.With(zerr.Wrap(domain.ErrInvalidArguments, "subdirectory must be a relative path"),
			"path", rel)
	}
	dir := path.Join(parent, filepath.ToSlash(rel))
	if dir == "." || dir == ".." || strings.HasPrefix(dir, "../") {
		return "", zerr.With(zerr.Wrap(domain.ErrInvalidArguments, "subdirectory must be below the source root"),
			"path", rel)
	}
	return dir, nil
}

func (s *session) readChild(parent, rel string) (string, *Projectfile, error) {
	dir, err := childDir(parent, rel)
	if err != nil {
		return "", nil, err
	}
	if s.loaded[dir] {
		return "", nil, zerr.With(zerr.Wrap(domain.ErrInvalidArguments, "subdirectory was already entered"),
			"path", dir)
	}
	s.loaded[dir] = true

	var pf Projectfile
	abs := filepath.Join(s.env.SourceDir, filepath.FromSlash(dir), domain.ProjectFileName)
	if err := s.loader.readProjectfile(abs, &pf); err != nil {
		return "", nil, err
	}
	if pf.Options != nil {
		s.warn("options in %s have no effect, only the root project file may set them",
			path.Join(dir, domain.ProjectFileName))
	}
	if len(pf.GlobalArgs) > 0 || len(pf.GlobalLinkArgs) > 0 {
		s.warn("global arguments in %s have no effect, only the root project file may set them",
			path.Join(dir, domain.ProjectFileName))
	}
	return dir, &pf, nil
}

func (s *session) enterSubdir(parent, rel, subproject string) error {
	dir, pf, err := s.readChild(parent, rel)
	if err != nil {
		return err
	}
	if pf.Project != "" {
		s.warn("'project' in %s has no effect outside of a subproject", path.Join(dir, domain.ProjectFileName))
	}
	return s.loadFile(dir, subproject, pf)
}

func (s *session) enterSubproject(parent, rel string) error {
	dir, pf, err := s.readChild(parent, rel)
	if err != nil {
		return err
	}
	name := pf.Project
	if name == "" {
		name = path.Base(dir)
	}
	return s.loadFile(dir, name, pf)
}
