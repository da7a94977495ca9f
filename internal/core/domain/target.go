package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// TargetID uniquely identifies a target within a build.
type TargetID string

func (id TargetID) String() string { return string(id) }

// TargetKind is the closed set of target variants.
type TargetKind uint8

const (
	KindExecutable TargetKind = iota + 1
	KindStaticLibrary
	KindSharedLibrary
	KindSharedModule
	KindJar
	KindCustom
	KindRun
	KindAlias
)

// TypeName returns the human readable name of the kind.
func (k TargetKind) TypeName() string {
	switch k {
	case KindExecutable:
		return "executable"
	case KindStaticLibrary:
		return "static library"
	case KindSharedLibrary:
		return "shared library"
	case KindSharedModule:
		return "shared module"
	case KindJar:
		return "jar"
	case KindCustom:
		return "custom"
	case KindRun:
		return "run"
	case KindAlias:
		return "alias"
	}
	return "unknown"
}

func (k TargetKind) String() string { return k.TypeName() }

// TypeSuffix returns the suffix appended to target ids of this kind.
func (k TargetKind) TypeSuffix() string {
	switch k {
	case KindExecutable:
		return "@exe"
	case KindStaticLibrary:
		return "@sta"
	case KindSharedLibrary, KindSharedModule:
		return "@sha"
	case KindJar:
		return "@jar"
	case KindCustom:
		return "@cus"
	default:
		return "@run"
	}
}

// IsBuildTarget reports whether the kind is compiled and linked from sources.
func (k TargetKind) IsBuildTarget() bool {
	return k >= KindExecutable && k <= KindJar
}

// IsShared reports whether the kind produces a shared object.
func (k TargetKind) IsShared() bool {
	return k == KindSharedLibrary || k == KindSharedModule
}

// Target is any node of the build graph. The set of implementations is
// closed: Executable, StaticLibrary, SharedLibrary, SharedModule, Jar,
// CustomTarget, CustomTargetIndex, RunTarget and AliasTarget.
type Target interface {
	// ID returns the unique id of the target.
	ID() TargetID
	// Base returns the fields every target shares.
	Base() *TargetBase
	// Kind returns the variant of the target.
	Kind() TargetKind
	// Outputs returns the names of the files the target produces.
	Outputs() []string
	// Filename returns the primary output.
	Filename() string
	// IsLinkable reports whether other targets may link against this one.
	IsLinkable() bool
	// Aliases maps symlink names to the file they point to.
	Aliases() map[string]string

	isTarget()
}

// TargetBase holds the fields shared by every target.
type TargetBase struct {
	Name           string
	Subdir         string
	Subproject     string
	ForMachine     MachineChoice
	BuildByDefault bool
	Type           TargetKind
	// OptionOverrides holds per-target option overrides that are not
	// specific to one language.
	OptionOverrides map[string]string
	// CompilerOptionOverrides holds overrides keyed by language, then option.
	CompilerOptionOverrides map[string]map[string]string
}

func newTargetBase(kind TargetKind, name, subdir, subproject string, machine MachineChoice, buildByDefault bool) (TargetBase, error) {
	if name == "" {
		return TargetBase{}, invalidArgs(name, "target name must not be empty")
	}
	if strings.ContainsAny(name, `/\`) {
		return TargetBase{}, invalidArgs(name, fmt.Sprintf("target %q has a path separator in its name", name))
	}
	return TargetBase{
		Name:           name,
		Subdir:         subdir,
		Subproject:     subproject,
		ForMachine:     machine,
		BuildByDefault: buildByDefault,
		Type:           kind,
	}, nil
}

// ID implements Target.
func (t *TargetBase) ID() TargetID {
	return ConstructID(t.Subdir, t.Name, t.Type.TypeSuffix())
}

// Base implements Target.
func (t *TargetBase) Base() *TargetBase { return t }

// Kind implements Target.
func (t *TargetBase) Kind() TargetKind { return t.Type }

// Aliases implements Target.
func (t *TargetBase) Aliases() map[string]string { return nil }

func (t *TargetBase) isTarget() {}

// Path returns the location of the target relative to the source root.
func (t *TargetBase) Path() string {
	if t.Subdir == "" {
		return t.Name
	}
	return t.Subdir + "/" + t.Name
}

func (t *TargetBase) String() string {
	return fmt.Sprintf("<%s %s: %s>", t.Type.TypeName(), t.ID(), t.Name)
}

// ConstructID builds the id of a target. Targets in a subdirectory are
// prefixed with a short hash of the subdirectory so ids stay valid file names.
func ConstructID(subdir, name, typeSuffix string) TargetID {
	namePart := strings.NewReplacer("/", "@", `\`, "@").Replace(name)
	id := namePart + typeSuffix
	if subdir == "" {
		return TargetID(id)
	}
	sum := sha256.Sum256([]byte(subdir))
	return TargetID(hex.EncodeToString(sum[:])[:7] + "@@" + id)
}

// ParseOverrides parses "key=value" entries. Keys and values are trimmed and
// a later entry for the same key wins.
func ParseOverrides(entries []string) (map[string]string, error) {
	result := make(map[string]string, len(entries))
	for _, o := range entries {
		k, v, ok := strings.Cut(o, "=")
		if !ok {
			return nil, zerr.With(zerr.Wrap(ErrInvalidArguments, `overrides must be of form "key=value"`), "override", o)
		}
		result[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return result, nil
}

// baseOptions are the keyword arguments every target accepts.
type baseOptions struct {
	BuildByDefault  any      `mapstructure:"build_by_default"`
	Install         any      `mapstructure:"install"`
	OverrideOptions []string `mapstructure:"override_options"`
}

// processBaseOptions applies build_by_default, install and override_options.
func (t *TargetBase) processBaseOptions(opts baseOptions) error {
	if opts.BuildByDefault != nil {
		v, ok := opts.BuildByDefault.(bool)
		if !ok {
			return invalidArgs(t.Name, "build_by_default must be a boolean value")
		}
		t.BuildByDefault = v
	} else if install, _ := opts.Install.(bool); install {
		t.BuildByDefault = true
	}

	overrides, err := ParseOverrides(opts.OverrideOptions)
	if err != nil {
		return zerr.With(err, "target", t.Name)
	}
	t.OptionOverrides = make(map[string]string)
	t.CompilerOptionOverrides = make(map[string]map[string]string)
	for k, v := range overrides {
		if lang, opt, ok := strings.Cut(k, "_"); ok && slices.Contains(AllLanguages, lang) {
			if t.CompilerOptionOverrides[lang] == nil {
				t.CompilerOptionOverrides[lang] = make(map[string]string)
			}
			t.CompilerOptionOverrides[lang][opt] = v
			continue
		}
		t.OptionOverrides[k] = v
	}
	return nil
}

// SortTargets orders targets by id.
func SortTargets(targets []Target) {
	slices.SortFunc(targets, func(a, b Target) int {
		return strings.Compare(string(a.ID()), string(b.ID()))
	})
}
