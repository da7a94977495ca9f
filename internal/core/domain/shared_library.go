package domain

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"go.trai.ch/zerr"
)

var versionRe = regexp.MustCompile(`^[0-9]+(\.[0-9]+){0,2}$`)

// Filename template placeholders.
const (
	tplBasic          = "{prefix}{name}.{suffix}"
	tplWindowsVersion = "{prefix}{name}-{soversion}.{suffix}"
	tplDarwinVersion  = "{prefix}{name}.{soversion}.{suffix}"
	tplLTVersion      = "{prefix}{name}.{suffix}.{ltversion}"
	tplSOVersion      = "{prefix}{name}.{suffix}.{soversion}"
)

// SharedLibrary is a dynamically linked library.
type SharedLibrary struct {
	BuildTarget

	LTVersion string
	SOVersion string
	// DarwinVersions holds the compatibility and current version of a dylib.
	DarwinVersions    []string
	VSModuleDefs      *File
	ImportFilename    string
	VSImportFilename  string
	GCCImportFilename string
	FilenameTemplate  string
}

// SharedModule is a shared object loaded at runtime rather than linked.
type SharedModule struct {
	SharedLibrary
}

// IsLinkable implements Target.
func (s *SharedLibrary) IsLinkable() bool { return true }

// AddSharedLibrary declares a shared library.
func (b *Build) AddSharedLibrary(name, subdir, subproject string, machine MachineChoice,
	sources, objects []any, kw Kwargs,
) (*SharedLibrary, error) {
	lib := &SharedLibrary{}
	if err := b.initShared(lib, KindSharedLibrary, name, subdir, subproject, machine, sources, objects, kw); err != nil {
		return nil, err
	}
	if err := b.register(lib); err != nil {
		return nil, err
	}
	return lib, nil
}

// AddSharedModule declares a shared module. Modules carry no version.
func (b *Build) AddSharedModule(name, subdir, subproject string, machine MachineChoice,
	sources, objects []any, kw Kwargs,
) (*SharedModule, error) {
	for _, key := range []string{"version", "soversion"} {
		if kw.Has(key) {
			return nil, invalidArgs(name, fmt.Sprintf("shared modules must not specify the %s kwarg", key))
		}
	}
	mod := &SharedModule{}
	if err := b.initShared(&mod.SharedLibrary, KindSharedModule, name, subdir, subproject, machine, sources, objects, kw); err != nil {
		return nil, err
	}
	if err := b.register(mod); err != nil {
		return nil, err
	}
	return mod, nil
}

func (b *Build) initShared(lib *SharedLibrary, kind TargetKind, name, subdir, subproject string,
	machine MachineChoice, sources, objects []any, kw Kwargs,
) error {
	tb, err := b.initBuildTarget(&lib.BuildTarget, kind, name, subdir, subproject, machine,
		sources, objects, kw, lib.processKwargs)
	if err != nil {
		return err
	}
	if lib.HasLanguage(LangRust) {
		switch lib.RustCrateType {
		case "", "lib":
			lib.RustCrateType = "dylib"
		case "dylib", "cdylib", "proc-macro":
		default:
			return invalidArgs(name, fmt.Sprintf(
				`crate type %q invalid for dynamic libraries; must be "dylib", "cdylib", or "proc-macro"`, lib.RustCrateType))
		}
	}
	lib.determineFilenames(tb)
	return nil
}

func (s *SharedLibrary) processKwargs(tb *targetBuilder) error {
	opts := &tb.opts
	if !tb.machine().IsAndroid() {
		if tb.kw.Has("version") {
			v, ok := opts.Version.(string)
			if !ok {
				return invalidArgs(s.Name, fmt.Sprintf("shared library version needs to be a string, not %T", opts.Version))
			}
			if !versionRe.MatchString(v) {
				return invalidArgs(s.Name, fmt.Sprintf(
					"invalid shared library version %q; must be of the form X.Y.Z where all three are numbers, Y and Z are optional", v))
			}
			s.LTVersion = v
		}
		if tb.kw.Has("soversion") {
			switch v := opts.Soversion.(type) {
			case int:
				s.SOVersion = strconv.Itoa(v)
			case string:
				s.SOVersion = v
			default:
				return invalidArgs(s.Name, "shared library soversion is not a string or integer")
			}
		} else if s.LTVersion != "" {
			s.SOVersion, _, _ = strings.Cut(s.LTVersion, ".")
		}
		if tb.kw.Has("darwin_versions") {
			versions, err := ValidateDarwinVersions(opts.DarwinVersions)
			if err != nil {
				return zerr.With(err, "target", s.Name)
			}
			s.DarwinVersions = versions
		} else if s.SOVersion != "" {
			s.DarwinVersions = []string{s.SOVersion, s.SOVersion}
		}
	}

	if tb.kw.Has("vs_module_defs") {
		var f File
		switch v := opts.VSModuleDefs.(type) {
		case string:
			if filepath.IsAbs(v) {
				f = AbsoluteFile(v)
			} else {
				var err error
				if f, err = tb.sourceFile(v); err != nil {
					return err
				}
			}
		case File:
			f = v
		case *CustomTarget, *CustomTargetIndex:
			t := v.(Target)
			f = BuiltFile(t.Base().Subdir, t.Filename())
		default:
			return invalidArgs(s.Name, "shared library vs_module_defs must be either a string, a file object or a custom target")
		}
		s.VSModuleDefs = &f
		s.LinkDepends = append(s.LinkDepends, f)
	}
	return nil
}

// ValidateDarwinVersions normalizes darwin_versions to a compatibility and
// a current version.
func ValidateDarwinVersions(v any) ([]string, error) {
	bad := func(msg string) error {
		return zerr.Wrap(ErrInvalidArguments, "shared library darwin_versions: "+msg)
	}
	var items []any
	switch val := v.(type) {
	case int:
		items = []any{strconv.Itoa(val), strconv.Itoa(val)}
	case string:
		items = []any{val, val}
	case []any:
		items = val
	case []string:
		for _, s := range val {
			items = append(items, s)
		}
	default:
		return nil, bad(fmt.Sprintf("must be a string, integer, or a list, not %v", v))
	}
	if len(items) > 2 {
		return nil, bad("list must contain 2 or fewer elements")
	}
	if len(items) == 1 {
		items = []any{items[0], items[0]}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		switch iv := item.(type) {
		case int:
			s = strconv.Itoa(iv)
		case string:
			s = iv
		default:
			return nil, bad(fmt.Sprintf("list elements must be strings or integers, not %v", item))
		}
		if !versionRe.MatchString(s) {
			return nil, bad("must be X.Y.Z where X, Y, Z are numbers, and Y and Z are optional")
		}
		parts := strings.Split(s, ".")
		nums := make([]int, len(parts))
		for i, p := range parts {
			n, err := strconv.Atoi(p)
			if err != nil {
				return nil, bad("value is invalid")
			}
			nums[i] = n
		}
		if nums[0] > 65535 {
			return nil, bad("must be X.Y.Z where X is [0, 65535] and Y, Z are optional")
		}
		if len(nums) >= 2 && nums[1] > 255 {
			return nil, bad("must be X.Y.Z where Y is [0, 255] and Y, Z are optional")
		}
		if len(nums) == 3 && nums[2] > 255 {
			return nil, bad("must be X.Y.Z where Z is [0, 255] and Y, Z are optional")
		}
		out = append(out, s)
	}
	return out, nil
}

// determineFilenames picks the file name, import library and debug file
// of the library for the platform of its machine.
func (s *SharedLibrary) determineFilenames(tb *targetBuilder) {
	machine := tb.machine()
	var prefix, suffix string
	debugFile := false
	s.FilenameTemplate = tplBasic

	userPrefix := func(def string) string {
		if s.PrefixSet {
			return s.Prefix
		}
		return def
	}

	switch {
	case s.HasLanguage(LangCS):
		suffix = "dll"
		debugFile = true
	case machine.IsWindows():
		suffix = "dll"
		s.VSImportFilename = userPrefix("") + s.Name + ".lib"
		s.GCCImportFilename = userPrefix("lib") + s.Name + ".dll.a"
		switch {
		case tb.usingRustc():
			s.ImportFilename = s.Name + ".dll.lib"
			debugFile = true
		case tb.usingMSVC():
			s.ImportFilename = s.VSImportFilename
			debugFile = true
		default:
			prefix = "lib"
			s.ImportFilename = s.GCCImportFilename
		}
		if s.SOVersion != "" {
			s.FilenameTemplate = tplWindowsVersion
		}
	case machine.IsCygwin():
		suffix = "dll"
		s.GCCImportFilename = userPrefix("lib") + s.Name + ".dll.a"
		prefix = "cyg"
		s.ImportFilename = s.GCCImportFilename
		if s.SOVersion != "" {
			s.FilenameTemplate = tplWindowsVersion
		}
	case machine.IsDarwin():
		prefix, suffix = "lib", "dylib"
		if s.SOVersion != "" {
			s.FilenameTemplate = tplDarwinVersion
		}
	case machine.IsAndroid():
		prefix, suffix = "lib", "so"
	default:
		prefix, suffix = "lib", "so"
		switch {
		case s.LTVersion != "":
			s.FilenameTemplate = tplLTVersion
		case s.SOVersion != "":
			s.FilenameTemplate = tplSOVersion
		}
	}

	if !s.PrefixSet {
		s.Prefix = prefix
	}
	if !s.SuffixSet {
		s.Suffix = suffix
	}
	s.OutputFilename = s.render(s.FilenameTemplate)
	s.OutputNames = []string{s.OutputFilename}
	if debugFile {
		s.DebugFilename = strings.TrimSuffix(s.OutputFilename, filepath.Ext(s.OutputFilename)) + ".pdb"
	}
}

func (s *SharedLibrary) render(tpl string) string {
	return strings.NewReplacer(
		"{prefix}", s.Prefix,
		"{name}", s.Name,
		"{suffix}", s.Suffix,
		"{soversion}", s.SOVersion,
		"{ltversion}", s.LTVersion,
	).Replace(tpl)
}

// Aliases implements Target. A versioned libfoo.so.0.100.0 gets the aliases
// libfoo.so.0 pointing to it and libfoo.so pointing to libfoo.so.0.
func (s *SharedLibrary) Aliases() map[string]string {
	if (s.Suffix != "so" && s.Suffix != "dylib") || s.SOVersion == "" {
		return map[string]string{}
	}
	aliases := make(map[string]string)
	target := s.OutputFilename
	if s.Suffix == "so" && s.LTVersion != "" && s.LTVersion != s.SOVersion {
		target = s.render(strings.ReplaceAll(s.FilenameTemplate, "{ltversion}", "{soversion}"))
		aliases[target] = s.OutputFilename
	}
	aliases[s.render(tplBasic)] = target
	return aliases
}

// MacOSInstallName returns the install name a dylib records for itself.
func (s *SharedLibrary) MacOSInstallName() string {
	name := "@rpath/" + s.Prefix + s.Name
	if s.SOVersion != "" {
		name += "." + s.SOVersion
	}
	return name + ".dylib"
}
