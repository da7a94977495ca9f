package domain

import "fmt"

// StaticLibrary is an archive of objects.
type StaticLibrary struct {
	BuildTarget

	PIC bool
}

// IsLinkable implements Target.
func (s *StaticLibrary) IsLinkable() bool { return true }

// AddStaticLibrary declares a static library.
func (b *Build) AddStaticLibrary(name, subdir, subproject string, machine MachineChoice,
	sources, objects []any, kw Kwargs,
) (*StaticLibrary, error) {
	lib := &StaticLibrary{}
	_, err := b.initBuildTarget(&lib.BuildTarget, KindStaticLibrary, name, subdir, subproject, machine,
		sources, objects, kw, lib.processKwargs)
	if err != nil {
		return nil, err
	}
	if err := lib.determineFilenames(); err != nil {
		return nil, err
	}
	if err := b.register(lib); err != nil {
		return nil, err
	}
	return lib, nil
}

func (s *StaticLibrary) processKwargs(tb *targetBuilder) error {
	// PIC cannot be turned off on macOS and all code is position
	// independent on Windows.
	m := tb.machine()
	if m.IsDarwin() || m.IsWindows() {
		s.PIC = true
		return nil
	}
	pic, err := tb.extractPICPIE("pic", tb.opts.PIC, tb.b.env.Options.BStaticPIC)
	if err != nil {
		return err
	}
	s.PIC = pic
	return nil
}

func (s *StaticLibrary) determineFilenames() error {
	if s.HasLanguage(LangCS) {
		return invalidArgs(s.Name, "static libraries not supported for C#")
	}
	if s.HasLanguage(LangRust) {
		switch s.RustCrateType {
		case "", "lib":
			s.RustCrateType = "rlib"
		case "rlib", "staticlib":
		default:
			return invalidArgs(s.Name, fmt.Sprintf(
				`crate type %q invalid for static libraries; must be "rlib" or "staticlib"`, s.RustCrateType))
		}
	}
	// libfoo.a is used even on Windows, where foo.lib would collide with
	// import libraries.
	if !s.PrefixSet {
		s.Prefix = "lib"
	}
	if !s.SuffixSet {
		s.Suffix = "a"
		if s.HasLanguage(LangRust) && s.RustCrateType == "rlib" {
			s.Suffix = "rlib"
		}
	}
	s.OutputFilename = s.Prefix + s.Name + "." + s.Suffix
	s.OutputNames = []string{s.OutputFilename}
	return nil
}
