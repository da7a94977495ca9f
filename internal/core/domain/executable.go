package domain

import (
	"fmt"
	"strings"
)

// Executable is a program built from sources.
type Executable struct {
	BuildTarget

	PIE           bool
	GUIApp        bool
	ExportDynamic bool
	// ImportFilename is the import library the toolchain generates when the
	// executable exports symbols on Windows.
	ImportFilename    string
	VSImportFilename  string
	GCCImportFilename string
}

// IsLinkable implements Target. Only executables exporting their symbols
// can be linked against, typically by plugins.
func (e *Executable) IsLinkable() bool { return e.ExportDynamic }

// AddExecutable declares an executable.
func (b *Build) AddExecutable(name, subdir, subproject string, machine MachineChoice,
	sources, objects []any, kw Kwargs,
) (*Executable, error) {
	exe := &Executable{}
	tb, err := b.initBuildTarget(&exe.BuildTarget, KindExecutable, name, subdir, subproject, machine,
		sources, objects, kw, exe.processKwargs)
	if err != nil {
		return nil, err
	}
	exe.determineFilenames(tb)
	if err := b.register(exe); err != nil {
		return nil, err
	}
	return exe, nil
}

func (e *Executable) processKwargs(tb *targetBuilder) error {
	opts := &tb.opts
	if opts.GUIApp != nil {
		v, ok := opts.GUIApp.(bool)
		if !ok {
			return invalidArgs(e.Name, "argument gui_app must be boolean")
		}
		e.GUIApp = v
	}

	if tb.machine().IsAndroid() {
		e.PIE = true
	} else {
		pie, err := tb.extractPICPIE("pie", opts.PIE, tb.b.env.Options.BPIE)
		if err != nil {
			return err
		}
		e.PIE = pie
	}

	if opts.ExportDynamic != nil {
		v, ok := opts.ExportDynamic.(bool)
		if !ok {
			return invalidArgs(e.Name, `"export_dynamic" keyword argument must be a boolean`)
		}
		e.ExportDynamic = v
	}
	switch v := opts.Implib.(type) {
	case nil:
	case bool:
		if v {
			e.ExportDynamic = true
		} else if e.ExportDynamic {
			return invalidArgs(e.Name, `"implib" keyword argument must not be false if "export_dynamic" is true`)
		}
	case string:
		if v != "" {
			e.ExportDynamic = true
		}
	default:
		return invalidArgs(e.Name, `"implib" keyword argument must be a boolean or a string`)
	}
	return nil
}

func (e *Executable) determineFilenames(tb *targetBuilder) {
	machine := tb.machine()
	if !e.SuffixSet {
		e.Suffix = e.defaultSuffix(tb, machine)
	}
	e.OutputFilename = e.Prefix + e.Name
	if e.Suffix != "" {
		e.OutputFilename += "." + e.Suffix
	}
	e.OutputNames = []string{e.OutputFilename}

	if e.ExportDynamic && (machine.IsWindows() || machine.IsCygwin()) {
		basename := e.Name + ".exe"
		if implib, ok := tb.opts.Implib.(string); ok && implib != "" {
			basename = implib
		}
		e.VSImportFilename = basename + ".lib"
		e.GCCImportFilename = "lib" + basename + ".a"
		if tb.usingMSVC() {
			e.ImportFilename = e.VSImportFilename
		} else {
			e.ImportFilename = e.GCCImportFilename
		}
	}

	if machine.IsWindows() && (e.HasLanguage(LangCS) || tb.usingRustc() || tb.usingMSVC()) {
		e.DebugFilename = e.Name + ".pdb"
	}
}

func (e *Executable) defaultSuffix(tb *targetBuilder, machine MachineInfo) string {
	if machine.IsWindows() || machine.IsCygwin() || e.HasLanguage(LangCS) {
		return "exe"
	}
	if machine.IsWasm() {
		return "js"
	}
	idHasPrefix := func(prefix string, langs ...string) bool {
		for _, lang := range langs {
			if !e.HasLanguage(lang) {
				continue
			}
			if c, ok := tb.compilers().Get(lang); ok && strings.HasPrefix(c.ID(), prefix) {
				return true
			}
		}
		return false
	}
	switch {
	case idHasPrefix("arm", LangC, LangCPP):
		return "axf"
	case idHasPrefix("ccrx", LangC, LangCPP):
		return "abs"
	case idHasPrefix("xc16", LangC):
		return "elf"
	case idHasPrefix("c2000", LangC, LangCPP):
		return "out"
	}
	return machine.ExeSuffix()
}

func (e *Executable) String() string {
	return fmt.Sprintf("<executable %s: %s>", e.ID(), e.OutputFilename)
}
