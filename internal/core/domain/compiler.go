package domain

import (
	"iter"
	"path"
	"slices"
)

// Compiler is the view of a compiler the target model needs.
type Compiler interface {
	// Language returns the language the compiler handles.
	Language() string
	// ID identifies the compiler family, for example gcc, clang or msvc.
	ID() string
	// LinkerID identifies the dynamic linker driven by the compiler.
	LinkerID() string
	// CanCompile reports whether the compiler accepts the given source.
	CanCompile(fname string) bool
	// NeedsStaticLinker reports whether static libraries of this language need an archiver.
	NeedsStaticLinker() bool
	// StdlibOnlyLinkFlags returns the flags that link the language runtime.
	StdlibOnlyLinkFlags() []string
}

// StaticLinker archives objects into a static library.
type StaticLinker interface {
	ID() string
}

// CompilerInfo is a plain description of a compiler. It is what the
// toolchain file produces and what a build snapshot restores.
type CompilerInfo struct {
	Lang          string   `msgpack:"lang" json:"language"`
	CompilerID    string   `msgpack:"id" json:"id"`
	Linker        string   `msgpack:"linker" json:"linker"`
	Suffixes      []string `msgpack:"suffixes" json:"suffixes"`
	StdlibFlags   []string `msgpack:"stdlib_flags" json:"stdlib_flags,omitempty"`
	StaticArchive bool     `msgpack:"static_archive" json:"static_archive"`
	Exelist       []string `msgpack:"exelist" json:"exelist,omitempty"`
}

var _ Compiler = (*CompilerInfo)(nil)

// Language implements Compiler.
func (c *CompilerInfo) Language() string { return c.Lang }

// ID implements Compiler.
func (c *CompilerInfo) ID() string { return c.CompilerID }

// LinkerID implements Compiler.
func (c *CompilerInfo) LinkerID() string { return c.Linker }

// CanCompile implements Compiler.
func (c *CompilerInfo) CanCompile(fname string) bool {
	suffixes := c.Suffixes
	if len(suffixes) == 0 {
		suffixes = CompileSuffixes(c.Lang)
	}
	s := Suffix(path.Base(fname))
	return slices.Contains(suffixes, s)
}

// NeedsStaticLinker implements Compiler.
func (c *CompilerInfo) NeedsStaticLinker() bool { return c.StaticArchive }

// StdlibOnlyLinkFlags implements Compiler.
func (c *CompilerInfo) StdlibOnlyLinkFlags() []string { return slices.Clone(c.StdlibFlags) }

// FreezeCompiler captures a compiler as a CompilerInfo.
func FreezeCompiler(c Compiler) *CompilerInfo {
	if info, ok := c.(*CompilerInfo); ok {
		return info
	}
	return &CompilerInfo{
		Lang:          c.Language(),
		CompilerID:    c.ID(),
		Linker:        c.LinkerID(),
		Suffixes:      CompileSuffixes(c.Language()),
		StdlibFlags:   c.StdlibOnlyLinkFlags(),
		StaticArchive: c.NeedsStaticLinker(),
	}
}

// LinkerInfo is a plain description of a static linker.
type LinkerInfo struct {
	LinkerID string   `msgpack:"id" json:"id"`
	Exelist  []string `msgpack:"exelist" json:"exelist,omitempty"`
}

// ID implements StaticLinker.
func (l *LinkerInfo) ID() string { return l.LinkerID }

// CompilerSet holds the compilers of one machine, ordered by SortCLinkKey.
type CompilerSet struct {
	byLang map[string]Compiler
	order  []string
}

// NewCompilerSet returns a set holding the given compilers.
// A later compiler for the same language replaces an earlier one.
func NewCompilerSet(compilers ...Compiler) *CompilerSet {
	s := &CompilerSet{byLang: make(map[string]Compiler)}
	for _, c := range compilers {
		s.Add(c)
	}
	return s
}

// Add inserts or replaces the compiler for its language.
func (s *CompilerSet) Add(c Compiler) {
	lang := c.Language()
	if _, ok := s.byLang[lang]; !ok {
		s.order = append(s.order, lang)
		SortLanguages(s.order)
	}
	s.byLang[lang] = c
}

// Get returns the compiler for lang.
func (s *CompilerSet) Get(lang string) (Compiler, bool) {
	if s == nil {
		return nil, false
	}
	c, ok := s.byLang[lang]
	return c, ok
}

// Has reports whether a compiler for lang is present.
func (s *CompilerSet) Has(lang string) bool {
	_, ok := s.Get(lang)
	return ok
}

// Languages returns the languages of the set in iteration order.
func (s *CompilerSet) Languages() []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.order)
}

// Len returns the number of compilers in the set.
func (s *CompilerSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// All iterates over the compilers in order.
func (s *CompilerSet) All() iter.Seq2[string, Compiler] {
	return func(yield func(string, Compiler) bool) {
		if s == nil {
			return
		}
		for _, lang := range s.order {
			if !yield(lang, s.byLang[lang]) {
				return
			}
		}
	}
}
