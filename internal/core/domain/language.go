package domain

import (
	"path"
	"slices"
	"strings"
)

// Languages known to the build.
const (
	LangC       = "c"
	LangCPP     = "cpp"
	LangCUDA    = "cuda"
	LangFortran = "fortran"
	LangD       = "d"
	LangObjC    = "objc"
	LangObjCPP  = "objcpp"
	LangRust    = "rust"
	LangVala    = "vala"
	LangCS      = "cs"
	LangSwift   = "swift"
	LangJava    = "java"
)

var langSuffixes = map[string][]string{
	LangC:       {"c"},
	LangCPP:     {"cpp", "cc", "cxx", "c++", "hh", "hpp", "ipp", "hxx"},
	LangCUDA:    {"cu"},
	LangFortran: {"f90", "f95", "f03", "f08", "f", "for", "ftn", "fpp"},
	LangD:       {"d", "di"},
	LangObjC:    {"m"},
	LangObjCPP:  {"mm"},
	LangRust:    {"rs"},
	LangVala:    {"vala", "vapi", "gs"},
	LangCS:      {"cs"},
	LangSwift:   {"swift"},
	LangJava:    {"java"},
}

// AllLanguages lists every known language in a fixed order.
var AllLanguages = []string{
	LangD, LangCUDA, LangObjCPP, LangCPP, LangObjC, LangC, LangFortran,
	LangRust, LangVala, LangCS, LangSwift, LangJava,
}

// Languages whose objects can be linked by a C-style linker, in linker
// preference order.
var (
	clibLangs  = []string{LangObjCPP, LangCPP, LangObjC, LangC, LangFortran}
	clinkLangs = append([]string{LangD, LangCUDA}, clibLangs...)
)

var (
	headerSuffixes = set("h", "hh", "hpp", "hxx", "H", "ipp", "moc", "vapi", "di")
	objSuffixes    = set("o", "obj", "res")
	libSuffixes    = set("a", "lib", "dll", "dll.a", "dylib", "so")
	clinkSuffixes  = buildClinkSuffixes()
	allSuffixes    = buildAllSuffixes()
)

func set(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, i := range items {
		m[i] = struct{}{}
	}
	return m
}

func buildClinkSuffixes() map[string]struct{} {
	m := set("h", "ll", "s")
	for _, l := range append(slices.Clone(clinkLangs), LangVala) {
		for _, s := range langSuffixes[l] {
			m[s] = struct{}{}
		}
	}
	return m
}

func buildAllSuffixes() map[string]struct{} {
	m := make(map[string]struct{})
	for _, suffixes := range langSuffixes {
		for _, s := range suffixes {
			m[s] = struct{}{}
		}
	}
	for _, extra := range []map[string]struct{}{headerSuffixes, objSuffixes, libSuffixes, clinkSuffixes} {
		for s := range extra {
			m[s] = struct{}{}
		}
	}
	return m
}

// IsCLinkLanguage reports whether objects of lang can be linked by a C linker.
func IsCLinkLanguage(lang string) bool {
	return slices.Contains(clinkLangs, lang)
}

// CLinkLanguages returns the C-linkable languages in linker preference order.
func CLinkLanguages() []string {
	return slices.Clone(clinkLangs)
}

// SortCLinkKey orders languages in reverse linker preference, so C comes
// before C++ for sources both can compile. Languages that cannot be linked
// by a C linker sort last.
func SortCLinkKey(lang string) int {
	i := slices.Index(clinkLangs, lang)
	if i < 0 {
		return 1
	}
	return -i
}

// SortLanguages sorts languages by SortCLinkKey, keeping the relative order
// of languages with equal keys.
func SortLanguages(langs []string) {
	slices.SortStableFunc(langs, func(a, b string) int {
		return SortCLinkKey(a) - SortCLinkKey(b)
	})
}

// LanguageSuffixes returns the source suffixes of a language.
func LanguageSuffixes(lang string) []string {
	return slices.Clone(langSuffixes[lang])
}

// CompileSuffixes returns the suffixes a compiler for lang accepts by default.
// C-family compilers also take headers, and the C compiler takes assembly.
func CompileSuffixes(lang string) []string {
	suffixes := LanguageSuffixes(lang)
	switch lang {
	case LangC:
		suffixes = append(suffixes, "h", "s", "S")
	case LangCPP, LangObjC, LangObjCPP:
		suffixes = append(suffixes, "h")
	}
	return suffixes
}

// Suffix returns the file extension of fname without the dot.
func Suffix(fname string) string {
	ext := path.Ext(strings.ReplaceAll(fname, "\\", "/"))
	return strings.TrimPrefix(ext, ".")
}

// IsHeader reports whether fname is a header file.
func IsHeader(fname string) bool {
	_, ok := headerSuffixes[Suffix(fname)]
	return ok
}

// IsSource reports whether fname is a source file of a C-linkable language.
func IsSource(fname string) bool {
	_, ok := clinkSuffixes[strings.ToLower(Suffix(fname))]
	return ok
}

// IsAssembly reports whether fname is an assembly file.
func IsAssembly(fname string) bool {
	s := Suffix(fname)
	return s == "s" || s == "S"
}

// IsObject reports whether fname is an object file.
func IsObject(fname string) bool {
	_, ok := objSuffixes[Suffix(fname)]
	return ok
}

// IsLibrary reports whether fname is a library.
func IsLibrary(fname string) bool {
	if strings.HasSuffix(fname, ".dll.a") {
		return true
	}
	_, ok := libSuffixes[Suffix(fname)]
	return ok
}

// IsKnownSuffix reports whether fname has a suffix some language or tool knows.
func IsKnownSuffix(fname string) bool {
	_, ok := allSuffixes[Suffix(fname)]
	return ok
}
