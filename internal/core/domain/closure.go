package domain

import (
	"fmt"
	"maps"
	"path"
	"slices"
	"strings"

	cache "github.com/Code-Hex/go-generics-cache"
	"github.com/Code-Hex/go-generics-cache/policy/lru"
)

const memoCapacity = 4096

// closureMemo caches link closures. It is dropped wholesale whenever a
// target is registered.
type closureMemo struct {
	linkDeps *cache.Cache[TargetID, []TargetID]
	subdirs  *cache.Cache[TargetID, []string]
}

func newClosureMemo() *closureMemo {
	return &closureMemo{
		linkDeps: cache.New(cache.AsLRU[TargetID, []TargetID](lru.WithCapacity(memoCapacity))),
		subdirs:  cache.New(cache.AsLRU[TargetID, []string](lru.WithCapacity(memoCapacity))),
	}
}

func (m *closureMemo) reset() {
	*m = *newClosureMemo()
}

// msvcLikeIDs are the linker ids that take MSVC style arguments.
var msvcLikeIDs = []string{"msvc", "clang-cl", "intel-cl", "llvm", "dmd", "nvcc"}

// linkTargets resolves the link_with peers of t.
func (b *Build) linkTargets(t Target) []Target {
	bt, ok := AsBuildTarget(t)
	if !ok {
		return nil
	}
	return b.resolveAll(bt.LinkTargets)
}

func (b *Build) resolveAll(refs []Ref) []Target {
	out := make([]Target, 0, len(refs))
	for _, r := range refs {
		if t, ok := b.Resolve(r); ok {
			out = append(out, t)
		}
	}
	return out
}

// TransitiveLinkDeps returns every shared object t needs at link time,
// following link_with edges.
func (b *Build) TransitiveLinkDeps(t Target) []Target {
	return b.resolveIDs(b.transitiveLinkDeps(t))
}

func (b *Build) transitiveLinkDeps(t Target) []TargetID {
	id := t.ID()
	if _, isIndex := t.(*CustomTargetIndex); !isIndex {
		if v, ok := b.memo.linkDeps.Get(id); ok {
			return v
		}
	}
	var result []TargetID
	for _, peer := range b.linkTargets(t) {
		result = appendUnique(result, b.allLinkDeps(peer)...)
	}
	if _, isIndex := t.(*CustomTargetIndex); !isIndex {
		b.memo.linkDeps.Set(id, result)
	}
	return result
}

// allLinkDeps returns t itself when it is a shared object, followed by its
// transitive link dependencies.
func (b *Build) allLinkDeps(t Target) []TargetID {
	switch t.Kind() {
	case KindCustom:
		return nil
	case KindSharedLibrary, KindSharedModule:
		return appendUnique([]TargetID{t.ID()}, b.transitiveLinkDeps(t)...)
	}
	return b.transitiveLinkDeps(t)
}

func (b *Build) resolveIDs(ids []TargetID) []Target {
	out := make([]Target, 0, len(ids))
	for _, id := range ids {
		if t, ok := b.Lookup(id); ok {
			out = append(out, t)
		}
	}
	return out
}

// LinkDepsMapping maps the install names recorded in t's link dependencies
// to their installed location below prefix. Entries found first win.
func (b *Build) LinkDepsMapping(t Target, prefix string) map[string]string {
	switch v := t.(type) {
	case *SharedLibrary:
		return b.sharedLinkDepsMapping(v, prefix)
	case *SharedModule:
		return b.sharedLinkDepsMapping(&v.SharedLibrary, prefix)
	}
	return b.transitiveLinkDepsMapping(t, prefix)
}

func (b *Build) transitiveLinkDepsMapping(t Target, prefix string) map[string]string {
	result := make(map[string]string)
	for _, peer := range b.linkTargets(t) {
		mapping := b.LinkDepsMapping(peer, prefix)
		maps.Copy(mapping, result)
		result = mapping
	}
	return result
}

func (b *Build) sharedLinkDepsMapping(s *SharedLibrary, prefix string) map[string]string {
	mapping := b.transitiveLinkDepsMapping(s, prefix)
	old := s.MacOSInstallName()
	if _, ok := mapping[old]; !ok {
		var dir string
		if dirs, _ := b.InstallDirs(s); len(dirs) > 0 {
			dir = dirs[0].Path
		}
		mapping[old] = path.Join(prefix, dir, s.Filename())
	}
	return mapping
}

// LinkDepSubdirs returns the build subdirectories holding the shared
// objects t links with.
func (b *Build) LinkDepSubdirs(t Target) []string {
	if v, ok := b.memo.subdirs.Get(t.ID()); ok {
		return slices.Clone(v)
	}
	var result []string
	for _, peer := range b.linkTargets(t) {
		if peer.Kind() != KindStaticLibrary {
			result = appendUnique(result, peer.Base().Subdir)
		}
		result = appendUnique(result, b.LinkDepSubdirs(peer)...)
	}
	b.memo.subdirs.Set(t.ID(), result)
	return slices.Clone(result)
}

// Dependencies returns the link peers of t, following static libraries
// into their own peers. Shared modules are skipped.
func (b *Build) Dependencies(t Target) []Target {
	var result []Target
	seen := make(map[TargetID]bool)
	b.dependenciesRecurse(t, seen, &result)
	return result
}

func (b *Build) dependenciesRecurse(t Target, seen map[TargetID]bool, result *[]Target) {
	bt, ok := AsBuildTarget(t)
	if !ok {
		return
	}
	for _, peer := range b.resolveAll(slices.Concat(bt.LinkTargets, bt.LinkWholeTargets)) {
		id := peer.ID()
		if seen[id] || peer.Kind() == KindSharedModule {
			continue
		}
		seen[id] = true
		*result = append(*result, peer)
		if peer.Kind() == KindStaticLibrary {
			b.dependenciesRecurse(peer, seen, result)
		}
	}
}

// LangsUsedByDeps returns the languages of external dependencies and of
// the build targets bt links with.
func (b *Build) LangsUsedByDeps(bt *BuildTarget) []string {
	var langs []string
	for _, dep := range bt.ExternalDeps {
		if dep.Language != "" {
			langs = appendUnique(langs, dep.Language)
		}
	}
	for _, peer := range b.resolveAll(slices.Concat(bt.LinkTargets, bt.LinkWholeTargets)) {
		if pbt, ok := AsBuildTarget(peer); ok {
			langs = appendUnique(langs, pbt.Compilers...)
		}
	}
	return langs
}

// DynamicLinker returns the compiler that drives the final link of bt and
// the standard library flags of every other language involved.
func (b *Build) DynamicLinker(bt *BuildTarget) (Compiler, []string, error) {
	all := b.env.CompilersFor(bt.ForMachine)
	if bt.LinkLanguage != "" {
		c, ok := all.Get(bt.LinkLanguage)
		if !ok {
			return nil, nil, targetError(ErrNoLinker, bt.Name,
				fmt.Sprintf("could not get a dynamic linker for build target %q", bt.Name))
		}
		return c, nil, nil
	}
	depLangs := b.LangsUsedByDeps(bt)
	for _, lang := range clinkLangs {
		if !bt.HasLanguage(lang) && !slices.Contains(depLangs, lang) {
			continue
		}
		linker, ok := all.Get(lang)
		if !ok {
			return nil, nil, targetError(ErrNoLinker, bt.Name, fmt.Sprintf(
				"could not get a dynamic linker for build target %q; requires a linker for language %q, but that is not a project language",
				bt.Name, lang))
		}
		var stdlib []string
		var added []string
		for _, dl := range slices.Concat(bt.Compilers, depLangs) {
			if dl == lang || slices.Contains(added, dl) {
				continue
			}
			added = append(added, dl)
			if c, ok := all.Get(dl); ok {
				stdlib = append(stdlib, c.StdlibOnlyLinkFlags()...)
			}
		}
		return linker, stdlib, nil
	}
	return nil, nil, targetError(ErrNoLinker, bt.Name,
		fmt.Sprintf("could not get a dynamic linker for build target %q", bt.Name))
}

// UsingMSVC reports whether bt is linked by an MSVC style linker.
func (b *Build) UsingMSVC(bt *BuildTarget) bool {
	linker, _, err := b.DynamicLinker(bt)
	if err != nil {
		return false
	}
	return slices.Contains(msvcLikeIDs, linker.ID())
}

// UsingRustc reports whether bt is a Rust crate.
func (b *Build) UsingRustc(bt *BuildTarget) bool {
	return len(bt.Sources) > 0 && strings.HasSuffix(bt.Sources[0].Fname, ".rs")
}
