package domain

import (
	"fmt"
	"path"
	"slices"
	"strings"
)

// ExtractedObjects selects compiled objects of another target.
type ExtractedObjects struct {
	Target    TargetID
	Sources   []File
	Generated []Ref
	Objects   []Ref
	Recursive bool
}

// ExtractObjects selects the objects built from srclist. Every entry must
// be a source of t.
func (b *Build) ExtractObjects(t Target, srclist ...any) (*ExtractedObjects, error) {
	bt, ok := AsBuildTarget(t)
	if !ok {
		return nil, invalidArgs(t.Base().Name, "objects can only be extracted from build targets")
	}
	if err := b.owns(t); err != nil {
		return nil, err
	}
	eo := &ExtractedObjects{Target: bt.ID()}
	for _, s := range flatten(srclist) {
		var f File
		switch v := s.(type) {
		case string:
			f = SourceFile(bt.Subdir, v)
		case File:
			f = v
		default:
			return nil, invalidArgs(bt.Name, fmt.Sprintf("object extraction arguments must be strings or files, got %T", s))
		}
		if !slices.Contains(bt.Sources, f) {
			return nil, invalidArgs(bt.Name, fmt.Sprintf("tried to extract unknown source %s", f))
		}
		eo.Sources = append(eo.Sources, f)
	}
	if err := b.checkUnityExtraction(bt, eo); err != nil {
		return nil, err
	}
	return eo, nil
}

// ExtractAllObjects selects every object of t.
func (b *Build) ExtractAllObjects(t Target, recursive bool) (*ExtractedObjects, error) {
	bt, ok := AsBuildTarget(t)
	if !ok {
		return nil, invalidArgs(t.Base().Name, "objects can only be extracted from build targets")
	}
	if err := b.owns(t); err != nil {
		return nil, err
	}
	return extractAll(bt, recursive), nil
}

func extractAll(bt *BuildTarget, recursive bool) *ExtractedObjects {
	return &ExtractedObjects{
		Target:    bt.ID(),
		Sources:   slices.Clone(bt.Sources),
		Generated: slices.Clone(bt.Generated),
		Objects:   slices.Clone(bt.Objects),
		Recursive: recursive,
	}
}

// extractAllObjectsRecurse returns the objects of st and of every internal
// static library it links with.
func (b *Build) extractAllObjectsRecurse(st *StaticLibrary) []*ExtractedObjects {
	objs := []*ExtractedObjects{extractAll(&st.BuildTarget, true)}
	for _, ref := range st.LinkTargets {
		t, ok := b.Resolve(ref)
		if !ok {
			continue
		}
		if peer, ok := t.(*StaticLibrary); ok && peer.IsInternal() {
			objs = append(objs, b.extractAllObjectsRecurse(peer)...)
		}
	}
	return objs
}

// checkUnityExtraction rejects partial extraction of a language bucket of
// a unity target.
func (b *Build) checkUnityExtraction(bt *BuildTarget, eo *ExtractedObjects) error {
	if !bt.IsUnity {
		return nil
	}
	all := b.classifySources(bt, bt.Sources, bt.Generated)
	extracted := b.classifySources(bt, eo.Sources, eo.Generated)
	for lang, srcs := range extracted {
		if !sameSet(srcs, all[lang]) {
			return targetError(ErrUnityExtraction, bt.Name,
				"single object files cannot be extracted in unity builds; "+
					"you can only extract all the object files for each compiler at once")
		}
	}
	return nil
}

// classifySources groups sources by the language that compiles them.
func (b *Build) classifySources(bt *BuildTarget, sources []File, generated []Ref) map[string][]string {
	compilers := b.env.CompilersFor(bt.ForMachine)
	names := make([]string, 0, len(sources))
	for _, f := range sources {
		names = append(names, f.RelativeName())
	}
	for _, g := range generated {
		names = append(names, b.RefOutputs(g)...)
	}
	out := make(map[string][]string)
	for _, n := range names {
		for _, lang := range bt.Compilers {
			c, ok := compilers.Get(lang)
			if ok && c.CanCompile(n) {
				out[lang] = append(out[lang], n)
				break
			}
		}
	}
	return out
}

func sameSet(a, b []string) bool {
	a, b = slices.Clone(a), slices.Clone(b)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(slices.Compact(a), slices.Compact(b))
}

// ObjectOutputs returns the object file names eo stands for, relative to
// the build root.
func (b *Build) ObjectOutputs(eo *ExtractedObjects) []string {
	if eo == nil {
		return nil
	}
	privdir := string(eo.Target) + ".p"
	if t, ok := b.Lookup(eo.Target); ok && t.Base().Subdir != "" {
		privdir = path.Join(t.Base().Subdir, privdir)
	}
	var out []string
	for _, f := range eo.Sources {
		if IsSource(f.Fname) && !IsHeader(f.Fname) {
			out = append(out, objectName(privdir, f.RelativeName()))
		}
	}
	for _, g := range eo.Generated {
		for _, o := range b.RefOutputs(g) {
			if IsSource(o) && !IsHeader(o) {
				out = append(out, objectName(privdir, o))
			}
		}
	}
	if eo.Recursive {
		for _, o := range eo.Objects {
			switch o.Kind {
			case RefFile:
				out = append(out, o.File.RelativeName())
			case RefExtractedObjects:
				out = append(out, b.ObjectOutputs(o.Objects)...)
			}
		}
	}
	return out
}

func objectName(privdir, source string) string {
	flat := strings.NewReplacer("/", "_", `\`, "_").Replace(source)
	return path.Join(privdir, flat+".o")
}
