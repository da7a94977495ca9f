package config

import (
	"fmt"
	"maps"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/zerr"
)

// refRegex matches "@name" and "@name[index]". Template placeholders such
// as "@INPUT@" end with "@" and never match.
var refRegex = regexp.MustCompile(`^@([A-Za-z0-9_][A-Za-z0-9_.+-]*)(?:\[([0-9]+)\])?$`)

// parseRef splits a reference string. ok is false for plain strings.
func parseRef(s string) (name string, index int, ok bool) {
	m := refRegex.FindStringSubmatch(s)
	if m == nil {
		return "", -1, false
	}
	index = -1
	if m[2] != "" {
		index, _ = strconv.Atoi(m[2])
	}
	return m[1], index, true
}

func (s *session) bind(name string, v any) {
	s.scope[name] = v
}

// lookup resolves a reference against the declared names, then the
// programs of the toolchain.
func (s *session) lookup(name string, index int) (any, error) {
	v, ok := s.scope[name]
	if !ok {
		if _, isProgram := s.tc.Programs[name]; !isProgram {
			return nil, zerr.With(zerr.Wrap(domain.ErrUnknownReference,
				fmt.Sprintf("%q is not declared", "@"+name)), "reference", name)
		}
		v = s.tc.Program(name)
	}
	if index < 0 {
		return v, nil
	}
	ct, ok := v.(*domain.CustomTarget)
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidArguments, "only custom targets can be indexed"),
			"reference", name)
	}
	return ct.Index(index)
}

// resolve replaces references inside v. Lists and maps are walked.
func (s *session) resolve(v any) (any, error) {
	switch val := v.(type) {
	case string:
		name, index, ok := parseRef(val)
		if !ok {
			return val, nil
		}
		return s.lookup(name, index)
	case []any:
		out := make([]any, 0, len(val))
		for _, item := range val {
			r, err := s.resolve(item)
			if err != nil {
				return nil, err
			}
			out = append(out, r)
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for _, k := range slices.Sorted(maps.Keys(val)) {
			r, err := s.resolve(val[k])
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	}
	return v, nil
}

func (s *session) resolveList(items []any) ([]any, error) {
	if len(items) == 0 {
		return nil, nil
	}
	r, err := s.resolve(items)
	if err != nil {
		return nil, err
	}
	return r.([]any), nil
}

func (s *session) resolveKwargs(raw map[string]any) (domain.Kwargs, error) {
	kw := make(domain.Kwargs, len(raw))
	for _, k := range slices.Sorted(maps.Keys(raw)) {
		v, err := s.resolve(raw[k])
		if err != nil {
			return nil, annotate(err, "keyword", k)
		}
		kw[k] = v
	}
	return kw, nil
}

// resolveSources resolves references and expands glob patterns relative
// to subdir. Expanded entries keep their position in the list.
func (s *session) resolveSources(subdir string, items []any) ([]any, error) {
	var out []any
	for _, item := range items {
		str, ok := item.(string)
		if !ok || !isGlob(str) {
			r, err := s.resolve(item)
			if err != nil {
				return nil, err
			}
			out = append(out, r)
			continue
		}
		matches, err := s.glob(subdir, str)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			s.warn("source pattern %q in %s matched no files", str, path.Join(subdir, domain.ProjectFileName))
		}
		for _, m := range matches {
			out = append(out, m)
		}
	}
	return out, nil
}

func isGlob(s string) bool {
	if _, _, ok := parseRef(s); ok {
		return false
	}
	return strings.ContainsAny(s, "*?[{")
}

// glob returns the files matching pattern below subdir, relative to subdir.
// Absolute patterns yield absolute paths.
func (s *session) glob(subdir, pattern string) ([]string, error) {
	if filepath.IsAbs(pattern) {
		matches, err := s.loader.FS.Glob(pattern)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidArguments, "invalid source pattern"), "pattern", pattern)
		}
		return matches, nil
	}
	base := filepath.Join(s.env.SourceDir, filepath.FromSlash(subdir))
	matches, err := s.loader.FS.Glob(filepath.Join(base, filepath.FromSlash(pattern)))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidArguments, "invalid source pattern"), "pattern", pattern)
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		rel, err := filepath.Rel(base, m)
		if err != nil {
			continue
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out, nil
}

// asTarget resolves v to a target, failing with the keyword in metadata.
func asTarget(key string, v any) (domain.Target, error) {
	t, ok := v.(domain.Target)
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidArguments,
			fmt.Sprintf("%s must refer to a target, got %T", key, v)), "keyword", key)
	}
	return t, nil
}
