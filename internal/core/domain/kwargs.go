package domain

import (
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/go-viper/mapstructure/v2"
)

// Kwargs are the keyword arguments of a target declaration.
type Kwargs map[string]any

// Has reports whether key was given.
func (k Kwargs) Has(key string) bool {
	_, ok := k[key]
	return ok
}

// only returns the subset of k whose keys are in known.
func (k Kwargs) only(known map[string]struct{}) Kwargs {
	out := make(Kwargs, len(k))
	for key, v := range k {
		if _, ok := known[key]; ok {
			out[key] = v
		}
	}
	return out
}

// unknown returns the sorted keys of k that are not in known.
func (k Kwargs) unknown(known map[string]struct{}) []string {
	var out []string
	for key := range k {
		if _, ok := known[key]; !ok {
			out = append(out, key)
		}
	}
	slices.Sort(out)
	return out
}

var buildTargetKwargs = set(
	"build_by_default", "build_rpath", "dependencies", "extra_files", "gui_app",
	"link_with", "link_whole", "link_args", "link_depends", "implicit_include_directories",
	"include_directories", "install", "install_rpath", "install_dir", "install_mode",
	"name_prefix", "name_suffix", "native", "objects", "override_options", "sources",
	"gnu_symbol_visibility", "link_language", "resources",
	"vala_header", "vala_vapi", "vala_gir", "rust_crate_type", "main_class",
)

func init() {
	for _, lang := range AllLanguages {
		buildTargetKwargs[lang+"_args"] = struct{}{}
		buildTargetKwargs[lang+"_pch"] = struct{}{}
	}
}

func withKwargs(base map[string]struct{}, extra ...string) map[string]struct{} {
	m := maps.Clone(base)
	for _, e := range extra {
		m[e] = struct{}{}
	}
	return m
}

// knownKwargs returns the keyword arguments accepted by a target kind.
func knownKwargs(kind TargetKind) map[string]struct{} {
	switch kind {
	case KindExecutable:
		return withKwargs(buildTargetKwargs, "implib", "export_dynamic", "pie")
	case KindStaticLibrary:
		return withKwargs(buildTargetKwargs, "pic")
	case KindSharedLibrary:
		return withKwargs(buildTargetKwargs, "version", "soversion", "vs_module_defs", "darwin_versions")
	case KindSharedModule:
		return withKwargs(buildTargetKwargs, "vs_module_defs")
	case KindJar:
		return withKwargs(buildTargetKwargs, "implib", "export_dynamic", "pie", "main_class")
	case KindCustom:
		return set(
			"input", "output", "command", "capture", "console", "install", "install_dir",
			"install_mode", "build_always", "build_always_stale", "depends", "depend_files",
			"depfile", "build_by_default", "override_options", "env",
		)
	case KindRun, KindAlias:
		return set("command", "depends", "env")
	}
	return buildTargetKwargs
}

// decodeKwargs decodes kw into the struct pointed to by out.
// Scalars are accepted wherever a list is expected.
func decodeKwargs(target string, kw Kwargs, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  listifyHook,
		ErrorUnused: false,
		Result:      out,
	})
	if err != nil {
		return invalidArgs(target, err.Error())
	}
	if err := dec.Decode(map[string]any(kw)); err != nil {
		return invalidArgs(target, fmt.Sprintf("bad keyword arguments: %v", err))
	}
	return nil
}

// listifyHook wraps a single value into a list when the destination is a slice.
func listifyHook(from, to reflect.Type, data any) (any, error) {
	if data == nil || to.Kind() != reflect.Slice {
		return data, nil
	}
	switch from.Kind() {
	case reflect.Slice, reflect.Array:
		return data, nil
	}
	return []any{data}, nil
}

// flatten expands nested lists into a single list.
func flatten(items []any) []any {
	var out []any
	for _, item := range items {
		switch v := item.(type) {
		case []any:
			out = append(out, flatten(v)...)
		case []string:
			for _, s := range v {
				out = append(out, s)
			}
		default:
			out = append(out, item)
		}
	}
	return out
}
