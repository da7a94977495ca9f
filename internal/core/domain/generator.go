package domain

import (
	"fmt"
	"iter"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// Generator is a reusable rule that turns each input file into a templated
// set of outputs by running a program.
type Generator struct {
	// Exe is the target that provides the program, if it is built here.
	Exe TargetID
	// Program is the external program, when Exe is empty.
	Program         *ExternalProgram
	Arguments       []string
	OutputTemplates []string
	Depfile         string
	Capture         bool
	Depends         []TargetID
	Env             *EnvironmentVariables
}

type generatorOptions struct {
	Arguments []string `mapstructure:"arguments"`
	Output    []string `mapstructure:"output"`
	Depfile   any      `mapstructure:"depfile"`
	Capture   any      `mapstructure:"capture"`
	Depends   []any    `mapstructure:"depends"`
	Env       any      `mapstructure:"env"`
}

var generatorKwargs = set("arguments", "output", "depfile", "capture", "depends", "env")

// NewGenerator validates a generator. exe is an executable or custom target
// of this build or an external program.
func (b *Build) NewGenerator(exe any, kw Kwargs) (*Generator, error) {
	const name = "generator"
	g := &Generator{}
	switch v := exe.(type) {
	case *ExternalProgram:
		if !v.Found() {
			return nil, invalidArgs(name, fmt.Sprintf("tried to use not-found external program %q", v.Name))
		}
		g.Program = v
	case *Executable, *CustomTarget:
		t := v.(Target)
		if err := b.owns(t); err != nil {
			return nil, err
		}
		g.Exe = t.ID()
	default:
		return nil, invalidArgs(name, fmt.Sprintf("generator program must be an executable or an external program, got %T", exe))
	}

	if kw == nil {
		kw = Kwargs{}
	}
	var opts generatorOptions
	if err := decodeKwargs(name, kw.only(generatorKwargs), &opts); err != nil {
		return nil, err
	}
	if unknown := kw.unknown(generatorKwargs); len(unknown) > 0 {
		b.warnf("Unknown keyword argument(s) in generator: %s.", strings.Join(unknown, ", "))
	}
	if !kw.Has("arguments") {
		return nil, invalidArgs(name, `generator must have "arguments" keyword argument`)
	}
	g.Arguments = opts.Arguments

	if len(opts.Output) == 0 {
		return nil, invalidArgs(name, `generator must have "output" keyword argument`)
	}
	for _, rule := range opts.Output {
		if !strings.Contains(rule, "@BASENAME@") && !strings.Contains(rule, "@PLAINNAME@") {
			return nil, invalidArgs(name, `every element of "output" must contain @BASENAME@ or @PLAINNAME@`)
		}
		if strings.ContainsAny(rule, `/\`) {
			return nil, invalidArgs(name, `"output" must not contain a directory separator`)
		}
	}
	if len(opts.Output) > 1 {
		for _, rule := range opts.Output {
			if strings.Contains(rule, "@OUTPUT@") {
				return nil, invalidArgs(name, "tried to use @OUTPUT@ in a rule with more than one output")
			}
		}
	}
	g.OutputTemplates = opts.Output

	if kw.Has("depfile") {
		depfile, ok := opts.Depfile.(string)
		if !ok {
			return nil, invalidArgs(name, "depfile must be a string")
		}
		if filepath.Base(depfile) != depfile {
			return nil, invalidArgs(name, "depfile must be a plain filename without a subdirectory")
		}
		g.Depfile = depfile
	}
	capture, err := optionalBool(name, "capture", opts.Capture)
	if err != nil {
		return nil, err
	}
	g.Capture = capture
	if g.Depends, err = b.runDepends(name, opts.Depends); err != nil {
		return nil, err
	}
	if opts.Env != nil {
		if g.Env, err = EnvironmentFromValue(opts.Env); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func templateNames(templates []string, inname string) []string {
	plain := path.Base(filepath.ToSlash(inname))
	base := strings.TrimSuffix(plain, path.Ext(plain))
	r := strings.NewReplacer("@BASENAME@", base, "@PLAINNAME@", plain)
	out := make([]string, len(templates))
	for i, t := range templates {
		out[i] = r.Replace(t)
	}
	return out
}

// BaseOutnames returns the outputs generated for inname.
func (g *Generator) BaseOutnames(inname string) []string {
	return templateNames(g.OutputTemplates, inname)
}

// DepOutname returns the depfile generated for inname.
func (g *Generator) DepOutname(inname string) string {
	if g.Depfile == "" {
		return ""
	}
	return templateNames([]string{g.Depfile}, inname)[0]
}

// Arglist returns the arguments for inname.
func (g *Generator) Arglist(inname string) []string {
	return templateNames(g.Arguments, inname)
}

// ProcessOptions tunes Generator.ProcessFiles.
type ProcessOptions struct {
	// PreservePathFrom is a source-relative directory. Outputs keep the
	// path of their input relative to it.
	PreservePathFrom string
	ExtraArgs        []string
}

// ProcessFiles applies the generator to files declared in subdir and
// registers the resulting list with b.
func (g *Generator) ProcessFiles(b *Build, subdir string, files []any, opts ProcessOptions) (*GeneratedList, error) {
	if err := b.checkMutable(); err != nil {
		return nil, err
	}
	const name = "generator.process"
	gl := &GeneratedList{
		Generator:        g,
		Subdir:           subdir,
		PreservePathFrom: opts.PreservePathFrom,
		ExtraArgs:        slices.Clone(opts.ExtraArgs),
	}
	if g.Program != nil && g.Program.IsAbsolute() {
		gl.DependFiles = append(gl.DependFiles, AbsoluteFile(g.Program.Path()))
	}
	var inputs []File
	for _, f := range flatten(files) {
		switch v := f.(type) {
		case string:
			inputs = append(inputs, SourceFile(subdir, v))
		case File:
			inputs = append(inputs, v)
		case *CustomTarget, *CustomTargetIndex:
			t := v.(Target)
			if err := b.owns(t); err != nil {
				return nil, err
			}
			gl.ExtraDepends = appendUnique(gl.ExtraDepends, t.ID())
			for _, out := range t.Outputs() {
				inputs = append(inputs, BuiltFile(t.Base().Subdir, out))
			}
		case *GeneratedList:
			if own, ok := b.GeneratedList(v.ID); !ok || own != v {
				return nil, invalidArgs(name, "generated list does not belong to this build")
			}
			gl.ExtraDepends = appendUnique(gl.ExtraDepends, v.ExtraDepends...)
			for _, out := range v.Outputs() {
				inputs = append(inputs, BuiltFile(v.Subdir, out))
			}
		default:
			return nil, invalidArgs(name, fmt.Sprintf("bad input of type %T", f))
		}
	}
	for _, in := range inputs {
		if err := gl.add(in); err != nil {
			return nil, err
		}
	}
	b.addGeneratedList(gl)
	return gl, nil
}

// GeneratedList is the result of applying a Generator to a set of inputs.
type GeneratedList struct {
	ID               GeneratedListID
	Generator        *Generator
	Subdir           string
	PreservePathFrom string
	ExtraArgs        []string
	Inputs           []File
	DependFiles      []File
	ExtraDepends     []TargetID

	outputs map[File][]string
}

// GeneratedEntry maps one input to its outputs.
type GeneratedEntry struct {
	Input   File
	Outputs []string
}

func (gl *GeneratedList) add(in File) error {
	outs := gl.Generator.BaseOutnames(in.Fname)
	if gl.PreservePathFrom != "" {
		rel, ok := relativeUnder(in.RelativeName(), gl.PreservePathFrom)
		if !ok {
			return invalidArgs("generator.process", fmt.Sprintf(
				"when using preserve_path_from, all input files must be in a subdirectory of %q; %s is not", gl.PreservePathFrom, in))
		}
		if dir := path.Dir(rel); dir != "." {
			for i, o := range outs {
				outs[i] = path.Join(dir, o)
			}
		}
	}
	if gl.outputs == nil {
		gl.outputs = make(map[File][]string)
	}
	if _, seen := gl.outputs[in]; !seen {
		gl.Inputs = append(gl.Inputs, in)
	}
	gl.outputs[in] = append(gl.outputs[in], outs...)
	return nil
}

// relativeUnder returns p relative to root when p lies inside root.
func relativeUnder(p, root string) (string, bool) {
	p, root = path.Clean(filepath.ToSlash(p)), path.Clean(filepath.ToSlash(root))
	if root == "." {
		return p, !strings.HasPrefix(p, "../") && p != ".."
	}
	if !strings.HasPrefix(p, root+"/") {
		return "", false
	}
	return strings.TrimPrefix(p, root+"/"), true
}

// Outputs returns every output in input order.
func (gl *GeneratedList) Outputs() []string {
	var out []string
	for _, in := range gl.Inputs {
		out = append(out, gl.outputs[in]...)
	}
	return out
}

// OutputsFor returns the outputs generated from in.
func (gl *GeneratedList) OutputsFor(in File) []string {
	return slices.Clone(gl.outputs[in])
}

// Entries iterates over the input to outputs mapping. The sequence can be
// ranged over any number of times.
func (gl *GeneratedList) Entries() iter.Seq2[File, []string] {
	return func(yield func(File, []string) bool) {
		for _, in := range gl.Inputs {
			if !yield(in, slices.Clone(gl.outputs[in])) {
				return
			}
		}
	}
}

// EntryList returns the mapping as a slice.
func (gl *GeneratedList) EntryList() []GeneratedEntry {
	entries := make([]GeneratedEntry, 0, len(gl.Inputs))
	for in, outs := range gl.Entries() {
		entries = append(entries, GeneratedEntry{Input: in, Outputs: outs})
	}
	return entries
}
