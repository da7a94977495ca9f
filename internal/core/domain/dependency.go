package domain

// Dependency describes something a build target consumes: either an
// external package or an internal declaration bundling targets, sources
// and flags of the same project.
type Dependency struct {
	Name           string
	Internal       bool
	Language       string
	Version        string
	CompileArgs    []string
	LinkArgs       []string
	IncludeDirs    []string
	Sources        []File
	Libraries      []TargetID
	WholeLibraries []TargetID
	Deps           []*Dependency
}

// ExternalDep is what a build target keeps of a dependency whose flags it
// must pass on to the compiler and linker.
type ExternalDep struct {
	Name        string   `msgpack:"name" json:"name"`
	Language    string   `msgpack:"language,omitempty" json:"language,omitempty"`
	Version     string   `msgpack:"version,omitempty" json:"version,omitempty"`
	CompileArgs []string `msgpack:"compile_args,omitempty" json:"compile_args,omitempty"`
	LinkArgs    []string `msgpack:"link_args,omitempty" json:"link_args,omitempty"`
}

func (d *Dependency) external() ExternalDep {
	return ExternalDep{
		Name:        d.Name,
		Language:    d.Language,
		Version:     d.Version,
		CompileArgs: d.CompileArgs,
		LinkArgs:    d.LinkArgs,
	}
}

// IncludeDirs is a set of include directories relative to a subdirectory.
type IncludeDirs struct {
	Subdir   string   `msgpack:"subdir" json:"subdir"`
	Dirs     []string `msgpack:"dirs" json:"dirs"`
	IsSystem bool     `msgpack:"is_system,omitempty" json:"is_system,omitempty"`
}
