package config

// Projectfile represents the structure of a weld.yaml file.
type Projectfile struct {
	Project string      `yaml:"project"`
	Version string      `yaml:"version"`
	Options *OptionsDTO `yaml:"options"`

	GlobalArgs      map[string][]string `yaml:"global_args"`
	GlobalLinkArgs  map[string][]string `yaml:"global_link_args"`
	ProjectArgs     map[string][]string `yaml:"project_args"`
	ProjectLinkArgs map[string][]string `yaml:"project_link_args"`

	// Subdirs are loaded before the declarations of this file.
	Subdirs      []string          `yaml:"subdirs"`
	Declarations []*DeclarationDTO `yaml:"declarations"`
}

// OptionsDTO holds the project wide options. Only the root file may set them.
type OptionsDTO struct {
	Unity      string `yaml:"unity"`
	BPIE       *bool  `yaml:"b_pie"`
	BStaticPIC *bool  `yaml:"b_staticpic"`
	Prefix     string `yaml:"prefix"`
	BinDir     string `yaml:"bindir"`
	LibDir     string `yaml:"libdir"`
}

// DeclarationDTO is one entry of the declarations list. Keys other than
// the ones below are passed to the target as keyword arguments.
type DeclarationDTO struct {
	Kind    string         `yaml:"kind"`
	Name    string         `yaml:"name"`
	Path    string         `yaml:"path"`
	Native  bool           `yaml:"native"`
	Sources []any          `yaml:"sources"`
	Objects []any          `yaml:"objects"`
	Kwargs  map[string]any `yaml:",inline"`
}

// Declaration kinds.
const (
	KindExecutable     = "executable"
	KindStaticLibrary  = "static_library"
	KindSharedLibrary  = "shared_library"
	KindSharedModule   = "shared_module"
	KindJar            = "jar"
	KindCustomTarget   = "custom_target"
	KindRunTarget      = "run_target"
	KindAliasTarget    = "alias_target"
	KindGenerator      = "generator"
	KindGenerate       = "generate"
	KindExtractObjects = "extract_objects"
	KindDependency     = "dependency"
	KindEnvironment    = "environment"
	KindSubdir         = "subdir"
	KindSubproject     = "subproject"
)

// Toolchainfile represents the structure of a weld.toolchain.yaml file.
type Toolchainfile struct {
	Machines  MachinesDTO         `yaml:"machines"`
	Compilers []*CompilerDTO      `yaml:"compilers"`
	Archivers []*ArchiverDTO      `yaml:"archivers"`
	Programs  map[string][]string `yaml:"programs"`
}

// MachinesDTO describes the build and host machines. A missing host
// machine means a native build.
type MachinesDTO struct {
	Build *MachineDTO `yaml:"build"`
	Host  *MachineDTO `yaml:"host"`
}

// MachineDTO describes one machine.
type MachineDTO struct {
	System    string `yaml:"system"`
	CPUFamily string `yaml:"cpu_family"`
	CPU       string `yaml:"cpu"`
	Endian    string `yaml:"endian"`
}

// CompilerDTO declares a compiler and the linker it drives.
type CompilerDTO struct {
	Language string   `yaml:"language"`
	ID       string   `yaml:"id"`
	Machine  string   `yaml:"machine"`
	Command  []string `yaml:"command"`
	Linker   string   `yaml:"linker"`
	Suffixes []string `yaml:"suffixes"`
	// NeedsStaticLinker defaults to true for every language but Java and C#.
	NeedsStaticLinker *bool    `yaml:"needs_static_linker"`
	StdlibLinkFlags   []string `yaml:"stdlib_link_flags"`
}

// ArchiverDTO declares a static linker.
type ArchiverDTO struct {
	ID      string   `yaml:"id"`
	Machine string   `yaml:"machine"`
	Command []string `yaml:"command"`
}
