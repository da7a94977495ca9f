package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"path/filepath"
	"runtime"
	"slices"

	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/zerr"
)

// ToolchainLoader implements ports.ToolchainLoader using weld.toolchain.yaml.
type ToolchainLoader struct {
	FS FileSystem
}

// NewToolchainLoader creates a new ToolchainLoader reading from disk.
func NewToolchainLoader() *ToolchainLoader {
	return &ToolchainLoader{FS: NewOSFS()}
}

// Load reads the toolchain file of srcDir. Without one, the native
// toolchain of the running machine is returned.
func (l *ToolchainLoader) Load(srcDir string) (*domain.Toolchain, error) {
	configPath := filepath.Join(srcDir, domain.ToolchainFileName)
	if _, err := l.FS.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		return NativeToolchain(), nil
	}

	var tf Toolchainfile
	if err := readAndUnmarshalYAML(l.FS, configPath, &tf); err != nil {
		return nil, err
	}
	tc, err := tf.toDomain()
	if err != nil {
		return nil, annotate(err, "file", domain.ToolchainFileName)
	}
	return tc, nil
}

var cpuFamilies = map[string]string{
	"amd64":    "x86_64",
	"386":      "x86",
	"arm64":    "aarch64",
	"arm":      "arm",
	"riscv64":  "riscv64",
	"ppc64":    "ppc64",
	"ppc64le":  "ppc64",
	"s390x":    "s390x",
	"mips":     "mips",
	"mipsle":   "mips",
	"mips64":   "mips64",
	"mips64le": "mips64",
	"loong64":  "loongarch64",
	"wasm":     "wasm32",
}

var bigEndianArchs = []string{"ppc64", "s390x", "mips", "mips64"}

// NativeMachine describes the machine weld runs on.
func NativeMachine() domain.MachineInfo {
	family, ok := cpuFamilies[runtime.GOARCH]
	if !ok {
		family = runtime.GOARCH
	}
	endian := "little"
	if slices.Contains(bigEndianArchs, runtime.GOARCH) {
		endian = "big"
	}
	return domain.MachineInfo{System: runtime.GOOS, CPUFamily: family, CPU: family, Endian: endian}
}

// NativeToolchain returns the toolchain assumed when no toolchain file
// exists: C and C++ compilers of the platform's usual family and ar.
func NativeToolchain() *domain.Toolchain {
	m := NativeMachine()
	id, linker, archiver := "gcc", "ld.bfd", "ar"
	switch {
	case m.IsDarwin():
		id, linker = "clang", "ld64"
	case m.IsWindows():
		id, linker, archiver = "msvc", "link", "lib"
	}

	compilers := []*domain.CompilerInfo{
		{Lang: domain.LangC, CompilerID: id, Linker: linker, StaticArchive: true},
		{Lang: domain.LangCPP, CompilerID: id, Linker: linker, StaticArchive: true},
	}
	archivers := []*domain.LinkerInfo{{LinkerID: archiver, Exelist: []string{archiver}}}
	return &domain.Toolchain{
		Machines:      domain.PerMachine[domain.MachineInfo]{Build: m, Host: m},
		Compilers:     domain.PerMachine[[]*domain.CompilerInfo]{Build: compilers, Host: compilers},
		StaticLinkers: domain.PerMachine[[]*domain.LinkerInfo]{Build: archivers, Host: archivers},
		Programs:      map[string]*domain.ExternalProgram{},
	}
}

func invalidToolchain(msg, key string, value any) error {
	return zerr.With(zerr.Wrap(domain.ErrToolchainInvalid, msg), key, value)
}

func (m *MachineDTO) toDomain(role string) (domain.MachineInfo, error) {
	if m.System == "" || m.CPUFamily == "" {
		return domain.MachineInfo{}, invalidToolchain("machine needs system and cpu_family", "machine", role)
	}
	info := domain.MachineInfo{System: m.System, CPUFamily: m.CPUFamily, CPU: m.CPU, Endian: m.Endian}
	if info.CPU == "" {
		info.CPU = info.CPUFamily
	}
	switch info.Endian {
	case "":
		info.Endian = "little"
	case "little", "big":
	default:
		return domain.MachineInfo{}, invalidToolchain("endian must be little or big", "machine", role)
	}
	return info, nil
}

// machines returns the machines a tool declared for entry applies to.
func machines(entry string) ([]domain.MachineChoice, error) {
	switch entry {
	case "", "host":
		return []domain.MachineChoice{domain.MachineHost}, nil
	case "build":
		return []domain.MachineChoice{domain.MachineBuild}, nil
	case "both":
		return []domain.MachineChoice{domain.MachineBuild, domain.MachineHost}, nil
	}
	return nil, invalidToolchain("machine must be host, build or both", "machine", entry)
}

//nolint:cyclop // validates every section of the file
func (tf *Toolchainfile) toDomain() (*domain.Toolchain, error) {
	tc := &domain.Toolchain{Programs: make(map[string]*domain.ExternalProgram)}

	build := NativeMachine()
	if tf.Machines.Build != nil {
		var err error
		if build, err = tf.Machines.Build.toDomain("build"); err != nil {
			return nil, err
		}
	}
	host := build
	if tf.Machines.Host != nil {
		var err error
		if host, err = tf.Machines.Host.toDomain("host"); err != nil {
			return nil, err
		}
	}
	tc.Machines = domain.PerMachine[domain.MachineInfo]{Build: build, Host: host}

	for i, c := range tf.Compilers {
		if c == nil || c.Language == "" || c.ID == "" {
			return nil, invalidToolchain("compiler needs language and id", "compiler", i)
		}
		if !slices.Contains(domain.AllLanguages, c.Language) {
			return nil, invalidToolchain(fmt.Sprintf("unknown language %q", c.Language), "compiler", c.ID)
		}
		ms, err := machines(c.Machine)
		if err != nil {
			return nil, err
		}
		info := &domain.CompilerInfo{
			Lang:          c.Language,
			CompilerID:    c.ID,
			Linker:        c.Linker,
			Suffixes:      c.Suffixes,
			StdlibFlags:   c.StdlibLinkFlags,
			StaticArchive: c.Language != domain.LangJava && c.Language != domain.LangCS,
			Exelist:       c.Command,
		}
		if info.Linker == "" {
			info.Linker = c.ID
		}
		if c.NeedsStaticLinker != nil {
			info.StaticArchive = *c.NeedsStaticLinker
		}
		for _, m := range ms {
			tc.Compilers.Set(m, append(tc.Compilers.Get(m), info))
		}
	}

	for i, a := range tf.Archivers {
		if a == nil || a.ID == "" {
			return nil, invalidToolchain("archiver needs an id", "archiver", i)
		}
		ms, err := machines(a.Machine)
		if err != nil {
			return nil, err
		}
		info := &domain.LinkerInfo{LinkerID: a.ID, Exelist: a.Command}
		for _, m := range ms {
			tc.StaticLinkers.Set(m, append(tc.StaticLinkers.Get(m), info))
		}
	}

	for _, name := range slices.Sorted(maps.Keys(tf.Programs)) {
		command := tf.Programs[name]
		if len(command) == 0 || command[0] == "" {
			return nil, invalidToolchain("program needs a command", "program", name)
		}
		tc.Programs[name] = domain.NewExternalProgram(name, command...)
	}
	return tc, nil
}
