package domain_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
	"go.trai.ch/weld/internal/core/domain"
)

var linuxMachine = domain.MachineInfo{System: "linux", CPUFamily: "x86_64", CPU: "x86_64", Endian: "little"}

func compiler(lang, id string) *domain.CompilerInfo {
	return &domain.CompilerInfo{
		Lang:          lang,
		CompilerID:    id,
		Linker:        "ld.bfd",
		StaticArchive: lang != domain.LangJava && lang != domain.LangCS,
		StdlibFlags:   []string{"-l" + lang + "std"},
	}
}

// newEnv returns a native linux environment whose source tree holds files.
// Without files, every source file is taken to exist.
func newEnv(files ...string) *domain.Environment {
	env := domain.NewEnvironment("/src", "/build", linuxMachine)
	env.SourceFS = nil
	if len(files) > 0 {
		fsys := fstest.MapFS{}
		for _, f := range files {
			fsys[f] = &fstest.MapFile{Data: []byte("\n")}
		}
		env.SourceFS = fsys
	}
	set := domain.NewCompilerSet(compiler(domain.LangC, "gcc"), compiler(domain.LangCPP, "gcc"))
	env.Compilers = domain.PerMachine[*domain.CompilerSet]{Build: set, Host: set}
	return env
}

func withMachine(env *domain.Environment, m domain.MachineInfo) *domain.Environment {
	env.Machines = domain.PerMachine[domain.MachineInfo]{Build: m, Host: m}
	return env
}

func newBuild(t *testing.T, files ...string) *domain.Build {
	t.Helper()
	return domain.NewBuild(newEnv(files...))
}

func mustStatic(t *testing.T, b *domain.Build, name string, sources []any, kw domain.Kwargs) *domain.StaticLibrary {
	t.Helper()
	lib, err := b.AddStaticLibrary(name, "", "", domain.MachineHost, sources, nil, kw)
	require.NoError(t, err)
	return lib
}

func mustShared(t *testing.T, b *domain.Build, name string, sources []any, kw domain.Kwargs) *domain.SharedLibrary {
	t.Helper()
	lib, err := b.AddSharedLibrary(name, "", "", domain.MachineHost, sources, nil, kw)
	require.NoError(t, err)
	return lib
}

func ids(targets []domain.Target) []domain.TargetID {
	out := make([]domain.TargetID, 0, len(targets))
	for _, t := range targets {
		out = append(out, t.ID())
	}
	return out
}
