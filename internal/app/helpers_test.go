package app_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
	"go.trai.ch/weld/internal/core/domain"
)

var linux = domain.MachineInfo{System: "linux", CPUFamily: "x86_64", CPU: "x86_64", Endian: "little"}

func testToolchain() *domain.Toolchain {
	gcc := []*domain.CompilerInfo{
		{Lang: domain.LangC, CompilerID: "gcc", Linker: "ld.bfd", StaticArchive: true},
	}
	ar := []*domain.LinkerInfo{{LinkerID: "ar", Exelist: []string{"ar"}}}
	return &domain.Toolchain{
		Machines:      domain.PerMachine[domain.MachineInfo]{Build: linux, Host: linux},
		Compilers:     domain.PerMachine[[]*domain.CompilerInfo]{Build: gcc, Host: gcc},
		StaticLinkers: domain.PerMachine[[]*domain.LinkerInfo]{Build: ar, Host: ar},
	}
}

// sampleBuild returns a frozen build of a small project:
// an executable using a generated header and a versioned shared library
// that links a static one.
func sampleBuild(t *testing.T, srcDir, buildDir string) *domain.Build {
	t.Helper()
	tc := testToolchain()
	env := tc.Environment(srcDir, buildDir)
	env.SourceFS = fstest.MapFS{
		"core.c": &fstest.MapFile{},
		"api.c":  &fstest.MapFile{},
		"main.c": &fstest.MapFile{},
	}
	b := domain.NewBuild(env, domain.WithProject("demo", "1.0"))

	core, err := b.AddStaticLibrary("core", "", "", domain.MachineHost, []any{"core.c"}, nil, nil)
	require.NoError(t, err)
	gcc, _ := b.Environment().CompilersFor(domain.MachineHost).Get(domain.LangC)
	require.NoError(t, b.EnsureStaticLinker(domain.MachineHost, gcc, tc.StaticLinkerDetector(domain.MachineHost)))

	gen, err := b.AddCustomTarget("gen", "", "", domain.Kwargs{
		"output": "gen.h", "command": []any{"touch", "@OUTPUT@"},
	})
	require.NoError(t, err)
	api, err := b.AddSharedLibrary("api", "", "", domain.MachineHost, []any{"api.c"}, nil,
		domain.Kwargs{"link_with": core, "version": "1.2.3"})
	require.NoError(t, err)
	app, err := b.AddExecutable("app", "", "", domain.MachineHost, []any{"main.c", gen}, nil,
		domain.Kwargs{"link_with": api})
	require.NoError(t, err)
	_, err = b.AddAliasTarget("everything", "", "", app)
	require.NoError(t, err)

	require.NoError(t, b.Freeze())
	return b
}
