package config_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/weld/internal/adapters/config"
	"go.trai.ch/weld/internal/core/domain"
)

func loadToolchain(t *testing.T, content string) (*domain.Toolchain, error) {
	t.Helper()
	loader := config.NewToolchainLoader()
	loader.FS = config.NewMapFSAdapter("/src", fstest.MapFS{
		domain.ToolchainFileName: &fstest.MapFile{Data: []byte(content)},
	})
	return loader.Load("/src")
}

func TestToolchainLoader_Load_Cross(t *testing.T) {
	t.Parallel()

	tc, err := loadToolchain(t, `
machines:
  build: {system: linux, cpu_family: x86_64}
  host: {system: linux, cpu_family: aarch64, endian: little}
compilers:
  - {language: c, id: gcc, linker: ld.bfd, machine: both, command: [gcc]}
  - {language: cpp, id: gcc, linker: ld.bfd, machine: host, stdlib_link_flags: [-lstdc++]}
  - {language: java, id: javac}
archivers:
  - {id: ar, machine: both, command: [aarch64-linux-gnu-ar]}
programs:
  flex: [/usr/bin/flex]
  python: [/usr/bin/env, python3]
`)
	require.NoError(t, err)

	assert.True(t, tc.IsCross())
	assert.Equal(t, domain.MachineInfo{System: "linux", CPUFamily: "x86_64", CPU: "x86_64", Endian: "little"},
		tc.Machines.Build)
	assert.Equal(t, "aarch64", tc.Machines.Host.CPUFamily)

	require.Len(t, tc.Compilers.Build, 1)
	require.Len(t, tc.Compilers.Host, 3)
	cpp := tc.Compilers.Host[1]
	assert.Equal(t, []string{"-lstdc++"}, cpp.StdlibOnlyLinkFlags())
	assert.True(t, cpp.NeedsStaticLinker())
	java := tc.Compilers.Host[2]
	assert.False(t, java.NeedsStaticLinker())
	assert.Equal(t, "javac", java.LinkerID())

	require.Len(t, tc.StaticLinkers.Build, 1)
	assert.Equal(t, "ar", tc.StaticLinkers.Host[0].ID())

	assert.Equal(t, "/usr/bin/flex", tc.Program("flex").Path())
	assert.Equal(t, []string{"/usr/bin/env", "python3"}, tc.Program("python").Command)
	assert.False(t, tc.Program("bison").Found())
}

func TestToolchainLoader_Load_Native(t *testing.T) {
	t.Parallel()

	loader := config.NewToolchainLoader()
	loader.FS = config.NewMapFSAdapter("/src", fstest.MapFS{})

	tc, err := loader.Load("/src")
	require.NoError(t, err)
	assert.False(t, tc.IsCross())
	assert.Equal(t, config.NativeMachine(), tc.Machines.Host)

	env := tc.Environment("/src", "/src/build")
	assert.Equal(t, []string{domain.LangCPP, domain.LangC}, env.CompilersFor(domain.MachineHost).Languages())
	require.Len(t, tc.StaticLinkers.Host, 1)
}

func TestToolchainLoader_Load_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "machine without system", content: "machines:\n  host: {cpu_family: arm}\n"},
		{name: "bad endian", content: "machines:\n  host: {system: linux, cpu_family: mips, endian: middle}\n"},
		{name: "compiler without id", content: "compilers:\n  - {language: c}\n"},
		{name: "unknown language", content: "compilers:\n  - {language: cobol, id: gnucobol}\n"},
		{name: "bad machine", content: "compilers:\n  - {language: c, id: gcc, machine: target}\n"},
		{name: "archiver without id", content: "archivers:\n  - {command: [ar]}\n"},
		{name: "program without command", content: "programs:\n  flex: []\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := loadToolchain(t, tt.content)
			require.ErrorIs(t, err, domain.ErrToolchainInvalid)
		})
	}

	t.Run("invalid yaml", func(t *testing.T) {
		t.Parallel()
		_, err := loadToolchain(t, "machines: [")
		require.ErrorContains(t, err, domain.ErrConfigParseFailed.Error())
	})
}

func TestMapFSAdapter_Glob(t *testing.T) {
	t.Parallel()

	fsys := config.NewMapFSAdapter("/src", fstest.MapFS{
		"a.c":          &fstest.MapFile{},
		"lib/b.c":      &fstest.MapFile{},
		"lib/deep/c.c": &fstest.MapFile{},
		"lib/d.h":      &fstest.MapFile{},
	})

	matches, err := fsys.Glob("/src/**/*.c")
	require.NoError(t, err)
	assert.Equal(t, []string{"/src/a.c", "/src/lib/b.c", "/src/lib/deep/c.c"}, matches)

	matches, err = fsys.Glob("/src/lib/*.h")
	require.NoError(t, err)
	assert.Equal(t, []string{"/src/lib/d.h"}, matches)
}
