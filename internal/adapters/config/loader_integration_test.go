//go:build integration

package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/weld/internal/adapters/config"
	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/weld/internal/core/ports/mocks"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), domain.DirPerm))
	require.NoError(t, os.WriteFile(p, []byte(content), domain.PrivateFilePerm))
}

func TestLoad_Integration_Success(t *testing.T) {
	srcDir := t.TempDir()
	writeFile(t, srcDir, domain.ProjectFileName, `
project: demo
subdirs: [lib]
declarations:
  - kind: executable
    name: app
    sources: ["src/**/*.c"]
    link_with: ["@util"]
`)
	writeFile(t, srcDir, "src/main.c", "int main(void) { return 0; }\n")
	writeFile(t, srcDir, "src/cli/args.c", "\n")
	writeFile(t, srcDir, "lib/weld.yaml", "declarations:\n  - {kind: static_library, name: util, sources: [util.c]}\n")
	writeFile(t, srcDir, "lib/util.c", "\n")

	ctrl := gomock.NewController(t)
	loader := config.NewLoader(mocks.NewMockLogger(ctrl))
	tc := testToolchain()
	b, err := loader.Load(context.Background(), tc, tc.Environment(srcDir, filepath.Join(srcDir, "build")))
	require.NoError(t, err)
	require.NoError(t, b.Freeze())

	app := mustTarget(t, b, "", "app", domain.KindExecutable)
	bt, _ := domain.AsBuildTarget(app)
	assert.Equal(t, []domain.File{
		domain.SourceFile("", "src/cli/args.c"),
		domain.SourceFile("", "src/main.c"),
	}, bt.Sources)

	var order []string
	for tgt := range b.Walk() {
		order = append(order, tgt.Base().Name)
	}
	assert.Equal(t, []string{"util", "app"}, order)
}

func TestLoad_Integration_MissingExtraFile(t *testing.T) {
	srcDir := t.TempDir()
	writeFile(t, srcDir, domain.ProjectFileName, `
project: demo
declarations:
  - kind: executable
    name: app
    sources: [main.c]
    extra_files: [missing.txt]
`)
	writeFile(t, srcDir, "main.c", "\n")

	ctrl := gomock.NewController(t)
	loader := config.NewLoader(mocks.NewMockLogger(ctrl))
	tc := testToolchain()
	_, err := loader.Load(context.Background(), tc, tc.Environment(srcDir, filepath.Join(srcDir, "build")))
	require.ErrorIs(t, err, domain.ErrFileNotFound)

	zErr, ok := err.(*zerr.Error)
	require.True(t, ok, "expected *zerr.Error, got %T", err)
	assert.Equal(t, domain.ProjectFileName, zErr.Metadata()["file"])
}

func TestDiscoverConfigPaths_Integration(t *testing.T) {
	srcDir := t.TempDir()
	writeFile(t, srcDir, domain.ProjectFileName, "project: demo\nsubdirs: [lib]\n")
	writeFile(t, srcDir, "lib/weld.yaml", "")

	mtime := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(filepath.Join(srcDir, "lib/weld.yaml"), mtime, mtime))

	got, err := config.NewLoader(nil).DiscoverConfigPaths(srcDir)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, mtime.UnixNano(), got["lib/weld.yaml"])
	assert.Contains(t, got, domain.ProjectFileName)
}

func TestToolchainLoader_Integration(t *testing.T) {
	srcDir := t.TempDir()
	writeFile(t, srcDir, domain.ToolchainFileName, `
machines:
  host: {system: windows, cpu_family: x86_64}
compilers:
  - {language: c, id: msvc, linker: link, machine: host}
archivers:
  - {id: lib, command: [lib.exe]}
`)

	tc, err := config.NewToolchainLoader().Load(srcDir)
	require.NoError(t, err)
	assert.True(t, tc.Machines.Host.IsWindows())
	assert.Equal(t, config.NativeMachine(), tc.Machines.Build)
}
