package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/weld/internal/core/domain"
)

func TestExecutable_Suffix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		machine  domain.MachineInfo
		cid      string
		kw       domain.Kwargs
		expected string
	}{
		{name: "linux", machine: linuxMachine, cid: "gcc", expected: "app"},
		{name: "windows", machine: domain.MachineInfo{System: "windows"}, cid: "gcc", expected: "app.exe"},
		{name: "cygwin", machine: domain.MachineInfo{System: "cygwin"}, cid: "gcc", expected: "app.exe"},
		{name: "emscripten", machine: domain.MachineInfo{System: "emscripten"}, cid: "clang", expected: "app.js"},
		{name: "arm toolchain", machine: linuxMachine, cid: "armclang", expected: "app.axf"},
		{name: "ccrx toolchain", machine: linuxMachine, cid: "ccrx", expected: "app.abs"},
		{name: "xc16 toolchain", machine: linuxMachine, cid: "xc16", expected: "app.elf"},
		{name: "c2000 toolchain", machine: linuxMachine, cid: "c2000", expected: "app.out"},
		{name: "explicit suffix", machine: linuxMachine, cid: "gcc", kw: domain.Kwargs{"name_suffix": "bin"}, expected: "app.bin"},
		{name: "explicit prefix", machine: linuxMachine, cid: "gcc", kw: domain.Kwargs{"name_prefix": "x-"}, expected: "x-app"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := withMachine(newEnv(), tt.machine)
			set := domain.NewCompilerSet(compiler(domain.LangC, tt.cid))
			env.Compilers = domain.PerMachine[*domain.CompilerSet]{Build: set, Host: set}
			b := domain.NewBuild(env)
			exe, err := b.AddExecutable("app", "", "", domain.MachineHost, []any{"main.c"}, nil, tt.kw)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, exe.Filename())
			assert.Equal(t, []string{tt.expected}, exe.Outputs())
		})
	}
}

func TestExecutable_ExportDynamic(t *testing.T) {
	t.Parallel()

	t.Run("implib implies export_dynamic", func(t *testing.T) {
		t.Parallel()
		b := domain.NewBuild(withMachine(newEnv(), domain.MachineInfo{System: "windows"}))
		exe, err := b.AddExecutable("app", "", "", domain.MachineHost, []any{"main.c"}, nil,
			domain.Kwargs{"implib": true})
		require.NoError(t, err)
		assert.True(t, exe.ExportDynamic)
		assert.True(t, exe.IsLinkable())
		assert.Equal(t, "libapp.exe.a", exe.ImportFilename)
		assert.Equal(t, "app.exe.lib", exe.VSImportFilename)
	})

	t.Run("named implib", func(t *testing.T) {
		t.Parallel()
		b := domain.NewBuild(withMachine(newEnv(), domain.MachineInfo{System: "windows"}))
		exe, err := b.AddExecutable("app", "", "", domain.MachineHost, []any{"main.c"}, nil,
			domain.Kwargs{"implib": "plugins"})
		require.NoError(t, err)
		assert.Equal(t, "libplugins.a", exe.GCCImportFilename)
	})

	t.Run("implib false with export_dynamic", func(t *testing.T) {
		t.Parallel()
		b := newBuild(t)
		_, err := b.AddExecutable("app", "", "", domain.MachineHost, []any{"main.c"}, nil,
			domain.Kwargs{"implib": false, "export_dynamic": true})
		assert.ErrorIs(t, err, domain.ErrInvalidArguments)
	})

	t.Run("plugin links exporting executable", func(t *testing.T) {
		t.Parallel()
		b := newBuild(t)
		exe, err := b.AddExecutable("app", "", "", domain.MachineHost, []any{"main.c"}, nil,
			domain.Kwargs{"export_dynamic": true})
		require.NoError(t, err)
		_, err = b.AddSharedModule("plugin", "", "", domain.MachineHost, []any{"p.c"}, nil,
			domain.Kwargs{"link_with": exe})
		require.NoError(t, err)
	})
}

func TestExecutable_PIE(t *testing.T) {
	t.Parallel()

	b := newBuild(t)
	exe, err := b.AddExecutable("app", "", "", domain.MachineHost, []any{"main.c"}, nil, nil)
	require.NoError(t, err)
	assert.False(t, exe.PIE)

	b = domain.NewBuild(withMachine(newEnv(), domain.MachineInfo{System: "android"}))
	exe, err = b.AddExecutable("app", "", "", domain.MachineHost, []any{"main.c"}, nil, domain.Kwargs{"pie": false})
	require.NoError(t, err)
	assert.True(t, exe.PIE)
}

func TestStaticLibrary_Naming(t *testing.T) {
	t.Parallel()

	b := newBuild(t)
	lib := mustStatic(t, b, "core", []any{"core.c"}, nil)
	assert.Equal(t, "libcore.a", lib.Filename())

	lib = mustStatic(t, b, "raw", []any{"raw.c"}, domain.Kwargs{"name_prefix": "", "name_suffix": "lib"})
	assert.Equal(t, "raw.lib", lib.Filename())
}

func TestStaticLibrary_RustCrateType(t *testing.T) {
	t.Parallel()

	newRust := func() *domain.Build {
		env := newEnv()
		env.Compilers.Host.Add(compiler(domain.LangRust, "rustc"))
		return domain.NewBuild(env)
	}

	lib := mustStatic(t, newRust(), "crate", []any{"lib.rs"}, nil)
	assert.Equal(t, "rlib", lib.RustCrateType)
	assert.Equal(t, "libcrate.rlib", lib.Filename())

	lib = mustStatic(t, newRust(), "crate", []any{"lib.rs"}, domain.Kwargs{"rust_crate_type": "staticlib"})
	assert.Equal(t, "libcrate.a", lib.Filename())

	_, err := newRust().AddStaticLibrary("crate", "", "", domain.MachineHost, []any{"lib.rs"}, nil,
		domain.Kwargs{"rust_crate_type": "cdylib"})
	assert.ErrorIs(t, err, domain.ErrInvalidArguments)
}

func TestSharedLibrary_Naming(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		machine    domain.MachineInfo
		kw         domain.Kwargs
		filename   string
		importName string
		aliases    map[string]string
	}{
		{
			name:     "linux unversioned",
			machine:  linuxMachine,
			filename: "libfoo.so",
			aliases:  map[string]string{},
		},
		{
			name:     "linux version",
			machine:  linuxMachine,
			kw:       domain.Kwargs{"version": "1.2.3"},
			filename: "libfoo.so.1.2.3",
			aliases:  map[string]string{"libfoo.so.1": "libfoo.so.1.2.3", "libfoo.so": "libfoo.so.1"},
		},
		{
			name:     "linux version and soversion",
			machine:  linuxMachine,
			kw:       domain.Kwargs{"version": "0.100.0", "soversion": 0},
			filename: "libfoo.so.0.100.0",
			aliases:  map[string]string{"libfoo.so.0": "libfoo.so.0.100.0", "libfoo.so": "libfoo.so.0"},
		},
		{
			name:     "linux soversion only",
			machine:  linuxMachine,
			kw:       domain.Kwargs{"soversion": "4"},
			filename: "libfoo.so.4",
			aliases:  map[string]string{"libfoo.so": "libfoo.so.4"},
		},
		{
			name:     "darwin",
			machine:  domain.MachineInfo{System: "darwin"},
			kw:       domain.Kwargs{"version": "1.2.3"},
			filename: "libfoo.1.dylib",
			aliases:  map[string]string{"libfoo.dylib": "libfoo.1.dylib"},
		},
		{
			name:     "android ignores versions",
			machine:  domain.MachineInfo{System: "android"},
			kw:       domain.Kwargs{"version": "1.2.3"},
			filename: "libfoo.so",
			aliases:  map[string]string{},
		},
		{
			name:       "windows gcc",
			machine:    domain.MachineInfo{System: "windows"},
			kw:         domain.Kwargs{"soversion": "2"},
			filename:   "libfoo-2.dll",
			importName: "libfoo.dll.a",
			aliases:    map[string]string{},
		},
		{
			name:       "cygwin",
			machine:    domain.MachineInfo{System: "cygwin"},
			filename:   "cygfoo.dll",
			importName: "libfoo.dll.a",
			aliases:    map[string]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := domain.NewBuild(withMachine(newEnv(), tt.machine))
			lib := mustShared(t, b, "foo", []any{"foo.c"}, tt.kw)
			assert.Equal(t, tt.filename, lib.Filename())
			assert.Equal(t, tt.importName, lib.ImportFilename)
			assert.Equal(t, tt.aliases, lib.Aliases())
		})
	}
}

func TestSharedLibrary_MSVCImportAndDebug(t *testing.T) {
	t.Parallel()

	env := withMachine(newEnv(), domain.MachineInfo{System: "windows"})
	set := domain.NewCompilerSet(compiler(domain.LangC, "msvc"))
	env.Compilers = domain.PerMachine[*domain.CompilerSet]{Build: set, Host: set}
	b := domain.NewBuild(env)
	lib := mustShared(t, b, "foo", []any{"foo.c"}, nil)
	assert.Equal(t, "foo.dll", lib.Filename())
	assert.Equal(t, "foo.lib", lib.ImportFilename)
	assert.Equal(t, "foo.pdb", lib.DebugFilename)
}

func TestSharedLibrary_VersionValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		kw   domain.Kwargs
	}{
		{name: "version not string", kw: domain.Kwargs{"version": 1}},
		{name: "version malformed", kw: domain.Kwargs{"version": "1.2.3.4"}},
		{name: "soversion wrong type", kw: domain.Kwargs{"soversion": 1.5}},
		{name: "darwin_versions too many", kw: domain.Kwargs{"darwin_versions": []any{"1", "2", "3"}}},
		{name: "darwin_versions out of range", kw: domain.Kwargs{"darwin_versions": "70000"}},
		{name: "missing module defs", kw: domain.Kwargs{"vs_module_defs": "foo.def"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := newBuild(t)
			_, err := b.AddSharedLibrary("foo", "", "", domain.MachineHost, []any{"foo.c"}, nil, tt.kw)
			require.Error(t, err)
		})
	}
}

func TestValidateDarwinVersions(t *testing.T) {
	t.Parallel()

	got, err := domain.ValidateDarwinVersions(7)
	require.NoError(t, err)
	assert.Equal(t, []string{"7", "7"}, got)

	got, err = domain.ValidateDarwinVersions([]any{"1.2", 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"1.2", "3"}, got)

	_, err = domain.ValidateDarwinVersions("1.256")
	assert.ErrorIs(t, err, domain.ErrInvalidArguments)
}

func TestSharedModule_RejectsVersion(t *testing.T) {
	t.Parallel()

	b := newBuild(t)
	_, err := b.AddSharedModule("mod", "", "", domain.MachineHost, []any{"mod.c"}, nil,
		domain.Kwargs{"version": "1.0.0"})
	assert.ErrorIs(t, err, domain.ErrInvalidArguments)

	mod, err := b.AddSharedModule("mod", "", "", domain.MachineHost, []any{"mod.c"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.KindSharedModule, mod.Kind())
	assert.Equal(t, "libmod.so", mod.Filename())
}

func TestSharedLibrary_ModuleLinkingOnDarwin(t *testing.T) {
	t.Parallel()

	b := domain.NewBuild(withMachine(newEnv(), domain.MachineInfo{System: "darwin"}))
	mod, err := b.AddSharedModule("mod", "", "", domain.MachineHost, []any{"mod.c"}, nil, nil)
	require.NoError(t, err)
	_, err = b.AddExecutable("app", "", "", domain.MachineHost, []any{"main.c"}, nil, domain.Kwargs{"link_with": mod})
	assert.ErrorIs(t, err, domain.ErrInvalidArguments)
}

func TestJar(t *testing.T) {
	t.Parallel()

	newJava := func() *domain.Build {
		env := newEnv()
		set := domain.NewCompilerSet(compiler(domain.LangJava, "javac"))
		env.Compilers = domain.PerMachine[*domain.CompilerSet]{Build: set, Host: set}
		return domain.NewBuild(env)
	}

	b := newJava()
	dep, err := b.AddJar("dep", "", "", domain.MachineHost, []any{"Dep.java"}, nil, nil)
	require.NoError(t, err)
	app, err := b.AddJar("app", "", "", domain.MachineHost, []any{"App.java"}, nil, domain.Kwargs{
		"link_with":  dep,
		"main_class": "com.example.App",
		"java_args":  []string{"-g"},
	})
	require.NoError(t, err)
	assert.Equal(t, "app.jar", app.Filename())
	assert.Equal(t, "com.example.App", app.MainClass)
	assert.Equal(t, []string{"-g"}, app.JavaArgs)
	assert.Equal(t, []string{"-cp", "dep.jar"}, b.ClasspathArgs(app))

	_, err = newJava().AddJar("bad", "", "", domain.MachineHost, []any{"App.java", "util.c"}, nil, nil)
	assert.Error(t, err)
}
