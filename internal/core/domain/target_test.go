package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestConstructID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		subdir   string
		target   string
		suffix   string
		expected domain.TargetID
	}{
		{name: "top level", target: "foo", suffix: "@exe", expected: "foo@exe"},
		{name: "separator in name", target: "a/b", suffix: "@cus", expected: "a@b@cus"},
		{name: "subdir", subdir: "sub", target: "foo", suffix: "@sta", expected: "ddc6e2b@@foo@sta"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, domain.ConstructID(tt.subdir, tt.target, tt.suffix))
		})
	}
}

func TestConstructID_Deterministic(t *testing.T) {
	t.Parallel()

	a := domain.ConstructID("lib/sub", "foo", "@sha")
	b := domain.ConstructID("lib/sub", "foo", "@sha")
	other := domain.ConstructID("lib/other", "foo", "@sha")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, other)
	assert.Regexp(t, `^[0-9a-f]{7}@@foo@sha$`, string(a))
}

func TestParseOverrides(t *testing.T) {
	t.Parallel()

	got, err := domain.ParseOverrides([]string{"b_lto = true", "cpp_std=c++17", "b_lto=false"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"b_lto": "false", "cpp_std": "c++17"}, got)

	_, err = domain.ParseOverrides([]string{"novalue"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidArguments))
	var zErr *zerr.Error
	require.True(t, errors.As(err, &zErr))
	assert.Equal(t, "novalue", zErr.Metadata()["override"])
}

func TestTargetName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		target string
	}{
		{name: "empty", target: ""},
		{name: "slash", target: "a/b"},
		{name: "backslash", target: `a\b`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := newBuild(t, "main.c")
			_, err := b.AddExecutable(tt.target, "", "", domain.MachineHost, []any{"main.c"}, nil, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidArguments)
		})
	}
}

func TestOverrideOptions_SplitByLanguage(t *testing.T) {
	t.Parallel()

	b := newBuild(t, "main.c")
	exe, err := b.AddExecutable("app", "", "", domain.MachineHost, []any{"main.c"}, nil, domain.Kwargs{
		"override_options": []string{"c_std=c11", "werror=true"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"werror": "true"}, exe.OptionOverrides)
	assert.Equal(t, map[string]map[string]string{"c": {"std": "c11"}}, exe.CompilerOptionOverrides)
}

func TestBuildByDefault(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		kw       domain.Kwargs
		expected bool
	}{
		{name: "default", kw: nil, expected: true},
		{name: "explicit false", kw: domain.Kwargs{"build_by_default": false}, expected: false},
		{name: "install forces true", kw: domain.Kwargs{"install": true}, expected: true},
		{name: "explicit wins over install", kw: domain.Kwargs{"install": true, "build_by_default": false}, expected: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := newBuild(t, "main.c")
			exe, err := b.AddExecutable("app", "", "", domain.MachineHost, []any{"main.c"}, nil, tt.kw)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, exe.BuildByDefault)
		})
	}
}

func TestRegister_Duplicate(t *testing.T) {
	t.Parallel()

	b := newBuild(t, "main.c")
	_, err := b.AddExecutable("app", "", "", domain.MachineHost, []any{"main.c"}, nil, nil)
	require.NoError(t, err)
	_, err = b.AddExecutable("app", "", "", domain.MachineHost, []any{"main.c"}, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTargetAlreadyExists)

	// Same name, other kind: distinct id.
	_, err = b.AddStaticLibrary("app", "", "", domain.MachineHost, []any{"main.c"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Len())
}

func TestUnknownKwargs_Warn(t *testing.T) {
	t.Parallel()

	var sink []string
	b := domain.NewBuild(newEnv("main.c"), domain.WithWarningSink(func(msg string) { sink = append(sink, msg) }))
	_, err := b.AddExecutable("app", "", "", domain.MachineHost, []any{"main.c"}, nil, domain.Kwargs{
		"bogus": 1, "another": "x",
	})
	require.NoError(t, err)
	require.Len(t, b.Warnings(), 1)
	assert.Equal(t, "Unknown keyword argument(s) in target app: another, bogus.", b.Warnings()[0])
	assert.Equal(t, b.Warnings(), sink)
}
