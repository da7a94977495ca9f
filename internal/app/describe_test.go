package app_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/muesli/termenv"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/weld/internal/adapters/detector"
	"go.trai.ch/weld/internal/app"
	"go.trai.ch/weld/internal/core/domain"
)

func describe(t *testing.T, opts app.DescribeOptions) ([]byte, error) {
	t.Helper()
	f := newFixture(t)
	opts.BuildDir = f.buildDir
	f.store.EXPECT().Load(f.buildDir).Return(sampleBuild(t, f.srcDir, f.buildDir), nil)

	var buf bytes.Buffer
	err := f.app.
		WithColorProfile(func() termenv.Profile { return termenv.Ascii }).
		WithOutputMode(detector.ModeColor).
		WithWorkers(2).
		Describe(context.Background(), &buf, opts)
	return buf.Bytes(), err
}

func TestApp_Describe_Text(t *testing.T) {
	t.Parallel()

	out, err := describe(t, app.DescribeOptions{})
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "describe_text", out)
}

func TestApp_Describe_JSON(t *testing.T) {
	t.Parallel()

	out, err := describe(t, app.DescribeOptions{JSON: true, Targets: []string{"api", "everything@run"}})
	require.NoError(t, err)

	var descs []app.TargetDescription
	require.NoError(t, json.Unmarshal(out, &descs))
	require.Len(t, descs, 2)

	api := descs[0]
	assert.Equal(t, "api@sha", api.ID)
	assert.Equal(t, "shared library", api.Kind)
	assert.Equal(t, []string{"libapi.so.1.2.3"}, api.Outputs)
	assert.Equal(t, map[string]string{"libapi.so": "libapi.so.1", "libapi.so.1": "libapi.so.1.2.3"}, api.Aliases)
	assert.Equal(t, "ld.bfd", api.Linker)
	assert.Equal(t, []string{"core@sta"}, api.Depends)
	assert.Equal(t, []string{"lib"}, api.InstallDirs)

	alias := descs[1]
	assert.Equal(t, "alias", alias.Kind)
	assert.Equal(t, "build", alias.Machine)
	assert.False(t, alias.BuildByDefault)
	assert.Empty(t, alias.Linker)
	assert.Equal(t, []string{"app@exe"}, alias.Depends)
}

func TestApp_Describe_Color(t *testing.T) {
	t.Setenv("NO_COLOR", "")

	tests := []struct {
		name   string
		flag   string
		mode   detector.OutputMode
		styled bool
	}{
		{name: "auto on a terminal", flag: "auto", mode: detector.ModeColor, styled: true},
		{name: "auto in a pipe", flag: "auto", mode: detector.ModePlain, styled: false},
		{name: "always", flag: "always", mode: detector.ModePlain, styled: true},
		{name: "never", flag: "never", mode: detector.ModeColor, styled: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.store.EXPECT().Load(f.buildDir).Return(sampleBuild(t, f.srcDir, f.buildDir), nil)

			var buf bytes.Buffer
			err := f.app.
				WithColorProfile(func() termenv.Profile { return termenv.TrueColor }).
				WithOutputMode(tt.mode).
				Describe(context.Background(), &buf, app.DescribeOptions{
					BuildDir: f.buildDir,
					Targets:  []string{"app"},
					Color:    tt.flag,
				})
			require.NoError(t, err)
			assert.Equal(t, tt.styled, strings.Contains(buf.String(), "\x1b["))
			assert.Contains(t, buf.String(), "app@exe")
		})
	}
}

func TestApp_Describe_Errors(t *testing.T) {
	t.Parallel()

	t.Run("unknown target", func(t *testing.T) {
		t.Parallel()
		_, err := describe(t, app.DescribeOptions{Targets: []string{"nope"}})
		require.ErrorIs(t, err, domain.ErrTargetNotFound)
	})

	t.Run("not configured", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.store.EXPECT().Load(f.buildDir).Return(nil, domain.ErrSnapshotNotFound)
		err := f.app.Describe(context.Background(), &bytes.Buffer{}, app.DescribeOptions{BuildDir: f.buildDir})
		require.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})
}

func TestDescribeTarget_LinkClosure(t *testing.T) {
	t.Parallel()

	b := sampleBuild(t, "/src", "/build")
	exe, err := b.Target("app@exe")
	require.NoError(t, err)

	d, err := app.DescribeTarget(b, exe)
	require.NoError(t, err)
	assert.Equal(t, "app", d.Filename)
	assert.Equal(t, []string{"api@sha"}, d.LinkDeps)
	assert.Equal(t, []string{"api@sha", "gen@cus"}, d.Depends)
	assert.Equal(t, []string{"bin"}, d.InstallDirs)
	assert.True(t, d.BuildByDefault)
}
