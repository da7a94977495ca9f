package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/weld/internal/core/domain"
)

func TestAddRunTarget(t *testing.T) {
	t.Parallel()

	b := newBuild(t)
	tool, err := b.AddExecutable("tool", "", "", domain.MachineBuild, []any{"tool.c"}, nil, nil)
	require.NoError(t, err)
	docs, err := b.AddCustomTarget("docs", "", "", domain.Kwargs{"output": "index.html", "command": []any{"doc"}})
	require.NoError(t, err)

	rt, err := b.AddRunTarget("lint", "", "", domain.Kwargs{
		"command": []any{tool, "--check"},
		"depends": []any{docs, tool},
		"env":     []string{"MODE=strict"},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.KindRun, rt.Kind())
	assert.Equal(t, domain.MachineBuild, rt.ForMachine)
	assert.False(t, rt.BuildByDefault)
	assert.False(t, rt.IsLinkable())
	assert.Equal(t, []string{"lint"}, rt.Outputs())
	assert.Equal(t, []domain.TargetID{tool.ID(), docs.ID()}, rt.Dependencies)
	assert.Equal(t, []string{"tool", "--check"}, b.CommandStrings(rt.Command))
	assert.Equal(t, map[string]string{"MODE": "strict"}, rt.Env.Apply(nil))
}

func TestAddRunTarget_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		kw   domain.Kwargs
	}{
		{name: "no command", kw: domain.Kwargs{}},
		{name: "string program", kw: domain.Kwargs{"command": []any{"echo", "hi"}}},
		{name: "missing program", kw: domain.Kwargs{"command": []any{domain.NewExternalProgram("nope")}}},
		{
			name: "depends on non target",
			kw: domain.Kwargs{
				"command": []any{domain.NewExternalProgram("echo", "/bin/echo")},
				"depends": []any{"file.txt"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := newBuild(t)
			_, err := b.AddRunTarget("run", "", "", tt.kw)
			assert.ErrorIs(t, err, domain.ErrInvalidArguments)
		})
	}
}

func TestAddRunTarget_RejectsRunDependency(t *testing.T) {
	t.Parallel()

	b := newBuild(t)
	echo := domain.NewExternalProgram("echo", "/bin/echo")
	first, err := b.AddRunTarget("first", "", "", domain.Kwargs{"command": []any{echo}})
	require.NoError(t, err)

	_, err = b.AddRunTarget("second", "", "", domain.Kwargs{"command": []any{echo}, "depends": first})
	assert.ErrorIs(t, err, domain.ErrInvalidArguments)
}

func TestAddAliasTarget(t *testing.T) {
	t.Parallel()

	b := newBuild(t)
	lib := mustStatic(t, b, "core", []any{"core.c"}, nil)
	exe, err := b.AddExecutable("app", "", "", domain.MachineHost, []any{"main.c"}, nil, nil)
	require.NoError(t, err)

	alias, err := b.AddAliasTarget("everything", "", "", lib, []any{exe, lib})
	require.NoError(t, err)
	assert.Equal(t, domain.KindAlias, alias.Kind())
	assert.Equal(t, []domain.TargetID{lib.ID(), exe.ID()}, alias.Dependencies)
	assert.Equal(t, []string{"everything"}, alias.Outputs())

	_, err = b.AddAliasTarget("empty", "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidArguments)
}
