package domain_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/weld/internal/core/domain"
)

func TestEnvironmentVariables_Apply(t *testing.T) {
	t.Parallel()

	env := domain.NewEnvironmentVariables()
	env.Set("PATH", []string{"/opt/bin"}, ":")
	env.Append("PATH", []string{"/usr/bin", "/bin"}, ":")
	env.Prepend("PATH", []string{"/tools"}, ":")
	env.Append("NEW", []string{"a"}, ":")
	env.Prepend("FLAGS", []string{"-O2"}, " ")

	base := map[string]string{"PATH": "/ignored", "FLAGS": "-g", "HOME": "/root"}
	got := env.Apply(base)

	assert.Equal(t, map[string]string{
		"PATH":  "/tools:/opt/bin:/usr/bin:/bin",
		"NEW":   "a",
		"FLAGS": "-O2 -g",
		"HOME":  "/root",
	}, got)
	assert.Equal(t, "/ignored", base["PATH"], "base must not be modified")
	assert.Equal(t, []string{"PATH", "NEW", "FLAGS"}, env.Names())
	assert.Equal(t, 5, env.Len())
}

func TestEnvironmentVariables_TrimsSeparators(t *testing.T) {
	t.Parallel()

	env := domain.NewEnvironmentVariables()
	env.Set("LIST", []string{"", "a", ""}, ",")
	assert.Equal(t, "a", env.Apply(nil)["LIST"])
}

func TestEnvironmentVariables_Nil(t *testing.T) {
	t.Parallel()

	var env *domain.EnvironmentVariables
	assert.Equal(t, 0, env.Len())
	assert.Nil(t, env.Names())
	assert.Equal(t, map[string]string{"A": "1"}, env.Apply(map[string]string{"A": "1"}))
}

func TestEnvironmentFromValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    any
		expected map[string]string
	}{
		{name: "nil", value: nil, expected: map[string]string{}},
		{name: "string", value: "A=1", expected: map[string]string{"A": "1"}},
		{name: "list", value: []any{"A=1", []any{"B=x=y"}}, expected: map[string]string{"A": "1", "B": "x=y"}},
		{name: "string map", value: map[string]string{"A": "1"}, expected: map[string]string{"A": "1"}},
		{
			name:     "any map",
			value:    map[string]any{"A": "1", "P": []any{"x", "y"}},
			expected: map[string]string{"A": "1", "P": "x" + string(os.PathListSeparator) + "y"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env, err := domain.EnvironmentFromValue(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, env.Apply(nil))
		})
	}

	existing := domain.NewEnvironmentVariables()
	got, err := domain.EnvironmentFromValue(existing)
	require.NoError(t, err)
	assert.Same(t, existing, got)

	for _, bad := range []any{42, []any{"NOEQ"}, []any{1}, map[string]any{"A": 1}} {
		_, err := domain.EnvironmentFromValue(bad)
		assert.ErrorIs(t, err, domain.ErrInvalidArguments, "%v", bad)
	}
}
