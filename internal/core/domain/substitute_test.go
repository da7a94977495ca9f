package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateValues_Substitute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		inputs   []string
		outputs  []string
		cmd      []string
		expected []string
	}{
		{
			name:     "whole lists",
			inputs:   []string{"a.c", "b.c"},
			outputs:  []string{"out.o"},
			cmd:      []string{"cc", "@INPUT@", "-o", "@OUTPUT@"},
			expected: []string{"cc", "a.c", "b.c", "-o", "out.o"},
		},
		{
			name:     "indexed",
			inputs:   []string{"a.c", "b.c"},
			outputs:  []string{"x.h", "x.c"},
			cmd:      []string{"@INPUT1@", "--header=@OUTPUT0@", "@OUTPUT1@"},
			expected: []string{"b.c", "--header=x.h", "x.c"},
		},
		{
			name:     "plain and base names",
			inputs:   []string{"src/gram.y"},
			outputs:  []string{"gram.c"},
			cmd:      []string{"@PLAINNAME@", "@BASENAME@.tab", "-i=@INPUT@", "@OUTDIR@"},
			expected: []string{"gram.y", "gram.tab", "-i=src/gram.y", "."},
		},
		{
			name:     "ten inputs",
			inputs:   []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10"},
			cmd:      []string{"x@INPUT10@"},
			expected: []string{"x10"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := newTemplateValues(tt.inputs, tt.outputs, "").substitute(tt.cmd)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestTemplateValues_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		inputs  []string
		outputs []string
		cmd     []string
	}{
		{name: "input without inputs", cmd: []string{"@INPUT@"}},
		{name: "basename without inputs", cmd: []string{"@BASENAME@"}},
		{name: "plainname with two inputs", inputs: []string{"a", "b"}, cmd: []string{"@PLAINNAME@"}},
		{name: "input index out of range", inputs: []string{"a"}, cmd: []string{"@INPUT3@"}},
		{name: "output without outputs", inputs: []string{"a"}, cmd: []string{"@OUTPUT@"}},
		{name: "outdir without outputs", cmd: []string{"@OUTDIR@"}},
		{name: "output index out of range", outputs: []string{"a"}, cmd: []string{"@OUTPUT2@"}},
		{name: "embedded input with two inputs", inputs: []string{"a", "b"}, cmd: []string{"-i@INPUT@"}},
		{name: "embedded output with two outputs", outputs: []string{"a", "b"}, cmd: []string{"-o@OUTPUT@"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := newTemplateValues(tt.inputs, tt.outputs, "").substitute(tt.cmd)
			assert.ErrorIs(t, err, ErrInvalidArguments)
		})
	}
}
