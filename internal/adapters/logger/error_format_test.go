package logger_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/weld/internal/adapters/logger"
	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestCollectErrorEntries(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantMessages []string
		wantMetadata []map[string]any
	}{
		{
			name:         "single standard error",
			err:          errors.New("simple error"),
			wantMessages: []string{"simple error"},
			wantMetadata: []map[string]any{nil},
		},
		{
			name: "zerr single error",
			err:  zerr.New("zerr error"),
			wantMessages: []string{
				"zerr error",
			},
			wantMetadata: []map[string]any{{}},
		},
		{
			name: "zerr wrapped chain",
			err: zerr.Wrap(
				zerr.Wrap(
					errors.New("root cause"),
					"middle layer",
				),
				"outer layer",
			),
			wantMessages: []string{
				"outer layer",
				"middle layer",
				"root cause",
			},
			wantMetadata: []map[string]any{{}, {}, nil},
		},
		{
			name: "zerr with metadata",
			err: zerr.With(
				zerr.With(
					zerr.New("base error"),
					"key1", "value1",
				),
				"key2", 42,
			),
			wantMessages: []string{"base error"},
			wantMetadata: []map[string]any{
				{"key1": "value1", "key2": 42},
			},
		},
		{
			name: "mixed chain with partial metadata",
			err: func() error {
				inner := zerr.With(zerr.New("inner"), "inner_key", "inner_val")
				outer := zerr.Wrap(inner, "outer")
				outer = zerr.With(outer, "outer_key", "outer_val")
				return outer
			}(),
			wantMessages: []string{"outer", "inner"},
			wantMetadata: []map[string]any{
				{"outer_key": "outer_val"},
				{"inner_key": "inner_val"},
			},
		},
		{
			name: "tag without message moves its metadata to the cause",
			err: zerr.With(
				zerr.Wrap(zerr.Wrap(domain.ErrConfigInvariant, "machine mismatch"), ""),
				"target", "app",
			),
			wantMessages: []string{"machine mismatch", "invalid configuration"},
			wantMetadata: []map[string]any{{"target": "app"}, {}},
		},
		{
			name:         "metadata on a standard error",
			err:          zerr.With(errors.New("permission denied"), "path", "/src/weld.yaml"),
			wantMessages: []string{"permission denied"},
			wantMetadata: []map[string]any{{"path": "/src/weld.yaml"}},
		},
		{
			name:         "nil error handling",
			err:          nil,
			wantMessages: nil,
			wantMetadata: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := logger.CollectErrorEntriesExported(tt.err)

			if tt.err == nil {
				assert.Empty(t, entries, "nil error should produce no entries")
				return
			}

			assert.Len(t, entries, len(tt.wantMessages), "entry count mismatch")
			assert.Len(t, tt.wantMetadata, len(tt.wantMessages), "metadata count mismatch")

			for i, wantMsg := range tt.wantMessages {
				assert.Equal(t, wantMsg, entries[i].Message, "message mismatch at index %d", i)
				assert.Equal(t, tt.wantMetadata[i], entries[i].Metadata, "metadata mismatch at index %d", i)
			}
		})
	}
}

func TestFormatErrorEntries(t *testing.T) {
	tests := []struct {
		name    string
		entries []logger.ErrorEntry
		want    string
	}{
		{
			name:    "no entries",
			entries: nil,
			want:    "",
		},
		{
			name:    "lone error with sorted metadata",
			entries: []logger.ErrorEntry{{Message: "unknown target kind", Metadata: map[string]any{"kind": "dll", "file": "weld.yaml"}}},
			want:    "Error: unknown target kind\n       file: weld.yaml\n       kind: dll",
		},
		{
			name: "causes are listed under the main error",
			entries: []logger.ErrorEntry{
				{Message: "failed to load project"},
				{Message: "tried to create target \"app\", but a target of that name already exists"},
				{Message: "target already exists", Metadata: map[string]any{"subdir": "lib"}},
			},
			want: "Error: failed to load project\n\n" +
				"  Caused by:\n" +
				"    → tried to create target \"app\", but a target of that name already exists\n" +
				"    → target already exists\n" +
				"      subdir: lib",
		},
		{
			name: "multiline messages keep their indent",
			entries: []logger.ErrorEntry{
				{Message: "dependency cycle\napp@exe -> util@sta"},
				{Message: "util@sta -> app@exe\nback to start"},
			},
			want: "Error: dependency cycle\n       app@exe -> util@sta\n\n" +
				"  Caused by:\n    → util@sta -> app@exe\n      back to start",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.FormatErrorEntriesExported(tt.entries))
		})
	}
}

func TestCollectAndFormat_DomainErrors(t *testing.T) {
	err := zerr.Wrap(
		zerr.With(zerr.Wrap(domain.ErrSnapshotNotFound, "no configured build"), "path", "/src/builddir"),
		"run 'weld configure' first",
	)

	got := logger.FormatErrorEntriesExported(logger.CollectErrorEntriesExported(err))
	assert.Equal(t, "Error: run 'weld configure' first\n\n"+
		"  Caused by:\n"+
		"    → no configured build\n"+
		"      path: /src/builddir\n"+
		"    → "+domain.ErrSnapshotNotFound.Error(), got)
	assert.True(t, errors.Is(err, domain.ErrSnapshotNotFound))
}
