package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"go.trai.ch/weld/internal/app"
	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/weld/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

type testMocks struct {
	toolchains *mocks.MockToolchainLoader
	loader     *mocks.MockProjectLoader
	store      *mocks.MockSnapshotStore
	watcher    *mocks.MockWatcher
	logger     *mocks.MockLogger
}

func newProvider(t *testing.T) (*testMocks, ComponentProvider) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := &testMocks{
		toolchains: mocks.NewMockToolchainLoader(ctrl),
		loader:     mocks.NewMockProjectLoader(ctrl),
		store:      mocks.NewMockSnapshotStore(ctrl),
		watcher:    mocks.NewMockWatcher(ctrl),
		logger:     mocks.NewMockLogger(ctrl),
	}
	application := app.New(m.toolchains, m.loader, m.store, m.watcher, m.logger)
	return m, func(_ context.Context) (*app.Components, func(), error) {
		return &app.Components{App: application, Logger: m.logger}, func() {}, nil
	}
}

// TestRun_Success verifies that the run function returns 0 when the command succeeds.
func TestRun_Success(t *testing.T) {
	_, provider := newProvider(t)

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provider)
	assert.Equal(t, 0, exitCode)
}

// TestRun_InitializationError verifies that run returns 1 when component initialization fails.
func TestRun_InitializationError(t *testing.T) {
	provider := func(_ context.Context) (*app.Components, func(), error) {
		return nil, nil, errors.New("init failed")
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provider)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Error: init failed")
}

// TestRun_ExecutionError verifies that run logs the error and returns 1.
func TestRun_ExecutionError(t *testing.T) {
	m, provider := newProvider(t)
	srcDir := t.TempDir()

	m.loader.EXPECT().DiscoverConfigPaths(srcDir).Return(nil, domain.ErrConfigNotFound)
	m.logger.EXPECT().Error(gomock.Any()).Do(func(err error) {
		assert.ErrorIs(t, err, domain.ErrConfigNotFound)
	})

	exitCode := run(context.Background(), []string{"configure", srcDir}, new(bytes.Buffer), provider)
	assert.Equal(t, 1, exitCode)
}

// TestRun_Describe verifies that options reach the app.
func TestRun_Describe(t *testing.T) {
	m, provider := newProvider(t)
	buildDir := filepath.Join(t.TempDir(), "out")

	m.store.EXPECT().Load(buildDir).Return(nil, domain.ErrSnapshotNotFound)
	m.logger.EXPECT().Error(gomock.Any())

	exitCode := run(context.Background(), []string{"describe", "-B", buildDir, "--json"}, new(bytes.Buffer), provider,
		func(a *app.App) {
			a.WithColorProfile(func() termenv.Profile { return termenv.Ascii })
		})
	assert.Equal(t, 1, exitCode)
}

// TestRun_Canceled verifies that a canceled context stops configuring.
func TestRun_Canceled(t *testing.T) {
	m, provider := newProvider(t)
	srcDir := t.TempDir()

	tc := &domain.Toolchain{}
	m.loader.EXPECT().DiscoverConfigPaths(srcDir).Return(map[string]int64{}, nil)
	m.toolchains.EXPECT().Load(srcDir).Return(tc, nil)
	m.loader.EXPECT().Load(gomock.Any(), tc, gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ *domain.Toolchain, _ *domain.Environment, _ ...domain.BuildOption) (*domain.Build, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})
	m.logger.EXPECT().Error(gomock.Any()).Do(func(err error) {
		assert.ErrorIs(t, err, context.Canceled)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exitCode := run(ctx, []string{"configure", srcDir, "--force"}, new(bytes.Buffer), provider)
	assert.Equal(t, 1, exitCode)
}
