package ports

import (
	"context"

	"go.trai.ch/weld/internal/core/domain"
)

// ProjectLoader turns the project description files of a source tree into
// a build.
//
//go:generate mockgen -source=project_loader.go -destination=mocks/mock_project_loader.go -package=mocks
type ProjectLoader interface {
	// Load declares every target described below env.SourceDir on a new
	// build. Programs and static linkers are looked up in tc. The returned
	// build is not frozen.
	Load(ctx context.Context, tc *domain.Toolchain, env *domain.Environment, opts ...domain.BuildOption) (*domain.Build, error)

	// DiscoverConfigPaths finds the project files of a source tree and their
	// modification times in UnixNano.
	DiscoverConfigPaths(srcDir string) (map[string]int64, error)
}
