package config

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/weld/internal/adapters/logger"
	"go.trai.ch/weld/internal/core/ports"
)

const (
	// ProjectLoaderNodeID is the unique identifier for the project loader Graft node.
	ProjectLoaderNodeID graft.ID = "adapter.project_loader"
	// ToolchainLoaderNodeID is the unique identifier for the toolchain loader Graft node.
	ToolchainLoaderNodeID graft.ID = "adapter.toolchain_loader"
)

func init() {
	graft.Register(graft.Node[ports.ProjectLoader]{
		ID:        ProjectLoaderNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.ProjectLoader, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewLoader(log), nil
		},
	})

	graft.Register(graft.Node[ports.ToolchainLoader]{
		ID:        ToolchainLoaderNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ToolchainLoader, error) {
			return NewToolchainLoader(), nil
		},
	})
}
