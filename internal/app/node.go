package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/weld/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/weld/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/weld/internal/adapters/snapshot"  //nolint:depguard // Wired in app layer
	"go.trai.ch/weld/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/weld/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/weld/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.ToolchainLoaderNodeID,
			config.ProjectLoaderNodeID,
			snapshot.NodeID,
			watcher.NodeID,
			telemetry.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			telemetry.BridgeNodeID,
			logger.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	toolchains, err := graft.Dep[ports.ToolchainLoader](ctx)
	if err != nil {
		return nil, err
	}

	loader, err := graft.Dep[ports.ProjectLoader](ctx)
	if err != nil {
		return nil, err
	}

	store, err := graft.Dep[ports.SnapshotStore](ctx)
	if err != nil {
		return nil, err
	}

	w, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}

	return New(toolchains, loader, store, w, log).WithTracer(tracer), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	app, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	bridge, err := graft.Dep[*telemetry.Bridge](ctx)
	if err != nil {
		return nil, err
	}

	return &Components{App: app, Logger: log, Trace: bridge}, nil
}
