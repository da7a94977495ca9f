// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/weld/internal/adapters/config"
	_ "go.trai.ch/weld/internal/adapters/logger"
	_ "go.trai.ch/weld/internal/adapters/snapshot"
	_ "go.trai.ch/weld/internal/adapters/telemetry"
	_ "go.trai.ch/weld/internal/adapters/watcher"
	// Register app nodes.
	_ "go.trai.ch/weld/internal/app"
)
