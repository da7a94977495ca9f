package ports

import "go.trai.ch/weld/internal/core/domain"

// ToolchainLoader reads the machines and tools a build may use.
//
//go:generate mockgen -source=toolchain_loader.go -destination=mocks/mock_toolchain_loader.go -package=mocks
type ToolchainLoader interface {
	// Load reads the toolchain description of srcDir. A source tree without
	// one gets the native toolchain.
	Load(srcDir string) (*domain.Toolchain, error)
}
