package ports

import "go.trai.ch/weld/internal/core/domain"

// SnapshotStore persists configured builds.
//
//go:generate mockgen -source=snapshot_store.go -destination=mocks/mock_snapshot_store.go -package=mocks
type SnapshotStore interface {
	// Save writes the frozen build b into buildDir.
	Save(buildDir string, b *domain.Build) error

	// Load reads the build saved in buildDir. It fails with
	// domain.ErrSnapshotNotFound, domain.ErrSnapshotCorrupt or
	// domain.ErrSnapshotStale.
	Load(buildDir string) (*domain.Build, error)
}
