package repository

import (
	"context"

	"organigram/internal/domain"
)

// DirectoryRepository defines the interface for directory snapshot storage
type DirectoryRepository interface {
	// Read operations, shaped like a directory source
	Lookup(ctx context.Context, path string) (*domain.DirectoryEntry, error)
	Agents(ctx context.Context, base string) ([]domain.AgentRecord, error)
	Containers(ctx context.Context, base string) ([]domain.ContainerRecord, error)

	// Snapshot returns the stored directory as a whole
	Snapshot(ctx context.Context) (*domain.Snapshot, error)

	// Bulk operations
	ImportSnapshot(ctx context.Context, snap *domain.Snapshot) error

	// Close releases resources
	Close() error
}
