package adapter

import (
	"context"

	"organigram/internal/domain"
)

// Directory defines the interface for directory sources
type Directory interface {
	// Name identifies the source in logs
	Name() string

	// Lookup fetches one entry by path identifier.
	// It returns nil, nil when the directory does not know the path.
	Lookup(ctx context.Context, path string) (*domain.DirectoryEntry, error)

	// Agents returns the agent records at or below base, in source order
	Agents(ctx context.Context, base string) ([]domain.AgentRecord, error)

	// Containers returns the container records at or below base, in source order
	Containers(ctx context.Context, base string) ([]domain.ContainerRecord, error)

	// Close releases the source
	Close() error
}

// LookupFunc is a context-free lookup bound to one run
type LookupFunc func(path string) (*domain.DirectoryEntry, error)

// Bind adapts a Directory to the synchronous lookup the hierarchy builder
// consumes. Every call uses ctx.
func Bind(ctx context.Context, dir Directory) LookupFunc {
	return func(path string) (*domain.DirectoryEntry, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return dir.Lookup(ctx, path)
	}
}
