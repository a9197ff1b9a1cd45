package adapter

import (
	"context"

	"organigram/internal/domain"
	"organigram/internal/loader"
)

// SnapshotDirectory serves a directory snapshot held in memory
type SnapshotDirectory struct {
	name    string
	snap    *domain.Snapshot
	entries map[string]domain.DirectoryEntry
}

// SnapshotOption is a functional option for configuring SnapshotDirectory
type SnapshotOption func(*SnapshotDirectory)

// WithName sets the source name reported in logs
func WithName(name string) SnapshotOption {
	return func(s *SnapshotDirectory) {
		s.name = name
	}
}

// NewSnapshotDirectory indexes snap for lookups
func NewSnapshotDirectory(snap *domain.Snapshot, opts ...SnapshotOption) *SnapshotDirectory {
	s := &SnapshotDirectory{
		name:    "snapshot",
		snap:    snap,
		entries: make(map[string]domain.DirectoryEntry, len(snap.Agents)),
	}
	for _, a := range snap.Agents {
		path := domain.NormalizePath(a.DN)
		if _, dup := s.entries[path]; !dup {
			s.entries[path] = a.Entry()
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenYAML loads a YAML snapshot file as a directory
func OpenYAML(_ context.Context, path string) (Directory, error) {
	snap, err := loader.LoadSnapshot(path)
	if err != nil {
		return nil, err
	}
	return NewSnapshotDirectory(snap, WithName("yaml:"+path)), nil
}

// Name returns the source name
func (s *SnapshotDirectory) Name() string {
	return s.name
}

// Lookup returns the entry for path, or nil when unknown
func (s *SnapshotDirectory) Lookup(ctx context.Context, path string) (*domain.DirectoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, ok := s.entries[domain.NormalizePath(path)]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

// Agents returns the agent records within base
func (s *SnapshotDirectory) Agents(ctx context.Context, base string) ([]domain.AgentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base = domain.NormalizePath(base)
	out := make([]domain.AgentRecord, 0, len(s.snap.Agents))
	for _, a := range s.snap.Agents {
		if domain.IsWithin(domain.NormalizePath(a.DN), base) {
			out = append(out, a)
		}
	}
	return out, nil
}

// Containers returns the container records within base
func (s *SnapshotDirectory) Containers(ctx context.Context, base string) ([]domain.ContainerRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base = domain.NormalizePath(base)
	out := make([]domain.ContainerRecord, 0, len(s.snap.Containers))
	for _, c := range s.snap.Containers {
		if domain.IsWithin(domain.NormalizePath(c.DN), base) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Close is a no-op
func (s *SnapshotDirectory) Close() error {
	return nil
}
