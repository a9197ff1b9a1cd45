package containers

import (
	"github.com/pkg/errors"

	"organigram/internal/domain"
)

// Store owns every container of a run. Index 0 is the implicit root.
type Store struct {
	nodes  []*domain.Container
	list   []domain.Ref
	byPath map[string]domain.Ref
}

// NewStore creates a store holding only the implicit root
func NewStore() *Store {
	root := &domain.Container{
		Ref:        domain.RootRef,
		Parent:     domain.NoRef,
		Attributes: make(map[string]string),
	}
	return &Store{
		nodes:  []*domain.Container{root},
		byPath: map[string]domain.Ref{"": domain.RootRef},
	}
}

// add registers a container. It returns the existing container whose
// display name collides with the new one, if any.
func (s *Store) add(rec domain.ContainerRecord) (*domain.Container, *domain.Container, error) {
	c := domain.NewContainer(rec)
	if c.Path == "" {
		return nil, nil, errors.New("container record has an empty path")
	}
	if _, exists := s.byPath[c.Path]; exists {
		return nil, nil, errors.Wrapf(domain.ErrDuplicateContainer, "path %s", c.Path)
	}

	c.Ref = domain.Ref(len(s.nodes))
	s.nodes = append(s.nodes, c)
	s.byPath[c.Path] = c.Ref

	pos := len(s.list)
	var twin *domain.Container
	for i, ref := range s.list {
		other := s.nodes[ref]
		if other.NameKey != c.NameKey || c.NameKey == "" {
			continue
		}
		twin = other
		if shorter(c.Path, other.Path) {
			pos = i
		}
		break
	}
	s.list = append(s.list, domain.NoRef)
	copy(s.list[pos+1:], s.list[pos:])
	s.list[pos] = c.Ref
	return c, twin, nil
}

// shorter orders paths by depth, then by length
func shorter(a, b string) bool {
	da, db := domain.PathDepth(a), domain.PathDepth(b)
	if da != db {
		return da < db
	}
	return len(a) < len(b)
}

// Len returns the number of containers, the implicit root excluded
func (s *Store) Len() int {
	return len(s.list)
}

// Get returns the container at ref, or nil
func (s *Store) Get(ref domain.Ref) *domain.Container {
	if !ref.Valid() || int(ref) >= len(s.nodes) {
		return nil
	}
	return s.nodes[ref]
}

// ByPath returns the container registered under path
func (s *Store) ByPath(path string) (*domain.Container, bool) {
	ref, ok := s.byPath[domain.NormalizePath(path)]
	if !ok || ref == domain.RootRef {
		return nil, false
	}
	return s.nodes[ref], true
}

// All returns the containers in backing-list order
func (s *Store) All() []*domain.Container {
	out := make([]*domain.Container, 0, len(s.list))
	for _, ref := range s.list {
		out = append(out, s.nodes[ref])
	}
	return out
}

// FindContainer returns the path of the first container, in backing-list
// order, whose display name matches name case- and accent-insensitively.
func (s *Store) FindContainer(name string) (string, bool) {
	key := domain.FoldKey(name)
	if key == "" {
		return "", false
	}
	for _, ref := range s.list {
		if c := s.nodes[ref]; c.NameKey == key {
			return c.Path, true
		}
	}
	return "", false
}
