package hierarchy

import (
	"github.com/pkg/errors"

	"organigram/internal/domain"
)

// Registry owns every agent of a run and indexes them by path and id.
// Index 0 is the implicit root.
type Registry struct {
	agents []*domain.Agent
	byPath map[string]domain.Ref
	byID   map[int64]domain.Ref
	auto   map[domain.Ref]bool
	nextID int64
}

// NewRegistry creates a registry holding only the implicit root
func NewRegistry() *Registry {
	root := domain.NewAgent("")
	root.Ref = domain.RootRef
	root.Status = domain.StatusPlaceholder
	return &Registry{
		agents: []*domain.Agent{root},
		byPath: map[string]domain.Ref{"": domain.RootRef},
		byID:   make(map[int64]domain.Ref),
		auto:   make(map[domain.Ref]bool),
	}
}

// Len returns the number of agents, the implicit root included
func (r *Registry) Len() int {
	return len(r.agents)
}

// Agent returns the agent at ref, or nil for an invalid ref
func (r *Registry) Agent(ref domain.Ref) *domain.Agent {
	if !ref.Valid() || int(ref) >= len(r.agents) {
		return nil
	}
	return r.agents[ref]
}

// Root returns the implicit root
func (r *Registry) Root() *domain.Agent {
	return r.agents[domain.RootRef]
}

// ByPath returns the agent registered under a path identifier.
// The path is normalized first.
func (r *Registry) ByPath(path string) (*domain.Agent, bool) {
	path = domain.NormalizePath(path)
	if path == "" {
		return nil, false
	}
	ref, ok := r.byPath[path]
	if !ok {
		return nil, false
	}
	return r.agents[ref], true
}

// ByID returns the agent carrying a numeric id
func (r *Registry) ByID(id int64) (*domain.Agent, bool) {
	ref, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return r.agents[ref], true
}

// Each calls fn for every agent except the root, in insertion order
func (r *Registry) Each(fn func(a *domain.Agent)) {
	for _, a := range r.agents[1:] {
		fn(a)
	}
}

// Count returns the number of non-placeholder agents
func (r *Registry) Count() int {
	n := 0
	for _, a := range r.agents[1:] {
		if !a.IsPlaceholder() {
			n++
		}
	}
	return n
}

func (r *Registry) ref(path string) (domain.Ref, bool) {
	ref, ok := r.byPath[path]
	return ref, ok && ref != domain.RootRef
}

// insert appends a to the arena and indexes it by path.
// An existing path entry is left untouched.
func (r *Registry) insert(a *domain.Agent) domain.Ref {
	ref := domain.Ref(len(r.agents))
	a.Ref = ref
	r.agents = append(r.agents, a)
	if _, taken := r.byPath[a.Path]; !taken {
		r.byPath[a.Path] = ref
	}
	return ref
}

// checkID reports whether ref (NoRef for a new agent) may take id
func (r *Registry) checkID(ref domain.Ref, id int64) error {
	if id == 0 {
		return nil
	}
	holder, ok := r.byID[id]
	if !ok || holder == ref || r.auto[holder] {
		return nil
	}
	return errors.Wrapf(domain.ErrDuplicateIdentity, "id %d already held by %s", id, r.agents[holder].Path)
}

// assignID gives ref the requested id, or a fresh one when id is 0.
// An auto-assigned holder of the requested id is renumbered.
func (r *Registry) assignID(ref domain.Ref, id int64) error {
	if err := r.checkID(ref, id); err != nil {
		return err
	}
	a := r.agents[ref]
	if id == 0 {
		if a.ID == 0 {
			a.ID = r.freeID()
			r.byID[a.ID] = ref
			r.auto[ref] = true
		}
		return nil
	}
	if a.ID == id {
		delete(r.auto, ref)
		return nil
	}

	if holder, ok := r.byID[id]; ok && holder != ref {
		h := r.agents[holder]
		h.ID = r.freeID()
		r.byID[h.ID] = holder
	}
	if a.ID != 0 {
		delete(r.byID, a.ID)
	}
	a.ID = id
	r.byID[id] = ref
	delete(r.auto, ref)
	return nil
}

func (r *Registry) freeID() int64 {
	for {
		r.nextID++
		if _, taken := r.byID[r.nextID]; !taken {
			return r.nextID
		}
	}
}
