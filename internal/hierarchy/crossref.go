package hierarchy

import (
	"github.com/pkg/errors"

	"organigram/internal/domain"
)

// FindOtherPostIDs resolves the other-post references of every real agent
// against the loaded registry. Unresolved references are dropped.
func (b *Builder) FindOtherPostIDs() {
	for _, a := range b.agents[1:] {
		if a.IsPlaceholder() || len(a.OtherPosts) == 0 {
			continue
		}
		kept := a.OtherPosts[:0]
		for _, op := range a.OtherPosts {
			ref, ok := b.ref(op.Path)
			if !ok || b.agents[ref].IsPlaceholder() {
				b.warn(domain.WarnUnresolvableOtherPost, a.Path, op.Path)
				continue
			}
			op.ID = b.agents[ref].ID
			kept = append(kept, op)
		}
		a.OtherPosts = kept
	}
}

// ResolveReplacements links every agent carrying a replacement reference
// to the nominal occupant it stands in for. Only loaded agents are considered.
func (b *Builder) ResolveReplacements() {
	for _, a := range b.agents[1:] {
		if a.IsPlaceholder() || a.ReplacesPath == "" {
			continue
		}
		ref, ok := b.ref(a.ReplacesPath)
		if !ok {
			b.warn(domain.WarnUnresolvableReplacement, a.Path, a.ReplacesPath)
			continue
		}
		if err := b.LinkReplacement(a.Ref, ref); err != nil {
			b.warn(domain.WarnUnresolvableReplacement, a.Path, err.Error())
		}
	}
}

// LinkReplacement records that occupant temporarily stands in for nominal.
// Each agent takes part in at most one pair per direction.
func (b *Builder) LinkReplacement(occupant, nominal domain.Ref) error {
	o, n := b.Agent(occupant), b.Agent(nominal)
	switch {
	case o == nil || n == nil || occupant == domain.RootRef || nominal == domain.RootRef:
		return errors.Wrapf(domain.ErrUnknownAgent, "replacement %d for %d", occupant, nominal)
	case occupant == nominal:
		return errors.Wrapf(domain.ErrReplacementConflict, "%s cannot replace itself", o.Path)
	case o.Replaces == nominal && n.ReplacedBy == occupant:
		return nil
	case o.Replaces != domain.NoRef:
		return errors.Wrapf(domain.ErrReplacementConflict, "%s already replaces %s", o.Path, b.agents[o.Replaces].Path)
	case n.ReplacedBy != domain.NoRef:
		return errors.Wrapf(domain.ErrReplacementConflict, "%s already replaced by %s", n.Path, b.agents[n.ReplacedBy].Path)
	}
	o.Replaces = nominal
	n.ReplacedBy = occupant
	return nil
}

// DisplayAgent returns the agent to show at ref's position: the temporary
// occupant when ref is replaced, else ref itself.
func (b *Builder) DisplayAgent(ref domain.Ref) *domain.Agent {
	a := b.Agent(ref)
	if a == nil {
		return nil
	}
	if by := b.Agent(a.ReplacedBy); by != nil {
		return by
	}
	return a
}
