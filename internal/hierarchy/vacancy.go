package hierarchy

import (
	"organigram/internal/domain"
)

// DefaultVacantLabel names synthesized vacant posts
const DefaultVacantLabel = "Vacant post"

// FindAgentIn returns the first real agent at or after start, in registry
// order, whose container is exactly prefix. It returns NoRef when none is left.
func (b *Builder) FindAgentIn(prefix string, start domain.Ref) domain.Ref {
	prefix = domain.NormalizePath(prefix)
	if start < 1 {
		start = 1
	}
	for i := int(start); i < len(b.agents); i++ {
		a := b.agents[i]
		if !a.IsPlaceholder() && a.Container() == prefix {
			return a.Ref
		}
	}
	return domain.NoRef
}

// SynthesizeVacantManager places a vacant-post placeholder above every
// member of the container at prefix. It returns nil when the container
// has no loaded member.
func (b *Builder) SynthesizeVacantManager(prefix, label string) *domain.Agent {
	prefix = domain.NormalizePath(prefix)
	first := b.FindAgentIn(prefix, 1)
	if first == domain.NoRef {
		return nil
	}

	var members []domain.Ref
	isMember := make(map[domain.Ref]bool)
	for r := first; r != domain.NoRef; r = b.FindAgentIn(prefix, r+1) {
		members = append(members, r)
		isMember[r] = true
	}

	anchor := b.agents[first].Parent
	for anchor != domain.NoRef && anchor != domain.RootRef && b.underMember(anchor, isMember) {
		anchor = b.agents[anchor].Parent
	}
	if anchor == domain.NoRef {
		anchor = domain.RootRef
	}

	if label == "" {
		label = DefaultVacantLabel
	}
	v := domain.NewAgent("cn=" + label + "," + prefix)
	v.SetName(label, "")
	v.Status = domain.StatusPlaceholder | domain.StatusVacant
	ref := b.insert(v)
	_ = b.assignID(ref, 0)
	b.attach(ref, anchor)

	for _, m := range members {
		b.Detach(m)
		b.attach(m, ref)
	}
	b.log.WithField("path", prefix).Debugf("synthesized vacant manager over %d agents", len(members))
	return v
}

// underMember reports whether ref is a member or lies below one
func (b *Builder) underMember(ref domain.Ref, isMember map[domain.Ref]bool) bool {
	for steps := 0; ref != domain.NoRef && steps < len(b.agents); steps++ {
		if isMember[ref] {
			return true
		}
		ref = b.agents[ref].Parent
	}
	return false
}
