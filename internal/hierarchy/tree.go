package hierarchy

import (
	"github.com/pkg/errors"

	"organigram/internal/domain"
)

// Detach unlinks ref from its parent's sibling chain and clears its own
// parent and sibling links. Its children stay attached to it.
func (b *Builder) Detach(ref domain.Ref) {
	a := b.Agent(ref)
	if a == nil || ref == domain.RootRef || a.Parent == domain.NoRef {
		return
	}
	p := b.agents[a.Parent]
	if p.FirstChild == ref {
		p.FirstChild = a.NextSibling
	} else {
		for cur := p.FirstChild; cur != domain.NoRef; cur = b.agents[cur].NextSibling {
			if b.agents[cur].NextSibling == ref {
				b.agents[cur].NextSibling = a.NextSibling
				break
			}
		}
	}
	a.Parent = domain.NoRef
	a.NextSibling = domain.NoRef
}

// AttachTo links a detached agent below parent at its sorted position.
func (b *Builder) AttachTo(ref, parent domain.Ref) error {
	a, p := b.Agent(ref), b.Agent(parent)
	switch {
	case a == nil || p == nil:
		return errors.Wrapf(domain.ErrUnknownAgent, "attach %d to %d", ref, parent)
	case ref == domain.RootRef:
		return errors.New("the implicit root cannot be attached")
	case a.Parent != domain.NoRef:
		return errors.Errorf("agent %s is still attached", a.Path)
	case ref == parent || b.isDescendant(parent, ref):
		return errors.Errorf("attaching %s below %s would form a cycle", a.Path, p.Path)
	}
	b.attach(ref, parent)
	return nil
}

// attach inserts ref before the first sibling that sorts after it
func (b *Builder) attach(ref, parent domain.Ref) {
	a, p := b.agents[ref], b.agents[parent]
	a.Parent = parent

	prev := domain.NoRef
	cur := p.FirstChild
	for cur != domain.NoRef && b.order(b.agents[cur], a) <= 0 {
		prev = cur
		cur = b.agents[cur].NextSibling
	}
	a.NextSibling = cur
	if prev == domain.NoRef {
		p.FirstChild = ref
	} else {
		b.agents[prev].NextSibling = ref
	}
}

// isDescendant reports whether ref lies strictly below ancestor
func (b *Builder) isDescendant(ref, ancestor domain.Ref) bool {
	cur := b.agents[ref].Parent
	for steps := 0; cur != domain.NoRef && steps < len(b.agents); steps++ {
		if cur == ancestor {
			return true
		}
		cur = b.agents[cur].Parent
	}
	return false
}

// Children returns the direct reports of ref in sibling order
func (b *Builder) Children(ref domain.Ref) []domain.Ref {
	a := b.Agent(ref)
	if a == nil {
		return nil
	}
	var out []domain.Ref
	for cur := a.FirstChild; cur != domain.NoRef; cur = b.agents[cur].NextSibling {
		out = append(out, cur)
	}
	return out
}

// Walk visits the subtree rooted at start depth-first, parents before
// children. Returning false from fn skips the children of that agent.
func (b *Builder) Walk(start domain.Ref, fn func(a *domain.Agent, depth int) bool) {
	type frame struct {
		ref   domain.Ref
		depth int
	}
	if b.Agent(start) == nil {
		return
	}
	stack := []frame{{start, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		a := b.agents[f.ref]
		if !fn(a, f.depth) {
			continue
		}
		children := b.Children(f.ref)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{children[i], f.depth + 1})
		}
	}
}

// NextRoot returns the top-level agent following cursor, or NoRef.
// Pass NoRef to start. Unless includeAll is set, placeholders without a
// real agent below them are skipped.
func (b *Builder) NextRoot(cursor domain.Ref, includeAll bool) domain.Ref {
	var next domain.Ref
	if cursor == domain.NoRef {
		next = b.Root().FirstChild
	} else if a := b.Agent(cursor); a != nil {
		next = a.NextSibling
	} else {
		return domain.NoRef
	}
	for next != domain.NoRef {
		if includeAll || b.hasRealAgent(next) {
			return next
		}
		next = b.agents[next].NextSibling
	}
	return domain.NoRef
}

// Roots returns every top-level agent in order
func (b *Builder) Roots(includeAll bool) []domain.Ref {
	var out []domain.Ref
	for r := b.NextRoot(domain.NoRef, includeAll); r != domain.NoRef; r = b.NextRoot(r, includeAll) {
		out = append(out, r)
	}
	return out
}

// hasRealAgent reports whether ref or anyone below it is a real position
func (b *Builder) hasRealAgent(ref domain.Ref) bool {
	found := false
	b.Walk(ref, func(a *domain.Agent, _ int) bool {
		if !a.IsPlaceholder() {
			found = true
		}
		return !found
	})
	return found
}
