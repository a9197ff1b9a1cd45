package hierarchy

import (
	"fmt"

	"organigram/internal/domain"
)

// fakeDirectory answers lookups from a fixed table and records every call
type fakeDirectory struct {
	entries map[string]domain.DirectoryEntry
	calls   map[string]int
	err     error
}

func newFakeDirectory(entries ...domain.DirectoryEntry) *fakeDirectory {
	d := &fakeDirectory{
		entries: make(map[string]domain.DirectoryEntry),
		calls:   make(map[string]int),
	}
	for _, e := range entries {
		d.entries[domain.NormalizePath(e.DN)] = e
	}
	return d
}

func (d *fakeDirectory) Lookup(path string) (*domain.DirectoryEntry, error) {
	d.calls[path]++
	if d.err != nil {
		return nil, d.err
	}
	e, ok := d.entries[path]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (d *fakeDirectory) totalCalls() int {
	n := 0
	for _, c := range d.calls {
		n += c
	}
	return n
}

func record(id int64, dn, last, first, manager string) domain.AgentRecord {
	return domain.AgentRecord{DN: dn, ID: id, LastName: last, FirstName: first, Manager: manager}
}

func mustAdd(b *Builder, rec domain.AgentRecord) *domain.Agent {
	a, err := b.Add(rec)
	if err != nil {
		panic(fmt.Sprintf("add %s: %v", rec.DN, err))
	}
	return a
}

func childPaths(b *Builder, ref domain.Ref) []string {
	var out []string
	for _, c := range b.Children(ref) {
		out = append(out, b.Agent(c).Path)
	}
	return out
}

func warningsOf(b *Builder, kind domain.WarningKind) []domain.Warning {
	var out []domain.Warning
	for _, w := range b.Warnings() {
		if w.Kind == kind {
			out = append(out, w)
		}
	}
	return out
}

// checkTree verifies the structural invariants of the forest
func checkTree(b *Builder) error {
	seen := make(map[domain.Ref]int)
	for i := 0; i < b.Len(); i++ {
		ref := domain.Ref(i)
		var prev *domain.Agent
		steps := 0
		for cur := b.Agent(ref).FirstChild; cur != domain.NoRef; cur = b.Agent(cur).NextSibling {
			if steps++; steps > b.Len() {
				return fmt.Errorf("sibling chain of %d loops", ref)
			}
			c := b.Agent(cur)
			if c.Parent != ref {
				return fmt.Errorf("%s listed under %d but parent is %d", c.Path, ref, c.Parent)
			}
			seen[cur]++
			if prev != nil && b.order(prev, c) > 0 {
				return fmt.Errorf("siblings %s and %s out of order", prev.Path, c.Path)
			}
			prev = c
		}
	}
	for i := 1; i < b.Len(); i++ {
		ref := domain.Ref(i)
		if seen[ref] != 1 {
			return fmt.Errorf("%s appears %d times in sibling chains", b.Agent(ref).Path, seen[ref])
		}
		cur, steps := ref, 0
		for cur != domain.RootRef {
			if steps++; steps > b.Len() || cur == domain.NoRef {
				return fmt.Errorf("%s is not connected to the root", b.Agent(ref).Path)
			}
			cur = b.Agent(cur).Parent
		}
	}
	return nil
}
