package codec

import (
	"strings"
	"time"

	"organigram/internal/containers"
	"organigram/internal/domain"
	"organigram/internal/hierarchy"
)

// ViewOptions selects what BuildView puts in a chart view
type ViewOptions struct {
	RunID       string
	GeneratedAt time.Time
	// IncludeAll keeps top-level placeholders with no real agent below them
	IncludeAll bool
	// Columns are inherited container attributes copied onto every node
	Columns []string
	// GroupFrom is a container path or display name; empty disables grouping
	GroupFrom   string
	GroupLevels []string
}

// BuildView derives the export view of a finished run
func BuildView(b *hierarchy.Builder, h *containers.Hierarchy, opts ViewOptions) *domain.ChartView {
	view := &domain.ChartView{
		RunID:       opts.RunID,
		GeneratedAt: opts.GeneratedAt,
		Roots:       make([]domain.ChartNode, 0),
	}
	for _, ref := range b.Roots(opts.IncludeAll) {
		view.Roots = append(view.Roots, buildNode(b, h, ref, opts, true))
	}
	if opts.GroupFrom != "" {
		view.Groups = buildGroups(b, h, opts)
	}
	view.Warnings = append(view.Warnings, h.Warnings()...)
	view.Warnings = append(view.Warnings, b.Warnings()...)
	return view
}

// NodeOf renders one agent without its children
func NodeOf(b *hierarchy.Builder, h *containers.Hierarchy, ref domain.Ref, columns []string) (domain.ChartNode, bool) {
	if b.Agent(ref) == nil || ref == domain.RootRef {
		return domain.ChartNode{}, false
	}
	return buildNode(b, h, ref, ViewOptions{Columns: columns}, false), true
}

func buildNode(b *hierarchy.Builder, h *containers.Hierarchy, ref domain.Ref, opts ViewOptions, deep bool) domain.ChartNode {
	a := b.Agent(ref)
	n := domain.ChartNode{
		ID:        a.ID,
		DN:        a.DN,
		LastName:  a.LastName,
		FirstName: a.FirstName,
		Email:     a.Email,
		Badge:     a.Badge,
		Title:     a.Title,
		Status:    a.Status.Names(),
		Container: a.Container(),
	}
	if a.IsVacant() {
		n.FirstName = ""
		n.Email = ""
	}
	if c := h.Nearest(a.Path); c != nil {
		n.ContainerName = c.Name
	}
	for _, col := range opts.Columns {
		if v, ok := h.AttributeValue(a.Path, col); ok {
			if n.Attributes == nil {
				n.Attributes = make(map[string]string, len(opts.Columns))
			}
			n.Attributes[strings.ToLower(col)] = v
		}
	}
	if acting := b.DisplayAgent(ref); acting != a {
		n.ActingID = acting.ID
		n.ActingName = acting.DisplayName()
	}
	for _, op := range a.OtherPosts {
		if op.Resolved() {
			n.OtherPosts = append(n.OtherPosts, op.ID)
		}
	}
	if deep {
		for _, child := range b.Children(ref) {
			n.Children = append(n.Children, buildNode(b, h, child, opts, true))
		}
	}
	return n
}

func buildGroups(b *hierarchy.Builder, h *containers.Hierarchy, opts ViewOptions) []domain.ChartGroup {
	from := opts.GroupFrom
	if !strings.Contains(from, "=") {
		path, ok := h.FindContainer(from)
		if !ok {
			return nil
		}
		from = path
	}

	refs := h.FindSubContainers(from, opts.GroupLevels, nil)
	if len(refs) == 0 {
		return nil
	}

	index := make(map[string]int, len(refs))
	groups := make([]domain.ChartGroup, 0, len(refs))
	for _, ref := range refs {
		c := h.Get(ref)
		index[c.Path] = len(groups)
		groups = append(groups, domain.ChartGroup{
			Path:      c.Path,
			Name:      c.Name,
			ShortName: c.ShortName,
			Level:     c.Attribute(h.LevelAttribute()),
			Members:   make([]domain.ChartNode, 0),
		})
	}

	// Members follow tree order so groups list managers before their reports.
	b.Walk(domain.RootRef, func(a *domain.Agent, _ int) bool {
		if a.IsPlaceholder() {
			return true
		}
		if i, ok := index[a.Container()]; ok {
			groups[i].Members = append(groups[i].Members, buildNode(b, h, a.Ref, opts, false))
		}
		return true
	})
	return groups
}
