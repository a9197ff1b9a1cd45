package containers

import (
	"strings"

	"github.com/sirupsen/logrus"

	"organigram/internal/domain"
)

// DefaultLevelAttribute is the attribute holding a container's level
const DefaultLevelAttribute = "level"

// Hierarchy chains containers into a tree and resolves inherited attributes
type Hierarchy struct {
	*Store

	log       logrus.FieldLogger
	levelAttr string
	defaults  map[string]string
	warnings  []domain.Warning
}

// Option configures a Hierarchy
type Option func(*Hierarchy)

// WithLogger sets the logger used for warnings
func WithLogger(log logrus.FieldLogger) Option {
	return func(h *Hierarchy) {
		if log != nil {
			h.log = log
		}
	}
}

// WithLevelAttribute names the attribute FindSubContainers groups by
func WithLevelAttribute(name string) Option {
	return func(h *Hierarchy) {
		if name != "" {
			h.levelAttr = strings.ToLower(name)
		}
	}
}

// New creates an empty Hierarchy
func New(opts ...Option) *Hierarchy {
	h := &Hierarchy{
		Store:     NewStore(),
		log:       logrus.StandardLogger(),
		levelAttr: DefaultLevelAttribute,
		defaults:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Warnings returns the anomalies recorded so far
func (h *Hierarchy) Warnings() []domain.Warning {
	return h.warnings
}

// LevelAttribute returns the attribute name used for levels
func (h *Hierarchy) LevelAttribute() string {
	return h.levelAttr
}

// Add loads one container record. A path loaded twice is rejected with
// domain.ErrDuplicateContainer; a display name shared with another path is
// kept and only reported.
func (h *Hierarchy) Add(rec domain.ContainerRecord) (*domain.Container, error) {
	c, twin, err := h.add(rec)
	if err != nil {
		h.warn(domain.WarnDuplicateContainer, domain.NormalizePath(rec.DN), err.Error())
		return nil, err
	}
	if twin != nil {
		h.warn(domain.WarnDuplicateContainerName, c.Path, twin.Path)
	}
	return c, nil
}

// RegisterAttribute declares an inheritable attribute and its fallback value
func (h *Hierarchy) RegisterAttribute(name, defaultValue string) {
	h.defaults[strings.ToLower(name)] = defaultValue
}

// Chain assigns a parent to every unparented container: the nearest known
// container found by stripping leading path segments, else the implicit root.
func (h *Hierarchy) Chain() {
	for _, ref := range h.list {
		c := h.nodes[ref]
		if c.Parent != domain.NoRef {
			continue
		}
		if p := h.enclosing(domain.ParentPath(c.Path)); p != domain.NoRef {
			c.Parent = p
			continue
		}
		c.Parent = domain.RootRef
		h.warn(domain.WarnOrphanContainer, c.Path, "no enclosing container")
	}
}

// enclosing returns the container at path or the closest one above it
func (h *Hierarchy) enclosing(path string) domain.Ref {
	for ; path != ""; path = domain.ParentPath(path) {
		if ref, ok := h.byPath[path]; ok {
			return ref
		}
	}
	return domain.NoRef
}

// Nearest returns the container enclosing path (path itself when it is a
// container), or nil
func (h *Hierarchy) Nearest(path string) *domain.Container {
	return h.Get(h.enclosing(domain.NormalizePath(path)))
}

func (h *Hierarchy) parentOf(ref domain.Ref) domain.Ref {
	c := h.nodes[ref]
	if c.Parent != domain.NoRef || ref == domain.RootRef {
		return c.Parent
	}
	if p := h.enclosing(domain.ParentPath(c.Path)); p != domain.NoRef {
		return p
	}
	return domain.RootRef
}

// AttributeValue returns the value of name on the container enclosing
// path or on its closest ancestor that sets it. It falls back to the
// registered default; ok is false when neither exists.
func (h *Hierarchy) AttributeValue(path, name string) (value string, ok bool) {
	name = strings.ToLower(name)
	ref := h.enclosing(domain.NormalizePath(path))
	for steps := 0; ref != domain.NoRef && steps < len(h.nodes); steps++ {
		if v := h.nodes[ref].Attribute(name); v != "" {
			return v, true
		}
		ref = h.parentOf(ref)
	}
	value, ok = h.defaults[name]
	return value, ok
}

// FindSubContainers appends to out every container strictly below from
// whose level equals from's own level or belongs to levels.
func (h *Hierarchy) FindSubContainers(from string, levels []string, out []domain.Ref) []domain.Ref {
	from = domain.NormalizePath(from)

	var own string
	if c, ok := h.ByPath(from); ok {
		own = c.Attribute(h.levelAttr)
	}
	wanted := make(map[string]bool, len(levels)+1)
	for _, l := range levels {
		wanted[strings.TrimSpace(l)] = true
	}
	if own != "" {
		wanted[own] = true
	}

	for _, ref := range h.list {
		c := h.nodes[ref]
		if !domain.IsBelow(c.Path, from) {
			continue
		}
		if lvl := c.Attribute(h.levelAttr); lvl != "" && wanted[lvl] {
			out = append(out, ref)
		}
	}
	return out
}

func (h *Hierarchy) warn(kind domain.WarningKind, path, detail string) {
	h.warnings = append(h.warnings, domain.Warning{Kind: kind, Path: path, Detail: detail})
	h.log.WithFields(logrus.Fields{"kind": string(kind), "path": path}).Warn(detail)
}
