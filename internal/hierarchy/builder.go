package hierarchy

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"organigram/internal/domain"
)

// LookupFunc fetches a directory entry by path identifier.
// A nil entry with a nil error means the directory does not know the path.
type LookupFunc func(path string) (*domain.DirectoryEntry, error)

// LookupStats counts directory lookups issued during a run
type LookupStats struct {
	Calls  int
	Found  int
	Missed int
	Errors int
}

// Builder turns agent records into a sorted management forest
type Builder struct {
	*Registry

	log    logrus.FieldLogger
	order  domain.NameOrder
	lookup LookupFunc

	failed   map[string]bool
	stats    LookupStats
	warnings []domain.Warning
}

// Option configures a Builder
type Option func(*Builder)

// WithLogger sets the logger used for warnings
func WithLogger(log logrus.FieldLogger) Option {
	return func(b *Builder) {
		if log != nil {
			b.log = log
		}
	}
}

// WithNameOrder sets the sibling comparator
func WithNameOrder(order domain.NameOrder) Option {
	return func(b *Builder) {
		if order != nil {
			b.order = order
		}
	}
}

// WithLookup sets the fallback used for managers not yet loaded
func WithLookup(fn LookupFunc) Option {
	return func(b *Builder) {
		b.lookup = fn
	}
}

// New creates a Builder with an empty registry
func New(opts ...Option) *Builder {
	b := &Builder{
		Registry: NewRegistry(),
		log:      logrus.StandardLogger(),
		order:    domain.DefaultNameOrder,
		failed:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Warnings returns the anomalies recorded so far
func (b *Builder) Warnings() []domain.Warning {
	return b.warnings
}

// LookupStats returns lookup counters
func (b *Builder) LookupStats() LookupStats {
	return b.stats
}

// Add loads one agent record and attaches it below its manager.
// A placeholder already registered for the path is completed in place.
func (b *Builder) Add(rec domain.AgentRecord) (*domain.Agent, error) {
	path := domain.NormalizePath(rec.DN)
	if path == "" {
		return nil, errors.New("agent record has an empty path")
	}

	ref, exists := b.ref(path)
	if exists && !b.agents[ref].IsPlaceholder() {
		b.warn(domain.WarnDuplicateIdentity, path, "path loaded twice")
		return nil, errors.Wrapf(domain.ErrDuplicateIdentity, "path %s loaded twice", path)
	}
	if !exists {
		ref = domain.NoRef
	}
	if err := b.checkID(ref, rec.ID); err != nil {
		b.warn(domain.WarnDuplicateIdentity, path, err.Error())
		return nil, err
	}

	var a *domain.Agent
	if exists {
		a = b.agents[ref]
	} else {
		a = domain.NewAgent(rec.DN)
		ref = b.insert(a)
	}
	if err := b.assignID(ref, rec.ID); err != nil {
		return nil, err
	}

	a.DN = rec.DN
	a.Apply(rec.Entry())
	a.Status &^= domain.StatusPlaceholder
	a.ReplacesPath = domain.NormalizePath(rec.Replaces)
	a.OtherPosts = a.OtherPosts[:0]
	for _, p := range rec.OtherPosts {
		if p = domain.NormalizePath(p); p != "" && p != path {
			a.OtherPosts = append(a.OtherPosts, domain.OtherPost{Path: p})
		}
	}

	parent := b.resolveManager(ref)
	if exists {
		b.Detach(ref)
	}
	b.attach(ref, parent)
	return a, nil
}

// resolveManager returns the parent ref for an agent whose ManagerPath is set
func (b *Builder) resolveManager(ref domain.Ref) domain.Ref {
	a := b.agents[ref]
	switch a.ManagerPath {
	case "":
		return domain.RootRef
	case a.Path:
		b.log.WithField("path", a.Path).Debug("dropping self-referencing manager")
		a.ManagerPath = ""
		return domain.RootRef
	}

	parent, ok := b.materialize(a.ManagerPath)
	if !ok {
		b.warn(domain.WarnUnresolvableManager, a.Path, a.ManagerPath)
		return domain.RootRef
	}
	if parent == ref || b.isDescendant(parent, ref) {
		b.warn(domain.WarnManagerCycle, a.Path, a.ManagerPath)
		return domain.RootRef
	}
	return parent
}

// materialize returns the agent for path, creating placeholders through
// the lookup for it and any ancestors not loaded yet.
func (b *Builder) materialize(path string) (domain.Ref, bool) {
	if ref, ok := b.ref(path); ok {
		return ref, true
	}
	if b.failed[path] {
		return domain.NoRef, false
	}

	var chain []domain.Ref
	visited := make(map[string]bool)
	for cur := path; ; {
		entry := b.fetch(cur)
		if entry == nil {
			break
		}
		visited[cur] = true
		chain = append(chain, b.placeholder(cur, entry))

		next := domain.NormalizePath(entry.Manager)
		if next == "" || next == cur || visited[next] || b.failed[next] {
			break
		}
		if _, known := b.ref(next); known {
			break
		}
		cur = next
	}
	if len(chain) == 0 {
		return domain.NoRef, false
	}

	// Topmost ancestor first, so each placeholder finds its parent linked.
	for i := len(chain) - 1; i >= 0; i-- {
		ref := chain[i]
		b.attach(ref, b.resolveManager(ref))
	}
	return chain[0], true
}

// fetch issues one memoized directory lookup
func (b *Builder) fetch(path string) *domain.DirectoryEntry {
	if b.lookup == nil {
		b.failed[path] = true
		return nil
	}
	b.stats.Calls++
	entry, err := b.lookup(path)
	switch {
	case err != nil:
		b.stats.Errors++
		b.failed[path] = true
		b.warn(domain.WarnLookupFailed, path, err.Error())
		return nil
	case entry == nil:
		b.stats.Missed++
		b.failed[path] = true
		return nil
	}
	b.stats.Found++
	return entry
}

func (b *Builder) placeholder(path string, entry *domain.DirectoryEntry) domain.Ref {
	dn := entry.DN
	if dn == "" {
		dn = path
	}
	a := domain.NewAgent(dn)
	a.Path = path
	a.Apply(*entry)
	a.Status |= domain.StatusPlaceholder
	ref := b.insert(a)
	_ = b.assignID(ref, 0)
	b.log.WithField("path", path).Debug("created placeholder from directory lookup")
	return ref
}

func (b *Builder) warn(kind domain.WarningKind, path, detail string) {
	w := domain.Warning{Kind: kind, Path: path, Detail: detail}
	b.warnings = append(b.warnings, w)
	entry := b.log.WithFields(logrus.Fields{"kind": string(kind), "path": path})
	if kind == domain.WarnUnresolvableOtherPost {
		entry.Debug(detail)
		return
	}
	entry.Warn(detail)
}
