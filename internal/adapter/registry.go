package adapter

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// Opener builds a Directory from a location (file path, DSN)
type Opener func(ctx context.Context, location string) (Directory, error)

// Registry maps source kinds to their openers
type Registry struct {
	mu      sync.RWMutex
	openers map[string]Opener
	log     logrus.FieldLogger
}

// NewRegistry creates a registry with the built-in yaml source
func NewRegistry(log logrus.FieldLogger) *Registry {
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := &Registry{
		openers: make(map[string]Opener),
		log:     log,
	}
	_ = r.Register("yaml", OpenYAML)
	return r
}

// Register adds an opener for kind
func (r *Registry) Register(kind string, open Opener) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.openers[kind]; exists {
		return fmt.Errorf("directory source %s already registered", kind)
	}
	r.openers[kind] = open
	r.log.WithField("source", kind).Debug("registered directory source")
	return nil
}

// Open builds the directory registered under kind
func (r *Registry) Open(ctx context.Context, kind, location string) (Directory, error) {
	r.mu.RLock()
	open, exists := r.openers[kind]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("directory source %s not found", kind)
	}

	dir, err := open(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s source %s: %w", kind, location, err)
	}
	r.log.WithFields(logrus.Fields{"source": dir.Name()}).Info("opened directory")
	return dir, nil
}

// Kinds returns the registered source kinds, sorted
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.openers))
	for k := range r.openers {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
