package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

// WarningKind classifies a non-fatal resolution anomaly
type WarningKind string

const (
	WarnDuplicateIdentity       WarningKind = "duplicate_identity"
	WarnUnresolvableManager     WarningKind = "unresolvable_manager"
	WarnManagerCycle            WarningKind = "manager_cycle"
	WarnUnresolvableOtherPost   WarningKind = "unresolvable_other_post"
	WarnUnresolvableReplacement WarningKind = "unresolvable_replacement"
	WarnLookupFailed            WarningKind = "lookup_failed"
	WarnDuplicateContainer      WarningKind = "duplicate_container"
	WarnDuplicateContainerName  WarningKind = "duplicate_container_name"
	WarnOrphanContainer         WarningKind = "orphan_container"
)

// Warning records one anomaly against the path it concerns
type Warning struct {
	Kind   WarningKind `json:"kind" yaml:"kind"`
	Path   string      `json:"path" yaml:"path"`
	Detail string      `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// String formats the warning for logs
func (w Warning) String() string {
	if w.Detail == "" {
		return fmt.Sprintf("%s: %s", w.Kind, w.Path)
	}
	return fmt.Sprintf("%s: %s (%s)", w.Kind, w.Path, w.Detail)
}

// CountWarnings tallies warnings per kind
func CountWarnings(warnings []Warning) map[WarningKind]int {
	counts := make(map[WarningKind]int)
	for _, w := range warnings {
		counts[w.Kind]++
	}
	return counts
}

var (
	// ErrDuplicateIdentity is returned when two distinct paths claim the same numeric id
	ErrDuplicateIdentity = errors.New("duplicate identity")
	// ErrDuplicateContainer is returned when a container path is loaded twice
	ErrDuplicateContainer = errors.New("duplicate container")
	// ErrUnknownAgent is returned for references to agents absent from the registry
	ErrUnknownAgent = errors.New("unknown agent")
	// ErrReplacementConflict is returned when a replacement pair would break the one-to-one link
	ErrReplacementConflict = errors.New("replacement conflict")
)
