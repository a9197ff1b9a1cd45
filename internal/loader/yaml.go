package loader

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"organigram/internal/domain"
)

// SnapshotYAML represents the directory snapshot file structure
type SnapshotYAML struct {
	Version    string          `yaml:"version"`
	Metadata   *MetadataYAML   `yaml:"metadata,omitempty"`
	Containers []ContainerYAML `yaml:"containers"`
	Agents     []AgentYAML     `yaml:"agents"`
}

// MetadataYAML represents the metadata section
type MetadataYAML struct {
	Description string `yaml:"description,omitempty"`
	Source      string `yaml:"source,omitempty"`
	Exported    string `yaml:"exported,omitempty"`
}

// ContainerYAML represents an organizational unit.
// Manager distinguishes an absent key (unknown) from an empty value (no manager).
type ContainerYAML struct {
	DN         string            `yaml:"dn"`
	Name       string            `yaml:"name,omitempty"`
	ShortName  string            `yaml:"short_name,omitempty"`
	Manager    *string           `yaml:"manager,omitempty"`
	Attributes map[string]string `yaml:"attributes,omitempty"`
}

// AgentYAML represents one position
type AgentYAML struct {
	DN         string   `yaml:"dn"`
	ID         int64    `yaml:"id,omitempty"`
	LastName   string   `yaml:"last_name"`
	FirstName  string   `yaml:"first_name,omitempty"`
	Email      string   `yaml:"email,omitempty"`
	Badge      string   `yaml:"badge,omitempty"`
	Title      string   `yaml:"title,omitempty"`
	Manager    string   `yaml:"manager,omitempty"`
	Status     []string `yaml:"status,omitempty"`
	Replaces   string   `yaml:"replaces,omitempty"`
	OtherPosts []string `yaml:"other_posts,omitempty"`
}

// LoadSnapshot loads a directory snapshot from a YAML file
func LoadSnapshot(path string) (*domain.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read snapshot")
	}

	return ParseSnapshot(data)
}

// ParseSnapshot parses a directory snapshot from YAML bytes
func ParseSnapshot(data []byte) (*domain.Snapshot, error) {
	var y SnapshotYAML
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, errors.Wrap(err, "failed to parse YAML")
	}

	return convertYAMLToSnapshot(&y)
}

func convertYAMLToSnapshot(y *SnapshotYAML) (*domain.Snapshot, error) {
	snap := domain.NewSnapshot()

	for i, c := range y.Containers {
		if strings.TrimSpace(c.DN) == "" {
			return nil, errors.Errorf("container %d has no dn", i)
		}
		snap.AddContainer(domain.ContainerRecord{
			DN:         c.DN,
			Name:       c.Name,
			ShortName:  c.ShortName,
			Manager:    c.Manager,
			Attributes: c.Attributes,
		})
	}

	for i, a := range y.Agents {
		if strings.TrimSpace(a.DN) == "" {
			return nil, errors.Errorf("agent %d has no dn", i)
		}
		status, err := ParseStatus(a.Status)
		if err != nil {
			return nil, errors.Wrapf(err, "agent %s", a.DN)
		}
		snap.AddAgent(domain.AgentRecord{
			DN:         a.DN,
			ID:         a.ID,
			LastName:   a.LastName,
			FirstName:  a.FirstName,
			Email:      a.Email,
			Badge:      a.Badge,
			Title:      a.Title,
			Manager:    a.Manager,
			Status:     status,
			Replaces:   a.Replaces,
			OtherPosts: a.OtherPosts,
		})
	}

	return snap, nil
}

// ParseStatus converts status names into flags
func ParseStatus(names []string) (domain.Status, error) {
	var status domain.Status
	for _, n := range names {
		flag, ok := domain.ParseStatusFlag(n)
		if !ok {
			return 0, errors.Errorf("unknown status %q", n)
		}
		status |= flag
	}
	return status, nil
}

// ExportSnapshot exports a directory snapshot to YAML format
func ExportSnapshot(snap *domain.Snapshot) ([]byte, error) {
	y := &SnapshotYAML{
		Version:    "1",
		Containers: make([]ContainerYAML, 0, len(snap.Containers)),
		Agents:     make([]AgentYAML, 0, len(snap.Agents)),
	}

	for _, c := range snap.Containers {
		y.Containers = append(y.Containers, ContainerYAML{
			DN:         c.DN,
			Name:       c.Name,
			ShortName:  c.ShortName,
			Manager:    c.Manager,
			Attributes: c.Attributes,
		})
	}

	for _, a := range snap.Agents {
		y.Agents = append(y.Agents, AgentYAML{
			DN:         a.DN,
			ID:         a.ID,
			LastName:   a.LastName,
			FirstName:  a.FirstName,
			Email:      a.Email,
			Badge:      a.Badge,
			Title:      a.Title,
			Manager:    a.Manager,
			Status:     a.Status.Names(),
			Replaces:   a.Replaces,
			OtherPosts: a.OtherPosts,
		})
	}

	return yaml.Marshal(y)
}
