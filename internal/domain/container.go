package domain

import "strings"

// ManagerState is the has-manager tri-state of a container
type ManagerState int8

const (
	ManagerUnknown ManagerState = iota // feed said nothing
	ManagerPresent                     // feed named a manager
	ManagerAbsent                      // feed explicitly reported no manager
)

// String returns the state name
func (m ManagerState) String() string {
	switch m {
	case ManagerPresent:
		return "present"
	case ManagerAbsent:
		return "absent"
	default:
		return "unknown"
	}
}

// Container is one organizational unit
type Container struct {
	Ref         Ref               `json:"-"`
	Path        string            `json:"path"`
	DN          string            `json:"dn"`
	Name        string            `json:"name"`
	NameKey     string            `json:"-"`
	ShortName   string            `json:"short_name,omitempty"`
	Parent      Ref               `json:"-"`
	Manager     ManagerState      `json:"-"`
	ManagerPath string            `json:"manager,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// NewContainer builds a container from a feed record
func NewContainer(rec ContainerRecord) *Container {
	c := &Container{
		Path:       NormalizePath(rec.DN),
		DN:         strings.TrimSpace(rec.DN),
		ShortName:  strings.TrimSpace(rec.ShortName),
		Parent:     NoRef,
		Attributes: make(map[string]string, len(rec.Attributes)),
	}
	c.SetName(rec.Name)

	switch {
	case rec.Manager == nil:
		c.Manager = ManagerUnknown
	case strings.TrimSpace(*rec.Manager) == "":
		c.Manager = ManagerAbsent
	default:
		c.Manager = ManagerPresent
		c.ManagerPath = NormalizePath(*rec.Manager)
	}

	for k, v := range rec.Attributes {
		c.SetAttribute(k, v)
	}
	return c
}

// SetName sets the display name and its folded comparison key.
// An empty name falls back to the leading RDN value.
func (c *Container) SetName(name string) {
	c.Name = strings.TrimSpace(name)
	if c.Name == "" {
		c.Name = LeadingValue(c.DN)
	}
	c.NameKey = FoldKey(c.Name)
}

// SetAttribute sets an attribute value; names are case-insensitive
func (c *Container) SetAttribute(name, value string) {
	if c.Attributes == nil {
		c.Attributes = make(map[string]string)
	}
	c.Attributes[strings.ToLower(name)] = value
}

// Attribute returns the container's own value for name, or ""
func (c *Container) Attribute(name string) string {
	if c.Attributes == nil {
		return ""
	}
	return c.Attributes[strings.ToLower(name)]
}

// IsRoot reports whether this is the implicit root container
func (c *Container) IsRoot() bool {
	return c.Ref == RootRef
}
