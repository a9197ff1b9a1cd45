package domain

// AgentRecord is one entry of the agent stream delivered by a directory source
type AgentRecord struct {
	DN         string   `json:"dn"`
	ID         int64    `json:"id,omitempty"`
	LastName   string   `json:"last_name"`
	FirstName  string   `json:"first_name,omitempty"`
	Email      string   `json:"email,omitempty"`
	Badge      string   `json:"badge,omitempty"`
	Title      string   `json:"title,omitempty"`
	Manager    string   `json:"manager,omitempty"`
	Status     Status   `json:"status,omitempty"`
	Replaces   string   `json:"replaces,omitempty"`
	OtherPosts []string `json:"other_posts,omitempty"`
}

// Entry returns the lookup view of the record
func (r AgentRecord) Entry() DirectoryEntry {
	return DirectoryEntry{
		DN:        r.DN,
		LastName:  r.LastName,
		FirstName: r.FirstName,
		Email:     r.Email,
		Badge:     r.Badge,
		Title:     r.Title,
		Manager:   r.Manager,
		Status:    r.Status,
	}
}

// DirectoryEntry is the answer to an on-demand lookup of a path identifier
type DirectoryEntry struct {
	DN        string `json:"dn"`
	LastName  string `json:"last_name"`
	FirstName string `json:"first_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Badge     string `json:"badge,omitempty"`
	Title     string `json:"title,omitempty"`
	Manager   string `json:"manager,omitempty"`
	Status    Status `json:"status,omitempty"`
}

// ContainerRecord is one entry of the container feed.
// A nil Manager means the feed did not say; an empty one means no manager.
type ContainerRecord struct {
	DN         string            `json:"dn"`
	Name       string            `json:"name"`
	ShortName  string            `json:"short_name,omitempty"`
	Manager    *string           `json:"manager,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Snapshot is a complete directory extract: every agent and container
type Snapshot struct {
	Agents     []AgentRecord     `json:"agents"`
	Containers []ContainerRecord `json:"containers"`
}

// NewSnapshot creates an empty snapshot
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Agents:     make([]AgentRecord, 0),
		Containers: make([]ContainerRecord, 0),
	}
}

// AddAgent appends an agent record
func (s *Snapshot) AddAgent(rec AgentRecord) {
	s.Agents = append(s.Agents, rec)
}

// AddContainer appends a container record
func (s *Snapshot) AddContainer(rec ContainerRecord) {
	s.Containers = append(s.Containers, rec)
}
