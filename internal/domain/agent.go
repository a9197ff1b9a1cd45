package domain

import "strings"

// Ref indexes a node inside an arena (agents or containers).
type Ref int32

const (
	// NoRef marks an absent link
	NoRef Ref = -1
	// RootRef is the implicit root placeholder present in every arena
	RootRef Ref = 0
)

// Valid reports whether r points at a node.
func (r Ref) Valid() bool {
	return r >= 0
}

// Status is the set of agent status bit-flags
type Status uint16

const (
	StatusPlaceholder  Status = 1 << iota // not a real position: synthesized or fetched out of scope
	StatusVacant                          // vacant post
	StatusTrainee                         // trainee / intern
	StatusNotManager                      // holds no management role
	StatusUnassigned                      // not assigned to a container
	StatusSplitAccount                    // one of several accounts of the same person
	StatusAdminAccount                    // technical or administrative account
)

var statusNames = []struct {
	flag Status
	name string
}{
	{StatusPlaceholder, "placeholder"},
	{StatusVacant, "vacant"},
	{StatusTrainee, "trainee"},
	{StatusNotManager, "not_manager"},
	{StatusUnassigned, "unassigned"},
	{StatusSplitAccount, "split_account"},
	{StatusAdminAccount, "admin_account"},
}

// Has reports whether every bit of flag is set
func (s Status) Has(flag Status) bool {
	return s&flag == flag
}

// Names returns the flag names in declaration order
func (s Status) Names() []string {
	var names []string
	for _, sn := range statusNames {
		if s.Has(sn.flag) {
			names = append(names, sn.name)
		}
	}
	return names
}

// ParseStatusFlag converts a flag name to its bit. Matching is case-insensitive.
func ParseStatusFlag(name string) (Status, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, sn := range statusNames {
		if sn.name == name {
			return sn.flag, true
		}
	}
	return 0, false
}

// OtherPost is a secondary position held by the same person.
// ID stays 0 until the cross-reference pass resolves Path.
type OtherPost struct {
	Path string `json:"path"`
	ID   int64  `json:"id,omitempty"`
}

// Resolved reports whether the cross-reference was found
func (o OtherPost) Resolved() bool {
	return o.ID != 0
}

// Agent is one organizational position in the management tree
type Agent struct {
	Ref  Ref    `json:"-"`
	ID   int64  `json:"id"`
	Path string `json:"path"`
	DN   string `json:"dn"`

	LastName  string `json:"last_name"`
	FirstName string `json:"first_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Badge     string `json:"badge,omitempty"`
	Title     string `json:"title,omitempty"`
	Status    Status `json:"status"`

	// Tree links, all indices into the owning registry
	Parent      Ref `json:"-"`
	FirstChild  Ref `json:"-"`
	NextSibling Ref `json:"-"`

	// Replacement pair: ReplacedBy is the temporary occupant shown in place of
	// this agent, Replaces the nominal occupant this agent stands in for.
	ReplacedBy Ref `json:"-"`
	Replaces   Ref `json:"-"`

	OtherPosts []OtherPost `json:"other_posts,omitempty"`

	// ReplacesPath and ManagerPath keep the raw references until resolved
	ReplacesPath string `json:"-"`
	ManagerPath  string `json:"-"`

	lastKey  string
	firstKey string
}

// NewAgent creates an unlinked agent for the given distinguished name
func NewAgent(dn string) *Agent {
	return &Agent{
		Path:        NormalizePath(dn),
		DN:          strings.TrimSpace(dn),
		Parent:      NoRef,
		FirstChild:  NoRef,
		NextSibling: NoRef,
		ReplacedBy:  NoRef,
		Replaces:    NoRef,
	}
}

// SetName sets display names and refreshes the folded sort keys
func (a *Agent) SetName(lastName, firstName string) {
	a.LastName = strings.TrimSpace(lastName)
	a.FirstName = strings.TrimSpace(firstName)
	a.lastKey = FoldKey(a.LastName)
	a.firstKey = FoldKey(a.FirstName)
}

// NameKey returns the folded (last, first) keys used for ordering
func (a *Agent) NameKey() (last, first string) {
	return a.lastKey, a.firstKey
}

// Apply copies the descriptive fields of a directory entry onto the agent
func (a *Agent) Apply(e DirectoryEntry) {
	a.SetName(e.LastName, e.FirstName)
	a.Email = e.Email
	a.Badge = e.Badge
	a.Title = e.Title
	a.Status = e.Status
	a.ManagerPath = NormalizePath(e.Manager)
}

// IsRoot reports whether this is the implicit root placeholder
func (a *Agent) IsRoot() bool {
	return a.Ref == RootRef
}

// IsPlaceholder reports whether the agent is not a real position
func (a *Agent) IsPlaceholder() bool {
	return a.Status.Has(StatusPlaceholder)
}

// IsVacant reports whether the agent stands for a vacant post
func (a *Agent) IsVacant() bool {
	return a.Status.Has(StatusVacant)
}

// IsTrainee reports whether the agent is a trainee
func (a *Agent) IsTrainee() bool {
	return a.Status.Has(StatusTrainee)
}

// IsManager reports whether the agent may hold a management role
func (a *Agent) IsManager() bool {
	return !a.Status.Has(StatusNotManager)
}

// HasChildren reports whether anyone reports to this agent
func (a *Agent) HasChildren() bool {
	return a.FirstChild != NoRef
}

// Container returns the container portion of the agent path
func (a *Agent) Container() string {
	return ContainerOf(a.Path)
}

// DisplayName returns "Last First", falling back to the leading RDN value
func (a *Agent) DisplayName() string {
	name := strings.TrimSpace(a.LastName + " " + a.FirstName)
	if name == "" {
		return LeadingValue(a.DN)
	}
	return name
}
