package domain

import "time"

// ChartView is the derived, export-ready view of one resolution run
type ChartView struct {
	RunID       string       `json:"run_id" yaml:"run_id"`
	GeneratedAt time.Time    `json:"generated_at" yaml:"generated_at"`
	Roots       []ChartNode  `json:"roots" yaml:"roots"`
	Groups      []ChartGroup `json:"groups,omitempty" yaml:"groups,omitempty"`
	Warnings    []Warning    `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// ChartNode is one agent in the exported tree
type ChartNode struct {
	ID            int64             `json:"id" yaml:"id"`
	DN            string            `json:"dn" yaml:"dn"`
	LastName      string            `json:"last_name" yaml:"last_name"`
	FirstName     string            `json:"first_name,omitempty" yaml:"first_name,omitempty"`
	Email         string            `json:"email,omitempty" yaml:"email,omitempty"`
	Badge         string            `json:"badge,omitempty" yaml:"badge,omitempty"`
	Title         string            `json:"title,omitempty" yaml:"title,omitempty"`
	Status        []string          `json:"status,omitempty" yaml:"status,omitempty"`
	Container     string            `json:"container,omitempty" yaml:"container,omitempty"`
	ContainerName string            `json:"container_name,omitempty" yaml:"container_name,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	ActingID      int64             `json:"acting_id,omitempty" yaml:"acting_id,omitempty"`
	ActingName    string            `json:"acting_name,omitempty" yaml:"acting_name,omitempty"`
	OtherPosts    []int64           `json:"other_posts,omitempty" yaml:"other_posts,omitempty"`
	Children      []ChartNode       `json:"children,omitempty" yaml:"children,omitempty"`
}

// ChartGroup lists the members of one container for "group by structure" exports
type ChartGroup struct {
	Path      string      `json:"path" yaml:"path"`
	Name      string      `json:"name" yaml:"name"`
	ShortName string      `json:"short_name,omitempty" yaml:"short_name,omitempty"`
	Level     string      `json:"level,omitempty" yaml:"level,omitempty"`
	Members   []ChartNode `json:"members" yaml:"members"`
}

// Count returns the number of nodes in the subtree rooted at n
func (n *ChartNode) Count() int {
	total := 1
	for i := range n.Children {
		total += n.Children[i].Count()
	}
	return total
}

// NodeCount returns the number of agents in the exported tree
func (v *ChartView) NodeCount() int {
	total := 0
	for i := range v.Roots {
		total += v.Roots[i].Count()
	}
	return total
}
