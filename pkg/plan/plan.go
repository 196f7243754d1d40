// pkg/plan/plan.go
//
// The plan model: the derived decision record mapping each project to its
// new target version and the changes that earned it.

package plan

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/repogate"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/size"
)

// Group is a pull-request grouping of commits. Below smart level every
// commit is its own singleton group; the trailing pseudo-group for
// ungrouped commits carries number zero.
type Group struct {
	Number     int
	Title      string
	URL        string
	Commits    []repogate.CommitInfo
	BestEffort bool // a squash retained verbatim because its sources are gone
}

// SingletonGroups wraps each commit in its own group, the grouping used
// when no pull-request host is reachable. Sizing aggregates identically.
func SingletonGroups(commits []repogate.CommitInfo) []*Group {
	groups := make([]*Group, 0, len(commits))
	for _, c := range commits {
		groups = append(groups, &Group{Title: c.Summary, Commits: []repogate.CommitInfo{c}})
	}
	return groups
}

// CommitReport is one commit's contribution to one project.
type CommitReport struct {
	Hash    string    `json:"hash"`
	Summary string    `json:"summary"`
	Size    size.Size `json:"size"`
	Covers  bool      `json:"covers"`
}

// GroupReport is one group's contribution to one project.
type GroupReport struct {
	Number  int            `json:"number,omitempty"`
	Title   string         `json:"title"`
	URL     string         `json:"url,omitempty"`
	Size    size.Size      `json:"size"`
	Commits []CommitReport `json:"commits"`
}

// ProjectPlan is the decision for one project.
type ProjectPlan struct {
	ID      uint32    `json:"id"`
	Name    string    `json:"name"`
	Current string    `json:"current"`
	Target  string    `json:"target"`
	Size    size.Size `json:"size"`
	TagOnly bool      `json:"tag_only"`

	// DependencyBumps maps each dependee that advanced to its new target,
	// for the dependent's sub-file writes.
	DependencyBumps map[uint32]string `json:"dependency_bumps,omitempty"`

	Groups []*GroupReport `json:"groups,omitempty"`
}

// Changed reports whether the target differs from the current version.
func (p *ProjectPlan) Changed() bool { return p.Current != p.Target }

// Subdivision is a failed subdivision guard: the bump reaches a major whose
// directory does not exist in the current tree.
type Subdivision struct {
	Project string
	Major   uint64
	Dir     string
}

func (s Subdivision) String() string {
	return fmt.Sprintf("project %q reaches major %d but %q does not exist", s.Project, s.Major, s.Dir)
}

// Plan is the full decision record, ordered by project id.
type Plan struct {
	Projects     []*ProjectPlan `json:"projects"`
	Subdivisions []Subdivision  `json:"-"`
}

// Get returns the entry for a project id, or nil.
func (p *Plan) Get(id uint32) *ProjectPlan {
	for _, proj := range p.Projects {
		if proj.ID == id {
			return proj
		}
	}
	return nil
}

// Empty reports a plan with nothing to do.
func (p *Plan) Empty() bool { return len(p.Projects) == 0 }

// Digest is a stable fingerprint of the plan, used by the pause sentinel.
// Plans are deterministic, so equal inputs digest equally.
func (p *Plan) Digest() string {
	data, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
