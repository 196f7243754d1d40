// pkg/github/stitcher.go
//
// Pull-request stitching: every commit of the pending span lands in exactly
// one group. A squashed merge whose sources are still reachable is
// unsquashed, so sizing sees the real commits; when the host has lost them
// the squash stands in, best-effort. Grouping is an enrichment: sizes
// aggregate identically over singleton groups at lower levels.

package github

import (
	"sort"
	"time"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/plan"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/repogate"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_io"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Stitcher groups commits by pull-request.
type Stitcher struct {
	Client *Client
}

// OtherCommitsTitle names the trailing pseudo-group.
const OtherCommitsTitle = "Other commits"

// Stitch resolves each commit to its merging pull-request and assembles
// ordered groups. Commits no pull-request claims collect into the trailing
// "Other commits" pseudo-group.
func (s *Stitcher) Stitch(rc *versio_io.RuntimeContext, commits []repogate.CommitInfo) ([]*plan.Group, error) {
	log := otelzap.Ctx(rc.Ctx)

	byNumber := map[int]*plan.Group{}
	var order []int
	var others []repogate.CommitInfo

	for _, c := range commits {
		prs, err := s.Client.PullsForCommit(rc, c.Hash)
		if err != nil {
			return nil, err
		}

		var merged *PullRequest
		for i := range prs {
			if prs[i].Merged() {
				merged = &prs[i]
				break
			}
		}
		if merged == nil {
			others = append(others, c)
			continue
		}

		g, ok := byNumber[merged.Number]
		if !ok {
			g = &plan.Group{Number: merged.Number, Title: merged.Title, URL: merged.HTMLURL}
			byNumber[merged.Number] = g
			order = append(order, merged.Number)
		}

		if merged.MergeCommitSHA == c.Hash && len(c.Parents) == 1 {
			sources, ok, err := s.unsquash(rc, merged)
			if err != nil {
				return nil, err
			}
			if ok {
				log.Debug("unsquashed pull-request",
					zap.Int("number", merged.Number),
					zap.Int("sources", len(sources)))
				g.Commits = append(g.Commits, sources...)
				continue
			}
			g.BestEffort = true
		}
		g.Commits = append(g.Commits, c)
	}

	groups := make([]*plan.Group, 0, len(order)+1)
	for _, number := range order {
		g := byNumber[number]
		sort.SliceStable(g.Commits, func(i, j int) bool {
			return g.Commits[i].CommitterTime.Before(g.Commits[j].CommitterTime)
		})
		groups = append(groups, g)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return newestCommitTime(groups[i]).Before(newestCommitTime(groups[j]))
	})

	if len(others) > 0 {
		groups = append(groups, &plan.Group{Title: OtherCommitsTitle, Commits: others})
	}
	return groups, nil
}

// unsquash replaces a squash commit with the pull-request's source commits;
// their remote changed-path sets stand in for the squash's. ok is false
// when the sources are no longer reachable.
func (s *Stitcher) unsquash(rc *versio_io.RuntimeContext, pr *PullRequest) ([]repogate.CommitInfo, bool, error) {
	shas, ok, err := s.Client.PullCommits(rc, pr.Number)
	if err != nil || !ok || len(shas) == 0 {
		return nil, false, err
	}

	infos := make([]repogate.CommitInfo, 0, len(shas))
	for _, sha := range shas {
		detail, ok, err := s.Client.CommitDetail(rc, sha)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}
		infos = append(infos, repogate.CommitInfo{
			Hash:          detail.SHA,
			Summary:       firstLine(detail.Message),
			Message:       detail.Message,
			AuthorName:    detail.AuthorName,
			AuthorEmail:   detail.AuthorEmail,
			CommitterTime: detail.CommitterTime,
			Parents:       detail.Parents,
			Files:         detail.Files,
		})
	}
	return infos, true, nil
}

func newestCommitTime(g *plan.Group) (latest time.Time) {
	for _, c := range g.Commits {
		if c.CommitterTime.After(latest) {
			latest = c.CommitterTime
		}
	}
	return latest
}

func firstLine(msg string) string {
	for i := 0; i < len(msg); i++ {
		if msg[i] == '\n' {
			return msg[:i]
		}
	}
	return msg
}
