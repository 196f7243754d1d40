// pkg/plan/builder.go
//
// The plan build: current config and versions seed the targets, grouped
// commits sized under historical coverage advance them, dependency
// propagation runs to its fixed point, then the tag-only flag and the
// subdivision guard settle the result.
//
// Two configurations coexist here. Coverage is judged per commit under that
// commit's own configuration, so moving a directory does not rewrite the
// past; membership, sizing, and write targets come from the current one.
// The two must never be collapsed.

package plan

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/config"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/conventional"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/location"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/repogate"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/size"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_err"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_io"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Coverage answers whether a commit covered a project, judged under the
// configuration in force at that commit. The historical projector is the
// production implementation.
type Coverage interface {
	Covers(rc *versio_io.RuntimeContext, commit repogate.CommitInfo, id uint32) bool
}

// Builder combines the current configuration, the historical coverage
// authority, and the value store into plans.
type Builder struct {
	Current   *config.Config
	Projector Coverage
	Store     *location.Store
	LockTags  bool
}

type entry struct {
	proj    *config.Project
	current string
	target  string
	induced size.Size
	covered bool
	depends map[uint32]string
	groups  []*GroupReport
}

// Build turns the grouped pending span into a plan. The build is pure over
// its inputs; fixed inputs produce an identical plan.
func (b *Builder) Build(rc *versio_io.RuntimeContext, groups []*Group) (*Plan, error) {
	log := otelzap.Ctx(rc.Ctx)

	// Seed: every current project at its current version, size none.
	entries := map[uint32]*entry{}
	for _, proj := range b.Current.Projects {
		current, err := b.Store.Read(rc, proj)
		if err != nil {
			return nil, err
		}
		entries[proj.ID] = &entry{proj: proj, current: current, target: current}
	}

	sizes := b.Current.SizeMap()

	// Per-group aggregation under historical coverage.
	for _, g := range groups {
		for _, id := range b.projectOrder() {
			e := entries[id]
			groupSize := size.None
			var commits []CommitReport

			for _, c := range g.Commits {
				covers := b.Projector.Covers(rc, c, id)
				report := CommitReport{Hash: c.Hash, Summary: c.Summary, Covers: covers}
				if covers {
					e.covered = true
					report.Size = sizes.Resolve(conventional.Parse(c.Message))
					if report.Size == size.Fail {
						return nil, versio_err.PolicyFail(c.Hash, c.Summary)
					}
					groupSize = size.Max(groupSize, report.Size)
				}
				commits = append(commits, report)
			}

			if len(commits) > 0 && anyCovers(commits) {
				e.groups = append(e.groups, &GroupReport{
					Number: g.Number, Title: g.Title, URL: g.URL,
					Size: groupSize, Commits: commits,
				})
			}
			e.induced = size.Max(e.induced, groupSize)
		}
	}

	// Direct advance.
	for _, e := range entries {
		target, err := e.induced.Bump(e.current)
		if err != nil {
			return nil, versio_err.LocationError(err, "can't advance project %q", e.proj.Name)
		}
		e.target = target
	}

	// Dependency propagation to a fixed point. Sizes and targets only
	// increase, and the load-time cycle check bounds the loop.
	if err := b.propagate(rc, entries); err != nil {
		return nil, err
	}

	// Tag-only flag: unadvanced but covered; cleared wholesale by lock-tags.
	for _, e := range entries {
		if b.LockTags {
			e.covered = e.covered && e.target != e.current
		}
	}

	plan := &Plan{}
	for _, id := range b.projectOrder() {
		e := entries[id]
		tagOnly := e.target == e.current && e.covered && e.induced == size.None
		if e.target == e.current && !tagOnly {
			continue
		}
		plan.Projects = append(plan.Projects, &ProjectPlan{
			ID:              id,
			Name:            e.proj.Name,
			Current:         e.current,
			Target:          e.target,
			Size:            e.induced,
			TagOnly:         tagOnly,
			DependencyBumps: e.depends,
			Groups:          e.groups,
		})
	}

	b.guardSubdivisions(plan)

	log.Debug("plan built",
		zap.Int("projects", len(plan.Projects)),
		zap.Int("subdivision_warnings", len(plan.Subdivisions)))
	return plan, nil
}

func (b *Builder) projectOrder() []uint32 {
	ids := make([]uint32, 0, len(b.Current.Projects))
	for _, p := range b.Current.Projects {
		ids = append(ids, p.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (b *Builder) propagate(rc *versio_io.RuntimeContext, entries map[uint32]*entry) error {
	order := b.projectOrder()
	for changed := true; changed; {
		changed = false
		for _, id := range order {
			dependee := entries[id]
			if dependee.induced == size.None {
				continue
			}
			for _, depID := range b.Current.Dependents(id) {
				dependent := entries[depID]
				rel := dependent.proj.Depends[id]

				var want string
				var wantSize size.Size
				if rel.Size.Match {
					// Match copies the dependee's target; a dependent already
					// past it never goes backward.
					want = dependee.target
					if cmp, err := size.Compare(want, dependent.target); err != nil || cmp <= 0 {
						want = dependent.target
					}
					wantSize = impliedSize(dependent.current, want)
				} else {
					wantSize = size.Max(dependent.induced, rel.Size.Size)
					bumped, err := wantSize.Bump(dependent.current)
					if err != nil {
						return versio_err.LocationError(err, "can't advance dependent project %q", dependent.proj.Name)
					}
					want = bumped
					if cmp, err := size.Compare(want, dependent.target); err != nil || cmp < 0 {
						want = dependent.target
					}
				}

				if want != dependent.target || wantSize > dependent.induced {
					if want != dependent.target {
						otelzap.Ctx(rc.Ctx).Debug("dependency propagation",
							zap.Uint32("from", id), zap.Uint32("to", depID),
							zap.String("target", want))
					}
					dependent.target = want
					dependent.induced = size.Max(dependent.induced, wantSize)
					if dependent.depends == nil {
						dependent.depends = map[uint32]string{}
					}
					changed = true
				}
				if dependent.depends == nil {
					dependent.depends = map[uint32]string{}
				}
				dependent.depends[id] = dependee.target
			}
		}
	}
	return nil
}

// impliedSize classifies the distance between two versions for further
// propagation out of a matched dependent.
func impliedSize(current, target string) size.Size {
	if current == target {
		return size.None
	}
	cur, err1 := size.Parts(current)
	tgt, err2 := size.Parts(target)
	if err1 != nil || err2 != nil {
		return size.None
	}
	switch {
	case tgt[0] != cur[0]:
		return size.Major
	case tgt[1] != cur[1]:
		return size.Minor
	default:
		return size.Patch
	}
}

// guardSubdivisions records every major bump whose subdivided directory is
// missing from the current tree. The caller decides whether that warns or
// refuses.
func (b *Builder) guardSubdivisions(plan *Plan) {
	for _, pp := range plan.Projects {
		proj := b.Current.Get(pp.ID)
		if proj == nil || proj.Subs == nil || !pp.Changed() {
			continue
		}
		cur, err1 := size.Parts(pp.Current)
		tgt, err2 := size.Parts(pp.Target)
		if err1 != nil || err2 != nil || tgt[0] <= cur[0] || proj.Subs.IsTop(tgt[0]) {
			continue
		}
		dir := proj.Subs.Dir(tgt[0])
		full := filepath.Join(b.Store.Root, proj.Root, dir)
		if info, err := os.Stat(full); err != nil || !info.IsDir() {
			plan.Subdivisions = append(plan.Subdivisions, Subdivision{
				Project: proj.Name, Major: tgt[0], Dir: filepath.Join(proj.Root, dir),
			})
		}
	}
}

func anyCovers(commits []CommitReport) bool {
	for _, c := range commits {
		if c.Covers {
			return true
		}
	}
	return false
}
