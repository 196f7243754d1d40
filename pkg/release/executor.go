// pkg/release/executor.go
//
// Applying a committed plan. Phases in order, each a transaction boundary:
// value writes, changelog renders, the post-write hook, the optional pause,
// then commit, tags, and the push. An interrupt is honored between phases,
// never mid-write. The push is the run's single compare-and-swap against
// the remote; losing it rolls back local commits and tags and surfaces a
// conflict instead of retrying.

package release

import (
	"bytes"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/changelog"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/config"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/location"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/mark"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/plan"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/repogate"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_err"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_io"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Executor applies one plan to one repository.
type Executor struct {
	Gate   *repogate.Gate
	Config *config.Config
	Store  *location.Store
	Plan   *plan.Plan
}

// Options select the executor's mode for this run.
type Options struct {
	ChangelogOnly  bool
	PauseAtCommit  bool
	LockTags       bool
	SigningKeyPath string
}

// Result reports what the run did.
type Result struct {
	Paused bool
	Commit string
	Pushed bool
}

// Apply runs phases 1-7 (or stops early per the options). The plan must
// carry no subdivision failures; the caller refuses those first.
func (e *Executor) Apply(rc *versio_io.RuntimeContext, opts Options) (*Result, error) {
	staged, err := e.prepare(rc)
	if err != nil {
		return nil, err
	}

	if opts.ChangelogOnly {
		return &Result{}, nil
	}

	if opts.PauseAtCommit {
		staged.Digest = e.Plan.Digest()
		if err := WriteSentinel(e.Gate.Root(), staged); err != nil {
			return nil, err
		}
		otelzap.Ctx(rc.Ctx).Info("release paused before commit",
			zap.String("sentinel", SentinelName))
		return &Result{Paused: true}, nil
	}

	return e.commitAndPush(rc, staged, opts)
}

// Resume continues a paused release from its sentinel: phases 5-7 only.
func (e *Executor) Resume(rc *versio_io.RuntimeContext, opts Options) (*Result, error) {
	staged, err := ReadSentinel(e.Gate.Root())
	if err != nil {
		return nil, err
	}
	if staged == nil {
		return nil, versio_err.ConfigError("no paused release to resume")
	}
	res, err := e.commitAndPush(rc, staged, opts)
	if err != nil {
		return nil, err
	}
	if err := RemoveSentinel(e.Gate.Root()); err != nil {
		return nil, err
	}
	return res, nil
}

// prepare runs phases 1-3: value writes, changelog renders, the post-write
// hook. Failures here leave the tree modified but nothing committed.
func (e *Executor) prepare(rc *versio_io.RuntimeContext) (*Sentinel, error) {
	log := otelzap.Ctx(rc.Ctx)
	staged := &Sentinel{Versions: map[string]string{}}
	seen := map[string]bool{}
	stage := func(rel string) {
		if !seen[rel] {
			seen[rel] = true
			staged.Files = append(staged.Files, rel)
		}
	}

	// Phase 1: write locations.
	for _, pp := range e.Plan.Projects {
		if !pp.Changed() {
			continue
		}
		proj := e.Config.Get(pp.ID)
		if proj == nil {
			continue
		}

		for _, spec := range append([]*config.LocationSpec{proj.Version}, proj.Also...) {
			if spec.IsTags() {
				continue // the tag lands on the release commit, in phase 6
			}
			if err := e.Store.Write(rc, proj, spec, pp.Target); err != nil {
				return nil, err
			}
			if !spec.IsHook() {
				stage(filepath.Join(proj.Root, spec.File))
			}
		}

		for depID, depVers := range pp.DependencyBumps {
			dep := proj.Depends[depID]
			if dep == nil {
				continue
			}
			for _, sub := range dep.Files {
				rendered := location.RenderValue(sub.Value, depVers)
				if err := e.Store.WriteSub(rc, sub, rendered); err != nil {
					return nil, versio_err.LocationError(err, "dependency write of project %q failed", proj.Name)
				}
				stage(sub.File)
			}
		}

		log.Info("project advanced",
			zap.String("project", proj.Name),
			zap.String("from", pp.Current),
			zap.String("to", pp.Target))
	}

	if err := e.interrupted(rc); err != nil {
		return nil, err
	}

	// Phase 2: render changelogs.
	date := time.Now().Format("2006-01-02")
	for _, pp := range e.Plan.Projects {
		proj := e.Config.Get(pp.ID)
		if proj == nil || proj.Changelog == nil || !pp.Changed() {
			continue
		}
		rel, err := changelog.Update(rc, e.Gate.Root(), proj, pp, date)
		if err != nil {
			return nil, err
		}
		stage(rel)
	}

	if err := e.interrupted(rc); err != nil {
		return nil, err
	}

	// Phase 3: post-write hooks, before any staging.
	for _, pp := range e.Plan.Projects {
		proj := e.Config.Get(pp.ID)
		if proj == nil || proj.Hooks.PostWrite == "" || !pp.Changed() {
			continue
		}
		if err := e.runHook(rc, proj, proj.Hooks.PostWrite); err != nil {
			return nil, err
		}
	}

	// The marker payload is a full snapshot: planned projects at their new
	// targets, everything else at its current version.
	for _, proj := range e.Config.Projects {
		vers := ""
		if pp := e.Plan.Get(proj.ID); pp != nil {
			vers = pp.Target
		} else if cur, err := e.Store.Read(rc, proj); err == nil {
			vers = cur
		}
		if vers != "" {
			staged.Versions[fmt.Sprintf("%d", proj.ID)] = vers
		}
	}

	// Per-project tags for advanced and tag-only projects.
	for _, pp := range e.Plan.Projects {
		proj := e.Config.Get(pp.ID)
		if proj == nil {
			continue
		}
		if name, ok := proj.FullVersionTag(pp.Target); ok {
			staged.Tags = append(staged.Tags, name)
		}
	}
	sort.Strings(staged.Tags)

	return staged, nil
}

// commitAndPush runs phases 5-7 from staged state.
func (e *Executor) commitAndPush(rc *versio_io.RuntimeContext, staged *Sentinel, opts Options) (*Result, error) {
	log := otelzap.Ctx(rc.Ctx)

	e.Gate.SetIdentity(e.Config.Commit.Author, e.Config.Commit.Email)
	if e.Config.Commit.Sign {
		if opts.SigningKeyPath == "" {
			return nil, versio_err.ConfigError("commit signing is on but no signing key path is set")
		}
		if err := e.Gate.LoadSigningKey(opts.SigningKeyPath); err != nil {
			return nil, err
		}
	}

	priorHead, err := e.Gate.HeadHash()
	if err != nil {
		return nil, err
	}

	// Phase 5: one commit with the configured identity.
	commit, err := e.Gate.CommitPaths(rc, staged.Files, e.Config.Commit.Message)
	if err != nil {
		return nil, err
	}

	if err := e.interrupted(rc); err != nil {
		return nil, err
	}

	// Phase 6: move the marker, then the per-project tags.
	versions := map[uint32]string{}
	for id, vers := range staged.Versions {
		n, err := strconv.ParseUint(id, 10, 32)
		if err != nil {
			return nil, versio_err.VCSError(err, "sentinel names a bad project id %q", id)
		}
		versions[uint32(n)] = vers
	}
	if err := mark.Write(rc, e.Gate, e.Config.Options.PrevTag, versions); err != nil {
		return nil, err
	}

	for _, name := range staged.Tags {
		existing, err := e.Gate.FindTag(name)
		if err != nil {
			return nil, err
		}
		switch {
		case existing == nil && e.Config.Commit.Sign:
			err = e.Gate.CreateAnnotatedTag(name, "versio release")
		case existing == nil:
			err = e.Gate.CreateLightweightTag(name)
		case opts.LockTags:
			log.Debug("tag locked in place", zap.String("tag", name))
			continue
		default:
			err = e.Gate.MoveTag(name, "versio release")
		}
		if err != nil {
			return nil, err
		}
	}

	if err := e.interrupted(rc); err != nil {
		return nil, err
	}

	// Phase 7: the push, or below remote level, stop with local state.
	if e.Gate.Level() < repogate.Remote {
		log.Info("no remote at this vcs level; release is local only")
		return &Result{Commit: commit}, nil
	}

	if err := e.Gate.Push(rc); err != nil {
		if versio_err.IsKind(err, versio_err.KindPushConflict) {
			log.Warn("push conflict; rolling back local release state")
			if rbErr := e.Gate.ResetBranchTo(priorHead); rbErr != nil {
				return nil, versio_err.VCSError(rbErr, "push conflicted and rollback failed; inspect the repository")
			}
			if rbErr := e.Gate.RollbackTags(); rbErr != nil {
				return nil, versio_err.VCSError(rbErr, "push conflicted and tag rollback failed; inspect the repository")
			}
		}
		return nil, err
	}

	return &Result{Commit: commit, Pushed: true}, nil
}

func (e *Executor) runHook(rc *versio_io.RuntimeContext, proj *config.Project, hook string) error {
	cmd := exec.CommandContext(rc.Ctx, "sh", "-c", hook)
	cmd.Dir = filepath.Join(e.Gate.Root(), proj.Root)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			err = fmt.Errorf("%w: %s", err, detail)
		}
		return versio_err.HookError(err, hook)
	}
	return nil
}

// interrupted honors a pending interrupt at a phase boundary.
func (e *Executor) interrupted(rc *versio_io.RuntimeContext) error {
	if err := rc.Ctx.Err(); err != nil {
		return versio_err.VCSError(err, "interrupted between phases")
	}
	return nil
}
