// cmd/engine.go
//
// Shared wiring for the verbs: open the gate, load the document, resolve
// the marker, walk and group the pending span.

package cmd

import (
	"os"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/config"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/github"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/history"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/location"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/mark"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/plan"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/repogate"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_err"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_io"
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

type engine struct {
	rc        *versio_io.RuntimeContext
	gate      *repogate.Gate
	cfg       *config.Config
	store     *location.Store
	projector *history.Projector
}

// setup opens the repository at the flags' preferred level, requiring at
// least the given level for the verb, and loads the document.
func setup(rc *versio_io.RuntimeContext, cmd *cobra.Command, required repogate.Level) (*engine, error) {
	levelWord, _ := cmd.Flags().GetString("vcs-level")
	preferred, _, err := repogate.ParseLevel(levelWord)
	if err != nil {
		return nil, err
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	dir, err := os.Getwd()
	if err != nil {
		return nil, versio_err.VCSError(err, "can't resolve the working directory")
	}

	gate, err := repogate.Open(rc, dir, preferred, required, dryRun)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(gate.Root())
	if err != nil {
		return nil, err
	}

	return &engine{
		rc:        rc,
		gate:      gate,
		cfg:       cfg,
		store:     location.NewStore(gate.Root(), gate),
		projector: history.NewProjector(gate),
	}, nil
}

// checkCurrent enforces the exclusive working-directory rule unless the
// verb or the user opted out.
func (e *engine) checkCurrent(cmd *cobra.Command) error {
	if noCurrent, _ := cmd.Flags().GetBool("no-current"); noCurrent {
		return nil
	}
	return e.gate.CheckCurrent(e.rc)
}

// fetch refreshes remote refs when the level allows it and the user did not
// opt out.
func (e *engine) fetch(cmd *cobra.Command) error {
	if e.gate.Level() < repogate.Remote {
		return nil
	}
	if noFetch, _ := cmd.Flags().GetBool("no-fetch"); noFetch {
		return nil
	}
	return e.gate.Fetch(e.rc)
}

// marker resolves the prior-release marker; nil when the repository has
// never been released.
func (e *engine) marker() (*mark.Marker, error) {
	return mark.Find(e.rc, e.gate, e.cfg.Options.PrevTag)
}

// pending walks the span since the marker and groups it: pull-request
// stitching at smart level, singleton groups otherwise.
func (e *engine) pending() ([]repogate.CommitInfo, []*plan.Group, error) {
	marker, err := e.marker()
	if err != nil {
		return nil, nil, err
	}
	markerHash := ""
	if marker != nil {
		markerHash = marker.Commit
	}

	commits, err := e.gate.CommitsSince(e.rc, e.cfg.Options.PrevTag, markerHash)
	if err != nil {
		return nil, nil, err
	}

	if e.gate.Level() >= repogate.Smart {
		owner, repo, ok := e.gate.OriginOwnerRepo()
		if ok {
			stitcher := &github.Stitcher{Client: github.NewClient(owner, repo, repogate.Token())}
			groups, err := stitcher.Stitch(e.rc, commits)
			if err != nil {
				return nil, nil, err
			}
			return commits, groups, nil
		}
	}

	otelzap.Ctx(e.rc.Ctx).Debug("grouping commits as singletons",
		zap.String("level", e.gate.Level().String()))
	return commits, plan.SingletonGroups(commits), nil
}

// buildPlan is the full read-side pipeline: fetch, walk, group, build.
func (e *engine) buildPlan(cmd *cobra.Command, lockTags bool) (*plan.Plan, error) {
	if err := e.fetch(cmd); err != nil {
		return nil, err
	}
	_, groups, err := e.pending()
	if err != nil {
		return nil, err
	}
	builder := &plan.Builder{
		Current:   e.cfg,
		Projector: e.projector,
		Store:     e.store,
		LockTags:  lockTags,
	}
	return builder.Build(e.rc, groups)
}

// versionAtMarker reads a project's version as of the marker: the payload
// wins, else the value is read from the marker commit's tree under that
// era's configuration.
func (e *engine) versionAtMarker(marker *mark.Marker, id uint32) (string, bool) {
	if vers, ok := marker.Version(id); ok {
		return vers, true
	}
	cfg := e.projector.ConfigAt(e.rc, marker.Commit)
	proj := cfg.Get(id)
	if proj == nil || proj.Version == nil || proj.Version.IsTags() || proj.Version.IsHook() {
		return "", false
	}
	store := &location.Store{Root: e.gate.Root(), Files: e.gate.FileSourceAt(marker.Commit), Tags: e.gate}
	vers, err := store.ReadSpec(e.rc, proj, proj.Version)
	if err != nil {
		return "", false
	}
	return vers, true
}
