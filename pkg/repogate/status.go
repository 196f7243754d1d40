// pkg/repogate/status.go

package repogate

import (
	"os"
	"path/filepath"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_err"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_io"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// CheckCurrent refuses to proceed when the working directory is not
// "current": uncommitted modifications, untracked files, or an in-progress
// merge or rebase. Below level local there is no repository state to
// disagree with, so the check passes.
func (g *Gate) CheckCurrent(rc *versio_io.RuntimeContext) error {
	if g.level < Local {
		return nil
	}

	gitDir := filepath.Join(g.root, ".git")
	for _, marker := range []string{"MERGE_HEAD", "rebase-merge", "rebase-apply", "CHERRY_PICK_HEAD"} {
		if _, err := os.Stat(filepath.Join(gitDir, marker)); err == nil {
			return versio_err.ConfigError("a merge or rebase is in progress; finish or abort it first")
		}
	}

	wt, err := g.repo.Worktree()
	if err != nil {
		return versio_err.VCSError(err, "can't inspect the working tree")
	}
	status, err := wt.Status()
	if err != nil {
		return versio_err.VCSError(err, "can't read the working tree status")
	}
	if !status.IsClean() {
		var dirty []string
		for path := range status {
			dirty = append(dirty, path)
			if len(dirty) >= 5 {
				break
			}
		}
		otelzap.Ctx(rc.Ctx).Debug("working tree is not current", zap.Strings("paths", dirty))
		return versio_err.ConfigError("the working tree has uncommitted or untracked files; commit or stash them (or pass --no-current)")
	}
	return nil
}
