// pkg/repogate/commit.go

package repogate

import (
	"time"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_err"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_io"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// SetIdentity fixes the author identity used for commits and annotated tags.
func (g *Gate) SetIdentity(name, email string) {
	g.identityName = name
	g.identityEmail = email
}

// CommitPaths stages the given repository-relative paths and creates one
// commit, signed when a key is loaded. Returns the new commit hash.
func (g *Gate) CommitPaths(rc *versio_io.RuntimeContext, paths []string, message string) (string, error) {
	if err := g.require("committing", Local); err != nil {
		return "", err
	}
	if err := g.requireWrite("committing"); err != nil {
		return "", err
	}

	wt, err := g.repo.Worktree()
	if err != nil {
		return "", versio_err.VCSError(err, "can't open the working tree")
	}
	for _, path := range paths {
		if _, err := wt.Add(path); err != nil {
			return "", versio_err.VCSError(err, "can't stage %s", path)
		}
	}

	hash, err := wt.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  g.identityName,
			Email: g.identityEmail,
			When:  time.Now(),
		},
		SignKey: g.signKey,
	})
	if err != nil {
		return "", versio_err.VCSError(err, "can't commit")
	}

	otelzap.Ctx(rc.Ctx).Info("created release commit",
		zap.String("hash", hash.String()[:8]),
		zap.Int("paths", len(paths)))
	return hash.String(), nil
}

// ResetBranchTo moves the current branch ref back to a prior commit,
// leaving the working tree as-is. Used only for push-conflict rollback.
func (g *Gate) ResetBranchTo(hash string) error {
	if err := g.require("resetting the branch", Local); err != nil {
		return err
	}
	wt, err := g.repo.Worktree()
	if err != nil {
		return versio_err.VCSError(err, "can't open the working tree")
	}
	err = wt.Reset(&gogit.ResetOptions{Commit: plumbing.NewHash(hash), Mode: gogit.SoftReset})
	if err != nil {
		return versio_err.VCSError(err, "can't reset the branch to %s", hash)
	}
	return nil
}
