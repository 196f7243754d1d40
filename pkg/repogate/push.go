// pkg/repogate/push.go

package repogate

import (
	"strings"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_err"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_io"
	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Fetch updates remote refs. Already-up-to-date is not an error. Fetch is
// a read of the remote, so it is allowed under dry-run.
func (g *Gate) Fetch(rc *versio_io.RuntimeContext) error {
	if err := g.require("fetching", Remote); err != nil {
		return err
	}
	err := g.repo.FetchContext(rc.Ctx, &gogit.FetchOptions{
		RemoteName: g.remoteName,
		Auth:       g.auth(),
		Tags:       gogit.AllTags,
	})
	if err == gogit.NoErrAlreadyUpToDate {
		return nil
	}
	if err != nil {
		if isAuthError(err) {
			return versio_err.RemoteAuthError(err, g.remoteName)
		}
		return versio_err.VCSError(err, "can't fetch from %s", g.remoteName)
	}
	otelzap.Ctx(rc.Ctx).Debug("fetched remote", zap.String("remote", g.remoteName))
	return nil
}

// Push sends the current branch and the run's tags in one operation: the
// single compare-and-swap of a release. A rejected push is surfaced as a
// conflict, never retried.
func (g *Gate) Push(rc *versio_io.RuntimeContext) error {
	if err := g.require("pushing", Remote); err != nil {
		return err
	}
	if err := g.requireWrite("pushing"); err != nil {
		return err
	}

	specs := []gitconfig.RefSpec{
		gitconfig.RefSpec("refs/heads/" + g.branch + ":refs/heads/" + g.branch),
	}
	for _, tag := range g.createdTags {
		specs = append(specs, gitconfig.RefSpec("+refs/tags/"+tag+":refs/tags/"+tag))
	}

	err := g.repo.PushContext(rc.Ctx, &gogit.PushOptions{
		RemoteName: g.remoteName,
		RefSpecs:   specs,
		Auth:       g.auth(),
	})
	if err == gogit.NoErrAlreadyUpToDate {
		return nil
	}
	if err != nil {
		if isAuthError(err) {
			return versio_err.RemoteAuthError(err, g.remoteName)
		}
		if isConflict(err) {
			return versio_err.PushConflict(err)
		}
		return versio_err.VCSError(err, "can't push to %s", g.remoteName)
	}

	otelzap.Ctx(rc.Ctx).Info("pushed release",
		zap.String("branch", g.branch),
		zap.Strings("tags", g.createdTags))
	return nil
}

// auth builds transport credentials for HTTPS remotes from the host token;
// SSH remotes fall back to the ambient agent.
func (g *Gate) auth() transport.AuthMethod {
	if !strings.HasPrefix(g.remoteURL, "https://") {
		return nil
	}
	tok := Token()
	if tok == "" {
		return nil
	}
	return &githttp.BasicAuth{Username: "git", Password: tok}
}

func isConflict(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "non-fast-forward") || strings.Contains(msg, "fetch first") ||
		strings.Contains(msg, "failed to update ref")
}

func isAuthError(err error) bool {
	if err == transport.ErrAuthenticationRequired || err == transport.ErrAuthorizationFailed {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "authentication required") || strings.Contains(msg, "authorization failed")
}
