// pkg/repogate/walker.go
//
// Commit enumeration between the prior marker and HEAD: the set
// ancestors(HEAD) \ ancestors(marker), oldest first, each with its
// changed-path set against its first parent.

package repogate

import (
	"sort"
	"time"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_err"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_io"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// CommitInfo is one commit in the pending span.
type CommitInfo struct {
	Hash          string
	Summary       string
	Message       string
	AuthorName    string
	AuthorEmail   string
	CommitterTime time.Time
	Parents       []string
	Files         []string
}

// HeadHash returns the current HEAD commit hash.
func (g *Gate) HeadHash() (string, error) {
	if err := g.require("reading HEAD", Local); err != nil {
		return "", err
	}
	head, err := g.repo.Head()
	if err != nil {
		return "", versio_err.VCSError(err, "can't resolve HEAD")
	}
	return head.Hash().String(), nil
}

// CommitsSince walks the span after markerHash up to HEAD. When the marker
// is not an ancestor of HEAD the span is meaningless and the walk fails
// with a marker-lost error instead of producing commits.
func (g *Gate) CommitsSince(rc *versio_io.RuntimeContext, markerName, markerHash string) ([]CommitInfo, error) {
	if err := g.require("walking commits", Local); err != nil {
		return nil, err
	}

	head, err := g.repo.Head()
	if err != nil {
		return nil, versio_err.VCSError(err, "can't resolve HEAD")
	}
	headCommit, err := g.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, versio_err.VCSError(err, "can't read HEAD commit")
	}
	// A repository with no marker yet has its whole history pending.
	excluded := map[plumbing.Hash]bool{}
	if markerHash != "" {
		markerCommit, err := g.repo.CommitObject(plumbing.NewHash(markerHash))
		if err != nil {
			return nil, versio_err.VCSError(err, "can't read marker commit %s", markerHash)
		}

		if markerCommit.Hash != headCommit.Hash {
			isAncestor, err := markerCommit.IsAncestor(headCommit)
			if err != nil {
				return nil, versio_err.VCSError(err, "can't relate marker to HEAD")
			}
			if !isAncestor {
				return nil, versio_err.MarkerLostError(markerName)
			}
		}

		markerIter := object.NewCommitPreorderIter(markerCommit, nil, nil)
		err = markerIter.ForEach(func(c *object.Commit) error {
			excluded[c.Hash] = true
			return nil
		})
		if err != nil {
			return nil, versio_err.VCSError(err, "can't walk released history")
		}
	}

	var span []*object.Commit
	headIter := object.NewCommitPreorderIter(headCommit, excluded, nil)
	err = headIter.ForEach(func(c *object.Commit) error {
		if !excluded[c.Hash] {
			span = append(span, c)
		}
		return nil
	})
	if err != nil {
		return nil, versio_err.VCSError(err, "can't walk pending history")
	}

	sort.SliceStable(span, func(i, j int) bool {
		if !span[i].Committer.When.Equal(span[j].Committer.When) {
			return span[i].Committer.When.Before(span[j].Committer.When)
		}
		return span[i].Hash.String() < span[j].Hash.String()
	})

	infos := make([]CommitInfo, 0, len(span))
	for _, c := range span {
		info, err := g.commitInfo(c)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}

	otelzap.Ctx(rc.Ctx).Debug("walked pending span",
		zap.String("marker", markerHash),
		zap.Int("commits", len(infos)))
	return infos, nil
}

func (g *Gate) commitInfo(c *object.Commit) (CommitInfo, error) {
	info := CommitInfo{
		Hash:          c.Hash.String(),
		Message:       c.Message,
		Summary:       firstLine(c.Message),
		AuthorName:    c.Author.Name,
		AuthorEmail:   c.Author.Email,
		CommitterTime: c.Committer.When,
	}
	for _, p := range c.ParentHashes {
		info.Parents = append(info.Parents, p.String())
	}

	files, err := changedPaths(c)
	if err != nil {
		return info, versio_err.VCSError(err, "can't diff commit %s", info.Hash)
	}
	info.Files = files
	return info, nil
}

// changedPaths diffs a commit against its first parent; a root commit
// contributes its whole tree.
func changedPaths(c *object.Commit) ([]string, error) {
	tree, err := c.Tree()
	if err != nil {
		return nil, err
	}

	if c.NumParents() == 0 {
		var files []string
		err := tree.Files().ForEach(func(f *object.File) error {
			files = append(files, f.Name)
			return nil
		})
		return files, err
	}

	parent, err := c.Parent(0)
	if err != nil {
		return nil, err
	}
	parentTree, err := parent.Tree()
	if err != nil {
		return nil, err
	}

	changes, err := object.DiffTree(parentTree, tree)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var files []string
	for _, ch := range changes {
		for _, name := range []string{ch.From.Name, ch.To.Name} {
			if name != "" && !seen[name] {
				seen[name] = true
				files = append(files, name)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

func firstLine(msg string) string {
	for i := 0; i < len(msg); i++ {
		if msg[i] == '\n' {
			return msg[:i]
		}
	}
	return msg
}
