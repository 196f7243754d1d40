// pkg/repogate/files.go

package repogate

import (
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_err"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ReadFileAt returns the blob contents of a path in a commit's tree, and
// whether the path exists there.
func (g *Gate) ReadFileAt(hash, path string) ([]byte, bool, error) {
	if err := g.require("reading history", Local); err != nil {
		return nil, false, err
	}
	commit, err := g.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return nil, false, versio_err.VCSError(err, "can't read commit %s", hash)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, false, versio_err.VCSError(err, "can't read tree of %s", hash)
	}
	file, err := tree.File(path)
	if err == object.ErrFileNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, versio_err.VCSError(err, "can't read %s at %s", path, hash)
	}
	contents, err := file.Contents()
	if err != nil {
		return nil, false, versio_err.VCSError(err, "can't read %s at %s", path, hash)
	}
	return []byte(contents), true, nil
}

// commitFileSource adapts one commit's tree to the value store's file
// reader, so versions can be read as of the prior marker.
type commitFileSource struct {
	gate *Gate
	hash string
}

func (s commitFileSource) ReadFile(path string) ([]byte, error) {
	data, ok, err := s.gate.ReadFileAt(s.hash, path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, versio_err.LocationError(nil, "%s does not exist at %s", path, s.hash)
	}
	return data, nil
}

// FileSourceAt returns a reader over the tree of one commit.
func (g *Gate) FileSourceAt(hash string) interface{ ReadFile(string) ([]byte, error) } {
	return commitFileSource{gate: g, hash: hash}
}
