// pkg/repogate/tags.go

package repogate

import (
	"strings"
	"time"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_err"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// TagInfo is one resolved tag: its name, target commit, and annotation
// body when annotated.
type TagInfo struct {
	Name    string
	Commit  string
	Message string
}

// TagNames lists tag names with the given prefix; an empty prefix lists
// all tags.
func (g *Gate) TagNames(prefix string) ([]string, error) {
	if err := g.require("listing tags", Local); err != nil {
		return nil, err
	}
	iter, err := g.repo.Tags()
	if err != nil {
		return nil, versio_err.VCSError(err, "can't list tags")
	}
	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, versio_err.VCSError(err, "can't list tags")
	}
	return names, nil
}

// FindTag resolves a tag by name, following annotated tag objects to their
// target commit. Returns nil when the tag does not exist.
func (g *Gate) FindTag(name string) (*TagInfo, error) {
	if err := g.require("reading tags", Local); err != nil {
		return nil, err
	}
	ref, err := g.repo.Tag(name)
	if err == gogit.ErrTagNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, versio_err.VCSError(err, "can't read tag %q", name)
	}

	info := &TagInfo{Name: name}
	if tagObj, err := g.repo.TagObject(ref.Hash()); err == nil {
		info.Commit = tagObj.Target.String()
		info.Message = tagObj.Message
	} else {
		info.Commit = ref.Hash().String()
	}
	return info, nil
}

// CreateAnnotatedTag tags HEAD with an annotation body, optionally signed
// by the loaded key.
func (g *Gate) CreateAnnotatedTag(name, message string) error {
	return g.createTagAt(name, "", message, true)
}

// CreateLightweightTag tags HEAD with a plain ref.
func (g *Gate) CreateLightweightTag(name string) error {
	return g.createTagAt(name, "", "", false)
}

// MoveTag re-points a tag, remembering its prior target for conflict
// rollback.
func (g *Gate) MoveTag(name, message string) error {
	if err := g.require("moving tags", Local); err != nil {
		return err
	}
	if err := g.requireWrite("moving a tag"); err != nil {
		return err
	}
	if ref, err := g.repo.Tag(name); err == nil {
		prior := ref.Hash()
		if err := g.repo.DeleteTag(name); err != nil {
			return versio_err.VCSError(err, "can't move tag %q", name)
		}
		g.movedTags[name] = prior
	}
	return g.createTagAt(name, "", message, true)
}

func (g *Gate) createTagAt(name, hash, message string, annotated bool) error {
	if err := g.require("creating tags", Local); err != nil {
		return err
	}
	if err := g.requireWrite("creating a tag"); err != nil {
		return err
	}

	target := plumbing.ZeroHash
	if hash == "" {
		head, err := g.repo.Head()
		if err != nil {
			return versio_err.VCSError(err, "can't resolve HEAD")
		}
		target = head.Hash()
	} else {
		target = plumbing.NewHash(hash)
	}

	var opts *gogit.CreateTagOptions
	if annotated {
		opts = &gogit.CreateTagOptions{
			Tagger:  &object.Signature{Name: g.identityName, Email: g.identityEmail, When: time.Now()},
			Message: message,
			SignKey: g.signKey,
		}
	}
	if _, err := g.repo.CreateTag(name, target, opts); err != nil {
		return versio_err.VCSError(err, "can't create tag %q", name)
	}
	g.createdTags = append(g.createdTags, name)
	return nil
}

// CreatedTags lists the tags this run created or moved, for the push.
func (g *Gate) CreatedTags() []string {
	return append([]string{}, g.createdTags...)
}

// RollbackTags deletes tags created this run and restores any it moved.
func (g *Gate) RollbackTags() error {
	for _, name := range g.createdTags {
		if err := g.repo.DeleteTag(name); err != nil && err != gogit.ErrTagNotFound {
			return versio_err.VCSError(err, "can't roll back tag %q", name)
		}
	}
	g.createdTags = nil
	for name, prior := range g.movedTags {
		ref := plumbing.NewReferenceFromStrings("refs/tags/"+name, prior.String())
		if err := g.repo.Storer.SetReference(ref); err != nil {
			return versio_err.VCSError(err, "can't restore tag %q", name)
		}
		delete(g.movedTags, name)
	}
	return nil
}
