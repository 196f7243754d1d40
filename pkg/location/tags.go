// pkg/location/tags.go

package location

import (
	"strings"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/config"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/size"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_err"
)

// readTags returns the largest semver among the project's own tags, or the
// configured default when the project has never been tagged.
func (s *Store) readTags(proj *config.Project, spec *config.LocationSpec) (string, error) {
	if s.Tags == nil {
		return "", versio_err.LocationError(nil, "project %q uses tags but the VCS level has no tag access", proj.Name)
	}
	prefix, ok := proj.TagGlobPrefix()
	if !ok {
		return "", versio_err.LocationError(nil, "project %q uses tags without a tag_prefix", proj.Name)
	}

	names, err := s.Tags.TagNames(prefix)
	if err != nil {
		return "", versio_err.LocationError(err, "can't list tags for project %q", proj.Name)
	}

	best := ""
	for _, name := range names {
		vers := strings.TrimPrefix(name, prefix)
		if !size.IsVersion(vers) {
			continue
		}
		if best == "" {
			best = vers
			continue
		}
		if cmp, err := size.Compare(vers, best); err == nil && cmp > 0 {
			best = vers
		}
	}
	if best == "" {
		return spec.Tags.Default, nil
	}
	return best, nil
}

// writeTags creates a fresh annotated tag at HEAD.
func (s *Store) writeTags(proj *config.Project, vers string) error {
	if s.Tags == nil {
		return versio_err.LocationError(nil, "project %q uses tags but the VCS level has no tag access", proj.Name)
	}
	name, ok := proj.FullVersionTag(vers)
	if !ok {
		return versio_err.LocationError(nil, "project %q uses tags without a tag_prefix", proj.Name)
	}
	if err := s.Tags.CreateAnnotatedTag(name, "versio release "+vers); err != nil {
		return versio_err.LocationError(err, "can't tag project %q", proj.Name)
	}
	return nil
}
