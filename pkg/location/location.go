// pkg/location/location.go
//
// Reading and writing one version string at a location. Manifest writers are
// minimal-edit: each format scanner yields the byte span of the selected
// value, and the write splices only that span. Rewriting a manifest through
// a serializer would clobber its formatting, so none of them do.

package location

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/config"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/size"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_err"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_io"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// span is the located byte range of a value inside a file.
type span struct {
	start int
	end   int
	value string
}

// TagSource is the slice of repository behavior tag locations need; the
// repo gate implements it.
type TagSource interface {
	TagNames(prefix string) ([]string, error)
	CreateAnnotatedTag(name, message string) error
}

// FileSource reads manifest bytes. The working tree and any historical
// commit tree both satisfy it, which is how `--prev` reads work.
type FileSource interface {
	ReadFile(path string) ([]byte, error)
}

// DirSource reads manifests from a directory on disk.
type DirSource string

func (d DirSource) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(filepath.Join(string(d), path))
}

// Store reads and writes version values for one repository.
type Store struct {
	Root  string     // repository root on disk
	Files FileSource // defaults to the working tree under Root
	Tags  TagSource  // tag access; tag locations fail when it is nil or refuses (below VCS level local)
}

// NewStore builds a working-tree store.
func NewStore(root string, tags TagSource) *Store {
	return &Store{Root: root, Files: DirSource(root), Tags: tags}
}

// Read returns the current version at the project's primary location.
func (s *Store) Read(rc *versio_io.RuntimeContext, proj *config.Project) (string, error) {
	return s.ReadSpec(rc, proj, proj.Version)
}

// ReadSpec returns the version at one of the project's locations.
func (s *Store) ReadSpec(rc *versio_io.RuntimeContext, proj *config.Project, spec *config.LocationSpec) (string, error) {
	var value string
	var err error
	switch {
	case spec.IsTags():
		value, err = s.readTags(proj, spec)
	case spec.IsHook():
		value, err = s.readHook(rc, proj, spec)
	default:
		var sp span
		sp, err = s.locate(proj, spec)
		value = sp.value
	}
	if err != nil {
		return "", err
	}
	if !size.IsVersion(value) {
		return "", versio_err.LocationError(nil, "value %q at %s of project %q is not a version", value, spec, proj.Name)
	}
	return value, nil
}

// Write replaces the version at one of the project's locations.
func (s *Store) Write(rc *versio_io.RuntimeContext, proj *config.Project, spec *config.LocationSpec, vers string) error {
	log := otelzap.Ctx(rc.Ctx)
	log.Debug("writing version",
		zap.String("project", proj.Name),
		zap.String("location", spec.String()),
		zap.String("version", vers))

	switch {
	case spec.IsTags():
		return s.writeTags(proj, vers)
	case spec.IsHook():
		return s.writeHook(rc, proj, spec, vers)
	default:
		file := filepath.Join(proj.Root, spec.File)
		return s.splice(file, vers, func(data []byte) (span, error) {
			return locateIn(data, spec.Format, spec.Selector, spec.Pattern)
		})
	}
}

// WriteSub writes a rendered dependency value into a sub-file location.
// Sub-file paths are relative to the repository root.
func (s *Store) WriteSub(rc *versio_io.RuntimeContext, sub *config.SubLocation, rendered string) error {
	otelzap.Ctx(rc.Ctx).Debug("writing dependency value",
		zap.String("file", sub.File),
		zap.String("value", rendered))
	return s.splice(sub.File, rendered, func(data []byte) (span, error) {
		return locateIn(data, sub.Format, sub.Selector, sub.Pattern)
	})
}

// RenderValue applies a per-location value template; "{v}" is the raw
// version. An empty template passes the version through.
func RenderValue(tmpl, vers string) string {
	if tmpl == "" {
		return vers
	}
	return strings.ReplaceAll(tmpl, "{v}", vers)
}

func (s *Store) locate(proj *config.Project, spec *config.LocationSpec) (span, error) {
	file := filepath.Join(proj.Root, spec.File)
	data, err := s.Files.ReadFile(file)
	if err != nil {
		return span{}, versio_err.LocationError(err, "can't read %s", file)
	}
	sp, err := locateIn(data, spec.Format, spec.Selector, spec.Pattern)
	if err != nil {
		return span{}, versio_err.LocationError(err, "no version at %s in %s", spec, file)
	}
	return sp, nil
}

func locateIn(data []byte, format config.Format, sel *config.Selector, pattern string) (span, error) {
	switch format {
	case config.FormatJSON:
		return jsonLocate(data, sel.Atoms)
	case config.FormatYAML:
		return yamlLocate(data, sel.Atoms)
	case config.FormatTOML:
		return tomlLocate(data, sel.Atoms)
	case config.FormatXML:
		return xmlLocate(data, sel.Atoms)
	case config.FormatPattern:
		return patternLocate(data, pattern)
	}
	return span{}, fmt.Errorf("unsupported format %q", format)
}

// splice rewrites just the located span of a file, leaving every other byte
// untouched.
func (s *Store) splice(file, newValue string, find func([]byte) (span, error)) error {
	full := filepath.Join(s.Root, file)
	data, err := os.ReadFile(full)
	if err != nil {
		return versio_err.LocationError(err, "can't read %s", file)
	}
	sp, err := find(data)
	if err != nil {
		return versio_err.LocationError(err, "no version value in %s", file)
	}

	info, err := os.Stat(full)
	if err != nil {
		return versio_err.LocationError(err, "can't stat %s", file)
	}

	out := make([]byte, 0, len(data)+len(newValue))
	out = append(out, data[:sp.start]...)
	out = append(out, newValue...)
	out = append(out, data[sp.end:]...)

	if err := os.WriteFile(full, out, info.Mode().Perm()); err != nil {
		return versio_err.LocationError(err, "can't write %s", file)
	}
	return nil
}
