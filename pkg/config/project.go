// pkg/config/project.go

package config

import (
	"fmt"
	"path"
	"strings"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/size"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_err"
	"github.com/bmatcuk/doublestar"
	"gopkg.in/yaml.v3"
)

// Project is one released unit inside the repository.
type Project struct {
	Name               string             `yaml:"name" validate:"required"`
	ID                 uint32             `yaml:"id" validate:"required"`
	Root               string             `yaml:"root"`
	Includes           []string           `yaml:"includes"`
	Excludes           []string           `yaml:"excludes"`
	Depends            map[uint32]*Depend `yaml:"depends"`
	Changelog          *ChangelogSpec     `yaml:"changelog"`
	Version            *LocationSpec      `yaml:"version"`
	Also               []*LocationSpec    `yaml:"also"`
	TagPrefix          *string            `yaml:"tag_prefix"`
	TagPrefixSeparator string             `yaml:"tag_prefix_separator"`
	Subs               *Subs              `yaml:"subs"`
	Labels             StringList         `yaml:"labels"`
	Hooks              Hooks              `yaml:"hooks"`
}

// Depend declares how a dependee's advance propagates into this project.
// An omitted size means "match".
type Depend struct {
	Size  RelSize
	Files []*SubLocation
}

func (d *Depend) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Size  *RelSize       `yaml:"size"`
		Files []*SubLocation `yaml:"files"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.Size == nil {
		d.Size = RelSize{Match: true}
	} else {
		d.Size = *raw.Size
	}
	d.Files = raw.Files
	return nil
}

// Subs is the major-number subdivision rule: dirs carries the "<>"
// placeholder, tops are the majors living at the project root itself.
type Subs struct {
	Dirs string   `yaml:"dirs"`
	Tops []uint32 `yaml:"tops"`
}

// Dir substitutes a major number into the subdivision pattern.
func (s *Subs) Dir(major uint64) string {
	return strings.ReplaceAll(s.Dirs, "<>", fmt.Sprintf("%d", major))
}

// IsTop reports whether the major lives at the project root rather than in
// a subdivided directory.
func (s *Subs) IsTop(major uint64) bool {
	for _, t := range s.Tops {
		if uint64(t) == major {
			return true
		}
	}
	return false
}

// Hooks are shell commands run at fixed points of a release.
type Hooks struct {
	PostWrite string `yaml:"post_write"`
}

// RelSize is a dependency propagation: an exact size, or "match" which
// copies the dependee's full new version.
type RelSize struct {
	Match bool
	Size  size.Size
}

func (r *RelSize) UnmarshalYAML(node *yaml.Node) error {
	var word string
	if err := node.Decode(&word); err != nil {
		return err
	}
	if word == "match" {
		r.Match = true
		return nil
	}
	s, err := size.Parse(word)
	if err != nil || s == size.Fail {
		return fmt.Errorf("unrecognized depends size %q", word)
	}
	r.Size = s
	return nil
}

func (r RelSize) String() string {
	if r.Match {
		return "match"
	}
	return r.Size.String()
}

// StringList accepts a bare string or a list of strings.
type StringList []string

func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	var one string
	if err := node.Decode(&one); err == nil {
		*l = StringList{one}
		return nil
	}
	var many []string
	if err := node.Decode(&many); err != nil {
		return err
	}
	*l = StringList(many)
	return nil
}

// ChangelogSpec accepts a bare file name or {file, template}.
type ChangelogSpec struct {
	File     string
	Template string
}

func (c *ChangelogSpec) UnmarshalYAML(node *yaml.Node) error {
	var file string
	if err := node.Decode(&file); err == nil {
		c.File = file
		return nil
	}
	var full struct {
		File     string `yaml:"file"`
		Template string `yaml:"template"`
	}
	if err := node.Decode(&full); err != nil {
		return err
	}
	if full.File == "" {
		return fmt.Errorf("changelog requires a file")
	}
	c.File = full.File
	c.Template = full.Template
	return nil
}

func (p *Project) applyDefaults() {
	if p.Root == "" {
		p.Root = "."
	}
	if len(p.Includes) == 0 {
		p.Includes = []string{"**/*"}
	}
	if p.TagPrefixSeparator == "" {
		p.TagPrefixSeparator = "-"
	}
	if p.Subs != nil {
		if p.Subs.Dirs == "" {
			p.Subs.Dirs = "v<>"
		}
		if p.Subs.Tops == nil {
			p.Subs.Tops = []uint32{0, 1}
		}
	}
}

func (p *Project) checkValidity() error {
	if p.Version == nil {
		return versio_err.ConfigError("project %d has no version location", p.ID)
	}
	if p.Version.Tags != nil {
		if p.TagPrefix == nil {
			return versio_err.ConfigError("project %d has version: tags without tag_prefix", p.ID)
		}
		if p.Version.Tags.Default == "" {
			return versio_err.ConfigError("project %d has version: tags without a default", p.ID)
		}
	}
	if p.Subs != nil && !strings.Contains(p.Subs.Dirs, "<>") {
		return versio_err.ConfigError("project %d subs dirs %q has no \"<>\" placeholder", p.ID, p.Subs.Dirs)
	}
	for _, g := range append(append([]string{}, p.Includes...), p.Excludes...) {
		if path.IsAbs(g) || strings.HasPrefix(g, "../") {
			return versio_err.ConfigError("project %d glob %q is not rooted at the project root", p.ID, g)
		}
		if _, err := doublestar.Match(g, "x"); err != nil {
			return versio_err.ConfigErrorWrap(err, "project %d glob %q", p.ID, g)
		}
	}
	return nil
}

// DoesCover reports whether a repository-relative path falls in this
// project: inside its root, matching an include glob, matching no exclude.
func (p *Project) DoesCover(repoPath string) bool {
	rel, ok := p.relative(repoPath)
	if !ok {
		return false
	}
	included := false
	for _, g := range p.Includes {
		if matched, err := doublestar.Match(g, rel); err == nil && matched {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, g := range p.Excludes {
		if matched, err := doublestar.Match(g, rel); err == nil && matched {
			return false
		}
	}
	return true
}

func (p *Project) relative(repoPath string) (string, bool) {
	root := path.Clean(p.Root)
	if root == "." {
		return repoPath, true
	}
	if !strings.HasPrefix(repoPath, root+"/") {
		return "", false
	}
	return repoPath[len(root)+1:], true
}

// FullVersionTag renders the per-project tag for a version, e.g. "lib-v1.2.3".
// An empty prefix collapses to "v1.2.3".
func (p *Project) FullVersionTag(vers string) (string, bool) {
	if p.TagPrefix == nil {
		return "", false
	}
	if *p.TagPrefix == "" {
		return "v" + vers, true
	}
	return *p.TagPrefix + p.TagPrefixSeparator + "v" + vers, true
}

// TagGlobPrefix returns the leading text of all tags this project owns.
func (p *Project) TagGlobPrefix() (string, bool) {
	if p.TagPrefix == nil {
		return "", false
	}
	if *p.TagPrefix == "" {
		return "v", true
	}
	return *p.TagPrefix + p.TagPrefixSeparator + "v", true
}

// HasLabel reports whether the project carries the given label.
func (p *Project) HasLabel(label string) bool {
	for _, l := range p.Labels {
		if l == label {
			return true
		}
	}
	return false
}
