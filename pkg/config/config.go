// pkg/config/config.go
//
// The declarative project document: parsing, defaults, and validity rules.
// The same loader runs against the working tree and against historical blobs
// (see pkg/history), so parsing is kept free of filesystem assumptions.

package config

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_err"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Filename is the config document name at the repository root.
const Filename = ".versio.yaml"

// DefaultPrevTag is the repository-wide prior-release marker tag.
const DefaultPrevTag = "versio-prev"

var tagPrefixRE = regexp.MustCompile(`^[A-Za-z0-9_-]*$`)

var validate = validator.New()

// Config is the typed model of one parsed document.
type Config struct {
	Options  Options      `yaml:"options"`
	Projects []*Project   `yaml:"projects" validate:"dive,required"`
	Sizes    *SizeSpec    `yaml:"sizes"`
	Commit   CommitConfig `yaml:"commit"`

	sizeMap SizeMap
}

// Options are repository-wide settings.
type Options struct {
	PrevTag string `yaml:"prev_tag"`
}

// CommitConfig is the identity and policy of the release commit.
type CommitConfig struct {
	Author  string `yaml:"author"`
	Email   string `yaml:"email" validate:"omitempty,email"`
	Message string `yaml:"message"`
	Sign    bool   `yaml:"sign"`
}

// Load reads and validates the document at dir, or returns the assumed
// default (no projects, angular sizes failing unmatched types) when the
// file does not exist.
func Load(dir string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(dir, Filename))
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, versio_err.ConfigErrorWrap(err, "can't read %s", Filename)
	}
	return Parse(data)
}

// Default is the assumed configuration when no document is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.sizeMap = AngularSizes()
	return cfg
}

// Parse decodes a document. Unknown keys are rejected, then the validity
// rules run.
func Parse(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	cfg := &Config{}
	if err := dec.Decode(cfg); err != nil {
		return nil, versio_err.ConfigErrorWrap(err, "malformed %s", Filename)
	}

	cfg.applyDefaults()
	if err := cfg.CheckValidity(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseLenient decodes a historical document; a malformed or invalid blob
// degrades to the default configuration instead of failing the replay.
func ParseLenient(data []byte) *Config {
	cfg, err := Parse(data)
	if err != nil {
		return Default()
	}
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Options.PrevTag == "" {
		c.Options.PrevTag = DefaultPrevTag
	}
	if c.Commit.Author == "" {
		c.Commit.Author = "Versio"
	}
	if c.Commit.Email == "" {
		c.Commit.Email = "versio@cybermonkey.net.au"
	}
	if c.Commit.Message == "" {
		c.Commit.Message = "build(deploy): update versions"
	}
	for _, p := range c.Projects {
		p.applyDefaults()
	}
}

// CheckValidity enforces every load-time invariant: unique ids, unique tag
// prefixes, tags-based versions carrying a prefix and default, placeholder
// subdivision patterns, a catch-all sizes entry, and an acyclic depends
// graph.
func (c *Config) CheckValidity() error {
	if err := validate.Struct(c); err != nil {
		return versio_err.ConfigErrorWrap(err, "invalid config")
	}

	ids := map[uint32]bool{}
	prefixes := map[string]bool{}
	for _, p := range c.Projects {
		if ids[p.ID] {
			return versio_err.ConfigError("id %d is duplicated", p.ID)
		}
		ids[p.ID] = true

		if err := p.checkValidity(); err != nil {
			return err
		}

		if p.TagPrefix != nil {
			pref := *p.TagPrefix
			if !tagPrefixRE.MatchString(pref) {
				return versio_err.ConfigError("illegal tag_prefix %q on project %d", pref, p.ID)
			}
			if pref != "" {
				if prefixes[pref] {
					return versio_err.ConfigError("tag_prefix %q is duplicated", pref)
				}
				prefixes[pref] = true
			}
		}
	}

	for _, p := range c.Projects {
		for dep := range p.Depends {
			if !ids[dep] {
				return versio_err.ConfigError("project %d depends on unknown id %d", p.ID, dep)
			}
		}
	}
	if err := c.checkDependsAcyclic(); err != nil {
		return err
	}

	sm, err := c.Sizes.toMap()
	if err != nil {
		return err
	}
	c.sizeMap = sm
	return nil
}

// checkDependsAcyclic rejects cycles in the depends graph; the propagation
// fixed point would not terminate across one.
func (c *Config) checkDependsAcyclic() error {
	// depends points at the dependee, so propagation flows dependee -> dependent;
	// a cycle in either direction is the same cycle.
	adj := map[uint32][]uint32{}
	for _, p := range c.Projects {
		for dep := range p.Depends {
			adj[p.ID] = append(adj[p.ID], dep)
		}
	}

	const (
		white = 0
		grey  = 1
		black = 2
	)
	color := map[uint32]int{}

	var visit func(id uint32) error
	visit = func(id uint32) error {
		color[id] = grey
		for _, next := range adj[id] {
			switch color[next] {
			case grey:
				return versio_err.ConfigError("depends cycle through projects %d and %d", id, next)
			case white:
				if err := visit(next); err != nil {
					return err
				}
			}
		}
		color[id] = black
		return nil
	}

	keys := make([]uint32, 0, len(adj))
	for id := range adj {
		keys = append(keys, id)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, id := range keys {
		if color[id] == white {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}

// SizeMap returns the resolved type-to-size mapping for this document.
func (c *Config) SizeMap() SizeMap {
	if c.sizeMap == nil {
		c.sizeMap = AngularSizes()
	}
	return c.sizeMap
}

// Get returns the project with the given id, or nil.
func (c *Config) Get(id uint32) *Project {
	for _, p := range c.Projects {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// FindByName returns the project with the given display name, or an error
// when absent or ambiguous.
func (c *Config) FindByName(name string) (*Project, error) {
	var found *Project
	for _, p := range c.Projects {
		if p.Name == name {
			if found != nil {
				return nil, versio_err.ConfigError("project name %q is ambiguous", name)
			}
			found = p
		}
	}
	if found == nil {
		return nil, versio_err.ConfigError("no project named %q", name)
	}
	return found, nil
}

// Dependents returns the ids of projects whose depends map contains id,
// in ascending order.
func (c *Config) Dependents(id uint32) []uint32 {
	var out []uint32
	for _, p := range c.Projects {
		if _, ok := p.Depends[id]; ok {
			out = append(out, p.ID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
