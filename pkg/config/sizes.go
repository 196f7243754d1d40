// pkg/config/sizes.go
//
// The sizes block maps conventional-commit types onto the size lattice.
// The document groups types under each size; the engine wants the inverse.

package config

import (
	"github.com/CodeMonkeyCybersecurity/versio/pkg/conventional"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/size"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_err"
)

// SizeSpec is the document form: optional angular overlay plus per-size
// type lists.
type SizeSpec struct {
	UseAngular bool     `yaml:"use_angular"`
	Major      []string `yaml:"major"`
	Minor      []string `yaml:"minor"`
	Patch      []string `yaml:"patch"`
	None       []string `yaml:"none"`
	Fail       []string `yaml:"fail"`
}

// SizeMap is the resolved mapping from conventional type to size. Special
// keys: "!" breaking commits, "-" unparseable messages, "*" catch-all.
type SizeMap map[string]size.Size

// AngularSizes is the conventional angular mapping with a failing catch-all;
// also the assumed mapping when no document is present.
func AngularSizes() SizeMap {
	m := SizeMap{}
	insertAngular(m)
	m["*"] = size.Fail
	return m
}

func insertAngular(m SizeMap) {
	m["!"] = size.Major
	m["feat"] = size.Minor
	m["fix"] = size.Patch
	for _, kind := range []string{"build", "chore", "ci", "docs", "perf", "refactor", "style", "test"} {
		m[kind] = size.None
	}
}

func (s *SizeSpec) toMap() (SizeMap, error) {
	if s == nil {
		return AngularSizes(), nil
	}

	m := SizeMap{}
	if s.UseAngular {
		insertAngular(m)
	}

	seen := map[string]bool{}
	for _, group := range []struct {
		kinds []string
		size  size.Size
	}{
		{s.Major, size.Major},
		{s.Minor, size.Minor},
		{s.Patch, size.Patch},
		{s.None, size.None},
		{s.Fail, size.Fail},
	} {
		for _, kind := range group.kinds {
			if seen[kind] {
				return nil, versio_err.ConfigError("sizes lists type %q more than once", kind)
			}
			seen[kind] = true
			m[kind] = group.size
		}
	}

	if _, ok := m["*"]; !ok {
		return nil, versio_err.ConfigError("sizes has no catch-all \"*\" entry")
	}
	return m, nil
}

// Resolve picks the size of one parsed commit message under this map.
func (m SizeMap) Resolve(msg conventional.Message) size.Size {
	if !msg.Parsed {
		if s, ok := m["-"]; ok {
			return s
		}
		return m["*"]
	}
	if msg.Breaking {
		if s, ok := m["!"]; ok {
			return s
		}
	}
	if s, ok := m[msg.Kind]; ok {
		return s
	}
	return m["*"]
}
