// pkg/config/location.go
//
// Version locations as written in the document: a manifest file plus a
// structured selector, a tag scheme, or a get/set shell pair. The actual
// readers and writers live in pkg/location.

package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format names the manifest flavor a selector navigates.
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatTOML    Format = "toml"
	FormatXML     Format = "xml"
	FormatPattern Format = "pattern"
)

// LocationSpec is the tagged variant of §"VersionLocation": exactly one of
// the three cases is set.
type LocationSpec struct {
	// file + structured selector (or regex pattern)
	File     string
	Format   Format
	Selector *Selector
	Pattern  string

	// tag scheme
	Tags *TagSpec

	// shell pair
	Get string
	Set string
}

// TagSpec reads the version from the project's own tags.
type TagSpec struct {
	Default string `yaml:"default"`
}

// IsTags reports whether this is the tag-scheme case.
func (l *LocationSpec) IsTags() bool { return l.Tags != nil }

// IsHook reports whether this is the get/set shell case.
func (l *LocationSpec) IsHook() bool { return l.Get != "" || l.Set != "" }

func (l *LocationSpec) String() string {
	switch {
	case l.IsTags():
		return "tags"
	case l.IsHook():
		return fmt.Sprintf("hook(%s)", l.Get)
	case l.Format == FormatPattern:
		return fmt.Sprintf("%s:pattern", l.File)
	default:
		return fmt.Sprintf("%s:%s:%s", l.File, l.Format, l.Selector)
	}
}

func (l *LocationSpec) UnmarshalYAML(node *yaml.Node) error {
	fields := map[string]*yaml.Node{}
	if err := node.Decode(&fields); err != nil {
		return err
	}

	for key, val := range fields {
		switch key {
		case "file":
			if err := val.Decode(&l.File); err != nil {
				return err
			}
		case "json", "yaml", "toml", "xml":
			if l.Format != "" {
				return fmt.Errorf("version location has more than one selector")
			}
			l.Format = Format(key)
			l.Selector = &Selector{}
			if err := val.Decode(l.Selector); err != nil {
				return err
			}
		case "pattern":
			if l.Format != "" {
				return fmt.Errorf("version location has more than one selector")
			}
			l.Format = FormatPattern
			if err := val.Decode(&l.Pattern); err != nil {
				return err
			}
		case "tags":
			l.Tags = &TagSpec{}
			if err := val.Decode(l.Tags); err != nil {
				return err
			}
		case "get":
			if err := val.Decode(&l.Get); err != nil {
				return err
			}
		case "set":
			if err := val.Decode(&l.Set); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown version location key %q", key)
		}
	}

	return l.checkShape()
}

func (l *LocationSpec) checkShape() error {
	cases := 0
	if l.File != "" {
		cases++
		if l.Format == "" {
			return fmt.Errorf("file location %q has no selector", l.File)
		}
	}
	if l.Tags != nil {
		cases++
	}
	if l.IsHook() {
		cases++
		if l.Get == "" || l.Set == "" {
			return fmt.Errorf("hook location requires both get and set")
		}
	}
	if cases != 1 {
		return fmt.Errorf("version location must be exactly one of file, tags, or get/set")
	}
	return nil
}

// SubLocation is a dependency write target inside a dependent project:
// a file, a selector, and an optional value template whose sole variable
// is the dependee's raw new version.
type SubLocation struct {
	File     string
	Format   Format
	Selector *Selector
	Pattern  string
	Value    string // e.g. "lib v{v}"; empty writes the raw version
}

func (s *SubLocation) UnmarshalYAML(node *yaml.Node) error {
	fields := map[string]*yaml.Node{}
	if err := node.Decode(&fields); err != nil {
		return err
	}

	for key, val := range fields {
		switch key {
		case "file":
			if err := val.Decode(&s.File); err != nil {
				return err
			}
		case "json", "yaml", "toml", "xml":
			if s.Format != "" {
				return fmt.Errorf("depends file has more than one selector")
			}
			s.Format = Format(key)
			s.Selector = &Selector{}
			if err := val.Decode(s.Selector); err != nil {
				return err
			}
		case "pattern":
			if s.Format != "" {
				return fmt.Errorf("depends file has more than one selector")
			}
			s.Format = FormatPattern
			if err := val.Decode(&s.Pattern); err != nil {
				return err
			}
		case "value":
			if err := val.Decode(&s.Value); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown depends file key %q", key)
		}
	}

	if s.File == "" || s.Format == "" {
		return fmt.Errorf("depends file requires a file and a selector")
	}
	return nil
}

// Atom is one step of a structured selector: a map key or a zero-based
// array index. An atom parsed from a dotted string that happens to be
// numeric stays ambiguous: the reader prefers the map key when present,
// else the index.
type Atom struct {
	Key       string
	Index     int
	IsIndex   bool
	Ambiguous bool
}

func (a Atom) String() string {
	if a.IsIndex {
		return strconv.Itoa(a.Index)
	}
	return a.Key
}

// Selector is an ordered atom sequence. The document supplies it either as
// a dotted string or as a list; the list form exists so that dots inside
// keys and key-vs-index ambiguity can be expressed.
type Selector struct {
	Atoms []Atom
}

func (s *Selector) String() string {
	parts := make([]string, len(s.Atoms))
	for i, a := range s.Atoms {
		parts[i] = a.String()
	}
	return strings.Join(parts, ".")
}

func (s *Selector) UnmarshalYAML(node *yaml.Node) error {
	var dotted string
	if err := node.Decode(&dotted); err == nil {
		parsed, perr := ParseDottedSelector(dotted)
		if perr != nil {
			return perr
		}
		s.Atoms = parsed.Atoms
		return nil
	}

	var items []yaml.Node
	if err := node.Decode(&items); err != nil {
		return err
	}
	for _, item := range items {
		var n int
		if err := item.Decode(&n); err == nil && item.Tag == "!!int" {
			if n < 0 {
				return fmt.Errorf("selector index %d is negative", n)
			}
			s.Atoms = append(s.Atoms, Atom{Index: n, IsIndex: true})
			continue
		}
		var key string
		if err := item.Decode(&key); err != nil {
			return err
		}
		s.Atoms = append(s.Atoms, Atom{Key: key})
	}
	if len(s.Atoms) == 0 {
		return fmt.Errorf("selector is empty")
	}
	return nil
}

// ParseDottedSelector parses the dotted-string selector form. Numeric parts
// stay ambiguous between key and index.
func ParseDottedSelector(dotted string) (*Selector, error) {
	if dotted == "" {
		return nil, fmt.Errorf("selector is empty")
	}
	sel := &Selector{}
	for _, part := range strings.Split(dotted, ".") {
		if part == "" {
			return nil, fmt.Errorf("selector %q has an empty atom", dotted)
		}
		if n, err := strconv.Atoi(part); err == nil && n >= 0 {
			sel.Atoms = append(sel.Atoms, Atom{Key: part, Index: n, Ambiguous: true})
			continue
		}
		sel.Atoms = append(sel.Atoms, Atom{Key: part})
	}
	return sel, nil
}
