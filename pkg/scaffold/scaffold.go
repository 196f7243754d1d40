// pkg/scaffold/scaffold.go
//
// Config scaffolding for `versio init`: walk the tree for recognizable
// manifests and emit a starter document, one project per directory that
// holds one.

package scaffold

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/config"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_err"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_io"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Detected is one manifest the scan recognized.
type Detected struct {
	Root     string
	Name     string
	Manifest string
	Spec     string // the version location lines, indented for the document
}

type detector struct {
	filename string
	spec     string
}

// detectors map manifest files to version locations; ordering decides which
// one names a directory holding several.
var detectors = []detector{
	{"package.json", "    version:\n      file: \"package.json\"\n      json: \"version\"\n"},
	{"Cargo.toml", "    version:\n      file: \"Cargo.toml\"\n      toml: \"package.version\"\n"},
	{"pyproject.toml", "    version:\n      file: \"pyproject.toml\"\n      toml: \"project.version\"\n"},
	{"pom.xml", "    version:\n      file: \"pom.xml\"\n      xml: \"project.version\"\n"},
	{"go.mod", "    version:\n      tags:\n        default: \"0.0.0\"\n"},
	{"setup.py", "    version:\n      file: \"setup.py\"\n      pattern: \"version='(\\\\d+\\\\.\\\\d+\\\\.\\\\d+)'\"\n"},
}

// Scan walks the repository (skipping dot-directories) and detects projects.
func Scan(rc *versio_io.RuntimeContext, root string) ([]Detected, error) {
	found := map[string]Detected{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if name := d.Name(); path != root && (strings.HasPrefix(name, ".") || name == "node_modules" || name == "target" || name == "vendor") {
				return filepath.SkipDir
			}
			return nil
		}
		for rank, det := range detectors {
			if d.Name() != det.filename {
				continue
			}
			dir, _ := filepath.Rel(root, filepath.Dir(path))
			if prev, taken := found[dir]; taken {
				prevRank := len(detectors)
				for i, other := range detectors {
					if other.filename == prev.Manifest {
						prevRank = i
					}
				}
				if prevRank <= rank {
					break
				}
			}
			name := filepath.Base(filepath.Dir(path))
			if dir == "." {
				name = filepath.Base(root)
			}
			found[dir] = Detected{Root: dir, Name: name, Manifest: det.filename, Spec: det.spec}
			break
		}
		return nil
	})
	if err != nil {
		return nil, versio_err.ConfigErrorWrap(err, "can't scan %s", root)
	}

	out := make([]Detected, 0, len(found))
	for _, det := range found {
		out = append(out, det)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Root < out[j].Root })

	otelzap.Ctx(rc.Ctx).Debug("scaffold scan complete", zap.Int("projects", len(out)))
	return out, nil
}

// Render emits the starter document.
func Render(detected []Detected) string {
	var b strings.Builder
	b.WriteString("options:\n  prev_tag: \"" + config.DefaultPrevTag + "\"\n\nprojects:\n")
	for i, det := range detected {
		fmt.Fprintf(&b, "  - name: %s\n    id: %d\n", det.Name, i+1)
		if det.Root != "." {
			fmt.Fprintf(&b, "    root: \"%s\"\n", det.Root)
		}
		b.WriteString(det.Spec)
		if det.Manifest == "go.mod" {
			fmt.Fprintf(&b, "    tag_prefix: \"%s\"\n", det.Name)
		}
	}
	b.WriteString("\nsizes:\n  use_angular: true\n  fail: [\"*\"]\n")
	return b.String()
}

// Write scaffolds the document at root, refusing to clobber an existing one.
func Write(rc *versio_io.RuntimeContext, root string) error {
	path := filepath.Join(root, config.Filename)
	if _, err := os.Stat(path); err == nil {
		return versio_err.ConfigError("%s already exists", config.Filename)
	}

	detected, err := Scan(rc, root)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(Render(detected)), 0644); err != nil {
		return versio_err.ConfigErrorWrap(err, "can't write %s", config.Filename)
	}
	otelzap.Ctx(rc.Ctx).Info("scaffolded configuration",
		zap.String("path", path), zap.Int("projects", len(detected)))
	return nil
}
