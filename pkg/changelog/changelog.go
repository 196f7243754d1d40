// pkg/changelog/changelog.go
//
// Changelog rendering. Everything between the BEGIN and END content markers
// is regenerated each release; everything outside them is preserved
// verbatim, so hand-written prose above and below survives.

package changelog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/config"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/plan"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_err"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_io"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// BeginMarker and EndMarker delimit the regenerated region.
const (
	BeginMarker = "### VERSIO BEGIN CONTENT ###"
	EndMarker   = "### VERSIO END CONTENT ###"
)

// DefaultTemplate is the built-in changelog template; `versio template`
// prints it for customizing.
const DefaultTemplate = `# {{.Project}} changelog

{{.Begin}}
## {{.Release}} ({{.Date}})
{{range .Groups}}{{if gt .Size 0}}
### {{.Title}}{{if .URL}} ([link]({{.URL}})){{end}}
{{range .Commits}}{{if .Covers}}- {{.Summary}} ({{short .Hash}})
{{end}}{{end}}{{end}}{{end}}
{{- .OldContent}}
{{.End}}
`

// Data is the template input: the project, the release, and the prior
// generated content.
type Data struct {
	Project    string
	Release    string
	Date       string
	Groups     []*plan.GroupReport
	OldContent string
	Begin      string
	End        string
}

// ExtractOldContent returns the region between the first BEGIN line and the
// next END line, empty when either marker is absent.
func ExtractOldContent(data []byte) string {
	lines := strings.Split(string(data), "\n")
	start := -1
	for i, line := range lines {
		if strings.Contains(line, BeginMarker) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return ""
	}
	for i := start; i < len(lines); i++ {
		if strings.Contains(lines[i], EndMarker) {
			return strings.Join(lines[start:i], "\n")
		}
	}
	return ""
}

// Render produces the full changelog file from a template and the project's
// plan entry.
func Render(tmplText string, data Data) (string, error) {
	tmpl, err := template.New("changelog").Funcs(template.FuncMap{
		"short": func(hash string) string {
			if len(hash) > 7 {
				return hash[:7]
			}
			return hash
		},
	}).Parse(tmplText)
	if err != nil {
		return "", versio_err.ConfigErrorWrap(err, "bad changelog template")
	}

	var out bytes.Buffer
	if err := tmpl.Execute(&out, data); err != nil {
		return "", versio_err.ConfigErrorWrap(err, "changelog template failed")
	}
	return out.String(), nil
}

// Update regenerates one project's changelog on disk and returns the
// repository-relative path it wrote.
func Update(rc *versio_io.RuntimeContext, root string, proj *config.Project, pp *plan.ProjectPlan, date string) (string, error) {
	rel := filepath.Join(proj.Root, proj.Changelog.File)
	full := filepath.Join(root, rel)

	old := ""
	existing, readErr := os.ReadFile(full)
	if readErr == nil {
		old = ExtractOldContent(existing)
	}

	tmplText := DefaultTemplate
	if proj.Changelog.Template != "" {
		custom, err := os.ReadFile(filepath.Join(root, proj.Changelog.Template))
		if err != nil {
			return "", versio_err.ConfigErrorWrap(err, "can't read changelog template %s", proj.Changelog.Template)
		}
		tmplText = string(custom)
	}

	content, err := Render(tmplText, Data{
		Project:    proj.Name,
		Release:    pp.Target,
		Date:       date,
		Groups:     pp.Groups,
		OldContent: old,
		Begin:      BeginMarker,
		End:        EndMarker,
	})
	if err != nil {
		return "", err
	}

	// An existing file keeps its text outside the markers; only the region
	// from the BEGIN marker up to the END marker comes from the template.
	if readErr == nil {
		prev := string(existing)
		pb, nb := strings.Index(prev, BeginMarker), strings.Index(content, BeginMarker)
		if pb >= 0 && nb >= 0 {
			pe, ne := strings.Index(prev[pb:], EndMarker), strings.Index(content[nb:], EndMarker)
			if pe >= 0 && ne >= 0 {
				content = prev[:pb] + content[nb:nb+ne] + prev[pb+pe:]
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", versio_err.LocationError(err, "can't create changelog directory for %s", rel)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		return "", versio_err.LocationError(err, "can't write changelog %s", rel)
	}

	otelzap.Ctx(rc.Ctx).Debug("changelog rendered",
		zap.String("project", proj.Name), zap.String("path", rel))
	return rel, nil
}
