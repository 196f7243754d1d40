// pkg/mark/mark.go
//
// The prior-release marker: one repository-wide annotated tag recording the
// last released commit and, optionally, the versions released there.

package mark

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/repogate"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_err"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_io"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Marker is the resolved prior-release marker.
type Marker struct {
	Name     string
	Commit   string
	Versions map[uint32]string // nil when the tag carried no payload
}

type payload struct {
	Versions map[string]string `json:"versions"`
}

// Find resolves the marker tag. Returns nil when the repository has never
// been released (no marker yet).
func Find(rc *versio_io.RuntimeContext, gate *repogate.Gate, name string) (*Marker, error) {
	info, err := gate.FindTag(name)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, nil
	}

	m := &Marker{Name: name, Commit: info.Commit}
	body := strings.TrimSpace(info.Message)
	if body == "" {
		return m, nil
	}

	var p payload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		// An unreadable payload degrades to inference; the commit is intact.
		otelzap.Ctx(rc.Ctx).Warn("marker payload is not readable; versions will be inferred",
			zap.String("tag", name), zap.Error(err))
		return m, nil
	}
	if p.Versions == nil {
		return m, nil
	}

	m.Versions = map[uint32]string{}
	for id, vers := range p.Versions {
		n, err := strconv.ParseUint(id, 10, 32)
		if err != nil {
			return nil, versio_err.ConfigError("marker %q names a non-numeric project id %q", name, id)
		}
		m.Versions[uint32(n)] = vers
	}
	return m, nil
}

// Version returns the recorded version for a project, when the payload
// carried one.
func (m *Marker) Version(id uint32) (string, bool) {
	if m == nil || m.Versions == nil {
		return "", false
	}
	vers, ok := m.Versions[id]
	return vers, ok
}

// Write moves the marker tag to the current HEAD with a fresh payload.
func Write(rc *versio_io.RuntimeContext, gate *repogate.Gate, name string, versions map[uint32]string) error {
	body, err := renderPayload(versions)
	if err != nil {
		return err
	}
	if err := gate.MoveTag(name, body); err != nil {
		return err
	}
	otelzap.Ctx(rc.Ctx).Info("advanced release marker",
		zap.String("tag", name), zap.Int("projects", len(versions)))
	return nil
}

// renderPayload emits deterministic JSON with ids in ascending order.
func renderPayload(versions map[uint32]string) (string, error) {
	ids := make([]uint32, 0, len(versions))
	for id := range versions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var b strings.Builder
	b.WriteString(`{"versions": {`)
	for i, id := range ids {
		if i > 0 {
			b.WriteString(", ")
		}
		vers, err := json.Marshal(versions[id])
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, `"%d": %s`, id, vers)
	}
	b.WriteString("}}")
	return b.String(), nil
}
