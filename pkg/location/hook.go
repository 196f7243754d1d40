// pkg/location/hook.go

package location

import (
	"bytes"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/config"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_err"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_io"
)

// readHook runs the get-command in the project root and trims its output.
func (s *Store) readHook(rc *versio_io.RuntimeContext, proj *config.Project, spec *config.LocationSpec) (string, error) {
	cmd := exec.CommandContext(rc.Ctx, "sh", "-c", spec.Get)
	cmd.Dir = filepath.Join(s.Root, proj.Root)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", versio_err.LocationError(err, "get command for project %q failed: %s", proj.Name, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// writeHook runs the set-command with the new version as its one argument,
// available to the command as $1.
func (s *Store) writeHook(rc *versio_io.RuntimeContext, proj *config.Project, spec *config.LocationSpec, vers string) error {
	cmd := exec.CommandContext(rc.Ctx, "sh", "-c", spec.Set, "sh", vers)
	cmd.Dir = filepath.Join(s.Root, proj.Root)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return versio_err.LocationError(err, "set command for project %q failed: %s", proj.Name, strings.TrimSpace(stderr.String()))
	}
	return nil
}
