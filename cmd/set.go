/* cmd/set.go */

package cmd

import (
	"github.com/CodeMonkeyCybersecurity/versio/pkg/repogate"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/size"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_cli"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_err"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_io"
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Write one project's version",
	RunE: versio_cli.Wrap(func(rc *versio_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		value, _ := cmd.Flags().GetString("value")
		if !size.IsVersion(value) {
			return versio_err.ConfigError("--value %q is not MAJOR.MINOR.PATCH", value)
		}

		// A plain write needs no repository at all.
		e, err := setup(rc, cmd, repogate.None)
		if err != nil {
			return err
		}
		proj, err := selectProject(e.cfg, cmd)
		if err != nil {
			return err
		}

		if e.gate.DryRun() {
			otelzap.Ctx(rc.Ctx).Info("dry run; version not written",
				zap.String("project", proj.Name), zap.String("version", value))
			return nil
		}

		if err := e.store.Write(rc, proj, proj.Version, value); err != nil {
			return err
		}
		for _, also := range proj.Also {
			if err := e.store.Write(rc, proj, also, value); err != nil {
				return err
			}
		}

		otelzap.Ctx(rc.Ctx).Info("version set",
			zap.String("project", proj.Name), zap.String("version", value))
		return nil
	}),
}

func init() {
	setCmd.Flags().Uint32("id", 0, "project id")
	setCmd.Flags().String("name", "", "project name")
	setCmd.Flags().String("value", "", "the new version")
	_ = setCmd.MarkFlagRequired("value")
	RootCmd.AddCommand(setCmd)
}
