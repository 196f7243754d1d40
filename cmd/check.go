/* cmd/check.go */

package cmd

import (
	"fmt"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/config"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/repogate"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_cli"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_io"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration document",
	RunE: versio_cli.Wrap(func(rc *versio_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		e, err := setup(rc, cmd, repogate.None)
		if err != nil {
			return err
		}
		fmt.Printf("%s is valid: %d project(s)\n", config.Filename, len(e.cfg.Projects))
		return nil
	}),
}

func init() {
	RootCmd.AddCommand(checkCmd)
}
