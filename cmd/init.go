/* cmd/init.go */

package cmd

import (
	"fmt"
	"os"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/config"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/scaffold"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_cli"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_err"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_io"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold a configuration from detected manifests",
	RunE: versio_cli.Wrap(func(rc *versio_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		dir, err := os.Getwd()
		if err != nil {
			return versio_err.VCSError(err, "can't resolve the working directory")
		}
		if err := scaffold.Write(rc, dir); err != nil {
			return err
		}
		fmt.Printf("wrote %s; review the ids and includes before releasing\n", config.Filename)
		return nil
	}),
}

func init() {
	RootCmd.AddCommand(initCmd)
}
