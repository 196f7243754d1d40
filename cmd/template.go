/* cmd/template.go */

package cmd

import (
	"fmt"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/changelog"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_cli"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_io"
	"github.com/spf13/cobra"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Print the built-in changelog template",
	RunE: versio_cli.Wrap(func(rc *versio_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		fmt.Print(changelog.DefaultTemplate)
		return nil
	}),
}

func init() {
	RootCmd.AddCommand(templateCmd)
}
