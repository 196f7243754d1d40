/* cmd/schema.go */

package cmd

import (
	_ "embed"
	"fmt"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_cli"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_io"
	"github.com/spf13/cobra"
)

//go:embed schema.json
var configSchema string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the configuration document",
	RunE: versio_cli.Wrap(func(rc *versio_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		fmt.Print(configSchema)
		return nil
	}),
}

func init() {
	RootCmd.AddCommand(schemaCmd)
}
