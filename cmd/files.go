/* cmd/files.go */

package cmd

import (
	"fmt"
	"sort"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/repogate"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_cli"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_io"
	"github.com/spf13/cobra"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List the files changed since the prior release",
	RunE: versio_cli.Wrap(func(rc *versio_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		e, err := setup(rc, cmd, repogate.Local)
		if err != nil {
			return err
		}
		if err := e.fetch(cmd); err != nil {
			return err
		}
		commits, _, err := e.pending()
		if err != nil {
			return err
		}

		seen := map[string]bool{}
		var files []string
		for _, c := range commits {
			for _, f := range c.Files {
				if !seen[f] {
					seen[f] = true
					files = append(files, f)
				}
			}
		}
		sort.Strings(files)
		for _, f := range files {
			fmt.Println(f)
		}
		return nil
	}),
}

func init() {
	RootCmd.AddCommand(filesCmd)
}
