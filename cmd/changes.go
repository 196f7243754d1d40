/* cmd/changes.go */

package cmd

import (
	"fmt"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/repogate"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_cli"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_io"
	"github.com/spf13/cobra"
)

var changesCmd = &cobra.Command{
	Use:   "changes",
	Short: "Show the grouped changes since the prior release",
	RunE: versio_cli.Wrap(func(rc *versio_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		e, err := setup(rc, cmd, repogate.Local)
		if err != nil {
			return err
		}
		if err := e.fetch(cmd); err != nil {
			return err
		}
		_, groups, err := e.pending()
		if err != nil {
			return err
		}

		for _, g := range groups {
			header := g.Title
			if g.Number > 0 {
				header = fmt.Sprintf("PR #%d : %s", g.Number, g.Title)
			}
			if g.BestEffort {
				header += " (squash retained; sources unreachable)"
			}
			fmt.Println(header)
			for _, c := range g.Commits {
				fmt.Printf("  %.8s %s\n", c.Hash, c.Summary)
			}
		}
		return nil
	}),
}

func init() {
	RootCmd.AddCommand(changesCmd)
}
