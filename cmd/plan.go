/* cmd/plan.go */

package cmd

import (
	"fmt"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/plan"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/repogate"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_cli"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_io"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute the release plan without writing anything",
	RunE: versio_cli.Wrap(func(rc *versio_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		lockTags, _ := cmd.Flags().GetBool("lock-tags")

		e, err := setup(rc, cmd, repogate.Local)
		if err != nil {
			return err
		}
		built, err := e.buildPlan(cmd, lockTags)
		if err != nil {
			return err
		}

		printPlan(built, verbose)
		for _, sub := range built.Subdivisions {
			fmt.Printf("warning: %s\n", sub)
		}
		return nil
	}),
}

func printPlan(built *plan.Plan, verbose bool) {
	if built.Empty() {
		fmt.Println("no projects advance")
		return
	}
	for _, pp := range built.Projects {
		switch {
		case pp.TagOnly:
			fmt.Printf("%s : %s (tag only)\n", pp.Name, pp.Current)
		default:
			fmt.Printf("%s : %s -> %s (%s)\n", pp.Name, pp.Current, pp.Target, pp.Size)
		}
		if !verbose {
			continue
		}
		for _, g := range pp.Groups {
			title := g.Title
			if g.Number > 0 {
				title = fmt.Sprintf("PR #%d : %s", g.Number, g.Title)
			}
			fmt.Printf("  %s (%s)\n", title, g.Size)
			for _, c := range g.Commits {
				mark := " "
				if c.Covers {
					mark = "*"
				}
				fmt.Printf("   %s %.8s %s (%s)\n", mark, c.Hash, c.Summary, sizeWord(c))
			}
		}
	}
}

func sizeWord(c plan.CommitReport) string {
	if !c.Covers {
		return "-"
	}
	return c.Size.String()
}

func init() {
	planCmd.Flags().Bool("verbose", false, "show per-commit sizing detail")
	planCmd.Flags().Bool("lock-tags", false, "plan as if existing tags may not move")
	RootCmd.AddCommand(planCmd)
}
