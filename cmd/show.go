/* cmd/show.go */

package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/repogate"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_cli"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_err"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_io"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show every project's version",
	RunE: versio_cli.Wrap(func(rc *versio_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		prev, _ := cmd.Flags().GetBool("prev")

		required := repogate.None
		if prev {
			required = repogate.Local
		}
		e, err := setup(rc, cmd, required)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 2, 2, 2, ' ', 0)
		defer w.Flush()

		if prev {
			marker, err := e.marker()
			if err != nil {
				return err
			}
			if marker == nil {
				return versio_err.ConfigError("no prior release marker %q exists yet", e.cfg.Options.PrevTag)
			}
			for _, proj := range e.cfg.Projects {
				if vers, ok := e.versionAtMarker(marker, proj.ID); ok {
					fmt.Fprintf(w, "%s\t: %s\n", proj.Name, vers)
				} else {
					fmt.Fprintf(w, "%s\t: (not at marker)\n", proj.Name)
				}
			}
			return nil
		}

		for _, proj := range e.cfg.Projects {
			vers, err := e.store.Read(rc, proj)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t: %s\n", proj.Name, vers)
		}
		return nil
	}),
}

func init() {
	showCmd.Flags().Bool("prev", false, "show versions as of the prior release marker")
	RootCmd.AddCommand(showCmd)
}
