/* cmd/diff.go */

package cmd

import (
	"fmt"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/repogate"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_cli"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_err"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_io"
	"github.com/spf13/cobra"
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare the current projects against the prior release",
	RunE: versio_cli.Wrap(func(rc *versio_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		e, err := setup(rc, cmd, repogate.Local)
		if err != nil {
			return err
		}
		if err := e.fetch(cmd); err != nil {
			return err
		}
		marker, err := e.marker()
		if err != nil {
			return err
		}
		if marker == nil {
			return versio_err.ConfigError("no prior release marker %q exists yet", e.cfg.Options.PrevTag)
		}

		prevCfg := e.projector.ConfigAt(rc, marker.Commit)

		for _, proj := range e.cfg.Projects {
			if prevCfg.Get(proj.ID) == nil {
				if _, ok := marker.Version(proj.ID); !ok {
					fmt.Printf("new project : %s\n", proj.Name)
					continue
				}
			}

			prev, ok := e.versionAtMarker(marker, proj.ID)
			if !ok {
				fmt.Printf("new project : %s\n", proj.Name)
				continue
			}
			current, err := e.store.Read(rc, proj)
			if err != nil {
				return err
			}
			if prev != current {
				fmt.Printf("changed     : %s : %s -> %s\n", proj.Name, prev, current)
			}
		}

		for _, prevProj := range prevCfg.Projects {
			if e.cfg.Get(prevProj.ID) == nil {
				fmt.Printf("removed     : %s\n", prevProj.Name)
			}
		}
		return nil
	}),
}

func init() {
	RootCmd.AddCommand(diffCmd)
}
