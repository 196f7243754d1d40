/* cmd/get.go */

package cmd

import (
	"fmt"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/config"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/repogate"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_cli"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_err"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_io"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Print one project's version",
	RunE: versio_cli.Wrap(func(rc *versio_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		prev, _ := cmd.Flags().GetBool("prev")
		wide, _ := cmd.Flags().GetBool("wide")

		required := repogate.None
		if prev {
			required = repogate.Local
		}
		e, err := setup(rc, cmd, required)
		if err != nil {
			return err
		}
		proj, err := selectProject(e.cfg, cmd)
		if err != nil {
			return err
		}

		var vers string
		if prev {
			marker, err := e.marker()
			if err != nil {
				return err
			}
			if marker == nil {
				return versio_err.ConfigError("no prior release marker %q exists yet", e.cfg.Options.PrevTag)
			}
			got, ok := e.versionAtMarker(marker, proj.ID)
			if !ok {
				return versio_err.LocationError(nil, "project %q has no readable version at the marker", proj.Name)
			}
			vers = got
		} else {
			vers, err = e.store.Read(rc, proj)
			if err != nil {
				return err
			}
		}

		if wide {
			fmt.Printf("%d. %s : %s\n", proj.ID, proj.Name, vers)
		} else {
			fmt.Println(vers)
		}
		return nil
	}),
}

// selectProject resolves the --id / --name flags to one project.
func selectProject(cfg *config.Config, cmd *cobra.Command) (*config.Project, error) {
	id, _ := cmd.Flags().GetUint32("id")
	name, _ := cmd.Flags().GetString("name")

	switch {
	case id != 0 && name != "":
		return nil, versio_err.ConfigError("give --id or --name, not both")
	case id != 0:
		proj := cfg.Get(id)
		if proj == nil {
			return nil, versio_err.ConfigError("no project with id %d", id)
		}
		return proj, nil
	case name != "":
		return cfg.FindByName(name)
	case len(cfg.Projects) == 1:
		return cfg.Projects[0], nil
	}
	return nil, versio_err.ConfigError("give --id or --name to pick a project")
}

func init() {
	getCmd.Flags().Uint32("id", 0, "project id")
	getCmd.Flags().String("name", "", "project name")
	getCmd.Flags().Bool("prev", false, "read as of the prior release marker")
	getCmd.Flags().Bool("wide", false, "print id and name with the version")
	RootCmd.AddCommand(getCmd)
}
