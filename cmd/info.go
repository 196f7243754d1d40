/* cmd/info.go */

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/config"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/repogate"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_cli"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_io"
	"github.com/spf13/cobra"
)

type projectInfo struct {
	Name      string   `json:"name"`
	ID        uint32   `json:"id"`
	Root      string   `json:"root"`
	Version   string   `json:"version,omitempty"`
	TagPrefix *string  `json:"tag_prefix,omitempty"`
	Labels    []string `json:"labels,omitempty"`
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Emit project metadata as JSON",
	RunE: versio_cli.Wrap(func(rc *versio_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		ids, _ := cmd.Flags().GetUintSlice("id")
		label, _ := cmd.Flags().GetString("label")
		all, _ := cmd.Flags().GetBool("all")

		e, err := setup(rc, cmd, repogate.None)
		if err != nil {
			return err
		}

		wanted := func(p *config.Project) bool {
			if all {
				return true
			}
			if label != "" && p.HasLabel(label) {
				return true
			}
			for _, id := range ids {
				if uint32(id) == p.ID {
					return true
				}
			}
			return false
		}

		var out []projectInfo
		for _, proj := range e.cfg.Projects {
			if !wanted(proj) {
				continue
			}
			info := projectInfo{
				Name:      proj.Name,
				ID:        proj.ID,
				Root:      proj.Root,
				TagPrefix: proj.TagPrefix,
				Labels:    proj.Labels,
			}
			if vers, err := e.store.Read(rc, proj); err == nil {
				info.Version = vers
			}
			out = append(out, info)
		}

		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}),
}

func init() {
	infoCmd.Flags().UintSlice("id", nil, "project ids to include")
	infoCmd.Flags().String("label", "", "include projects carrying this label")
	infoCmd.Flags().Bool("all", false, "include every project")
	RootCmd.AddCommand(infoCmd)
}
