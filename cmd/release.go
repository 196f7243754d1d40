/* cmd/release.go */

package cmd

import (
	"fmt"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/plan"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/release"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/repogate"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_cli"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_err"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_io"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Apply the release plan: files, changelogs, commit, tags, push",
	RunE: versio_cli.Wrap(func(rc *versio_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		pause, _ := cmd.Flags().GetString("pause")
		resume, _ := cmd.Flags().GetBool("resume")
		abort, _ := cmd.Flags().GetBool("abort")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		changelogOnly, _ := cmd.Flags().GetBool("changelog-only")
		lockTags, _ := cmd.Flags().GetBool("lock-tags")
		showAll, _ := cmd.Flags().GetBool("show-all")

		if pause != "" && pause != "commit" {
			return versio_err.ConfigError("--pause only supports \"commit\"")
		}
		if resume && abort {
			return versio_err.ConfigError("--resume and --abort are exclusive")
		}

		required := repogate.Remote
		if dryRun || changelogOnly {
			required = repogate.Local
		}
		e, err := setup(rc, cmd, required)
		if err != nil {
			return err
		}

		if abort {
			if err := release.RemoveSentinel(e.gate.Root()); err != nil {
				return err
			}
			fmt.Println("paused release aborted; edited files are left in place")
			return nil
		}

		opts := release.Options{
			ChangelogOnly:  changelogOnly,
			PauseAtCommit:  pause == "commit",
			LockTags:       lockTags,
			SigningKeyPath: viper.GetString("signing_key"),
		}

		if resume {
			exec := &release.Executor{Gate: e.gate, Config: e.cfg, Store: e.store}
			res, err := exec.Resume(rc, opts)
			if err != nil {
				return err
			}
			fmt.Printf("release resumed and completed at %.8s\n", res.Commit)
			return nil
		}

		if err := e.checkCurrent(cmd); err != nil {
			return err
		}
		if paused, err := release.ReadSentinel(e.gate.Root()); err != nil {
			return err
		} else if paused != nil {
			return versio_err.ConfigError("a paused release exists; --resume or --abort it first")
		}

		built, err := e.buildPlan(cmd, lockTags)
		if err != nil {
			return err
		}

		if len(built.Subdivisions) > 0 {
			for _, sub := range built.Subdivisions {
				fmt.Printf("refused: %s\n", sub)
			}
			return versio_err.SubdivisionError(built.Subdivisions[0].Project,
				built.Subdivisions[0].Major, built.Subdivisions[0].Dir)
		}

		if built.Empty() {
			fmt.Println("no projects advance; nothing to release")
			if showAll {
				printUnchanged(e, built)
			}
			return nil
		}

		printPlan(built, false)
		if showAll {
			printUnchanged(e, built)
		}

		if dryRun {
			fmt.Println("dry run; nothing written")
			return nil
		}

		exec := &release.Executor{Gate: e.gate, Config: e.cfg, Store: e.store, Plan: built}
		res, err := exec.Apply(rc, opts)
		if err != nil {
			return err
		}
		switch {
		case res.Paused:
			fmt.Printf("release paused; %s written (resume with --resume)\n", release.SentinelName)
		case changelogOnly:
			fmt.Println("files and changelogs updated; no commit made")
		case res.Pushed:
			fmt.Printf("released at %.8s and pushed\n", res.Commit)
		default:
			fmt.Printf("released at %.8s (local only at vcs level %s)\n", res.Commit, e.gate.Level())
		}
		return nil
	}),
}

// printUnchanged lists the projects the plan leaves alone, for --show-all.
func printUnchanged(e *engine, built *plan.Plan) {
	for _, proj := range e.cfg.Projects {
		if built.Get(proj.ID) != nil {
			continue
		}
		if vers, err := e.store.Read(e.rc, proj); err == nil {
			fmt.Printf("%s : %s (unchanged)\n", proj.Name, vers)
		}
	}
}

func init() {
	releaseCmd.Flags().String("pause", "", "pause before a phase: commit")
	releaseCmd.Flags().Bool("resume", false, "resume a paused release")
	releaseCmd.Flags().Bool("abort", false, "abort a paused release (no rollback of edits)")
	releaseCmd.Flags().Bool("changelog-only", false, "write files and changelogs; skip commit, tags, push")
	releaseCmd.Flags().Bool("lock-tags", false, "never re-point a tag that already exists")
	releaseCmd.Flags().Bool("show-all", false, "also print projects that do not advance")
	RootCmd.AddCommand(releaseCmd)
}
