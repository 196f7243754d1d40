/* cmd/root.go */

package cmd

import (
	"fmt"
	"os"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/logger"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_err"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// RootCmd is the base command for versio.
var RootCmd = &cobra.Command{
	Use:   "versio",
	Short: "Versio manages versions and releases across a monorepo",
	Long: `Versio reads each project's version from where your manifests keep it,
replays conventional-commit history since the last release, propagates
advances through the dependency graph, and applies the result as file
edits, changelogs, commits, tags, and a push.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initPrefs)

	RootCmd.PersistentFlags().String("vcs-level", "max", "highest vcs level to use: none|local|remote|smart|max")
	RootCmd.PersistentFlags().Bool("dry-run", false, "never write: no files, no commits, no pushes")
	RootCmd.PersistentFlags().Bool("no-current", false, "allow a non-current working tree at vcs level local")
	RootCmd.PersistentFlags().Bool("no-fetch", false, "skip the remote fetch before reading history")
}

// initPrefs loads ~/.versio/prefs.yaml and VERSIO_* environment overrides;
// missing preferences are fine.
func initPrefs() {
	viper.SetConfigName("prefs")
	viper.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home + "/.versio")
	}
	viper.SetEnvPrefix("VERSIO")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

// Execute runs the root command and exits with the error's classified code.
func Execute() {
	defer func() {
		if err := logger.Sync(); err != nil {
			// A closed stderr at exit is not worth reporting.
			_ = err
		}
	}()

	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "versio: %v\n", err)
		for _, step := range versio_err.Remediation(err) {
			fmt.Fprintf(os.Stderr, "  - %s\n", step)
		}
		logger.L().Debug("command failed", zap.Error(err))
		os.Exit(versio_err.GetExitCode(err))
	}
}
