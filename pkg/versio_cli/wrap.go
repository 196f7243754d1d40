// pkg/versio_cli/wrap.go

package versio_cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Wrap adapts a context-taking handler to cobra's RunE, adding panic
// recovery, interrupt handling, telemetry, and .env loading.
func Wrap(fn func(rc *versio_io.RuntimeContext, cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		// Optional developer convenience; a missing .env is not an error.
		_ = godotenv.Load()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		rc := versio_io.NewContext(ctx, cmd.Name())
		defer rc.End(&err)

		defer func() {
			if r := recover(); r != nil {
				err = cerr.AssertionFailedf("panic: %v", r)
				rc.Log.Error("panic recovered", zap.Any("panic", r))
			}
		}()

		return fn(rc, cmd, args)
	}
}
