// Command punchclock-admin runs operator tasks against a PunchClock
// deployment: schema migrations, development seed data, snapshot cleanup
// and development access tokens.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/punchclock/punchclock-backend/pkg/config"
	"github.com/punchclock/punchclock-backend/pkg/logger"
	"github.com/spf13/cobra"
)

const serviceName = "punchclock-admin"

// app carries what every subcommand needs.
type app struct {
	cfg *config.Config
	log *logger.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "punchclock-admin",
		Short: "Operator tasks for the PunchClock service",
		Long: `punchclock-admin runs maintenance tasks against the PunchClock database
and recovery snapshot store.

Configuration is read the same way as the service: .env, then
./config/punchclock-admin.yaml, then PUNCHCLOCK_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(serviceName)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			a.cfg = cfg
			a.log = logger.New(serviceName, cfg.Server.Environment, cfg.Server.LogLevel)
			return nil
		},
	}

	root.AddCommand(
		newMigrateCommand(a),
		newSeedCommand(a),
		newPurgeSnapshotsCommand(a),
		newTokenCommand(a),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
