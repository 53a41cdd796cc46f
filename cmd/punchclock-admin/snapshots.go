package main

import (
	"fmt"

	"github.com/punchclock/punchclock-backend/internal/timekeeping/snapshot"
	"github.com/punchclock/punchclock-backend/pkg/clock"
	"github.com/spf13/cobra"
)

func newPurgeSnapshotsCommand(a *app) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "purge-snapshots",
		Short: "Remove expired clear snapshots from the bolt store",
		Long: `purge-snapshots drops every expired clear snapshot from a bolt
snapshot file. The service purges on a timer; use this when the service is
stopped, since bolt allows a single writer.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = a.cfg.Recovery.BoltPath
			}
			if path == "" {
				return fmt.Errorf("no snapshot path configured, pass --path")
			}

			clk, err := clock.NewInZone(a.cfg.Server.Timezone)
			if err != nil {
				return err
			}

			store, err := snapshot.OpenBoltStore(path, clk)
			if err != nil {
				return fmt.Errorf("failed to open snapshot store: %w", err)
			}
			defer store.Close()

			n, err := store.Purge(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to purge snapshots: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired snapshots from %s\n", n, path)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "bolt file (defaults to recovery.bolt_path)")
	return cmd
}
