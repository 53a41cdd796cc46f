package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/punchclock/punchclock-backend/pkg/auth"
	"github.com/punchclock/punchclock-backend/pkg/clock"
	"github.com/spf13/cobra"
)

func newTokenCommand(a *app) *cobra.Command {
	user := auth.UserInfo{}
	var session string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := uuid.Parse(user.TenantID); err != nil {
				return fmt.Errorf("--tenant must be a UUID: %w", err)
			}
			if user.ID == "" {
				user.ID = uuid.NewString()
			}
			if session == "" {
				session = uuid.NewString()
			}
			if user.IsAdmin && user.Role == "" {
				user.Role = "admin"
			}
			if user.Role == "" {
				user.Role = "employee"
			}

			mgr := auth.NewManager(&a.cfg.JWT, clock.New(time.UTC))
			token, expires, err := mgr.IssueAccessToken(&user, session)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, token)
			fmt.Fprintf(cmd.ErrOrStderr(), "user %s, session %s, expires %s\n",
				user.ID, session, expires.Format(time.RFC3339))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&user.TenantID, "tenant", "", "tenant id (required)")
	flags.StringVar(&user.TenantSlug, "tenant-slug", "", "tenant slug")
	flags.StringVar(&user.ID, "user", "", "user id (generated when empty)")
	flags.StringVar(&user.Name, "name", "Dev User", "display name")
	flags.StringVar(&user.Email, "email", "dev@example.com", "email")
	flags.StringVar(&user.Role, "role", "", "role claim (admin, staff or employee)")
	flags.BoolVar(&user.IsAdmin, "admin", false, "issue an admin token")
	flags.StringVar(&session, "session", "", "session id (generated when empty)")
	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}
