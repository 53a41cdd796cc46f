package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/punchclock/punchclock-backend/internal/timekeeping/domain"
	"github.com/punchclock/punchclock-backend/internal/timekeeping/repository"
	"github.com/punchclock/punchclock-backend/internal/timekeeping/service"
	"github.com/punchclock/punchclock-backend/pkg/actor"
	"github.com/punchclock/punchclock-backend/pkg/clock"
	"github.com/punchclock/punchclock-backend/pkg/database"
	"github.com/punchclock/punchclock-backend/pkg/tenant"
	"github.com/spf13/cobra"
)

var seedNames = []string{
	"Anna Schmidt", "Ben Keller", "Clara Wagner", "David Braun", "Elif Yilmaz",
	"Felix Huber", "Greta Vogel", "Hannes Roth", "Ida Lang", "Jonas Frank",
}

type seedOptions struct {
	tenantID  string
	adminID   string
	adminName string
	employees int
	days      int
	seed      int64
}

func newSeedCommand(a *app) *cobra.Command {
	opts := seedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate development time entries",
		Long: `seed creates an admin, a set of employees managed by that admin and
random weekday entries for the last --days days. Past days are approved,
today stays pending. Running it again adds more entries for the same
people.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := uuid.Parse(opts.tenantID); err != nil {
				return fmt.Errorf("--tenant must be a UUID: %w", err)
			}
			if opts.adminID == "" {
				opts.adminID = uuid.NewString()
			}
			return runSeed(cmd, a, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.tenantID, "tenant", "", "tenant id (required)")
	flags.StringVar(&opts.adminID, "admin", "", "admin user id (generated when empty)")
	flags.StringVar(&opts.adminName, "admin-name", "Seed Admin", "admin display name")
	flags.IntVar(&opts.employees, "employees", 5, "number of employees")
	flags.IntVar(&opts.days, "days", 7, "number of days back from today")
	flags.Int64Var(&opts.seed, "seed", time.Now().UnixNano(), "random seed")
	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}

func runSeed(cmd *cobra.Command, a *app, opts seedOptions) error {
	clk, err := clock.NewInZone(a.cfg.Server.Timezone)
	if err != nil {
		return err
	}

	db, err := database.New(&a.cfg.Database, a.log)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := tenant.WithTenantID(cmd.Context(), opts.tenantID)
	entries := repository.NewEntryRepository(db)
	resolver := service.NewEmployeeResolver(
		repository.NewEmployeeRepository(db),
		repository.NewUserCacheRepository(db),
		clk, a.log,
	)

	admin := &actor.Actor{ID: opts.adminID, Name: opts.adminName, TenantID: opts.tenantID, Role: "admin", IsAdmin: true}
	if _, err := resolver.ResolveOrProvision(ctx, admin); err != nil {
		return fmt.Errorf("failed to provision admin: %w", err)
	}

	rng := rand.New(rand.NewSource(opts.seed))
	today := clk.Today()
	created := 0

	for i := 0; i < opts.employees; i++ {
		name := seedNames[i%len(seedNames)]
		worker := &actor.Actor{ID: uuid.NewString(), Name: name, TenantID: opts.tenantID, Role: "employee"}
		emp, err := resolver.ResolveOrProvision(ctx, worker)
		if err != nil {
			return fmt.Errorf("failed to provision %s: %w", name, err)
		}

		for _, e := range seedEntries(rng, emp.ID, today, opts.days) {
			e := e
			if err := entries.Insert(ctx, &e); err != nil {
				return fmt.Errorf("failed to insert entry for %s on %s: %w", name, e.Date, err)
			}
			created++
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %s (%s)\n", name, emp.ID)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created %d time entries for %d employees under admin %s\n",
		created, opts.employees, opts.adminID)
	return nil
}

// seedEntries builds one or two segments per weekday in the days before
// and including today.
func seedEntries(rng *rand.Rand, employeeID string, today clock.Date, days int) []domain.TimeEntry {
	var out []domain.TimeEntry
	for offset := days - 1; offset >= 0; offset-- {
		date := today.AddDays(-offset)
		if !date.IsWeekday() {
			continue
		}

		status := domain.StatusApproved
		if offset == 0 {
			status = domain.StatusPending
		}

		// Start between 08:00 and 10:59, work 6 to 10 hours.
		start := (8+rng.Intn(3))*60 + rng.Intn(60)
		work := 360 + rng.Intn(241)

		spans := [][2]int{{start, start + work}}
		if work > 6*60 {
			lunchAt := start + 240 + rng.Intn(60)
			lunch := 30 + rng.Intn(31)
			spans = [][2]int{{start, lunchAt}, {lunchAt + lunch, start + work + lunch}}
		}

		for _, span := range spans {
			from := clock.TimeOfDay(span[0] * 60)
			to := clock.TimeOfDay(span[1] * 60)
			e := domain.TimeEntry{
				EmployeeID:      employeeID,
				Date:            date,
				StartTime:       from,
				EndTime:         &to,
				EntryType:       domain.EntryTypeRegular,
				Status:          status,
				SessionID:       "seed",
				SessionVerified: true,
			}
			e.Recompute()
			out = append(out, e)
		}
	}
	return out
}
