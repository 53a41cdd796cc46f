package main

import (
	"math/rand"
	"testing"
	"time"

	"github.com/punchclock/punchclock-backend/internal/timekeeping/domain"
	"github.com/punchclock/punchclock-backend/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedEntries(t *testing.T) {
	// Wednesday
	today := clock.NewDate(2024, time.March, 13)
	rng := rand.New(rand.NewSource(42))

	entries := seedEntries(rng, "emp-1", today, 7)
	require.NotEmpty(t, entries)

	days := map[string]bool{}
	for _, e := range entries {
		days[e.Date.String()] = true

		assert.True(t, e.Date.IsWeekday(), "weekend entry on %s", e.Date)
		assert.False(t, e.Date.After(today))
		assert.Equal(t, "emp-1", e.EmployeeID)
		assert.True(t, e.SessionVerified)
		require.NotNil(t, e.EndTime)
		assert.True(t, *e.EndTime > e.StartTime)
		assert.Equal(t, domain.ComputeHours(e.StartTime, e.EndTime), e.TotalHours)

		if e.Date.Equal(today) {
			assert.Equal(t, domain.StatusPending, e.Status)
		} else {
			assert.Equal(t, domain.StatusApproved, e.Status)
		}
	}

	// Mar 7 to Mar 13 holds five weekdays.
	assert.Len(t, days, 5)
	assert.False(t, days["2024-03-09"])
	assert.False(t, days["2024-03-10"])
}

func TestSeedEntries_Deterministic(t *testing.T) {
	today := clock.NewDate(2024, time.March, 13)

	a := seedEntries(rand.New(rand.NewSource(7)), "emp-1", today, 3)
	b := seedEntries(rand.New(rand.NewSource(7)), "emp-1", today, 3)
	assert.Equal(t, a, b)
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"migrate", "seed", "purge-snapshots", "token"})
}
