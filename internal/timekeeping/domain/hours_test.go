package domain

import (
	"encoding/json"
	"testing"

	"github.com/punchclock/punchclock-backend/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tod(s string) clock.TimeOfDay { return clock.MustTimeOfDay(s) }

func todPtr(s string) *clock.TimeOfDay {
	t := clock.MustTimeOfDay(s)
	return &t
}

func TestComputeHours(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   *clock.TimeOfDay
		want  string
	}{
		{"regular day", "09:00", todPtr("17:30"), "8.50"},
		{"overnight wraps", "22:00", todPtr("06:00"), "8.00"},
		{"open segment", "09:00", nil, "0.00"},
		{"end equals start", "09:00", todPtr("09:00"), "0.00"},
		{"rounds half up", "09:00", todPtr("09:00:18"), "0.01"},
		{"rounds down below half", "09:00", todPtr("09:00:17"), "0.00"},
		{"one minute", "09:00", todPtr("09:01"), "0.02"},
		{"just before midnight", "00:00", todPtr("23:59:59"), "24.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeHours(tod(tt.start), tt.end).String())
		})
	}
}

func TestComputeHours_NonNegative(t *testing.T) {
	for s := 0; s < clock.SecondsPerDay; s += 977 {
		for e := 0; e < clock.SecondsPerDay; e += 1201 {
			end := clock.TimeOfDay(e)
			h := ComputeHours(clock.TimeOfDay(s), &end)
			assert.GreaterOrEqual(t, int64(h), int64(0))
			assert.LessOrEqual(t, int64(h), int64(2400))
		}
	}
}

func TestTimeEntry_RecomputeOnUpdate(t *testing.T) {
	e := TimeEntry{StartTime: tod("09:00"), EndTime: todPtr("17:00")}
	e.Recompute()
	assert.Equal(t, "8.00", e.TotalHours.String())

	e.EndTime = todPtr("18:00")
	e.Recompute()
	assert.Equal(t, "9.00", e.TotalHours.String())

	e.EndTime = nil
	e.Recompute()
	assert.Equal(t, Hours(0), e.TotalHours)
}

func TestHours_JSON(t *testing.T) {
	b, err := json.Marshal(map[string]Hours{"h": 850})
	require.NoError(t, err)
	assert.JSONEq(t, `{"h": 8.50}`, string(b))

	var h Hours
	require.NoError(t, json.Unmarshal([]byte(`7.25`), &h))
	assert.Equal(t, Hours(725), h)
	require.NoError(t, json.Unmarshal([]byte(`"1.5"`), &h))
	assert.Equal(t, Hours(150), h)
}

func TestHours_Scan(t *testing.T) {
	var h Hours
	require.NoError(t, h.Scan([]byte("8.50")))
	assert.Equal(t, Hours(850), h)
	require.NoError(t, h.Scan(0.07))
	assert.Equal(t, Hours(7), h)
	require.NoError(t, h.Scan(int64(3)))
	assert.Equal(t, Hours(300), h)
	assert.Error(t, h.Scan(true))

	v, err := Hours(905).Value()
	require.NoError(t, err)
	assert.Equal(t, "9.05", v)
}

func TestStatusAndTypeValidation(t *testing.T) {
	assert.True(t, StatusApproved.Valid())
	assert.False(t, Status("done").Valid())
	assert.True(t, EntryTypeTraining.Valid())
	assert.False(t, EntryType("Lunch").Valid())
}
