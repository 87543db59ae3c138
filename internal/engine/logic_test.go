package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TestNextOccurrence verifies the core temporal logic of the application.
// It covers standard dates, boundaries (end of year), and leap year complexities.
func TestNextOccurrence(t *testing.T) {
	// Reference "today": June 15th, 2025 (Non-Leap Year)
	today := date(2025, 6, 15)

	tests := []struct {
		name     string
		rec      BirthdayRecord
		expected time.Time
		desc     string
	}{
		{
			name:     "Birthday in the past (this year)",
			rec:      BirthdayRecord{Name: "A", Day: 1, Month: 1},
			expected: date(2026, 1, 1),
			desc:     "Jan 1 is before June 15, so next occurrence is 2026",
		},
		{
			name:     "Birthday in the future (this year)",
			rec:      BirthdayRecord{Name: "B", Day: 31, Month: 12},
			expected: date(2025, 12, 31),
			desc:     "Dec 31 is after June 15, so next occurrence is 2025",
		},
		{
			name:     "Birthday is Today",
			rec:      BirthdayRecord{Name: "C", Day: 15, Month: 6},
			expected: today,
			desc:     "If birthday is today, it counts as the next occurrence",
		},
		{
			name:     "Birthday yesterday",
			rec:      BirthdayRecord{Name: "D", Day: 14, Month: 6},
			expected: date(2026, 6, 14),
			desc:     "A birthday one day ago rolls over to next year",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := NextOccurrence(today, tt.rec)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, next, tt.desc)
		})
	}
}

// TestNextOccurrence_TimeOfDay ensures an afternoon "now" still counts today's birthday.
func TestNextOccurrence_TimeOfDay(t *testing.T) {
	now := time.Date(2025, 6, 15, 23, 59, 0, 0, time.UTC)
	next, err := NextOccurrence(now, BirthdayRecord{Day: 15, Month: 6})
	require.NoError(t, err)
	assert.Equal(t, date(2025, 6, 15), next)
}

// TestNextOccurrence_KeepsLocation checks that the result lives in today's zone.
func TestNextOccurrence_KeepsLocation(t *testing.T) {
	loc := time.FixedZone("MSK", 3*60*60)
	today := time.Date(2024, 3, 1, 0, 0, 0, 0, loc)

	next, err := NextOccurrence(today, BirthdayRecord{Day: 8, Month: 3})
	require.NoError(t, err)
	assert.Equal(t, loc, next.Location())
	assert.Equal(t, time.Date(2024, 3, 8, 0, 0, 0, 0, loc), next)
}

// TestNextOccurrence_LeapDay covers 29.02 in leap and common target years.
func TestNextOccurrence_LeapDay(t *testing.T) {
	leapling := BirthdayRecord{Row: 7, Name: "Leap Baby", Day: 29, Month: 2}

	t.Run("Leap year keeps Feb 29", func(t *testing.T) {
		next, err := NextOccurrence(date(2024, 1, 1), leapling)
		require.NoError(t, err)
		assert.Equal(t, date(2024, 2, 29), next)
	})

	t.Run("Common year is malformed, not March 1st", func(t *testing.T) {
		_, err := NextOccurrence(date(2025, 1, 10), leapling)
		require.Error(t, err)

		var mre *MalformedRecordError
		require.ErrorAs(t, err, &mre)
		assert.Equal(t, 7, mre.Row)
		assert.Equal(t, "Leap Baby", mre.Name)
		assert.Equal(t, "29.02", mre.Value)
		assert.True(t, errors.Is(err, ErrDateInvalid))
	})

	t.Run("Passed in a leap year, next year is common", func(t *testing.T) {
		_, err := NextOccurrence(date(2024, 3, 5), leapling)
		assert.ErrorIs(t, err, ErrDateInvalid)
	})
}

// TestReminderDate verifies the weekend adjustment.
func TestReminderDate(t *testing.T) {
	tests := []struct {
		name     string
		occursOn time.Time
		expected time.Time
	}{
		{"Friday stays", date(2024, 3, 8), date(2024, 3, 1)},
		{"Sunday moves to Friday", date(2024, 3, 10), date(2024, 3, 1)},
		{"Saturday moves to Friday", date(2024, 3, 9), date(2024, 3, 1)},
		{"Monday stays", date(2024, 3, 11), date(2024, 3, 4)},
		{"Across a year boundary", date(2024, 1, 7), date(2023, 12, 29)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReminderDate(tt.occursOn)
			assert.Equal(t, tt.expected, got)
			assert.NotEqual(t, time.Saturday, got.Weekday())
			assert.NotEqual(t, time.Sunday, got.Weekday())
		})
	}
}

func TestValidDate(t *testing.T) {
	assert.True(t, validDate(2000, 2, 29))
	assert.False(t, validDate(2001, 2, 29))
	assert.False(t, validDate(2024, 2, 31))
	assert.False(t, validDate(2024, 4, 31))
	assert.False(t, validDate(2024, 0, 10))
	assert.False(t, validDate(2024, 13, 10))
	assert.False(t, validDate(2024, 5, 0))
	assert.True(t, validDate(2024, 12, 31))
}
