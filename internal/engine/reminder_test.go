package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mariamochka1994/bday-bot/internal/engine"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MockClock controls time for deterministic testing.
type MockClock struct {
	CurrentTime time.Time
}

func (m MockClock) Now() time.Time {
	return m.CurrentTime
}

func TestSelect_ReminderOnFriday(t *testing.T) {
	// 2024-03-01 is a Friday; a birthday on 08.03 is exactly one week out.
	today := day(2024, 3, 1)
	records := []engine.BirthdayRecord{{Name: "Anna", Day: 8, Month: 3}}

	due, errs := engine.Select(today, records)

	assert.Empty(t, errs)
	require.Len(t, due, 1)
	assert.Equal(t, "Anna", due[0].Name)
	assert.Equal(t, day(2024, 3, 8), due[0].OccursOn)
	assert.Equal(t, today, due[0].RemindOn)
}

func TestSelect_WeekendShiftsReminderBack(t *testing.T) {
	// 10.03.2024 minus a week is Sunday 03.03, which moves back to Friday 01.03.
	records := []engine.BirthdayRecord{{Name: "Boris", Day: 10, Month: 3}}

	due, errs := engine.Select(day(2024, 3, 4), records)
	assert.Empty(t, errs)
	assert.Empty(t, due, "Monday 04.03 is not the reminder day")

	due, _ = engine.Select(day(2024, 3, 1), records)
	require.Len(t, due, 1, "Friday 01.03 is")
	assert.Equal(t, day(2024, 3, 10), due[0].OccursOn)
}

func TestSelect_YearRollover(t *testing.T) {
	today := day(2023, 12, 31)
	rec := engine.BirthdayRecord{Name: "Vera", Day: 2, Month: 1}

	occursOn, err := engine.NextOccurrence(today, rec)
	require.NoError(t, err)
	assert.Equal(t, day(2024, 1, 2), occursOn)
}

func TestSelect_MalformedRecordIsSkipped(t *testing.T) {
	raws := []engine.RawRecord{
		{Row: 2, Name: "Anna", Date: "08.03"},
		{Row: 3, Name: "Ghost", Date: "31.02"},
		{Row: 4, Name: "Ivan", Date: "8.3"},
	}

	records, parseErrs := engine.ParseRecords(raws)
	require.Len(t, parseErrs, 1)

	var mre *engine.MalformedRecordError
	require.ErrorAs(t, parseErrs[0], &mre)
	assert.Equal(t, 3, mre.Row)
	assert.Equal(t, "Ghost", mre.Name)
	assert.Equal(t, "31.02", mre.Value)
	assert.ErrorIs(t, parseErrs[0], engine.ErrDateInvalid)

	due, errs := engine.Select(day(2024, 3, 1), records)
	assert.Empty(t, errs)
	require.Len(t, due, 2)
	assert.Equal(t, "Anna", due[0].Name, "Input order is preserved")
	assert.Equal(t, "Ivan", due[1].Name)
}

func TestSelect_LeapDayInCommonYearDoesNotAbortBatch(t *testing.T) {
	// 2025 is a common year: 29.02 cannot be evaluated, 28.02 still works.
	// 28.02.2025 is a Friday, so its reminder is Friday 21.02.
	records := []engine.BirthdayRecord{
		{Row: 1, Name: "Leap", Day: 29, Month: 2},
		{Row: 2, Name: "Eve", Day: 28, Month: 2},
	}

	due, errs := engine.Select(day(2025, 2, 21), records)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], engine.ErrDateInvalid)
	require.Len(t, due, 1)
	assert.Equal(t, "Eve", due[0].Name)
}

func TestSelect_BirthdayToday(t *testing.T) {
	today := day(2024, 3, 8)
	ev, err := engine.Event(today, engine.BirthdayRecord{Name: "Anna", Day: 8, Month: 3})
	require.NoError(t, err)

	assert.Equal(t, today, ev.OccursOn)
	assert.Equal(t, day(2024, 3, 1), ev.RemindOn, "Seven days earlier, already a Friday")

	due, _ := engine.Select(today, []engine.BirthdayRecord{{Name: "Anna", Day: 8, Month: 3}})
	assert.Empty(t, due)
}

// TestSelect_Properties sweeps a full leap year of "today" values against
// every valid day/month and checks the invariants that must always hold.
func TestSelect_Properties(t *testing.T) {
	var records []engine.BirthdayRecord
	for m := 1; m <= 12; m++ {
		for d := 1; d <= 31; d++ {
			if _, _, err := engine.ParseDayMonth(dm(d, m)); err == nil && !(d == 29 && m == 2) {
				records = append(records, engine.BirthdayRecord{Name: dm(d, m), Day: d, Month: m})
			}
		}
	}
	require.Len(t, records, 365)

	for today := day(2024, 1, 1); today.Year() == 2024; today = today.AddDate(0, 0, 1) {
		for _, rec := range records {
			ev, err := engine.Event(today, rec)
			require.NoError(t, err)
			assert.False(t, ev.OccursOn.Before(today), "OccursOn >= today for %s on %s", rec, today)
			assert.NotEqual(t, time.Saturday, ev.RemindOn.Weekday())
			assert.NotEqual(t, time.Sunday, ev.RemindOn.Weekday())
			assert.True(t, ev.RemindOn.Before(ev.OccursOn))
		}

		first, _ := engine.Select(today, records)
		second, _ := engine.Select(today, records)
		assert.Equal(t, first, second, "Select must be idempotent")

		if wd := today.Weekday(); wd == time.Saturday || wd == time.Sunday {
			assert.Empty(t, first, "No reminder ever fires on a weekend")
		}
	}
}

func dm(d, m int) string {
	return engine.BirthdayRecord{Day: d, Month: m}.String()
}

func TestPlan_OrderAndErrors(t *testing.T) {
	today := day(2024, 6, 1)
	records := []engine.BirthdayRecord{
		{Name: "Zoe", Day: 10, Month: 6},
		{Name: "Adam", Day: 10, Month: 6},
		{Name: "Past", Day: 1, Month: 1},
		{Name: "Soon", Day: 2, Month: 6},
	}

	events, errs := engine.Plan(today, records)
	assert.Empty(t, errs)
	require.Len(t, events, 4)

	names := []string{events[0].Name, events[1].Name, events[2].Name, events[3].Name}
	assert.Equal(t, []string{"Soon", "Adam", "Zoe", "Past"}, names)
	assert.Equal(t, day(2025, 1, 1), events[3].OccursOn)
}

func TestPlan_CollapsesRepeatedRows(t *testing.T) {
	today := day(2024, 6, 1)
	records := []engine.BirthdayRecord{
		{Row: 2, Name: "Anna", Day: 8, Month: 6},
		{Row: 3, Name: "Boris", Day: 8, Month: 6},
		{Row: 4, Name: "Anna", Day: 8, Month: 6},
		{Row: 5, Name: "Anna", Day: 9, Month: 6},
	}

	events, errs := engine.Plan(today, records)
	assert.Empty(t, errs)
	require.Len(t, events, 3)
	assert.Equal(t, "Anna", events[0].Name)
	assert.Equal(t, "Boris", events[1].Name)
	assert.Equal(t, day(2024, 6, 9), events[2].OccursOn)

	// Delivery still follows the sheet row by row: 08.06 minus a week is a
	// Saturday, so all three rows are due on Friday 31.05.
	due, _ := engine.Select(day(2024, 5, 31), records[:3])
	assert.Len(t, due, 3)
}

func TestParseDayMonth(t *testing.T) {
	tests := []struct {
		in        string
		day, mon  int
		wantError error
	}{
		{"08.03", 8, 3, nil},
		{" 8.3 ", 8, 3, nil},
		{"29.02", 29, 2, nil},
		{"01.12.1990", 1, 12, nil},
		{"31.02", 0, 0, engine.ErrDateInvalid},
		{"00.05", 0, 0, engine.ErrDateInvalid},
		{"12.13", 0, 0, engine.ErrDateInvalid},
		{"31.04", 0, 0, engine.ErrDateInvalid},
		{"abc", 0, 0, engine.ErrDateFormat},
		{"", 0, 0, engine.ErrDateFormat},
		{"08-03", 0, 0, engine.ErrDateFormat},
		{"08.", 0, 0, engine.ErrDateFormat},
		{"-1.03", 0, 0, engine.ErrDateFormat},
		{"1.2.3.4", 0, 0, engine.ErrDateFormat},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, m, err := engine.ParseDayMonth(tt.in)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.day, d)
			assert.Equal(t, tt.mon, m)
		})
	}
}

func TestToday_UsesLocation(t *testing.T) {
	// 22:30 UTC on the 1st is already the 2nd in Moscow.
	clock := MockClock{CurrentTime: time.Date(2024, 3, 1, 22, 30, 0, 0, time.UTC)}
	msk := time.FixedZone("MSK", 3*60*60)

	today := engine.Today(clock, msk)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, msk), today)
	assert.Equal(t, day(2024, 3, 1), engine.Today(clock, time.UTC))
}
