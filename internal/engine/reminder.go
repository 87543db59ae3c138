package engine

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/Mariamochka1994/bday-bot/internal/config"
)

// NextOccurrence returns the first date on or after today matching the
// record's day and month, in today's location.
//
// Unlike time.Date, a 29.02 record evaluated against a common year is not
// moved to March 1st; it is reported as a *MalformedRecordError.
func NextOccurrence(today time.Time, rec BirthdayRecord) (time.Time, error) {
	today = DateOf(today)

	candidate, err := occurrenceIn(today.Year(), today.Location(), rec)
	if err != nil {
		return time.Time{}, err
	}
	if candidate.Before(today) {
		candidate, err = occurrenceIn(today.Year()+1, today.Location(), rec)
		if err != nil {
			return time.Time{}, err
		}
	}
	return candidate, nil
}

func occurrenceIn(year int, loc *time.Location, rec BirthdayRecord) (time.Time, error) {
	if !validDate(year, rec.Month, rec.Day) {
		return time.Time{}, &MalformedRecordError{
			Row:   rec.Row,
			Name:  rec.Name,
			Value: rec.String(),
			Err:   fmt.Errorf("%w in %d", ErrDateInvalid, year),
		}
	}
	return time.Date(year, time.Month(rec.Month), rec.Day, 0, 0, 0, 0, loc), nil
}

// ReminderDate returns the day the reminder for occursOn must be sent:
// one week earlier, moved back to Friday when that lands on a weekend.
func ReminderDate(occursOn time.Time) time.Time {
	r := occursOn.AddDate(0, 0, -config.ReminderLeadDays)
	for r.Weekday() == time.Saturday || r.Weekday() == time.Sunday {
		r = r.AddDate(0, 0, -1)
	}
	return r
}

// Event computes the ReminderEvent of rec relative to today.
func Event(today time.Time, rec BirthdayRecord) (ReminderEvent, error) {
	occursOn, err := NextOccurrence(today, rec)
	if err != nil {
		return ReminderEvent{}, err
	}
	return ReminderEvent{
		Name:     rec.Name,
		OccursOn: occursOn,
		RemindOn: ReminderDate(occursOn),
	}, nil
}

// Select returns, in input order, the events whose reminder is due today.
// Records that cannot be evaluated are skipped and reported in the error slice.
// Select has no side effects and is safe for concurrent use.
func Select(today time.Time, records []BirthdayRecord) ([]ReminderEvent, []error) {
	var due []ReminderEvent
	var errs []error

	for _, rec := range records {
		ev, err := Event(today, rec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if SameDay(ev.RemindOn, today) {
			due = append(due, ev)
		}
	}
	return due, errs
}

// Plan returns the next event of every record, soonest birthday first.
// Rows repeating the same name and date collapse into a single event.
func Plan(today time.Time, records []BirthdayRecord) ([]ReminderEvent, []error) {
	events := make([]ReminderEvent, 0, len(records))
	var errs []error

	for _, rec := range records {
		ev, err := Event(today, rec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		events = append(events, ev)
	}

	slices.SortStableFunc(events, func(a, b ReminderEvent) int {
		if c := a.OccursOn.Compare(b.OccursOn); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	events = slices.CompactFunc(events, func(a, b ReminderEvent) bool {
		return a.Name == b.Name && a.OccursOn.Equal(b.OccursOn)
	})
	return events, errs
}
