package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Mariamochka1994/bday-bot/internal/config"
)

var (
	// ErrDateFormat means the text is not of the DD.MM form.
	ErrDateFormat = errors.New(config.ErrDateFormat)
	// ErrDateInvalid means day and month do not exist together (31.02, or 29.02 in a common year).
	ErrDateInvalid = errors.New(config.ErrDateInvalid)
)

// RawRecord is a row as delivered by a record source, before its date is parsed.
type RawRecord struct {
	// Row is the 1-based position in the source, used only for diagnostics.
	Row  int
	Name string
	Date string
}

// BirthdayRecord is a person and a recurring day/month without a year.
type BirthdayRecord struct {
	Row   int
	Name  string
	Day   int
	Month int
}

// String renders the record date as DD.MM.
func (r BirthdayRecord) String() string {
	return fmt.Sprintf("%02d.%02d", r.Day, r.Month)
}

// ReminderEvent is a birthday occurrence computed for one evaluation of "today".
type ReminderEvent struct {
	Name string
	// OccursOn is the next date, on or after today, matching the record.
	OccursOn time.Time
	// RemindOn is OccursOn minus the lead time, moved back off weekends.
	RemindOn time.Time
}

// MalformedRecordError reports a record whose date cannot be used.
// Only that record is skipped; the rest of the batch is still evaluated.
type MalformedRecordError struct {
	Row   int
	Name  string
	Value string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed birthday record (row %d, %q): %q: %v", e.Row, e.Name, e.Value, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// ParseDayMonth parses "DD.MM". "D.M" is accepted, as is "DD.MM.YYYY" whose
// year is ignored. The pair must exist at least in a leap year.
func ParseDayMonth(text string) (day, month int, err error) {
	parts := strings.Split(strings.TrimSpace(text), config.DayMonthSeparator)
	if len(parts) != 2 && len(parts) != 3 {
		return 0, 0, ErrDateFormat
	}

	nums := make([]int, len(parts))
	for i, p := range parts {
		if p == "" || strings.ContainsAny(p, "+-") {
			return 0, 0, ErrDateFormat
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, 0, ErrDateFormat
		}
		nums[i] = n
	}

	day, month = nums[0], nums[1]
	if !validDate(config.DefaultLeapYear, month, day) {
		return 0, 0, ErrDateInvalid
	}
	return day, month, nil
}

// ParseRecords converts raw rows into records. Rows with unusable dates are
// returned as *MalformedRecordError and left out of the result.
func ParseRecords(raws []RawRecord) ([]BirthdayRecord, []error) {
	records := make([]BirthdayRecord, 0, len(raws))
	var errs []error

	for _, raw := range raws {
		day, month, err := ParseDayMonth(raw.Date)
		if err != nil {
			errs = append(errs, &MalformedRecordError{
				Row:   raw.Row,
				Name:  raw.Name,
				Value: raw.Date,
				Err:   err,
			})
			continue
		}
		records = append(records, BirthdayRecord{
			Row:   raw.Row,
			Name:  raw.Name,
			Day:   day,
			Month: month,
		})
	}
	return records, errs
}

// validDate reports whether (year, month, day) names a real date.
// time.Date silently normalizes overflow, so the fields are compared back.
func validDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Month() == time.Month(month) && t.Day() == day
}
