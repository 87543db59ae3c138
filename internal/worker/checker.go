// Package worker runs the daily reminder check and schedules it.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Mariamochka1994/bday-bot/internal/config"
	"github.com/Mariamochka1994/bday-bot/internal/engine"
	"github.com/Mariamochka1994/bday-bot/internal/metrics"
	"github.com/Mariamochka1994/bday-bot/internal/source"
)

// Notifier delivers due reminders and reports how many messages went out.
type Notifier interface {
	Notify(ctx context.Context, events []engine.ReminderEvent) (int, error)
}

// Publisher receives the rendered calendar of upcoming reminders.
type Publisher interface {
	Update(data []byte)
}

// Checker performs one full evaluation: fetch, select, notify, publish.
type Checker struct {
	Source   source.Source
	Notifier Notifier
	Clock    engine.Clock
	Location *time.Location
	Metrics  metrics.Recorder

	// Publisher and Summary are optional; without a publisher no feed is rendered.
	Publisher Publisher
	Summary   engine.SummaryFunc
}

// Run evaluates "today" once. A source failure aborts the run before anything
// is sent. Malformed records are logged and skipped.
func (c *Checker) Run(ctx context.Context) error {
	start := time.Now()
	rec := c.recorder()
	log := slog.With(
		slog.String(config.LogKeyComponent, config.CompWorker),
		slog.String(config.LogKeyRunID, uuid.NewString()),
	)

	today := engine.Today(c.Clock, c.Location)
	log.Info(config.MsgCheckStarted, config.LogKeyToday, today.Format(config.DateFormatFullDash))

	ctx, cancel := context.WithTimeout(ctx, config.CheckTimeout)
	defer cancel()

	records, malformed, err := c.load(ctx)
	if err != nil {
		rec.RecordSourceFailure()
		rec.RecordCheck(time.Since(start), err)
		log.Error(config.ErrCheckFailed, config.LogKeyError, err)
		return fmt.Errorf("%s: %w", config.ErrCheckFailed, err)
	}

	total := len(records) + len(malformed)
	due, errs := engine.Select(today, records)
	malformed = append(malformed, errs...)
	logMalformed(log, malformed)
	rec.RecordRecords(total, len(malformed))

	for _, ev := range due {
		log.Info(config.MsgReminderDue,
			config.LogKeyName, ev.Name,
			config.LogKeyOccursOn, ev.OccursOn.Format(config.DateFormatFullDash),
		)
	}
	rec.RecordDue(len(due))

	sent, sendErr := c.Notifier.Notify(ctx, due)

	c.publish(log, today, records)

	log.Info(config.MsgCheckFinished,
		config.LogKeyTotal, total,
		config.LogKeyMalformed, len(malformed),
		config.LogKeyDue, len(due),
		config.LogKeySent, sent,
		config.LogKeyFailed, failedCount(sendErr),
		config.LogKeyDuration, time.Since(start).Milliseconds(),
	)

	if sendErr != nil {
		err = fmt.Errorf("%s: %w", config.ErrDelivery, sendErr)
	}
	rec.RecordCheck(time.Since(start), err)
	return err
}

// Upcoming returns the next occurrence of every valid record, soonest first,
// with the number of records left out for an unusable date.
func (c *Checker) Upcoming(ctx context.Context) ([]engine.ReminderEvent, int, error) {
	records, malformed, err := c.load(ctx)
	if err != nil {
		return nil, 0, err
	}
	events, errs := engine.Plan(engine.Today(c.Clock, c.Location), records)
	return events, len(malformed) + len(errs), nil
}

// Refresh republishes the feed without sending anything.
func (c *Checker) Refresh(ctx context.Context) error {
	records, _, err := c.load(ctx)
	if err != nil {
		return err
	}
	c.publish(slog.With(slog.String(config.LogKeyComponent, config.CompWorker)), engine.Today(c.Clock, c.Location), records)
	return nil
}

// load fetches and parses the source. Only a source failure is an error.
func (c *Checker) load(ctx context.Context) ([]engine.BirthdayRecord, []error, error) {
	raws, err := c.Source.Records(ctx)
	if err != nil {
		return nil, nil, err
	}
	records, malformed := engine.ParseRecords(raws)
	return records, malformed, nil
}

func (c *Checker) publish(log *slog.Logger, today time.Time, records []engine.BirthdayRecord) {
	if c.Publisher == nil {
		return
	}
	events, _ := engine.Plan(today, records)
	data, err := engine.RenderCalendar(c.Clock.Now(), events, c.Summary)
	if err != nil {
		log.Error(config.ErrICalEncode, config.LogKeyError, err)
		return
	}
	c.Publisher.Update(data)
}

func (c *Checker) recorder() metrics.Recorder {
	if c.Metrics == nil {
		return metrics.Nop{}
	}
	return c.Metrics
}

func logMalformed(log *slog.Logger, errs []error) {
	for _, err := range errs {
		var m *engine.MalformedRecordError
		if errors.As(err, &m) {
			log.Warn(config.MsgSkippedRecord,
				config.LogKeyRow, m.Row,
				config.LogKeyName, m.Name,
				config.LogKeyValue, m.Value,
				config.LogKeyError, m.Err,
			)
			continue
		}
		log.Warn(config.MsgSkippedRecord, config.LogKeyError, err)
	}
}

// failedCount counts the deliveries folded into a joined error.
func failedCount(err error) int {
	if err == nil {
		return 0
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return len(joined.Unwrap())
	}
	return 1
}
