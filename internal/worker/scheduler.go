package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Mariamochka1994/bday-bot/internal/config"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler fires Job on a cron schedule evaluated in Location.
type Scheduler struct {
	Schedule string
	Location *time.Location
	Job      Job
}

// Run blocks until ctx is cancelled. A run still in progress when the next
// one is due is not overlapped; the late run is skipped.
func (s *Scheduler) Run(ctx context.Context) error {
	logger := cronLogger{}
	c := cron.New(
		cron.WithLocation(s.Location),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	id, err := c.AddFunc(s.Schedule, func() {
		if err := s.Job(ctx); err != nil {
			slog.Error(config.ErrCheckFailed,
				config.LogKeyComponent, config.CompScheduler,
				config.LogKeyError, err,
			)
		}
	})
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrSchedulerAddJob, err)
	}

	c.Start()
	slog.Info(config.MsgSchedulerStart,
		config.LogKeyComponent, config.CompScheduler,
		config.LogKeySchedule, s.Schedule,
		config.LogKeyTimezone, s.Location.String(),
		config.LogKeyNext, c.Entry(id).Next,
	)

	<-ctx.Done()

	// Stop returns a context that is done once running jobs have finished.
	select {
	case <-c.Stop().Done():
	case <-time.After(config.ShutdownTimeout):
	}
	slog.Info(config.MsgSchedulerStop, config.LogKeyComponent, config.CompScheduler)
	return nil
}

// cronLogger routes cron's internal logging to slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug(msg, append([]interface{}{config.LogKeyComponent, config.CompScheduler}, keysAndValues...)...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error(msg, append([]interface{}{config.LogKeyComponent, config.CompScheduler, config.LogKeyError, err}, keysAndValues...)...)
}
