// Package metrics exposes Prometheus counters for reminder checks and deliveries.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	resultOK    = "ok"
	resultError = "error"
)

// Recorder is the metrics contract used by the worker, notifier and bot.
type Recorder interface {
	RecordCheck(duration time.Duration, err error)
	RecordSourceFailure()
	RecordRecords(total, malformed int)
	RecordDue(count int)
	RecordDelivery(err error)
	RecordCommand(command string)
}

// Collector implements Recorder on Prometheus.
type Collector struct {
	checks         *prometheus.CounterVec
	checkDuration  prometheus.Histogram
	sourceFailures prometheus.Counter
	records        prometheus.Gauge
	malformed      prometheus.Counter
	due            prometheus.Counter
	deliveries     *prometheus.CounterVec
	commands       *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bdaybot_checks_total",
			Help: "Reminder checks by result.",
		}, []string{"result"}),
		checkDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bdaybot_check_duration_seconds",
			Help:    "Duration of a full reminder check.",
			Buckets: prometheus.DefBuckets,
		}),
		sourceFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bdaybot_source_failures_total",
			Help: "Checks aborted because the record source was unavailable.",
		}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bdaybot_records",
			Help: "Records read by the last successful fetch.",
		}),
		malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bdaybot_malformed_records_total",
			Help: "Records skipped because their date was unusable.",
		}),
		due: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bdaybot_reminders_due_total",
			Help: "Birthdays whose reminder was due.",
		}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bdaybot_messages_total",
			Help: "Reminder messages by delivery result.",
		}, []string{"result"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bdaybot_commands_total",
			Help: "Bot commands received.",
		}, []string{"command"}),
	}

	reg.MustRegister(
		c.checks,
		c.checkDuration,
		c.sourceFailures,
		c.records,
		c.malformed,
		c.due,
		c.deliveries,
		c.commands,
	)
	return c
}

// RecordCheck records one finished check.
func (c *Collector) RecordCheck(duration time.Duration, err error) {
	c.checks.WithLabelValues(result(err)).Inc()
	c.checkDuration.Observe(duration.Seconds())
}

// RecordSourceFailure records a check that could not read records.
func (c *Collector) RecordSourceFailure() {
	c.sourceFailures.Inc()
}

// RecordRecords records the size of the fetched batch.
func (c *Collector) RecordRecords(total, malformed int) {
	c.records.Set(float64(total))
	c.malformed.Add(float64(malformed))
}

// RecordDue records how many reminders fired.
func (c *Collector) RecordDue(count int) {
	c.due.Add(float64(count))
}

// RecordDelivery records a single message send.
func (c *Collector) RecordDelivery(err error) {
	c.deliveries.WithLabelValues(result(err)).Inc()
}

// RecordCommand records a bot command.
func (c *Collector) RecordCommand(command string) {
	c.commands.WithLabelValues(command).Inc()
}

// Handler returns the scrape handler for the given gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err != nil {
		return resultError
	}
	return resultOK
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordCheck(time.Duration, error) {}
func (Nop) RecordSourceFailure()              {}
func (Nop) RecordRecords(int, int)            {}
func (Nop) RecordDue(int)                     {}
func (Nop) RecordDelivery(error)              {}
func (Nop) RecordCommand(string)              {}
