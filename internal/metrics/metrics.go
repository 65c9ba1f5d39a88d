// Package metrics records the outcome of a scrape run as Prometheus metrics.
//
// A run is a short-lived batch job, so there is nothing to scrape. Each run
// gets its own registry, and the values are pushed to a Pushgateway when one
// is configured. Pushes add to the group instead of replacing it, so the
// last success timestamp survives failed runs.
package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/nao1215/sismoscrape/internal/model"
)

// Namespace prefixes every metric name.
const Namespace = "sismoscrape"

// DefaultJob is the Pushgateway job label.
const DefaultJob = "sismoscrape"

// Metrics holds the gauges describing one run.
//
// LastSuccess is only registered once a successful run is observed, so a
// failed run never gathers it.
type Metrics struct {
	registry    *prometheus.Registry
	successOnce sync.Once

	RowsExtracted  prometheus.Gauge
	RecordsDeleted prometheus.Gauge
	RecordsWritten prometheus.Gauge
	RunDuration    prometheus.Gauge
	LastStatusCode prometheus.Gauge
	LastSuccess    prometheus.Gauge
}

// New creates Metrics registered with a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RowsExtracted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "rows_extracted",
			Help:      "Rows extracted from the report table in the last run.",
		}),
		RecordsDeleted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "records_deleted",
			Help:      "Prior records removed from the store in the last run.",
		}),
		RecordsWritten: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "records_written",
			Help:      "Records written to the store in the last run.",
		}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the last run.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		LastStatusCode: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_status_code",
			Help:      "Response status code of the last run.",
		}),
	}

	m.registry.MustRegister(
		m.RowsExtracted,
		m.RecordsDeleted,
		m.RecordsWritten,
		m.RunDuration,
		m.LastStatusCode,
	)

	return m
}

// Registry returns the registry holding the metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe records a finished run and the status code it was answered with.
// LastSuccess is only set and registered for runs that completed without error.
func (m *Metrics) Observe(run *model.Run, statusCode int) {
	m.RowsExtracted.Set(float64(len(run.Rows)))
	m.RecordsDeleted.Set(float64(run.Deleted))
	m.RecordsWritten.Set(float64(run.Written))
	m.RunDuration.Set(run.Duration().Seconds())
	m.LastStatusCode.Set(float64(statusCode))

	if run.Succeeded() {
		m.LastSuccess.Set(float64(run.FinishedAt.Unix()))
		m.successOnce.Do(func() {
			m.registry.MustRegister(m.LastSuccess)
		})
	}
}

// Pusher sends the metrics to a Pushgateway.
type Pusher struct {
	url     string
	job     string
	timeout time.Duration
}

// NewPusher creates a Pusher for the Pushgateway at url.
func NewPusher(url string) *Pusher {
	return &Pusher{
		url:     url,
		job:     DefaultJob,
		timeout: 10 * time.Second,
	}
}

// Push adds the metrics to the group under the job and table labels.
// Metrics of the group not gathered by m keep their pushed values.
func (p *Pusher) Push(ctx context.Context, m *Metrics, table string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := push.New(p.url, p.job).
		Gatherer(m.registry).
		Grouping("table", table).
		AddContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", p.url, err)
	}
	return nil
}
