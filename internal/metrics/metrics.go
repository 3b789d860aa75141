// Package metrics records per-run pipeline metrics and pushes them to a Pushgateway.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"afdp/internal/models"
)

// Metrics holds the Prometheus metrics of one run on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	RecordsExtracted  prometheus.Counter
	RecordsNormalized prometheus.Counter
	RecordsRejected   prometheus.Counter
	RecordsLoaded     prometheus.Counter
	ValidationIssues  *prometheus.GaugeVec
	StageDuration     *prometheus.HistogramVec
	RunSuccess        prometheus.Gauge
}

// New creates and registers all pipeline metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RecordsExtracted: factory.NewCounter(prometheus.CounterOpts{
			Name: "afdp_records_extracted_total",
			Help: "Raw records fetched from the source",
		}),
		RecordsNormalized: factory.NewCounter(prometheus.CounterOpts{
			Name: "afdp_records_normalized_total",
			Help: "Raw records mapped to the canonical schema",
		}),
		RecordsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "afdp_records_rejected_total",
			Help: "Raw records dropped by normalization",
		}),
		RecordsLoaded: factory.NewCounter(prometheus.CounterOpts{
			Name: "afdp_records_loaded_total",
			Help: "Records inserted into the sink",
		}),
		ValidationIssues: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "afdp_validation_issues",
			Help: "Validation report counters of the last run",
		}, []string{"kind"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "afdp_stage_duration_seconds",
			Help:    "Wall time spent per pipeline stage",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}, []string{"stage"}),
		RunSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "afdp_run_success",
			Help: "1 when the last run succeeded, 0 otherwise",
		}),
	}
}

// Registry exposes the registry for scraping or tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveStage records how long stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// SetReport publishes the report counters.
func (m *Metrics) SetReport(r *models.ValidationReport) {
	m.ValidationIssues.WithLabelValues("missing_years").Set(float64(r.MissingYears))
	m.ValidationIssues.WithLabelValues("duplicates").Set(float64(r.Duplicates))
	m.ValidationIssues.WithLabelValues("countries_missing_subsectors").Set(float64(r.CountriesMissingSubsector))
}

// SetSuccess marks the run outcome.
func (m *Metrics) SetSuccess(ok bool) {
	if ok {
		m.RunSuccess.Set(1)

		return
	}

	m.RunSuccess.Set(0)
}

// Push replaces the job's metrics on the Pushgateway at url, grouped by run ID.
func (m *Metrics) Push(ctx context.Context, url, job, runID string) error {
	err := push.New(url, job).
		Gatherer(m.registry).
		Grouping("run_id", runID).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}

	return nil
}
