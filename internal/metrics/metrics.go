// Package metrics exposes Prometheus collectors for ingest and distribution.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mirrorscope"

// Metrics holds all collectors on a private registry. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	IngestRecords *prometheus.CounterVec
	IngestHeight  prometheus.Gauge

	StageRuns       *prometheus.CounterVec
	StageLatest     prometheus.Gauge
	StageRecipients prometheus.Gauge
	StageDuration   prometheus.Histogram

	registry *prometheus.Registry
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		IngestRecords: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "records_total",
			Help:      "Invocation records read, by result.",
		}, []string{"result"}),
		IngestHeight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "checkpoint_height",
			Help:      "Last fully processed block height.",
		}),
		StageRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "distribution",
			Name:      "stage_runs_total",
			Help:      "Stage computations attempted, by outcome.",
		}, []string{"outcome"}),
		StageLatest: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "distribution",
			Name:      "latest_stage",
			Help:      "Latest stage committed by this process.",
		}),
		StageRecipients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "distribution",
			Name:      "stage_recipients",
			Help:      "Recipients in the latest committed stage.",
		}),
		StageDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "distribution",
			Name:      "stage_duration_seconds",
			Help:      "Wall time of a stage computation and commit.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		registry: registry,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

func (m *Metrics) RecordIngest(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.IngestRecords.WithLabelValues(result).Add(float64(n))
}

func (m *Metrics) SetCheckpoint(height uint64) {
	if m == nil {
		return
	}
	m.IngestHeight.Set(float64(height))
}

func (m *Metrics) RecordStage(outcome string, stage uint32, recipients int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.StageRuns.WithLabelValues(outcome).Inc()
	if outcome != "committed" {
		return
	}
	m.StageLatest.Set(float64(stage))
	m.StageRecipients.Set(float64(recipients))
	m.StageDuration.Observe(elapsed.Seconds())
}
