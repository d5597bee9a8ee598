package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	rowsExtracted  *prometheus.CounterVec
	rowsLoaded     prometheus.Counter
	errorsTotal    *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
	quotaRemaining prometheus.Gauge
	watermark      prometheus.Gauge
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		rowsExtracted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oddsflow_rows_extracted_total",
				Help: "Quote records produced by the extractor",
			},
			[]string{"sport_key"},
		),
		rowsLoaded: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "oddsflow_rows_loaded_total",
				Help: "Quote records appended to the raw store",
			},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oddsflow_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		stageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oddsflow_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		quotaRemaining: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "oddsflow_api_requests_remaining",
				Help: "Remaining request quota reported by the odds source",
			},
		),
		watermark: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "oddsflow_transform_watermark_seconds",
				Help: "Transform watermark as unix time",
			},
		),
	}
}

// RecordRowsExtracted records extractor output per sport.
func (r *Recorder) RecordRowsExtracted(sportKey string, n int) {
	r.rowsExtracted.WithLabelValues(sportKey).Add(float64(n))
}

// RecordRowsLoaded records rows appended to the raw store.
func (r *Recorder) RecordRowsLoaded(n int) {
	r.rowsLoaded.Add(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordStageDuration records one stage's wall time.
func (r *Recorder) RecordStageDuration(stage string, seconds float64) {
	r.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordQuotaRemaining records the source quota after a request.
func (r *Recorder) RecordQuotaRemaining(n int) {
	r.quotaRemaining.Set(float64(n))
}

// RecordWatermark records the current transform watermark.
func (r *Recorder) RecordWatermark(t time.Time) {
	if t.IsZero() {
		return
	}
	r.watermark.Set(float64(t.Unix()))
}
