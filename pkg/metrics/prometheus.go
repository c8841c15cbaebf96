package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Recorder implements domain.repository.Metrics using Prometheus.
// The pipeline is a batch process, so metrics are registered on a
// dedicated registry and pushed to a Pushgateway at the end of a run
// rather than scraped.
type Recorder struct {
	registry *prometheus.Registry

	stageRows     *prometheus.GaugeVec
	stageDuration *prometheus.GaugeVec
	itemsScored   *prometheus.GaugeVec
	errorsTotal   *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		stageRows: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cardpull_stage_rows",
				Help: "Rows produced by each pipeline stage in the last run",
			},
			[]string{"stage"},
		),
		stageDuration: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cardpull_stage_duration_seconds",
				Help: "Duration of each pipeline stage in the last run",
			},
			[]string{"stage"},
		),
		itemsScored: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cardpull_items_scored",
				Help: "Items scored per price tier in the last predict run",
			},
			[]string{"tier"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardpull_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}
}

// RecordStageRows records the row count a pipeline stage produced.
func (r *Recorder) RecordStageRows(stage string, rows int) {
	r.stageRows.WithLabelValues(stage).Set(float64(rows))
}

// RecordStageDuration records how long a pipeline stage took.
func (r *Recorder) RecordStageDuration(stage string, seconds float64) {
	r.stageDuration.WithLabelValues(stage).Set(seconds)
}

// RecordItemsScored records the number of items scored for a tier.
func (r *Recorder) RecordItemsScored(tier string, n int) {
	r.itemsScored.WithLabelValues(tier).Set(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// Push publishes the run's metrics to a Pushgateway, grouped by job
// and run mode so train and predict runs do not clobber each other.
func (r *Recorder) Push(gatewayURL, job, mode string) error {
	return push.New(gatewayURL, job).
		Grouping("mode", mode).
		Gatherer(r.registry).
		Push()
}
