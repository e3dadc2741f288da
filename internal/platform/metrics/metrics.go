// Package metrics defines the Prometheus collectors for quote reconciliation.
// All methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "quotebook"

// Sync run outcomes.
const (
	ResultAdded    = "added"
	ResultUpToDate = "up_to_date"
	ResultFailed   = "failed"
	ResultSkipped  = "skipped"
)

// Event deliveries.
const (
	DeliveryDelivered = "delivered"
	DeliveryDropped   = "dropped"
)

// Quote sources.
const (
	SourceUser   = "user"
	SourceSync   = "sync"
	SourceImport = "import"
)

// Metrics holds the collectors.
type Metrics struct {
	syncRuns      *prometheus.CounterVec
	quotesAdded   *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	pushes        *prometheus.CounterVec
	storedQuotes  prometheus.Gauge
	events        *prometheus.CounterVec
}

// New registers the collectors with reg.
// Pass prometheus.DefaultRegisterer to expose them on the default /-/metrics handler.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		syncRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Reconciliation runs by outcome.",
		}, []string{"result"}),
		quotesAdded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_added_total",
			Help:      "Quotes appended to the store by source.",
		}, []string{"source"}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Duration of pipeline stages.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "stage", "outcome"}),
		pushes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_runs_total",
			Help:      "Pushes of local quotes to the remote by outcome.",
		}, []string{"result"}),
		storedQuotes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stored_quotes",
			Help:      "Number of quotes currently in the store.",
		}),
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Presentation events offered to subscribers by type and delivery.",
		}, []string{"type", "delivery"}),
	}
}

// SyncRun counts one reconciliation outcome.
func (m *Metrics) SyncRun(result string) {
	if m == nil {
		return
	}

	m.syncRuns.WithLabelValues(result).Inc()
}

// QuotesAdded counts appended quotes.
func (m *Metrics) QuotesAdded(source string, n int) {
	if m == nil || n <= 0 {
		return
	}

	m.quotesAdded.WithLabelValues(source).Add(float64(n))
}

// Push counts one push outcome.
func (m *Metrics) Push(err error) {
	if m == nil {
		return
	}

	result := "ok"
	if err != nil {
		result = ResultFailed
	}

	m.pushes.WithLabelValues(result).Inc()
}

// ObserveStage records the duration of a pipeline stage.
func (m *Metrics) ObserveStage(operation, stage string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}

	m.stageDuration.WithLabelValues(operation, stage, outcome).Observe(elapsed.Seconds())
}

// SetStoredQuotes updates the store size gauge.
func (m *Metrics) SetStoredQuotes(n int) {
	if m == nil {
		return
	}

	m.storedQuotes.Set(float64(n))
}

// Event counts one event offered to one subscriber.
func (m *Metrics) Event(eventType, delivery string) {
	if m == nil {
		return
	}

	m.events.WithLabelValues(eventType, delivery).Inc()
}
