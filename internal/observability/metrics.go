package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeMatched             = "matched"
	OutcomeUnmatched           = "unmatched"
	OutcomeProviderUnavailable = "provider_unavailable"
	OutcomeFailed              = "failed"
)

// Triple kinds written into a provider partition.
const (
	TripleKindPublication = "publication"
	TripleKindSameAs      = "same_as"
	TripleKindProperty    = "property"
	TripleKindResource    = "resource"
)

// Metrics contains the Prometheus metrics of the reconciliation service.
// All collectors are registered with the default registry via promauto, so
// each namespace may be created once per process.
type Metrics struct {
	// RunsStarted counts batch runs started, by provider.
	RunsStarted *prometheus.CounterVec

	// RunsCompleted counts runs that visited every author, by provider.
	RunsCompleted *prometheus.CounterVec

	// RunsFailed counts runs that ended early, by provider.
	RunsFailed *prometheus.CounterVec

	// RunDuration observes run duration in seconds, by provider.
	RunDuration *prometheus.HistogramVec

	// AuthorsProcessed counts authors visited, by provider.
	AuthorsProcessed *prometheus.CounterVec

	// Outcomes counts verification outcomes, by provider and outcome.
	Outcomes *prometheus.CounterVec

	// CandidatesSubmitted counts candidate queries sent, by provider.
	CandidatesSubmitted *prometheus.CounterVec

	// LookupFailures counts per-candidate failures, by provider and reason.
	LookupFailures *prometheus.CounterVec

	// LookupDuration observes lookup latency in seconds, by provider.
	LookupDuration *prometheus.HistogramVec

	// NameMismatches counts accepted matches whose name disagrees with the
	// internal author, by provider.
	NameMismatches *prometheus.CounterVec

	// TriplesWritten counts triples newly inserted, by provider and kind.
	TriplesWritten *prometheus.CounterVec

	// StoreErrors counts failed store operations, by operation.
	StoreErrors *prometheus.CounterVec

	// EventsPublished counts published events, by event type.
	EventsPublished *prometheus.CounterVec

	// EventsFailed counts events that could not be published, by event type.
	EventsFailed *prometheus.CounterVec
}

// NewMetrics creates and registers the metrics under namespace.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		RunsStarted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runs",
			Name:      "started_total",
			Help:      "Total number of reconciliation runs started",
		}, []string{"provider"}),
		RunsCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runs",
			Name:      "completed_total",
			Help:      "Total number of reconciliation runs that visited every author",
		}, []string{"provider"}),
		RunsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runs",
			Name:      "failed_total",
			Help:      "Total number of reconciliation runs that ended early",
		}, []string{"provider"}),
		RunDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "runs",
			Name:      "duration_seconds",
			Help:      "Duration of reconciliation runs in seconds",
			Buckets:   prometheus.ExponentialBuckets(10, 2, 12),
		}, []string{"provider"}),
		AuthorsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "authors",
			Name:      "processed_total",
			Help:      "Total number of internal authors visited",
		}, []string{"provider"}),
		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "authors",
			Name:      "outcomes_total",
			Help:      "Verification outcomes per author",
		}, []string{"provider", "outcome"}),
		CandidatesSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lookups",
			Name:      "submitted_total",
			Help:      "Total number of candidate queries submitted to providers",
		}, []string{"provider"}),
		LookupFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lookups",
			Name:      "failures_total",
			Help:      "Total number of failed candidate lookups",
		}, []string{"provider", "reason"}),
		LookupDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "lookups",
			Name:      "duration_seconds",
			Help:      "Duration of candidate lookups in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		NameMismatches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lookups",
			Name:      "name_mismatches_total",
			Help:      "Accepted matches whose display name differs from the internal author",
		}, []string{"provider"}),
		TriplesWritten: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "triples_written_total",
			Help:      "Triples newly inserted into provider partitions",
		}, []string{"provider", "kind"}),
		StoreErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "errors_total",
			Help:      "Failed graph store operations",
		}, []string{"op"}),
		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Events published to the broker",
		}, []string{"type"}),
		EventsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "failed_total",
			Help:      "Events that could not be published",
		}, []string{"type"}),
	}
}

// RecordRunStarted records that a run has started.
func (m *Metrics) RecordRunStarted(provider string) {
	if m == nil {
		return
	}
	m.RunsStarted.WithLabelValues(provider).Inc()
}

// RecordRunFinished records a finished run. completed is false for runs
// that ended early.
func (m *Metrics) RecordRunFinished(provider string, completed bool, durationSeconds float64) {
	if m == nil {
		return
	}
	if completed {
		m.RunsCompleted.WithLabelValues(provider).Inc()
	} else {
		m.RunsFailed.WithLabelValues(provider).Inc()
	}
	m.RunDuration.WithLabelValues(provider).Observe(durationSeconds)
}

// RecordAuthorProcessed records one visited author.
func (m *Metrics) RecordAuthorProcessed(provider string) {
	if m == nil {
		return
	}
	m.AuthorsProcessed.WithLabelValues(provider).Inc()
}

// RecordOutcome records one verification outcome.
func (m *Metrics) RecordOutcome(provider, outcome string) {
	if m == nil {
		return
	}
	m.Outcomes.WithLabelValues(provider, outcome).Inc()
}

// RecordLookup records a submitted candidate and its latency.
func (m *Metrics) RecordLookup(provider string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.CandidatesSubmitted.WithLabelValues(provider).Inc()
	m.LookupDuration.WithLabelValues(provider).Observe(durationSeconds)
}

// RecordLookupFailure records a failed candidate lookup.
func (m *Metrics) RecordLookupFailure(provider, reason string) {
	if m == nil {
		return
	}
	m.LookupFailures.WithLabelValues(provider, reason).Inc()
}

// RecordNameMismatch records an accepted match with a differing name.
func (m *Metrics) RecordNameMismatch(provider string) {
	if m == nil {
		return
	}
	m.NameMismatches.WithLabelValues(provider).Inc()
}

// RecordTriplesWritten records count newly inserted triples.
func (m *Metrics) RecordTriplesWritten(provider, kind string, count int) {
	if m == nil || count == 0 {
		return
	}
	m.TriplesWritten.WithLabelValues(provider, kind).Add(float64(count))
}

// RecordStoreError records a failed store operation.
func (m *Metrics) RecordStoreError(op string) {
	if m == nil {
		return
	}
	m.StoreErrors.WithLabelValues(op).Inc()
}

// RecordEvent records a publish attempt.
func (m *Metrics) RecordEvent(eventType string, ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.EventsPublished.WithLabelValues(eventType).Inc()
		return
	}
	m.EventsFailed.WithLabelValues(eventType).Inc()
}
