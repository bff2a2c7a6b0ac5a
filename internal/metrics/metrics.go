// Package metrics holds the Prometheus collectors exposed on /metrics.
//
// Collectors are registered on the default registry through promauto, so
// importing the package is enough to have them scraped.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels shared by the tap counters.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
	OutcomeInvalid  = "invalid"
	OutcomeDropped  = "dropped"
)

var (
	// TapsTotal counts POST /api/tap-event calls by outcome.
	TapsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nfc_taps_total",
			Help: "Tap ingestion requests by outcome",
		},
		[]string{"outcome"},
	)

	// TagLookupsTotal counts public redirect lookups by outcome.
	TagLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nfc_tag_lookups_total",
			Help: "Public tag-info lookups by outcome",
		},
		[]string{"outcome"},
	)

	// ClientLogsTotal counts diagnostic entries shipped by tap pages.
	ClientLogsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nfc_client_logs_total",
			Help: "Client diagnostic log entries by level",
		},
		[]string{"level"},
	)

	// EventsPublishedTotal counts tap.recorded publishes by outcome.
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nfc_events_published_total",
			Help: "tap.recorded messages published to the broker by outcome",
		},
		[]string{"outcome"},
	)

	// PublisherBreakerState is 0 closed, 1 half-open, 2 open.
	PublisherBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nfc_publisher_breaker_state",
			Help: "State of the tap event publisher circuit breaker",
		},
	)

	// AuditRecordsTotal counts tap.recorded messages written to the audit log.
	AuditRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nfc_audit_records_total",
			Help: "tap.recorded messages consumed into the audit log by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordTap increments the tap counter for outcome.
func RecordTap(outcome string) { TapsTotal.WithLabelValues(outcome).Inc() }

// RecordTagLookup increments the redirect lookup counter for outcome.
func RecordTagLookup(outcome string) { TagLookupsTotal.WithLabelValues(outcome).Inc() }

// RecordClientLog increments the client log counter. Unknown levels are
// folded into "other" to keep label cardinality bounded.
func RecordClientLog(level string) {
	switch level {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		level = "other"
	}
	ClientLogsTotal.WithLabelValues(level).Inc()
}
