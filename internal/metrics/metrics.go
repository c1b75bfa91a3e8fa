// Package metrics provides Prometheus metrics for the revision engines.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/domain"
)

// Metrics holds the collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	// SubmissionsTotal counts committed submissions by what they carried.
	SubmissionsTotal *prometheus.CounterVec

	// SubmittedRevisionsTotal counts revisions frozen, by kind.
	SubmittedRevisionsTotal *prometheus.CounterVec

	// LinksWrittenTotal counts link rows written, by link type.
	LinksWrittenTotal *prometheus.CounterVec

	// UnlocksTotal counts unlocks by kind.
	UnlocksTotal *prometheus.CounterVec

	// HistoryDuration tracks history reconstruction latency by kind.
	HistoryDuration *prometheus.HistogramVec

	// ErrorsTotal counts failed operations by operation and error code.
	ErrorsTotal *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SubmissionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mcr",
				Subsystem: "revisions",
				Name:      "submissions_total",
				Help:      "Total number of submissions by contents",
			},
			[]string{"contents"},
		),
		SubmittedRevisionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mcr",
				Subsystem: "revisions",
				Name:      "submitted_revisions_total",
				Help:      "Total number of revisions submitted by kind",
			},
			[]string{"kind"},
		),
		LinksWrittenTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mcr",
				Subsystem: "revisions",
				Name:      "links_written_total",
				Help:      "Total number of revision links written by type",
			},
			[]string{"type"},
		),
		UnlocksTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mcr",
				Subsystem: "revisions",
				Name:      "unlocks_total",
				Help:      "Total number of unlocks by kind",
			},
			[]string{"kind"},
		),
		HistoryDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "mcr",
				Subsystem: "revisions",
				Name:      "history_duration_seconds",
				Help:      "Duration of history reconstruction in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"kind"},
		),
		ErrorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mcr",
				Subsystem: "revisions",
				Name:      "errors_total",
				Help:      "Total number of failed operations by operation and code",
			},
			[]string{"operation", "code"},
		),
	}
}

// ObserveSubmission records a committed submission.
func (m *Metrics) ObserveSubmission(contracts, rates, links, removals int) {
	if m == nil {
		return
	}
	contents := "rates"
	switch {
	case contracts > 0 && rates > 0:
		contents = "contract_and_rates"
	case contracts > 0:
		contents = "contract"
	}
	m.SubmissionsTotal.WithLabelValues(contents).Inc()
	m.SubmittedRevisionsTotal.WithLabelValues(string(domain.KindContract)).Add(float64(contracts))
	m.SubmittedRevisionsTotal.WithLabelValues(string(domain.KindRate)).Add(float64(rates))
	m.LinksWrittenTotal.WithLabelValues("link").Add(float64(links))
	m.LinksWrittenTotal.WithLabelValues("removal").Add(float64(removals))
}

// ObserveUnlock records an unlock.
func (m *Metrics) ObserveUnlock(kind domain.Kind) {
	if m == nil {
		return
	}
	m.UnlocksTotal.WithLabelValues(string(kind)).Inc()
}

// ObserveHistory records a history reconstruction.
func (m *Metrics) ObserveHistory(kind domain.Kind, d time.Duration) {
	if m == nil {
		return
	}
	m.HistoryDuration.WithLabelValues(string(kind)).Observe(d.Seconds())
}

// ObserveError records a failed operation. Errors without a domain code
// are counted as "STORE".
func (m *Metrics) ObserveError(operation string, err error) {
	if m == nil || err == nil {
		return
	}
	code := string(domain.CodeOf(err))
	if code == "" {
		code = "STORE"
	}
	m.ErrorsTotal.WithLabelValues(operation, code).Inc()
}
