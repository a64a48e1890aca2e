// Package metrics declares the Prometheus collectors of the portal. They are
// registered with the default registry on import and served at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dental_portal"

// ── Session metrics ───────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// HydrationsTotal counts hydrations of stored credentials.
// Label:
//   - outcome: "empty", "partial", "expired", "rejected" or "verified"
var HydrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "hydrations_total",
		Help:      "Total number of session hydrations, by outcome.",
	},
	[]string{"outcome"},
)

var ActiveSessions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Browser sessions currently held in memory.",
	},
)

// GuardDecisionsTotal counts route guard outcomes.
// Labels:
//   - page: the guarded page (e.g. "users")
//   - decision: "loading", "redirect" or "render"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of route guard decisions, by page and decision.",
	},
	[]string{"page", "decision"},
)

// ── Backend metrics ───────────────────────────────────────────────────────────

// BackendRequestDuration measures calls to the clinic REST API.
// Label:
//   - status: HTTP status code, or "error" when no response was received
var BackendRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Duration of requests to the clinic API.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"status"},
)

// ── Report metrics ────────────────────────────────────────────────────────────

// ReportsGeneratedTotal counts produced report artifacts.
// Labels:
//   - kind: "patients", "appointments", "treatments", "payments" or "income"
//   - format: "pdf" or "xlsx"
var ReportsGeneratedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reports_generated_total",
		Help:      "Total number of reports generated, by kind and format.",
	},
	[]string{"kind", "format"},
)

// ReportSectionFailuresTotal counts resources that fell back to an empty list.
var ReportSectionFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "report_section_failures_total",
		Help:      "Total number of report resources that could not be fetched.",
	},
	[]string{"resource"},
)
