// Package metrics defines the Prometheus metrics of the clinic API auth
// subsystem. Metrics register with the default registry on package init and
// are served on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "clinic"

// ── Auth use cases ────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "user_not_found", "invalid_credentials" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RefreshesTotal counts refresh-token exchanges.
// Label:
//   - result: "success" or "failure"
var RefreshesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "refreshes_total",
		Help:      "Total number of refresh token exchanges, by result.",
	},
	[]string{"result"},
)

// PasswordResetsTotal counts forgot/reset password calls.
// Labels:
//   - stage: "requested" or "completed"
//   - result: "success" or "failure"
var PasswordResetsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "password_resets_total",
		Help:      "Total number of password reset requests and completions.",
	},
	[]string{"stage", "result"},
)

// RequestAuthTotal counts bearer-token authentication outcomes on protected routes.
// Label:
//   - result: "authenticated", "anonymous", "invalid_token", "unknown_account" or "error"
var RequestAuthTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "request_authentications_total",
		Help:      "Total number of per-request authentication outcomes.",
	},
	[]string{"result"},
)

// ── Mail delivery ─────────────────────────────────────────────────────────────

// MailQueueDepth tracks pending reset notifications per worker.
var MailQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "mail",
		Name:      "queue_depth",
		Help:      "Current number of reset notifications pending in each worker channel.",
	},
	[]string{"worker_id"},
)

// MailDeliveriesTotal counts delivery attempts.
// Label:
//   - result: "sent", "failed" or "dropped"
var MailDeliveriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "mail",
		Name:      "deliveries_total",
		Help:      "Total number of reset notification deliveries, by result.",
	},
	[]string{"result"},
)
