// Package metrics defines the custom Prometheus metrics for the Authify
// gateway. HTTP request metrics come from the echoprometheus middleware;
// everything here is about what the gateway does on behalf of a request.
//
// All metrics register with the default registry at package init via promauto.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every gateway metric, the echoprometheus ones included.
const Namespace = "authify_gateway"

// ── Backend metrics ───────────────────────────────────────────────────────────

// BackendCallsTotal counts calls to the Authify REST backend.
// Labels:
//   - call: the backend operation (e.g. "login", "list_users")
//   - outcome: "ok" or the classified error kind (e.g. "authentication", "network")
var BackendCallsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "backend_calls_total",
		Help:      "Total number of Authify backend calls, by call and outcome.",
	},
	[]string{"call", "outcome"},
)

// BackendCallDuration measures backend round-trip latency.
// Label:
//   - call: the backend operation
var BackendCallDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "backend_call_duration_seconds",
		Help:      "Duration of Authify backend calls.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"call"},
)

// ObserveBackendCall records one backend call. Its signature matches the
// authify client's observe hook.
func ObserveBackendCall(call, outcome string, took time.Duration) {
	BackendCallsTotal.WithLabelValues(call, outcome).Inc()
	BackendCallDuration.WithLabelValues(call).Observe(took.Seconds())
}

// ── Session metrics ───────────────────────────────────────────────────────────

// LoginsTotal counts login attempts through the gateway.
// Label:
//   - result: "admin", "user", or the error kind on failure
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// SessionStoreOpsTotal counts session store operations.
// Labels:
//   - op: "get", "save", "delete"
//   - result: "ok", "miss" or "error"
var SessionStoreOpsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "session_store_ops_total",
		Help:      "Total number of session store operations, by op and result.",
	},
	[]string{"op", "result"},
)

// ── Flow metrics ──────────────────────────────────────────────────────────────

// OTPResendsTotal counts OTP resend requests.
// Labels:
//   - flow: "verify_account" or "password_reset"
//   - result: "sent" or "throttled"
var OTPResendsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "otp_resends_total",
		Help:      "Total number of OTP resend requests, by flow and result.",
	},
	[]string{"flow", "result"},
)
