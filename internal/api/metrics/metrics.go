// Package metrics defines all custom Prometheus metrics for the RentDesk
// client pipeline. It is the single source of truth for metric names,
// labels, and help strings.
//
// Collectors are registered with the default registry via promauto at
// package load; the portal exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rentdesk"

// RequestsTotal counts outbound API requests that produced a response.
// Labels:
//   - method: HTTP method of the request
//   - status: numeric HTTP status of the response (e.g. "200", "401")
var RequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "client_requests_total",
		Help:      "Total number of outbound API requests, by method and response status.",
	},
	[]string{"method", "status"},
)

// NetworkErrorsTotal counts requests that failed before any response
// was received (connectivity, DNS, TLS). These are never counted as
// authentication failures.
var NetworkErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "client_network_errors_total",
		Help:      "Total number of outbound requests that received no response at all.",
	},
	[]string{"method"},
)

// TokenRefreshTotal counts token refresh attempts.
// Label:
//   - result: "success" or "failure"
var TokenRefreshTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refresh_total",
		Help:      "Total number of token refresh attempts, by result.",
	},
	[]string{"result"},
)

// ForcedLogoutsTotal counts sessions terminated because a token refresh
// failed and the client fell back to the login screen.
var ForcedLogoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "forced_logouts_total",
		Help:      "Total number of forced logouts after an unrecoverable auth failure.",
	},
)

// AuthRetriesTotal counts requests replayed after a successful refresh.
var AuthRetriesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_retries_total",
		Help:      "Total number of requests replayed with a refreshed token.",
	},
)
