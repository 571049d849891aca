// Package metrics defines the custom Prometheus metrics of the gallery web
// front end. Request-level metrics come from echoprometheus; everything here
// counts session and authorization outcomes.
package metrics

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/artgallery/gallery-web/internal/core/domain"
	"github.com/artgallery/gallery-web/internal/core/service"
)

const namespace = "gallery"

// ── Guard ─────────────────────────────────────────────────────────────────────

// GuardDecisionsTotal counts route guard outcomes.
// Labels:
//   - route: the echo route pattern (e.g. "/admin/users")
//   - decision: loading, redirect, denied or allow
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of route guard decisions, by route and outcome.",
	},
	[]string{"route", "decision"},
)

// ── Session ───────────────────────────────────────────────────────────────────

// AuthOperationsTotal counts login and logout attempts.
// Labels:
//   - operation: "login" or "logout"
//   - result: "ok", "rejected", "network_failure" or "error"
var AuthOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_operations_total",
		Help:      "Total number of login/logout operations, by result.",
	},
	[]string{"operation", "result"},
)

// SessionVerificationsTotal counts startup revalidations of a persisted principal.
// Label:
//   - result: "valid" or "expired"
var SessionVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_verifications_total",
		Help:      "Total number of persisted session verifications, by result.",
	},
	[]string{"result"},
)

// SearchHistoryWritesTotal counts advanced searches recorded in the history.
var SearchHistoryWritesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "search_history_writes_total",
		Help:      "Total number of advanced searches recorded in the search history.",
	},
)

// AuthResult maps an auth gateway error to the result label.
func AuthResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrAuthRejected):
		return "rejected"
	case errors.Is(err, domain.ErrNetworkFailure):
		return "network_failure"
	default:
		return "error"
	}
}

type instrumentedVerifier struct {
	next service.Verifier
}

// InstrumentVerifier counts the outcome of every verification made through v.
func InstrumentVerifier(v service.Verifier) service.Verifier {
	return instrumentedVerifier{next: v}
}

func (i instrumentedVerifier) Verify(ctx context.Context, snapshot *domain.Principal) (*domain.Principal, error) {
	p, err := i.next.Verify(ctx, snapshot)
	if err != nil {
		SessionVerificationsTotal.WithLabelValues("expired").Inc()
		return nil, err
	}
	SessionVerificationsTotal.WithLabelValues("valid").Inc()
	return p, nil
}
