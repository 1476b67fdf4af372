package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NoncesIssued counts sign-in challenges issued
	NoncesIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "goalstake_nonces_issued_total",
			Help: "Total number of sign-in nonces issued",
		},
	)

	// NoncesConsumed counts nonces burned during verification
	NoncesConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "goalstake_nonces_consumed_total",
			Help: "Total number of sign-in nonces consumed",
		},
	)

	// SignInAttempts counts signature verification attempts by outcome
	SignInAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goalstake_signin_attempts_total",
			Help: "Total number of sign-in verification attempts",
		},
		[]string{"outcome"},
	)

	// SessionsIssued counts sessions minted after successful verification
	SessionsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "goalstake_sessions_issued_total",
			Help: "Total number of session tokens issued",
		},
	)

	// GoalsCreated counts goal records persisted
	GoalsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "goalstake_goals_created_total",
			Help: "Total number of goals persisted",
		},
	)

	// StatusTransitions counts goal status transitions by kind and outcome
	StatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goalstake_status_transitions_total",
			Help: "Total number of goal status transition requests",
		},
		[]string{"transition", "outcome"},
	)

	// NoncesPurged counts expired nonces removed by the hygiene sweep
	NoncesPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "goalstake_nonces_purged_total",
			Help: "Total number of expired nonces purged",
		},
	)
)
