// Package metrics exposes prometheus counters for auth outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SignIns counts sign-in attempts by outcome (ok, unauthorized, not_found, error).
	SignIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_sign_ins_total",
		Help: "Sign-in attempts by outcome.",
	}, []string{"outcome"})

	// Refreshes counts refresh attempts by outcome (rotated, rejected, error).
	Refreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_refreshes_total",
		Help: "Refresh attempts by outcome.",
	}, []string{"outcome"})

	// SignUps counts sign-up attempts by outcome (ok, duplicate, error).
	SignUps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_sign_ups_total",
		Help: "Sign-up attempts by outcome.",
	}, []string{"outcome"})
)
