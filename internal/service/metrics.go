package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_submissions_total",
			Help: "Financial actions submitted, by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
	Transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_transitions_total",
			Help: "Review transitions attempted, by record type, action and outcome",
		},
		[]string{"record_type", "action", "outcome"},
	)
	BalanceDeltas = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_balance_deltas_total",
			Help: "Balance deltas applied, by reason",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(Submissions)
	prometheus.MustRegister(Transitions)
	prometheus.MustRegister(BalanceDeltas)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return domainKind(err)
}
