// Package metrics exposes the gateway's Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Token issuance outcomes.
const (
	OutcomeMinted  = "minted"
	OutcomeReused  = "reused"
	OutcomeRenewed = "renewed"
)

// Metrics holds the gateway's counters on a private registry so tests can
// instantiate it without collector collisions.
type Metrics struct {
	registry *prometheus.Registry

	TokensIssued    *prometheus.CounterVec
	StepUpDecisions *prometheus.CounterVec
	TokensPurged    prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		TokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "idgate",
			Name:      "tokens_issued_total",
			Help:      "Token requests by outcome (minted, reused, renewed).",
		}, []string{"outcome"}),
		StepUpDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "idgate",
			Name:      "stepup_decisions_total",
			Help:      "Step-up evaluations by decision (exempt, challenge).",
		}, []string{"decision"}),
		TokensPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "idgate",
			Name:      "tokens_purged_total",
			Help:      "Expired token records removed by housekeeping.",
		}),
	}

	reg.MustRegister(m.TokensIssued, m.StepUpDecisions, m.TokensPurged)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
