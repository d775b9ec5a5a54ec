// Package metrics exposes the service's Prometheus collectors. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "opinwork"

type Metrics struct {
	gatherer prometheus.Gatherer

	guardDecisions       *prometheus.CounterVec
	invitationChecks     *prometheus.CounterVec
	registrations        *prometheus.CounterVec
	invitationsGenerated *prometheus.CounterVec
}

// New registers the collectors on reg. Use prometheus.NewRegistry in tests.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		return nil
	}
	m := &Metrics{
		gatherer: reg,
		guardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_decisions_total",
			Help:      "Route guard decisions by capability and outcome.",
		}, []string{"capability", "outcome"}),
		invitationChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invitation_validations_total",
			Help:      "Invitation validations by resulting status.",
		}, []string{"status"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Completed registrations by provider and whether the invitation was marked used.",
		}, []string{"provider", "marked"}),
		invitationsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invitations_generated_total",
			Help:      "Invitations generated by validity window in days.",
		}, []string{"days"}),
	}
	reg.MustRegister(m.guardDecisions, m.invitationChecks, m.registrations, m.invitationsGenerated)
	return m
}

func (m *Metrics) GuardDecision(capability, outcome string) {
	if m == nil {
		return
	}
	m.guardDecisions.WithLabelValues(label(capability), label(outcome)).Inc()
}

func (m *Metrics) InvitationValidated(status string) {
	if m == nil {
		return
	}
	m.invitationChecks.WithLabelValues(label(status)).Inc()
}

func (m *Metrics) Registration(provider string, marked bool) {
	if m == nil {
		return
	}
	v := "false"
	if marked {
		v = "true"
	}
	m.registrations.WithLabelValues(label(provider), v).Inc()
}

func (m *Metrics) InvitationGenerated(days string) {
	if m == nil {
		return
	}
	m.invitationsGenerated.WithLabelValues(label(days)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func label(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
