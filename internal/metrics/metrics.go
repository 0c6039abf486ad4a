package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for consent and authorization.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	consentSubmissions *prometheus.CounterVec
	auditFailures      prometheus.Counter
	accessDenied       *prometheus.CounterVec
}

// New registers the collectors against registerer
func New(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		consentSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mmeg",
			Name:      "consent_submissions_total",
			Help:      "Consent submissions accepted, by GPC presence and audit outcome.",
		}, []string{"gpc", "audited"}),
		auditFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mmeg",
			Name:      "consent_audit_failures_total",
			Help:      "Consent audit events that could not be written.",
		}),
		accessDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mmeg",
			Name:      "access_denied_total",
			Help:      "Requests rejected by the authorization table.",
		}, []string{"check"}),
	}
	registerer.MustRegister(m.consentSubmissions, m.auditFailures, m.accessDenied)
	return m
}

// ConsentSubmitted counts one accepted submission
func (m *Metrics) ConsentSubmitted(gpc, audited bool) {
	if m == nil {
		return
	}
	m.consentSubmissions.WithLabelValues(strconv.FormatBool(gpc), strconv.FormatBool(audited)).Inc()
}

// AuditFailed counts a dropped audit event
func (m *Metrics) AuditFailed() {
	if m == nil {
		return
	}
	m.auditFailures.Inc()
}

// AccessDenied counts a rejected permission or role check
func (m *Metrics) AccessDenied(check string) {
	if m == nil {
		return
	}
	m.accessDenied.WithLabelValues(check).Inc()
}
