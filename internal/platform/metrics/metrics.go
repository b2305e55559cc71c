package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the registry service.
type Metrics struct {
	CredentialsIssued  *prometheus.CounterVec
	CredentialsRevoked prometheus.Counter
	WhitelistChanges   *prometheus.CounterVec
	AdminTransfers     prometheus.Counter
	UnauthorizedCalls  *prometheus.CounterVec
	Verifications      *prometheus.CounterVec
	CredentialTotal    prometheus.Gauge
	EndpointLatency    *prometheus.HistogramVec
	CacheHits          prometheus.Counter
	CacheMisses        prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		CredentialsIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "credchain_credentials_issued_total",
			Help: "Total number of credentials issued, labeled by credential type",
		}, []string{"credential_type"}),
		CredentialsRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "credchain_credentials_revoked_total",
			Help: "Total number of credentials revoked",
		}),
		WhitelistChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "credchain_whitelist_changes_total",
			Help: "Total number of issuer whitelist changes, labeled by new status",
		}, []string{"status"}),
		AdminTransfers: promauto.NewCounter(prometheus.CounterOpts{
			Name: "credchain_admin_transfers_total",
			Help: "Total number of administrator transfers",
		}),
		UnauthorizedCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "credchain_unauthorized_calls_total",
			Help: "Total number of rejected privileged calls, labeled by operation",
		}, []string{"operation"}),
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "credchain_verifications_total",
			Help: "Total number of credential verifications, labeled by outcome",
		}, []string{"outcome"}),
		CredentialTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "credchain_credentials",
			Help: "Current number of credential records in the registry",
		}),
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "credchain_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "credchain_verify_cache_hits_total",
			Help: "Verification cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "credchain_verify_cache_misses_total",
			Help: "Verification cache misses",
		}),
	}
}

// IncrementCredentialsIssued records an issuance and grows the record gauge.
func (m *Metrics) IncrementCredentialsIssued(credentialType string) {
	m.CredentialsIssued.WithLabelValues(credentialType).Inc()
	m.CredentialTotal.Inc()
}

func (m *Metrics) IncrementCredentialsRevoked() {
	m.CredentialsRevoked.Inc()
}

func (m *Metrics) IncrementWhitelistChanges(whitelisted bool) {
	status := "removed"
	if whitelisted {
		status = "whitelisted"
	}
	m.WhitelistChanges.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrementUnauthorized(operation string) {
	m.UnauthorizedCalls.WithLabelValues(operation).Inc()
}

func (m *Metrics) IncrementVerifications(exists bool) {
	outcome := "not_found"
	if exists {
		outcome = "found"
	}
	m.Verifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveEndpointLatency(endpoint string, seconds float64) {
	m.EndpointLatency.WithLabelValues(endpoint).Observe(seconds)
}
