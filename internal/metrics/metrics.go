// Package metrics provides Prometheus metrics for the dashboard.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "dashboard"

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Message kind label values.
const (
	KindObservation = "observation"
	KindOther       = "other"
)

// Metrics holds the dashboard collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	OAuthExchanges        *prometheus.CounterVec
	RealtimeConnects      *prometheus.CounterVec
	RealtimeMessages      *prometheus.CounterVec
	RealtimeSubscriptions prometheus.Gauge
	SSEClients            prometheus.Gauge
	HealthChecksTotal     *prometheus.CounterVec
	ComponentHealthStatus *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg. A nil reg skips
// registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OAuthExchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oauth_exchanges_total",
			Help:      "Total number of authorization code exchanges.",
		}, []string{"result"}),
		RealtimeConnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_connects_total",
			Help:      "Total number of realtime channel connection attempts.",
		}, []string{"result"}),
		RealtimeMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_messages_total",
			Help:      "Total number of realtime messages received.",
		}, []string{"kind"}),
		RealtimeSubscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "realtime_subscriptions_active",
			Help:      "Number of open realtime subscriptions.",
		}),
		SSEClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sse_clients_active",
			Help:      "Number of connected event stream clients.",
		}),
		HealthChecksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "health_checks_total",
			Help:      "Total number of health checks.",
		}, []string{"endpoint", "status"}),
		ComponentHealthStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "component_health_status",
			Help:      "Health status of service components (1=healthy, 0=unhealthy).",
		}, []string{"component"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.OAuthExchanges,
			m.RealtimeConnects,
			m.RealtimeMessages,
			m.RealtimeSubscriptions,
			m.SSEClients,
			m.HealthChecksTotal,
			m.ComponentHealthStatus,
		)
	}

	return m
}

func result(ok bool) string {
	if ok {
		return ResultSuccess
	}
	return ResultFailure
}

// ObserveExchange counts one code exchange.
func (m *Metrics) ObserveExchange(ok bool) {
	if m == nil {
		return
	}
	m.OAuthExchanges.WithLabelValues(result(ok)).Inc()
}

// ObserveConnect counts one realtime connection attempt.
func (m *Metrics) ObserveConnect(ok bool) {
	if m == nil {
		return
	}
	m.RealtimeConnects.WithLabelValues(result(ok)).Inc()
}

// ObserveMessage counts one realtime message of kind.
func (m *Metrics) ObserveMessage(kind string) {
	if m == nil {
		return
	}
	m.RealtimeMessages.WithLabelValues(kind).Inc()
}

// SubscriptionOpened and SubscriptionClosed track open subscriptions.
func (m *Metrics) SubscriptionOpened() {
	if m == nil {
		return
	}
	m.RealtimeSubscriptions.Inc()
}

func (m *Metrics) SubscriptionClosed() {
	if m == nil {
		return
	}
	m.RealtimeSubscriptions.Dec()
}

// SSEClientConnected and SSEClientDisconnected track event stream clients.
func (m *Metrics) SSEClientConnected() {
	if m == nil {
		return
	}
	m.SSEClients.Inc()
}

func (m *Metrics) SSEClientDisconnected() {
	if m == nil {
		return
	}
	m.SSEClients.Dec()
}

// ObserveHealthCheck counts one health check of endpoint with status.
func (m *Metrics) ObserveHealthCheck(endpoint, status string) {
	if m == nil {
		return
	}
	m.HealthChecksTotal.WithLabelValues(endpoint, status).Inc()
}

// SetComponentHealth records whether component is healthy.
func (m *Metrics) SetComponentHealth(component string, healthy bool) {
	if m == nil {
		return
	}
	v := 0.0
	if healthy {
		v = 1
	}
	m.ComponentHealthStatus.WithLabelValues(component).Set(v)
}
