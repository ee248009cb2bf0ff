package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus metrics of one dashboard instance.
type Metrics struct {
	registry *prometheus.Registry

	ActionTransitions  *prometheus.CounterVec
	GatewayRequests    *prometheus.CounterVec
	EntityMutations    *prometheus.CounterVec
	EventPublishErrors prometheus.Counter
}

// New registers the metrics on a fresh registry together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ActionTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "threatone_action_transitions_total",
			Help: "Dashboard action phase changes",
		}, []string{"action", "phase"}),
		GatewayRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "threatone_gateway_requests_total",
			Help: "Intelligence gateway calls by outcome",
		}, []string{"outcome"}),
		EntityMutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "threatone_entity_mutations_total",
			Help: "Applied entity store mutations",
		}, []string{"kind", "op"}),
		EventPublishErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "threatone_event_publish_errors_total",
			Help: "Events that could not be published to NATS",
		}),
	}
}

func (m *Metrics) ObserveAction(action, phase string) {
	m.ActionTransitions.WithLabelValues(action, phase).Inc()
}

func (m *Metrics) ObserveGateway(outcome string) {
	m.GatewayRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveMutation(kind, op string) {
	m.EntityMutations.WithLabelValues(kind, op).Inc()
}

func (m *Metrics) IncrementEventPublishErrors() {
	m.EventPublishErrors.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
