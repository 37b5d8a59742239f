package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"msgbus"
)

// Prom carries the service's Prometheus registry and the bus dispatch
// counters. It implements msgbus.Observer, so a bus constructed with
// msgbus.WithObserver(p) feeds the counters directly.
type Prom struct {
	reg       *prometheus.Registry
	published *prometheus.CounterVec
	delivered *prometheus.CounterVec
	failed    *prometheus.CounterVec
	deferred  *prometheus.CounterVec
}

var _ msgbus.Observer = (*Prom)(nil)

func NewProm() *Prom {
	reg := prometheus.NewRegistry()
	p := &Prom{
		reg: reg,
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "msgbus_published_total",
			Help: "Messages dispatched, by bus instance and type key",
		}, []string{"bus", "key"}),
		delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "msgbus_deliveries_total",
			Help: "Successful handler invocations, by bus instance and type key",
		}, []string{"bus", "key"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "msgbus_handler_failures_total",
			Help: "Failed handler invocations, by bus instance and type key",
		}, []string{"bus", "key"}),
		deferred: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "msgbus_deferred_total",
			Help: "Nested publishes queued behind an active dispatch pass",
		}, []string{"bus", "key"}),
	}
	reg.MustRegister(p.published, p.delivered, p.failed, p.deferred)
	return p
}

func (p *Prom) Handler() http.Handler { return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{}) }

// Implement msgbus.Observer.

func (p *Prom) Published(bus string, key msgbus.TypeKey) {
	p.published.WithLabelValues(bus, string(key)).Inc()
}

func (p *Prom) Delivered(bus string, key msgbus.TypeKey) {
	p.delivered.WithLabelValues(bus, string(key)).Inc()
}

func (p *Prom) Failed(bus string, key msgbus.TypeKey) {
	p.failed.WithLabelValues(bus, string(key)).Inc()
}

func (p *Prom) Deferred(bus string, key msgbus.TypeKey) {
	p.deferred.WithLabelValues(bus, string(key)).Inc()
}
