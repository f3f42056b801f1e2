// Package metrics exposes the relay counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "janusrelay"

// Provision results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Packet outcomes.
const (
	PacketForwarded = "forwarded"
	PacketGated     = "gated"
	PacketDropped   = "dropped"
	PacketFailed    = "failed"
)

// Metrics holds every collector of one process. The zero value is not usable;
// a nil *Metrics is, and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	provisions  *prometheus.CounterVec
	healthState *prometheus.GaugeVec
	reconnects  prometheus.Counter
	packets     *prometheus.CounterVec
	sinkOpens   prometheus.Counter
	whipPeers   prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		provisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provision_total",
			Help:      "Mountpoint provisioning attempts by result.",
		}, []string{"result"}),
		healthState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "health_state",
			Help:      "1 for the current state of the health loop.",
		}, []string{"state"}),
		reconnects: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnects_total",
			Help:      "Endpoint changes published to the relay.",
		}),
		packets: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_total",
			Help:      "Packets seen by the relay by track kind and outcome.",
		}, []string{"kind", "outcome"}),
		sinkOpens: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_open_total",
			Help:      "RTP sinks opened by the relay.",
		}),
		whipPeers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "whip_publishers",
			Help:      "Active WHIP publishers.",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveProvision(err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.provisions.WithLabelValues(result).Inc()
}

// SetHealthState marks state as current and clears the others.
func (m *Metrics) SetHealthState(state string, all []string) {
	if m == nil {
		return
	}
	for _, s := range all {
		v := 0.0
		if s == state {
			v = 1
		}
		m.healthState.WithLabelValues(s).Set(v)
	}
}

func (m *Metrics) Reconnect() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

func (m *Metrics) Packet(kind, outcome string) {
	if m == nil {
		return
	}
	m.packets.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) SinkOpened() {
	if m == nil {
		return
	}
	m.sinkOpens.Inc()
}

func (m *Metrics) PublisherAdded() {
	if m == nil {
		return
	}
	m.whipPeers.Inc()
}

func (m *Metrics) PublisherRemoved() {
	if m == nil {
		return
	}
	m.whipPeers.Dec()
}
