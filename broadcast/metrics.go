package broadcast

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	// Values is the number of values known to the node.
	Values prometheus.Gauge

	// Neighbours is the number of neighbours the node gossips with.
	Neighbours prometheus.Gauge

	// GossipMessagesSent is the number of gossip messages sent to
	// neighbours.
	GossipMessagesSent prometheus.Counter

	// GossipValuesSent is the total number of values included in sent gossip
	// messages.
	GossipValuesSent prometheus.Counter

	// GossipValuesReceived is the total number of values included in
	// received gossip messages.
	GossipValuesReceived prometheus.Counter

	// GossipValuesNew is the number of received gossip values that were not
	// already known to the node.
	GossipValuesNew prometheus.Counter

	// GossipDropped is the number of gossip messages dropped as the sender
	// isn't a cluster member.
	GossipDropped prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		Values: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "meshcast",
				Subsystem: "broadcast",
				Name:      "values",
				Help:      "Number of values known to the node",
			},
		),
		Neighbours: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "meshcast",
				Subsystem: "broadcast",
				Name:      "neighbours",
				Help:      "Number of neighbours the node gossips with",
			},
		),
		GossipMessagesSent: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "meshcast",
				Subsystem: "broadcast",
				Name:      "gossip_messages_sent_total",
				Help:      "Total number of gossip messages sent",
			},
		),
		GossipValuesSent: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "meshcast",
				Subsystem: "broadcast",
				Name:      "gossip_values_sent_total",
				Help:      "Total number of values sent in gossip messages",
			},
		),
		GossipValuesReceived: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "meshcast",
				Subsystem: "broadcast",
				Name:      "gossip_values_received_total",
				Help:      "Total number of values received in gossip messages",
			},
		),
		GossipValuesNew: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "meshcast",
				Subsystem: "broadcast",
				Name:      "gossip_values_new_total",
				Help:      "Total number of received gossip values that were new",
			},
		),
		GossipDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "meshcast",
				Subsystem: "broadcast",
				Name:      "gossip_dropped_total",
				Help:      "Total number of gossip messages dropped",
			},
		),
	}
}

func (m *Metrics) Register(reg *prometheus.Registry) {
	reg.MustRegister(
		m.Values,
		m.Neighbours,
		m.GossipMessagesSent,
		m.GossipValuesSent,
		m.GossipValuesReceived,
		m.GossipValuesNew,
		m.GossipDropped,
	)
}
