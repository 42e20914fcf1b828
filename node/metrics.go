package node

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	// MessagesInbound is the number of messages read from the input, labelled
	// by payload type.
	MessagesInbound *prometheus.CounterVec

	// MessagesOutbound is the number of messages written to the output,
	// labelled by payload type.
	MessagesOutbound *prometheus.CounterVec

	// BytesInbound is the total number of bytes read from the input.
	BytesInbound prometheus.Counter

	// BytesOutbound is the total number of bytes written to the output.
	BytesOutbound prometheus.Counter

	// Events is the number of events handled, labelled by kind.
	Events *prometheus.CounterVec

	// HandleLatency is the time taken for the node to handle an event,
	// labelled by kind.
	HandleLatency *prometheus.HistogramVec

	// QueuedEvents is the number of events waiting to be handled.
	QueuedEvents prometheus.GaugeFunc
}

func newMetrics(queued func() float64) *Metrics {
	return &Metrics{
		MessagesInbound: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "meshcast",
				Subsystem: "runtime",
				Name:      "messages_inbound_total",
				Help:      "Total number of messages read from the input",
			},
			[]string{"type"},
		),
		MessagesOutbound: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "meshcast",
				Subsystem: "runtime",
				Name:      "messages_outbound_total",
				Help:      "Total number of messages written to the output",
			},
			[]string{"type"},
		),
		BytesInbound: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "meshcast",
				Subsystem: "runtime",
				Name:      "bytes_inbound_total",
				Help:      "Total number of bytes read from the input",
			},
		),
		BytesOutbound: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "meshcast",
				Subsystem: "runtime",
				Name:      "bytes_outbound_total",
				Help:      "Total number of bytes written to the output",
			},
		),
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "meshcast",
				Subsystem: "runtime",
				Name:      "events_total",
				Help:      "Total number of events handled",
			},
			[]string{"kind"},
		),
		HandleLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "meshcast",
				Subsystem: "runtime",
				Name:      "handle_latency_seconds",
				Help:      "Time taken to handle an event",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"kind"},
		),
		QueuedEvents: prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: "meshcast",
				Subsystem: "runtime",
				Name:      "queued_events",
				Help:      "Number of events waiting to be handled",
			},
			queued,
		),
	}
}

func (m *Metrics) Register(reg *prometheus.Registry) {
	reg.MustRegister(
		m.MessagesInbound,
		m.MessagesOutbound,
		m.BytesInbound,
		m.BytesOutbound,
		m.Events,
		m.HandleLatency,
		m.QueuedEvents,
	)
}
