package node

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/andydunstall/meshcast/pkg/log"
	"github.com/andydunstall/meshcast/pkg/protocol"
)

// Node is a state machine reacting to events.
//
// Handle is only ever called from a single goroutine, so the node can own
// its state without locking. Handle must not block on anything except the
// outbox. Any error returned by Handle is fatal.
type Node interface {
	Handle(e Event) error
}

// Outbox is the output sink for messages sent by the node.
type Outbox interface {
	// Send writes the message as a single line.
	Send(m protocol.Message) error
}

// Params contains the state passed to a Factory when the node is
// initialised.
type Params struct {
	// NodeID is the ID of the local node.
	NodeID string

	// NodeIDs contains the IDs of every node in the cluster, including the
	// local node.
	NodeIDs []string

	// Emitter injects events into the runtime, such as from a ticker.
	Emitter Emitter

	Outbox Outbox

	// Registry registers node metrics. May be nil.
	Registry *prometheus.Registry

	Logger log.Logger
}

// Factory creates a node once the init handshake supplies the node ID and
// cluster membership. Any node specific configuration is captured by the
// factory itself.
type Factory func(params Params) (Node, error)
