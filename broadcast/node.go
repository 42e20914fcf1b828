package broadcast

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/andydunstall/meshcast/node"
	"github.com/andydunstall/meshcast/pkg/log"
	"github.com/andydunstall/meshcast/pkg/protocol"
)

// Node replicates a set of broadcast values across the cluster.
//
// Values are disseminated by anti-entropy gossip over the neighbour graph
// supplied by the topology message. Each tick, the node sends every neighbour
// the values it believes the neighbour is missing. The node tracks which
// values each peer knows from the gossip it receives from that peer, so a
// value is resent until the neighbour gossips it back. This means values
// still converge when gossip messages are dropped, duplicated or reordered.
//
// Node is not safe for concurrent use. All events must be handled from the
// same goroutine.
type Node struct {
	id string

	// members contains the IDs of the nodes in the cluster.
	members map[string]struct{}

	// neighbours contains the nodes to gossip with.
	neighbours []string

	messages *MessageSet

	// knownByPeer contains the values the node believes each peer knows.
	knownByPeer map[string]*MessageSet

	seq protocol.Sequence

	outbox node.Outbox

	config *Config

	// status is updated after each change to the node state. May be nil.
	status *Status

	metrics *Metrics

	logger log.Logger
}

// NewFactory returns a factory that creates broadcast nodes with the given
// configuration. If status is given, node snapshots are published to it.
func NewFactory(config *Config, status *Status) node.Factory {
	return func(params node.Params) (node.Node, error) {
		return NewNode(params, config, status)
	}
}

// NewNode creates a broadcast node and schedules gossip ticks on the params
// emitter.
func NewNode(params node.Params, config *Config, status *Status) (*Node, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	n := &Node{
		id:          params.NodeID,
		members:     make(map[string]struct{}),
		messages:    NewMessageSet(),
		knownByPeer: make(map[string]*MessageSet),
		outbox:      params.Outbox,
		config:      config,
		status:      status,
		metrics:     NewMetrics(),
		logger:      params.Logger.WithSubsystem("broadcast"),
	}
	for _, id := range params.NodeIDs {
		n.members[id] = struct{}{}
		if id != n.id {
			n.knownByPeer[id] = NewMessageSet()
		}
	}
	if params.Registry != nil {
		n.metrics.Register(params.Registry)
	}

	n.publish()

	node.ScheduleTicks(params.Emitter, config.Interval)

	return n, nil
}

func (n *Node) Handle(e node.Event) error {
	switch e := e.(type) {
	case node.MessageEvent:
		return n.handleMessage(e.Message)
	case node.TickEvent:
		return n.gossip()
	case node.EndOfInputEvent:
		n.logger.Debug(
			"end of input",
			zap.Int("messages", n.messages.Len()),
		)
		return nil
	default:
		return fmt.Errorf("unsupported event: %T", e)
	}
}

// Messages returns the values known to the node in ascending order.
func (n *Node) Messages() []uint64 {
	return n.messages.Values()
}

// Neighbours returns the nodes the node gossips with.
func (n *Node) Neighbours() []string {
	return append([]string(nil), n.neighbours...)
}

// KnownBy returns the values the node believes the peer knows, in ascending
// order.
func (n *Node) KnownBy(peer string) []uint64 {
	known, ok := n.knownByPeer[peer]
	if !ok {
		return []uint64{}
	}
	return known.Values()
}

func (n *Node) handleMessage(m protocol.Message) error {
	switch payload := m.Body.Payload.(type) {
	case protocol.Broadcast:
		return n.handleBroadcast(m, payload)
	case protocol.Read:
		return n.reply(m, protocol.ReadOk{Messages: n.messages.Values()})
	case protocol.Topology:
		return n.handleTopology(m, payload)
	case protocol.Gossip:
		n.handleGossip(m, payload)
		return nil
	default:
		if protocol.IsReply(payload.Type()) {
			n.logger.Debug(
				"ignoring reply",
				zap.String("type", string(payload.Type())),
				zap.String("src", m.Src),
			)
			return nil
		}

		n.logger.Warn(
			"unsupported request",
			zap.String("type", string(payload.Type())),
			zap.String("src", m.Src),
		)
		return n.reply(m, protocol.Error{
			Code: protocol.ErrorCodeNotSupported,
			Text: fmt.Sprintf("unsupported request: %s", payload.Type()),
		})
	}
}

func (n *Node) handleBroadcast(m protocol.Message, payload protocol.Broadcast) error {
	if n.messages.Add(payload.Message) {
		n.logger.Debug(
			"added message",
			zap.Uint64("message", payload.Message),
			zap.String("src", m.Src),
		)
		n.publish()
	}
	return n.reply(m, protocol.BroadcastOk{})
}

func (n *Node) handleTopology(m protocol.Message, payload protocol.Topology) error {
	neighbours, ok := payload.Topology[n.id]
	if !ok {
		return &ConfigurationError{
			Reason: fmt.Sprintf("topology missing local node: %s", n.id),
		}
	}

	if n.neighbours != nil {
		n.logger.Info(
			"replacing neighbours",
			zap.Strings("prev", n.neighbours),
			zap.Strings("neighbours", neighbours),
		)
	} else {
		n.logger.Info(
			"updated neighbours",
			zap.Strings("neighbours", neighbours),
		)
	}

	n.neighbours = make([]string, 0, len(neighbours))
	for _, neighbour := range neighbours {
		if neighbour == n.id {
			continue
		}
		n.neighbours = append(n.neighbours, neighbour)
	}
	n.metrics.Neighbours.Set(float64(len(n.neighbours)))
	n.publish()

	return n.reply(m, protocol.TopologyOk{})
}

func (n *Node) handleGossip(m protocol.Message, payload protocol.Gossip) {
	if _, ok := n.members[m.Src]; !ok || m.Src == n.id {
		n.logger.Warn(
			"dropping gossip from unknown sender",
			zap.String("src", m.Src),
		)
		n.metrics.GossipDropped.Inc()
		return
	}

	added := n.messages.AddAll(payload.Seen)
	// The sender must know every value it gossips.
	n.knownBy(m.Src).AddAll(payload.Seen)

	n.metrics.GossipValuesReceived.Add(float64(len(payload.Seen)))
	n.metrics.GossipValuesNew.Add(float64(added))

	n.publish()
}

// gossip sends each neighbour the values it is believed to be missing.
func (n *Node) gossip() error {
	for _, neighbour := range n.neighbours {
		known := n.knownBy(neighbour)
		delta := n.messages.Difference(known)
		if len(delta) == 0 {
			continue
		}

		m := protocol.NewMessage(
			n.id, neighbour, &n.seq, protocol.Gossip{Seen: delta},
		)
		if err := n.outbox.Send(m); err != nil {
			return fmt.Errorf("gossip: %s: %w", neighbour, err)
		}

		n.metrics.GossipMessagesSent.Inc()
		n.metrics.GossipValuesSent.Add(float64(len(delta)))

		if n.config.Optimistic {
			known.AddAll(delta)
		}
	}

	if n.config.Optimistic {
		n.publish()
	}
	return nil
}

func (n *Node) reply(m protocol.Message, payload protocol.Payload) error {
	reply := protocol.Reply(m, &n.seq)
	reply.Body.Payload = payload
	if err := n.outbox.Send(reply); err != nil {
		return fmt.Errorf("reply: %s: %w", payload.Type(), err)
	}
	return nil
}

func (n *Node) knownBy(peer string) *MessageSet {
	known, ok := n.knownByPeer[peer]
	if !ok {
		known = NewMessageSet()
		n.knownByPeer[peer] = known
	}
	return known
}

func (n *Node) publish() {
	n.metrics.Values.Set(float64(n.messages.Len()))

	if n.status == nil {
		return
	}

	knownByPeer := make(map[string]int, len(n.knownByPeer))
	for peer, known := range n.knownByPeer {
		knownByPeer[peer] = known.Len()
	}
	n.status.publish(&Snapshot{
		NodeID:      n.id,
		Neighbours:  n.Neighbours(),
		Messages:    n.messages.Values(),
		KnownByPeer: knownByPeer,
	})
}

var _ node.Node = &Node{}
