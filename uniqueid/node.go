package uniqueid

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andydunstall/meshcast/node"
	"github.com/andydunstall/meshcast/pkg/log"
	"github.com/andydunstall/meshcast/pkg/protocol"
)

// Node generates cluster wide unique IDs without coordinating with other
// nodes.
type Node struct {
	id string

	seq protocol.Sequence

	outbox node.Outbox

	config *Config

	logger log.Logger
}

// NewFactory returns a factory that creates unique ID nodes with the given
// configuration.
func NewFactory(config *Config) node.Factory {
	return func(params node.Params) (node.Node, error) {
		return NewNode(params, config)
	}
}

func NewNode(params node.Params, config *Config) (*Node, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &Node{
		id:     params.NodeID,
		outbox: params.Outbox,
		config: config,
		logger: params.Logger.WithSubsystem("uniqueid"),
	}, nil
}

func (n *Node) Handle(e node.Event) error {
	m, ok := e.(node.MessageEvent)
	if !ok {
		return nil
	}

	reply := protocol.Reply(m.Message, &n.seq)
	switch payload := m.Message.Body.Payload.(type) {
	case protocol.Generate:
		reply.Body.Payload = protocol.GenerateOk{
			ID: n.generate(*reply.Body.MsgID),
		}
	default:
		if protocol.IsReply(payload.Type()) {
			return nil
		}
		n.logger.Warn(
			"unsupported request",
			zap.String("type", string(payload.Type())),
		)
		reply.Body.Payload = protocol.Error{
			Code: protocol.ErrorCodeNotSupported,
			Text: fmt.Sprintf("unsupported request: %s", payload.Type()),
		}
	}

	if err := n.outbox.Send(reply); err != nil {
		return fmt.Errorf("reply: %w", err)
	}
	return nil
}

func (n *Node) generate(msgID uint64) string {
	if n.config.Strategy == StrategyUUID {
		return uuid.NewString()
	}
	// The node ID is unique in the cluster and message IDs are never reused
	// by the node.
	return fmt.Sprintf("%s-%d", n.id, msgID)
}

var _ node.Node = &Node{}
