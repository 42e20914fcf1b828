package echo

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/andydunstall/meshcast/node"
	"github.com/andydunstall/meshcast/pkg/log"
	"github.com/andydunstall/meshcast/pkg/protocol"
)

// Node replies to each echo request with the same content.
type Node struct {
	seq protocol.Sequence

	outbox node.Outbox

	logger log.Logger
}

func NewNode(params node.Params) (node.Node, error) {
	return &Node{
		outbox: params.Outbox,
		logger: params.Logger.WithSubsystem("echo"),
	}, nil
}

func (n *Node) Handle(e node.Event) error {
	m, ok := e.(node.MessageEvent)
	if !ok {
		return nil
	}

	reply := protocol.Reply(m.Message, &n.seq)
	switch payload := m.Message.Body.Payload.(type) {
	case protocol.Echo:
		reply.Body.Payload = protocol.EchoOk{Echo: payload.Echo}
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

var _ node.Factory = NewNode
