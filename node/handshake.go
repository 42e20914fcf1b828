package node

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/andydunstall/meshcast/pkg/protocol"
)

// handshake waits for the init message, creates the node and replies with
// init_ok.
//
// Returns a nil node and nil error if the context is cancelled before init
// is received.
func (r *Runtime) handshake(ctx context.Context) (Node, error) {
	var m protocol.Message
	select {
	case e := <-r.events:
		switch e := e.(type) {
		case MessageEvent:
			m = e.Message
		case EndOfInputEvent:
			return nil, &ProtocolError{Reason: "input closed before init"}
		case readErrorEvent:
			return nil, e.err
		default:
			return nil, &ProtocolError{
				Reason: fmt.Sprintf("unexpected event before init: %s", eventKind(e)),
			}
		}
	case <-ctx.Done():
		return nil, nil
	}

	r.metrics.MessagesInbound.WithLabelValues(string(m.Body.Payload.Type())).Inc()

	init, ok := m.Body.Payload.(protocol.Init)
	if !ok {
		return nil, &ProtocolError{
			Reason: fmt.Sprintf("expected init; got %s", m.Body.Payload.Type()),
		}
	}
	if init.NodeID == "" {
		return nil, &ProtocolError{Reason: "init missing node id"}
	}

	logger := r.logger.With(zap.String("node-id", init.NodeID))
	logger.Info(
		"received init",
		zap.Strings("node-ids", init.NodeIDs),
	)

	n, err := r.factory(Params{
		NodeID:   init.NodeID,
		NodeIDs:  init.NodeIDs,
		Emitter:  r,
		Outbox:   r.outbox,
		Registry: r.registry,
		Logger:   logger,
	})
	if err != nil {
		return nil, &ConstructionError{Err: err}
	}

	reply := protocol.Reply(m, nil)
	reply.Body.Payload = protocol.InitOk{}
	if err := r.outbox.Send(reply); err != nil {
		return nil, fmt.Errorf("init ok: %w", err)
	}

	r.logger = logger

	return n, nil
}
