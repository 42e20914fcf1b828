package echo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andydunstall/meshcast/node"
	"github.com/andydunstall/meshcast/pkg/log"
	"github.com/andydunstall/meshcast/pkg/protocol"
)

type fakeOutbox struct {
	messages []protocol.Message
}

func (o *fakeOutbox) Send(m protocol.Message) error {
	o.messages = append(o.messages, m)
	return nil
}

func TestNode(t *testing.T) {
	outbox := &fakeOutbox{}
	n, err := NewNode(node.Params{
		NodeID:  "n1",
		NodeIDs: []string{"n1"},
		Outbox:  outbox,
		Logger:  log.NewNopLogger(),
	})
	require.NoError(t, err)

	t.Run("echo", func(t *testing.T) {
		outbox.messages = nil

		require.NoError(t, n.Handle(node.MessageEvent{
			Message: protocol.Message{
				Src:  "c1",
				Dest: "n1",
				Body: protocol.Body{
					MsgID:   protocol.ID(1),
					Payload: protocol.Echo{Echo: "hello"},
				},
			},
		}))

		require.Equal(t, 1, len(outbox.messages))
		reply := outbox.messages[0]
		assert.Equal(t, "n1", reply.Src)
		assert.Equal(t, "c1", reply.Dest)
		assert.Equal(t, protocol.ID(1), reply.Body.InReplyTo)
		assert.Equal(t, protocol.EchoOk{Echo: "hello"}, reply.Body.Payload)
	})

	t.Run("unsupported", func(t *testing.T) {
		outbox.messages = nil

		require.NoError(t, n.Handle(node.MessageEvent{
			Message: protocol.Message{
				Src:  "c1",
				Dest: "n1",
				Body: protocol.Body{
					MsgID:   protocol.ID(2),
					Payload: protocol.Read{},
				},
			},
		}))

		require.Equal(t, 1, len(outbox.messages))
		errPayload, ok := outbox.messages[0].Body.Payload.(protocol.Error)
		require.True(t, ok)
		assert.Equal(t, protocol.ErrorCodeNotSupported, errPayload.Code)
	})

	t.Run("ignores end of input", func(t *testing.T) {
		outbox.messages = nil

		require.NoError(t, n.Handle(node.EndOfInputEvent{}))
		assert.Equal(t, 0, len(outbox.messages))
	})
}
