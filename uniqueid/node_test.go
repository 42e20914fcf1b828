package uniqueid

import (
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
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

func generate(id uint64) node.Event {
	return node.MessageEvent{
		Message: protocol.Message{
			Src:  "c1",
			Dest: "n1",
			Body: protocol.Body{
				MsgID:   protocol.ID(id),
				Payload: protocol.Generate{},
			},
		},
	}
}

func newTestNode(t *testing.T, conf *Config) (*Node, *fakeOutbox) {
	outbox := &fakeOutbox{}
	n, err := NewNode(node.Params{
		NodeID:  "n1",
		NodeIDs: []string{"n1", "n2"},
		Outbox:  outbox,
		Logger:  log.NewNopLogger(),
	}, conf)
	require.NoError(t, err)
	return n, outbox
}

func TestNode(t *testing.T) {
	t.Run("sequence", func(t *testing.T) {
		n, outbox := newTestNode(t, Default())

		for i := 0; i != 3; i++ {
			require.NoError(t, n.Handle(generate(1)))
		}

		var ids []string
		for _, m := range outbox.messages {
			assert.Equal(t, protocol.ID(1), m.Body.InReplyTo)
			ids = append(ids, m.Body.Payload.(protocol.GenerateOk).ID)
		}
		assert.Equal(t, []string{"n1-1", "n1-2", "n1-3"}, ids)
	})

	t.Run("uuid", func(t *testing.T) {
		n, outbox := newTestNode(t, &Config{Strategy: StrategyUUID})

		require.NoError(t, n.Handle(generate(1)))
		require.NoError(t, n.Handle(generate(2)))

		require.Equal(t, 2, len(outbox.messages))
		id1 := outbox.messages[0].Body.Payload.(protocol.GenerateOk).ID
		id2 := outbox.messages[1].Body.Payload.(protocol.GenerateOk).ID

		_, err := uuid.Parse(id1)
		assert.NoError(t, err)
		assert.NotEqual(t, id1, id2)
	})

	t.Run("unsupported", func(t *testing.T) {
		n, outbox := newTestNode(t, Default())

		require.NoError(t, n.Handle(node.MessageEvent{
			Message: protocol.Message{
				Src:  "c1",
				Dest: "n1",
				Body: protocol.Body{
					MsgID:   protocol.ID(1),
					Payload: protocol.Echo{Echo: "foo"},
				},
			},
		}))

		require.Equal(t, 1, len(outbox.messages))
		errPayload, ok := outbox.messages[0].Body.Payload.(protocol.Error)
		require.True(t, ok)
		assert.Equal(t, protocol.ErrorCodeNotSupported, errPayload.Code)
	})
}

func TestConfig(t *testing.T) {
	assert.NoError(t, Default().Validate())
	assert.Error(t, (&Config{}).Validate())
	assert.Error(t, (&Config{Strategy: "snowflake"}).Validate())

	conf := Default()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	conf.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--unique-ids.strategy", "uuid"}))
	assert.Equal(t, StrategyUUID, conf.Strategy)
}
