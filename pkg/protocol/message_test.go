package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReply(t *testing.T) {
	t.Run("stamped", func(t *testing.T) {
		req := Message{
			Src:  "c1",
			Dest: "n1",
			Body: Body{
				MsgID:   ID(4),
				Payload: Broadcast{Message: 5},
			},
		}

		var seq Sequence
		reply := Reply(req, &seq)
		assert.Equal(t, "n1", reply.Src)
		assert.Equal(t, "c1", reply.Dest)
		assert.Equal(t, ID(4), reply.Body.InReplyTo)
		assert.Equal(t, ID(1), reply.Body.MsgID)
		assert.Nil(t, reply.Body.Payload)

		reply = Reply(req, &seq)
		assert.Equal(t, ID(2), reply.Body.MsgID)
		assert.Equal(t, uint64(2), seq.Last())
	})

	t.Run("fire and forget", func(t *testing.T) {
		req := Message{
			Src:  "c1",
			Dest: "n1",
			Body: Body{
				MsgID:   ID(4),
				Payload: Read{},
			},
		}

		reply := Reply(req, nil)
		assert.Equal(t, "n1", reply.Src)
		assert.Equal(t, "c1", reply.Dest)
		assert.Equal(t, ID(4), reply.Body.InReplyTo)
		assert.Nil(t, reply.Body.MsgID)
	})

	t.Run("request without id", func(t *testing.T) {
		req := Message{
			Src:  "n2",
			Dest: "n1",
			Body: Body{
				Payload: Gossip{Seen: []uint64{1}},
			},
		}

		reply := Reply(req, nil)
		assert.Nil(t, reply.Body.InReplyTo)
	})

	t.Run("does not alias request", func(t *testing.T) {
		req := Message{
			Src:  "c1",
			Dest: "n1",
			Body: Body{
				MsgID:   ID(4),
				Payload: Read{},
			},
		}

		reply := Reply(req, nil)
		*reply.Body.InReplyTo = 10
		assert.Equal(t, uint64(4), *req.Body.MsgID)
	})
}

func TestNewMessage(t *testing.T) {
	var seq Sequence
	seq.Next()

	m := NewMessage("n1", "n2", &seq, Gossip{Seen: []uint64{5}})
	assert.Equal(t, "n1", m.Src)
	assert.Equal(t, "n2", m.Dest)
	assert.Equal(t, ID(2), m.Body.MsgID)
	assert.Nil(t, m.Body.InReplyTo)
	assert.Equal(t, Gossip{Seen: []uint64{5}}, m.Body.Payload)

	m = NewMessage("n1", "n2", nil, Read{})
	assert.Nil(t, m.Body.MsgID)
}

func TestEncode(t *testing.T) {
	t.Run("request", func(t *testing.T) {
		b, err := Encode(Message{
			Src:  "c1",
			Dest: "n1",
			Body: Body{
				MsgID:   ID(1),
				Payload: Broadcast{Message: 5},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, byte('\n'), b[len(b)-1])
		assert.JSONEq(
			t,
			`{"src":"c1","dest":"n1","body":{"type":"broadcast","msg_id":1,"message":5}}`,
			string(b),
		)
	})

	t.Run("empty payload", func(t *testing.T) {
		b, err := Encode(Message{
			Src:  "n1",
			Dest: "c1",
			Body: Body{
				InReplyTo: ID(1),
				Payload:   BroadcastOk{},
			},
		})
		require.NoError(t, err)

		assert.JSONEq(
			t,
			`{"src":"n1","dest":"c1","body":{"type":"broadcast_ok","in_reply_to":1}}`,
			string(b),
		)
	})

	t.Run("single line", func(t *testing.T) {
		b, err := Encode(Message{
			Src:  "n1",
			Dest: "c1",
			Body: Body{
				Payload: Echo{Echo: "multi\nline"},
			},
		})
		require.NoError(t, err)

		for _, c := range b[:len(b)-1] {
			assert.NotEqual(t, byte('\n'), c)
		}
	})

	t.Run("missing payload", func(t *testing.T) {
		_, err := Encode(Message{Src: "n1", Dest: "c1"})

		var encodingErr *EncodingError
		assert.True(t, errors.As(err, &encodingErr))
	})
}

func TestDecode(t *testing.T) {
	t.Run("init", func(t *testing.T) {
		m, err := Decode([]byte(
			`{"src":"c0","dest":"n1","body":{"type":"init","msg_id":1,"node_id":"n1","node_ids":["n1","n2"]}}` + "\n",
		))
		require.NoError(t, err)

		assert.Equal(t, Message{
			Src:  "c0",
			Dest: "n1",
			Body: Body{
				MsgID: ID(1),
				Payload: Init{
					NodeID:  "n1",
					NodeIDs: []string{"n1", "n2"},
				},
			},
		}, m)
	})

	t.Run("topology", func(t *testing.T) {
		m, err := Decode([]byte(
			`{"src":"c1","dest":"n1","body":{"type":"topology","msg_id":2,"topology":{"n1":["n2","n3"],"n2":["n1"]}}}`,
		))
		require.NoError(t, err)

		assert.Equal(t, Topology{
			Topology: map[string][]string{
				"n1": {"n2", "n3"},
				"n2": {"n1"},
			},
		}, m.Body.Payload)
	})

	t.Run("reply", func(t *testing.T) {
		m, err := Decode([]byte(
			`{"src":"n1","dest":"c1","body":{"type":"read_ok","in_reply_to":3,"messages":[1,2]}}`,
		))
		require.NoError(t, err)

		assert.Nil(t, m.Body.MsgID)
		assert.Equal(t, ID(3), m.Body.InReplyTo)
		assert.Equal(t, ReadOk{Messages: []uint64{1, 2}}, m.Body.Payload)
	})

	t.Run("roundtrip gossip", func(t *testing.T) {
		sent := NewMessage("n1", "n2", &Sequence{}, Gossip{Seen: []uint64{5, 7}})
		b, err := Encode(sent)
		require.NoError(t, err)

		received, err := Decode(b)
		require.NoError(t, err)
		assert.Equal(t, sent, received)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := Decode([]byte(`{"src":"c1",`))

		var decodingErr *DecodingError
		require.True(t, errors.As(err, &decodingErr))
		assert.Equal(t, `{"src":"c1",`, decodingErr.Line)
	})

	t.Run("unrecognized type", func(t *testing.T) {
		_, err := Decode([]byte(
			`{"src":"c1","dest":"n1","body":{"type":"txn","msg_id":1}}`,
		))

		var decodingErr *DecodingError
		assert.True(t, errors.As(err, &decodingErr))
	})

	t.Run("missing type", func(t *testing.T) {
		_, err := Decode([]byte(
			`{"src":"c1","dest":"n1","body":{"msg_id":1}}`,
		))

		var decodingErr *DecodingError
		assert.True(t, errors.As(err, &decodingErr))
	})

	t.Run("missing body", func(t *testing.T) {
		_, err := Decode([]byte(`{"src":"c1","dest":"n1"}`))

		var decodingErr *DecodingError
		assert.True(t, errors.As(err, &decodingErr))
	})

	t.Run("invalid field type", func(t *testing.T) {
		_, err := Decode([]byte(
			`{"src":"c1","dest":"n1","body":{"type":"broadcast","message":"five"}}`,
		))

		var decodingErr *DecodingError
		assert.True(t, errors.As(err, &decodingErr))
	})

	t.Run("empty", func(t *testing.T) {
		_, err := Decode([]byte("\n"))

		var decodingErr *DecodingError
		assert.True(t, errors.As(err, &decodingErr))
	})
}

func TestIsReply(t *testing.T) {
	assert.True(t, IsReply(TypeBroadcastOk))
	assert.True(t, IsReply(TypeError))
	assert.False(t, IsReply(TypeBroadcast))
	assert.False(t, IsReply(TypeGossip))
}
