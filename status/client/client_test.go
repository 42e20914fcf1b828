package client

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andydunstall/meshcast/admin"
	"github.com/andydunstall/meshcast/broadcast"
	"github.com/andydunstall/meshcast/node"
	"github.com/andydunstall/meshcast/pkg/log"
	"github.com/andydunstall/meshcast/pkg/protocol"
	"github.com/andydunstall/meshcast/pkg/status"
)

type nopOutbox struct{}

func (o nopOutbox) Send(_ protocol.Message) error {
	return nil
}

type closedEmitter struct {
	done chan struct{}
}

func (e *closedEmitter) Emit(_ node.Event) bool {
	return false
}

func (e *closedEmitter) Done() <-chan struct{} {
	return e.done
}

func newTestServer(t *testing.T, s *broadcast.Status) (*url.URL, func()) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := admin.NewServer(nil, log.NewNopLogger())
	server.AddStatus("/broadcast", s)
	go func() {
		require.NoError(t, server.Serve(ln))
	}()

	u, err := url.Parse("http://" + ln.Addr().String())
	require.NoError(t, err)
	return u, func() {
		server.Shutdown(context.TODO())
	}
}

func TestClient_Broadcast(t *testing.T) {
	s := broadcast.NewStatus()
	u, closeFn := newTestServer(t, s)
	defer closeFn()

	client := NewClient(u, time.Second)
	defer client.Close()

	t.Run("not initialised", func(t *testing.T) {
		_, err := client.BroadcastStatus()

		var errorInfo *status.ErrorInfo
		require.True(t, errors.As(err, &errorInfo))
		assert.Equal(t, http.StatusServiceUnavailable, errorInfo.StatusCode)
	})

	done := make(chan struct{})
	close(done)
	n, err := broadcast.NewNode(node.Params{
		NodeID:  "n1",
		NodeIDs: []string{"n1", "n2"},
		Emitter: &closedEmitter{done: done},
		Outbox:  nopOutbox{},
		Logger:  log.NewNopLogger(),
	}, broadcast.Default(), s)
	require.NoError(t, err)

	require.NoError(t, n.Handle(node.MessageEvent{
		Message: protocol.NewMessage("c1", "n1", &protocol.Sequence{}, protocol.Broadcast{Message: 3}),
	}))

	t.Run("status", func(t *testing.T) {
		snapshot, err := client.BroadcastStatus()
		require.NoError(t, err)
		assert.Equal(t, "n1", snapshot.NodeID)
		assert.Equal(t, []uint64{3}, snapshot.Messages)
		assert.Equal(t, map[string]int{"n2": 0}, snapshot.KnownByPeer)
	})

	t.Run("messages", func(t *testing.T) {
		messages, err := client.BroadcastMessages()
		require.NoError(t, err)
		assert.Equal(t, []uint64{3}, messages)
	})
}

func TestClient_WatchBroadcast(t *testing.T) {
	s := broadcast.NewStatus()
	u, closeFn := newTestServer(t, s)
	defer closeFn()

	client := NewClient(u, time.Second)
	defer client.Close()

	done := make(chan struct{})
	close(done)
	_, err := broadcast.NewNode(node.Params{
		NodeID:  "n1",
		NodeIDs: []string{"n1", "n2"},
		Emitter: &closedEmitter{done: done},
		Outbox:  nopOutbox{},
		Logger:  log.NewNopLogger(),
	}, broadcast.Default(), s)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	errStop := errors.New("stop")
	var snapshots []*broadcast.Snapshot
	err = client.WatchBroadcast(ctx, func(snapshot *broadcast.Snapshot) error {
		snapshots = append(snapshots, snapshot)
		return errStop
	})
	assert.Equal(t, errStop, err)

	require.Equal(t, 1, len(snapshots))
	assert.Equal(t, "n1", snapshots[0].NodeID)
}
