package broadcast

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andydunstall/meshcast/pkg/protocol"
)

func newStatusRouter(s *Status) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	s.Register(router.Group("/status").Group("/broadcast"))
	return router
}

func TestStatus(t *testing.T) {
	t.Run("not initialised", func(t *testing.T) {
		s := NewStatus()
		router := newStatusRouter(s)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status/broadcast", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Nil(t, s.Snapshot())
	})

	t.Run("snapshot", func(t *testing.T) {
		s := NewStatus()
		router := newStatusRouter(s)

		n, _ := newTestNode(t, "n1", members, Default(), s)
		require.NoError(t, n.Handle(request("c1", "n1", 1, protocol.Broadcast{Message: 5})))
		require.NoError(t, n.Handle(request("c1", "n1", 2, protocol.Topology{
			Topology: map[string][]string{"n1": {"n2"}},
		})))
		require.NoError(t, n.Handle(gossip("n2", "n1", 5, 6)))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status/broadcast", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var snapshot Snapshot
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
		assert.Equal(t, Snapshot{
			NodeID:     "n1",
			Neighbours: []string{"n2"},
			Messages:   []uint64{5, 6},
			KnownByPeer: map[string]int{
				"n2": 2,
				"n3": 0,
			},
		}, snapshot)

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status/broadcast/messages", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[5,6]`, w.Body.String())
	})
}

func TestStatus_Watch(t *testing.T) {
	s := NewStatus()
	s.watchInterval = time.Millisecond

	server := httptest.NewServer(newStatusRouter(s))
	defer server.Close()

	n, _ := newTestNode(t, "n1", members, Default(), s)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/status/broadcast/watch"
	wsConn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer wsConn.Close()

	var snapshot Snapshot
	require.NoError(t, wsConn.ReadJSON(&snapshot))
	assert.Equal(t, "n1", snapshot.NodeID)
	assert.Equal(t, []uint64{}, snapshot.Messages)

	// The node is only accessed from this goroutine, the watcher only reads
	// published snapshots.
	require.NoError(t, n.Handle(request("c1", "n1", 1, protocol.Broadcast{Message: 5})))

	require.NoError(t, wsConn.ReadJSON(&snapshot))
	assert.Equal(t, []uint64{5}, snapshot.Messages)
}
