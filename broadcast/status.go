package broadcast

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/atomic"

	"github.com/andydunstall/meshcast/pkg/status"
)

// Snapshot is a point in time view of the broadcast node state.
type Snapshot struct {
	NodeID     string   `json:"node_id"`
	Neighbours []string `json:"neighbours"`
	Messages   []uint64 `json:"messages"`

	// KnownByPeer contains the number of values the node believes each peer
	// knows.
	KnownByPeer map[string]int `json:"known_by_peer"`
}

// Status exposes the state of the broadcast node to the admin server.
//
// The node publishes a new snapshot after each change, so requests never
// access the node state directly.
type Status struct {
	snapshot *atomic.Pointer[Snapshot]

	// watchInterval is the interval to check for a new snapshot when
	// streaming snapshots to watchers.
	watchInterval time.Duration

	websocketUpgrader *websocket.Upgrader
}

func NewStatus() *Status {
	return &Status{
		snapshot:          atomic.NewPointer[Snapshot](nil),
		watchInterval:     time.Millisecond * 100,
		websocketUpgrader: &websocket.Upgrader{},
	}
}

// Snapshot returns the latest snapshot, or nil if the node has not yet been
// initialised.
func (s *Status) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

func (s *Status) Register(group *gin.RouterGroup) {
	group.GET("", s.getRoute)
	group.GET("/messages", s.messagesRoute)
	group.GET("/watch", s.watchRoute)
}

func (s *Status) publish(snapshot *Snapshot) {
	s.snapshot.Store(snapshot)
}

func (s *Status) getRoute(c *gin.Context) {
	snapshot := s.snapshot.Load()
	if snapshot == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (s *Status) messagesRoute(c *gin.Context) {
	snapshot := s.snapshot.Load()
	if snapshot == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	c.JSON(http.StatusOK, snapshot.Messages)
}

// watchRoute streams each new snapshot to the client over a WebSocket
// connection, with one JSON snapshot per message.
func (s *Status) watchRoute(c *gin.Context) {
	wsConn, err := s.websocketUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade replies to the client on error.
		return
	}
	defer wsConn.Close()

	// The client never sends messages, so reading only detects the
	// connection closing.
	closedCh := make(chan struct{})
	go func() {
		defer close(closedCh)
		for {
			if _, _, err := wsConn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.watchInterval)
	defer ticker.Stop()

	var last *Snapshot
	for {
		// Snapshots are immutable so a new pointer means a new snapshot.
		if snapshot := s.snapshot.Load(); snapshot != nil && snapshot != last {
			if err := wsConn.WriteJSON(snapshot); err != nil {
				return
			}
			last = snapshot
		}

		select {
		case <-ticker.C:
		case <-closedCh:
			return
		}
	}
}

var _ status.Handler = &Status{}
