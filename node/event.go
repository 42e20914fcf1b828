package node

import (
	"time"

	"github.com/andydunstall/meshcast/pkg/protocol"
)

// Event is an input to a node. Events are delivered to the node one at a
// time, in the order they were queued.
type Event interface {
	event()
}

// MessageEvent contains a message read from the input.
type MessageEvent struct {
	Message protocol.Message
}

// TickEvent is emitted periodically by a ticker the node schedules.
type TickEvent struct {
	At time.Time
}

// EndOfInputEvent indicates the input has been exhausted. No more
// MessageEvents will follow.
type EndOfInputEvent struct{}

// readErrorEvent carries a fatal input error through the event queue, so
// it is ordered after all messages read before it. It never reaches the node.
type readErrorEvent struct {
	err error
}

func (MessageEvent) event()    {}
func (TickEvent) event()       {}
func (EndOfInputEvent) event() {}
func (readErrorEvent) event()  {}

func eventKind(e Event) string {
	switch e.(type) {
	case MessageEvent:
		return "message"
	case TickEvent:
		return "tick"
	case EndOfInputEvent:
		return "end_of_input"
	default:
		return "unknown"
	}
}

// Emitter injects events into the runtime event queue.
type Emitter interface {
	// Emit queues the event, blocking while the queue is full. Returns false
	// if the runtime has shut down and the event was discarded.
	//
	// Emit must not be called from Node.Handle, since the queue is only
	// drained by the goroutine calling Handle.
	Emit(e Event) bool

	// Done is closed when the runtime shuts down. Background tasks using the
	// emitter should exit once closed.
	Done() <-chan struct{}
}
