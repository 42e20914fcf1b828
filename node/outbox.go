package node

import (
	"fmt"
	"io"
	"sync"

	"github.com/andydunstall/meshcast/pkg/protocol"
)

// writerOutbox writes encoded messages to the underlying writer. Each message
// is written with a single Write call while holding the lock so lines never
// interleave.
type writerOutbox struct {
	w io.Writer

	// mu protects writes to w.
	mu sync.Mutex

	metrics *Metrics
}

func newWriterOutbox(w io.Writer, metrics *Metrics) *writerOutbox {
	return &writerOutbox{
		w:       w,
		metrics: metrics,
	}
}

func (o *writerOutbox) Send(m protocol.Message) error {
	b, err := protocol.Encode(m)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if _, err := o.w.Write(b); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	o.metrics.MessagesOutbound.WithLabelValues(
		string(m.Body.Payload.Type()),
	).Inc()
	o.metrics.BytesOutbound.Add(float64(len(b)))

	return nil
}

var _ Outbox = &writerOutbox{}
