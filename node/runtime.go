package node

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/andydunstall/meshcast/pkg/log"
	"github.com/andydunstall/meshcast/pkg/protocol"
)

// Runtime runs a node, reading messages from the input and writing messages
// to the output.
//
// The runtime merges messages read from the input with events emitted by the
// node (such as ticks) into a single queue. Events are handled one at a time
// in queue order by the goroutine calling Run, so the node never handles
// events concurrently.
type Runtime struct {
	factory Factory

	config *Config

	reader *bufio.Reader
	outbox *writerOutbox

	events chan Event

	closed     *atomic.Bool
	shutdownCh chan struct{}

	registry *prometheus.Registry
	metrics  *Metrics

	logger log.Logger
}

func NewRuntime(
	factory Factory,
	in io.Reader,
	out io.Writer,
	config *Config,
	opts ...Option,
) *Runtime {
	options := options{
		logger: log.NewNopLogger(),
	}
	for _, o := range opts {
		o.apply(&options)
	}

	r := &Runtime{
		factory:    factory,
		config:     config,
		reader:     bufio.NewReader(in),
		events:     make(chan Event, config.EventBuffer),
		closed:     atomic.NewBool(false),
		shutdownCh: make(chan struct{}),
		registry:   options.registry,
		logger:     options.logger.WithSubsystem("runtime"),
	}
	r.metrics = newMetrics(func() float64 {
		return float64(len(r.events))
	})
	if r.registry != nil {
		r.metrics.Register(r.registry)
	}
	r.outbox = newWriterOutbox(out, r.metrics)
	return r
}

// Run performs the init handshake then handles events until either the
// input is exhausted (and the EOF grace period expires), the context is
// cancelled, or a fatal error occurs. Cancelling the context while waiting
// for init also returns nil.
//
// Returns nil on a clean shutdown. Any returned error is fatal.
func (r *Runtime) Run(ctx context.Context) error {
	defer r.close()

	go r.read()

	n, err := r.handshake(ctx)
	if err != nil {
		return err
	}
	if n == nil {
		r.logger.Info("runtime cancelled before init")
		return nil
	}

	var eofCh <-chan time.Time
	for {
		select {
		case e := <-r.events:
			if err := r.dispatch(n, e); err != nil {
				return err
			}

			if _, ok := e.(EndOfInputEvent); ok {
				if r.config.EOFGracePeriod == 0 {
					return r.shutdown(n)
				}
				r.logger.Debug(
					"input exhausted; waiting for grace period",
					zap.Duration("grace-period", r.config.EOFGracePeriod),
				)
				eofCh = time.After(r.config.EOFGracePeriod)
			}
		case <-eofCh:
			return r.shutdown(n)
		case <-ctx.Done():
			r.logger.Info("runtime cancelled")
			return r.shutdown(n)
		}
	}
}

// Emit queues the given event. Returns false if the runtime has shut down.
func (r *Runtime) Emit(e Event) bool {
	if r.closed.Load() {
		return false
	}

	select {
	case r.events <- e:
		return true
	case <-r.shutdownCh:
		return false
	}
}

// Done returns a channel that is closed when the runtime shuts down.
func (r *Runtime) Done() <-chan struct{} {
	return r.shutdownCh
}

// read reads messages from the input and queues them until the input is
// exhausted, an error occurs or the runtime shuts down.
func (r *Runtime) read() {
	for {
		line, err := r.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.Emit(EndOfInputEvent{})
			} else {
				r.Emit(readErrorEvent{err: err})
			}
			return
		}

		m, err := protocol.Decode(line)
		if err != nil {
			r.Emit(readErrorEvent{err: err})
			return
		}

		if !r.Emit(MessageEvent{Message: m}) {
			return
		}
	}
}

// readLine returns the next non-empty line from the input.
func (r *Runtime) readLine() ([]byte, error) {
	for {
		line, err := r.reader.ReadBytes('\n')
		r.metrics.BytesInbound.Add(float64(len(line)))

		// The final line may not be terminated with a newline.
		if len(bytes.TrimSpace(line)) > 0 {
			return line, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("read: %w", err)
		}
	}
}

func (r *Runtime) dispatch(n Node, e Event) error {
	switch e := e.(type) {
	case readErrorEvent:
		return e.err
	case MessageEvent:
		payload := e.Message.Body.Payload
		r.metrics.MessagesInbound.WithLabelValues(string(payload.Type())).Inc()

		switch payload.(type) {
		case protocol.Init:
			return &ProtocolError{Reason: "duplicate init"}
		case protocol.InitOk:
			return &ProtocolError{
				Reason: fmt.Sprintf("unexpected init_ok from %s", e.Message.Src),
			}
		}
	case EndOfInputEvent:
		r.logger.Info("input exhausted")
	}

	kind := eventKind(e)
	start := time.Now()
	if err := n.Handle(e); err != nil {
		return &HandlingError{Event: e, Err: err}
	}
	r.metrics.Events.WithLabelValues(kind).Inc()
	r.metrics.HandleLatency.WithLabelValues(kind).Observe(
		time.Since(start).Seconds(),
	)
	return nil
}

// shutdown stops the producers, then handles any events still queued.
func (r *Runtime) shutdown(n Node) error {
	r.close()

	for {
		select {
		case e := <-r.events:
			if err := r.dispatch(n, e); err != nil {
				return err
			}
		default:
			r.logger.Info("runtime shut down")
			return nil
		}
	}
}

func (r *Runtime) close() {
	if !r.closed.CompareAndSwap(false, true) {
		// Already closed.
		return
	}
	close(r.shutdownCh)
}

var _ Emitter = &Runtime{}

type options struct {
	registry *prometheus.Registry
	logger   log.Logger
}

type Option interface {
	apply(*options)
}

type registryOption struct {
	Registry *prometheus.Registry
}

func (o registryOption) apply(opts *options) {
	opts.registry = o.Registry
}

// WithRegistry registers runtime and node metrics with the given registry.
func WithRegistry(registry *prometheus.Registry) Option {
	return registryOption{Registry: registry}
}

type loggerOption struct {
	Logger log.Logger
}

func (o loggerOption) apply(opts *options) {
	opts.logger = o.Logger
}

// WithLogger configures the logger. Defaults to no output.
func WithLogger(logger log.Logger) Option {
	return loggerOption{Logger: logger}
}
