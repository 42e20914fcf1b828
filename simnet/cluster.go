package simnet

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/andydunstall/meshcast/node"
	"github.com/andydunstall/meshcast/pkg/log"
	"github.com/andydunstall/meshcast/pkg/protocol"
)

const (
	// clientID is the ID of the client sending requests to the cluster.
	clientID = "c1"

	// inboxSize is the number of messages buffered for each node before
	// routing blocks.
	inboxSize = 4096
)

// Cluster runs a set of nodes in-process, connecting the input and output of
// each node runtime to a router.
//
// The router delivers messages between nodes, optionally dropping a fraction
// of them, and delivers replies to the cluster client.
type Cluster struct {
	nodes map[string]*clusterNode

	seq   protocol.Sequence
	seqMu sync.Mutex

	pending   map[uint64]chan protocol.Message
	pendingMu sync.Mutex

	rand   *rand.Rand
	randMu sync.Mutex

	delivered *atomic.Int64
	dropped   *atomic.Int64

	group  *errgroup.Group
	cancel func()

	closeCh   chan struct{}
	closeOnce sync.Once

	options options
	logger  log.Logger
}

type clusterNode struct {
	id string

	inReader  *io.PipeReader
	inWriter  *io.PipeWriter
	outReader *io.PipeReader
	outWriter *io.PipeWriter

	// inbox queues lines to write to the node input.
	inbox chan []byte

	runtime *node.Runtime
}

// NewCluster creates a cluster of nodes with the given IDs, where each node
// is created by factory.
func NewCluster(nodeIDs []string, factory node.Factory, opts ...Option) *Cluster {
	options := options{
		runtime: node.Default(),
		seed:    1,
		logger:  log.NewNopLogger(),
	}
	for _, o := range opts {
		o.apply(&options)
	}

	c := &Cluster{
		nodes:     make(map[string]*clusterNode),
		pending:   make(map[uint64]chan protocol.Message),
		rand:      rand.New(rand.NewSource(options.seed)),
		delivered: atomic.NewInt64(0),
		dropped:   atomic.NewInt64(0),
		closeCh:   make(chan struct{}),
		options:   options,
		logger:    options.logger.WithSubsystem("simnet"),
	}
	for _, id := range nodeIDs {
		inReader, inWriter := io.Pipe()
		outReader, outWriter := io.Pipe()
		c.nodes[id] = &clusterNode{
			id:        id,
			inReader:  inReader,
			inWriter:  inWriter,
			outReader: outReader,
			outWriter: outWriter,
			inbox:     make(chan []byte, inboxSize),
			runtime: node.NewRuntime(
				factory,
				inReader,
				outWriter,
				options.runtime,
				node.WithLogger(options.logger.With(zap.String("node-id", id))),
			),
		}
	}
	return c
}

// Start runs each node and initialises it with its ID and the cluster
// membership. Blocks until every node has replied to init.
func (c *Cluster) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	group, groupCtx := errgroup.WithContext(runCtx)
	c.group = group
	c.cancel = cancel

	for _, n := range c.nodes {
		n := n

		group.Go(func() error {
			defer n.outWriter.Close()
			// Fail any pending writes once the node exits.
			defer n.inReader.Close()

			if err := n.runtime.Run(groupCtx); err != nil {
				return fmt.Errorf("node %s: %w", n.id, err)
			}
			return nil
		})
		group.Go(func() error {
			return c.writeLoop(groupCtx, n)
		})
		group.Go(func() error {
			return c.routeLoop(n)
		})
	}

	nodeIDs := c.NodeIDs()
	for _, id := range nodeIDs {
		reply, err := c.Request(ctx, id, protocol.Init{
			NodeID:  id,
			NodeIDs: nodeIDs,
		})
		if err != nil {
			return fmt.Errorf("init: %s: %w", id, err)
		}
		if _, ok := reply.Body.Payload.(protocol.InitOk); !ok {
			return fmt.Errorf("init: %s: unexpected reply: %s", id, reply.Body.Payload.Type())
		}
	}
	return nil
}

// Request sends a request from the cluster client to the given node and
// waits for the reply.
func (c *Cluster) Request(
	ctx context.Context,
	dest string,
	payload protocol.Payload,
) (protocol.Message, error) {
	n, ok := c.nodes[dest]
	if !ok {
		return protocol.Message{}, fmt.Errorf("unknown node: %s", dest)
	}

	c.seqMu.Lock()
	m := protocol.NewMessage(clientID, dest, &c.seq, payload)
	c.seqMu.Unlock()

	replyCh := make(chan protocol.Message, 1)
	c.pendingMu.Lock()
	c.pending[*m.Body.MsgID] = replyCh
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, *m.Body.MsgID)
		c.pendingMu.Unlock()
	}()

	b, err := protocol.Encode(m)
	if err != nil {
		return protocol.Message{}, err
	}

	select {
	case n.inbox <- b:
	case <-c.closeCh:
		return protocol.Message{}, fmt.Errorf("cluster closed")
	case <-ctx.Done():
		return protocol.Message{}, ctx.Err()
	}

	select {
	case reply := <-replyCh:
		return reply, nil
	case <-ctx.Done():
		return protocol.Message{}, ctx.Err()
	}
}

// NodeIDs returns the IDs of the nodes in the cluster in ascending order.
func (c *Cluster) NodeIDs() []string {
	ids := make([]string, 0, len(c.nodes))
	for id := range c.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Delivered returns the number of messages delivered between nodes.
func (c *Cluster) Delivered() int64 {
	return c.delivered.Load()
}

// Dropped returns the number of messages between nodes that were dropped.
func (c *Cluster) Dropped() int64 {
	return c.dropped.Load()
}

// Close closes the input of each node and waits for the nodes to exit.
// Returns the first node error.
//
// Requests must not be sent once the cluster is closed.
func (c *Cluster) Close() error {
	c.closeOnce.Do(func() {
		close(c.closeCh)
	})
	if c.group == nil {
		return nil
	}
	err := c.group.Wait()
	c.cancel()
	return err
}

// writeLoop writes queued lines to the node input. Once the cluster is
// closed, the remaining queued lines are written then the input is closed so
// the node reads EOF.
func (c *Cluster) writeLoop(ctx context.Context, n *clusterNode) error {
	defer n.inWriter.Close()

	for {
		select {
		case b := <-n.inbox:
			if _, err := n.inWriter.Write(b); err != nil {
				// The node has exited.
				return nil
			}
		case <-c.closeCh:
			for {
				select {
				case b := <-n.inbox:
					if _, err := n.inWriter.Write(b); err != nil {
						return nil
					}
				default:
					return nil
				}
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// routeLoop reads messages from the node output and routes them to their
// destination until the output is closed.
func (c *Cluster) routeLoop(n *clusterNode) error {
	reader := bufio.NewReader(n.outReader)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			// The node output is closed when the node exits.
			return nil
		}

		m, err := protocol.Decode(line)
		if err != nil {
			return fmt.Errorf("node %s: %w", n.id, err)
		}

		if m.Dest == clientID {
			c.deliverToClient(m)
			continue
		}

		dest, ok := c.nodes[m.Dest]
		if !ok {
			c.logger.Warn(
				"message to unknown node",
				zap.String("src", m.Src),
				zap.String("dest", m.Dest),
			)
			continue
		}
		if c.drop() {
			c.dropped.Inc()
			continue
		}

		// Routing must not block on a slow node, otherwise two nodes sending
		// to each other could deadlock.
		select {
		case dest.inbox <- line:
			c.delivered.Inc()
		default:
			c.logger.Warn(
				"node inbox full; dropping message",
				zap.String("dest", m.Dest),
			)
			c.dropped.Inc()
		}
	}
}

func (c *Cluster) deliverToClient(m protocol.Message) {
	if m.Body.InReplyTo == nil {
		c.logger.Warn("client message not a reply", zap.String("src", m.Src))
		return
	}

	c.pendingMu.Lock()
	replyCh, ok := c.pending[*m.Body.InReplyTo]
	c.pendingMu.Unlock()

	if !ok {
		c.logger.Warn(
			"reply to unknown request",
			zap.String("src", m.Src),
			zap.Uint64("in-reply-to", *m.Body.InReplyTo),
		)
		return
	}

	select {
	case replyCh <- m:
	default:
		c.logger.Warn(
			"duplicate reply",
			zap.String("src", m.Src),
			zap.Uint64("in-reply-to", *m.Body.InReplyTo),
		)
	}
}

func (c *Cluster) drop() bool {
	if c.options.dropRate <= 0 {
		return false
	}

	c.randMu.Lock()
	defer c.randMu.Unlock()

	return c.rand.Float64() < c.options.dropRate
}
