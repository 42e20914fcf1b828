package simnet

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andydunstall/meshcast/broadcast"
	"github.com/andydunstall/meshcast/echo"
	"github.com/andydunstall/meshcast/pkg/protocol"
	"github.com/andydunstall/meshcast/uniqueid"
)

func nodeIDs(n int) []string {
	var ids []string
	for i := 0; i != n; i++ {
		ids = append(ids, fmt.Sprintf("n%d", i+1))
	}
	return ids
}

// lineTopology connects each node to the previous and next node.
func lineTopology(ids []string) map[string][]string {
	topology := make(map[string][]string)
	for i, id := range ids {
		neighbours := []string{}
		if i > 0 {
			neighbours = append(neighbours, ids[i-1])
		}
		if i < len(ids)-1 {
			neighbours = append(neighbours, ids[i+1])
		}
		topology[id] = neighbours
	}
	return topology
}

func read(ctx context.Context, c *Cluster, id string) ([]uint64, error) {
	reply, err := c.Request(ctx, id, protocol.Read{})
	if err != nil {
		return nil, err
	}
	readOk, ok := reply.Body.Payload.(protocol.ReadOk)
	if !ok {
		return nil, fmt.Errorf("unexpected reply: %s", reply.Body.Payload.Type())
	}
	return readOk.Messages, nil
}

func startBroadcastCluster(t *testing.T, n int, conf *broadcast.Config, opts ...Option) (*Cluster, []string) {
	ids := nodeIDs(n)
	c := NewCluster(ids, broadcast.NewFactory(conf, nil), opts...)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	require.NoError(t, c.Start(ctx))

	topology := lineTopology(ids)
	for _, id := range ids {
		reply, err := c.Request(ctx, id, protocol.Topology{Topology: topology})
		require.NoError(t, err)
		assert.Equal(t, protocol.TopologyOk{}, reply.Body.Payload)
	}
	return c, ids
}

func TestCluster_Broadcast(t *testing.T) {
	t.Run("converges", func(t *testing.T) {
		conf := broadcast.Default()
		conf.Interval = time.Millisecond * 10

		c, ids := startBroadcastCluster(t, 5, conf)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		var expected []uint64
		for i, id := range ids {
			v := uint64(i * 10)
			reply, err := c.Request(ctx, id, protocol.Broadcast{Message: v})
			require.NoError(t, err)
			assert.Equal(t, protocol.BroadcastOk{}, reply.Body.Payload)
			expected = append(expected, v)
		}
		sort.Slice(expected, func(i, j int) bool {
			return expected[i] < expected[j]
		})

		for _, id := range ids {
			assert.Eventually(t, func() bool {
				messages, err := read(ctx, c, id)
				return err == nil && assert.ObjectsAreEqual(expected, messages)
			}, time.Second*5, time.Millisecond*10, "node %s did not converge", id)
		}

		assert.NoError(t, c.Close())
	})

	t.Run("converges with dropped messages", func(t *testing.T) {
		conf := broadcast.Default()
		conf.Interval = time.Millisecond * 10

		c, ids := startBroadcastCluster(t, 5, conf, WithDropRate(0.3), WithSeed(42))

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		// Broadcast to the nodes at either end of the line.
		_, err := c.Request(ctx, ids[0], protocol.Broadcast{Message: 1})
		require.NoError(t, err)
		_, err = c.Request(ctx, ids[len(ids)-1], protocol.Broadcast{Message: 2})
		require.NoError(t, err)

		for _, id := range ids {
			assert.Eventually(t, func() bool {
				messages, err := read(ctx, c, id)
				return err == nil && assert.ObjectsAreEqual([]uint64{1, 2}, messages)
			}, time.Second*5, time.Millisecond*10, "node %s did not converge", id)
		}

		assert.Greater(t, c.Dropped(), int64(0))
		assert.NoError(t, c.Close())
	})

	t.Run("topology missing node is fatal", func(t *testing.T) {
		ids := nodeIDs(2)
		c := NewCluster(ids, broadcast.NewFactory(broadcast.Default(), nil))

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()

		require.NoError(t, c.Start(ctx))

		// n1 exits without replying.
		shortCtx, shortCancel := context.WithTimeout(ctx, time.Millisecond*100)
		defer shortCancel()
		_, err := c.Request(shortCtx, "n1", protocol.Topology{
			Topology: map[string][]string{"n2": {}},
		})
		assert.Error(t, err)

		var configErr *broadcast.ConfigurationError
		assert.ErrorAs(t, c.Close(), &configErr)
	})
}

func TestCluster_Echo(t *testing.T) {
	c := NewCluster(nodeIDs(1), echo.NewNode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	require.NoError(t, c.Start(ctx))

	reply, err := c.Request(ctx, "n1", protocol.Echo{Echo: "hello"})
	require.NoError(t, err)
	assert.Equal(t, protocol.EchoOk{Echo: "hello"}, reply.Body.Payload)
	assert.Equal(t, "n1", reply.Src)

	_, err = c.Request(ctx, "n9", protocol.Echo{Echo: "hello"})
	assert.Error(t, err)

	assert.NoError(t, c.Close())
}

func TestCluster_UniqueIDs(t *testing.T) {
	ids := nodeIDs(3)
	c := NewCluster(ids, uniqueid.NewFactory(uniqueid.Default()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	require.NoError(t, c.Start(ctx))

	generated := make(map[string]struct{})
	for i := 0; i != 10; i++ {
		for _, id := range ids {
			reply, err := c.Request(ctx, id, protocol.Generate{})
			require.NoError(t, err)

			generateOk, ok := reply.Body.Payload.(protocol.GenerateOk)
			require.True(t, ok)

			_, dup := generated[generateOk.ID]
			assert.False(t, dup, "duplicate id: %s", generateOk.ID)
			generated[generateOk.ID] = struct{}{}
		}
	}

	assert.NoError(t, c.Close())
}
