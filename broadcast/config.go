package broadcast

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

type Config struct {
	// Interval is the duration between gossip rounds.
	Interval time.Duration `json:"interval" yaml:"interval"`

	// Optimistic marks values as known by a neighbour as soon as they are
	// gossiped to it, rather than only once the neighbour gossips them back.
	Optimistic bool `json:"optimistic" yaml:"optimistic"`
}

func Default() *Config {
	return &Config{
		Interval:   time.Millisecond * 300,
		Optimistic: false,
	}
}

func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("missing interval")
	}
	return nil
}

func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.DurationVar(
		&c.Interval,
		"broadcast.interval",
		c.Interval,
		`
The interval to gossip with neighbours.

Each interval the node sends each neighbour the values it believes the
neighbour is missing. A lower interval reduces the time for values to
propagate across the cluster but sends more messages.`,
	)
	fs.BoolVar(
		&c.Optimistic,
		"broadcast.optimistic",
		c.Optimistic,
		`
Whether to assume neighbours receive the values gossiped to them.

By default a node only learns a neighbour has a value when the neighbour
gossips that value back, so values are resent every interval until then.
Enabling optimistic mode sends each value to each neighbour once, which
reduces traffic but relies on the network not dropping gossip.`,
	)
}
