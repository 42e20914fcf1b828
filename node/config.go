package node

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

type Config struct {
	// EventBuffer is the capacity of the event queue. Producers block while
	// the queue is full.
	EventBuffer int `json:"event_buffer" yaml:"event_buffer"`

	// EOFGracePeriod is the duration to keep handling events, such as ticks,
	// after the input is exhausted before shutting down.
	EOFGracePeriod time.Duration `json:"eof_grace_period" yaml:"eof_grace_period"`
}

func Default() *Config {
	return &Config{
		EventBuffer:    1024,
		EOFGracePeriod: 0,
	}
}

func (c *Config) Validate() error {
	if c.EventBuffer <= 0 {
		return fmt.Errorf("event buffer must be positive")
	}
	if c.EOFGracePeriod < 0 {
		return fmt.Errorf("eof grace period must not be negative")
	}
	return nil
}

func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.IntVar(
		&c.EventBuffer,
		"runtime.event-buffer",
		c.EventBuffer,
		`
The capacity of the queue of events waiting to be handled by the node.

Both the input reader and the node ticker block while the queue is full.`,
	)
	fs.DurationVar(
		&c.EOFGracePeriod,
		"runtime.eof-grace-period",
		c.EOFGracePeriod,
		`
Duration to keep running after the input is closed before exiting.

During the grace period the node keeps handling ticks, such as to finish
gossiping values to its neighbours. Once the grace period expires the runtime
stops the ticker, handles any queued events and exits.

Defaults to 0, exiting once queued events are handled. Maelstrom only closes
the node input when the test ends, so the node never stops gossiping early.`,
	)
}
