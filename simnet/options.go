package simnet

import (
	"github.com/andydunstall/meshcast/node"
	"github.com/andydunstall/meshcast/pkg/log"
)

type options struct {
	runtime  *node.Config
	dropRate float64
	seed     int64
	logger   log.Logger
}

type Option interface {
	apply(*options)
}

type dropRateOption float64

func (o dropRateOption) apply(opts *options) {
	opts.dropRate = float64(o)
}

// WithDropRate configures the fraction of messages between nodes to drop,
// from 0 to 1. Messages to and from the client are never dropped.
func WithDropRate(rate float64) Option {
	return dropRateOption(rate)
}

type seedOption int64

func (o seedOption) apply(opts *options) {
	opts.seed = int64(o)
}

// WithSeed configures the seed used to select which messages to drop.
func WithSeed(seed int64) Option {
	return seedOption(seed)
}

type runtimeConfigOption struct {
	Config *node.Config
}

func (o runtimeConfigOption) apply(opts *options) {
	opts.runtime = o.Config
}

// WithRuntimeConfig configures each node runtime.
func WithRuntimeConfig(config *node.Config) Option {
	return runtimeConfigOption{Config: config}
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
