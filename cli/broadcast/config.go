package broadcast

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/andydunstall/meshcast/admin"
	"github.com/andydunstall/meshcast/broadcast"
	"github.com/andydunstall/meshcast/node"
	"github.com/andydunstall/meshcast/pkg/log"
)

type Config struct {
	Runtime node.Config `json:"runtime" yaml:"runtime"`

	Broadcast broadcast.Config `json:"broadcast" yaml:"broadcast"`

	Admin admin.Config `json:"admin" yaml:"admin"`

	Log log.Config `json:"log" yaml:"log"`
}

func Default() *Config {
	return &Config{
		Runtime:   *node.Default(),
		Broadcast: *broadcast.Default(),
	}
}

func (c *Config) Validate() error {
	if err := c.Runtime.Validate(); err != nil {
		return fmt.Errorf("runtime: %w", err)
	}
	if err := c.Broadcast.Validate(); err != nil {
		return fmt.Errorf("broadcast: %w", err)
	}
	if err := c.Admin.Validate(); err != nil {
		return fmt.Errorf("admin: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	c.Runtime.RegisterFlags(fs)
	c.Broadcast.RegisterFlags(fs)
	c.Admin.RegisterFlags(fs)
	c.Log.RegisterFlags(fs)
}
