package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/pflag"
)

type AdminConfig struct {
	// URL is the node admin server URL.
	URL string `json:"url" yaml:"url"`

	// Timeout is the timeout for each status request.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

func (c *AdminConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("missing url")
	}
	if _, err := url.Parse(c.URL); err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("missing timeout")
	}
	return nil
}

type WatchConfig struct {
	// Retries is the maximum number of consecutive attempts to reconnect
	// when watching. Zero retries forever.
	Retries int `json:"retries" yaml:"retries"`
}

func (c *WatchConfig) Validate() error {
	if c.Retries < 0 {
		return fmt.Errorf("retries must not be negative")
	}
	return nil
}

type Config struct {
	Admin AdminConfig `json:"admin" yaml:"admin"`

	Watch WatchConfig `json:"watch" yaml:"watch"`
}

func (c *Config) Validate() error {
	if err := c.Admin.Validate(); err != nil {
		return fmt.Errorf("admin: %w", err)
	}
	if err := c.Watch.Validate(); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	return nil
}

func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(
		&c.Admin.URL,
		"admin.url",
		"http://localhost:8081",
		`
Node admin server URL. The node must be started with '--admin.bind-addr'.`,
	)
	fs.DurationVar(
		&c.Admin.Timeout,
		"admin.timeout",
		time.Second*15,
		`
Timeout for each status request.`,
	)
}
