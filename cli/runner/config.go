package runner

import (
	"github.com/spf13/pflag"

	"github.com/andydunstall/meshcast/pkg/config"
)

// ConfigFile contains the flags to load a YAML config file.
type ConfigFile struct {
	Path      string
	ExpandEnv bool
}

func (c *ConfigFile) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(
		&c.Path,
		"config.path",
		"",
		`
YAML config file path.`,
	)
	fs.BoolVar(
		&c.ExpandEnv,
		"config.expand-env",
		false,
		`
Whether to expand environment variables in the config file.

This will replaces references to ${VAR} or $VAR with the corresponding
environment variable. The replacement is case-sensitive.

References to undefined variables will be replaced with an empty string. A
default value can be given using form ${VAR:default}.`,
	)
}

// Load loads the config file into conf if a path is configured. Values in
// the file override flag defaults.
func (c *ConfigFile) Load(conf interface{}) error {
	if c.Path == "" {
		return nil
	}
	return config.Load(c.Path, conf, c.ExpandEnv)
}
