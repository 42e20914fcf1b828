package uniqueid

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andydunstall/meshcast/admin"
	"github.com/andydunstall/meshcast/cli/runner"
	"github.com/andydunstall/meshcast/node"
	"github.com/andydunstall/meshcast/pkg/log"
	"github.com/andydunstall/meshcast/uniqueid"
)

type Config struct {
	Runtime node.Config `json:"runtime" yaml:"runtime"`

	UniqueIDs uniqueid.Config `json:"unique_ids" yaml:"unique_ids"`

	Admin admin.Config `json:"admin" yaml:"admin"`

	Log log.Config `json:"log" yaml:"log"`
}

func (c *Config) Validate() error {
	if err := c.Runtime.Validate(); err != nil {
		return fmt.Errorf("runtime: %w", err)
	}
	if err := c.UniqueIDs.Validate(); err != nil {
		return fmt.Errorf("unique ids: %w", err)
	}
	if err := c.Admin.Validate(); err != nil {
		return fmt.Errorf("admin: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unique-ids",
		Short: "run a unique ID node",
		Long: `Run a unique ID node.

The node replies to each 'generate' request with a 'generate_ok' containing
an ID that is unique across the cluster, without coordinating with other
nodes.

Examples:
  # Generate IDs such as 'n1-4'.
  meshcast unique-ids

  # Generate random UUIDs.
  meshcast unique-ids --unique-ids.strategy uuid
`,
	}

	conf := Config{
		Runtime:   *node.Default(),
		UniqueIDs: *uniqueid.Default(),
	}

	var configFile runner.ConfigFile
	configFile.RegisterFlags(cmd.Flags())

	conf.Runtime.RegisterFlags(cmd.Flags())
	conf.UniqueIDs.RegisterFlags(cmd.Flags())
	conf.Admin.RegisterFlags(cmd.Flags())
	conf.Log.RegisterFlags(cmd.Flags())

	cmd.Run = func(cmd *cobra.Command, args []string) {
		if err := configFile.Load(&conf); err != nil {
			fmt.Fprintf(os.Stderr, "load config: %s\n", err.Error())
			os.Exit(1)
		}

		if err := conf.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "invalid config: %s\n", err.Error())
			os.Exit(1)
		}

		logger, err := log.NewLogger(conf.Log.Level, conf.Log.Subsystems)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to setup logger: %s\n", err.Error())
			os.Exit(1)
		}

		logger.Info("starting unique id node", zap.Any("conf", conf))

		if err := runner.Run(runner.Options{
			Factory:  uniqueid.NewFactory(&conf.UniqueIDs),
			Runtime:  &conf.Runtime,
			Admin:    &conf.Admin,
			Registry: prometheus.NewRegistry(),
		}, logger); err != nil {
			logger.Error("failed to run unique id node", zap.Error(err))
			os.Exit(1)
		}
	}

	return cmd
}
