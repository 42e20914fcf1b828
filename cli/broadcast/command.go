package broadcast

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andydunstall/meshcast/broadcast"
	"github.com/andydunstall/meshcast/cli/runner"
	"github.com/andydunstall/meshcast/pkg/log"
	"github.com/andydunstall/meshcast/pkg/status"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "broadcast",
		Short: "run a broadcast node",
		Long: `Run a broadcast node.

The node reads messages from stdin and writes messages to stdout, one JSON
message per line, using the Maelstrom protocol. Logs are written to stderr.

Clients broadcast values to any node, and the nodes gossip the values to
their neighbours until every node knows every value. The neighbours of each
node are configured by the 'topology' message.

Each '--broadcast.interval' the node sends each neighbour the values it
believes the neighbour is missing. By default a value is resent until the
neighbour gossips it back, so values still propagate when messages are lost.

Examples:
  # Run a broadcast node.
  meshcast broadcast

  # Test with Maelstrom, where broadcast.sh runs 'meshcast broadcast'.
  maelstrom test -w broadcast --bin broadcast.sh --node-count 5

  # Gossip every 100ms and expose the admin server on :8081.
  meshcast broadcast --broadcast.interval 100ms --admin.bind-addr :8081

  # Load configuration from a YAML file.
  meshcast broadcast --config.path ./broadcast.yaml
`,
	}

	conf := Default()

	var configFile runner.ConfigFile
	configFile.RegisterFlags(cmd.Flags())

	// Register flags and set default values.
	conf.RegisterFlags(cmd.Flags())

	cmd.Run = func(cmd *cobra.Command, args []string) {
		if err := configFile.Load(conf); err != nil {
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

		if err := run(conf, logger); err != nil {
			logger.Error("failed to run broadcast node", zap.Error(err))
			os.Exit(1)
		}
	}

	return cmd
}

func run(conf *Config, logger log.Logger) error {
	logger.Info("starting broadcast node", zap.Any("conf", conf))

	return runner.Run(newRunnerOptions(conf), logger)
}

// newRunnerOptions builds the node runner options. Node snapshots are only
// published when the admin server is enabled to serve them.
func newRunnerOptions(conf *Config) runner.Options {
	opts := runner.Options{
		Runtime:  &conf.Runtime,
		Admin:    &conf.Admin,
		Registry: prometheus.NewRegistry(),
	}

	if !conf.Admin.Enabled() {
		opts.Factory = broadcast.NewFactory(&conf.Broadcast, nil)
		return opts
	}

	broadcastStatus := broadcast.NewStatus()
	opts.Factory = broadcast.NewFactory(&conf.Broadcast, broadcastStatus)
	opts.Statuses = map[string]status.Handler{
		"/broadcast": broadcastStatus,
	}
	return opts
}
