package echo

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andydunstall/meshcast/admin"
	"github.com/andydunstall/meshcast/cli/runner"
	"github.com/andydunstall/meshcast/echo"
	"github.com/andydunstall/meshcast/node"
	"github.com/andydunstall/meshcast/pkg/log"
)

type Config struct {
	Runtime node.Config `json:"runtime" yaml:"runtime"`

	Admin admin.Config `json:"admin" yaml:"admin"`

	Log log.Config `json:"log" yaml:"log"`
}

func (c *Config) Validate() error {
	if err := c.Runtime.Validate(); err != nil {
		return fmt.Errorf("runtime: %w", err)
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
		Use:   "echo",
		Short: "run an echo node",
		Long: `Run an echo node.

The node replies to each 'echo' request with an 'echo_ok' containing the same
content.

Examples:
  meshcast echo
`,
	}

	conf := Config{
		Runtime: *node.Default(),
	}

	var configFile runner.ConfigFile
	configFile.RegisterFlags(cmd.Flags())

	conf.Runtime.RegisterFlags(cmd.Flags())
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

		logger.Info("starting echo node", zap.Any("conf", conf))

		if err := runner.Run(runner.Options{
			Factory:  echo.NewNode,
			Runtime:  &conf.Runtime,
			Admin:    &conf.Admin,
			Registry: prometheus.NewRegistry(),
		}, logger); err != nil {
			logger.Error("failed to run echo node", zap.Error(err))
			os.Exit(1)
		}
	}

	return cmd
}
