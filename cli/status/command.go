package status

import "github.com/spf13/cobra"

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "inspect node status",
		Long: `Inspect node status.

A node started with '--admin.bind-addr' exposes a status API to inspect the
state of the node, this can be used to answer questions such as:
* What values does this broadcast node know?
* Which neighbours does the node gossip with?
* How many values does the node believe each peer knows?

See 'status --help' for the available commands.

Examples:
  # Inspect the state of the broadcast node.
  meshcast status broadcast

  # Inspect the state of the broadcast node with admin address
  # 10.26.104.56:8081.
  meshcast status broadcast --admin.url http://10.26.104.56:8081
`,
	}

	cmd.AddCommand(newBroadcastCommand())

	return cmd
}
