package cli

import (
	"github.com/spf13/cobra"

	"github.com/andydunstall/meshcast/cli/broadcast"
	"github.com/andydunstall/meshcast/cli/echo"
	"github.com/andydunstall/meshcast/cli/status"
	"github.com/andydunstall/meshcast/cli/uniqueid"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "meshcast [command] (flags)",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Long: `Meshcast runs nodes in a Maelstrom cluster.

Each node reads messages from stdin and writes messages to stdout, one JSON
message per line. The first message is always 'init', which assigns the node
its ID and lists the IDs of every node in the cluster.

The broadcast node replicates a set of values across the cluster by gossiping
with its neighbours:

  $ meshcast broadcast

Meshcast also includes 'echo' and 'unique-ids' nodes:

  $ meshcast echo
  $ meshcast unique-ids

Nodes may expose an admin server with metrics and a status API, which can be
inspected with:

  $ meshcast status
`,
	}

	cmd.AddCommand(broadcast.NewCommand())
	cmd.AddCommand(echo.NewCommand())
	cmd.AddCommand(uniqueid.NewCommand())
	cmd.AddCommand(status.NewCommand())

	return cmd
}

func init() {
	cobra.EnableCommandSorting = false
}
