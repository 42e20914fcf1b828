package status

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	yaml "github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/andydunstall/meshcast/broadcast"
	"github.com/andydunstall/meshcast/pkg/backoff"
	"github.com/andydunstall/meshcast/pkg/status"
	"github.com/andydunstall/meshcast/status/client"
	"github.com/andydunstall/meshcast/status/config"
)

func newBroadcastCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "broadcast",
		Short: "inspect broadcast node state",
		Long: `Inspect broadcast node state.

Queries the node for its ID, neighbours, known values and the number of values
it believes each peer knows.

Examples:
  meshcast status broadcast

  # Only show the known values.
  meshcast status broadcast messages

  # Print the node state each time it changes.
  meshcast status broadcast watch
`,
	}

	var conf config.Config
	conf.RegisterFlags(cmd.PersistentFlags())

	cmd.Run = func(cmd *cobra.Command, args []string) {
		if err := conf.Validate(); err != nil {
			fmt.Printf("invalid config: %s\n", err.Error())
			os.Exit(1)
		}

		showBroadcastStatus(&conf)
	}

	cmd.AddCommand(newBroadcastMessagesCommand(&conf))
	cmd.AddCommand(newBroadcastWatchCommand(&conf))

	return cmd
}

func showBroadcastStatus(conf *config.Config) {
	// The URL has already been validated in conf.
	url, _ := url.Parse(conf.Admin.URL)
	client := client.NewClient(url, conf.Admin.Timeout)
	defer client.Close()

	snapshot, err := client.BroadcastStatus()
	if err != nil {
		fmt.Printf("failed to get broadcast status: %s\n", err.Error())
		os.Exit(1)
	}

	b, _ := yaml.Marshal(snapshot)
	fmt.Println(string(b))
}

func newBroadcastMessagesCommand(conf *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "messages",
		Short: "inspect broadcast node values",
		Long: `Inspect broadcast node values.

Queries the node for the values it knows, in ascending order.

Examples:
  meshcast status broadcast messages
`,
	}

	cmd.Run = func(cmd *cobra.Command, args []string) {
		if err := conf.Validate(); err != nil {
			fmt.Printf("invalid config: %s\n", err.Error())
			os.Exit(1)
		}

		showBroadcastMessages(conf)
	}

	return cmd
}

type broadcastMessagesOutput struct {
	Messages []uint64 `json:"messages"`
}

func showBroadcastMessages(conf *config.Config) {
	// The URL has already been validated in conf.
	url, _ := url.Parse(conf.Admin.URL)
	client := client.NewClient(url, conf.Admin.Timeout)
	defer client.Close()

	messages, err := client.BroadcastMessages()
	if err != nil {
		fmt.Printf("failed to get broadcast messages: %s\n", err.Error())
		os.Exit(1)
	}

	output := broadcastMessagesOutput{
		Messages: messages,
	}
	b, _ := yaml.Marshal(output)
	fmt.Println(string(b))
}

func newBroadcastWatchCommand(conf *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "watch broadcast node state",
		Long: `Watch broadcast node state.

Streams the broadcast node state from the node, printing the state each time
it changes until interrupted.

If the connection fails, such as if the node restarts, the command reconnects
with backoff up to '--watch.retries' times.

Examples:
  meshcast status broadcast watch
`,
	}

	cmd.Flags().IntVar(
		&conf.Watch.Retries,
		"watch.retries",
		10,
		`
Maximum number of consecutive attempts to reconnect. Zero retries forever.`,
	)

	cmd.Run = func(cmd *cobra.Command, args []string) {
		if err := conf.Validate(); err != nil {
			fmt.Printf("invalid config: %s\n", err.Error())
			os.Exit(1)
		}

		watchBroadcastStatus(conf)
	}

	return cmd
}

func watchBroadcastStatus(conf *config.Config) {
	// The URL has already been validated in conf.
	url, _ := url.Parse(conf.Admin.URL)
	client := client.NewClient(url, conf.Admin.Timeout)
	defer client.Close()

	ctx, cancel := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM,
	)
	defer cancel()

	// Reconnect if the connection fails, such as if the node restarts.
	backoff := backoff.New(conf.Watch.Retries, time.Millisecond*100, time.Second*5)
	for {
		err := client.WatchBroadcast(ctx, func(snapshot *broadcast.Snapshot) error {
			backoff.Reset()

			b, _ := yaml.Marshal(snapshot)
			fmt.Println("---")
			fmt.Print(string(b))
			return nil
		})
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			err = fmt.Errorf("connection closed")
		}

		var errorInfo *status.ErrorInfo
		if errors.As(err, &errorInfo) && !errorInfo.Retryable() {
			fmt.Printf("failed to watch broadcast status: %s\n", err.Error())
			os.Exit(1)
		}

		fmt.Fprintf(os.Stderr, "watch broadcast status: %s\n", err.Error())
		if !backoff.Wait(ctx) {
			if ctx.Err() != nil {
				return
			}
			fmt.Printf("failed to watch broadcast status: %s\n", err.Error())
			os.Exit(1)
		}
	}
}
