package runner

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	rungroup "github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/andydunstall/meshcast/admin"
	"github.com/andydunstall/meshcast/node"
	"github.com/andydunstall/meshcast/pkg/log"
	"github.com/andydunstall/meshcast/pkg/status"
)

const adminShutdownTimeout = time.Second * 5

// Options configures the node to run.
type Options struct {
	Factory node.Factory

	Runtime *node.Config
	Admin   *admin.Config

	// Registry contains the node metrics exposed by the admin server.
	Registry *prometheus.Registry

	// Statuses contains status handlers to register with the admin server,
	// keyed by route.
	Statuses map[string]status.Handler
}

// Run runs the node on stdin and stdout until the input is exhausted, a
// shutdown signal is received or a fatal error occurs.
func Run(opts Options, logger log.Logger) error {
	return run(os.Stdin, os.Stdout, opts, logger)
}

func run(in io.Reader, out io.Writer, opts Options, logger log.Logger) error {
	runtime := node.NewRuntime(
		opts.Factory,
		in,
		out,
		opts.Runtime,
		node.WithRegistry(opts.Registry),
		node.WithLogger(logger),
	)

	var group rungroup.Group

	// Termination handler.
	signalCtx, signalCancel := context.WithCancel(context.Background())
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	group.Add(func() error {
		select {
		case sig := <-signalCh:
			logger.Info(
				"received shutdown signal",
				zap.String("signal", sig.String()),
			)
			return nil
		case <-signalCtx.Done():
			return nil
		}
	}, func(error) {
		signal.Stop(signalCh)
		signalCancel()
	})

	// Node runtime.
	runtimeCtx, runtimeCancel := context.WithCancel(context.Background())
	group.Add(func() error {
		if err := runtime.Run(runtimeCtx); err != nil {
			return fmt.Errorf("runtime: %w", err)
		}
		return nil
	}, func(error) {
		runtimeCancel()
	})

	// Admin server.
	if opts.Admin != nil && opts.Admin.Enabled() {
		adminLn, err := net.Listen("tcp", opts.Admin.BindAddr)
		if err != nil {
			return fmt.Errorf("admin listen: %s: %w", opts.Admin.BindAddr, err)
		}

		advertiseAddr := opts.Admin.AdvertiseAddr
		if advertiseAddr == "" {
			advertiseAddr, err = admin.AdvertiseAddrFromBindAddr(adminLn.Addr().String())
			if err != nil {
				logger.Warn("failed to resolve admin advertise addr", zap.Error(err))
				advertiseAddr = adminLn.Addr().String()
			}
		}
		logger.Info(
			"admin server listening",
			zap.String("advertise-addr", advertiseAddr),
		)

		adminServer := admin.NewServer(opts.Registry, logger)
		for route, handler := range opts.Statuses {
			adminServer.AddStatus(route, handler)
		}

		group.Add(func() error {
			if err := adminServer.Serve(adminLn); err != nil {
				return fmt.Errorf("admin server serve: %w", err)
			}
			return nil
		}, func(error) {
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				adminShutdownTimeout,
			)
			defer cancel()

			if err := adminServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("failed to gracefully shutdown admin server", zap.Error(err))
			}

			logger.Info("admin server shut down")
		})
	}

	if err := group.Run(); err != nil {
		return err
	}

	logger.Info("shutdown complete")

	return nil
}
