package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/mcp-toolbox/admin"
	"github.com/felixgeelhaar/mcp-toolbox/config"
	"github.com/felixgeelhaar/mcp-toolbox/middleware"
	"github.com/felixgeelhaar/mcp-toolbox/transport"
)

type serveOptions struct {
	transport string
	port      int
	adminAddr string
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP requests until interrupted or stdin closes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("transport") {
				cfg.Transport = opts.transport
			}
			if flags.Changed("port") {
				cfg.Port = opts.port
			}
			if flags.Changed("admin-addr") {
				cfg.AdminAddr = opts.adminAddr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cmd, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.transport, "transport", config.TransportStdio, "transport: stdio, http or websocket")
	flags.IntVar(&opts.port, "port", 3000, "listen port for http and websocket")
	flags.StringVar(&opts.adminAddr, "admin-addr", "", "address of the admin server (off when empty)")
	return cmd
}

func serve(cmd *cobra.Command, cfg config.Config) error {
	a, err := newApp(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close()

	tr := newTransport(cfg, cmd.InOrStdin(), cmd.OutOrStdout(), a.logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.logger.Info("server starting",
		middleware.F("name", cfg.Name),
		middleware.F("version", cfg.Version),
		middleware.F("transport", cfg.Transport),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// The stdio transport ends on EOF; take the admin server down with it.
		defer cancel()
		return tr.Serve(gctx, a.server)
	})
	if cfg.AdminAddr != "" {
		adminSrv := admin.New(cfg.AdminAddr, a.server,
			admin.WithGatherer(a.metrics),
			admin.WithLogger(a.logger),
		)
		g.Go(func() error {
			return adminSrv.Serve(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	a.logger.Info("server stopped")
	return nil
}

func newTransport(cfg config.Config, in io.Reader, out io.Writer, logger middleware.Logger) transport.Transport {
	switch cfg.Transport {
	case config.TransportHTTP:
		return transport.NewHTTP(cfg.Addr(),
			transport.WithMaxBodyBytes(cfg.MaxRequestBytes),
			transport.WithHTTPLogger(logger),
		)
	case config.TransportWebSocket:
		return transport.NewWebSocket(cfg.Addr(),
			transport.WithWebSocketMaxMessageBytes(cfg.MaxRequestBytes),
			transport.WithWebSocketLogger(logger),
		)
	default:
		return transport.NewStdio(
			transport.WithStdin(in),
			transport.WithStdout(out),
			transport.WithStdioLogger(logger),
			transport.WithMaxLineBytes(int(cfg.MaxRequestBytes)),
		)
	}
}
