package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bloom-go/bloom/pkg/router"
	"github.com/bloom-go/bloom/pkg/server"
)

func serveCmd(configDir *string) *cobra.Command {
	var (
		addr string
		path string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the live preview server",
		Long: `Run the demo application behind an HTTP server.

GET / shows the current page, /live streams each render over a
WebSocket, and clicks are posted back to /events.

Examples:
  bloom serve
  bloom serve --addr=:3000
  bloom serve --path=/city/paris`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, *configDir, addr, path)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from bloom.yaml)")
	cmd.Flags().StringVar(&path, "path", "/", "Initial location")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, configDir, addr, path string) error {
	p, err := loadProject(configDir, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if addr != "" {
		p.cfg.Server.Addr = addr
	}

	if path != p.app.Location().String() {
		p.app.History().Push(path)
	}
	defer p.app.Close()
	if err := p.app.Start(ctx); err != nil {
		if !errors.Is(err, router.ErrNotFound) {
			return err
		}
		p.logger.Warn("no page for initial location", "path", path)
	}

	cfg := server.Config{
		Addr:            p.cfg.Server.Addr,
		ReadTimeout:     p.cfg.ReadTimeout(),
		WriteTimeout:    p.cfg.WriteTimeout(),
		ShutdownTimeout: p.cfg.ShutdownTimeout(),
		Title:           p.title(),
		Logger:          p.logger,
	}
	if p.registry != nil {
		cfg.MetricsPath = p.cfg.Metrics.Path
		cfg.Gatherer = p.registry
	}
	srv := server.New(p.app, cfg)
	defer srv.Close()

	success(cmd, "Serving %s on %s", p.title(), cfg.Addr)
	return srv.Run(ctx)
}
