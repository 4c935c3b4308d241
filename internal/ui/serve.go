package ui

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/planboard/internal/logger"
	"github.com/javiermolinar/planboard/internal/server"
	"github.com/javiermolinar/planboard/internal/store"
)

func (a *App) serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the planboard API server",
		Long: `Serve the auth and plan API over the configured store.

Set server.secret (or PLANBOARD_SECRET) to keep sessions valid across
restarts; without it every start signs tokens with a fresh key.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if addr != "" {
				a.config.Server.Addr = addr
			}

			st, err := store.Open(a.config.Storage)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer func() { _ = st.Close() }()

			srv, err := server.New(st, a.config.Server, server.WithHistoryLimit(a.config.Planner.HistoryLimit))
			if err != nil {
				return err
			}
			logger.Info("storage", "backend", a.config.Storage.Backend)
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}
