package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iudanet/notesync/internal/config"
	"github.com/iudanet/notesync/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the sync server",
	Long: `Start the HTTP sync server.

Endpoints:
  POST /api/v1/auth/{register,login,refresh,logout}
  POST /sync/{begin,request,update}
  GET  /sync/live   (websocket, token in Authorization header or ?token=)
  GET  /health

Set nats_url (NOTESYNC_NATS_URL) to fan out live updates between several instances.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, closer, err := newLogger(v)
		if err != nil {
			return err
		}
		defer closer.Close()

		cfg, err := config.LoadServer(v)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		srv, err := server.New(ctx, cfg, logger, Version)
		if err != nil {
			return err
		}
		defer func() {
			if err := srv.Close(); err != nil {
				logger.Warn("failed to close server", slog.Any("error", err))
			}
		}()

		logger.Info("notesync server starting",
			slog.String("version", Version),
			slog.String("database", cfg.DatabasePath))

		return srv.Run(ctx)
	},
}

func init() {
	flags := serveCmd.Flags()
	flags.String("addr", ":8080", "listen address")
	flags.String("nats_url", "", "NATS server url for multi-instance live updates")
	flags.String("jwt.secret", "", "JWT signing secret")

	rootCmd.AddCommand(serveCmd)
}
