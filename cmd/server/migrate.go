package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/iudanet/notesync/internal/server/storage/sqlite"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, closer, err := newLogger(v)
		if err != nil {
			return err
		}
		defer closer.Close()

		dbPath := v.GetString("database")
		store, err := sqlite.New(cmd.Context(), dbPath, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		logger.Info("migrations applied", slog.String("database", dbPath))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, versionCmd)
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "notesync server\n")
	fmt.Fprintf(w, "Version:    %s\n", Version)
	fmt.Fprintf(w, "Build Date: %s\n", BuildDate)
	fmt.Fprintf(w, "Git Commit: %s\n", GitCommit)
}
