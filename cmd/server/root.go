package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iudanet/notesync/internal/config"
	"github.com/iudanet/notesync/internal/logging"
)

var (
	cfgFile string
	v       = config.New()
)

var rootCmd = &cobra.Command{
	Use:           "notesync-server",
	Short:         "Document sync server",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.SetServerDefaults(v)
		return config.Read(v, cfgFile, cmd.Flags())
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "path to YAML config file")
	flags.String("database", "notesync.db", "path to sqlite database")
	flags.String("log.level", "info", "log level (debug, info, warn, error)")
	flags.String("log.file", "", "log file (rotated), stderr if empty")
}

// newLogger создает logger по текущей конфигурации
func newLogger(v *viper.Viper) (*slog.Logger, io.Closer, error) {
	var lc config.LogConfig
	if err := v.UnmarshalKey("log", &lc); err != nil {
		return nil, nil, fmt.Errorf("failed to decode log config: %w", err)
	}
	return logging.New(lc, os.Stderr)
}
