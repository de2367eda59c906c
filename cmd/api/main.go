package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jaekwang-park/task-api/internal/config"
)

var rootCmd = &cobra.Command{
	Use:           "task-api",
	Short:         "Task management API server",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func main() {
	// Initial logger at info level; reconfigured after config load
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	rootCmd.AddCommand(serveCmd, migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig loads and validates configuration and installs the leveled logger.
func loadConfig() (config.Config, *slog.Logger, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.ParseLogLevel(),
	}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}
