package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/briculinos/voyana/internal/config"
)

var (
	configFile string

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "voyana",
	Short: "Voyana - AI travel planning service",
	Long: `Voyana turns a free-text travel request into three complete,
budget-differentiated itineraries by combining LLM intent extraction
with live flight and lodging search.`,
	PersistentPreRunE: setup,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Execute runs the root command with signal handling.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

// setup loads configuration and installs the process logger before any
// command runs. Commands that must work without a config file skip loading.
func setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "init" {
		return nil
	}

	loaded, err := config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}
	cfg = loaded
	logger = newLogger(cfg.Logging)
	slog.SetDefault(logger)
	return nil
}

func newLogger(lc config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if lc.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "voyana.yaml"
	}
	return fmt.Sprintf("%s/.voyana/config.yaml", home)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", defaultConfigPath(), "Path to configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
