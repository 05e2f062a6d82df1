package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/renato0307/kubecontexts/internal/config"
	"github.com/renato0307/kubecontexts/internal/extension"
	"github.com/renato0307/kubecontexts/internal/logging"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the extension and serve frontends",
		Long: `Run the extension until interrupted.

Examples:
  # Serve on the default address
  kubecontexts serve

  # Serve on another port without the dashboard companion
  kubecontexts serve --address 127.0.0.1:9000 --dashboard=false`,
		RunE: runServe,
	}

	cmd.Flags().String("address", "", "Address to listen on")
	cmd.Flags().Bool("dashboard", true, "Load the dashboard companion")
	cmd.Flags().String("log-file", "", "Write logs to this file instead of stderr")
	cmd.Flags().String("log-level", "", "Log level: debug, info, warn, error")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return err
	}

	if err := logging.Init(loggingConfig(cfg.Log)); err != nil {
		return fmt.Errorf("error initializing logging: %w", err)
	}
	defer func() { _ = logging.Shutdown() }()
	logger := logging.Get()

	ext, err := extension.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting kubecontexts", "version", version, "kubeconfig", cfg.Kubeconfig)
	return ext.Run(ctx, nil)
}

// loggingConfig logs to the file when one is set and to stderr otherwise.
func loggingConfig(cfg config.LogConfig) logging.Config {
	return logging.Config{
		FilePath:   cfg.File,
		Stderr:     cfg.File == "",
		Level:      logging.ParseLevel(cfg.Level),
		Format:     logging.ParseFormat(cfg.Format),
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	}
}
