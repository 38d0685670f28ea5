package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/studybuddy/internal/app"
)

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// The TUI owns the terminal, so logs go to a file.
	log, err := newLogger(cfg, true)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer log.Sync()

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	log.Info("starting",
		zap.String("store", cfg.Store.Backend),
		zap.String("gateway", cfg.Gateway.Mode),
	)

	return app.Run(app.Options{
		Gateway:   newGateway(ctx, cfg, backend.Events, log),
		History:   backend.History,
		ExportDir: cfg.ExportDir,
		Logger:    log,
	})
}
