package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/studybuddy/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the study backend HTTP API",
	Long:  "Serve the AI study operations over HTTP so other StudyBuddy clients can use --gateway http.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		log, err := newLogger(cfg, false)
		if err != nil {
			return fmt.Errorf("init logging: %w", err)
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		backend, err := openBackend(ctx, cfg)
		if err != nil {
			return err
		}
		defer backend.Close()

		gw, err := newLLMGateway(ctx, cfg, backend.Events, log)
		if err != nil {
			return fmt.Errorf("serve needs an LLM provider: %w", err)
		}
		log.Info("serving", zap.String("addr", cfg.Server.Addr))
		return server.New(gw, log.Named("server")).ListenAndServe(ctx, cfg.Server.Addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from config, 127.0.0.1:5000)")
}
