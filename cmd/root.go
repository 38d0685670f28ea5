package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/studybuddy/internal/config"
	"github.com/abhisek/studybuddy/internal/gateway"
	"github.com/abhisek/studybuddy/internal/llm"
	"github.com/abhisek/studybuddy/internal/logging"
	"github.com/abhisek/studybuddy/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "studybuddy",
	Short: "AI study assistant for the terminal",
	Long:  "StudyBuddy turns a syllabus into quizzes, study plans and notes, with a study coach and a concentration timer.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to config file (default <config dir>/studybuddy/config.yaml)")
	pf.String("db", "", "Path to SQLite database file (overrides STUDYBUDDY_DB)")
	pf.String("store", "", "History backend: sqlite, redis or memory")
	pf.Bool("ephemeral", false, "Keep history in memory only (same as --store memory)")
	pf.String("backend-url", "", "Study backend URL for the http gateway")
	pf.String("gateway", "", "Where AI requests go: llm (in-process) or http (remote backend)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reportsCmd)
	rootCmd.AddCommand(notesCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file and environment, then applies flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		p, err := config.DefaultPath()
		if err == nil {
			path = p
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	if v, _ := cmd.Flags().GetString("db"); v != "" {
		cfg.Store.SQLitePath = v
	}
	if v, _ := cmd.Flags().GetString("store"); v != "" {
		cfg.Store.Backend = v
	}
	if v, _ := cmd.Flags().GetBool("ephemeral"); v {
		cfg.Store.Backend = store.BackendMemory
	}
	if v, _ := cmd.Flags().GetString("backend-url"); v != "" {
		cfg.Gateway.BaseURL = v
	}
	if v, _ := cmd.Flags().GetString("gateway"); v != "" {
		cfg.Gateway.Mode = v
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Store.Backend == store.BackendSQLite {
		if err := store.EnsureDir(cfg.Store.SQLitePath); err != nil {
			return cfg, fmt.Errorf("create data dir: %w", err)
		}
	}
	return cfg, nil
}

// openBackend opens the configured history backend.
func openBackend(ctx context.Context, cfg config.Config) (*store.Backend, error) {
	b, err := store.OpenBackend(ctx, cfg.BackendOptions())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return b, nil
}

// newGateway builds the gateway the config asks for. In llm mode a missing
// provider falls back to the http backend so the app stays usable.
func newGateway(ctx context.Context, cfg config.Config, events store.EventRepo, log *zap.Logger) gateway.Gateway {
	remote := gateway.NewHTTPClient(cfg.Gateway.BaseURL, cfg.GatewayTimeout(), log.Named("gateway"))
	if cfg.Gateway.Mode == config.GatewayHTTP {
		return remote
	}

	gw, err := newLLMGateway(ctx, cfg, events, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "LLM provider not configured:", err)
		fmt.Fprintln(os.Stderr, "Using the study backend at", cfg.Gateway.BaseURL)
		log.Warn("llm provider unavailable, using http gateway", zap.Error(err))
		return remote
	}
	return gw
}

// newLLMGateway answers requests in-process with the configured provider.
func newLLMGateway(ctx context.Context, cfg config.Config, events store.EventRepo, log *zap.Logger) (*gateway.LLMGateway, error) {
	provider, err := llm.NewProvider(ctx, cfg.LLMConfig(os.Getenv), events, log.Named("llm"))
	if err != nil {
		return nil, err
	}
	return gateway.NewLLMGateway(provider, log.Named("gateway")), nil
}

func newLogger(cfg config.Config, toFile bool) (*zap.Logger, error) {
	opts := logging.Options{Mode: cfg.Log.Mode, Level: cfg.Log.Level}
	if toFile {
		opts.File = cfg.Log.File
	}
	return logging.New(opts)
}
