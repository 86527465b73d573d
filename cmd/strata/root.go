package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/strata"
	"github.com/aretw0/strata/internal/config"
	"github.com/aretw0/strata/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "strata",
	Short: "Strata is an incremental computation engine with what-if scenarios",
	Long: `Strata evaluates declarative models of dependent values, recomputing only what
changed, and explores alternatives in nested scenarios without touching the base values.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.StringP("model", "m", "", "Model file (env STRATA_MODEL)")
	flags.String("env-file", ".env", "Dotenv file to load before reading STRATA_* variables")
	flags.String("store", "", "Fixed value store: memory, file, redis or sqlite (env STRATA_STORE)")
	flags.String("file-dir", "", "Directory of the file store (env STRATA_FILE_DIR)")
	flags.String("sqlite-path", "", "Database path of the sqlite store (env STRATA_SQLITE_PATH)")
	flags.String("redis-addr", "", "Address of the redis store (env STRATA_REDIS_ADDR)")
	flags.String("log-level", "", "Log level: debug, info, warn or error (env STRATA_LOG_LEVEL)")
	flags.String("log-format", "", "Log format: text or json (env STRATA_LOG_FORMAT)")
}

func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, err
	}
	cfg.ApplyFlags(cmd)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger, err := logging.FromConfig(cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// openEngine builds the engine for the configured model over the configured
// store and restores its persisted values. The returned close func releases
// the store.
func openEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...strata.Option) (*strata.Engine, func() error, error) {
	if cfg.Model == "" {
		return nil, nil, fmt.Errorf("no model given (use --model or STRATA_MODEL)")
	}
	backend, err := cfg.OpenStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	opts = append(opts, strata.WithLogger(logger), strata.WithStore(backend.Store))
	if backend.Locker != nil {
		opts = append(opts, strata.WithLocker(backend.Locker))
	}
	eng, err := strata.Open(cfg.Model, opts...)
	if err != nil {
		_ = backend.Close()
		return nil, nil, err
	}
	if _, err := eng.Restore(ctx); err != nil {
		_ = backend.Close()
		return nil, nil, fmt.Errorf("failed to restore fixed values: %w", err)
	}
	return eng, backend.Close, nil
}
