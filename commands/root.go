// commands/root.go
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/gewnthar/mncovid/config"
	"github.com/gewnthar/mncovid/database"
	"github.com/spf13/cobra"
)

var (
	configPath string
	envFiles   []string
	verbose    bool

	logger   *slog.Logger
	logLevel *slog.LevelVar
	cfg      *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "mncovid",
	Short:         "mncovid scrapes the MN COVID situation page and reconciles it into a database.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			logLevel.Set(slog.LevelDebug)
		}
		if err := config.LoadEnv(envFiles...); err != nil {
			return err
		}
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		logger.Debug("configuration loaded", "config", configPath, "driver", cfg.Database.Driver, "timezone", cfg.Timezone)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "Path to the YAML config file.")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Env file(s) to load before the config (default .env when present).")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level.")
}

// ExecuteContext runs the CLI with the logger built by main. level is raised
// to debug when --verbose is given.
func ExecuteContext(ctx context.Context, l *slog.Logger, level *slog.LevelVar) {
	logger, logLevel = l, level
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("command failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore opens the configured database. Callers close it.
func openStore(ctx context.Context) (*database.Store, error) {
	store, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}
