package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quotebook/internal/platform/config"
	"github.com/jsamuelsen/quotebook/internal/platform/logging"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	profile   string
	configDir string
	envFile   string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	o := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "quotebook",
		Short: "Keep a book of quotes, filter them by category and merge a remote collection.",
		Long: `quotebook stores short quotes tagged with a category. It shows a random
quote under the active category filter, imports and exports JSON, and merges
quotes from a remote feed whose text it has not seen yet.

Run "quotebook serve" for the HTTP API and event stream, or use the other
commands directly against the same storage.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return o.load(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&o.profile, "profile", "", "config profile, loads {config-dir}/{profile}.yaml (default $APP_ENVIRONMENT or local)")
	flags.StringVar(&o.configDir, "config-dir", "configs", "directory holding base.yaml and the profile files")
	flags.StringVar(&o.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")

	cmd.AddCommand(
		newServeCommand(o),
		newRandomCommand(o),
		newAddCommand(o),
		newListCommand(o),
		newCategoriesCommand(o),
		newFilterCommand(o),
		newImportCommand(o),
		newExportCommand(o),
		newSyncCommand(o),
		newPushCommand(o),
		newVersionCommand(),
	)

	return cmd
}

// load reads .env, loads and validates the configuration, and builds the logger.
// Variables already set in the environment win over the dotenv file.
func (o *rootOptions) load(cmd *cobra.Command) error {
	if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", o.envFile, err)
	}

	profile := o.profile
	if profile == "" {
		profile = os.Getenv("APP_ENVIRONMENT")
	}

	if profile == "" {
		profile = "local"
	}

	cfg, err := config.Load(profile, config.WithDir(o.configDir))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	o.cfg = cfg
	o.logger = logging.NewWithWriter(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	}, cmd.ErrOrStderr())
	logging.SetDefault(o.logger)

	return nil
}
