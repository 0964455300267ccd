package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ontology/internal/config"
	"ontology/internal/logging"
	"ontology/internal/provider"
	"ontology/internal/provider/postgres"
	"ontology/internal/provider/sqlite"
)

// globalFlags override values from the config file
type globalFlags struct {
	configPath string
	addr       string
	dbPath     string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "ontology",
		Short: "Ontology API server",
		Long: `Serves the things, connections, events, knowledge and people API
over a pluggable data provider (SQLite or PostgreSQL).

Running without a subcommand starts the server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default: search $ONTOLOGY_CONFIG, ./ontology.yaml, XDG, /etc)")
	pf.StringVar(&flags.addr, "addr", "", "HTTP listen address")
	pf.StringVar(&flags.dbPath, "db", "", "SQLite database path")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(flags),
		newMigrateCmd(flags),
		newTokenCmd(flags),
		newImportCmd(flags),
		newExportCmd(flags),
		newConfigCmd(flags),
	)
	return root
}

// loadConfig reads the config file and applies flag overrides
func loadConfig(flags *globalFlags) (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if flags.configPath != "" {
		cfg, path, err = config.LoadFromPath(flags.configPath)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return nil, path, err
	}

	if flags.addr != "" {
		cfg.Server.Addr = flags.addr
	}
	if flags.dbPath != "" {
		cfg.Provider.Driver = config.DriverSQLite
		cfg.Provider.SQLite.Path = flags.dbPath
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, path, nil
}

func newLogger(cfg *config.Config) *logrus.Logger {
	return logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
}

// openProvider opens and migrates the configured provider
func openProvider(ctx context.Context, cfg *config.Config) (provider.DataProvider, error) {
	switch cfg.Provider.Driver {
	case config.DriverPostgres:
		opts := []postgres.Option{postgres.WithTimeout(cfg.Provider.Postgres.QueryTimeout.Duration())}
		if cfg.Provider.Postgres.MaxConns > 0 {
			opts = append(opts, postgres.WithMaxConns(cfg.Provider.Postgres.MaxConns))
		}
		return postgres.New(ctx, cfg.Provider.Postgres.DSN, opts...)
	default:
		return sqlite.New(cfg.Provider.SQLite.Path)
	}
}

// withProvider loads config, opens the provider and runs fn against it
func withProvider(ctx context.Context, flags *globalFlags, fn func(context.Context, provider.DataProvider, *logrus.Logger) error) error {
	cfg, _, err := loadConfig(flags)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	p, err := openProvider(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open provider: %w", err)
	}
	defer p.Close()

	return fn(ctx, p, log)
}
