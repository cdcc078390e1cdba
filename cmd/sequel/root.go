package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/mitranim/sequel"
	_ "github.com/mitranim/sequel/driver/all"
	"github.com/mitranim/sequel/internal/cli"
)

var (
	// Global state set during PersistentPreRunE
	cfg        *cli.Config
	configPath string
	logger     *slog.Logger

	// Persistent flags
	cfgFile string
	dbName  string
	verbose int
)

var rootCmd = &cobra.Command{
	Use:   "sequel",
	Short: "Executable SQL statements over pooled connections",
	Long: `sequel - executable SQL statements over pooled connections

Runs statements against the databases configured in sequel.yaml and reports
connection pool saturation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		logger = cli.NewLogger(cmd.ErrOrStderr(), verbose)

		var err error
		cfg, configPath, err = cli.LoadConfig(cfgFile)
		if err != nil {
			return cli.ConfigError("loading configuration", err)
		}
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

const (
	groupQuery   = "query"
	groupUtility = "utility"
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: auto-discover sequel.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbName, "db", "", "name of the configured database (default: the only one)")
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase verbosity (can be repeated)")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupQuery, Title: "Query:"},
		&cobra.Group{ID: groupUtility, Title: "Utility:"},
	)

	queryCmd.GroupID = groupQuery
	selectCmd.GroupID = groupQuery
	indexesCmd.GroupID = groupQuery
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(indexesCmd)

	probeCmd.GroupID = groupUtility
	configCmd.GroupID = groupUtility
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(configCmd)
}

// Execute runs the root command.
func Execute() {
	os.Exit(cli.ExitCode(os.Stderr, rootCmd.Execute()))
}

// openDB opens the database selected by --db, with the configured metrics.
func openDB(ctx context.Context) (*sequel.DB, error) {
	name, conf, err := cfg.DatabaseConfig(dbName)
	if err != nil {
		return nil, cli.ConfigError("selecting database", err)
	}

	mets, err := cfg.MetricsBackend()
	if err != nil {
		return nil, cli.ConfigError("configuring metrics", err)
	}

	db, err := sequel.Open(ctx, conf,
		sequel.WithName(name),
		sequel.WithLogger(logger),
		sequel.WithMetrics(mets),
	)
	if errors.Is(err, sequel.ErrConfig) || errors.Is(err, sequel.ErrUnknownScheme) {
		return nil, cli.ConfigError("opening database", err)
	}
	if err != nil {
		return nil, cli.DBConnectError("connecting to database", err)
	}
	return db, nil
}

func closeDB(db *sequel.DB) {
	if err := db.Close(); err != nil {
		logger.Warn("closing database", slog.Any("error", err))
	}
}

// printYAML writes any value as YAML.
func printYAML(w io.Writer, val any) error {
	out, err := yaml.Marshal(val)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, string(out))
	return err
}
