package main

import (
	"github.com/spf13/cobra"

	"github.com/mitranim/sequel/internal/cli"
)

var queryCmd = &cobra.Command{
	Use:   "query <sql> [args...]",
	Short: "Execute raw SQL",
	Long: `Execute raw SQL on the shared pool and print the rows as YAML.

Placeholders use the native style of the database: $1 for Postgres, ? for
MySQL and SQLite, @p1 for SQL Server. Arguments are passed as strings.`,
	Example: `  # Count tables
  sequel query 'select count(*) as n from information_schema.tables'

  # With an argument
  sequel --db reports query 'select * from events where kind = $1' signup`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer closeDB(db)

		vals := make([]any, len(args)-1)
		for i, val := range args[1:] {
			vals[i] = val
		}

		rows, err := db.Query(ctx, args[0], vals...)
		if err != nil {
			return cli.QueryError("executing query", err)
		}
		return printYAML(cmd.OutOrStdout(), rows)
	},
}
