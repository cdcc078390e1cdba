package main

import (
	"github.com/spf13/cobra"

	"github.com/mitranim/sequel/internal/cli"
	"github.com/mitranim/sequel/stmt"
)

var indexesCmd = &cobra.Command{
	Use:     "indexes <table>",
	Short:   "List the indexes of a table",
	Example: `  sequel indexes users`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer closeDB(db)

		rows, err := db.Define(stmt.Schema{Name: args[0]}).Indexes().All(ctx)
		if err != nil {
			return cli.QueryError("listing indexes", err)
		}
		return printYAML(cmd.OutOrStdout(), rows)
	},
}
