package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mitranim/sequel"
	"github.com/mitranim/sequel/internal/cli"
	"github.com/mitranim/sequel/stmt"
)

var (
	selectWhere  []string
	selectOrder  []string
	selectLimit  int64
	selectKey    string
	selectValue  []string
	selectNested bool
	selectFirst  bool
)

var selectCmd = &cobra.Command{
	Use:   "select <table> [columns...]",
	Short: "Select rows of a table",
	Long: `Select rows of a table and print them as YAML.

Tables declared under "tables" in sequel.yaml select their declared columns;
other tables select every column. With --key, rows are printed as a map keyed
by that column.`,
	Example: `  # Two rows of a catalog table
  sequel select information_schema.tables --limit 2

  # Rows keyed by name, each mapped to one column
  sequel select users --key id --value email

  # Filter by equality
  sequel select users --where role=admin --first

  # Newest first
  sequel select users --order "created_at desc" --limit 10`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		where, err := parseWhere(selectWhere)
		if err != nil {
			return cli.ConfigError("parsing --where", err)
		}

		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer closeDB(db)

		cols := make([]any, 0, len(args)-1)
		for _, val := range args[1:] {
			cols = append(cols, val)
		}

		schema := cfg.Table(args[0])
		order, err := stmt.ParseOrds(schema, selectOrder...)
		if err != nil {
			return cli.ConfigError("parsing --order", err)
		}

		query := db.Define(schema).Select(cols...).OrderBy(order...)
		if len(where) > 0 {
			query = query.Where(where)
		}
		if selectLimit > 0 {
			query = query.Limit(selectLimit)
		}

		var out any
		switch {
		case selectFirst:
			out, err = query.Get(ctx)
		case selectKey != "":
			out, err = query.AllObject(ctx, selectKey, mapper(selectValue), nil)
		case selectNested:
			out, err = query.ExecNested(ctx)
		default:
			out, err = query.All(ctx)
		}
		if err != nil {
			return cli.QueryError("selecting rows", err)
		}

		if proj, ok := out.(sequel.Projection); ok {
			return printYAML(cmd.OutOrStdout(), stringKeys(proj))
		}
		return printYAML(cmd.OutOrStdout(), out)
	},
}

func init() {
	f := selectCmd.Flags()
	f.StringArrayVar(&selectWhere, "where", nil, "equality condition column=value (repeatable)")
	f.StringArrayVar(&selectOrder, "order", nil, `ordering "column [asc|desc] [nulls first|last]" (repeatable)`)
	f.Int64Var(&selectLimit, "limit", 0, "maximum number of rows")
	f.StringVar(&selectKey, "key", "", "print rows as a map keyed by this column")
	f.StringSliceVar(&selectValue, "value", nil, "with --key, map each row to these columns")
	f.BoolVar(&selectNested, "nested", false, "nest columns of joined tables")
	f.BoolVar(&selectFirst, "first", false, "print only the first row")
}

func parseWhere(src []string) (map[string]any, error) {
	out := make(map[string]any, len(src))
	for _, pair := range src {
		key, val, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected column=value, got %q", pair)
		}
		out[key] = val
	}
	return out, nil
}

func mapper(cols []string) sequel.Mapper {
	switch len(cols) {
	case 0:
		return nil
	case 1:
		return sequel.Column(cols[0])
	default:
		return sequel.ColumnSet(cols)
	}
}

// YAML output requires string keys.
func stringKeys(src sequel.Projection) map[string]any {
	out := make(map[string]any, len(src))
	for key, val := range src {
		out[fmt.Sprint(key)] = val
	}
	return out
}
