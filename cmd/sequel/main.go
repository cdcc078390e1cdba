// Command sequel runs decorated statements against configured databases.
//
// The CLI supports:
//   - query: execute raw SQL
//   - select: select rows of a table, optionally keyed by a column
//   - indexes: list the indexes of a table
//   - probe: saturate the connection pool and report the too-busy signal
//   - config show: print the effective configuration
//
// Databases are configured in sequel.yaml, discovered by walking up from the
// working directory, or via SEQUEL_* environment variables.
//
// Usage:
//
//	sequel [flags] <command>
package main

func main() {
	Execute()
}
