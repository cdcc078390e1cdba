package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mitranim/sequel"
)

var configShowSource bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration utilities",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	Long:  `Show the effective configuration after merging defaults, config file, and environment variables. Passwords in database URLs are redacted.`,
	Example: `  # Show effective configuration
  sequel config show

  # Show configuration with source file path
  sequel config show --source`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		if configShowSource {
			if configPath != "" {
				fmt.Fprintf(w, "Config file: %s\n\n", configPath)
			} else {
				fmt.Fprintln(w, "Config file: (none, using defaults)")
				fmt.Fprintln(w)
			}
		}

		out := *cfg
		out.Database.URL = redact(out.Database.URL)
		out.Databases = make(map[string]sequel.Config, len(cfg.Databases))
		for name, val := range cfg.Databases {
			val.URL = redact(val.URL)
			out.Databases[name] = val
		}
		return printYAML(w, out)
	},
}

func init() {
	configShowCmd.Flags().BoolVar(&configShowSource, "source", false, "show config file source")
	configCmd.AddCommand(configShowCmd)
}

func redact(src string) string {
	if src == "" {
		return ""
	}
	return sequel.Redact(src)
}
