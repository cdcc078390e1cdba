package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mitranim/sequel"
	"github.com/mitranim/sequel/metrics"
	"github.com/mitranim/sequel/metrics/dogstatsd"
	"github.com/mitranim/sequel/metrics/prom"
	"github.com/mitranim/sequel/stmt"
	"github.com/spf13/viper"
)

const (
	maxWalkDepth = 25

	// DefaultDatabase names the database configured under the "database" key.
	DefaultDatabase = "default"
)

// Config represents the sequel configuration from sequel.yaml.
type Config struct {
	// Single database, named DefaultDatabase.
	Database sequel.Config `json:"database" mapstructure:"database"`

	// Additional named databases.
	Databases map[string]sequel.Config `json:"databases,omitempty" mapstructure:"databases"`

	// Table declarations, usable by name in commands.
	Tables []stmt.Schema `json:"tables,omitempty" mapstructure:"tables"`

	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`
}

// MetricsConfig selects and configures a metrics backend.
type MetricsConfig struct {
	// "", "prometheus" or "dogstatsd".
	Backend string `json:"backend" mapstructure:"backend"`

	// Pushgateway URL for prometheus, agent address for dogstatsd.
	Addr      string   `json:"addr,omitempty" mapstructure:"addr"`
	Job       string   `json:"job,omitempty" mapstructure:"job"`
	Namespace string   `json:"namespace,omitempty" mapstructure:"namespace"`
	Tags      []string `json:"tags,omitempty" mapstructure:"tags"`
}

// LoadConfig discovers and loads configuration with proper precedence:
// flags > env > config file > defaults.
//
// Returns the loaded config, the path to the config file (empty if none found),
// and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("SEQUEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, configPath, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.url", "")
	v.SetDefault("database.connections.min", sequel.DefaultMinConnections)
	v.SetDefault("database.connections.max", sequel.DefaultMaxConnections)
	v.SetDefault("database.querytimeout", "0s")
	v.SetDefault("database.busywarnafter", sequel.DefaultBusyWarnAfter.String())

	v.SetDefault("metrics.backend", "")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("metrics.job", "sequel")
	v.SetDefault("metrics.namespace", "")
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for sequel.yaml or sequel.yml,
// stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for i := 0; i < maxWalkDepth; i++ {
		for _, name := range []string{"sequel.yaml", "sequel.yml"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil
}

// DatabaseConfigs returns every configured database by name. The "database"
// section, when it has a URL, is included as DefaultDatabase.
func (c *Config) DatabaseConfigs() map[string]sequel.Config {
	out := make(map[string]sequel.Config, len(c.Databases)+1)
	for name, val := range c.Databases {
		out[name] = val
	}
	if c.Database.URL != "" {
		out[DefaultDatabase] = c.Database
	}
	return out
}

// DatabaseConfig returns the named database, or the only configured one when
// name is empty.
func (c *Config) DatabaseConfig(name string) (string, sequel.Config, error) {
	confs := c.DatabaseConfigs()

	if name == "" {
		if _, ok := confs[DefaultDatabase]; ok {
			return DefaultDatabase, confs[DefaultDatabase], nil
		}
		if len(confs) == 1 {
			for name, val := range confs {
				return name, val, nil
			}
		}
		if len(confs) == 0 {
			return "", sequel.Config{}, fmt.Errorf("no database configured; set database.url or SEQUEL_DATABASE_URL")
		}
		return "", sequel.Config{}, fmt.Errorf("several databases configured, choose one of %q", c.DatabaseNames())
	}

	val, ok := confs[name]
	if !ok {
		return "", sequel.Config{}, fmt.Errorf("unknown database %q, configured: %q", name, c.DatabaseNames())
	}
	return name, val, nil
}

// DatabaseNames returns sorted names of configured databases.
func (c *Config) DatabaseNames() []string {
	out := make([]string, 0, len(c.Databases)+1)
	for name := range c.DatabaseConfigs() {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Table returns the declared table with the given name, or a table with no
// declared columns.
func (c *Config) Table(name string) stmt.Schema {
	for _, val := range c.Tables {
		if val.Name == name {
			return val
		}
	}
	return stmt.Schema{Name: name}
}

// MetricsBackend builds the configured metrics backend, or nil when none is
// configured.
func (c *Config) MetricsBackend() (metrics.Backend, error) {
	m := c.Metrics

	switch strings.ToLower(m.Backend) {
	case "", "none":
		return nil, nil
	case "prometheus", "prom":
		back, err := prom.NewBackend(prom.Config{GatewayURL: m.Addr, Job: m.Job})
		if err != nil {
			return nil, err
		}
		return back, nil
	case "dogstatsd", "datadog":
		back, err := dogstatsd.NewBackend(dogstatsd.Config{Addr: m.Addr, Namespace: m.Namespace, Tags: m.Tags})
		if err != nil {
			return nil, err
		}
		return back, nil
	default:
		return nil, fmt.Errorf("unknown metrics backend %q", m.Backend)
	}
}

// NewLogger returns a text logger writing to w. Each level of verbosity
// lowers the threshold: warn, info, debug.
func NewLogger(w io.Writer, verbose int) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case verbose >= 2:
		level = slog.LevelDebug
	case verbose == 1:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
