package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitranim/sequel"
	"github.com/mitranim/sequel/metrics/prom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	oldCwd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(oldCwd) })
	require.NoError(t, os.Chdir(dir))
}

func TestFindConfigFile_ExplicitPath(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("database: {}"), 0o644))

	path, err := findConfigFile(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, tmpFile, path)
}

func TestFindConfigFile_ExplicitPathNotFound(t *testing.T) {
	_, err := findConfigFile("/nonexistent/path/sequel.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestFindConfigFile_AutoDiscovery(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))

	configPath := filepath.Join(root, "sequel.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("database: {}"), 0o644))

	nested := filepath.Join(root, "deep", "nested")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	chdir(t, nested)

	path, err := findConfigFile("")
	require.NoError(t, err)

	expectedPath, _ := filepath.EvalSymlinks(configPath)
	actualPath, _ := filepath.EvalSymlinks(path)
	assert.Equal(t, expectedPath, actualPath)
}

func TestFindConfigFile_StopsAtRepoRoot(t *testing.T) {
	outer := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outer, "sequel.yaml"), []byte("database: {}"), 0o644))

	repo := filepath.Join(outer, "repo")
	require.NoError(t, os.MkdirAll(filepath.Join(repo, ".git"), 0o755))
	chdir(t, repo)

	path, err := findConfigFile("")
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestLoadConfig(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sequel.yaml"), []byte(`
database:
  url: mysql://root:@:3306/information_schema
  connections:
    max: 2
  queryTimeout: 5s
databases:
  reports:
    url: postgres://localhost/reports
tables:
  - name: tables
    columns:
      - name: table_name
      - name: table_schema
metrics:
  backend: prometheus
`), 0o644))
	chdir(t, root)

	cfg, path, err := LoadConfig("")
	require.NoError(t, err)
	assert.NotEmpty(t, path)

	assert.Equal(t, "mysql://root:@:3306/information_schema", cfg.Database.URL)
	assert.Equal(t, sequel.Connections{Min: 1, Max: 2}, cfg.Database.Connections)
	assert.Equal(t, 5*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, []string{"default", "reports"}, cfg.DatabaseNames())
	assert.Equal(t, []string{"table_name", "table_schema"}, cfg.Table("tables").ColumnNames())
	assert.Empty(t, cfg.Table("missing").Columns)

	back, err := cfg.MetricsBackend()
	require.NoError(t, err)
	assert.IsType(t, &prom.Backend{}, back)
}

func TestLoadConfig_Env(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	chdir(t, root)
	t.Setenv("SEQUEL_DATABASE_URL", "sqlite:app.db")

	cfg, path, err := LoadConfig("")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, "sqlite:app.db", cfg.Database.URL)
	assert.Equal(t, sequel.DefaultMaxConnections, cfg.Database.Connections.Max)
}

func TestConfig_DatabaseConfig(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		var cfg Config
		_, _, err := cfg.DatabaseConfig("")
		assert.Error(t, err)
	})

	t.Run("single named", func(t *testing.T) {
		cfg := Config{Databases: map[string]sequel.Config{"main": {URL: "sqlite:main.db"}}}
		name, conf, err := cfg.DatabaseConfig("")
		require.NoError(t, err)
		assert.Equal(t, "main", name)
		assert.Equal(t, "sqlite:main.db", conf.URL)
	})

	t.Run("ambiguous", func(t *testing.T) {
		cfg := Config{Databases: map[string]sequel.Config{
			"one": {URL: "sqlite:one.db"},
			"two": {URL: "sqlite:two.db"},
		}}
		_, _, err := cfg.DatabaseConfig("")
		assert.ErrorContains(t, err, "several databases")

		name, _, err := cfg.DatabaseConfig("two")
		require.NoError(t, err)
		assert.Equal(t, "two", name)

		_, _, err = cfg.DatabaseConfig("three")
		assert.ErrorContains(t, err, "unknown database")
	})
}

func TestConfig_MetricsBackend(t *testing.T) {
	back, err := (&Config{}).MetricsBackend()
	require.NoError(t, err)
	assert.Nil(t, back)

	_, err = (&Config{Metrics: MetricsConfig{Backend: "graphite"}}).MetricsBackend()
	assert.ErrorContains(t, err, "unknown metrics backend")

	_, err = (&Config{Metrics: MetricsConfig{Backend: "dogstatsd"}}).MetricsBackend()
	assert.Error(t, err)
}

func TestExitCode(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, ExitSuccess, ExitCode(&buf, nil))
	assert.Empty(t, buf.String())

	assert.Equal(t, ExitConfig, ExitCode(&buf, ConfigError("loading configuration", errors.New("bad yaml"))))
	assert.Equal(t, "Error: loading configuration: bad yaml\n", buf.String())

	buf.Reset()
	assert.Equal(t, ExitGeneral, ExitCode(&buf, errors.New("boom")))
	assert.Equal(t, "Error: boom\n", buf.String())

	buf.Reset()
	assert.Equal(t, ExitTooBusy, ExitCode(&buf, TooBusyError("pool is saturated")))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, 0).Info("hidden")
	assert.Empty(t, buf.String())

	NewLogger(&buf, 2).Debug("shown")
	assert.Contains(t, buf.String(), "msg=shown")
}
