package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allEnv = []string{
	EnvServer, EnvUser, EnvPassword, EnvDatabase, EnvDriver,
	EnvServerName, EnvServerVersion, EnvLogLevel, EnvLogFormat, EnvLogOutput,
	EnvMetricsAddr, EnvConnectTimeout, EnvConfigFile, EnvDotenvFile,
}

// isolate unsets every variable Load reads and points HOME and the working
// directory at an empty temp dir. Original values are restored on cleanup.
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range allEnv {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoad_envOnly(t *testing.T) {
	isolate(t)
	t.Setenv(EnvServer, "db.local")
	t.Setenv(EnvUser, "sa")
	t.Setenv(EnvPassword, "Secret123")
	t.Setenv(EnvDatabase, "inventory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Connection{
		Driver:   DriverSQLServer,
		Host:     "db.local",
		User:     "sa",
		Password: "Secret123",
		Database: "inventory",
	}, cfg.Connection)
	assert.Equal(t, Identity{Name: "mcp_mssql_server", Version: "1.0.0"}, cfg.Identity)
	assert.Equal(t, 30*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestLoad_fileThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, `
connection:
  driver: SQLite
  database: /var/lib/app.db
server:
  name: file-name
  version: 2.0.0
logging:
  level: debug
  format: text
metrics_addr: ":9100"
connect_timeout: 5s
`)
	t.Setenv(EnvConfigFile, path)
	t.Setenv(EnvServerVersion, "3.1.4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Connection.Driver)
	assert.Equal(t, "/var/lib/app.db", cfg.Connection.Database)
	assert.Equal(t, "file-name", cfg.Identity.Name)
	assert.Equal(t, "3.1.4", cfg.Identity.Version, "env overrides file")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)
}

func TestLoad_homeConfigFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, DefaultConfigDir, ConfigFileName), `
connection:
  server: home-host
  database: home-db
`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "home-host", cfg.Connection.Host)
	assert.Equal(t, "home-db", cfg.Connection.Database)
}

func TestLoad_missingExplicitConfigFile(t *testing.T) {
	dir := isolate(t)
	t.Setenv(EnvConfigFile, filepath.Join(dir, "nope.yaml"))

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_dotenv(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".env"), strings.Join([]string{
		EnvServer + "=dotenv-host",
		EnvUser + "=dotenv-user",
		EnvDatabase + "=dotenv-db",
	}, "\n"))
	t.Setenv(EnvUser, "process-user")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dotenv-host", cfg.Connection.Host)
	assert.Equal(t, "dotenv-db", cfg.Connection.Database)
	assert.Equal(t, "process-user", cfg.Connection.User, "process env wins over .env")
}

func TestLoad_missingExplicitDotenv(t *testing.T) {
	dir := isolate(t)
	t.Setenv(EnvDotenvFile, filepath.Join(dir, "missing.env"))

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_badTimeout(t *testing.T) {
	isolate(t)
	t.Setenv(EnvServer, "h")
	t.Setenv(EnvDatabase, "d")
	t.Setenv(EnvConnectTimeout, "soon")

	_, err := Load()
	require.ErrorContains(t, err, EnvConnectTimeout)
}

func TestLoadFileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	writeFile(t, path, `
connection:
  server: sql01,1433
  user: reader
  password: hunter2
`)
	c := Default()
	require.NoError(t, c.loadFile(path))

	assert.Equal(t, "sql01,1433", c.Connection.Host)
	assert.Equal(t, "reader", c.Connection.User)
	assert.Equal(t, "hunter2", c.Connection.Password)
	// Unset keys keep their defaults.
	assert.Equal(t, DriverSQLServer, c.Connection.Driver)
	assert.Equal(t, DefaultServerName, c.Identity.Name)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr []string
	}{
		{
			name:   "complete sqlserver",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing server",
			mutate:  func(c *Config) { c.Connection.Host = "" },
			wantErr: []string{EnvServer},
		},
		{
			name: "sqlite needs no server",
			mutate: func(c *Config) {
				c.Connection.Driver = DriverSQLite
				c.Connection.Host = ""
			},
		},
		{
			name: "missing database and bad driver",
			mutate: func(c *Config) {
				c.Connection.Database = ""
				c.Connection.Driver = "oracle"
			},
			wantErr: []string{EnvDatabase, `unsupported driver "oracle"`},
		},
		{
			name: "logging to stdout",
			mutate: func(c *Config) {
				c.Logging.Output = "stdout"
				c.Logging.Level = "loud"
			},
			wantErr: []string{EnvLogOutput, `unknown level "loud"`},
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.ConnectTimeout = 0 },
			wantErr: []string{EnvConnectTimeout},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			c.Connection.Host = "localhost"
			c.Connection.Database = "master"
			tt.mutate(c)

			err := c.Validate()
			if len(tt.wantErr) == 0 {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestConnectionString_redactsPassword(t *testing.T) {
	c := Connection{Driver: "sqlserver", Host: "h", User: "sa", Password: "Secret123", Database: "d"}
	s := c.String()
	assert.NotContains(t, s, "Secret123")
	assert.Equal(t, "sqlserver://sa:***@h/d", s)

	c.Password = ""
	assert.Equal(t, "sqlserver://sa@h/d", c.String())
}
