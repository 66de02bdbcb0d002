// Package config loads the server configuration from an optional dotenv
// file, an optional YAML config file and environment variables. The
// database password is never logged or exposed to tool responses.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Env var names for the database connection.
const (
	EnvServer   = "MSSQL_SERVER"
	EnvUser     = "MSSQL_USER"
	EnvPassword = "MSSQL_PASSWORD"
	EnvDatabase = "MSSQL_DATABASE"
	EnvDriver   = "MCP_DB_DRIVER"
)

// Env var names for the server itself.
const (
	EnvServerName     = "MCP_SERVER_NAME"
	EnvServerVersion  = "MCP_SERVER_VERSION"
	EnvLogLevel       = "MCP_LOG_LEVEL"
	EnvLogFormat      = "MCP_LOG_FORMAT"
	EnvLogOutput      = "MCP_LOG_OUTPUT"
	EnvMetricsAddr    = "MCP_METRICS_ADDR"
	EnvConnectTimeout = "MCP_CONNECT_TIMEOUT"
	EnvConfigFile     = "MCP_MSSQL_CONFIG"
	EnvDotenvFile     = "MCP_MSSQL_ENV_FILE"
)

// Supported database drivers.
const (
	DriverSQLServer = "sqlserver"
	DriverSQLite    = "sqlite"
	DriverPostgres  = "postgres"
	DriverMySQL     = "mysql"
)

// DefaultConfigDir is the directory for the optional config file.
// Config file path: ~/.mssql-mcp/config.yaml
const DefaultConfigDir = ".mssql-mcp"
const ConfigFileName = "config.yaml"

const (
	DefaultServerName     = "mcp_mssql_server"
	DefaultServerVersion  = "1.0.0"
	DefaultConnectTimeout = 30 * time.Second
	DefaultDotenvFile     = ".env"
)

// Connection holds the parameters used to open every database connection.
// It is built once at startup and never mutated.
type Connection struct {
	Driver   string
	Host     string
	User     string
	Password string
	Database string
}

// String describes the connection without the password. Safe to log.
func (c Connection) String() string {
	password := ""
	if c.Password != "" {
		password = ":***"
	}
	return fmt.Sprintf("%s://%s%s@%s/%s", c.Driver, c.User, password, c.Host, c.Database)
}

// Identity is the name and version the server reports to MCP clients.
type Identity struct {
	Name    string
	Version string
}

// Logging configures the process logger.
type Logging struct {
	Level  string // trace, debug, info, warn, error
	Format string // json or text
	Output string // stderr or a file path
}

// Config is the complete server configuration.
type Config struct {
	Connection     Connection
	Identity       Identity
	Logging        Logging
	MetricsAddr    string
	ConnectTimeout time.Duration
}

// Default returns a Config with every optional field set to its default.
func Default() *Config {
	return &Config{
		Connection: Connection{Driver: DriverSQLServer},
		Identity: Identity{
			Name:    DefaultServerName,
			Version: DefaultServerVersion,
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
		ConnectTimeout: DefaultConnectTimeout,
	}
}

// Load builds the configuration. Sources, lowest priority first:
// defaults, the YAML config file (MCP_MSSQL_CONFIG or
// ~/.mssql-mcp/config.yaml), then the environment. A dotenv file (.env or
// MCP_MSSQL_ENV_FILE) is loaded into the environment first; variables
// already set are not overwritten.
func Load() (*Config, error) {
	if err := loadDotenv(); err != nil {
		return nil, fmt.Errorf("dotenv: %w", err)
	}

	c := Default()

	// 1) Optional config file (base)
	configPath, err := configFilePath()
	if err != nil {
		return nil, fmt.Errorf("config path: %w", err)
	}
	if configPath != "" {
		if err := c.loadFile(configPath); err != nil {
			return nil, fmt.Errorf("config file %s: %w", configPath, err)
		}
	}

	// 2) Env overrides
	if err := c.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	c.Connection.Driver = strings.ToLower(c.Connection.Driver)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func loadDotenv() error {
	path, explicit := os.LookupEnv(EnvDotenvFile)
	if !explicit || path == "" {
		path = DefaultDotenvFile
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

func configFilePath() (string, error) {
	if p := os.Getenv(EnvConfigFile); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", err
		}
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	p := filepath.Join(home, DefaultConfigDir, ConfigFileName)
	_, err = os.Stat(p)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return p, nil
}

type fileFormat struct {
	Connection struct {
		Driver   string `yaml:"driver"`
		Server   string `yaml:"server"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Database string `yaml:"database"`
	} `yaml:"connection"`
	Server struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	MetricsAddr    string `yaml:"metrics_addr"`
	ConnectTimeout string `yaml:"connect_timeout"`
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}
	setIfNotEmpty(&c.Connection.Driver, f.Connection.Driver)
	setIfNotEmpty(&c.Connection.Host, f.Connection.Server)
	setIfNotEmpty(&c.Connection.User, f.Connection.User)
	setIfNotEmpty(&c.Connection.Password, f.Connection.Password)
	setIfNotEmpty(&c.Connection.Database, f.Connection.Database)
	setIfNotEmpty(&c.Identity.Name, f.Server.Name)
	setIfNotEmpty(&c.Identity.Version, f.Server.Version)
	setIfNotEmpty(&c.Logging.Level, f.Logging.Level)
	setIfNotEmpty(&c.Logging.Format, f.Logging.Format)
	setIfNotEmpty(&c.Logging.Output, f.Logging.Output)
	setIfNotEmpty(&c.MetricsAddr, f.MetricsAddr)
	if f.ConnectTimeout != "" {
		d, err := time.ParseDuration(f.ConnectTimeout)
		if err != nil {
			return fmt.Errorf("connect_timeout: %w", err)
		}
		c.ConnectTimeout = d
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	env := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	env(&c.Connection.Driver, EnvDriver)
	env(&c.Connection.Host, EnvServer)
	env(&c.Connection.User, EnvUser)
	env(&c.Connection.Password, EnvPassword)
	env(&c.Connection.Database, EnvDatabase)
	env(&c.Identity.Name, EnvServerName)
	env(&c.Identity.Version, EnvServerVersion)
	env(&c.Logging.Level, EnvLogLevel)
	env(&c.Logging.Format, EnvLogFormat)
	env(&c.Logging.Output, EnvLogOutput)
	env(&c.MetricsAddr, EnvMetricsAddr)
	if v, ok := lookup(EnvConnectTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvConnectTimeout, err)
		}
		c.ConnectTimeout = d
	}
	return nil
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Validate reports missing or malformed settings. All problems are
// returned together.
func (c *Config) Validate() error {
	var errs []error
	driver := c.Connection.Driver
	switch driver {
	case DriverSQLServer, DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		errs = append(errs, fmt.Errorf("%s: unsupported driver %q", EnvDriver, c.Connection.Driver))
	}
	if c.Connection.Host == "" && driver != DriverSQLite {
		errs = append(errs, fmt.Errorf("%s is required", EnvServer))
	}
	if c.Connection.Database == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvDatabase))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error", "disabled":
	default:
		errs = append(errs, fmt.Errorf("%s: unknown level %q", EnvLogLevel, c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("%s: unknown format %q", EnvLogFormat, c.Logging.Format))
	}
	if strings.EqualFold(c.Logging.Output, "stdout") {
		errs = append(errs, fmt.Errorf("%s: stdout carries the MCP stream", EnvLogOutput))
	}
	if c.ConnectTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", EnvConnectTimeout))
	}
	return errors.Join(errs...)
}
