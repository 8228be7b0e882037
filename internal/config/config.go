package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/reconcile/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "reconcile.json"

	// DefaultPort is the default live server port.
	DefaultPort = 7070

	// DefaultHost is the default live server host.
	DefaultHost = "localhost"

	// DefaultMaxDepth is the default maximum tree depth.
	DefaultMaxDepth = 512

	// DefaultRootTag is the tag of the live server's container root.
	DefaultRootTag = "body"

	// DefaultPingInterval is how often the live server pings WebSocket clients.
	DefaultPingInterval = "30s"

	// DefaultMaxMessageSize bounds WebSocket messages read from clients.
	DefaultMaxMessageSize = 64 << 10

	// DefaultMetricsNamespace prefixes every metric name.
	DefaultMetricsNamespace = "reconcile"
)

// configNames are the file names Load looks for, in order.
var configNames = []string{ConfigFileName, "reconcile.yaml", "reconcile.yml"}

// Config represents the complete reconcile configuration.
type Config struct {
	// Engine contains reconciler settings.
	Engine EngineConfig `json:"engine,omitempty" yaml:"engine,omitempty"`

	// Server contains live server settings.
	Server ServerConfig `json:"server,omitempty" yaml:"server,omitempty"`

	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	// Log contains logging settings.
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// EngineConfig contains reconciler settings.
type EngineConfig struct {
	// MaxDepth is the deepest accepted tree. Zero disables the limit.
	MaxDepth int `json:"maxDepth" yaml:"maxDepth"`

	// StrictKeys rejects sibling lists with duplicate keys.
	StrictKeys bool `json:"strictKeys,omitempty" yaml:"strictKeys,omitempty"`
}

// ServerConfig contains live server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty" yaml:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	// RootTag is the tag of the server-side container root.
	RootTag string `json:"rootTag,omitempty" yaml:"rootTag,omitempty"`

	// PingInterval is the WebSocket keepalive period (e.g., "30s").
	PingInterval string `json:"pingInterval,omitempty" yaml:"pingInterval,omitempty"`

	// MaxMessageSize bounds messages read from WebSocket clients, in bytes.
	MaxMessageSize int64 `json:"maxMessageSize,omitempty" yaml:"maxMessageSize,omitempty"`

	// AllowedOrigins lists the origins accepted for WebSocket upgrades.
	// Empty means same origin only; "*" accepts any origin.
	AllowedOrigins []string `json:"allowedOrigins,omitempty" yaml:"allowedOrigins,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled serves GET /metrics and records engine metrics.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Namespace prefixes metric names.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxDepth: DefaultMaxDepth,
		},
		Server: ServerConfig{
			Host:           DefaultHost,
			Port:           DefaultPort,
			RootTag:        DefaultRootTag,
			PingInterval:   DefaultPingInterval,
			MaxMessageSize: DefaultMaxMessageSize,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultMetricsNamespace,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for reconcile.json, then reconcile.yaml and reconcile.yml.
func Load(dir string) (*Config, error) {
	for _, name := range configNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("C001").
		WithDetail("No reconcile.json or reconcile.yaml found in " + dir).
		WithSuggestion("Create reconcile.json or pass --config")
}

// LoadFile reads configuration from the specified file path. Files ending
// in .yaml or .yml are parsed as YAML, anything else as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("C001").
				WithPath(path).
				WithDetail("No configuration file at " + path)
		}
		return nil, errors.New("C001").WithPath(path).Wrap(err)
	}

	cfg := New()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(cfg)
	}
	if err != nil {
		return nil, errors.New("C002").
			WithPath(path).
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error())
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path, as YAML when the
// path ends in .yaml or .yml and as indented JSON otherwise.
func (c *Config) SaveTo(path string) error {
	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		// Add newline at end of file
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("C002").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("C001").WithPath(path).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.RootTag == "" {
		c.Server.RootTag = DefaultRootTag
	}
	if c.Server.PingInterval == "" {
		c.Server.PingInterval = DefaultPingInterval
	}
	if c.Server.MaxMessageSize == 0 {
		c.Server.MaxMessageSize = DefaultMaxMessageSize
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsNamespace
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Engine.MaxDepth < 0 {
		return invalid("engine.maxDepth", "must not be negative")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return invalid("server.port", "must be between 0 and 65535")
	}
	if c.Server.MaxMessageSize < 0 {
		return invalid("server.maxMessageSize", "must not be negative")
	}
	if d, err := time.ParseDuration(c.Server.PingInterval); err != nil || d <= 0 {
		return invalid("server.pingInterval", "must be a positive duration such as 30s")
	}
	if _, err := c.LogLevel(); err != nil {
		return invalid("log.level", "must be debug, info, warn or error")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid("log.format", `must be "text" or "json"`)
	}
	return nil
}

func invalid(field, detail string) error {
	return errors.New("C003").
		WithPath(field).
		WithDetail(field + " " + detail)
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.Log.Level))
	return level, err
}

// Ping returns the parsed WebSocket ping interval.
func (c *Config) Ping() time.Duration {
	d, err := time.ParseDuration(c.Server.PingInterval)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultPingInterval)
	}
	return d
}

// Address returns the listen address of the live server.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range configNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find the nearest directory
// holding a configuration file.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("C001").
				WithDetail("No reconcile.json found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
