// Package config loads the pcegraph configuration file.
//
// Configuration is read from a TOML file, by default
// ~/.config/pcegraph/config.toml, and then overridden by PCEGRAPH_*
// environment variables. A missing file is not an error: every setting has a
// default.
//
//	[log]
//	level = "info"
//
//	[store]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
//	[server]
//	addr = ":8080"
//
//	[compute]
//	xponder_wavelengths = 96
//	fallback_otu_clientless = true
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/pcegraph/pkg/pipeline"
	"github.com/matzehuels/pcegraph/pkg/topology/store"
)

const appName = "pcegraph"

// =============================================================================
// Defaults
// =============================================================================

const (
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
	DefaultAddr          = ":8080"
	DefaultReadTimeout   = 10 * time.Second
	DefaultWriteTimeout  = 30 * time.Second
	DefaultMongoDatabase = "pcegraph"
)

// Config is the complete configuration.
type Config struct {
	Log     LogConfig     `toml:"log"`
	Store   StoreConfig   `toml:"store"`
	Server  ServerConfig  `toml:"server"`
	Compute ComputeConfig `toml:"compute"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text, json or logfmt
}

// StoreConfig selects the topology store backend.
type StoreConfig struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
	SQLitePath    string `toml:"sqlite_path"`
	// Retry retries transient read failures.
	Retry bool `toml:"retry"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr         string        `toml:"addr"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
}

// ComputeConfig holds graph build tunables.
type ComputeConfig struct {
	XponderWavelengths    int  `toml:"xponder_wavelengths"`
	FallbackOTUClientless bool `toml:"fallback_otu_clientless"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Store: StoreConfig{
			Backend:       store.BackendFile,
			Dir:           defaultStoreDir(),
			MongoDatabase: DefaultMongoDatabase,
			Retry:         true,
		},
		Server: ServerConfig{
			Addr:         DefaultAddr,
			ReadTimeout:  DefaultReadTimeout,
			WriteTimeout: DefaultWriteTimeout,
		},
		Compute: ComputeConfig{
			XponderWavelengths:    pipeline.DefaultXponderWavelengths,
			FallbackOTUClientless: pipeline.DefaultClientlessOTU,
		},
	}
}

// =============================================================================
// Loading
// =============================================================================

// Path returns the default configuration file path. PCEGRAPH_CONFIG takes
// precedence, then $XDG_CONFIG_HOME/pcegraph/config.toml, then
// ~/.config/pcegraph/config.toml.
func Path() string {
	if p := os.Getenv("PCEGRAPH_CONFIG"); p != "" {
		return p
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName, "config.toml")
}

// Load reads the configuration at path (or [Path] if empty), applies the
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = Path()
	}
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				keys := make([]string, len(undecoded))
				for i, k := range undecoded {
					keys[i] = k.String()
				}
				return Config{}, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
			}
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides settings from PCEGRAPH_* environment variables.
func (c *Config) applyEnv() error {
	strs := []struct {
		key string
		dst *string
	}{
		{"PCEGRAPH_LOG_LEVEL", &c.Log.Level},
		{"PCEGRAPH_LOG_FORMAT", &c.Log.Format},
		{"PCEGRAPH_STORE_BACKEND", &c.Store.Backend},
		{"PCEGRAPH_STORE_DIR", &c.Store.Dir},
		{"PCEGRAPH_REDIS_ADDR", &c.Store.RedisAddr},
		{"PCEGRAPH_REDIS_PASSWORD", &c.Store.RedisPassword},
		{"PCEGRAPH_MONGO_URI", &c.Store.MongoURI},
		{"PCEGRAPH_MONGO_DATABASE", &c.Store.MongoDatabase},
		{"PCEGRAPH_SQLITE_PATH", &c.Store.SQLitePath},
		{"PCEGRAPH_ADDR", &c.Server.Addr},
	}
	for _, s := range strs {
		if v := os.Getenv(s.key); v != "" {
			*s.dst = v
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"PCEGRAPH_REDIS_DB", &c.Store.RedisDB},
		{"PCEGRAPH_XPONDER_WAVELENGTHS", &c.Compute.XponderWavelengths},
	}
	for _, s := range ints {
		v := os.Getenv(s.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", s.key, err)
		}
		*s.dst = n
	}

	if v := os.Getenv("PCEGRAPH_FALLBACK_OTU_CLIENTLESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid PCEGRAPH_FALLBACK_OTU_CLIENTLESS: %w", err)
		}
		c.Compute.FallbackOTUClientless = b
	}
	return nil
}

// Validate checks that the selected backend is known and fully configured.
func (c Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("log.format: unsupported format %q", c.Log.Format)
	}

	switch c.Store.Backend {
	case store.BackendFile:
		if c.Store.Dir == "" {
			return errors.New("store.dir is required for the file backend")
		}
	case store.BackendMemory:
	case store.BackendRedis:
		if c.Store.RedisAddr == "" {
			return errors.New("store.redis_addr is required for the redis backend")
		}
	case store.BackendMongo:
		if c.Store.MongoURI == "" || c.Store.MongoDatabase == "" {
			return errors.New("store.mongo_uri and store.mongo_database are required for the mongo backend")
		}
	case store.BackendSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("store.sqlite_path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("store.backend: unknown backend %q", c.Store.Backend)
	}

	if c.Server.Addr == "" {
		return errors.New("server.addr cannot be empty")
	}
	if c.Compute.XponderWavelengths < 1 {
		return fmt.Errorf("compute.xponder_wavelengths must be positive, got %d", c.Compute.XponderWavelengths)
	}
	return nil
}

// =============================================================================
// Conversions
// =============================================================================

// StoreConfig converts the store section for [store.Open].
func (c Config) StoreConfig() store.Config {
	return store.Config{
		Backend:       c.Store.Backend,
		Dir:           c.Store.Dir,
		RedisAddr:     c.Store.RedisAddr,
		RedisPassword: c.Store.RedisPassword,
		RedisDB:       c.Store.RedisDB,
		MongoURI:      c.Store.MongoURI,
		MongoDatabase: c.Store.MongoDatabase,
		SQLitePath:    c.Store.SQLitePath,
	}
}

// LogLevel returns the parsed log level. Validate guarantees it parses.
func (c Config) LogLevel() log.Level {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// LogFormatter returns the charmbracelet/log formatter for the log format.
func (c Config) LogFormatter() log.Formatter {
	switch c.Log.Format {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// ApplyCompute copies the compute section into request options that did not
// set the values themselves.
func (c Config) ApplyCompute(opts *pipeline.Options) {
	if opts.XponderWavelengths == 0 {
		opts.XponderWavelengths = c.Compute.XponderWavelengths
	}
	if opts.ClientlessOTU == nil {
		v := c.Compute.FallbackOTUClientless
		opts.ClientlessOTU = &v
	}
}

// defaultStoreDir returns $XDG_DATA_HOME/pcegraph/topologies or
// ~/.local/share/pcegraph/topologies.
func defaultStoreDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName, "topologies")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "topologies"
	}
	return filepath.Join(home, ".local", "share", appName, "topologies")
}
