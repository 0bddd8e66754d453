// Package config loads hrref configuration from defaults, a config file,
// HRREF_ environment variables and command-line flags, in that priority order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/willibrandon/hrref/auth"
	"github.com/willibrandon/hrref/observability"
	"github.com/willibrandon/hrref/store"
)

// EnvPrefix prefixes every environment override, e.g. HRREF_STORE_DRIVER.
const EnvPrefix = "HRREF_"

// Config is the complete hrref configuration.
type Config struct {
	Store   StoreConfig   `koanf:"store"`
	Remote  RemoteConfig  `koanf:"remote"`
	Cache   CacheConfig   `koanf:"cache"`
	Log     LogConfig     `koanf:"log"`
	Tracing TracingConfig `koanf:"tracing"`
	Server  ServerConfig  `koanf:"server"`

	// File is the config file that was loaded, if any.
	File string `koanf:"-"`
}

// StoreConfig selects the backing store.
type StoreConfig struct {
	Driver  string `koanf:"driver"`
	DSN     string `koanf:"dsn"`
	Path    string `koanf:"path"`
	Addr    string `koanf:"addr"`
	BaseURL string `koanf:"base_url"`
	Fixture string `koanf:"fixture"`
}

// RemoteConfig tunes the HTTP client used by the remote driver.
type RemoteConfig struct {
	Timeout        time.Duration `koanf:"timeout"`
	HTTP3          bool          `koanf:"http3"`
	CircuitBreaker bool          `koanf:"circuit_breaker"`
	RateLimit      float64       `koanf:"rate_limit"`

	// Auth is one of none, bearer, apikey, basic.
	Auth     string `koanf:"auth"`
	Token    string `koanf:"token"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// CacheConfig tunes the reference cache.
type CacheConfig struct {
	// BuildTimeout bounds a single category build. Zero means no bound.
	BuildTimeout time.Duration `koanf:"build_timeout"`
	Preload      bool          `koanf:"preload"`
}

// LogConfig configures the mtlog logger.
type LogConfig struct {
	Level string `koanf:"level"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Exporter string  `koanf:"exporter"`
	Endpoint string  `koanf:"endpoint"`
	Sampling float64 `koanf:"sampling"`
}

// ServerConfig configures `hrref serve`.
type ServerConfig struct {
	Addr string `koanf:"addr"`

	// Token guards GET /records/{category} when set.
	Token string `koanf:"token"`
}

// defaults are loaded first and overridden by every other source.
var defaults = map[string]any{
	"store.driver":           store.DriverMemory,
	"store.path":             "hrref.db",
	"store.addr":             "localhost:6379",
	"remote.timeout":         "30s",
	"remote.http3":           false,
	"remote.circuit_breaker": true,
	"remote.rate_limit":      0.0,
	"remote.auth":            string(auth.AuthTypeNone),
	"cache.build_timeout":    "0s",
	"cache.preload":          false,
	"log.level":              "info",
	"tracing.exporter":       observability.ExporterNone,
	"tracing.endpoint":       "localhost:4317",
	"tracing.sampling":       1.0,
	"server.addr":            ":8080",
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"store-driver":   "store.driver",
	"store-dsn":      "store.dsn",
	"store-path":     "store.path",
	"store-addr":     "store.addr",
	"store-base-url": "store.base_url",
	"fixture":        "store.fixture",
	"build-timeout":  "cache.build_timeout",
	"preload":        "cache.preload",
	"log-level":      "log.level",
	"tracing":        "tracing.exporter",
	"addr":           "server.addr",
}

// searchNames are tried in each search directory when no file is given.
var searchNames = []string{"hrref.yaml", "hrref.yml", "hrref.json"}

// BindFlags registers the persistent flags that override config values.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Config file (JSON or YAML)")
	fs.String("store-driver", "", "Store driver ("+strings.Join(store.Drivers(), ", ")+")")
	fs.String("store-dsn", "", "Postgres connection string")
	fs.String("store-path", "", "SQLite database file")
	fs.String("store-addr", "", "Redis server address")
	fs.String("store-base-url", "", "Remote store base URL")
	fs.String("fixture", "", "Fixture file to load into the store on startup")
	fs.Duration("build-timeout", 0, "Bound on a single reference build (0 = none)")
	fs.String("log-level", "", "Log level (verbose, debug, info, warn, error)")
	fs.String("tracing", "", "Trace exporter (none, stdout, otlp)")
}

// Load resolves the configuration. fs may be nil; only flags the user set
// override lower-priority sources.
func Load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	for key, v := range defaults {
		if err := k.Set(key, v); err != nil {
			return nil, fmt.Errorf("set default %s: %w", key, err)
		}
	}

	path := ""
	if fs != nil {
		if f := fs.Lookup("config"); f != nil {
			path = f.Value.String()
		}
	}
	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFile(k, path); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if fs != nil {
		var setErr error
		fs.Visit(func(f *pflag.Flag) {
			key, ok := flagKeys[f.Name]
			if !ok || setErr != nil {
				return
			}
			setErr = k.Set(key, f.Value.String())
		})
		if setErr != nil {
			return nil, fmt.Errorf("apply flags: %w", setErr)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps HRREF_STORE_BASE_URL to store.base_url: the first segment names
// the section, the rest is the key within it.
func envKey(key, value string) (string, any) {
	name := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if name == "config" {
		return "", nil
	}
	section, rest, ok := strings.Cut(name, "_")
	if !ok {
		return "", nil
	}
	return section + "." + rest, value
}

func loadFile(k *koanf.Koanf, path string) error {
	var parser koanf.Parser
	switch filepath.Ext(path) {
	case ".json":
		parser = json.Parser()
	default:
		parser = yaml.Parser()
	}
	return k.Load(file.Provider(path), parser)
}

// findConfigFile looks in the working directory, then ~/.config/hrref.
func findConfigFile() string {
	var dirs []string
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "hrref"))
	}
	for _, dir := range dirs {
		for _, name := range searchNames {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return ""
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	switch c.Store.Driver {
	case store.DriverMemory, store.DriverRedis:
	case store.DriverSQLite:
		if c.Store.Path == "" {
			result = multierror.Append(result, fmt.Errorf("store.path is required for the sqlite driver"))
		}
	case store.DriverPostgres:
		if c.Store.DSN == "" {
			result = multierror.Append(result, fmt.Errorf("store.dsn is required for the postgres driver"))
		}
	case store.DriverRemote:
		if c.Store.BaseURL == "" {
			result = multierror.Append(result, fmt.Errorf("store.base_url is required for the remote driver"))
		}
		if c.Store.Fixture != "" {
			result = multierror.Append(result, fmt.Errorf("store.fixture cannot be loaded into the read-only remote driver"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("store.driver %q is not one of %s",
			c.Store.Driver, strings.Join(store.Drivers(), ", ")))
	}

	if c.Cache.BuildTimeout < 0 {
		result = multierror.Append(result, fmt.Errorf("cache.build_timeout must not be negative"))
	}
	if c.Remote.Timeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("remote.timeout must be positive"))
	}
	if c.Remote.RateLimit < 0 {
		result = multierror.Append(result, fmt.Errorf("remote.rate_limit must not be negative"))
	}
	if _, err := c.Remote.Authenticator(); err != nil {
		result = multierror.Append(result, fmt.Errorf("remote.auth: %w", err))
	}
	if _, err := observability.ParseLogLevel(c.Log.Level); err != nil {
		result = multierror.Append(result, fmt.Errorf("log.level: %w", err))
	}

	switch c.Tracing.Exporter {
	case observability.ExporterNone, observability.ExporterStdout, observability.ExporterOTLP:
	default:
		result = multierror.Append(result, fmt.Errorf("tracing.exporter %q is not one of none, stdout, otlp", c.Tracing.Exporter))
	}
	if c.Tracing.Sampling < 0 || c.Tracing.Sampling > 1 {
		result = multierror.Append(result, fmt.Errorf("tracing.sampling must be within [0, 1]"))
	}

	return result.ErrorOrNil()
}

// Authenticator builds the remote client's credentials. It returns nil when
// authentication is disabled.
func (r RemoteConfig) Authenticator() (auth.Authenticator, error) {
	return auth.New(auth.Type(r.Auth), auth.Credentials{
		Token:    r.Token,
		Username: r.Username,
		Password: r.Password,
	})
}
