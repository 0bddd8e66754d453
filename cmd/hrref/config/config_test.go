package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/hrref/store"
)

// isolate runs the test from an empty directory with no inherited HRREF_
// environment or home config.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, EnvPrefix) {
			t.Setenv(name, "")
			require.NoError(t, os.Unsetenv(name))
		}
	}
	return dir
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("hrref", pflag.ContinueOnError)
	BindFlags(fs)
	fs.String("addr", "", "")
	fs.Bool("preload", false, "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, store.DriverMemory, cfg.Store.Driver)
	assert.Equal(t, time.Duration(0), cfg.Cache.BuildTimeout)
	assert.Equal(t, 30*time.Second, cfg.Remote.Timeout)
	assert.True(t, cfg.Remote.CircuitBreaker)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "none", cfg.Tracing.Exporter)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Empty(t, cfg.File)
}

func TestLoad_FileEnvFlagPrecedence(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "hrref.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  driver: sqlite
  path: from-file.db
cache:
  build_timeout: 5s
log:
  level: debug
server:
  addr: ":9000"
`), 0o644))

	t.Setenv("HRREF_STORE_PATH", "from-env.db")
	t.Setenv("HRREF_SERVER_ADDR", ":9100")

	cfg, err := Load(newFlags(t, "--addr", ":9200"))
	require.NoError(t, err)

	assert.Equal(t, path, cfg.File, "found by search")
	assert.Equal(t, store.DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "from-env.db", cfg.Store.Path)
	assert.Equal(t, 5*time.Second, cfg.Cache.BuildTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ":9200", cfg.Server.Addr)
}

func TestLoad_ExplicitJSONFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"store":{"driver":"remote","base_url":"http://hr.internal"},"remote":{"http3":true}}`), 0o644))

	cfg, err := Load(newFlags(t, "--config", path, "--build-timeout", "250ms", "--preload"))
	require.NoError(t, err)

	assert.Equal(t, store.DriverRemote, cfg.Store.Driver)
	assert.Equal(t, "http://hr.internal", cfg.Store.BaseURL)
	assert.True(t, cfg.Remote.HTTP3)
	assert.Equal(t, 250*time.Millisecond, cfg.Cache.BuildTimeout)
	assert.True(t, cfg.Cache.Preload)
}

func TestLoad_MissingFile(t *testing.T) {
	isolate(t)
	_, err := Load(newFlags(t, "--config", "nope.yaml"))
	require.Error(t, err)
}

func TestValidate_AggregatesErrors(t *testing.T) {
	isolate(t)
	t.Setenv("HRREF_STORE_DRIVER", "remote")
	t.Setenv("HRREF_LOG_LEVEL", "loud")
	t.Setenv("HRREF_TRACING_EXPORTER", "zipkin")

	_, err := Load(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.base_url")
	assert.Contains(t, err.Error(), "log.level")
	assert.Contains(t, err.Error(), "tracing.exporter")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Store:   StoreConfig{Driver: store.DriverMemory},
			Remote:  RemoteConfig{Timeout: time.Second},
			Log:     LogConfig{Level: "info"},
			Tracing: TracingConfig{Exporter: "none", Sampling: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mongo" }, "store.driver"},
		{"postgres without dsn", func(c *Config) { c.Store.Driver = store.DriverPostgres }, "store.dsn"},
		{"sqlite without path", func(c *Config) { c.Store.Driver = store.DriverSQLite }, "store.path"},
		{"remote fixture", func(c *Config) {
			c.Store.Driver = store.DriverRemote
			c.Store.BaseURL = "http://x"
			c.Store.Fixture = "f.json"
		}, "read-only"},
		{"negative timeout", func(c *Config) { c.Cache.BuildTimeout = -time.Second }, "build_timeout"},
		{"sampling range", func(c *Config) { c.Tracing.Sampling = 2 }, "sampling"},
		{"bearer without token", func(c *Config) { c.Remote.Auth = "bearer" }, "remote.auth"},
		{"unknown auth", func(c *Config) { c.Remote.Auth = "kerberos" }, "remote.auth"},
		{"bearer with token", func(c *Config) {
			c.Remote.Auth = "bearer"
			c.Remote.Token = "t"
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_RemoteAuthFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("HRREF_STORE_DRIVER", "remote")
	t.Setenv("HRREF_STORE_BASE_URL", "https://hr.internal")
	t.Setenv("HRREF_REMOTE_AUTH", "apikey")
	t.Setenv("HRREF_REMOTE_TOKEN", "k")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "https://hr.internal", cfg.Store.BaseURL)

	a, err := cfg.Remote.Authenticator()
	require.NoError(t, err)
	assert.NotNil(t, a)
}
