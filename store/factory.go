package store

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	hrhttp "github.com/willibrandon/hrref/http"
)

// Backend driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverRemote   = "remote"
)

// Drivers lists the supported backend names.
func Drivers() []string {
	return []string{DriverMemory, DriverSQLite, DriverPostgres, DriverRedis, DriverRemote}
}

// Config selects and configures a backend.
type Config struct {
	Driver string

	// DSN is the postgres connection string.
	DSN string
	// Path is the sqlite database file.
	Path string
	// Addr is the redis server address.
	Addr string
	// BaseURL is the remote store endpoint.
	BaseURL string
	// Fixture, when set, is loaded into writable backends after opening.
	Fixture string

	// HTTP configures the remote backend's client. Nil uses defaults.
	HTTP *hrhttp.Config
}

// Open constructs the backend named by cfg.Driver and seeds it from
// cfg.Fixture when one is configured.
func Open(ctx context.Context, cfg Config) (Client, error) {
	var (
		client Client
		err    error
	)

	switch cfg.Driver {
	case "", DriverMemory:
		client = NewMemoryStore()
	case DriverSQLite:
		client, err = NewSQLiteStore(ctx, cfg.Path)
	case DriverPostgres:
		client, err = NewPostgresStore(ctx, cfg.DSN)
	case DriverRedis:
		client, err = NewRedisStore(cfg.Addr)
	case DriverRemote:
		client, err = NewRemoteStore(cfg.BaseURL, hrhttp.NewClient(cfg.HTTP))
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Fixture == "" {
		return client, nil
	}
	if err := seedFromFile(ctx, client, cfg.Fixture); err != nil {
		var result *multierror.Error
		result = multierror.Append(result, err)
		if cerr := client.Close(); cerr != nil {
			result = multierror.Append(result, fmt.Errorf("close store: %w", cerr))
		}
		return nil, result.ErrorOrNil()
	}
	return client, nil
}

func seedFromFile(ctx context.Context, client Client, path string) error {
	seeder, ok := client.(Seeder)
	if !ok {
		return fmt.Errorf("store %T is read-only; cannot load fixture %s", client, path)
	}
	fx, err := LoadFixture(path)
	if err != nil {
		return err
	}
	return seeder.Seed(ctx, fx)
}
