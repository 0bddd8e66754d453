package commands

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/willibrandon/hrref/cmd/hrref/cli"
	"github.com/willibrandon/hrref/cmd/hrref/config"
	"github.com/willibrandon/hrref/cmd/hrref/output"
	"github.com/willibrandon/hrref/core"
	hrhttp "github.com/willibrandon/hrref/http"
	"github.com/willibrandon/hrref/observability"
	"github.com/willibrandon/hrref/refcache"
	"github.com/willibrandon/hrref/resilience"
	"github.com/willibrandon/hrref/store"
)

// runtime holds everything a command needs to talk to the store.
type runtime struct {
	cfg    *config.Config
	logger observability.Logger
	store  store.Client
	app    *core.App
	tp     *sdktrace.TracerProvider
}

// openRuntime loads configuration, then sets up logging, tracing, the store
// and the App. Overrides are applied to the loaded configuration before it is
// used.
func openRuntime(ctx context.Context, cmd *cobra.Command, console *output.Console, overrides ...func(*config.Config)) (*runtime, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	if len(overrides) > 0 {
		for _, o := range overrides {
			o(cfg)
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	level, err := observability.ParseLogLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger := observability.NewLogger(console.Err(), level)
	if cfg.File != "" {
		console.Detail("Using config %s", cfg.File)
	}

	tcfg := observability.DefaultTracerConfig()
	tcfg.ServiceVersion = cli.GetVersion()
	tcfg.ExporterType = cfg.Tracing.Exporter
	tcfg.OTLPEndpoint = cfg.Tracing.Endpoint
	tcfg.SamplingRate = cfg.Tracing.Sampling
	tcfg.StdoutWriter = console.Err()
	tp, err := observability.SetupTracing(ctx, tcfg)
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}

	sc, err := storeConfig(cfg, logger)
	if err != nil {
		_ = observability.ShutdownTracing(ctx, tp)
		return nil, err
	}
	client, err := store.Open(ctx, sc)
	if err != nil {
		_ = observability.ShutdownTracing(ctx, tp)
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	logger.DebugContext(ctx, "Opened {Driver} store", cfg.Store.Driver)

	cacheOpts := []refcache.Option{refcache.WithObserver(consoleObserver(console))}
	if cfg.Cache.BuildTimeout > 0 {
		cacheOpts = append(cacheOpts, refcache.WithBuildTimeout(cfg.Cache.BuildTimeout))
	}

	return &runtime{
		cfg:    cfg,
		logger: logger,
		store:  client,
		tp:     tp,
		app: core.NewApp(core.AppConfig{
			Client:       client,
			Logger:       logger,
			CacheOptions: cacheOpts,
		}),
	}, nil
}

// Close releases the store and flushes traces.
func (r *runtime) Close(ctx context.Context) error {
	var result *multierror.Error
	if err := r.store.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close store: %w", err))
	}
	if err := observability.ShutdownTracing(ctx, r.tp); err != nil {
		result = multierror.Append(result, fmt.Errorf("shutdown tracing: %w", err))
	}
	return result.ErrorOrNil()
}

func storeConfig(cfg *config.Config, logger observability.Logger) (store.Config, error) {
	sc := store.Config{
		Driver:  cfg.Store.Driver,
		DSN:     cfg.Store.DSN,
		Path:    cfg.Store.Path,
		Addr:    cfg.Store.Addr,
		BaseURL: cfg.Store.BaseURL,
		Fixture: cfg.Store.Fixture,
	}
	if cfg.Store.Driver != store.DriverRemote {
		return sc, nil
	}

	authenticator, err := cfg.Remote.Authenticator()
	if err != nil {
		return sc, err
	}

	httpCfg := hrhttp.DefaultConfig()
	httpCfg.Timeout = cfg.Remote.Timeout
	httpCfg.Transport.EnableHTTP3 = cfg.Remote.HTTP3
	httpCfg.Logger = logger.ForContext("Component", "http")
	httpCfg.EnableTracing = cfg.Tracing.Exporter != observability.ExporterNone
	httpCfg.Authenticator = authenticator
	if cfg.Remote.CircuitBreaker {
		cb := resilience.DefaultCircuitBreakerConfig()
		httpCfg.CircuitBreakerConfig = &cb
	}
	if cfg.Remote.RateLimit > 0 {
		tb := resilience.DefaultTokenBucketConfig()
		tb.RefillRate = cfg.Remote.RateLimit
		httpCfg.RateLimiterConfig = &tb
	}
	sc.HTTP = httpCfg
	return sc, nil
}

// consoleObserver prints cache events at diagnostic verbosity.
func consoleObserver(console *output.Console) refcache.Observer {
	return refcache.ObserverFunc(func(e refcache.EventData) {
		if e.Err != nil {
			console.Debug("refcache %s %s: %v", e.Category, e.Event, e.Err)
			return
		}
		console.Debug("refcache %s %s", e.Category, e.Event)
	})
}
