package core

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/willibrandon/hrref/observability"
	"github.com/willibrandon/hrref/refcache"
	"github.com/willibrandon/hrref/store"
)

// App serves the employee listings. Reference mappings come from a
// refcache.Cache owned by the App; employees are fetched on every call.
type App struct {
	source refcache.Source
	refs   *refcache.Cache
	logger observability.Logger
}

// AppConfig holds App configuration
type AppConfig struct {
	// Client is the backing store. Required.
	Client store.Client

	// Logger is optional (nil uses NullLogger)
	Logger observability.Logger

	// CacheOptions are applied to the reference cache.
	CacheOptions []refcache.Option
}

// NewApp creates an App with a fresh reference cache.
func NewApp(cfg AppConfig) *App {
	logger := cfg.Logger
	if logger == nil {
		logger = observability.NewNullLogger()
	}

	fetcher := refcache.NewFetcher(cfg.Client, logger.ForContext("Component", "fetcher"))
	opts := append([]refcache.Option{refcache.WithLogger(logger.ForContext("Component", "refcache"))}, cfg.CacheOptions...)

	return &App{
		source: fetcher,
		refs:   refcache.New(fetcher, opts...),
		logger: logger,
	}
}

// Cache returns the App's reference cache.
func (a *App) Cache() *refcache.Cache {
	return a.refs
}

// All fetches every record of category and decodes each into T.
func All[T any](ctx context.Context, source refcache.Source, category store.Category) ([]T, error) {
	records, err := source.Fetch(ctx, category)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(records))
	for i, r := range records {
		if err := r.Decode(&out[i]); err != nil {
			return nil, store.NewStoreError("", "decode", category, err)
		}
	}
	return out, nil
}

// ListEmployeesWithCityName returns each employee's first name with the name
// of their city, in employee order. Unknown cities resolve to "".
func (a *App) ListEmployeesWithCityName(ctx context.Context) (_ []EmployeeCity, err error) {
	ctx, span := observability.StartListSpan(ctx, "cities")
	defer func() { observability.EndSpanWithError(span, err) }()
	start := time.Now()

	var (
		employees []Employee
		cities    *refcache.Mapping
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		employees, err = All[Employee](gctx, a.source, store.CategoryEmployee)
		return err
	})
	g.Go(func() (err error) {
		cities, err = a.refs.CityMap(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		a.logger.WarnContext(ctx, "List employees with city failed: {Error}", err)
		return nil, fmt.Errorf("list employees with city: %w", err)
	}

	rows := make([]EmployeeCity, len(employees))
	for i, e := range employees {
		rows[i] = EmployeeCity{
			Name: e.FirstName,
			City: lookup(cities, e.CityUUID),
		}
	}

	a.logger.DebugContext(ctx, "Listed {Count} employees with city in {Duration}ms",
		len(rows), time.Since(start).Milliseconds())
	return rows, nil
}

// ListEmployeesWithPositionAndDivision returns each employee's first name with
// the names of their position and division, in employee order.
func (a *App) ListEmployeesWithPositionAndDivision(ctx context.Context) (_ []EmployeePosition, err error) {
	ctx, span := observability.StartListSpan(ctx, "positions")
	defer func() { observability.EndSpanWithError(span, err) }()
	start := time.Now()

	var (
		employees []Employee
		positions *refcache.Mapping
		divisions *refcache.Mapping
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		employees, err = All[Employee](gctx, a.source, store.CategoryEmployee)
		return err
	})
	g.Go(func() (err error) {
		positions, err = a.refs.PositionMap(gctx)
		return err
	})
	g.Go(func() (err error) {
		divisions, err = a.refs.DivisionMap(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		a.logger.WarnContext(ctx, "List employees with position failed: {Error}", err)
		return nil, fmt.Errorf("list employees with position: %w", err)
	}

	rows := make([]EmployeePosition, len(employees))
	for i, e := range employees {
		rows[i] = EmployeePosition{
			Name:     e.FirstName,
			Position: lookup(positions, e.PositionUUID),
			Division: lookup(divisions, e.DivisionUUID),
		}
	}

	a.logger.DebugContext(ctx, "Listed {Count} employees with position in {Duration}ms",
		len(rows), time.Since(start).Milliseconds())
	return rows, nil
}

// Update is the write path. It validates the entity and reports that writes
// are not supported; it never succeeds silently.
func (a *App) Update(ctx context.Context, req UpdateRequest) error {
	category, err := store.ParseCategory(req.Entity)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidEntity, req.Entity)
	}
	a.logger.WarnContext(ctx, "Update of {Entity} rejected: write path not implemented", category)
	return fmt.Errorf("update %s: %w", category, ErrNotImplemented)
}

func lookup(m *refcache.Mapping, id string) string {
	name, ok := m.Lookup(id)
	if !ok {
		observability.LookupMissesTotal.WithLabelValues(m.Category().String()).Inc()
	}
	return name
}
