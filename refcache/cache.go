package refcache

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/willibrandon/hrref/observability"
	"github.com/willibrandon/hrref/store"
)

// Cache memoizes one Mapping per reference category. Concurrent Resolve calls
// for a category without a ready mapping share a single build.
type Cache struct {
	source Source
	group  singleflight.Group

	mu       sync.RWMutex
	ready    map[store.Category]*Mapping
	building map[store.Category]bool

	observer     Observer
	logger       observability.Logger
	buildTimeout time.Duration
}

// Option configures a Cache.
type Option func(*Cache)

// WithObserver attaches an Observer receiving hit, miss, dedup and
// build-failure events.
func WithObserver(o Observer) Option {
	return func(c *Cache) {
		c.observer = o
	}
}

// WithLogger sets the cache logger.
func WithLogger(logger observability.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithBuildTimeout bounds each build. Zero, the default, means no limit.
func WithBuildTimeout(d time.Duration) Option {
	return func(c *Cache) {
		c.buildTimeout = d
	}
}

// New creates an empty cache that builds mappings from source.
func New(source Source, opts ...Option) *Cache {
	c := &Cache{
		source:   source,
		ready:    make(map[store.Category]*Mapping),
		building: make(map[store.Category]bool),
		logger:   observability.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns the mapping for category, building it on first use.
//
// A build runs detached from the caller's cancellation so that one caller
// giving up does not fail the others. The caller itself stops waiting when
// ctx is done and gets ctx.Err(); the build still completes and publishes.
// Every caller attached to a failed build receives the same error, and the
// failure is not cached.
func (c *Cache) Resolve(ctx context.Context, category store.Category) (_ *Mapping, err error) {
	ctx, span := observability.StartResolveSpan(ctx, category.String())
	defer func() { observability.EndSpanWithError(span, err) }()

	project, err := ProjectionFor(category)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	m, ok := c.ready[category]
	c.mu.RUnlock()
	if ok {
		c.emit(ctx, EventData{Event: EventHit, Category: category})
		return m, nil
	}

	// Slow path. The ready check, the miss/dedup decision and the attach to
	// the flight happen under one lock; DoChan does not block.
	c.mu.Lock()
	if m, ok := c.ready[category]; ok {
		c.mu.Unlock()
		c.emit(ctx, EventData{Event: EventHit, Category: category})
		return m, nil
	}
	event := EventDedup
	if !c.building[category] {
		c.building[category] = true
		event = EventMiss
	}
	buildCtx := context.WithoutCancel(ctx)
	trigger := trace.SpanContextFromContext(ctx)
	ch := c.group.DoChan(category.String(), func() (any, error) {
		return c.build(buildCtx, trigger, category, project)
	})
	c.mu.Unlock()

	c.emit(ctx, EventData{Event: event, Category: category})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Mapping), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) build(ctx context.Context, trigger trace.SpanContext, category store.Category, project Projection) (_ *Mapping, err error) {
	ctx, span := observability.StartBuildSpan(ctx, category.String(), trigger)
	defer func() { observability.EndSpanWithError(span, err) }()

	if c.buildTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.buildTimeout)
		defer cancel()
	}

	start := time.Now()
	records, err := c.source.Fetch(ctx, category)
	var m *Mapping
	if err == nil {
		m, err = newMapping(category, records, project)
	}

	c.mu.Lock()
	delete(c.building, category)
	if err == nil {
		c.ready[category] = m
	} else {
		// Drop the flight now so a Resolve arriving before singleflight's
		// own cleanup starts a fresh build.
		c.group.Forget(category.String())
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.WarnContext(ctx, "Build of {Category} mapping failed: {Error}", category, err)
		c.emit(ctx, EventData{Event: EventBuildFailed, Category: category, Err: err})
		return nil, err
	}

	observability.RefCacheEntries.WithLabelValues(category.String()).Set(float64(m.Len()))
	observability.SetAttributes(ctx, observability.AttrEntries.Int(m.Len()))
	c.logger.DebugContext(ctx, "Built {Category} mapping with {Count} entries in {Duration}ms",
		category, m.Len(), time.Since(start).Milliseconds())
	return m, nil
}

func (c *Cache) emit(ctx context.Context, e EventData) {
	observability.RefCacheEventsTotal.WithLabelValues(e.Category.String(), e.Event.String()).Inc()
	if e.Event != EventBuildFailed {
		observability.RecordCacheEvent(ctx, e.Event.String())
	}
	if c.observer != nil {
		c.observer.On(e)
	}
}

// Ready reports whether category has a published mapping.
func (c *Cache) Ready(category store.Category) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.ready[category]
	return ok
}

// Warm returns how many reference categories are ready, and the total.
func (c *Cache) Warm() (warm, total int) {
	refs := ReferenceCategories()
	for _, cat := range refs {
		if c.Ready(cat) {
			warm++
		}
	}
	return warm, len(refs)
}

// Preload resolves every reference category, returning the first error.
func (c *Cache) Preload(ctx context.Context) error {
	for _, cat := range ReferenceCategories() {
		if _, err := c.Resolve(ctx, cat); err != nil {
			return err
		}
	}
	return nil
}

// CityMap resolves the city mapping.
func (c *Cache) CityMap(ctx context.Context) (*Mapping, error) {
	return c.Resolve(ctx, store.CategoryCity)
}

// PositionMap resolves the position mapping.
func (c *Cache) PositionMap(ctx context.Context) (*Mapping, error) {
	return c.Resolve(ctx, store.CategoryPosition)
}

// DivisionMap resolves the division mapping.
func (c *Cache) DivisionMap(ctx context.Context) (*Mapping, error) {
	return c.Resolve(ctx, store.CategoryDivision)
}
