package refcache

import (
	"context"
	"fmt"
	"time"

	"github.com/willibrandon/hrref/observability"
	"github.com/willibrandon/hrref/store"
)

// Source returns every record of a category.
type Source interface {
	Fetch(ctx context.Context, category store.Category) ([]store.Record, error)
}

// Fetcher turns a category into a full, unfiltered bulk query against a
// store.Client. It neither caches nor retries: every call is a round trip.
type Fetcher struct {
	client store.Client
	logger observability.Logger
}

// NewFetcher creates a Fetcher over client. A nil logger discards output.
func NewFetcher(client store.Client, logger observability.Logger) *Fetcher {
	if logger == nil {
		logger = observability.NewNullLogger()
	}
	return &Fetcher{client: client, logger: logger}
}

// Fetch implements Source. Backend failures are returned as *store.StoreError.
func (f *Fetcher) Fetch(ctx context.Context, category store.Category) (_ []store.Record, err error) {
	if !category.Valid() {
		return nil, fmt.Errorf("fetch: %w: %q", store.ErrUnknownCategory, category)
	}

	ctx, span := observability.StartFetchSpan(ctx, category.String())
	defer func() { observability.EndSpanWithError(span, err) }()

	start := time.Now()
	records, err := f.client.Query(ctx, store.Query{Category: category, Filter: store.NoFilter()})
	elapsed := time.Since(start)
	observability.StoreFetchDuration.WithLabelValues(category.String()).Observe(elapsed.Seconds())

	if err != nil {
		observability.StoreFetchesTotal.WithLabelValues(category.String(), "failure").Inc()
		f.logger.WarnContext(ctx, "Fetch {Category} failed after {Duration}ms: {Error}",
			category, elapsed.Milliseconds(), err)
		return nil, store.NewStoreError("", "fetch", category, err)
	}

	observability.StoreFetchesTotal.WithLabelValues(category.String(), "success").Inc()
	observability.SetAttributes(ctx, observability.AttrRecords.Int(len(records)))
	f.logger.DebugContext(ctx, "Fetched {Count} {Category} records in {Duration}ms",
		len(records), category, elapsed.Milliseconds())
	return records, nil
}
