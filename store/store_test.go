package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cityPayload struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

func testFixture(t *testing.T) Fixture {
	t.Helper()
	fx := Fixture{}
	require.NoError(t, fx.Add(CategoryCity, cityPayload{"c1", "NYC"}))
	require.NoError(t, fx.Add(CategoryCity, cityPayload{"c2", "Berlin"}))
	require.NoError(t, fx.Add(CategoryCity, cityPayload{"c3", "Austin"}))
	require.NoError(t, fx.Add(CategoryPosition, cityPayload{"p1", "Engineer"}))
	return fx
}

func decodeNames(t *testing.T, records []Record) []string {
	t.Helper()
	names := make([]string, 0, len(records))
	for _, r := range records {
		var c cityPayload
		require.NoError(t, r.Decode(&c))
		names = append(names, c.Name)
	}
	return names
}

// backendSuite runs the shared bulk-read contract against a seeded backend.
func backendSuite(t *testing.T, client Client) {
	t.Helper()
	ctx := context.Background()

	seeder, ok := client.(Seeder)
	require.True(t, ok, "%T should implement Seeder", client)
	require.NoError(t, seeder.Seed(ctx, testFixture(t)))

	t.Run("whole category in insertion order", func(t *testing.T) {
		records, err := client.Query(ctx, Query{Category: CategoryCity, Filter: NoFilter()})
		require.NoError(t, err)
		assert.Equal(t, []string{"NYC", "Berlin", "Austin"}, decodeNames(t, records))
		for _, r := range records {
			assert.Equal(t, CategoryCity, r.Category)
		}
	})

	t.Run("empty category", func(t *testing.T) {
		records, err := client.Query(ctx, Query{Category: CategoryDivision})
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("reseeding upserts by id", func(t *testing.T) {
		fx := Fixture{}
		require.NoError(t, fx.Add(CategoryPosition, cityPayload{"p1", "Staff Engineer"}))
		require.NoError(t, seeder.Seed(ctx, fx))

		records, err := client.Query(ctx, Query{Category: CategoryPosition})
		require.NoError(t, err)
		assert.Equal(t, []string{"Staff Engineer"}, decodeNames(t, records))
	})

	t.Run("rejects filter", func(t *testing.T) {
		_, err := client.Query(ctx, Query{Category: CategoryCity, Filter: Filter{IDs: []string{"c1"}}})
		assert.ErrorIs(t, err, ErrUnsupportedFilter)
	})

	t.Run("rejects unknown category", func(t *testing.T) {
		_, err := client.Query(ctx, Query{Category: "planet"})
		assert.ErrorIs(t, err, ErrUnknownCategory)
	})

	if p, ok := client.(Pinger); ok {
		assert.NoError(t, p.Ping(ctx))
	}
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "hrref.db")
	s, err := NewSQLiteStore(context.Background(), path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	assert.Equal(t, path, s.Path())
	backendSuite(t, s)
}

func TestSQLiteStore_SeedRejectsMissingID(t *testing.T) {
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "hrref.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	fx := Fixture{CategoryCity: {json.RawMessage(`{"name":"nowhere"}`)}}
	err = s.Seed(context.Background(), fx)
	require.Error(t, err)
	assert.True(t, IsStoreError(err))

	records, err := s.Query(context.Background(), Query{Category: CategoryCity})
	require.NoError(t, err)
	assert.Empty(t, records, "failed seed must roll back")
}

func TestRedisStore(t *testing.T) {
	r := miniredis.RunT(t)
	rc, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{r.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)

	s := NewRedisStoreWithClient(rc, "test:")
	defer func() { _ = s.Close() }()

	backendSuite(t, s)
	assert.True(t, r.Exists("test:city"))
	assert.True(t, r.Exists("test:city:order"))
}

func TestRedisStore_Unreachable(t *testing.T) {
	r := miniredis.RunT(t)
	s, err := NewRedisStore(r.Addr())
	require.NoError(t, err)
	r.Close()
	defer func() { _ = s.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = s.Query(ctx, Query{Category: CategoryCity})
	require.Error(t, err)
	assert.True(t, IsStoreError(err))
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("HRREF_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("HRREF_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dsn)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	_, err = s.DB().ExecContext(ctx, `DELETE FROM records`)
	require.NoError(t, err)
	backendSuite(t, s)
}

func TestMemoryStore(t *testing.T) {
	ms := NewMemoryStore()
	defer func() { _ = ms.Close() }()
	backendSuite(t, ms)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ms := NewMemoryStoreFromFixture(testFixture(t))
	ctx := context.Background()

	first, err := ms.Query(ctx, Query{Category: CategoryCity})
	require.NoError(t, err)
	first[0].Data[2] = 'X'

	second, err := ms.Query(ctx, Query{Category: CategoryCity})
	require.NoError(t, err)
	assert.Equal(t, []string{"NYC", "Berlin", "Austin"}, decodeNames(t, second))
}

func TestMemoryStore_Closed(t *testing.T) {
	ms := NewMemoryStore()
	require.NoError(t, ms.Put(CategoryCity, cityPayload{"c1", "NYC"}))
	require.NoError(t, ms.Close())
	assert.ErrorIs(t, ms.Put(CategoryCity, cityPayload{"c2", "Oslo"}), ErrClosed)

	_, err := ms.Query(context.Background(), Query{Category: CategoryCity})
	assert.ErrorIs(t, err, ErrClosed)
	assert.True(t, IsStoreError(err))
	assert.ErrorIs(t, ms.Ping(context.Background()), ErrClosed)
	assert.ErrorIs(t, ms.Seed(context.Background(), testFixture(t)), ErrClosed)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryStore().Query(ctx, Query{Category: CategoryCity})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories() {
		got, err := ParseCategory(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	_, err := ParseCategory("planet")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestRecordDecode(t *testing.T) {
	var c cityPayload
	err := Record{Category: CategoryCity}.Decode(&c)
	assert.ErrorContains(t, err, "empty payload")

	err = Record{Category: CategoryCity, Data: json.RawMessage(`[1,2]`)}.Decode(&c)
	assert.Error(t, err)
}

func TestNewStoreError(t *testing.T) {
	assert.NoError(t, NewStoreError("sqlite", "query", CategoryCity, nil))

	cause := errors.New("disk full")
	err := NewStoreError("sqlite", "query", CategoryCity, cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "store sqlite query city: disk full", err.Error())

	// Already-wrapped errors pass through unchanged.
	assert.Same(t, err, NewStoreError("remote", "decode", CategoryCity, err))
	assert.Equal(t, "store memory ping: disk full", NewStoreError("memory", "ping", "", cause).Error())
}

func TestFixtureSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.json")
	require.NoError(t, testFixture(t).Save(path))

	fx, err := LoadFixture(path)
	require.NoError(t, err)
	assert.Len(t, fx[CategoryCity], 3)

	require.NoError(t, os.WriteFile(path, []byte(`{"planet":[]}`), 0o644))
	_, err = LoadFixture(path)
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestRecordID(t *testing.T) {
	id, err := RecordID(json.RawMessage(`{"uuid":"c1","name":"NYC"}`))
	require.NoError(t, err)
	assert.Equal(t, "c1", id)

	_, err = RecordID(json.RawMessage(`{"name":"NYC"}`))
	assert.ErrorIs(t, err, errMissingID)
}
