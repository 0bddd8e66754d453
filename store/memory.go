package store

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore keeps records in process memory. Records are returned in
// insertion order.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[Category][]json.RawMessage
	closed  bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[Category][]json.RawMessage),
	}
}

// NewMemoryStoreFromFixture creates an in-memory store seeded with fx.
func NewMemoryStoreFromFixture(fx Fixture) *MemoryStore {
	ms := NewMemoryStore()
	ms.seed(fx)
	return ms
}

// Seed implements Seeder. Payloads replace existing records with the same
// identifier in place; new identifiers are appended.
func (ms *MemoryStore) Seed(_ context.Context, fx Fixture) error {
	for c, items := range fx {
		for _, item := range items {
			if _, err := RecordID(item); err != nil {
				return NewStoreError("memory", "seed", c, err)
			}
		}
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.closed {
		return NewStoreError("memory", "seed", "", ErrClosed)
	}
	ms.seedLocked(fx)
	return nil
}

func (ms *MemoryStore) seed(fx Fixture) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.seedLocked(fx)
}

func (ms *MemoryStore) seedLocked(fx Fixture) {
	for _, c := range Categories() {
		for _, item := range fx[c] {
			ms.upsertLocked(c, cloneRaw(item))
		}
	}
}

func (ms *MemoryStore) upsertLocked(c Category, item json.RawMessage) {
	if id, err := RecordID(item); err == nil {
		for i, existing := range ms.records[c] {
			if eid, _ := RecordID(existing); eid == id {
				ms.records[c][i] = item
				return
			}
		}
	}
	ms.records[c] = append(ms.records[c], item)
}

// Put stores v, marshalled to JSON, under the category.
func (ms *MemoryStore) Put(c Category, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return NewStoreError("memory", "put", c, err)
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.closed {
		return NewStoreError("memory", "put", c, ErrClosed)
	}
	ms.upsertLocked(c, data)
	return nil
}

// Query implements Client.
func (ms *MemoryStore) Query(ctx context.Context, q Query) ([]Record, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, NewStoreError("memory", "query", q.Category, err)
	}

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	if ms.closed {
		return nil, NewStoreError("memory", "query", q.Category, ErrClosed)
	}

	items := ms.records[q.Category]
	out := make([]Record, 0, len(items))
	for _, item := range items {
		// Return copies to prevent external modification
		out = append(out, Record{Category: q.Category, Data: cloneRaw(item)})
	}
	return out, nil
}

// Ping implements Pinger.
func (ms *MemoryStore) Ping(ctx context.Context) error {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	if ms.closed {
		return NewStoreError("memory", "ping", "", ErrClosed)
	}
	return nil
}

// Close implements Client.
func (ms *MemoryStore) Close() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.closed = true
	return nil
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}
