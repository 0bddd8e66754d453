package store

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"
)

const redisKeyPrefix = "hrref:"

// RedisStore keeps each category in a hash (id -> JSON payload) plus a sorted
// set recording insertion order.
type RedisStore struct {
	client rueidis.Client
	prefix string
}

// NewRedisStore connects to the redis server at addr.
func NewRedisStore(addr string) (*RedisStore, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{addr},
		DisableCache: true,
	})
	if err != nil {
		return nil, NewStoreError("redis", "open", "", err)
	}
	return NewRedisStoreWithClient(client, redisKeyPrefix), nil
}

// NewRedisStoreWithClient wraps an existing client. Keys are prefixed with prefix.
func NewRedisStoreWithClient(client rueidis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (rs *RedisStore) hashKey(c Category) string  { return rs.prefix + string(c) }
func (rs *RedisStore) orderKey(c Category) string { return rs.prefix + string(c) + ":order" }

// Query implements Client.
func (rs *RedisStore) Query(ctx context.Context, q Query) ([]Record, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	ids, err := rs.client.Do(ctx, rs.client.B().Zrange().Key(rs.orderKey(q.Category)).Min("0").Max("-1").Build()).AsStrSlice()
	if err != nil {
		return nil, NewStoreError("redis", "query", q.Category, err)
	}
	if len(ids) == 0 {
		return []Record{}, nil
	}

	values, err := rs.client.Do(ctx, rs.client.B().Hmget().Key(rs.hashKey(q.Category)).Field(ids...).Build()).ToArray()
	if err != nil {
		return nil, NewStoreError("redis", "query", q.Category, err)
	}

	out := make([]Record, 0, len(values))
	for i, v := range values {
		payload, err := v.ToString()
		if rueidis.IsRedisNil(err) {
			// Order entry without a payload; the hash is authoritative
			continue
		}
		if err != nil {
			return nil, NewStoreError("redis", "decode", q.Category, fmt.Errorf("record %s: %w", ids[i], err))
		}
		out = append(out, Record{Category: q.Category, Data: []byte(payload)})
	}
	return out, nil
}

// Seed upserts the fixture. Existing identifiers keep their position.
func (rs *RedisStore) Seed(ctx context.Context, fx Fixture) error {
	for c, items := range fx {
		for _, item := range items {
			id, err := RecordID(item)
			if err != nil {
				return NewStoreError("redis", "seed", c, err)
			}
			seq, err := rs.client.Do(ctx, rs.client.B().Incr().Key(rs.prefix+"seq").Build()).AsInt64()
			if err != nil {
				return NewStoreError("redis", "seed", c, err)
			}
			cmds := rueidis.Commands{
				rs.client.B().Hset().Key(rs.hashKey(c)).FieldValue().FieldValue(id, string(item)).Build(),
				rs.client.B().Zadd().Key(rs.orderKey(c)).Nx().ScoreMember().ScoreMember(float64(seq), id).Build(),
			}
			for _, resp := range rs.client.DoMulti(ctx, cmds...) {
				if err := resp.Error(); err != nil {
					return NewStoreError("redis", "seed", c, fmt.Errorf("upsert %s: %w", id, err))
				}
			}
		}
	}
	return nil
}

// Ping implements Pinger.
func (rs *RedisStore) Ping(ctx context.Context) error {
	return NewStoreError("redis", "ping", "", rs.client.Do(ctx, rs.client.B().Ping().Build()).Error())
}

// Close implements Client.
func (rs *RedisStore) Close() error {
	rs.client.Close()
	return nil
}
