// Package redisstate adapts a Redis keyspace to the state.Source contract
// (§4.3): entity kinds map to key prefixes, counts use SCAN+cursor
// counting, checksums hash the sorted key/value pairs under a prefix.
package redisstate

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/lerian-tools/conformist/internal/state"
)

// Source samples a Redis keyspace where every entity kind corresponds to a
// configured key prefix (e.g. kind "users" -> keys "users:*").
type Source struct {
	client   *redis.Client
	prefixes map[string]string // kind -> prefix
	scanSize int64
}

// New builds a Source over client. prefixes maps an entity kind name to its
// Redis key prefix, including any separator; "users" -> "users:" matches
// keys "users:*".
func New(client *redis.Client, prefixes map[string]string) *Source {
	return &Source{client: client, prefixes: prefixes, scanSize: 200}
}

var _ state.Source = (*Source)(nil)

func (s *Source) EntityKinds(ctx context.Context) ([]state.EntityKindDescriptor, error) {
	kinds := make([]string, 0, len(s.prefixes))
	for kind := range s.prefixes {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	out := make([]state.EntityKindDescriptor, len(kinds))
	for i, kind := range kinds {
		out[i] = state.EntityKindDescriptor{Name: kind, KeyFieldName: "key", TypeID: "redis.prefix"}
	}
	return out, nil
}

func (s *Source) Count(ctx context.Context, kind string) (int, error) {
	keys, err := s.scanKeys(ctx, kind)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

func (s *Source) ListAll(ctx context.Context, kind string) ([]state.Record, error) {
	keys, err := s.scanKeys(ctx, kind)
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)

	out := make([]state.Record, 0, len(keys))
	for _, key := range keys {
		val, err := s.client.Get(ctx, key).Result()
		if err != nil && err != redis.Nil {
			return nil, fmt.Errorf("redisstate: get %s: %w", key, err)
		}
		out = append(out, state.Record{"key": key, "value": val})
	}
	return out, nil
}

func (s *Source) RandomKey(ctx context.Context, kind string) (any, bool, error) {
	keys, err := s.scanKeys(ctx, kind)
	if err != nil {
		return nil, false, err
	}
	if len(keys) == 0 {
		return nil, false, nil
	}
	return keys[rand.Intn(len(keys))], true, nil
}

func (s *Source) scanKeys(ctx context.Context, kind string) ([]string, error) {
	prefix, ok := s.prefixes[kind]
	if !ok {
		return nil, fmt.Errorf("redisstate: unknown entity kind %q", kind)
	}

	var keys []string
	var cursor uint64
	for {
		batch, next, err := s.client.Scan(ctx, cursor, prefix+"*", s.scanSize).Result()
		if err != nil {
			return nil, fmt.Errorf("redisstate: scan %s: %w", kind, err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}
