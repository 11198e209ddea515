package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces mirror hashes in a shared Redis
const DefaultKeyPrefix = "staydesk:mirror:"

// RedisStore keeps each collection in a Redis hash keyed by record key
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

type redisEntry struct {
	Data      []byte    `json:"d"`
	UpdatedAt time.Time `json:"u"`
}

// NewRedisStore wraps an existing client
func NewRedisStore(client redis.UniversalClient, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisStore) hashKey(collection string) string {
	return s.keyPrefix + collection
}

// Put sets a single hash field
func (s *RedisStore) Put(ctx context.Context, collection string, record Record) error {
	return s.PutAll(ctx, collection, []Record{record})
}

// PutAll sets every record in one pipelined HSET
func (s *RedisStore) PutAll(ctx context.Context, collection string, records []Record) error {
	if err := validate(collection, records...); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	values, err := hashValues(collection, records)
	if err != nil {
		return err
	}
	if err := s.client.HSet(ctx, s.hashKey(collection), values...).Err(); err != nil {
		return fmt.Errorf("put %s records: %w", collection, err)
	}
	return nil
}

// ReplaceAll fills a staging hash and renames it over the collection inside
// MULTI/EXEC, so readers see either the old hash or the new one.
func (s *RedisStore) ReplaceAll(ctx context.Context, collection string, records []Record) error {
	if err := validate(collection, records...); err != nil {
		return err
	}
	values, err := hashValues(collection, records)
	if err != nil {
		return err
	}

	key := s.hashKey(collection)
	staging := key + ":staging"
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(values) == 0 {
			pipe.Del(ctx, key)
			return nil
		}
		pipe.Del(ctx, staging)
		pipe.HSet(ctx, staging, values...)
		pipe.Rename(ctx, staging, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace %s records: %w", collection, err)
	}
	return nil
}

func hashValues(collection string, records []Record) ([]any, error) {
	values := make([]any, 0, len(records)*2)
	for _, r := range stamp(records, time.Now().UTC()) {
		raw, err := json.Marshal(redisEntry{Data: r.Data, UpdatedAt: r.UpdatedAt})
		if err != nil {
			return nil, fmt.Errorf("encode %s/%s: %w", collection, r.Key, err)
		}
		values = append(values, r.Key, raw)
	}
	return values, nil
}

// GetAll reads the whole hash
func (s *RedisStore) GetAll(ctx context.Context, collection string) ([]Record, error) {
	fields, err := s.client.HGetAll(ctx, s.hashKey(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("get %s records: %w", collection, err)
	}

	out := make([]Record, 0, len(fields))
	for key, raw := range fields {
		var e redisEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", collection, key, err)
		}
		out = append(out, Record{Key: key, Data: e.Data, UpdatedAt: e.UpdatedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Clear drops the collection's hash
func (s *RedisStore) Clear(ctx context.Context, collection string) error {
	if err := s.client.Del(ctx, s.hashKey(collection)).Err(); err != nil {
		return fmt.Errorf("clear %s: %w", collection, err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
