package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// TypedStore stores values of C as JSON under prefixed keys.
type TypedStore[C any] struct {
	rdb       goredis.Cmdable
	keyPrefix string
}

func NewTypedStore[C any](rdb goredis.Cmdable, keyPrefix string) *TypedStore[C] {
	return &TypedStore[C]{rdb: rdb, keyPrefix: keyPrefix}
}

// Key returns the full Redis key for key.
func (s *TypedStore[C]) Key(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return s.keyPrefix + ":" + key
}

// Load returns (nil, nil) when key does not exist or has expired.
func (s *TypedStore[C]) Load(ctx context.Context, key string) (*C, error) {
	raw, err := s.rdb.Get(ctx, s.Key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("typed store load %q: %w", key, err)
	}
	return s.decode(key, raw)
}

// LoadMany returns the values of keys in order, skipping missing ones.
func (s *TypedStore[C]) LoadMany(ctx context.Context, keys []string) ([]C, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.Key(k)
	}
	vals, err := s.rdb.MGet(ctx, full...).Result()
	if err != nil {
		return nil, fmt.Errorf("typed store load many: %w", err)
	}

	out := make([]C, 0, len(vals))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		val, err := s.decode(keys[i], []byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, *val)
	}
	return out, nil
}

// Save stores val with ttl; a zero ttl never expires.
func (s *TypedStore[C]) Save(ctx context.Context, key string, val *C, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("typed store marshal %q: %w", key, err)
	}
	if err := s.rdb.Set(ctx, s.Key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("typed store save %q: %w", key, err)
	}
	return nil
}

func (s *TypedStore[C]) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.Key(key)).Err(); err != nil {
		return fmt.Errorf("typed store delete %q: %w", key, err)
	}
	return nil
}

func (s *TypedStore[C]) decode(key string, raw []byte) (*C, error) {
	var val C
	if err := json.Unmarshal(raw, &val); err != nil {
		return nil, fmt.Errorf("typed store unmarshal %q: %w", key, err)
	}
	return &val, nil
}
