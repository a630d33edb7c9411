package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"counsel/internal/integrity/models"
)

// DefaultPrefix namespaces integrity cache keys.
const DefaultPrefix = "integrity:result:"

const clearBatch = 200

type payload struct {
	Issues   []models.Issue `json:"issues"`
	StoredAt time.Time      `json:"stored_at"`
}

// Redis stores evaluations in Redis so replicas share them. Expiry is
// delegated to Redis key TTLs.
type Redis struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

type RedisOption func(*Redis)

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		r.prefix = prefix
	}
}

// NewRedis returns a cache backed by client. A non-positive ttl selects
// DefaultTTL.
func NewRedis(client redis.Cmdable, ttl time.Duration, opts ...RedisOption) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	r := &Redis{client: client, prefix: DefaultPrefix, ttl: ttl}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) key(k Key) string {
	return r.prefix + k.String()
}

func (r *Redis) Get(ctx context.Context, key Key) ([]models.Issue, bool, error) {
	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached evaluation: %w", err)
	}
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false, fmt.Errorf("decode cached evaluation: %w", err)
	}
	return p.Issues, true, nil
}

func (r *Redis) Set(ctx context.Context, key Key, issues []models.Issue) error {
	raw, err := json.Marshal(payload{Issues: issues, StoredAt: time.Now()})
	if err != nil {
		return fmt.Errorf("encode evaluation: %w", err)
	}
	if err := r.client.Set(ctx, r.key(key), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("set cached evaluation: %w", err)
	}
	return nil
}

// Clear deletes every key under the prefix.
func (r *Redis) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", clearBatch).Iterator()
	batch := make([]string, 0, clearBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == clearBatch {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("clear cached evaluations: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cached evaluations: %w", err)
	}
	if len(batch) > 0 {
		if err := r.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("clear cached evaluations: %w", err)
		}
	}
	return nil
}
