package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "tapcard:terminal:key:"

// Redis backs the validation cache with a shared store so revocation
// propagates across instances within one TTL.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, keyHash string) (Entry, bool, error) {
	raw, err := r.client.Get(ctx, keyPrefix+keyHash).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Entry{}, false, err
	}
	return entry, true, nil
}

func (r *Redis) Set(ctx context.Context, keyHash string, entry Entry, ttl time.Duration) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, keyPrefix+keyHash, raw, ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, keyHash string) error {
	return r.client.Del(ctx, keyPrefix+keyHash).Err()
}
