package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fieldops-scheduler/models"

	"github.com/redis/go-redis/v9"
)

const leaseKeyPrefix = "fieldops:lease:"

// releaseScript deletes the lease only while this owner still holds it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLeaser hands out expiring per-plan leases from Redis. A lease that is
// never released simply expires after ttl.
type RedisLeaser struct {
	client  *redis.Client
	ttl     time.Duration
	ownerID string
}

// NewRedisLeaser connects to the Redis instance at redisURL.
func NewRedisLeaser(redisURL string, ttl time.Duration, ownerID string) (*RedisLeaser, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return &RedisLeaser{client: redis.NewClient(opts), ttl: ttl, ownerID: ownerID}, nil
}

func (l *RedisLeaser) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// TryAcquire takes the lease on key without waiting. acquired is false when
// another owner holds it.
func (l *RedisLeaser) TryAcquire(ctx context.Context, key string) (func(context.Context) error, bool, error) {
	leaseKey := leaseKeyPrefix + key

	ok, err := l.client.SetNX(ctx, leaseKey, l.ownerID, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lease %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{leaseKey}, l.ownerID).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to release lease %s: %w", key, err)
		}
		return nil
	}
	return release, true, nil
}

// Holder reports who currently holds the lease on key, if anyone.
func (l *RedisLeaser) Holder(ctx context.Context, key string) (*models.LeaseInfo, error) {
	leaseKey := leaseKeyPrefix + key

	owner, err := l.client.Get(ctx, leaseKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	ttl, err := l.client.PTTL(ctx, leaseKey).Result()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &models.LeaseInfo{
		Key:        key,
		Owner:      owner,
		AcquiredAt: now.Add(ttl - l.ttl),
		ExpiresAt:  now.Add(ttl),
	}, nil
}

func (l *RedisLeaser) Close() error {
	return l.client.Close()
}
