package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/folio-studio/folio/internal/metrics"
	"github.com/folio-studio/folio/pkg/models"
	"github.com/redis/go-redis/v9"
)

// Cache provides caching functionality using Redis
type Cache struct {
	client *redis.Client
}

// NewCache creates a new cache instance
func NewCache(host string, port int, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Work Cache Operations

func workKey(workID int64) string {
	return fmt.Sprintf("work:%d", workID)
}

func workGenKey(workID int64) string {
	return fmt.Sprintf("work:%d:gen", workID)
}

// WorkGeneration returns the work's invalidation counter. Read it before
// loading the work from the database and pass it to SetWork.
func (c *Cache) WorkGeneration(ctx context.Context, workID int64) (int64, error) {
	gen, err := c.client.Get(ctx, workGenKey(workID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read work generation: %w", err)
	}
	return gen, nil
}

// SetWork caches a work as rendered to API clients, media URLs included.
// The write is dropped if the work was invalidated after gen was read, so a
// slow reader cannot put back a copy older than the last write.
func (c *Cache) SetWork(ctx context.Context, work *models.Work, gen int64, ttl time.Duration) error {
	data, err := json.Marshal(work)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	genKey := workGenKey(work.ID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, workKey(work.ID), data, ttl)
			return nil
		})
		return err
	}, genKey)
	if err == redis.TxFailedErr {
		// Invalidated between the check and the write.
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to cache work: %w", err)
	}
	return nil
}

// GetWork retrieves a cached work. A miss returns nil, nil.
func (c *Cache) GetWork(ctx context.Context, workID int64) (*models.Work, error) {
	var work models.Work
	found, err := c.getJSON(ctx, workKey(workID), &work)
	if err != nil {
		return nil, fmt.Errorf("failed to get work from cache: %w", err)
	}
	metrics.RecordCacheAccess("work", found)
	if !found {
		return nil, nil
	}
	return &work, nil
}

// InvalidateWork removes a cached work and bumps its generation
func (c *Cache) InvalidateWork(ctx context.Context, workID int64) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, workGenKey(workID))
		pipe.Del(ctx, workKey(workID))
		return nil
	})
	return err
}

// Rate Limiting Operations

// CheckRateLimit counts a hit under key in a fixed window and reports
// whether the count is still within limit
func (c *Cache) CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, error) {
	rateLimitKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := c.client.Incr(ctx, rateLimitKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	// Set expiry on first request
	if count == 1 {
		if err := c.client.Expire(ctx, rateLimitKey, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set expiry: %w", err)
		}
	}

	return count <= limit, nil
}

// Limiter is a fixed-window limiter with one limit and window for every key
type Limiter struct {
	cache  *Cache
	limit  int64
	window time.Duration
}

// NewLimiter creates a limiter allowing limit calls per key per window
func NewLimiter(cache *Cache, limit int64, window time.Duration) *Limiter {
	return &Limiter{cache: cache, limit: limit, window: window}
}

// Allow counts a call under key and reports whether it is allowed
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	return l.cache.CheckRateLimit(ctx, key, l.limit, l.window)
}

// Locking Operations for Distributed Systems

// AcquireLock attempts to acquire a distributed lock
func (c *Cache) AcquireLock(ctx context.Context, resource string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:%s", resource)
	return c.client.SetNX(ctx, key, "locked", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Cache) ReleaseLock(ctx context.Context, resource string) error {
	key := fmt.Sprintf("lock:%s", resource)
	return c.client.Del(ctx, key).Err()
}

// getJSON loads key into dest and reports whether it was present
func (c *Cache) getJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal value: %w", err)
	}
	return true, nil
}

// Ping checks the Redis connection
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
