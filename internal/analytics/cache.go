package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheVersionPrefix = "analytics:version"
	bumpChannel        = "gl.bump"
)

// Cache wraps Redis based caching with per-tenant versioning. Bumping the
// version orphans every key built under the previous one.
type Cache struct {
	client *redis.Client
	tenant string
	ttl    time.Duration
}

// NewCache instantiates the cache helper for one tenant.
func NewCache(client *redis.Client, tenant string, ttl time.Duration) *Cache {
	return &Cache{client: client, tenant: tenant, ttl: ttl}
}

func (c *Cache) versionKey() string {
	return cacheVersionPrefix + ":" + c.tenant
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, c.versionKey()).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, c.versionKey(), 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, c.versionKey()).Int64()
	}
	if err != nil {
		return 0, err
	}
	if ver <= 0 {
		ver = 1
		if err := c.client.Set(ctx, c.versionKey(), ver, 0).Err(); err != nil {
			return 0, err
		}
	}
	return ver, nil
}

// BuildKey composes analytics:<report>:<tenant>:<parts...>:<version>.
func (c *Cache) BuildKey(ctx context.Context, report string, parts ...string) (string, error) {
	tenant := "-"
	if c != nil && c.tenant != "" {
		tenant = c.tenant
	}
	joined := strings.Join(append([]string{"analytics", report, tenant}, parts...), ":")
	if c == nil || c.client == nil {
		return joined, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d", joined, ver), nil
}

// FetchJSON loads a cached value or populates it using the loader.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if c == nil || c.client == nil {
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, dest)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if !errors.Is(err, redis.Nil) {
		return err
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Bump invalidates the tenant's cache by incrementing its version and
// publishing "<tenant>:<version>" on the bump channel.
func (c *Cache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	ver, err := c.client.Incr(ctx, c.versionKey()).Result()
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, bumpChannel, c.tenant+":"+strconv.FormatInt(ver, 10)).Err()
}

// ListenForInvalidation subscribes to version bump notifications published by
// other processes sharing the tenant. Messages for other tenants are ignored.
func (c *Cache) ListenForInvalidation(ctx context.Context, channel string) error {
	if c == nil || c.client == nil {
		return nil
	}
	if channel == "" {
		channel = bumpChannel
	}
	pubsub := c.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				tenant, payload, found := strings.Cut(msg.Payload, ":")
				if !found {
					tenant, payload = msg.Payload, ""
				}
				if tenant != c.tenant {
					continue
				}
				if ver, err := strconv.ParseInt(payload, 10, 64); err == nil {
					c.raiseVersion(ctx, ver)
					continue
				}
				_ = c.client.Incr(ctx, c.versionKey()).Err()
			}
		}
	}()
	return nil
}

// raiseVersion moves the version forward to ver; it never goes backwards.
func (c *Cache) raiseVersion(ctx context.Context, ver int64) {
	current, err := c.client.Get(ctx, c.versionKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return
	}
	if ver > current {
		_ = c.client.Set(ctx, c.versionKey(), ver, 0).Err()
	}
}

func dateToken(t time.Time) string {
	return t.Format("2006-01-02")
}
