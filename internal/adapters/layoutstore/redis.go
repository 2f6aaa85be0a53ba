package layoutstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/okian/draftlens/internal/domain/layout"
	"github.com/okian/draftlens/pkg/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultKey = "draftlens:custom_layouts"

// Option configures a Redis store.
type Option func(*Redis)

// WithKey sets the hash key holding the layouts.
func WithKey(key string) Option {
	return func(r *Redis) {
		if key != "" {
			r.key = key
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Redis) {
		if l != nil {
			r.log = l
		}
	}
}

// Redis keeps custom layouts in one hash: field = WIDTHxHEIGHT,
// value = layout JSON.
type Redis struct {
	client *redis.Client
	key    string
	log    logger.Logger
}

var _ layout.CustomStore = (*Redis)(nil)

// NewRedis connects to url and verifies the connection.
func NewRedis(ctx context.Context, url string, opts ...Option) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRedisURL, err)
	}
	opt.PoolSize = 4
	opt.MinIdleConns = 1
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second

	r := &Redis{
		client: redis.NewClient(opt),
		key:    defaultKey,
	}
	for _, o := range opts {
		o(r)
	}
	if r.log == nil {
		r.log = logger.Get().Named("layoutstore")
	}

	if err := r.client.Ping(ctx).Err(); err != nil {
		_ = r.client.Close()
		return nil, fmt.Errorf("%w: %w", ErrRedisPing, err)
	}
	r.log.Info(ctx, "redis layout store connected", logger.String("key", r.key))
	return r, nil
}

// Get loads the layout saved for resolution.
func (r *Redis) Get(ctx context.Context, resolution string) (layout.Layout, bool, error) {
	data, err := r.client.HGet(ctx, r.key, resolution).Bytes()
	if errors.Is(err, redis.Nil) {
		return layout.Layout{}, false, nil
	}
	if err != nil {
		return layout.Layout{}, false, fmt.Errorf("hget %s: %w", resolution, err)
	}
	var l layout.Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return layout.Layout{}, false, fmt.Errorf("%w: %s: %w", ErrBadPayload, resolution, err)
	}
	return l, true, nil
}

// Save stores the layout for resolution.
func (r *Redis) Save(ctx context.Context, resolution string, l layout.Layout) error {
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("marshal layout: %w", err)
	}
	if err := r.client.HSet(ctx, r.key, resolution, data).Err(); err != nil {
		return fmt.Errorf("hset %s: %w", resolution, err)
	}
	return nil
}

// Delete removes the layout for resolution.
func (r *Redis) Delete(ctx context.Context, resolution string) error {
	n, err := r.client.HDel(ctx, r.key, resolution).Result()
	if err != nil {
		return fmt.Errorf("hdel %s: %w", resolution, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: custom %s", layout.ErrNotFound, resolution)
	}
	return nil
}

// List returns the saved resolutions in sorted order.
func (r *Redis) List(ctx context.Context) ([]string, error) {
	keys, err := r.client.HKeys(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("hkeys: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
