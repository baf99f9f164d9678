package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "bizsurvey:analytics"
	defaultTTL    = 5 * time.Minute
)

// AnalyticsCache は Redis 上に集計結果を JSON で保持する。
// キーは世代番号を含み、Invalidate で世代を進めると古いエントリは参照されなくなり TTL で消える。
type AnalyticsCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewAnalyticsCache は Redis クライアントと TTL を束縛したキャッシュを返す。
func NewAnalyticsCache(client redis.UniversalClient, ttl time.Duration) *AnalyticsCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &AnalyticsCache{client: client, prefix: defaultPrefix, ttl: ttl}
}

func (c *AnalyticsCache) generationKey() string {
	return c.prefix + ":gen"
}

func (c *AnalyticsCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *AnalyticsCache) entryKey(gen int64, key string) string {
	return fmt.Sprintf("%s:%d:%s", c.prefix, gen, key)
}

// Get はヒットした場合に dst へデコードして true を返す。
// 返した世代番号は集計後の Set にそのまま渡す。
func (c *AnalyticsCache) Get(ctx context.Context, key string, dst any) (bool, int64, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return false, 0, err
	}
	raw, err := c.client.Get(ctx, c.entryKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, gen, nil
	}
	if err != nil {
		return false, gen, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, gen, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, gen, nil
}

// Set は Get 時点の世代で値を保存する。途中で無効化されていれば古い世代に書かれ、参照されない。
func (c *AnalyticsCache) Set(ctx context.Context, gen int64, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.client.Set(ctx, c.entryKey(gen, key), raw, c.ttl).Err()
}

// Invalidate は世代番号を進める。
func (c *AnalyticsCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, c.generationKey()).Err()
}

// Ping はヘルスチェック用。
func (c *AnalyticsCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Noop は Redis 未設定時に使うキャッシュ。常にミスし、無効化も何もしない。
type Noop struct{}

func (Noop) Get(context.Context, string, any) (bool, int64, error) { return false, 0, nil }
func (Noop) Set(context.Context, int64, string, any) error         { return nil }
func (Noop) Invalidate(context.Context) error                      { return nil }
