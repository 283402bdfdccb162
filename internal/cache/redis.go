package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix   = "productshot:"
	redisOpTimeout   = 3 * time.Second
	redisPingTimeout = 5 * time.Second
)

// Redis は []byte と string の値だけを扱う Redis バックエンドのキャッシュです。
// 取得時は常に []byte を返します。
type Redis struct {
	client *redis.Client
}

// NewRedis は addr の Redis に接続し、疎通を確認してから Redis を返します。
func NewRedis(ctx context.Context, addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Get(key string) (any, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	val, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("キャッシュの取得に失敗しました", "key", key, "error", err)
		return nil, false
	}
	return val, true
}

func (r *Redis) Set(key string, value any, d time.Duration) {
	switch value.(type) {
	case []byte, string:
	default:
		slog.Warn("Redis キャッシュに保存できない型です", "key", key, "type", fmt.Sprintf("%T", value))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := r.client.Set(ctx, redisKeyPrefix+key, value, max(d, 0)).Err(); err != nil {
		slog.Warn("キャッシュの保存に失敗しました", "key", key, "error", err)
	}
}

// Close は Redis への接続を閉じます。
func (r *Redis) Close() error {
	return r.client.Close()
}
