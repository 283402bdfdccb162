// Package cache は取得済み画像バイト列のキャッシュ実装を提供します。
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultCleanupInterval は期限切れアイテムを掃除する間隔です。
const DefaultCleanupInterval = 10 * time.Minute

// NewMemory はプロセス内の TTL 付きキャッシュを生成します。
// Set に 0 を渡したアイテムは ttl で失効し、ttl が 0 以下なら無期限です。
func NewMemory(ttl time.Duration) *gocache.Cache {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return gocache.New(ttl, DefaultCleanupInterval)
}
