// Package cache は推奨結果のキャッシュ層を提供する。
// インメモリ実装とRedis実装を持ち、設定によって切り替える。
package cache

import (
	"context"
	"time"
)

// Provider はキャッシュプロバイダーのインターフェース。
type Provider interface {
	// Get はキーに対応する値を返す。ミス時は (nil, nil) を返す。
	Get(ctx context.Context, key string) ([]byte, error)
	// Set は値をTTL付きで保存する。
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete はキーを削除する。存在しないキーはエラーにしない。
	Delete(ctx context.Context, key string) error
	// Name はプロバイダー名を返す（"memory" または "redis"）。
	Name() string
}
