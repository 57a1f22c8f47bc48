package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache はプロセス内メモリで動作するキャッシュ実装。
// 期限切れエントリは読み取り時に破棄する。
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// compile-time interface check
var _ Provider = (*MemoryCache)(nil)

// NewMemoryCache はMemoryCacheを生成する。
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
	}
}

// Get はキーに対応する値を返す。ミスまたは期限切れの場合は (nil, nil) を返す。
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, nil
	}

	// 呼び出し側の変更から保護するためコピーを返す
	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, nil
}

// Set は値をTTL付きで保存する。
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	c.mu.Lock()
	c.entries[key] = memoryEntry{
		value:     stored,
		expiresAt: time.Now().Add(ttl),
	}
	c.mu.Unlock()
	return nil
}

// Delete はキーを削除する。
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Name はプロバイダー名を返す。
func (c *MemoryCache) Name() string {
	return "memory"
}
