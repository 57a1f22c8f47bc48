package repository

import (
	"context"
	"sync"
	"time"

	"github.com/hitoshi/sporty/internal/model"
)

// MemoryTokenRepo はプロセス内メモリに保持するトークンリポジトリ。
// 再起動でトークンは失われる。開発およびデータベース未使用時のデフォルト。
type MemoryTokenRepo struct {
	mu     sync.RWMutex
	tokens *model.StravaTokens
}

// NewMemoryTokenRepo はMemoryTokenRepoを生成する。
func NewMemoryTokenRepo() *MemoryTokenRepo {
	return &MemoryTokenRepo{}
}

// Save はトークンをメモリに保存する。
func (r *MemoryTokenRepo) Save(ctx context.Context, tokens *model.StravaTokens) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	saved := *tokens
	saved.UpdatedAt = time.Now()
	r.tokens = &saved
	return nil
}

// Get は保存されたトークンを返す。未保存の場合はnilを返す。
func (r *MemoryTokenRepo) Get(ctx context.Context) (*model.StravaTokens, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.tokens == nil {
		return nil, nil
	}
	tokens := *r.tokens
	return &tokens, nil
}

// Has はトークンが保存されているかどうかを返す。
func (r *MemoryTokenRepo) Has(ctx context.Context) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.tokens != nil, nil
}

// Delete は保存されたトークンを破棄する。
func (r *MemoryTokenRepo) Delete(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens = nil
	return nil
}

// compile-time interface check
var _ TokenRepository = (*MemoryTokenRepo)(nil)
