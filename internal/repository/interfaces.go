// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/sporty/internal/model"
)

// TokenRepository はStravaトークンの永続化インターフェース。
// アプリケーションは単一アスリートを前提とするため、保持するトークンは常に1組。
type TokenRepository interface {
	// Save はトークンを保存する。既存のトークンは上書きされる。
	Save(ctx context.Context, tokens *model.StravaTokens) error

	// Get は保存されたトークンを取得する。未保存の場合はnilを返す。
	Get(ctx context.Context) (*model.StravaTokens, error)

	// Has はトークンが保存されているかどうかを返す。
	Has(ctx context.Context) (bool, error)

	// Delete は保存されたトークンを削除する。未保存でもエラーにしない。
	Delete(ctx context.Context) error
}
