package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"
)

// SystemHandlerConfig はシステム系エンドポイントの設定。
type SystemHandlerConfig struct {
	StorageBackend string // "memory" または "postgres"
	CacheBackend   string // "memory" または "redis"
	AIProvider     string
}

// SystemHandler はヘルスチェックと構成情報のHTTPハンドラー。
type SystemHandler struct {
	config SystemHandlerConfig
	db     *sql.DB // インメモリストレージの場合はnil
}

// NewSystemHandler はSystemHandlerを生成する。
func NewSystemHandler(config SystemHandlerConfig, db *sql.DB) *SystemHandler {
	return &SystemHandler{config: config, db: db}
}

// Health はヘルスチェックを処理する。
// データベース使用時は接続確認も行い、失敗時は503を返す。
// GET /health
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.PingContext(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"reason": "database unreachable",
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// StorageInfo は現在のストレージ・キャッシュ構成を返す。
// persistentは再起動をまたいでトークンが保持されるかどうかを示す。
// GET /api/storage
func (h *SystemHandler) StorageInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"storage_backend": h.config.StorageBackend,
		"cache_backend":   h.config.CacheBackend,
		"ai_provider":     h.config.AIProvider,
		"persistent":      h.config.StorageBackend == "postgres",
	})
}
