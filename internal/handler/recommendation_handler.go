package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/sporty/internal/recommend"
)

// RecommendServiceInterface は推奨ハンドラーが必要とするサービスインターフェース。
type RecommendServiceInterface interface {
	Generate(ctx context.Context, extraContext string) (*recommend.Result, error)
	Info() recommend.ProviderInfo
}

// RecommendationHandler はトレーニング推奨のHTTPハンドラー。
type RecommendationHandler struct {
	service RecommendServiceInterface
}

// NewRecommendationHandler はRecommendationHandlerを生成する。
func NewRecommendationHandler(service RecommendServiceInterface) *RecommendationHandler {
	return &RecommendationHandler{service: service}
}

// GetRecommendations はトレーニング推奨を生成して返す。
// GET /api/recommendations?context=xxx
func (h *RecommendationHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	extraContext := r.URL.Query().Get("context")
	// 異常に長い入力はプロンプトインジェクションやコスト増の温床になるため切り詰める
	if len(extraContext) > 500 {
		extraContext = extraContext[:500]
	}

	result, err := h.service.Generate(r.Context(), extraContext)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetProvider は現在のAIプロバイダー情報を返す。
// GET /api/provider
func (h *RecommendationHandler) GetProvider(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Info())
}
