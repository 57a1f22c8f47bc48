package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/sporty/internal/performance"
)

// ActivityServiceInterface はアクティビティハンドラーが必要とするサービスインターフェース。
type ActivityServiceInterface interface {
	RecentActivities(ctx context.Context) ([]performance.ActivityStats, error)
}

// ActivityHandler はアクティビティ取得のHTTPハンドラー。
type ActivityHandler struct {
	service ActivityServiceInterface
}

// NewActivityHandler はActivityHandlerを生成する。
func NewActivityHandler(service ActivityServiceInterface) *ActivityHandler {
	return &ActivityHandler{service: service}
}

// activitiesResponse はアクティビティ一覧のAPIレスポンス。
type activitiesResponse struct {
	TotalActivities int                         `json:"total_activities"`
	Activities      []performance.ActivityStats `json:"activities"`
}

// ListActivities は直近のアクティビティとパフォーマンス統計を返す。
// GET /api/activities
func (h *ActivityHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.RecentActivities(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if stats == nil {
		stats = []performance.ActivityStats{}
	}

	writeJSON(w, http.StatusOK, activitiesResponse{
		TotalActivities: len(stats),
		Activities:      stats,
	})
}
