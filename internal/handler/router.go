package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/sporty/internal/metrics"
	"github.com/hitoshi/sporty/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Metrics           *metrics.Collector

	// 認証
	TokenService TokenServiceInterface
	AuthConfig   AuthHandlerConfig

	// アクティビティ
	ActivityService ActivityServiceInterface

	// 推奨
	RecommendService RecommendServiceInterface

	// システム
	SystemHandler *SystemHandler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → RequestID → Logging → Recovery → RateLimit(General)
//
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルートに効くミドルウェア
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.Metrics))
	r.Use(middleware.NewRecoveryMiddleware())

	authHandler := NewAuthHandler(deps.TokenService, deps.AuthConfig)
	activityHandler := NewActivityHandler(deps.ActivityService)
	recommendHandler := NewRecommendationHandler(deps.RecommendService)

	// --- レート制限の外のルート ---

	r.Get("/health", deps.SystemHandler.Health)
	metrics.SetupMetricsRoute(r, deps.Metrics)

	// OAuthフロー
	r.Route("/auth/strava", func(r chi.Router) {
		r.Get("/login", authHandler.Login)
		r.Get("/callback", authHandler.Callback)
	})

	// --- API全般のレート制限が効くルート ---
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// トークン管理
		r.Get("/api/token/status", authHandler.TokenStatus)
		r.Delete("/api/token", authHandler.Disconnect)

		// アクティビティ
		r.Get("/api/activities", activityHandler.ListActivities)

		// 推奨（専用レート制限を追加）
		r.With(deps.RateLimiter.RecommendMiddleware()).
			Get("/api/recommendations", recommendHandler.GetRecommendations)
		r.Get("/api/provider", recommendHandler.GetProvider)

		// システム情報
		r.Get("/api/storage", deps.SystemHandler.StorageInfo)
	})

	return r
}
