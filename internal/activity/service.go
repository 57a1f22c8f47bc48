// Package activity はStravaアクティビティの取得とパフォーマンス統計の抽出を提供する。
package activity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/sporty/internal/model"
	"github.com/hitoshi/sporty/internal/performance"
	"github.com/hitoshi/sporty/internal/token"
)

// StravaClient はアクティビティ取得に必要なStrava APIの操作。
type StravaClient interface {
	ListActivities(ctx context.Context, accessToken string) ([]model.Activity, error)
}

// TokenSource は有効なアクセストークンの取得元。
type TokenSource interface {
	EnsureFresh(ctx context.Context) (*model.StravaTokens, error)
}

// FetchRecorder はStrava取得結果のメトリクス記録先。
type FetchRecorder interface {
	RecordStravaFetch(success bool)
}

// Service はアクティビティ取得のビジネスロジックを提供する。
type Service struct {
	tokens  TokenSource
	strava  StravaClient
	metrics FetchRecorder
}

// compile-time interface check
var _ TokenSource = (*token.Service)(nil)

// NewService はServiceを生成する。
func NewService(tokens TokenSource, strava StravaClient, metrics FetchRecorder) *Service {
	return &Service{tokens: tokens, strava: strava, metrics: metrics}
}

// RecentActivities は直近のアクティビティを取得し統計を抽出して返す。
// アクセストークンが期限切れの場合は透過的にリフレッシュする。
func (s *Service) RecentActivities(ctx context.Context) ([]performance.ActivityStats, error) {
	tokens, err := s.tokens.EnsureFresh(ctx)
	if err != nil {
		return nil, err
	}

	activities, err := s.strava.ListActivities(ctx, tokens.AccessToken)
	if err != nil {
		s.metrics.RecordStravaFetch(false)
		return nil, fmt.Errorf("failed to fetch activities: %w", err)
	}
	s.metrics.RecordStravaFetch(true)

	stats := performance.ExtractStats(activities)
	slog.Debug("activities fetched",
		slog.Int("total", len(activities)),
		slog.Int("with_stats", len(stats)),
	)
	return stats, nil
}
