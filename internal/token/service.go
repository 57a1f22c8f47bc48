// Package token はStravaトークンのライフサイクル管理を提供する。
// OAuthコールバックの処理、期限チェック、期限切れ時の透過的なリフレッシュを含む。
package token

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/sporty/internal/model"
	"github.com/hitoshi/sporty/internal/repository"
	"github.com/hitoshi/sporty/internal/strava"
)

// OAuthProvider はトークンサービスが必要とするOAuth操作のインターフェース。
// strava.OAuthProviderの部分集合として定義する。
type OAuthProvider interface {
	// AuthorizeURL はStravaの認可URLを生成する。
	AuthorizeURL(state string) string
	// ExchangeCode は認可コードをトークンに交換する。
	ExchangeCode(ctx context.Context, code string) (*strava.Tokens, error)
	// Refresh はリフレッシュトークンで新しいアクセストークンを取得する。
	Refresh(ctx context.Context, refreshToken string) (*strava.Tokens, error)
}

// Status はトークンの保存状態と期限情報を表す。
type Status struct {
	Status          string `json:"status"` // "no_tokens" または "tokens_available"
	IsExpired       bool   `json:"is_expired"`
	TimeUntilExpiry int64  `json:"time_until_expiry"`
	AthleteID       int64  `json:"athlete_id"`
}

// Service はトークンに関するビジネスロジックを提供する。
type Service struct {
	oauth OAuthProvider
	repo  repository.TokenRepository
}

// NewService はServiceを生成する。
func NewService(oauth OAuthProvider, repo repository.TokenRepository) *Service {
	return &Service{oauth: oauth, repo: repo}
}

// AuthorizeURL はStravaの認可URLを生成する。
func (s *Service) AuthorizeURL(state string) string {
	return s.oauth.AuthorizeURL(state)
}

// HandleCallback はOAuthコールバックを処理し、交換したトークンを保存する。
func (s *Service) HandleCallback(ctx context.Context, code string) (*model.StravaTokens, error) {
	exchanged, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	tokens := &model.StravaTokens{
		AccessToken:  exchanged.AccessToken,
		RefreshToken: exchanged.RefreshToken,
		ExpiresAt:    exchanged.ExpiresAt,
		AthleteID:    exchanged.AthleteID,
	}

	if err := s.repo.Save(ctx, tokens); err != nil {
		return nil, fmt.Errorf("failed to save tokens: %w", err)
	}

	slog.Info("strava account connected",
		slog.Int64("athlete_id", tokens.AthleteID),
		slog.Int64("expires_at", tokens.ExpiresAt),
	)
	return tokens, nil
}

// GetStatus は保存されたトークンの状態を返す。
func (s *Service) GetStatus(ctx context.Context) (*Status, error) {
	has, err := s.repo.Has(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check tokens: %w", err)
	}
	if !has {
		return &Status{Status: "no_tokens"}, nil
	}

	tokens, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokens: %w", err)
	}
	if tokens == nil {
		return &Status{Status: "no_tokens"}, nil
	}

	return &Status{
		Status:          "tokens_available",
		IsExpired:       tokens.IsExpired(),
		TimeUntilExpiry: tokens.TimeUntilExpiry(),
		AthleteID:       tokens.AthleteID,
	}, nil
}

// Disconnect は保存されたトークンを破棄しStrava連携を解除する。
func (s *Service) Disconnect(ctx context.Context) error {
	if err := s.repo.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete tokens: %w", err)
	}
	slog.Info("strava account disconnected")
	return nil
}

// EnsureFresh は有効なアクセストークンを返す。
// 期限切れの場合はリフレッシュトークンで更新し、更新後のトークンを保存してから返す。
// トークンが未保存の場合はAPIErrorのNOT_AUTHENTICATEDを返す。
func (s *Service) EnsureFresh(ctx context.Context) (*model.StravaTokens, error) {
	tokens, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokens: %w", err)
	}
	if tokens == nil {
		return nil, model.NewNotAuthenticatedError()
	}

	if !tokens.IsExpired() {
		return tokens, nil
	}

	if tokens.RefreshToken == "" {
		return nil, model.NewNotAuthenticatedError()
	}

	refreshed, err := s.oauth.Refresh(ctx, tokens.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh access token: %w", err)
	}

	tokens.AccessToken = refreshed.AccessToken
	tokens.ExpiresAt = refreshed.ExpiresAt
	if refreshed.RefreshToken != "" {
		tokens.RefreshToken = refreshed.RefreshToken
	}

	if err := s.repo.Save(ctx, tokens); err != nil {
		return nil, fmt.Errorf("failed to save refreshed tokens: %w", err)
	}

	slog.Info("access token refreshed",
		slog.Int64("athlete_id", tokens.AthleteID),
		slog.Int64("expires_at", tokens.ExpiresAt),
	)
	return tokens, nil
}
