// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, strava, ai, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeNotAuthenticated  = "NOT_AUTHENTICATED"
	ErrCodeInvalidState      = "INVALID_STATE"
	ErrCodeTokenExchange     = "TOKEN_EXCHANGE_FAILED"
	ErrCodeStravaAPI         = "STRAVA_API_ERROR"
	ErrCodeNoPerformanceData = "NO_PERFORMANCE_DATA"
	ErrCodeAIProvider        = "AI_PROVIDER_ERROR"
	ErrCodeTokenLimit        = "TOKEN_LIMIT_EXCEEDED"
)

// NewNotAuthenticatedError はStrava未連携エラーを生成する。
func NewNotAuthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeNotAuthenticated,
		Message:  "Stravaと連携されていません。",
		Category: "auth",
		Action:   "Stravaアカウントを接続してください。",
	}
}

// NewInvalidStateError はOAuthのstate検証失敗エラーを生成する。
func NewInvalidStateError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidState,
		Message:  "OAuthのstateパラメータが一致しません。",
		Category: "auth",
		Action:   "連携フローを最初からやり直してください。",
	}
}

// NewTokenExchangeError はトークン交換失敗エラーを生成する。
func NewTokenExchangeError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeTokenExchange,
		Message:  fmt.Sprintf("Stravaとのトークン交換に失敗しました: %s", reason),
		Category: "auth",
		Action:   "しばらく待ってから再度連携をお試しください。",
	}
}

// NewStravaAPIError はStrava API呼び出し失敗エラーを生成する。
func NewStravaAPIError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeStravaAPI,
		Message:  fmt.Sprintf("Strava APIの呼び出しに失敗しました: %s", reason),
		Category: "strava",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewNoPerformanceDataError はパフォーマンスデータ不足エラーを生成する。
func NewNoPerformanceDataError() *APIError {
	return &APIError{
		Code:     ErrCodeNoPerformanceData,
		Message:  "パフォーマンスデータを持つアクティビティが見つかりません。",
		Category: "validation",
		Action:   "Stravaにアクティビティを記録してから再度お試しください。",
	}
}

// NewAIProviderError はAIプロバイダー呼び出し失敗エラーを生成する。
func NewAIProviderError(provider, reason string) *APIError {
	return &APIError{
		Code:     ErrCodeAIProvider,
		Message:  fmt.Sprintf("AIサービス（%s）の呼び出しに失敗しました: %s", provider, reason),
		Category: "ai",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewTokenLimitError は入力トークン上限超過エラーを生成する。
func NewTokenLimitError(tokens, limit int) *APIError {
	return &APIError{
		Code:     ErrCodeTokenLimit,
		Message:  fmt.Sprintf("入力プロンプトがトークン上限を超えています: %d > %d", tokens, limit),
		Category: "ai",
		Action:   "対象のアクティビティ数を減らしてお試しください。",
	}
}
