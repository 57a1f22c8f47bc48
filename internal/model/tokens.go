// Package model はドメインモデルを定義する。
package model

import "time"

// StravaTokens はStravaのOAuthトークン一式を表す。
// OAuthコード交換とリフレッシュでのみ書き換えられる。
type StravaTokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64 // UNIX秒
	AthleteID    int64
	UpdatedAt    time.Time
}

// IsExpired はアクセストークンが期限切れかどうかを返す。
// 期限が未設定の場合は期限切れとして扱う。
func (t *StravaTokens) IsExpired() bool {
	if t.ExpiresAt == 0 {
		return true
	}
	return time.Now().Unix() > t.ExpiresAt
}

// TimeUntilExpiry は期限までの残り秒数を返す。期限切れの場合は0を返す。
func (t *StravaTokens) TimeUntilExpiry() int64 {
	if t.ExpiresAt == 0 {
		return 0
	}
	remaining := t.ExpiresAt - time.Now().Unix()
	if remaining < 0 {
		return 0
	}
	return remaining
}
