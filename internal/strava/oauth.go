// Package strava はStrava APIとのOAuth認証およびアクティビティ取得を提供する。
package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	defaultAuthorizeURL = "https://www.strava.com/oauth/authorize"
	defaultTokenURL     = "https://www.strava.com/oauth/token"

	// oauthScope は活動の読み取りに必要な最小スコープ。
	oauthScope = "read,activity:read_all"
)

// OAuthConfig はStrava OAuthプロバイダーの設定。
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// テスト用にオーバーライド可能なURL
	AuthorizeURL string
	TokenURL     string
}

// OAuthProvider はStrava OAuth 2.0による認可コード交換とトークンリフレッシュを提供する。
type OAuthProvider struct {
	config     OAuthConfig
	httpClient *http.Client
}

// NewOAuthProvider はOAuthProviderを生成する。
func NewOAuthProvider(config OAuthConfig, httpClient *http.Client) *OAuthProvider {
	if config.AuthorizeURL == "" {
		config.AuthorizeURL = defaultAuthorizeURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultTokenURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OAuthProvider{config: config, httpClient: httpClient}
}

// AuthorizeURL はStravaの認可URLを生成する。
// スコープには read, activity:read_all を含む。
func (p *OAuthProvider) AuthorizeURL(state string) string {
	params := url.Values{
		"client_id":     {p.config.ClientID},
		"redirect_uri":  {p.config.RedirectURL},
		"response_type": {"code"},
		"scope":         {oauthScope},
		"state":         {state},
	}
	return p.config.AuthorizeURL + "?" + params.Encode()
}

// tokenResponse はStravaのトークンエンドポイントのレスポンス。
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	Athlete      struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	} `json:"athlete"`
}

// Tokens はトークンエンドポイントから取得した資格情報。
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64
	AthleteID    int64
}

// ExchangeCode は認可コードをアクセストークンに交換する。
func (p *OAuthProvider) ExchangeCode(ctx context.Context, code string) (*Tokens, error) {
	data := url.Values{
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
	}
	return p.requestTokens(ctx, data)
}

// Refresh はリフレッシュトークンで新しいアクセストークンを取得する。
// 期限タイムスタンプはレスポンスの値で置き換えられる。
func (p *OAuthProvider) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	data := url.Values{
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	}
	return p.requestTokens(ctx, data)
}

// requestTokens はトークンエンドポイントにフォームPOSTしレスポンスを検証する。
func (p *OAuthProvider) requestTokens(ctx context.Context, data url.Values) (*Tokens, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("empty access token in response")
	}

	return &Tokens{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		ExpiresAt:    tokenResp.ExpiresAt,
		AthleteID:    tokenResp.Athlete.ID,
	}, nil
}
