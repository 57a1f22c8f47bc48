// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/hitoshi/sporty/internal/model"
	"github.com/hitoshi/sporty/internal/token"
)

const oauthStateCookie = "oauth_state"

// TokenServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type TokenServiceInterface interface {
	AuthorizeURL(state string) string
	HandleCallback(ctx context.Context, code string) (*model.StravaTokens, error)
	GetStatus(ctx context.Context) (*token.Status, error)
	Disconnect(ctx context.Context) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	BaseURL      string // コールバック完了後のリダイレクト先
	CookieSecure bool
}

// AuthHandler はStrava OAuth関連のHTTPハンドラー。
type AuthHandler struct {
	service TokenServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service TokenServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// Login はStrava OAuthフローを開始する。
// GET /auth/strava/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := generateState()
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// stateをCookieに保存（CSRF対策）
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10分
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	url := h.service.AuthorizeURL(state)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// Callback はStravaのOAuthコールバックを処理する。
// GET /auth/strava/callback?code=xxx&state=yyy
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	// 1. stateの検証（CSRF対策）
	state := r.URL.Query().Get("state")
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || state == "" || stateCookie.Value != state {
		slog.Warn("oauth state mismatch", slog.String("query_state", state))
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidStateError())
		return
	}

	// stateクッキーを削除
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	// 2. 認可コードの取得
	// ユーザーが認可を拒否した場合はerrorパラメータが付く
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		slog.Warn("oauth authorization denied", slog.String("error", errParam))
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewTokenExchangeError("認可が拒否されました"))
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewTokenExchangeError("認可コードがありません"))
		return
	}

	// 3. トークン交換と保存
	if _, err := h.service.HandleCallback(r.Context(), code); err != nil {
		slog.Error("oauth callback failed", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusBadGateway, model.NewTokenExchangeError(err.Error()))
		return
	}

	// 4. フロントエンドにリダイレクト
	http.Redirect(w, r, h.config.BaseURL, http.StatusTemporaryRedirect)
}

// TokenStatus は保存済みトークンの状態を返す。
// GET /api/token/status
func (h *AuthHandler) TokenStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.GetStatus(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// Disconnect は保存済みトークンを破棄しStrava連携を解除する。
// DELETE /api/token
func (h *AuthHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Disconnect(r.Context()); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "disconnected",
	})
}

// generateState はOAuthのstateパラメータ用ランダム文字列を生成する。
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
