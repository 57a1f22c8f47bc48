package strava

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestOAuthProvider_AuthorizeURL(t *testing.T) {
	p := NewOAuthProvider(OAuthConfig{
		ClientID:    "12345",
		RedirectURL: "http://localhost:8080/auth/strava/callback",
	}, nil)

	raw := p.AuthorizeURL("state-abc")

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse authorize URL: %v", err)
	}
	if !strings.HasPrefix(raw, "https://www.strava.com/oauth/authorize?") {
		t.Errorf("URL = %q, should use strava authorize endpoint", raw)
	}

	q := u.Query()
	if q.Get("client_id") != "12345" {
		t.Errorf("client_id = %q, want 12345", q.Get("client_id"))
	}
	if q.Get("response_type") != "code" {
		t.Errorf("response_type = %q, want code", q.Get("response_type"))
	}
	if q.Get("scope") != "read,activity:read_all" {
		t.Errorf("scope = %q, want read,activity:read_all", q.Get("scope"))
	}
	if q.Get("state") != "state-abc" {
		t.Errorf("state = %q, want state-abc", q.Get("state"))
	}
}

func TestOAuthProvider_ExchangeCode(t *testing.T) {
	var gotForm url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		gotForm = r.PostForm

		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at-123",
			"refresh_token": "rt-456",
			"expires_at":    1900000000,
			"athlete":       map[string]any{"id": 42, "username": "runner"},
		})
	}))
	defer server.Close()

	p := NewOAuthProvider(OAuthConfig{
		ClientID:     "12345",
		ClientSecret: "secret",
		TokenURL:     server.URL,
	}, server.Client())

	tokens, err := p.ExchangeCode(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("ExchangeCode() error = %v", err)
	}

	if gotForm.Get("grant_type") != "authorization_code" {
		t.Errorf("grant_type = %q, want authorization_code", gotForm.Get("grant_type"))
	}
	if gotForm.Get("code") != "auth-code" {
		t.Errorf("code = %q, want auth-code", gotForm.Get("code"))
	}
	if gotForm.Get("client_secret") != "secret" {
		t.Errorf("client_secret = %q, want secret", gotForm.Get("client_secret"))
	}

	if tokens.AccessToken != "at-123" {
		t.Errorf("AccessToken = %q, want at-123", tokens.AccessToken)
	}
	if tokens.RefreshToken != "rt-456" {
		t.Errorf("RefreshToken = %q, want rt-456", tokens.RefreshToken)
	}
	if tokens.ExpiresAt != 1900000000 {
		t.Errorf("ExpiresAt = %d, want 1900000000", tokens.ExpiresAt)
	}
	if tokens.AthleteID != 42 {
		t.Errorf("AthleteID = %d, want 42", tokens.AthleteID)
	}
}

func TestOAuthProvider_Refresh(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		if gt := r.PostForm.Get("grant_type"); gt != "refresh_token" {
			t.Errorf("grant_type = %q, want refresh_token", gt)
		}
		if rt := r.PostForm.Get("refresh_token"); rt != "rt-old" {
			t.Errorf("refresh_token = %q, want rt-old", rt)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at-new",
			"refresh_token": "rt-new",
			"expires_at":    1900003600,
		})
	}))
	defer server.Close()

	p := NewOAuthProvider(OAuthConfig{TokenURL: server.URL}, server.Client())

	tokens, err := p.Refresh(context.Background(), "rt-old")
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if tokens.AccessToken != "at-new" {
		t.Errorf("AccessToken = %q, want at-new", tokens.AccessToken)
	}
	if tokens.RefreshToken != "rt-new" {
		t.Errorf("RefreshToken = %q, want rt-new", tokens.RefreshToken)
	}
}

func TestOAuthProvider_ExchangeCode_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Bad Request"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	p := NewOAuthProvider(OAuthConfig{TokenURL: server.URL}, server.Client())

	if _, err := p.ExchangeCode(context.Background(), "bad-code"); err == nil {
		t.Fatal("400レスポンスでExchangeCodeが成功してしまった")
	}
}

func TestOAuthProvider_ExchangeCode_EmptyAccessToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"access_token": ""})
	}))
	defer server.Close()

	p := NewOAuthProvider(OAuthConfig{TokenURL: server.URL}, server.Client())

	if _, err := p.ExchangeCode(context.Background(), "code"); err == nil {
		t.Fatal("空アクセストークンでExchangeCodeが成功してしまった")
	}
}
