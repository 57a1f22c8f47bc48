package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AIプロバイダーの選択肢。
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Strava OAuth
	StravaClientID     string
	StravaClientSecret string
	StravaRedirectURL  string

	// Strava API
	StravaTimeout     time.Duration
	ActivitiesPerPage int

	// AI provider
	AIProvider    string
	OpenAIAPIKey  string
	OpenAIModel   string
	OllamaBaseURL string
	OllamaModel   string
	AITimeout     time.Duration
	AIMaxTokens   int

	// Storage
	UseDatabase bool
	DatabaseURL string

	// Cache
	CacheProvider string
	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Rate Limit（req/min単位）
	RateLimitGeneral   int
	RateLimitRecommend int

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.StravaClientID = os.Getenv("STRAVA_CLIENT_ID")
	if cfg.StravaClientID == "" {
		missing = append(missing, "STRAVA_CLIENT_ID")
	}

	cfg.StravaClientSecret = os.Getenv("STRAVA_CLIENT_SECRET")
	if cfg.StravaClientSecret == "" {
		missing = append(missing, "STRAVA_CLIENT_SECRET")
	}

	cfg.StravaRedirectURL = os.Getenv("STRAVA_REDIRECT_URL")
	if cfg.StravaRedirectURL == "" {
		missing = append(missing, "STRAVA_REDIRECT_URL")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.StravaTimeout = getEnvDuration("STRAVA_TIMEOUT", 10*time.Second)
	cfg.ActivitiesPerPage = getEnvInt("ACTIVITIES_PER_PAGE", 50)

	cfg.AIProvider = getEnvString("AI_PROVIDER", ProviderOpenAI)
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAIModel = getEnvString("OPENAI_MODEL", "gpt-3.5-turbo")
	cfg.OllamaBaseURL = getEnvString("OLLAMA_BASE_URL", "http://localhost:11434")
	cfg.OllamaModel = getEnvString("OLLAMA_MODEL", "llama2")
	cfg.AITimeout = getEnvDuration("AI_TIMEOUT", 60*time.Second)
	cfg.AIMaxTokens = getEnvInt("AI_MAX_TOKENS", 4096)

	cfg.UseDatabase = getEnvBool("USE_DATABASE", false)
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	cfg.CacheProvider = getEnvString("CACHE_PROVIDER", "memory")
	cfg.CacheTTL = getEnvDuration("CACHE_TTL", time.Hour)
	cfg.RedisAddr = getEnvString("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = getEnvInt("REDIS_DB", 0)

	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitRecommend = getEnvInt("RATE_LIMIT_RECOMMEND", 10)

	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	// プロバイダー依存の必須項目を検証する
	if cfg.AIProvider == ProviderOpenAI && cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required when AI_PROVIDER=openai")
	}
	if cfg.UseDatabase && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when USE_DATABASE=true")
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
