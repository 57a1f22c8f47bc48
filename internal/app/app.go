// Package app はアプリケーションの初期化と起動を提供する。
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hitoshi/sporty/internal/activity"
	"github.com/hitoshi/sporty/internal/ai"
	"github.com/hitoshi/sporty/internal/cache"
	"github.com/hitoshi/sporty/internal/config"
	"github.com/hitoshi/sporty/internal/database"
	"github.com/hitoshi/sporty/internal/handler"
	"github.com/hitoshi/sporty/internal/logger"
	"github.com/hitoshi/sporty/internal/metrics"
	"github.com/hitoshi/sporty/internal/middleware"
	"github.com/hitoshi/sporty/internal/recommend"
	"github.com/hitoshi/sporty/internal/repository"
	"github.com/hitoshi/sporty/internal/strava"
	"github.com/hitoshi/sporty/internal/token"
)

// Init はアプリケーションの初期化を行う。
// .envファイルがあれば読み込み、JSON構造化ログをセットアップし、
// 環境変数からConfigを読み込む。
func Init(w io.Writer) (*config.Config, error) {
	// .envは開発環境用。存在しなくてもエラーにしない
	_ = godotenv.Load()

	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("ai_provider", cfg.AIProvider),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// 全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	ctx := context.Background()

	// 1. トークンリポジトリの初期化
	// USE_DATABASE=falseの場合はプロセス内メモリで動作する
	var tokenRepo repository.TokenRepository
	var db *sql.DB
	storageBackend := "memory"

	if cfg.UseDatabase {
		var err error
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		slog.Info("database connection established")

		tokenRepo = repository.NewPostgresTokenRepo(db)
		storageBackend = "postgres"
	} else {
		tokenRepo = repository.NewMemoryTokenRepo()
	}

	// 2. キャッシュの初期化（Redis接続不可の場合はメモリにフォールバック）
	cacheProvider := cache.New(ctx, cfg)
	slog.Info("cache initialized", slog.String("backend", cacheProvider.Name()))

	// 3. メトリクスの初期化
	collector := metrics.NewCollector()

	// 4. Stravaクライアントの初期化
	stravaHTTPClient := &http.Client{Timeout: cfg.StravaTimeout}
	oauthProvider := strava.NewOAuthProvider(strava.OAuthConfig{
		ClientID:     cfg.StravaClientID,
		ClientSecret: cfg.StravaClientSecret,
		RedirectURL:  cfg.StravaRedirectURL,
	}, stravaHTTPClient)
	activitiesClient := strava.NewActivitiesClient(stravaHTTPClient, slog.Default(), cfg.ActivitiesPerPage)

	// 5. AIプロバイダーの初期化
	aiProvider, err := ai.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize AI provider: %w", err)
	}
	slog.Info("AI provider initialized",
		slog.String("provider", aiProvider.ProviderName()),
		slog.String("model", aiProvider.ModelName()),
	)

	// 6. ドメインサービスの初期化
	tokenService := token.NewService(oauthProvider, tokenRepo)
	activityService := activity.NewService(tokenService, activitiesClient, collector)
	recommendService := recommend.NewService(
		activityService, aiProvider, cacheProvider, collector,
		cfg.CacheTTL, cfg.AIMaxTokens,
	)

	// 7. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitRecommend),
	)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Metrics:           collector,

		TokenService: tokenService,
		AuthConfig: handler.AuthHandlerConfig{
			BaseURL:      cfg.BaseURL,
			CookieSecure: cfg.CookieSecure,
		},

		ActivityService:  activityService,
		RecommendService: recommendService,

		SystemHandler: handler.NewSystemHandler(handler.SystemHandlerConfig{
			StorageBackend: storageBackend,
			CacheBackend:   cacheProvider.Name(),
			AIProvider:     aiProvider.ProviderName(),
		}, db),
	}

	router := handler.NewRouter(deps)

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AITimeout + 15*time.Second, // AI応答待ちを含むため長めに取る
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	if !cfg.UseDatabase {
		return fmt.Errorf("migrate requires USE_DATABASE=true")
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
