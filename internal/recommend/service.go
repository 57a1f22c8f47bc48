// Package recommend はアクティビティデータに基づくAIトレーニング推奨の生成を提供する。
package recommend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hitoshi/sporty/internal/ai"
	"github.com/hitoshi/sporty/internal/cache"
	"github.com/hitoshi/sporty/internal/model"
	"github.com/hitoshi/sporty/internal/performance"
)

// ActivitySource は推奨の素材となるアクティビティ統計の取得元。
type ActivitySource interface {
	RecentActivities(ctx context.Context) ([]performance.ActivityStats, error)
}

// AIRecorder はAI呼び出しのメトリクス記録先。
type AIRecorder interface {
	RecordAIRequest(provider string, success bool, duration time.Duration)
	RecordAITokens(provider string, inputTokens, outputTokens int)
	RecordCacheHit(hit bool)
}

// Result は推奨生成の結果。
type Result struct {
	Recommendations string              `json:"recommendations"`
	Schedule        []ScheduleEntry     `json:"schedule"`
	Summary         string              `json:"summary"`
	Metrics         performance.Metrics `json:"metrics"`
	TokenUsage      ai.TokenUsage       `json:"token_usage"`
	ModelUsed       string              `json:"model_used"`
	Provider        string              `json:"provider"`
	Cached          bool                `json:"cached"`
}

// ProviderInfo は現在のAIプロバイダーの情報。
type ProviderInfo struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Service は推奨生成のビジネスロジックを提供する。
type Service struct {
	activities ActivitySource
	provider   ai.Provider
	cache      cache.Provider
	metrics    AIRecorder
	sanitizer  *bluemonday.Policy
	cacheTTL   time.Duration
	maxTokens  int
}

// NewService はServiceを生成する。
func NewService(activities ActivitySource, provider ai.Provider, cacheProvider cache.Provider, metrics AIRecorder, cacheTTL time.Duration, maxTokens int) *Service {
	return &Service{
		activities: activities,
		provider:   provider,
		cache:      cacheProvider,
		metrics:    metrics,
		sanitizer:  bluemonday.StrictPolicy(),
		cacheTTL:   cacheTTL,
		maxTokens:  maxTokens,
	}
}

// Generate はアクティビティデータからトレーニング推奨を生成する。
// 同じデータと要望に対する結果はキャッシュから返す。
func (s *Service) Generate(ctx context.Context, extraContext string) (*Result, error) {
	stats, err := s.activities.RecentActivities(ctx)
	if err != nil {
		return nil, err
	}
	if len(stats) == 0 {
		return nil, model.NewNoPerformanceDataError()
	}

	metrics := performance.CalculateMetrics(stats)
	summary := performance.Summary(metrics)

	cacheKey := s.cacheKey(metrics, extraContext)
	if cached := s.lookupCache(ctx, cacheKey); cached != nil {
		s.metrics.RecordCacheHit(true)
		return cached, nil
	}
	s.metrics.RecordCacheHit(false)

	req := &ai.Request{
		Summary:    summary,
		Metrics:    metrics,
		Activities: stats,
		Context:    extraContext,
		MaxTokens:  s.maxTokens,
	}

	// 応答用の余地を残すため、プロンプトだけで上限に達する場合は拒否する
	promptTokens := s.provider.CountTokens(req.Prompt())
	if promptTokens > s.maxTokens {
		return nil, model.NewTokenLimitError(promptTokens, s.maxTokens)
	}

	started := time.Now()
	resp, err := s.provider.Generate(ctx, req)
	duration := time.Since(started)
	if err != nil {
		s.metrics.RecordAIRequest(s.provider.ProviderName(), false, duration)
		slog.Error("AI recommendation generation failed",
			slog.String("provider", s.provider.ProviderName()),
			slog.String("error", err.Error()),
		)
		return nil, model.NewAIProviderError(s.provider.ProviderName(), err.Error())
	}
	s.metrics.RecordAIRequest(resp.Provider, true, duration)
	s.metrics.RecordAITokens(resp.Provider, resp.Usage.InputTokens, resp.Usage.OutputTokens)

	// スケジュールJSONはサニタイズ前の生テキストから抽出する
	schedule := parseSchedule(resp.Content)
	recommendations := resp.Content
	if schedule != nil {
		recommendations = stripScheduleBlock(recommendations)
	}

	// 残った本文はHTMLとして解釈されうるためタグを除去する。
	// StrictPolicyは引用符等も実体参照にするので、除去後に元の文字へ戻す
	recommendations = html.UnescapeString(s.sanitizer.Sanitize(recommendations))

	result := &Result{
		Recommendations: recommendations,
		Schedule:        schedule,
		Summary:         summary,
		Metrics:         metrics,
		TokenUsage:      resp.Usage,
		ModelUsed:       resp.Model,
		Provider:        resp.Provider,
	}

	s.storeCache(ctx, cacheKey, result)

	slog.Info("recommendation generated",
		slog.String("provider", resp.Provider),
		slog.String("model", resp.Model),
		slog.Int("total_tokens", resp.Usage.TotalTokens),
		slog.Duration("duration", duration),
	)
	return result, nil
}

// Info は現在のAIプロバイダーの情報を返す。
func (s *Service) Info() ProviderInfo {
	return ProviderInfo{
		Provider: s.provider.ProviderName(),
		Model:    s.provider.ModelName(),
	}
}

// cacheKey はメトリクスと要望のハッシュからキャッシュキーを生成する。
// アクティビティデータが変われば集計メトリクスも変わるため、キーが自然に無効化される。
func (s *Service) cacheKey(metrics performance.Metrics, extraContext string) string {
	payload, _ := json.Marshal(struct {
		Metrics performance.Metrics `json:"metrics"`
		Context string              `json:"context"`
	}{metrics, extraContext})

	sum := sha256.Sum256(payload)
	return fmt.Sprintf("recommendation:%s", hex.EncodeToString(sum[:16]))
}

func (s *Service) lookupCache(ctx context.Context, key string) *Result {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("cache lookup failed", slog.String("error", err.Error()))
		return nil
	}
	if data == nil {
		return nil
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		slog.Warn("failed to decode cached recommendation", slog.String("error", err.Error()))
		return nil
	}
	result.Cached = true
	return &result
}

func (s *Service) storeCache(ctx context.Context, key string, result *Result) {
	data, err := json.Marshal(result)
	if err != nil {
		slog.Warn("failed to encode recommendation for cache", slog.String("error", err.Error()))
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		slog.Warn("failed to store recommendation in cache", slog.String("error", err.Error()))
	}
}
