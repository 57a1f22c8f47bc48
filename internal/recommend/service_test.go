package recommend

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/sporty/internal/ai"
	"github.com/hitoshi/sporty/internal/cache"
	"github.com/hitoshi/sporty/internal/model"
	"github.com/hitoshi/sporty/internal/performance"
)

// --- モック定義 ---

type mockActivitySource struct {
	recentActivitiesFn func(ctx context.Context) ([]performance.ActivityStats, error)
}

func (m *mockActivitySource) RecentActivities(ctx context.Context) ([]performance.ActivityStats, error) {
	if m.recentActivitiesFn != nil {
		return m.recentActivitiesFn(ctx)
	}
	return nil, nil
}

type mockAIProvider struct {
	generateFn    func(ctx context.Context, req *ai.Request) (*ai.Response, error)
	countTokensFn func(text string) int
}

func (m *mockAIProvider) Generate(ctx context.Context, req *ai.Request) (*ai.Response, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, req)
	}
	return &ai.Response{Content: "ok", Provider: "openai", Model: "test-model"}, nil
}

func (m *mockAIProvider) CountTokens(text string) int {
	if m.countTokensFn != nil {
		return m.countTokensFn(text)
	}
	return len(text) / 4
}

func (m *mockAIProvider) ProviderName() string { return "openai" }
func (m *mockAIProvider) ModelName() string    { return "test-model" }

type mockAIRecorder struct {
	aiRequests int
	cacheHits  int
	cacheMiss  int
}

func (m *mockAIRecorder) RecordAIRequest(provider string, success bool, duration time.Duration) {
	m.aiRequests++
}
func (m *mockAIRecorder) RecordAITokens(provider string, inputTokens, outputTokens int) {}
func (m *mockAIRecorder) RecordCacheHit(hit bool) {
	if hit {
		m.cacheHits++
	} else {
		m.cacheMiss++
	}
}

func sampleStats() []performance.ActivityStats {
	return []performance.ActivityStats{
		{
			Activity:          model.Activity{Name: "Morning Run", SportType: "Run"},
			DistanceKm:        5,
			MovingTimeMinutes: 30,
		},
	}
}

func newTestService(source ActivitySource, provider ai.Provider, recorder AIRecorder) *Service {
	return NewService(source, provider, cache.NewMemoryCache(), recorder, time.Hour, 4096)
}

// --- テスト ---

func TestService_Generate_Success(t *testing.T) {
	source := &mockActivitySource{
		recentActivitiesFn: func(ctx context.Context) ([]performance.ActivityStats, error) {
			return sampleStats(), nil
		},
	}
	provider := &mockAIProvider{
		generateFn: func(ctx context.Context, req *ai.Request) (*ai.Response, error) {
			return &ai.Response{
				Content: "推奨です。\n```json\n{\"schedule\": [{\"day\": \"月曜日\", \"workout\": \"ジョグ\"}]}\n```",
				Usage:   ai.TokenUsage{InputTokens: 100, OutputTokens: 50, TotalTokens: 150},
				Model:   "test-model",
				Provider: "openai",
			}, nil
		},
	}
	recorder := &mockAIRecorder{}
	svc := newTestService(source, provider, recorder)

	result, err := svc.Generate(context.Background(), "")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(result.Schedule) != 1 || result.Schedule[0].Day != "月曜日" {
		t.Errorf("Schedule = %+v", result.Schedule)
	}
	if strings.Contains(result.Recommendations, "schedule") {
		t.Errorf("Recommendations = %q, JSONブロックが残っている", result.Recommendations)
	}
	if result.TokenUsage.TotalTokens != 150 {
		t.Errorf("TokenUsage = %+v", result.TokenUsage)
	}
	if result.Metrics.ActivityCount != 1 {
		t.Errorf("Metrics.ActivityCount = %d, want 1", result.Metrics.ActivityCount)
	}
	if result.Cached {
		t.Error("初回生成でCached = true")
	}
	if recorder.aiRequests != 1 {
		t.Errorf("aiRequests = %d, want 1", recorder.aiRequests)
	}
}

func TestService_Generate_BareJSONSchedule(t *testing.T) {
	// フェンスなしのJSONブロックでも、サニタイズで引用符がエスケープされて
	// スケジュールが失われないこと
	source := &mockActivitySource{
		recentActivitiesFn: func(ctx context.Context) ([]performance.ActivityStats, error) {
			return sampleStats(), nil
		},
	}
	provider := &mockAIProvider{
		generateFn: func(ctx context.Context, req *ai.Request) (*ai.Response, error) {
			return &ai.Response{
				Content:  `週3回の練習を推奨します。{"schedule": [{"day": "金曜日", "workout": "テンポ走", "pace": "5:00/km"}]}無理のない範囲で。`,
				Provider: "openai",
				Model:    "test-model",
			}, nil
		},
	}
	svc := newTestService(source, provider, &mockAIRecorder{})

	result, err := svc.Generate(context.Background(), "")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(result.Schedule) != 1 || result.Schedule[0].Pace != "5:00/km" {
		t.Errorf("Schedule = %+v", result.Schedule)
	}
	if strings.Contains(result.Recommendations, "schedule") {
		t.Errorf("Recommendations = %q, JSONブロックが残っている", result.Recommendations)
	}
	if strings.Contains(result.Recommendations, "&#") {
		t.Errorf("Recommendations = %q, 実体参照が残っている", result.Recommendations)
	}
	if !strings.Contains(result.Recommendations, "週3回の練習を推奨します。") {
		t.Errorf("Recommendations = %q, 本文が失われた", result.Recommendations)
	}
}

func TestService_Generate_NoActivities(t *testing.T) {
	source := &mockActivitySource{
		recentActivitiesFn: func(ctx context.Context) ([]performance.ActivityStats, error) {
			return nil, nil
		},
	}
	svc := newTestService(source, &mockAIProvider{}, &mockAIRecorder{})

	_, err := svc.Generate(context.Background(), "")
	if err == nil {
		t.Fatal("アクティビティなしでGenerateが成功してしまった")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeNoPerformanceData {
		t.Errorf("error = %v, want NO_PERFORMANCE_DATA", err)
	}
}

func TestService_Generate_ActivitySourceError(t *testing.T) {
	source := &mockActivitySource{
		recentActivitiesFn: func(ctx context.Context) ([]performance.ActivityStats, error) {
			return nil, model.NewNotAuthenticatedError()
		},
	}
	svc := newTestService(source, &mockAIProvider{}, &mockAIRecorder{})

	_, err := svc.Generate(context.Background(), "")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeNotAuthenticated {
		t.Errorf("error = %v, want NOT_AUTHENTICATED", err)
	}
}

func TestService_Generate_TokenLimitExceeded(t *testing.T) {
	source := &mockActivitySource{
		recentActivitiesFn: func(ctx context.Context) ([]performance.ActivityStats, error) {
			return sampleStats(), nil
		},
	}
	provider := &mockAIProvider{
		countTokensFn: func(text string) int { return 10000 },
	}
	svc := newTestService(source, provider, &mockAIRecorder{})

	_, err := svc.Generate(context.Background(), "")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeTokenLimit {
		t.Errorf("error = %v, want TOKEN_LIMIT_EXCEEDED", err)
	}
}

func TestService_Generate_ProviderError(t *testing.T) {
	source := &mockActivitySource{
		recentActivitiesFn: func(ctx context.Context) ([]performance.ActivityStats, error) {
			return sampleStats(), nil
		},
	}
	provider := &mockAIProvider{
		generateFn: func(ctx context.Context, req *ai.Request) (*ai.Response, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := newTestService(source, provider, &mockAIRecorder{})

	_, err := svc.Generate(context.Background(), "")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeAIProvider {
		t.Errorf("error = %v, want AI_PROVIDER_ERROR", err)
	}
}

func TestService_Generate_CacheHit(t *testing.T) {
	generateCalls := 0
	source := &mockActivitySource{
		recentActivitiesFn: func(ctx context.Context) ([]performance.ActivityStats, error) {
			return sampleStats(), nil
		},
	}
	provider := &mockAIProvider{
		generateFn: func(ctx context.Context, req *ai.Request) (*ai.Response, error) {
			generateCalls++
			return &ai.Response{Content: "推奨", Provider: "openai", Model: "test-model"}, nil
		},
	}
	recorder := &mockAIRecorder{}
	svc := newTestService(source, provider, recorder)

	ctx := context.Background()
	if _, err := svc.Generate(ctx, "要望A"); err != nil {
		t.Fatalf("1回目のGenerate() error = %v", err)
	}

	result, err := svc.Generate(ctx, "要望A")
	if err != nil {
		t.Fatalf("2回目のGenerate() error = %v", err)
	}
	if generateCalls != 1 {
		t.Errorf("generateCalls = %d, want 1（2回目はキャッシュから）", generateCalls)
	}
	if !result.Cached {
		t.Error("キャッシュヒットでCached = false")
	}
	if recorder.cacheHits != 1 || recorder.cacheMiss != 1 {
		t.Errorf("cacheHits = %d, cacheMiss = %d", recorder.cacheHits, recorder.cacheMiss)
	}

	// 要望が異なればキャッシュキーも異なる
	if _, err := svc.Generate(ctx, "要望B"); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if generateCalls != 2 {
		t.Errorf("generateCalls = %d, want 2", generateCalls)
	}
}

func TestService_Generate_SanitizesHTML(t *testing.T) {
	source := &mockActivitySource{
		recentActivitiesFn: func(ctx context.Context) ([]performance.ActivityStats, error) {
			return sampleStats(), nil
		},
	}
	provider := &mockAIProvider{
		generateFn: func(ctx context.Context, req *ai.Request) (*ai.Response, error) {
			return &ai.Response{
				Content:  `安全な推奨<script>alert("xss")</script>です`,
				Provider: "openai",
				Model:    "test-model",
			}, nil
		},
	}
	svc := newTestService(source, provider, &mockAIRecorder{})

	result, err := svc.Generate(context.Background(), "")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if strings.Contains(result.Recommendations, "<script>") {
		t.Errorf("Recommendations = %q, scriptタグが除去されていない", result.Recommendations)
	}
	if !strings.Contains(result.Recommendations, "安全な推奨") {
		t.Errorf("Recommendations = %q, 本文が失われた", result.Recommendations)
	}
}

func TestService_Info(t *testing.T) {
	svc := newTestService(&mockActivitySource{}, &mockAIProvider{}, &mockAIRecorder{})

	info := svc.Info()
	if info.Provider != "openai" || info.Model != "test-model" {
		t.Errorf("Info() = %+v", info)
	}
}
