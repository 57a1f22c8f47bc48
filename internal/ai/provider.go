// Package ai はトレーニング推奨を生成するAIプロバイダー抽象を提供する。
// OpenAIとOllamaの2つの実装を持ち、設定によって切り替える。
package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/hitoshi/sporty/internal/config"
	"github.com/hitoshi/sporty/internal/performance"
)

// TokenUsage はAI呼び出しのトークン消費量。
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Request はAIプロバイダーへの推奨生成リクエスト。
type Request struct {
	Summary    string
	Metrics    performance.Metrics
	Activities []performance.ActivityStats
	Context    string // ユーザーが指定する追加の要望
	MaxTokens  int
}

// Response はAIプロバイダーからの生成結果。
type Response struct {
	Content  string     `json:"content"`
	Usage    TokenUsage `json:"usage"`
	Model    string     `json:"model"`
	Provider string     `json:"provider"`
}

// Provider はAIプロバイダーのインターフェース。
type Provider interface {
	// Generate はリクエストに基づいてトレーニング推奨を生成する。
	Generate(ctx context.Context, req *Request) (*Response, error)
	// CountTokens はテキストのトークン数を概算する。
	CountTokens(text string) int
	// ProviderName はプロバイダー名を返す（"openai" または "ollama"）。
	ProviderName() string
	// ModelName は使用中のモデル名を返す。
	ModelName() string
}

// ProviderError はAIプロバイダーの呼び出し失敗を表す。
type ProviderError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("ai provider %s: %s", e.Provider, e.Reason)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Prompt はリクエストからAIプロバイダーに送るプロンプトを組み立てる。
func (r *Request) Prompt() string {
	var b strings.Builder

	b.WriteString("あなたは経験豊富なパーソナルトレーナーです。")
	b.WriteString("以下のアスリートの直近のトレーニングデータを分析し、")
	b.WriteString("今後1週間のトレーニング推奨を作成してください。\n\n")

	b.WriteString("## 直近のトレーニングデータ\n")
	b.WriteString(r.Summary)
	b.WriteString("\n")

	if len(r.Activities) > 0 {
		b.WriteString("## 個別アクティビティ\n")
		// プロンプト肥大を防ぐため直近10件に絞る
		limit := len(r.Activities)
		if limit > 10 {
			limit = 10
		}
		for _, a := range r.Activities[:limit] {
			fmt.Fprintf(&b, "- %s (%s): %.1f km, %.0f 分", a.Name, a.SportType, a.DistanceKm, a.MovingTimeMinutes)
			if a.AverageSpeedKmh != nil {
				fmt.Fprintf(&b, ", 平均 %.1f km/h", *a.AverageSpeedKmh)
			}
			if a.HasHeartrate && a.AverageHeartrate > 0 {
				fmt.Fprintf(&b, ", 平均心拍 %.0f bpm", a.AverageHeartrate)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if r.Context != "" {
		b.WriteString("## アスリートからの要望\n")
		b.WriteString(r.Context)
		b.WriteString("\n\n")
	}

	b.WriteString("## 出力形式\n")
	b.WriteString("まず分析と推奨事項をテキストで説明してください。")
	b.WriteString("その後、1週間のスケジュールを以下のJSON形式で出力してください:\n")
	b.WriteString("```json\n")
	b.WriteString(`{"schedule": [{"day": "月曜日", "workout": "...", "distance_km": 5.0, "time_minutes": 30, "pace": "...", "notes": "..."}]}`)
	b.WriteString("\n```\n")

	return b.String()
}

// estimateTokens はテキストのトークン数を概算する。
// 4文字≒1トークンの経験則を使用し、最低1トークンを返す。
func estimateTokens(text string) int {
	n := len(text) / 4
	if n < 1 {
		n = 1
	}
	return n
}

// NewProvider は設定に基づいてAIプロバイダーを生成する。
func NewProvider(cfg *config.Config) (Provider, error) {
	switch cfg.AIProvider {
	case config.ProviderOpenAI:
		return NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.AITimeout), nil
	case config.ProviderOllama:
		return NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaModel, cfg.AITimeout), nil
	default:
		return nil, fmt.Errorf("unknown AI provider: %s", cfg.AIProvider)
	}
}
