package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"

// OpenAIProvider はOpenAI Chat Completions APIを使用するプロバイダー。
type OpenAIProvider struct {
	apiKey     string
	model      string
	endpoint   string // テスト時に差し替え可能
	httpClient *http.Client
}

// compile-time interface check
var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider はOpenAIProviderを生成する。
func NewOpenAIProvider(apiKey, model string, timeout time.Duration) *OpenAIProvider {
	return &OpenAIProvider{
		apiKey:   apiKey,
		model:    model,
		endpoint: defaultOpenAIEndpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Model string `json:"model"`
}

// Generate はChat Completions APIで推奨を生成する。
func (p *OpenAIProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	prompt := req.Prompt()

	body := openAIRequest{
		Model: p.model,
		Messages: []openAIMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   req.MaxTokens,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal openai request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create openai request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Provider: "openai", Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		slog.Error("openai API returned non-OK status",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(respBody)),
		)
		return nil, &ProviderError{
			Provider: "openai",
			Reason:   fmt.Sprintf("unexpected status %d", resp.StatusCode),
		}
	}

	var parsed openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &ProviderError{Provider: "openai", Reason: "failed to decode response", Err: err}
	}
	if len(parsed.Choices) == 0 {
		return nil, &ProviderError{Provider: "openai", Reason: "empty choices in response"}
	}

	content := parsed.Choices[0].Message.Content

	// APIが返す実測値を優先し、欠落時のみ概算する
	usage := TokenUsage{
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
		TotalTokens:  parsed.Usage.TotalTokens,
	}
	if usage.TotalTokens == 0 {
		usage.InputTokens = estimateTokens(prompt)
		usage.OutputTokens = estimateTokens(content)
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	}

	model := parsed.Model
	if model == "" {
		model = p.model
	}

	return &Response{
		Content:  content,
		Usage:    usage,
		Model:    model,
		Provider: "openai",
	}, nil
}

// CountTokens はテキストのトークン数を概算する。
func (p *OpenAIProvider) CountTokens(text string) int {
	return estimateTokens(text)
}

// ProviderName はプロバイダー名を返す。
func (p *OpenAIProvider) ProviderName() string {
	return "openai"
}

// ModelName は使用中のモデル名を返す。
func (p *OpenAIProvider) ModelName() string {
	return p.model
}
