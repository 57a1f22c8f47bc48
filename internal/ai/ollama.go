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

// OllamaProvider はローカルのOllamaサーバーを使用するプロバイダー。
type OllamaProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// compile-time interface check
var _ Provider = (*OllamaProvider)(nil)

// NewOllamaProvider はOllamaProviderを生成する。
func NewOllamaProvider(baseURL, model string, timeout time.Duration) *OllamaProvider {
	return &OllamaProvider{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response        string `json:"response"`
	Model           string `json:"model"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

// Generate はOllamaの/api/generateで推奨を生成する。
func (p *OllamaProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	prompt := req.Prompt()

	body := ollamaRequest{
		Model:  p.model,
		Prompt: prompt,
		Stream: false,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Provider: "ollama", Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		slog.Error("ollama returned non-OK status",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(respBody)),
		)
		return nil, &ProviderError{
			Provider: "ollama",
			Reason:   fmt.Sprintf("unexpected status %d", resp.StatusCode),
		}
	}

	var parsed ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &ProviderError{Provider: "ollama", Reason: "failed to decode response", Err: err}
	}

	usage := TokenUsage{
		InputTokens:  parsed.PromptEvalCount,
		OutputTokens: parsed.EvalCount,
	}
	if usage.InputTokens == 0 {
		usage.InputTokens = estimateTokens(prompt)
	}
	if usage.OutputTokens == 0 {
		usage.OutputTokens = estimateTokens(parsed.Response)
	}
	usage.TotalTokens = usage.InputTokens + usage.OutputTokens

	model := parsed.Model
	if model == "" {
		model = p.model
	}

	return &Response{
		Content:  parsed.Response,
		Usage:    usage,
		Model:    model,
		Provider: "ollama",
	}, nil
}

// CountTokens はテキストのトークン数を概算する。
func (p *OllamaProvider) CountTokens(text string) int {
	return estimateTokens(text)
}

// ProviderName はプロバイダー名を返す。
func (p *OllamaProvider) ProviderName() string {
	return "ollama"
}

// ModelName は使用中のモデル名を返す。
func (p *OllamaProvider) ModelName() string {
	return p.model
}
