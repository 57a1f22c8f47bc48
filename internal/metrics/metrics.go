// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はアプリケーションのメトリクスを収集する。
type Collector struct {
	registry *prometheus.Registry

	stravaFetchTotal *prometheus.CounterVec
	aiRequestsTotal  *prometheus.CounterVec
	aiDuration       prometheus.Histogram
	aiTokensTotal    *prometheus.CounterVec
	httpStatusTotal  *prometheus.CounterVec
	cacheTotal       *prometheus.CounterVec
}

// NewCollector はCollectorを生成しメトリクスを登録する。
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		stravaFetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sporty_strava_fetch_total",
				Help: "Strava APIからのアクティビティ取得回数（結果別）",
			},
			[]string{"result"},
		),
		aiRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sporty_ai_requests_total",
				Help: "AIプロバイダーへの推奨生成リクエスト数（プロバイダー・結果別）",
			},
			[]string{"provider", "result"},
		),
		aiDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sporty_ai_request_duration_seconds",
				Help:    "AIプロバイダーの応答時間",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
			},
		),
		aiTokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sporty_ai_tokens_total",
				Help: "AIプロバイダーで消費したトークン数（方向別）",
			},
			[]string{"provider", "direction"},
		),
		httpStatusTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sporty_http_responses_total",
				Help: "HTTPレスポンス数（ステータスコード別）",
			},
			[]string{"code"},
		),
		cacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sporty_cache_requests_total",
				Help: "推奨キャッシュの参照回数（結果別）",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		c.stravaFetchTotal,
		c.aiRequestsTotal,
		c.aiDuration,
		c.aiTokensTotal,
		c.httpStatusTotal,
		c.cacheTotal,
	)

	return c
}

// RecordStravaFetch はStravaからの取得結果を記録する。
func (c *Collector) RecordStravaFetch(success bool) {
	result := "success"
	if !success {
		result = "error"
	}
	c.stravaFetchTotal.WithLabelValues(result).Inc()
}

// RecordAIRequest はAI呼び出しの結果と所要時間を記録する。
func (c *Collector) RecordAIRequest(provider string, success bool, duration time.Duration) {
	result := "success"
	if !success {
		result = "error"
	}
	c.aiRequestsTotal.WithLabelValues(provider, result).Inc()
	c.aiDuration.Observe(duration.Seconds())
}

// RecordAITokens はAI呼び出しのトークン消費量を記録する。
func (c *Collector) RecordAITokens(provider string, inputTokens, outputTokens int) {
	c.aiTokensTotal.WithLabelValues(provider, "input").Add(float64(inputTokens))
	c.aiTokensTotal.WithLabelValues(provider, "output").Add(float64(outputTokens))
}

// RecordHTTPStatus はHTTPレスポンスのステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(code string) {
	c.httpStatusTotal.WithLabelValues(code).Inc()
}

// RecordCacheHit は推奨キャッシュの参照結果を記録する。
func (c *Collector) RecordCacheHit(hit bool) {
	result := "hit"
	if !hit {
		result = "miss"
	}
	c.cacheTotal.WithLabelValues(result).Inc()
}

// Handler はメトリクス公開用のhttp.Handlerを返す。
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントをルーターに登録する。
func SetupMetricsRoute(r chi.Router, collector *Collector) {
	r.Handle("/metrics", collector.Handler())
}
