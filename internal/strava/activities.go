package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hitoshi/sporty/internal/model"
)

const defaultAPIBaseURL = "https://www.strava.com/api/v3"

// ActivitiesClient はStrava API v3のアクティビティエンドポイントのクライアント。
type ActivitiesClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string // テスト用にエンドポイントを差し替え可能
	perPage    int
}

// NewActivitiesClient はActivitiesClientの新しいインスタンスを生成する。
// perPageが0以下の場合は50件取得する。
func NewActivitiesClient(httpClient *http.Client, logger *slog.Logger, perPage int) *ActivitiesClient {
	if perPage <= 0 {
		perPage = 50
	}
	return &ActivitiesClient{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    defaultAPIBaseURL,
		perPage:    perPage,
	}
}

// ListActivities はアスリートの直近のアクティビティを取得する。
// 1ページ（perPage件）のみを対象とし、欠損フィールドはゼロ値のまま返す。
func (c *ActivitiesClient) ListActivities(ctx context.Context, accessToken string) ([]model.Activity, error) {
	reqURL, err := url.Parse(c.baseURL + "/athlete/activities")
	if err != nil {
		return nil, fmt.Errorf("failed to parse activities URL: %w", err)
	}
	q := reqURL.Query()
	q.Set("per_page", strconv.Itoa(c.perPage))
	reqURL.RawQuery = q.Encode()

	var activities []model.Activity
	if err := c.getJSON(ctx, reqURL.String(), accessToken, &activities); err != nil {
		return nil, err
	}

	c.logger.Info("activities fetched from strava",
		slog.Int("count", len(activities)),
	)
	return activities, nil
}

// GetActivity は指定IDのアクティビティ詳細を取得する。
func (c *ActivitiesClient) GetActivity(ctx context.Context, accessToken string, activityID int64) (*model.Activity, error) {
	reqURL := fmt.Sprintf("%s/activities/%d", c.baseURL, activityID)

	var activity model.Activity
	if err := c.getJSON(ctx, reqURL, accessToken, &activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

// getJSON はBearer認証付きGETを実行しレスポンスJSONをデコードする。
func (c *ActivitiesClient) getJSON(ctx context.Context, reqURL, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("strava API request failed",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("strava API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read strava response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("strava API returned 401 unauthorized")
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error("strava API returned error status",
			slog.Int("http_status", resp.StatusCode),
		)
		return fmt.Errorf("strava API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse strava response: %w", err)
	}
	return nil
}
