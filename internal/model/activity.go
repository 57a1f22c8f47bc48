// Package model はドメインモデルを定義する。
package model

// Activity はStravaから取得したアクティビティを表す。
// フィールドはStrava API v3のレスポンスをそのまま写したもので、取得後は不変。
type Activity struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	SportType      string `json:"sport_type"`
	StartDate      string `json:"start_date"`
	StartDateLocal string `json:"start_date_local"`

	// パフォーマンス指標
	Distance           float64 `json:"distance"`             // メートル（筋トレ等では0）
	MovingTime         int64   `json:"moving_time"`          // 秒
	ElapsedTime        int64   `json:"elapsed_time"`         // 秒
	TotalElevationGain float64 `json:"total_elevation_gain"` // メートル
	AverageSpeed       float64 `json:"average_speed"`        // m/s
	MaxSpeed           float64 `json:"max_speed"`            // m/s

	// 心拍データ（計測がある場合のみ）
	HasHeartrate     bool    `json:"has_heartrate"`
	AverageHeartrate float64 `json:"average_heartrate"`
	MaxHeartrate     float64 `json:"max_heartrate"`

	// 標高データ
	ElevHigh float64 `json:"elev_high"`
	ElevLow  float64 `json:"elev_low"`

	// 実績カウント
	AchievementCount int `json:"achievement_count"`
	PRCount          int `json:"pr_count"`
}
