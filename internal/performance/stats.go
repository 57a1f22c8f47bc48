// Package performance はアクティビティのパフォーマンス統計の抽出と集計を提供する。
package performance

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hitoshi/sporty/internal/model"
)

// ActivityStats は1件のアクティビティから抽出したパフォーマンス統計。
// 速度は元データが欠落している場合nil、ペースは距離が0の場合nilになる。
type ActivityStats struct {
	model.Activity

	DistanceKm        float64  `json:"distance_km"`
	MovingTimeMinutes float64  `json:"moving_time_minutes"`
	AverageSpeedKmh   *float64 `json:"average_speed_kmh,omitempty"`
	MaxSpeedKmh       *float64 `json:"max_speed_kmh,omitempty"`
	PacePerKm         *float64 `json:"pace_per_km,omitempty"` // 秒/km
}

// Metrics は複数アクティビティの集計結果。
type Metrics struct {
	TotalDistanceKm  float64        `json:"total_distance_km"`
	TotalTimeMinutes float64        `json:"total_time_minutes"`
	AvgSpeedKmh      float64        `json:"avg_speed_kmh"`
	AvgHeartrate     float64        `json:"avg_heartrate"`
	TotalElevation   float64        `json:"total_elevation"`
	ActivityCount    int            `json:"activity_count"`
	ActivityTypes    map[string]int `json:"activity_types"`
}

// ExtractStats はアクティビティ一覧から統計を抽出する。
// moving_timeが0以下のアクティビティは除外する。
func ExtractStats(activities []model.Activity) []ActivityStats {
	stats := make([]ActivityStats, 0, len(activities))
	for _, a := range activities {
		if a.MovingTime <= 0 {
			continue
		}

		s := ActivityStats{
			Activity:          a,
			DistanceKm:        a.Distance / 1000,
			MovingTimeMinutes: float64(a.MovingTime) / 60,
		}

		if a.AverageSpeed > 0 {
			kmh := a.AverageSpeed * 3.6
			s.AverageSpeedKmh = &kmh
		}
		if a.MaxSpeed > 0 {
			kmh := a.MaxSpeed * 3.6
			s.MaxSpeedKmh = &kmh
		}
		// ペースは移動時間と距離から算出する（秒/km）。
		// average_speedが欠落していても距離があれば出せる
		if s.DistanceKm > 0 {
			pace := float64(a.MovingTime) / s.DistanceKm
			s.PacePerKm = &pace
		}

		stats = append(stats, s)
	}
	return stats
}

// CalculateMetrics は統計一覧から集計メトリクスを算出する。
// 空の入力に対してはゼロ値のメトリクスを返す。
func CalculateMetrics(stats []ActivityStats) Metrics {
	m := Metrics{
		ActivityTypes: make(map[string]int),
	}
	if len(stats) == 0 {
		return m
	}

	var speedSum float64
	var speedCount int
	var hrSum float64
	var hrCount int

	for _, s := range stats {
		m.TotalDistanceKm += s.DistanceKm
		m.TotalTimeMinutes += s.MovingTimeMinutes
		m.TotalElevation += s.TotalElevationGain

		if s.AverageSpeedKmh != nil {
			speedSum += *s.AverageSpeedKmh
			speedCount++
		}
		if s.HasHeartrate && s.AverageHeartrate > 0 {
			hrSum += s.AverageHeartrate
			hrCount++
		}

		sportType := s.SportType
		if sportType == "" {
			sportType = s.Type
		}
		m.ActivityTypes[sportType]++
	}

	m.ActivityCount = len(stats)
	if speedCount > 0 {
		m.AvgSpeedKmh = speedSum / float64(speedCount)
	}
	if hrCount > 0 {
		m.AvgHeartrate = hrSum / float64(hrCount)
	}

	return m
}

// Summary は集計メトリクスを人が読めるテキストに整形する。
// AIプロンプトの素材として使用する。
func Summary(m Metrics) string {
	if m.ActivityCount == 0 {
		return "直近のアクティビティデータはありません。"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "直近のアクティビティ数: %d件\n", m.ActivityCount)
	fmt.Fprintf(&b, "合計距離: %.1f km\n", m.TotalDistanceKm)
	fmt.Fprintf(&b, "合計運動時間: %.0f 分\n", m.TotalTimeMinutes)
	if m.AvgSpeedKmh > 0 {
		fmt.Fprintf(&b, "平均速度: %.1f km/h\n", m.AvgSpeedKmh)
	}
	if m.AvgHeartrate > 0 {
		fmt.Fprintf(&b, "平均心拍数: %.0f bpm\n", m.AvgHeartrate)
	}
	if m.TotalElevation > 0 {
		fmt.Fprintf(&b, "合計獲得標高: %.0f m\n", m.TotalElevation)
	}

	// 種目別の件数は安定した順序で並べる
	types := make([]string, 0, len(m.ActivityTypes))
	for t := range m.ActivityTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Fprintf(&b, "種目 %s: %d件\n", t, m.ActivityTypes[t])
	}

	return b.String()
}
