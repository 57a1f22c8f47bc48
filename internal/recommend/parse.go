package recommend

import (
	"encoding/json"
	"strings"
)

// ScheduleEntry は1日分のトレーニング予定。
type ScheduleEntry struct {
	Day         string  `json:"day"`
	Workout     string  `json:"workout"`
	DistanceKm  float64 `json:"distance_km,omitempty"`
	TimeMinutes float64 `json:"time_minutes,omitempty"`
	Pace        string  `json:"pace,omitempty"`
	Notes       string  `json:"notes,omitempty"`
}

type scheduleDocument struct {
	Schedule []ScheduleEntry `json:"schedule"`
}

// parseSchedule はAIの応答テキストからスケジュールJSONを抽出する。
// ```json フェンス内、または最初のバランスした { } ブロックを試し、
// どちらも解析できない場合は空のスケジュールを返す。解析失敗はエラーにしない。
func parseSchedule(content string) []ScheduleEntry {
	if block := extractFencedJSON(content); block != "" {
		if entries := tryUnmarshalSchedule(block); entries != nil {
			return entries
		}
	}
	if block := extractBalancedJSON(content); block != "" {
		if entries := tryUnmarshalSchedule(block); entries != nil {
			return entries
		}
	}
	return nil
}

func tryUnmarshalSchedule(block string) []ScheduleEntry {
	var doc scheduleDocument
	if err := json.Unmarshal([]byte(block), &doc); err != nil {
		return nil
	}
	if len(doc.Schedule) == 0 {
		return nil
	}
	return doc.Schedule
}

// extractFencedJSON は ```json ... ``` フェンスの中身を取り出す。
func extractFencedJSON(content string) string {
	start := strings.Index(content, "```json")
	if start < 0 {
		return ""
	}
	rest := content[start+len("```json"):]
	end := strings.Index(rest, "```")
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}

// extractBalancedJSON は最初の { から対応する } までを取り出す。
// 文字列リテラル内の括弧とエスケープを考慮する。
func extractBalancedJSON(content string) string {
	start := strings.IndexByte(content, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		ch := content[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return content[start : i+1]
				}
			}
		}
	}
	return ""
}

// stripScheduleBlock は応答テキストからスケジュールJSONブロックを除去する。
// 構造化済みのスケジュールとテキスト推奨の重複を避けるために使用する。
// ```json フェンスを優先し、なければ最初のバランスした { } ブロックを除去する。
func stripScheduleBlock(content string) string {
	if start := strings.Index(content, "```json"); start >= 0 {
		rest := content[start+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(content[:start] + rest[end+len("```"):])
		}
	}
	if block := extractBalancedJSON(content); block != "" {
		return strings.TrimSpace(strings.Replace(content, block, "", 1))
	}
	return strings.TrimSpace(content)
}
