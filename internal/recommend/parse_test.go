package recommend

import (
	"strings"
	"testing"
)

func TestParseSchedule_FencedJSON(t *testing.T) {
	content := "分析結果です。\n\n```json\n" +
		`{"schedule": [{"day": "月曜日", "workout": "イージーラン", "distance_km": 5, "time_minutes": 30, "pace": "6:00/km", "notes": "会話できるペースで"}]}` +
		"\n```\n以上です。"

	schedule := parseSchedule(content)

	if len(schedule) != 1 {
		t.Fatalf("len(schedule) = %d, want 1", len(schedule))
	}
	e := schedule[0]
	if e.Day != "月曜日" || e.Workout != "イージーラン" {
		t.Errorf("entry = %+v", e)
	}
	if e.DistanceKm != 5 || e.TimeMinutes != 30 {
		t.Errorf("entry = %+v", e)
	}
}

func TestParseSchedule_BareJSONBlock(t *testing.T) {
	content := `スケジュールは以下です。{"schedule": [{"day": "火曜日", "workout": "休養"}]} よろしく。`

	schedule := parseSchedule(content)
	if len(schedule) != 1 {
		t.Fatalf("len(schedule) = %d, want 1", len(schedule))
	}
	if schedule[0].Day != "火曜日" {
		t.Errorf("Day = %q, want 火曜日", schedule[0].Day)
	}
}

func TestParseSchedule_NestedBracesInStrings(t *testing.T) {
	content := `{"schedule": [{"day": "水曜日", "workout": "インターバル", "notes": "400m x 8 {きつめ}"}]}`

	schedule := parseSchedule(content)
	if len(schedule) != 1 {
		t.Fatalf("len(schedule) = %d, want 1", len(schedule))
	}
	if !strings.Contains(schedule[0].Notes, "{きつめ}") {
		t.Errorf("Notes = %q", schedule[0].Notes)
	}
}

func TestParseSchedule_NoJSON(t *testing.T) {
	if got := parseSchedule("JSONを含まないテキストのみの応答です。"); got != nil {
		t.Errorf("parseSchedule() = %v, want nil", got)
	}
}

func TestParseSchedule_MalformedJSON(t *testing.T) {
	content := "```json\n{\"schedule\": [{\"day\": }\n```"
	if got := parseSchedule(content); got != nil {
		t.Errorf("壊れたJSONのparseSchedule() = %v, want nil", got)
	}
}

func TestParseSchedule_EmptySchedule(t *testing.T) {
	if got := parseSchedule(`{"schedule": []}`); got != nil {
		t.Errorf("空スケジュールのparseSchedule() = %v, want nil", got)
	}
}

func TestStripScheduleBlock(t *testing.T) {
	content := "前半の推奨です。\n```json\n{\"schedule\": []}\n```\n後半の補足です。"

	got := stripScheduleBlock(content)

	if strings.Contains(got, "schedule") {
		t.Errorf("stripScheduleBlock() = %q, JSONブロックが残っている", got)
	}
	if !strings.Contains(got, "前半の推奨です。") || !strings.Contains(got, "後半の補足です。") {
		t.Errorf("stripScheduleBlock() = %q, テキスト部分が失われた", got)
	}
}

func TestStripScheduleBlock_BareJSON(t *testing.T) {
	// フェンスなしで埋め込まれたJSONブロックも除去する
	content := `前半の推奨です。{"schedule": [{"day": "木曜日", "workout": "LSD"}]}後半の補足です。`

	got := stripScheduleBlock(content)

	if strings.Contains(got, "schedule") {
		t.Errorf("stripScheduleBlock() = %q, JSONブロックが残っている", got)
	}
	if !strings.Contains(got, "前半の推奨です。") || !strings.Contains(got, "後半の補足です。") {
		t.Errorf("stripScheduleBlock() = %q, テキスト部分が失われた", got)
	}
}

func TestStripScheduleBlock_NoJSON(t *testing.T) {
	content := "フェンスもJSONもないテキストです。"
	if got := stripScheduleBlock(content); got != content {
		t.Errorf("stripScheduleBlock() = %q, want unchanged", got)
	}
}
