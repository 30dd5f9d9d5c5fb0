package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay 一天的分钟数，TimeOfDay 的取值上界（不含）
const MinutesPerDay = 24 * 60

// TimeOfDay 一天中的时刻，以距午夜的分钟数表示，取值 [0, 1440)
type TimeOfDay int

// ParseTimeOfDay 解析 HH:MM 格式的时间
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("时间格式无效 %q: 缺少冒号", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("时间格式无效 %q: %w", s, err)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("时间格式无效 %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("时间越界 %q", s)
	}
	return TimeOfDay(h*60 + m), nil
}

// MustParseTimeOfDay 同 ParseTimeOfDay，解析失败时 panic。仅用于常量与测试数据。
func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Hour 返回小时部分
func (t TimeOfDay) Hour() int { return int(t) / 60 }

// Minute 返回分钟部分
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// Valid 是否处于 [0, 1440)
func (t TimeOfDay) Valid() bool { return t >= 0 && t < MinutesPerDay }

// String 格式化为 HH:MM
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// MarshalJSON 序列化为 "HH:MM"，与原始数据格式保持一致
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON 从 "HH:MM" 反序列化
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("TimeOfDay 必须是字符串: %w", err)
	}
	v, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Interval 半开区间 [Start, End)
type Interval struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Overlaps 判断两个半开区间是否相交：a.Start < b.End && b.Start < a.End。
// 首尾相接（a.End == b.Start）不算重叠。
func (a Interval) Overlaps(b Interval) bool {
	return a.Start < b.End && b.Start < a.End
}

// String 格式化为 HH:MM-HH:MM
func (a Interval) String() string {
	return a.Start.String() + "-" + a.End.String()
}
