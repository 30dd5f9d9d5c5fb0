package model

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxGroupIDLength GroupID 最大字符数
const MaxGroupIDLength = 64

// ValidGroupID 判断 GroupID 能否作为课程班标识（导入与接口共用同一规则）：
// 非空且不超过 MaxGroupIDLength 个字符，不含 / 或控制字符。
func ValidGroupID(id string) bool {
	if id == "" || !utf8.ValidString(id) || utf8.RuneCountInString(id) > MaxGroupIDLength {
		return false
	}
	if strings.Contains(id, "/") {
		return false
	}
	return strings.IndexFunc(id, unicode.IsControl) < 0
}

// ClassSection 课程班 — 课程目录中的一个开课实例，以 GroupID 唯一标识
type ClassSection struct {
	GroupID      string          `json:"group_id"`
	Name         string          `json:"name"`
	Units        Units           `json:"units"`
	Capacity     int             `json:"capacity"`
	Gender       Gender          `json:"gender"`
	Professor    string          `json:"professor"`
	Meetings     []WeeklyMeeting `json:"meetings"`
	Exam         *ExamSlot       `json:"exam"`
	Location     string          `json:"location"`
	Requirements Requirements    `json:"requirements"`
	Description  string          `json:"description"`
}

// Units 学分
type Units struct {
	Total     int     `json:"total"`
	Practical float64 `json:"practical"`
}

// Requirements 选课先修/同修/等价/互斥课程代码
type Requirements struct {
	Prerequisites []string `json:"prerequisites"`
	Corequisites  []string `json:"corequisites"`
	Equivalents   []string `json:"equivalents"`
	Conflicts     []string `json:"conflicts"`
}

// EmptyRequirements 返回四个空列表（非 nil，便于 JSON 输出 []）
func EmptyRequirements() Requirements {
	return Requirements{
		Prerequisites: []string{},
		Corequisites:  []string{},
		Equivalents:   []string{},
		Conflicts:     []string{},
	}
}

// WeeklyMeeting 每周重复的上课时段，无具体日期
type WeeklyMeeting struct {
	Kind  string    `json:"kind"` // 单字母课程类型代码
	Day   Weekday   `json:"day"`
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// Interval 返回当天的半开区间
func (m WeeklyMeeting) Interval() Interval {
	return Interval{Start: m.Start, End: m.End}
}

// ExamSlot 考试时段。Date 为原始日期记号，引擎不解释其含义，仅做相等比较。
type ExamSlot struct {
	Date  string    `json:"date"`
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// Interval 返回考试当天的半开区间
func (e ExamSlot) Interval() Interval {
	return Interval{Start: e.Start, End: e.End}
}

// SectionTimes 时间文本解析结果
type SectionTimes struct {
	Meetings []WeeklyMeeting `json:"meetings"`
	Exam     *ExamSlot       `json:"exam"`
}
