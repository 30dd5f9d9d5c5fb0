package service

import (
	"fmt"

	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/model"
)

// ConflictKind 冲突类别
type ConflictKind string

const (
	ConflictMeeting ConflictKind = "meeting"
	ConflictExam    ConflictKind = "exam"
)

// Conflict 候选课程班与已选课程班之间的一次冲突
type Conflict struct {
	Other  model.ClassSection `json:"other"`
	Kind   ConflictKind       `json:"kind"`
	Reason string             `json:"reason"`
}

// FindConflicts 检查候选课程班与已选课程班的时间冲突。
//
// 规则：
//   - 上课时段：规范化后同一星期且半开区间相交即冲突，每一对相交时段各报告一次
//   - 考试时段：双方都有考试、日期相同且区间相交，作为独立条目报告
//   - 结果按 scheduled 的顺序输出，不去重；不修改任何入参
//
// 返回空切片表示无冲突。
func FindConflicts(candidate model.ClassSection, scheduled []model.ClassSection) []Conflict {
	var conflicts []Conflict
	for _, other := range scheduled {
		for _, a := range candidate.Meetings {
			for _, b := range other.Meetings {
				if model.NormalizeWeekday(string(a.Day)) != model.NormalizeWeekday(string(b.Day)) ||
					!a.Interval().Overlaps(b.Interval()) {
					continue
				}
				conflicts = append(conflicts, Conflict{
					Other:  other,
					Kind:   ConflictMeeting,
					Reason: fmt.Sprintf("上课时间冲突：%s %s 与 %s", a.Day, a.Interval(), b.Interval()),
				})
			}
		}
		if examsOverlap(candidate.Exam, other.Exam) {
			conflicts = append(conflicts, Conflict{
				Other: other,
				Kind:  ConflictExam,
				Reason: fmt.Sprintf("考试时间冲突：%s %s 与 %s",
					candidate.Exam.Date, candidate.Exam.Interval(), other.Exam.Interval()),
			})
		}
	}
	return conflicts
}

func examsOverlap(a, b *model.ExamSlot) bool {
	return a != nil && b != nil && a.Date == b.Date && a.Interval().Overlaps(b.Interval())
}
