package service

import "github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/model"

// 移除原因
const (
	RemovalNotOffered  = "no longer offered"
	RemovalNewConflict = "new time conflict"
)

// Removal 目录更新后从课表中移除的一条课程班记录
type Removal struct {
	ScheduleID   string             `json:"schedule_id"`
	ScheduleName string             `json:"schedule_name"`
	Section      model.ClassSection `json:"section"`
	Reason       string             `json:"reason"`
}

// Reconcile 以新目录校验单个课表，返回保留后的课表与移除记录。
//
//  1. 按原顺序在新目录中查找每个已选课程班，找不到则记为 "no longer offered"，
//     找到则以目录中的新版本替换旧快照
//  2. 贪心遍历：与已保留的课程班存在冲突则记为 "new time conflict"，否则保留
//
// 靠前的课程班优先保留；对同一目录重复执行结果不变。入参不会被修改。
func Reconcile(schedule model.Schedule, catalog []model.ClassSection) (model.Schedule, []Removal) {
	out := schedule.Clone()
	kept, removals := reconcileClasses(&out, catalog, indexCatalog(catalog))
	out.Classes = kept
	return out, removals
}

// indexCatalog GroupID → 目录下标，重复的 GroupID 保留第一条
func indexCatalog(catalog []model.ClassSection) map[string]int {
	index := make(map[string]int, len(catalog))
	for i, c := range catalog {
		if _, dup := index[c.GroupID]; !dup {
			index[c.GroupID] = i
		}
	}
	return index
}

func reconcileClasses(sched *model.Schedule, catalog []model.ClassSection, index map[string]int) ([]model.ClassSection, []Removal) {
	var removals []Removal
	removal := func(section model.ClassSection, reason string) Removal {
		return Removal{ScheduleID: sched.ID, ScheduleName: sched.Name, Section: section, Reason: reason}
	}

	fresh := make([]model.ClassSection, 0, len(sched.Classes))
	for _, saved := range sched.Classes {
		i, ok := index[saved.GroupID]
		if !ok {
			removals = append(removals, removal(saved, RemovalNotOffered))
			continue
		}
		fresh = append(fresh, catalog[i])
	}

	kept := make([]model.ClassSection, 0, len(fresh))
	for _, c := range fresh {
		if len(FindConflicts(c, kept)) > 0 {
			removals = append(removals, removal(c, RemovalNewConflict))
			continue
		}
		kept = append(kept, c)
	}
	return kept, removals
}
