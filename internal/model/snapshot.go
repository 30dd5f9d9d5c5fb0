package model

import "gorm.io/datatypes"

// StateSnapshot 会话状态快照：持久化边界上唯一的序列化对象。
// 课程目录不落盘，会话启动后由用户重新导入。
type StateSnapshot struct {
	Schedules        []Schedule `json:"schedules"` // 按创建顺序
	ActiveScheduleID string     `json:"active_schedule_id"`
	UserGender       Gender     `json:"user_gender"`
}

// PlannerSnapshot 快照表 — 对应 planner_snapshots（键值存储）
type PlannerSnapshot struct {
	SnapshotKey string         `gorm:"type:varchar(64);primaryKey" json:"snapshot_key"`
	Payload     datatypes.JSON `gorm:"type:jsonb;not null"         json:"payload"`
	BaseModel
}

// TableName 指定表名
func (PlannerSnapshot) TableName() string { return "planner_snapshots" }
