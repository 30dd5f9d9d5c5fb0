package dto

import "github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/model"

// ── 课表模块 DTO ──

// CreateScheduleRequest 新建课表请求，名称为空时自动生成
type CreateScheduleRequest struct {
	Name string `json:"name" binding:"omitempty,max=100"`
}

// RenameScheduleRequest 重命名课表请求
type RenameScheduleRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// SetGenderRequest 声明用户性别请求，空值表示撤销声明
type SetGenderRequest struct {
	Gender string `json:"gender" binding:"omitempty,oneof=male female"`
}

// AddClassRequest 向活动课表加课请求
type AddClassRequest struct {
	GroupID string `json:"group_id" binding:"required,group_id"`
}

// ExportICSRequest 导出 iCalendar 查询参数
type ExportICSRequest struct {
	TermStart string `form:"term_start" binding:"required,datetime=2006-01-02"`
}

// ── 响应 ──

// ScheduleResponse 课表响应
type ScheduleResponse struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	Active     bool                 `json:"active"`
	TotalUnits int                  `json:"total_units"`
	Classes    []model.ClassSection `json:"classes"`
}

// StateResponse 会话状态响应。所有变更操作都返回变更后的完整状态；
// Persisted 为 false 表示本次变更未能写入快照存储，仅保存在内存中。
type StateResponse struct {
	Schedules        []ScheduleResponse `json:"schedules"`
	ActiveScheduleID string             `json:"active_schedule_id"`
	UserGender       string             `json:"user_gender"`
	CatalogSize      int                `json:"catalog_size"`
	Persisted        bool               `json:"persisted"`
}

// ConflictResponse 时间冲突明细
type ConflictResponse struct {
	GroupID string `json:"group_id"`
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Reason  string `json:"reason"`
}

// AddClassConflictResponse 加课因时间冲突失败时的详情
type AddClassConflictResponse struct {
	GroupID   string             `json:"group_id"`
	Conflicts []ConflictResponse `json:"conflicts"`
}
