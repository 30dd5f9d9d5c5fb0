package dto

import "github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/model"

// ── 课程目录模块 DTO ──

// CatalogListRequest 课程目录查询参数
type CatalogListRequest struct {
	Search string `form:"search" binding:"omitempty,max=100"`
	CatalogPage
}

// CatalogItemResponse 目录行：课程班及其相对活动课表的状态
type CatalogItemResponse struct {
	model.ClassSection
	Selected      bool   `json:"selected"`
	Disabled      bool   `json:"disabled"`
	DisableReason string `json:"disable_reason,omitempty"` // gender / conflict
}

// RemovalResponse 目录更新后被移除的课程班
type RemovalResponse struct {
	ScheduleID   string `json:"schedule_id"`
	ScheduleName string `json:"schedule_name"`
	GroupID      string `json:"group_id"`
	Name         string `json:"name"`
	Reason       string `json:"reason"` // no longer offered / new time conflict
}

// ImportCatalogResponse 导入课程目录结果
type ImportCatalogResponse struct {
	Sections  int               `json:"sections"`
	Removals  []RemovalResponse `json:"removals"`
	Persisted bool              `json:"persisted"`
}

// CheckSectionResponse 课程班冲突检查结果
type CheckSectionResponse struct {
	Section   CatalogItemResponse `json:"section"`
	Eligible  bool                `json:"eligible"`
	Conflicts []ConflictResponse  `json:"conflicts"`
}
