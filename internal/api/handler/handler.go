package handler

import "github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Schedule *ScheduleHandler
	Catalog  *CatalogHandler
	Export   *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Schedule: NewScheduleHandler(svc.Planner),
		Catalog:  NewCatalogHandler(svc.Planner),
		Export:   NewExportHandler(svc.Planner, svc.Export),
	}
}
