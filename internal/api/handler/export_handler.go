package handler

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/dto"
	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/service"
	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	plannerSvc service.PlannerService
	exportSvc  service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(plannerSvc service.PlannerService, exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{plannerSvc: plannerSvc, exportSvc: exportSvc}
}

// ExportXLSX 导出活动课表为 Excel
// GET /api/v1/export/schedule.xlsx
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	schedule, err := h.plannerSvc.ActiveSchedule(c.Request.Context())
	if err != nil {
		handlePlannerError(c, err)
		return
	}

	buf, filename, err := h.exportSvc.ExportXLSX(schedule)
	if err != nil {
		handleExportError(c, err)
		return
	}
	writeAttachment(c, filename, contentTypeXLSX, buf)
}

// ExportICS 导出活动课表为 iCalendar
// GET /api/v1/export/schedule.ics?term_start=2025-09-20
func (h *ExportHandler) ExportICS(c *gin.Context) {
	var req dto.ExportICSRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "term_start 必须为 YYYY-MM-DD 格式")
		return
	}
	termStart, _ := time.Parse(time.DateOnly, req.TermStart)

	schedule, err := h.plannerSvc.ActiveSchedule(c.Request.Context())
	if err != nil {
		handlePlannerError(c, err)
		return
	}

	buf, filename, err := h.exportSvc.ExportICS(schedule, termStart)
	if err != nil {
		handleExportError(c, err)
		return
	}
	writeAttachment(c, filename, contentTypeICS, buf)
}

// writeAttachment 设置下载响应头并写入文件内容
func writeAttachment(c *gin.Context, filename, contentType string, buf *bytes.Buffer) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoItems):
		response.BadRequest(c, 22001, "课表中没有课程班")
	default:
		response.InternalError(c)
	}
}
