package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/api/middleware"
	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/dto"
	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/service"
	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/pkg/response"
)

// CatalogHandler 课程目录模块 HTTP 处理器
type CatalogHandler struct {
	plannerSvc service.PlannerService
}

// NewCatalogHandler 创建 CatalogHandler
func NewCatalogHandler(plannerSvc service.PlannerService) *CatalogHandler {
	return &CatalogHandler{plannerSvc: plannerSvc}
}

// ListCatalog 按关键字筛选课程目录（分页）
// GET /api/v1/catalog?search=xxx&page=1&page_size=20
func (h *CatalogHandler) ListCatalog(c *gin.Context) {
	var req dto.CatalogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	items, total := h.plannerSvc.ListCatalog(c.Request.Context(), &req)
	response.OKPage(c, items, total, req.GetPage(), req.GetPageSize())
}

// ImportCatalog 导入课程目录
// POST /api/v1/catalog/import
//
// 支持两种方式：
//   - 文件上传: multipart/form-data, field="file"
//   - 原始请求体: application/json，内容即教务系统导出的 JSON
func (h *CatalogHandler) ImportCatalog(c *gin.Context) {
	payload, err := readCatalogPayload(c)
	if err != nil {
		if middleware.IsBodyTooLarge(err) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			return
		}
		response.BadRequest(c, 21001, "请上传课程目录文件")
		return
	}
	if len(payload) == 0 {
		response.BadRequest(c, 21001, "请上传课程目录文件")
		return
	}

	resp, err := h.plannerSvc.ImportCatalog(c.Request.Context(), payload)
	if err != nil {
		handleCatalogError(c, err)
		return
	}
	response.OK(c, resp)
}

// CheckSection 检查课程班与活动课表的冲突
// GET /api/v1/catalog/:group_id/check
func (h *CatalogHandler) CheckSection(c *gin.Context) {
	groupID, ok := MustGetGroupID(c)
	if !ok {
		return
	}

	resp, err := h.plannerSvc.CheckSection(c.Request.Context(), groupID)
	if err != nil {
		handlePlannerError(c, err)
		return
	}
	response.OK(c, resp)
}

func readCatalogPayload(c *gin.Context) ([]byte, error) {
	if c.ContentType() == "multipart/form-data" {
		file, _, err := c.Request.FormFile("file")
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return io.ReadAll(file)
	}
	return io.ReadAll(c.Request.Body)
}

func handleCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCatalogInvalidJSON):
		response.ErrorWithDetails(c, http.StatusBadRequest, 21002, "课程目录不是有效的 JSON", err.Error())
	case errors.Is(err, service.ErrCatalogMissingData):
		response.BadRequest(c, 21003, "课程目录缺少 outpar.BMt 数据")
	case errors.Is(err, service.ErrCatalogInvalidXML):
		response.ErrorWithDetails(c, http.StatusBadRequest, 21004, "课程目录中的 XML 数据无法解析", err.Error())
	default:
		response.InternalError(c)
	}
}
