package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/dto"
	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/service"
	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/pkg/response"
)

// ScheduleHandler 课表模块 HTTP 处理器
type ScheduleHandler struct {
	plannerSvc service.PlannerService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(plannerSvc service.PlannerService) *ScheduleHandler {
	return &ScheduleHandler{plannerSvc: plannerSvc}
}

// GetState 获取会话状态
// GET /api/v1/state
func (h *ScheduleHandler) GetState(c *gin.Context) {
	response.OK(c, h.plannerSvc.State(c.Request.Context()))
}

// CreateSchedule 新建课表
// POST /api/v1/schedules
func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	var req dto.CreateScheduleRequest
	// 请求体可以为空
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 10001, "参数校验失败")
			return
		}
	}

	response.Created(c, h.plannerSvc.CreateSchedule(c.Request.Context(), &req))
}

// RenameSchedule 重命名课表
// PUT /api/v1/schedules/:id
func (h *ScheduleHandler) RenameSchedule(c *gin.Context) {
	id, ok := MustGetScheduleID(c)
	if !ok {
		return
	}
	var req dto.RenameScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	state, err := h.plannerSvc.RenameSchedule(c.Request.Context(), id, &req)
	if err != nil {
		handlePlannerError(c, err)
		return
	}
	response.OK(c, state)
}

// DeleteSchedule 删除课表
// DELETE /api/v1/schedules/:id
func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	id, ok := MustGetScheduleID(c)
	if !ok {
		return
	}

	state, err := h.plannerSvc.DeleteSchedule(c.Request.Context(), id)
	if err != nil {
		handlePlannerError(c, err)
		return
	}
	response.OK(c, state)
}

// ActivateSchedule 切换活动课表
// PUT /api/v1/schedules/:id/activate
func (h *ScheduleHandler) ActivateSchedule(c *gin.Context) {
	id, ok := MustGetScheduleID(c)
	if !ok {
		return
	}

	state, err := h.plannerSvc.ActivateSchedule(c.Request.Context(), id)
	if err != nil {
		handlePlannerError(c, err)
		return
	}
	response.OK(c, state)
}

// SetGender 声明用户性别
// PUT /api/v1/profile/gender
func (h *ScheduleHandler) SetGender(c *gin.Context) {
	var req dto.SetGenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	state, err := h.plannerSvc.SetGender(c.Request.Context(), &req)
	if err != nil {
		handlePlannerError(c, err)
		return
	}
	response.OK(c, state)
}

// AddClass 向活动课表加课
// POST /api/v1/schedules/active/classes
func (h *ScheduleHandler) AddClass(c *gin.Context) {
	var req dto.AddClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	state, err := h.plannerSvc.AddClass(c.Request.Context(), &req)
	if err != nil {
		if details := service.ConflictDetails(req.GroupID, err); details != nil {
			response.Conflict(c, 20106, "与当前课表存在时间冲突", details)
			return
		}
		handlePlannerError(c, err)
		return
	}
	response.Created(c, state)
}

// RemoveClass 从活动课表移除课程班
// DELETE /api/v1/schedules/active/classes/:group_id
func (h *ScheduleHandler) RemoveClass(c *gin.Context) {
	groupID, ok := MustGetGroupID(c)
	if !ok {
		return
	}

	response.OK(c, h.plannerSvc.RemoveClass(c.Request.Context(), groupID))
}

// handlePlannerError 将选课业务错误映射为 HTTP 响应
func handlePlannerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoActiveSchedule):
		response.BadRequest(c, 20101, "当前没有活动课表")
	case errors.Is(err, service.ErrGenderUnset):
		response.BadRequest(c, 20102, "请先声明性别")
	case errors.Is(err, service.ErrUnknownSection):
		response.NotFound(c, 20103, "课程目录中不存在该课程班")
	case errors.Is(err, service.ErrAlreadyPresent):
		response.Conflict(c, 20104, "该课程班已在当前课表中", nil)
	case errors.Is(err, service.ErrGenderIneligible):
		response.BadRequest(c, 20105, "该课程班的性别限制不允许选择")
	case errors.Is(err, service.ErrTimeConflict):
		response.Conflict(c, 20106, "与当前课表存在时间冲突", nil)
	case errors.Is(err, service.ErrInvalidGender):
		response.BadRequest(c, 20107, "性别取值无效")
	case errors.Is(err, service.ErrScheduleNotFound):
		response.NotFound(c, 20108, "课表不存在")
	case errors.Is(err, service.ErrLastSchedule):
		response.BadRequest(c, 20109, "无法删除最后一个课表")
	case errors.Is(err, service.ErrBlankScheduleName):
		response.BadRequest(c, 20110, "课表名称不能为空")
	default:
		response.InternalError(c)
	}
}
