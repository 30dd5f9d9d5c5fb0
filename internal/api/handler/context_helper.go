package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/model"
	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/pkg/response"
)

// MustGetGroupID 从路径参数中提取并校验 group_id。
// 校验失败时写入 400 响应并返回 false，调用方应直接 return。
func MustGetGroupID(c *gin.Context) (string, bool) {
	id := c.Param("group_id")
	if !model.ValidGroupID(id) {
		response.BadRequest(c, 10001, "group_id 格式无效")
		return "", false
	}
	return id, true
}

// MustGetScheduleID 从路径参数中提取课表 ID。
func MustGetScheduleID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if id == "" || len(id) > 64 {
		response.BadRequest(c, 10001, "课表 ID 无效")
		return "", false
	}
	return id, true
}
