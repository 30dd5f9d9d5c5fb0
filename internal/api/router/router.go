package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/config"
	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/api/handler"
	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/api/middleware"
)

// jsonBodyLimit 除课程目录导入外，其余接口的请求体上限
const jsonBodyLimit = 64 << 10

// Setup 初始化并返回 Gin 路由引擎
// limiter 为 nil 时课程目录导入不限流
func Setup(cfg *config.Config, h *handler.Handler, limiter middleware.RateLimiter, logger *zap.Logger) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "storage": cfg.Storage.Driver})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		v1.GET("/state", h.Schedule.GetState)
		v1.PUT("/profile/gender", middleware.BodyLimit(jsonBodyLimit), h.Schedule.SetGender)

		// 课程目录模块
		catalog := v1.Group("/catalog")
		{
			catalog.GET("", h.Catalog.ListCatalog)
			catalog.GET("/:group_id/check", h.Catalog.CheckSection)
			catalog.POST("/import",
				middleware.RateLimit(limiter, cfg.Catalog.ImportRateLimit, cfg.Catalog.ImportRateWindow, logger),
				middleware.BodyLimit(cfg.Catalog.MaxUploadBytes),
				h.Catalog.ImportCatalog,
			)
		}

		// 课表模块
		schedules := v1.Group("/schedules", middleware.BodyLimit(jsonBodyLimit))
		{
			schedules.POST("", h.Schedule.CreateSchedule)
			schedules.POST("/active/classes", h.Schedule.AddClass)
			schedules.DELETE("/active/classes/:group_id", h.Schedule.RemoveClass)
			schedules.PUT("/:id", h.Schedule.RenameSchedule)
			schedules.DELETE("/:id", h.Schedule.DeleteSchedule)
			schedules.PUT("/:id/activate", h.Schedule.ActivateSchedule)
		}

		// 导出模块
		export := v1.Group("/export")
		{
			export.GET("/schedule.xlsx", h.Export.ExportXLSX)
			export.GET("/schedule.ics", h.Export.ExportICS)
		}
	}

	return r, nil
}
