package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/config"
	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/api/handler"
	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/api/middleware"
	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/api/router"
	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/repository"
	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/service"
	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/pkg/database"
	applogger "github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/pkg/logger"
	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/pkg/redis"
)

func main() {
	// 0. 本地开发时从 .env 注入环境变量（文件不存在时忽略）
	_ = godotenv.Load()

	// 1. 加载配置
	cfg, err := config.Load(os.Getenv("PLANNER_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接 Redis（可选：连接失败时降级运行，导入接口不限流）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		if cfg.Storage.Driver == config.StorageDriverRedis {
			logger.Fatal("Redis 连接失败", zap.Error(err))
		}
		logger.Warn("Redis 连接失败，课程目录导入将不限流", zap.Error(err))
		rdb = nil
	}

	// 4. 按 storage.driver 选择快照存储
	var (
		db       *gorm.DB
		snapshot repository.SnapshotRepository
	)
	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		db, err = database.NewDB(&cfg.Database, cfg.Log.Level == "debug", logger)
		if err != nil {
			logger.Fatal("数据库连接失败", zap.Error(err))
		}
		sqlDB, err := db.DB()
		if err != nil {
			logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
		}
		if err := database.RunMigrations(sqlDB, logger); err != nil {
			logger.Fatal("数据库迁移失败", zap.Error(err))
		}
		snapshot = repository.NewSnapshotRepo(db)
	case config.StorageDriverRedis:
		snapshot = repository.NewRedisSnapshotRepo(rdb)
	default:
		logger.Warn("使用内存快照存储，进程退出后课表将丢失")
		snapshot = repository.NewMemorySnapshotRepo()
	}

	// 5. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(snapshot)
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 10*time.Second)
	svc, err := service.NewService(loadCtx, cfg, repo, logger)
	cancelLoad()
	if err != nil {
		logger.Fatal("初始化服务失败", zap.Error(err))
	}
	h := handler.NewHandler(svc)

	// 6. 初始化路由
	var limiter middleware.RateLimiter
	if rdb != nil {
		limiter = rdb
	}
	engine, err := router.Setup(cfg, h, limiter, logger)
	if err != nil {
		logger.Fatal("初始化路由失败", zap.Error(err))
	}

	// 7. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 8. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 关闭数据库连接
	if db != nil {
		if closeDB, _ := db.DB(); closeDB != nil {
			closeDB.Close()
		}
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
