package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/config"
	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Planner PlannerService
	Export  ExportService
}

// NewService 创建 Service 聚合，并从快照存储恢复会话状态
func NewService(
	ctx context.Context,
	cfg *config.Config,
	repo *repository.Repository,
	logger *zap.Logger,
) (*Service, error) {
	parser, err := NewCatalogParser(cfg.Catalog.ParseCacheSize, logger.Named("catalog"))
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Export.Location()
	if err != nil {
		return nil, fmt.Errorf("加载导出时区失败: %w", err)
	}

	planner := NewPlanner(ctx, repo.Snapshot, cfg.Storage.Key, logger.Named("planner"))
	return &Service{
		Planner: NewPlannerService(planner, parser, logger),
		Export:  NewExportService(cfg.Export.TermWeeks, loc, logger.Named("export")),
	}, nil
}
