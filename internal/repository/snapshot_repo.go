package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/model"
	pkgerrors "github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/pkg/errors"
)

// SnapshotRepository 会话快照的键值存储接口。
// 键不存在时 Get 返回 pkgerrors.ErrSnapshotNotFound。
type SnapshotRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// snapshotRepo SnapshotRepository 的 GORM 实现（planner_snapshots 表）
type snapshotRepo struct {
	db *gorm.DB
}

// NewSnapshotRepo 创建基于 PostgreSQL 的 SnapshotRepository
func NewSnapshotRepo(db *gorm.DB) SnapshotRepository {
	return &snapshotRepo{db: db}
}

func (r *snapshotRepo) Get(ctx context.Context, key string) ([]byte, error) {
	var row model.PlannerSnapshot
	err := r.db.WithContext(ctx).
		Where("snapshot_key = ?", key).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrSnapshotNotFound
		}
		return nil, err
	}
	return []byte(row.Payload), nil
}

func (r *snapshotRepo) Set(ctx context.Context, key string, value []byte) error {
	now := time.Now()
	row := model.PlannerSnapshot{
		SnapshotKey: key,
		Payload:     datatypes.JSON(value),
		BaseModel:   model.BaseModel{CreatedAt: now, UpdatedAt: now},
	}
	// 单键 upsert：存在则覆盖 payload
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "snapshot_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&row).Error
}
