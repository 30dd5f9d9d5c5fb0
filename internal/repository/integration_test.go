//go:build integration

package repository_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/config"
	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/model"
	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/repository"
	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/pkg/database"
	pkgerrors "github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/pkg/errors"
	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/pkg/redis"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=postgres password=postgres dbname=class_scheduler_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 使用正式迁移脚本建表
	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取 sql.DB 失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "数据库迁移失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

func uniqueKey(t *testing.T) string {
	t.Helper()
	key := fmt.Sprintf("test-%d", time.Now().UnixNano())
	t.Cleanup(func() {
		testDB.Where("snapshot_key = ?", key).Delete(&model.PlannerSnapshot{})
	})
	return key
}

// ═══════════════════════════════════════════════════════════
// Test: PostgreSQL SnapshotRepository
// ═══════════════════════════════════════════════════════════

func TestSnapshotRepo_NotFound(t *testing.T) {
	repo := repository.NewSnapshotRepo(testDB)

	_, err := repo.Get(context.Background(), uniqueKey(t))
	if !errors.Is(err, pkgerrors.ErrSnapshotNotFound) {
		t.Fatalf("期望 ErrSnapshotNotFound，实际为 %v", err)
	}
}

func TestSnapshotRepo_Upsert(t *testing.T) {
	repo := repository.NewSnapshotRepo(testDB)
	ctx := context.Background()
	key := uniqueKey(t)

	first := model.StateSnapshot{
		Schedules:        []model.Schedule{{ID: "schedule-1", Name: "برنامه ۱", Classes: []model.ClassSection{}}},
		ActiveScheduleID: "schedule-1",
		UserGender:       model.GenderFemale,
	}
	payload, _ := json.Marshal(first)
	if err := repo.Set(ctx, key, payload); err != nil {
		t.Fatalf("首次写入失败: %v", err)
	}

	// 同键再次写入应覆盖
	second := first
	second.UserGender = model.GenderMale
	payload, _ = json.Marshal(second)
	if err := repo.Set(ctx, key, payload); err != nil {
		t.Fatalf("覆盖写入失败: %v", err)
	}

	data, err := repo.Get(ctx, key)
	if err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	var got model.StateSnapshot
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("反序列化失败: %v", err)
	}
	if got.UserGender != model.GenderMale {
		t.Errorf("期望性别 male，实际为 %s", got.UserGender)
	}
	if len(got.Schedules) != 1 || got.Schedules[0].Name != "برنامه ۱" {
		t.Errorf("课表内容不一致: %+v", got.Schedules)
	}

	var count int64
	testDB.Model(&model.PlannerSnapshot{}).Where("snapshot_key = ?", key).Count(&count)
	if count != 1 {
		t.Errorf("期望只有 1 行，实际为 %d", count)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Redis SnapshotRepository（未设置 TEST_REDIS_ADDR 时跳过）
// ═══════════════════════════════════════════════════════════

func TestRedisSnapshotRepo(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR 未设置")
	}
	client, err := redis.NewClient(&config.RedisConfig{Addr: addr}, zap.NewNop())
	if err != nil {
		t.Fatalf("Redis 连接失败: %v", err)
	}
	defer client.Close()

	repo := repository.NewRedisSnapshotRepo(client)
	ctx := context.Background()
	key := fmt.Sprintf("test-%d", time.Now().UnixNano())

	if _, err := repo.Get(ctx, key); !errors.Is(err, pkgerrors.ErrSnapshotNotFound) {
		t.Fatalf("期望 ErrSnapshotNotFound，实际为 %v", err)
	}
	if err := repo.Set(ctx, key, []byte(`{"schedules":[]}`)); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	data, err := repo.Get(ctx, key)
	if err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	if string(data) != `{"schedules":[]}` {
		t.Errorf("读取内容不一致: %s", data)
	}

	// 限流计数：窗口内第 3 次请求被拒绝
	rlKey := key + ":rl"
	for i := 1; i <= 3; i++ {
		allowed, err := client.CheckRateLimit(ctx, rlKey, 2, time.Minute)
		if err != nil {
			t.Fatalf("限流计数失败: %v", err)
		}
		if allowed != (i <= 2) {
			t.Errorf("第 %d 次请求 allowed=%v", i, allowed)
		}
	}
}
