package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/model"
	pkgerrors "github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/pkg/errors"
)

// ── 测试辅助 ──

func setupTestPlanner(t *testing.T, catalog ...model.ClassSection) (*Planner, *mockSnapshotRepo) {
	t.Helper()
	store := newMockSnapshotRepo()
	p := NewPlanner(context.Background(), store, testKey, zap.NewNop())
	if len(catalog) > 0 {
		p.ReplaceCatalog(context.Background(), catalog)
	}
	return p, store
}

func savedSnapshot(t *testing.T, store *mockSnapshotRepo) model.StateSnapshot {
	t.Helper()
	data, err := store.Get(context.Background(), testKey)
	require.NoError(t, err)
	var snap model.StateSnapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	return snap
}

// ── 初始化与快照恢复 ──

func TestNewPlanner_FreshState(t *testing.T) {
	p, store := setupTestPlanner(t)

	schedules := p.Schedules()
	require.Len(t, schedules, 1)
	assert.Equal(t, DefaultScheduleName, schedules[0].Name)
	assert.Empty(t, schedules[0].Classes)
	assert.Equal(t, schedules[0].ID, p.ActiveScheduleID())
	assert.Equal(t, model.GenderUnset, p.UserGender())
	// 默认状态不立即落盘
	assert.Equal(t, 0, store.sets)
}

func TestNewPlanner_CorruptSnapshotFallsBack(t *testing.T) {
	store := newMockSnapshotRepo()
	store.data[testKey] = []byte("{not json")

	p := NewPlanner(context.Background(), store, testKey, zap.NewNop())
	require.Len(t, p.Schedules(), 1)
	assert.Equal(t, DefaultScheduleName, p.Schedules()[0].Name)
}

func TestNewPlanner_StoreErrorFallsBack(t *testing.T) {
	store := newMockSnapshotRepo()
	store.getErr = errStoreDown

	p := NewPlanner(context.Background(), store, testKey, zap.NewNop())
	require.Len(t, p.Schedules(), 1)
}

func TestNewPlanner_RestoresSnapshot(t *testing.T) {
	ctx := context.Background()
	p, store := setupTestPlanner(t, section("A", model.GenderMixed, meeting(model.Saturday, "08:00", "10:00")))
	require.NoError(t, p.SetUserGender(ctx, model.GenderFemale))
	secondID := p.CreateSchedule(ctx, "دوم")
	require.NoError(t, p.AddToActiveSchedule(ctx, "A"))

	restored := NewPlanner(ctx, store, testKey, zap.NewNop())
	assert.Equal(t, model.GenderFemale, restored.UserGender())
	assert.Equal(t, secondID, restored.ActiveScheduleID())
	schedules := restored.Schedules()
	require.Len(t, schedules, 2)
	assert.Equal(t, DefaultScheduleName, schedules[0].Name)
	assert.Equal(t, []string{"A"}, groupIDs(schedules[1].Classes))
	// 目录不随快照持久化
	assert.Empty(t, restored.Catalog())
}

func TestNewPlanner_RepairsDanglingActiveID(t *testing.T) {
	snap := model.StateSnapshot{
		Schedules: []model.Schedule{
			{ID: "s1", Name: "one", Classes: []model.ClassSection{section("A", model.GenderMixed), section("A", model.GenderMixed)}},
			{ID: "s1", Name: "dup"},
		},
		ActiveScheduleID: "missing",
		UserGender:       "unknown",
	}
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	store := newMockSnapshotRepo()
	store.data[testKey] = data

	p := NewPlanner(context.Background(), store, testKey, zap.NewNop())
	schedules := p.Schedules()
	require.Len(t, schedules, 1)
	assert.Equal(t, "s1", p.ActiveScheduleID())
	assert.Equal(t, []string{"A"}, groupIDs(schedules[0].Classes))
	assert.Equal(t, model.GenderUnset, p.UserGender())
}

// ── 课表管理 ──

func TestPlanner_CreateSchedule(t *testing.T) {
	p, store := setupTestPlanner(t)

	id := p.CreateSchedule(context.Background(), "  برنامه دوم ")
	assert.Equal(t, id, p.ActiveScheduleID())
	schedules := p.Schedules()
	require.Len(t, schedules, 2)
	assert.Equal(t, "برنامه دوم", schedules[1].Name)
	assert.NotEqual(t, schedules[0].ID, schedules[1].ID)

	snap := savedSnapshot(t, store)
	assert.Equal(t, id, snap.ActiveScheduleID)
	assert.Len(t, snap.Schedules, 2)
}

func TestPlanner_CreateSchedule_DefaultName(t *testing.T) {
	p, _ := setupTestPlanner(t)
	p.CreateSchedule(context.Background(), "")
	assert.Equal(t, "برنامه ۲", p.Schedules()[1].Name)

	for i := 0; i < 9; i++ {
		p.CreateSchedule(context.Background(), "  ")
	}
	assert.Equal(t, "برنامه ۱۱", p.Schedules()[10].Name)
}

func TestPlanner_RenameSchedule(t *testing.T) {
	ctx := context.Background()
	p, _ := setupTestPlanner(t)
	id := p.ActiveScheduleID()

	assert.True(t, p.RenameSchedule(ctx, id, "ترم پاییز"))
	assert.Equal(t, "ترم پاییز", p.Schedules()[0].Name)

	assert.False(t, p.RenameSchedule(ctx, id, "   "))
	assert.False(t, p.RenameSchedule(ctx, "nope", "x"))
	assert.Equal(t, "ترم پاییز", p.Schedules()[0].Name)
}

func TestPlanner_DeleteSchedule_LastRejected(t *testing.T) {
	p, _ := setupTestPlanner(t)
	id := p.ActiveScheduleID()

	assert.False(t, p.DeleteSchedule(context.Background(), id))
	require.Len(t, p.Schedules(), 1)
	assert.Equal(t, id, p.ActiveScheduleID())
}

func TestPlanner_DeleteSchedule_UnknownID(t *testing.T) {
	ctx := context.Background()
	p, _ := setupTestPlanner(t)
	p.CreateSchedule(ctx, "two")

	assert.False(t, p.DeleteSchedule(ctx, "nope"))
	assert.Len(t, p.Schedules(), 2)
}

func TestPlanner_DeleteSchedule_ActivatesFirstRemaining(t *testing.T) {
	ctx := context.Background()
	p, _ := setupTestPlanner(t)
	first := p.ActiveScheduleID()
	second := p.CreateSchedule(ctx, "two")
	third := p.CreateSchedule(ctx, "three")

	require.True(t, p.SetActiveSchedule(ctx, second))
	require.True(t, p.DeleteSchedule(ctx, second))
	assert.Equal(t, first, p.ActiveScheduleID())

	// 删除非活动课表不改变活动课表
	require.True(t, p.DeleteSchedule(ctx, third))
	assert.Equal(t, first, p.ActiveScheduleID())
}

func TestPlanner_SetActiveSchedule_Unknown(t *testing.T) {
	p, _ := setupTestPlanner(t)
	id := p.ActiveScheduleID()
	assert.False(t, p.SetActiveSchedule(context.Background(), "nope"))
	assert.Equal(t, id, p.ActiveScheduleID())
}

func TestPlanner_SetUserGender(t *testing.T) {
	ctx := context.Background()
	p, store := setupTestPlanner(t)

	require.NoError(t, p.SetUserGender(ctx, model.GenderMale))
	assert.Equal(t, model.GenderMale, savedSnapshot(t, store).UserGender)

	assert.ErrorIs(t, p.SetUserGender(ctx, model.GenderMixed), ErrInvalidGender)
	assert.Equal(t, model.GenderMale, p.UserGender())

	require.NoError(t, p.SetUserGender(ctx, model.GenderUnset))
	assert.Equal(t, model.GenderUnset, p.UserGender())
}

// ── 选课 ──

func TestPlanner_AddToActiveSchedule_ErrorOrder(t *testing.T) {
	ctx := context.Background()
	male := section("M", model.GenderMale, meeting(model.Saturday, "08:00", "10:00"))
	p, _ := setupTestPlanner(t, male)

	// 未声明性别优先于目录查找
	assert.ErrorIs(t, p.AddToActiveSchedule(ctx, "missing"), ErrGenderUnset)

	require.NoError(t, p.SetUserGender(ctx, model.GenderFemale))
	assert.ErrorIs(t, p.AddToActiveSchedule(ctx, "missing"), ErrUnknownSection)
	assert.ErrorIs(t, p.AddToActiveSchedule(ctx, "M"), ErrGenderIneligible)
}

func TestPlanner_AddToActiveSchedule_AlreadyPresent(t *testing.T) {
	ctx := context.Background()
	a := section("A", model.GenderMixed, meeting(model.Saturday, "08:00", "10:00"))
	p, _ := setupTestPlanner(t, a)
	require.NoError(t, p.SetUserGender(ctx, model.GenderMale))

	require.NoError(t, p.AddToActiveSchedule(ctx, "A"))
	// 重复添加报告 AlreadyPresent 而不是与自身冲突
	assert.ErrorIs(t, p.AddToActiveSchedule(ctx, "A"), ErrAlreadyPresent)

	active, ok := p.ActiveSchedule()
	require.True(t, ok)
	assert.Equal(t, []string{"A"}, groupIDs(active.Classes))
}

func TestPlanner_AddToActiveSchedule_TimeConflict(t *testing.T) {
	ctx := context.Background()
	a := section("A", model.GenderMixed, meeting(model.Saturday, "08:00", "10:00"))
	b := section("B", model.GenderMixed, meeting(model.Saturday, "09:00", "11:00"))
	c := section("C", model.GenderMixed, meeting(model.Saturday, "10:00", "12:00"))
	p, _ := setupTestPlanner(t, a, b, c)
	require.NoError(t, p.SetUserGender(ctx, model.GenderMale))

	require.NoError(t, p.AddToActiveSchedule(ctx, "A"))

	err := p.AddToActiveSchedule(ctx, "B")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeConflict))
	var tce *TimeConflictError
	require.True(t, errors.As(err, &tce))
	require.Len(t, tce.Conflicts, 1)
	assert.Equal(t, "A", tce.Conflicts[0].Other.GroupID)

	// 首尾相接可以加入
	require.NoError(t, p.AddToActiveSchedule(ctx, "C"))

	active, _ := p.ActiveSchedule()
	assert.Equal(t, []string{"A", "C"}, groupIDs(active.Classes))
	assert.Equal(t, 6, active.TotalUnits())
}

func TestPlanner_AddToActiveSchedule_GenderScenario(t *testing.T) {
	ctx := context.Background()
	femaleOnly := section("F", model.GenderFemale, meeting(model.Sunday, "08:00", "10:00"))
	p, _ := setupTestPlanner(t, femaleOnly)

	require.NoError(t, p.SetUserGender(ctx, model.GenderMale))
	assert.ErrorIs(t, p.AddToActiveSchedule(ctx, "F"), ErrGenderIneligible)

	require.NoError(t, p.SetUserGender(ctx, model.GenderFemale))
	require.NoError(t, p.AddToActiveSchedule(ctx, "F"))

	// 切换性别不会追溯移除
	require.NoError(t, p.SetUserGender(ctx, model.GenderMale))
	active, _ := p.ActiveSchedule()
	assert.Equal(t, []string{"F"}, groupIDs(active.Classes))
}

func TestPlanner_AddToActiveSchedule_StoresSnapshotCopy(t *testing.T) {
	ctx := context.Background()
	a := section("A", model.GenderMixed, meeting(model.Saturday, "08:00", "10:00"))
	p, _ := setupTestPlanner(t, a)
	require.NoError(t, p.SetUserGender(ctx, model.GenderMale))
	require.NoError(t, p.AddToActiveSchedule(ctx, "A"))

	active, _ := p.ActiveSchedule()
	active.Classes[0].Name = "changed"

	again, _ := p.ActiveSchedule()
	assert.Equal(t, "درس A", again.Classes[0].Name)
}

func TestPlanner_RemoveFromActiveSchedule(t *testing.T) {
	ctx := context.Background()
	a := section("A", model.GenderMixed, meeting(model.Saturday, "08:00", "10:00"))
	b := section("B", model.GenderMixed, meeting(model.Sunday, "08:00", "10:00"))
	p, store := setupTestPlanner(t, a, b)
	require.NoError(t, p.SetUserGender(ctx, model.GenderMale))
	require.NoError(t, p.AddToActiveSchedule(ctx, "A"))
	require.NoError(t, p.AddToActiveSchedule(ctx, "B"))

	assert.True(t, p.RemoveFromActiveSchedule(ctx, "A"))
	assert.False(t, p.RemoveFromActiveSchedule(ctx, "A"))

	active, _ := p.ActiveSchedule()
	assert.Equal(t, []string{"B"}, groupIDs(active.Classes))
	assert.Equal(t, []string{"B"}, groupIDs(savedSnapshot(t, store).Schedules[0].Classes))
}

// ── 持久化失败 ──

func TestPlanner_PersistFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	p, store := setupTestPlanner(t)
	store.setErr = errStoreDown

	id := p.CreateSchedule(ctx, "offline")
	assert.Equal(t, id, p.ActiveScheduleID())
	assert.Len(t, p.Schedules(), 2)
	require.Error(t, p.PersistErr())
	assert.ErrorIs(t, p.PersistErr(), pkgerrors.ErrPersistence)

	// 存储恢复后下一次变更即清除错误
	store.setErr = nil
	p.RenameSchedule(ctx, id, "online")
	assert.NoError(t, p.PersistErr())
	assert.Len(t, savedSnapshot(t, store).Schedules, 2)
}

// ── 只读视图 ──

func TestPlanner_FilteredCatalog(t *testing.T) {
	a := section("1011_01", model.GenderMixed)
	a.Name = "Data Structures"
	a.Professor = "Dr. Karimi"
	b := section("2022_01", model.GenderMixed)
	b.Name = "ریاضی ۱"
	b.Professor = "Dr. Rahimi"
	p, _ := setupTestPlanner(t, a, b)

	assert.Len(t, p.FilteredCatalog(), 2)

	p.SetSearchTerm("data")
	assert.Equal(t, []string{"1011_01"}, groupIDs(p.FilteredCatalog()))

	p.SetSearchTerm("RAHIMI")
	assert.Equal(t, []string{"2022_01"}, groupIDs(p.FilteredCatalog()))

	p.SetSearchTerm("2022")
	assert.Equal(t, []string{"2022_01"}, groupIDs(p.FilteredCatalog()))

	p.SetSearchTerm("ریاضی")
	assert.Equal(t, []string{"2022_01"}, groupIDs(p.FilteredCatalog()))

	p.SetSearchTerm("nothing")
	assert.Empty(t, p.FilteredCatalog())

	// 导入新目录会重置搜索条件
	p.ReplaceCatalog(context.Background(), []model.ClassSection{a, b})
	assert.Len(t, p.FilteredCatalog(), 2)
}

func TestPlanner_StatusOf(t *testing.T) {
	ctx := context.Background()
	a := section("A", model.GenderMixed, meeting(model.Saturday, "08:00", "10:00"))
	clash := section("B", model.GenderMixed, meeting(model.Saturday, "09:00", "11:00"))
	femaleClash := section("C", model.GenderFemale, meeting(model.Saturday, "09:00", "11:00"))
	free := section("D", model.GenderMixed, meeting(model.Monday, "09:00", "11:00"))
	p, _ := setupTestPlanner(t, a, clash, femaleClash, free)
	require.NoError(t, p.SetUserGender(ctx, model.GenderMale))
	require.NoError(t, p.AddToActiveSchedule(ctx, "A"))

	assert.Equal(t, SectionStatus{Selected: true}, p.StatusOf(a))
	assert.Equal(t, SectionStatus{Disabled: true, DisableReason: DisableConflict}, p.StatusOf(clash))
	// 性别原因优先于冲突
	assert.Equal(t, SectionStatus{Disabled: true, DisableReason: DisableGender}, p.StatusOf(femaleClash))
	assert.Equal(t, SectionStatus{}, p.StatusOf(free))
}

func TestPlanner_CheckSection(t *testing.T) {
	ctx := context.Background()
	a := section("A", model.GenderMixed, meeting(model.Saturday, "08:00", "10:00"))
	b := section("B", model.GenderMixed, meeting(model.Saturday, "09:00", "11:00"))
	p, _ := setupTestPlanner(t, a, b)
	require.NoError(t, p.SetUserGender(ctx, model.GenderMale))
	require.NoError(t, p.AddToActiveSchedule(ctx, "A"))

	got, conflicts, err := p.CheckSection("B")
	require.NoError(t, err)
	assert.Equal(t, "B", got.GroupID)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "A", conflicts[0].Other.GroupID)

	// 已选课程班不与自身比较
	_, conflicts, err = p.CheckSection("A")
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	_, _, err = p.CheckSection("nope")
	assert.ErrorIs(t, err, ErrUnknownSection)
}
