package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/dto"
	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/model"
)

// PlannerService 选课业务接口
//
// 设计说明：
//   - 整个进程只有一个会话（单用户），由一个 Planner 持有
//   - HTTP 请求可能并发到达，所有调用经同一把互斥锁串行化后再交给 Planner
//   - 变更操作统一返回变更后的完整状态，其中 Persisted 反映快照是否写入成功
type PlannerService interface {
	// State 当前会话状态
	State(ctx context.Context) *dto.StateResponse
	// ListCatalog 按关键字筛选并分页返回课程目录
	ListCatalog(ctx context.Context, req *dto.CatalogListRequest) ([]dto.CatalogItemResponse, int64)
	// ImportCatalog 解析并安装新的课程目录，返回对账结果
	ImportCatalog(ctx context.Context, payload []byte) (*dto.ImportCatalogResponse, error)
	// CheckSection 检查课程班能否加入活动课表
	CheckSection(ctx context.Context, groupID string) (*dto.CheckSectionResponse, error)

	// CreateSchedule 新建课表并设为活动课表
	CreateSchedule(ctx context.Context, req *dto.CreateScheduleRequest) *dto.StateResponse
	// RenameSchedule 重命名课表
	RenameSchedule(ctx context.Context, id string, req *dto.RenameScheduleRequest) (*dto.StateResponse, error)
	// DeleteSchedule 删除课表
	DeleteSchedule(ctx context.Context, id string) (*dto.StateResponse, error)
	// ActivateSchedule 切换活动课表
	ActivateSchedule(ctx context.Context, id string) (*dto.StateResponse, error)
	// SetGender 声明用户性别
	SetGender(ctx context.Context, req *dto.SetGenderRequest) (*dto.StateResponse, error)

	// AddClass 向活动课表加课
	AddClass(ctx context.Context, req *dto.AddClassRequest) (*dto.StateResponse, error)
	// RemoveClass 从活动课表移除课程班
	RemoveClass(ctx context.Context, groupID string) *dto.StateResponse

	// ActiveSchedule 活动课表副本（用于导出）
	ActiveSchedule(ctx context.Context) (model.Schedule, error)
}

type plannerService struct {
	mu      sync.Mutex
	planner *Planner
	parser  *CatalogParser
	logger  *zap.Logger
}

// NewPlannerService 创建 PlannerService 实例
func NewPlannerService(planner *Planner, parser *CatalogParser, logger *zap.Logger) PlannerService {
	return &plannerService{planner: planner, parser: parser, logger: logger}
}

func (s *plannerService) State(_ context.Context) *dto.StateResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateResponse()
}

// ═══════════════════════════════════════════════════════════
// 课程目录
// ═══════════════════════════════════════════════════════════

func (s *plannerService) ListCatalog(_ context.Context, req *dto.CatalogListRequest) ([]dto.CatalogItemResponse, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.planner.SetSearchTerm(req.Search)
	filtered := s.planner.FilteredCatalog()
	total := int64(len(filtered))

	start, end := req.Bounds(len(filtered))
	items := make([]dto.CatalogItemResponse, 0, end-start)
	for _, c := range filtered[start:end] {
		items = append(items, s.catalogItem(c))
	}
	return items, total
}

func (s *plannerService) ImportCatalog(ctx context.Context, payload []byte) (*dto.ImportCatalogResponse, error) {
	// 解析不涉及会话状态，失败时状态保持不变
	catalog, err := s.parser.Parse(payload)
	if err != nil {
		s.logger.Warn("课程目录解析失败", zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removals := s.planner.ReplaceCatalog(ctx, catalog)
	resp := &dto.ImportCatalogResponse{
		Sections:  len(catalog),
		Removals:  make([]dto.RemovalResponse, 0, len(removals)),
		Persisted: s.planner.PersistErr() == nil,
	}
	for _, r := range removals {
		resp.Removals = append(resp.Removals, dto.RemovalResponse{
			ScheduleID:   r.ScheduleID,
			ScheduleName: r.ScheduleName,
			GroupID:      r.Section.GroupID,
			Name:         r.Section.Name,
			Reason:       r.Reason,
		})
	}
	return resp, nil
}

func (s *plannerService) CheckSection(_ context.Context, groupID string) (*dto.CheckSectionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	section, conflicts, err := s.planner.CheckSection(groupID)
	if err != nil {
		return nil, err
	}
	return &dto.CheckSectionResponse{
		Section:   s.catalogItem(section),
		Eligible:  IsEligible(section, s.planner.UserGender()),
		Conflicts: toConflictResponses(conflicts),
	}, nil
}

// ═══════════════════════════════════════════════════════════
// 课表管理
// ═══════════════════════════════════════════════════════════

func (s *plannerService) CreateSchedule(ctx context.Context, req *dto.CreateScheduleRequest) *dto.StateResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.planner.CreateSchedule(ctx, req.Name)
	s.logger.Info("新建课表", zap.String("schedule_id", id))
	return s.stateResponse()
}

func (s *plannerService) RenameSchedule(ctx context.Context, id string, req *dto.RenameScheduleRequest) (*dto.StateResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasSchedule(id) {
		return nil, ErrScheduleNotFound
	}
	if !s.planner.RenameSchedule(ctx, id, req.Name) {
		return nil, ErrBlankScheduleName
	}
	return s.stateResponse(), nil
}

func (s *plannerService) DeleteSchedule(ctx context.Context, id string) (*dto.StateResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasSchedule(id) {
		return nil, ErrScheduleNotFound
	}
	if !s.planner.DeleteSchedule(ctx, id) {
		return nil, ErrLastSchedule
	}
	s.logger.Info("删除课表", zap.String("schedule_id", id))
	return s.stateResponse(), nil
}

func (s *plannerService) ActivateSchedule(ctx context.Context, id string) (*dto.StateResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.planner.SetActiveSchedule(ctx, id) {
		return nil, ErrScheduleNotFound
	}
	return s.stateResponse(), nil
}

func (s *plannerService) SetGender(ctx context.Context, req *dto.SetGenderRequest) (*dto.StateResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.planner.SetUserGender(ctx, model.Gender(req.Gender)); err != nil {
		return nil, err
	}
	return s.stateResponse(), nil
}

// ═══════════════════════════════════════════════════════════
// 选课
// ═══════════════════════════════════════════════════════════

func (s *plannerService) AddClass(ctx context.Context, req *dto.AddClassRequest) (*dto.StateResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.planner.AddToActiveSchedule(ctx, req.GroupID); err != nil {
		return nil, err
	}
	return s.stateResponse(), nil
}

func (s *plannerService) RemoveClass(ctx context.Context, groupID string) *dto.StateResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.planner.RemoveFromActiveSchedule(ctx, groupID)
	return s.stateResponse()
}

func (s *plannerService) ActiveSchedule(_ context.Context) (model.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sched, ok := s.planner.ActiveSchedule()
	if !ok {
		return model.Schedule{}, ErrNoActiveSchedule
	}
	return sched, nil
}

// ── 辅助函数（调用方须持有锁） ──

func (s *plannerService) hasSchedule(id string) bool {
	for _, sched := range s.planner.Schedules() {
		if sched.ID == id {
			return true
		}
	}
	return false
}

func (s *plannerService) stateResponse() *dto.StateResponse {
	activeID := s.planner.ActiveScheduleID()
	schedules := s.planner.Schedules()
	resp := &dto.StateResponse{
		Schedules:        make([]dto.ScheduleResponse, 0, len(schedules)),
		ActiveScheduleID: activeID,
		UserGender:       string(s.planner.UserGender()),
		CatalogSize:      len(s.planner.Catalog()),
		Persisted:        s.planner.PersistErr() == nil,
	}
	for i := range schedules {
		resp.Schedules = append(resp.Schedules, dto.ScheduleResponse{
			ID:         schedules[i].ID,
			Name:       schedules[i].Name,
			Active:     schedules[i].ID == activeID,
			TotalUnits: schedules[i].TotalUnits(),
			Classes:    schedules[i].Classes,
		})
	}
	return resp
}

func (s *plannerService) catalogItem(c model.ClassSection) dto.CatalogItemResponse {
	st := s.planner.StatusOf(c)
	return dto.CatalogItemResponse{
		ClassSection:  c,
		Selected:      st.Selected,
		Disabled:      st.Disabled,
		DisableReason: string(st.DisableReason),
	}
}

// toConflictResponses 冲突明细转换为响应结构，无冲突时返回空列表
func toConflictResponses(conflicts []Conflict) []dto.ConflictResponse {
	out := make([]dto.ConflictResponse, 0, len(conflicts))
	for _, c := range conflicts {
		out = append(out, dto.ConflictResponse{
			GroupID: c.Other.GroupID,
			Name:    c.Other.Name,
			Kind:    string(c.Kind),
			Reason:  c.Reason,
		})
	}
	return out
}

// ConflictDetails 从加课错误中提取冲突详情，非时间冲突错误返回 nil
func ConflictDetails(groupID string, err error) *dto.AddClassConflictResponse {
	var tce *TimeConflictError
	if !errors.As(err, &tce) {
		return nil
	}
	return &dto.AddClassConflictResponse{GroupID: groupID, Conflicts: toConflictResponses(tce.Conflicts)}
}
