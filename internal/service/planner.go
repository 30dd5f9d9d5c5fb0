package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/model"
	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/repository"
	pkgerrors "github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/pkg/errors"
)

// ── 选课模块业务错误 ──

var (
	ErrNoActiveSchedule  = errors.New("当前没有活动课表")
	ErrGenderUnset       = errors.New("请先声明性别")
	ErrUnknownSection    = errors.New("课程目录中不存在该课程班")
	ErrAlreadyPresent    = errors.New("该课程班已在当前课表中")
	ErrGenderIneligible  = errors.New("该课程班的性别限制不允许选择")
	ErrTimeConflict      = errors.New("该课程班与当前课表存在时间冲突")
	ErrInvalidGender     = errors.New("性别取值无效")
	ErrLastSchedule      = errors.New("无法删除最后一个课表")
	ErrScheduleNotFound  = errors.New("课表不存在")
	ErrBlankScheduleName = errors.New("课表名称不能为空")
)

// TimeConflictError 携带冲突明细的加课失败错误，errors.Is(err, ErrTimeConflict) 成立
type TimeConflictError struct {
	Conflicts []Conflict
}

func (e *TimeConflictError) Error() string {
	return fmt.Sprintf("%s（%d 处）", ErrTimeConflict.Error(), len(e.Conflicts))
}

func (e *TimeConflictError) Unwrap() error { return ErrTimeConflict }

// DefaultScheduleName 首个默认课表的名称
const DefaultScheduleName = "برنامه ۱"

// persianDigits 自动生成的课表名称使用波斯数字
var persianDigits = strings.NewReplacer(
	"0", "۰", "1", "۱", "2", "۲", "3", "۳", "4", "۴",
	"5", "۵", "6", "۶", "7", "۷", "8", "۸", "9", "۹",
)

// PlannerState 会话状态：课程目录、课表集合、活动课表与用户性别。
// 不变量：Schedules 非空时 ActiveScheduleID 必须指向其中一项。
type PlannerState struct {
	Catalog          []model.ClassSection
	SearchTerm       string
	Schedules        map[string]*model.Schedule
	Order            []string // 课表创建顺序
	ActiveScheduleID string
	UserGender       model.Gender
}

// ── Planner ────────────────────────────────────────────────
//
// 设计说明：
//   - Planner 独占会话状态，所有变更经由其方法完成，不使用包级全局变量
//   - 每次变更后将快照写入 SnapshotRepository；写入失败仅记录日志，
//     内存状态保持权威，会话降级为无持久化继续运行
//   - Planner 本身不加锁，调用方须保证同一时刻只有一个调用者（见 plannerService）
// ─────────────────────────────────────────────────────────────

// Planner 课表存储：维护会话状态并提供全部变更操作
type Planner struct {
	state        PlannerState
	catalogIndex map[string]int
	store        repository.SnapshotRepository
	key          string
	logger       *zap.Logger
	persistErr   error
}

// NewPlanner 创建 Planner 并从快照存储恢复状态。
// 键不存在或内容无法解析时静默回退为仅含一个空默认课表的新状态。
func NewPlanner(ctx context.Context, store repository.SnapshotRepository, key string, logger *zap.Logger) *Planner {
	p := &Planner{
		state: PlannerState{
			Schedules: make(map[string]*model.Schedule),
		},
		catalogIndex: make(map[string]int),
		store:        store,
		key:          key,
		logger:       logger,
	}
	p.load(ctx)
	return p
}

func (p *Planner) load(ctx context.Context) {
	data, err := p.store.Get(ctx, p.key)
	switch {
	case errors.Is(err, pkgerrors.ErrSnapshotNotFound):
		p.logger.Info("未找到会话快照，使用默认状态", zap.String("key", p.key))
	case err != nil:
		p.logger.Warn("读取会话快照失败，使用默认状态", zap.String("key", p.key), zap.Error(err))
	default:
		var snap model.StateSnapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			p.logger.Warn("会话快照无法解析，使用默认状态", zap.String("key", p.key), zap.Error(err))
		} else {
			p.restore(snap)
		}
	}

	if len(p.state.Order) == 0 {
		p.addSchedule(DefaultScheduleName)
	}
	if _, ok := p.state.Schedules[p.state.ActiveScheduleID]; !ok {
		p.state.ActiveScheduleID = p.state.Order[0]
	}
}

// restore 从快照恢复，丢弃重复的课表 ID 与课表内重复的 GroupID
func (p *Planner) restore(snap model.StateSnapshot) {
	for _, s := range snap.Schedules {
		if s.ID == "" {
			continue
		}
		if _, dup := p.state.Schedules[s.ID]; dup {
			continue
		}
		sched := &model.Schedule{ID: s.ID, Name: s.Name, Classes: make([]model.ClassSection, 0, len(s.Classes))}
		for _, c := range s.Classes {
			if !sched.Contains(c.GroupID) {
				sched.Classes = append(sched.Classes, c)
			}
		}
		p.state.Schedules[s.ID] = sched
		p.state.Order = append(p.state.Order, s.ID)
	}
	p.state.ActiveScheduleID = snap.ActiveScheduleID
	if snap.UserGender.IsUserGender() {
		p.state.UserGender = snap.UserGender
	}
}

// snapshot 生成持久化快照（课表按创建顺序排列）
func (p *Planner) snapshot() model.StateSnapshot {
	schedules := make([]model.Schedule, 0, len(p.state.Order))
	for _, id := range p.state.Order {
		schedules = append(schedules, p.state.Schedules[id].Clone())
	}
	return model.StateSnapshot{
		Schedules:        schedules,
		ActiveScheduleID: p.state.ActiveScheduleID,
		UserGender:       p.state.UserGender,
	}
}

// persist 写入快照。失败不回滚内存状态，错误可通过 PersistErr 查询。
func (p *Planner) persist(ctx context.Context) {
	data, err := json.Marshal(p.snapshot())
	if err == nil {
		err = p.store.Set(ctx, p.key, data)
	}
	if err != nil {
		p.persistErr = fmt.Errorf("%w: %v", pkgerrors.ErrPersistence, err)
		p.logger.Warn("会话快照写入失败，状态仅保存在内存中", zap.String("key", p.key), zap.Error(err))
		return
	}
	p.persistErr = nil
}

// PersistErr 最近一次持久化的结果，nil 表示已成功落盘
func (p *Planner) PersistErr() error {
	return p.persistErr
}

func (p *Planner) addSchedule(name string) string {
	id := "schedule-" + uuid.NewString()
	p.state.Schedules[id] = &model.Schedule{ID: id, Name: name, Classes: []model.ClassSection{}}
	p.state.Order = append(p.state.Order, id)
	p.state.ActiveScheduleID = id
	return id
}

// ════════════════════════════════════════════════════════════
// 课表管理
// ════════════════════════════════════════════════════════════

// CreateSchedule 新建空课表并设为活动课表。名称为空时按序号生成默认名称。
func (p *Planner) CreateSchedule(ctx context.Context, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "برنامه " + persianDigits.Replace(strconv.Itoa(len(p.state.Order)+1))
	}
	id := p.addSchedule(name)
	p.persist(ctx)
	return id
}

// RenameSchedule 重命名课表；ID 不存在或新名称为空时不做任何修改
func (p *Planner) RenameSchedule(ctx context.Context, id, newName string) bool {
	newName = strings.TrimSpace(newName)
	sched, ok := p.state.Schedules[id]
	if !ok || newName == "" {
		return false
	}
	sched.Name = newName
	p.persist(ctx)
	return true
}

// DeleteSchedule 删除课表。仅剩一个课表或 ID 不存在时返回 false 且不修改状态；
// 删除的是活动课表时，按创建顺序激活剩余的第一个课表。
func (p *Planner) DeleteSchedule(ctx context.Context, id string) bool {
	if _, ok := p.state.Schedules[id]; !ok || len(p.state.Order) <= 1 {
		return false
	}
	delete(p.state.Schedules, id)
	for i, sid := range p.state.Order {
		if sid == id {
			p.state.Order = append(p.state.Order[:i], p.state.Order[i+1:]...)
			break
		}
	}
	if p.state.ActiveScheduleID == id {
		p.state.ActiveScheduleID = p.state.Order[0]
	}
	p.persist(ctx)
	return true
}

// SetActiveSchedule 切换活动课表；ID 不存在时忽略
func (p *Planner) SetActiveSchedule(ctx context.Context, id string) bool {
	if _, ok := p.state.Schedules[id]; !ok {
		return false
	}
	p.state.ActiveScheduleID = id
	p.persist(ctx)
	return true
}

// SetUserGender 声明用户性别（male / female，空值表示撤销声明）。
// 不会追溯移除已选但现在不符合条件的课程班，性别限制只在选课时检查。
func (p *Planner) SetUserGender(ctx context.Context, g model.Gender) error {
	if g != model.GenderUnset && !g.IsUserGender() {
		return ErrInvalidGender
	}
	p.state.UserGender = g
	p.persist(ctx)
	return nil
}

// ════════════════════════════════════════════════════════════
// 选课
// ════════════════════════════════════════════════════════════

// AddToActiveSchedule 将课程班加入活动课表。
//
// 检查顺序：活动课表存在 → 已声明性别 → 目录中存在 → 未重复 → 性别符合 → 无时间冲突。
// 时间冲突时返回 *TimeConflictError。
func (p *Planner) AddToActiveSchedule(ctx context.Context, groupID string) error {
	sched := p.activeSchedule()
	if sched == nil {
		return ErrNoActiveSchedule
	}
	if p.state.UserGender == model.GenderUnset {
		return ErrGenderUnset
	}
	section, ok := p.FindSection(groupID)
	if !ok {
		return ErrUnknownSection
	}
	if sched.Contains(groupID) {
		return ErrAlreadyPresent
	}
	if !IsEligible(section, p.state.UserGender) {
		return ErrGenderIneligible
	}
	if conflicts := FindConflicts(section, sched.Classes); len(conflicts) > 0 {
		return &TimeConflictError{Conflicts: conflicts}
	}

	sched.Classes = append(sched.Classes, section)
	p.persist(ctx)
	return nil
}

// RemoveFromActiveSchedule 从活动课表移除课程班，不存在时不做修改
func (p *Planner) RemoveFromActiveSchedule(ctx context.Context, groupID string) bool {
	sched := p.activeSchedule()
	if sched == nil {
		return false
	}
	removed := false
	if i := sched.IndexOf(groupID); i >= 0 {
		sched.Classes = append(sched.Classes[:i], sched.Classes[i+1:]...)
		removed = true
	}
	p.persist(ctx)
	return removed
}

// ReplaceCatalog 安装新的课程目录并对所有课表执行对账，返回移除记录。
// 搜索条件随目录一起重置。
func (p *Planner) ReplaceCatalog(ctx context.Context, catalog []model.ClassSection) []Removal {
	p.state.Catalog = catalog
	p.state.SearchTerm = ""
	p.catalogIndex = indexCatalog(catalog)

	removals := []Removal{}
	for _, id := range p.state.Order {
		sched := p.state.Schedules[id]
		kept, removed := reconcileClasses(sched, catalog, p.catalogIndex)
		sched.Classes = kept
		removals = append(removals, removed...)
	}

	if len(removals) > 0 {
		p.logger.Info("课程目录更新后移除了失效课程班", zap.Int("count", len(removals)))
	}
	p.persist(ctx)
	return removals
}

// SetSearchTerm 设置目录筛选关键字（仅影响只读视图，不持久化）
func (p *Planner) SetSearchTerm(term string) {
	p.state.SearchTerm = term
}

// ════════════════════════════════════════════════════════════
// 只读视图
// ════════════════════════════════════════════════════════════

func (p *Planner) activeSchedule() *model.Schedule {
	return p.state.Schedules[p.state.ActiveScheduleID]
}

// ActiveSchedule 返回活动课表的副本
func (p *Planner) ActiveSchedule() (model.Schedule, bool) {
	sched := p.activeSchedule()
	if sched == nil {
		return model.Schedule{}, false
	}
	return sched.Clone(), true
}

// ActiveScheduleID 活动课表 ID
func (p *Planner) ActiveScheduleID() string {
	return p.state.ActiveScheduleID
}

// Schedules 按创建顺序返回所有课表的副本
func (p *Planner) Schedules() []model.Schedule {
	return p.snapshot().Schedules
}

// UserGender 用户声明的性别，未声明时为空
func (p *Planner) UserGender() model.Gender {
	return p.state.UserGender
}

// Catalog 当前课程目录（只读）
func (p *Planner) Catalog() []model.ClassSection {
	return p.state.Catalog
}

// FindSection 按 GroupID 查找目录中的课程班
func (p *Planner) FindSection(groupID string) (model.ClassSection, bool) {
	i, ok := p.catalogIndex[groupID]
	if !ok {
		return model.ClassSection{}, false
	}
	return p.state.Catalog[i], true
}

// FilteredCatalog 按搜索关键字（课程名、教师、GroupID，不区分大小写）筛选后的目录
func (p *Planner) FilteredCatalog() []model.ClassSection {
	term := strings.ToLower(strings.TrimSpace(p.state.SearchTerm))
	if term == "" {
		out := make([]model.ClassSection, len(p.state.Catalog))
		copy(out, p.state.Catalog)
		return out
	}
	var out []model.ClassSection
	for _, c := range p.state.Catalog {
		if strings.Contains(strings.ToLower(c.Name), term) ||
			strings.Contains(strings.ToLower(c.Professor), term) ||
			strings.Contains(strings.ToLower(c.GroupID), term) {
			out = append(out, c)
		}
	}
	return out
}

// DisableReason 目录行不可选的原因
type DisableReason string

const (
	DisableNone     DisableReason = ""
	DisableGender   DisableReason = "gender"
	DisableConflict DisableReason = "conflict"
)

// SectionStatus 目录行相对活动课表的派生状态
type SectionStatus struct {
	Selected      bool
	Disabled      bool
	DisableReason DisableReason
}

// StatusOf 计算课程班相对活动课表的状态：已选的行永远可操作（用于取消选择）；
// 未选的行在性别不符或存在时间冲突时禁用，性别原因优先。
func (p *Planner) StatusOf(section model.ClassSection) SectionStatus {
	sched := p.activeSchedule()
	if sched == nil {
		return SectionStatus{}
	}
	if sched.Contains(section.GroupID) {
		return SectionStatus{Selected: true}
	}
	if !IsEligible(section, p.state.UserGender) {
		return SectionStatus{Disabled: true, DisableReason: DisableGender}
	}
	if len(FindConflicts(section, sched.Classes)) > 0 {
		return SectionStatus{Disabled: true, DisableReason: DisableConflict}
	}
	return SectionStatus{}
}

// CheckSection 返回课程班与活动课表中其他课程班的冲突明细（供冲突对话框展示）
func (p *Planner) CheckSection(groupID string) (model.ClassSection, []Conflict, error) {
	section, ok := p.FindSection(groupID)
	if !ok {
		return model.ClassSection{}, nil, ErrUnknownSection
	}
	sched := p.activeSchedule()
	if sched == nil {
		return section, nil, ErrNoActiveSchedule
	}
	others := make([]model.ClassSection, 0, len(sched.Classes))
	for _, c := range sched.Classes {
		if c.GroupID != groupID {
			others = append(others, c)
		}
	}
	return section, FindConflicts(section, others), nil
}
