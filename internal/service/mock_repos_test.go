package service

import (
	"context"
	"errors"
	"sync"

	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/model"
	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/repository"
	pkgerrors "github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Mock SnapshotRepository
// ═══════════════════════════════════════════════════════════

var errStoreDown = errors.New("store unavailable")

type mockSnapshotRepo struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	setErr error
	sets   int
}

var _ repository.SnapshotRepository = (*mockSnapshotRepo)(nil)

func newMockSnapshotRepo() *mockSnapshotRepo {
	return &mockSnapshotRepo{data: make(map[string][]byte)}
}

func (m *mockSnapshotRepo) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, pkgerrors.ErrSnapshotNotFound
	}
	return v, nil
}

func (m *mockSnapshotRepo) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.sets++
	m.data[key] = append([]byte(nil), value...)
	return nil
}

// ═══════════════════════════════════════════════════════════
// 课程班构造辅助
// ═══════════════════════════════════════════════════════════

const testKey = "planner_state_test"

func meeting(day model.Weekday, start, end string) model.WeeklyMeeting {
	return model.WeeklyMeeting{
		Kind:  "ت",
		Day:   day,
		Start: model.MustParseTimeOfDay(start),
		End:   model.MustParseTimeOfDay(end),
	}
}

func exam(date, start, end string) *model.ExamSlot {
	return &model.ExamSlot{
		Date:  date,
		Start: model.MustParseTimeOfDay(start),
		End:   model.MustParseTimeOfDay(end),
	}
}

func section(id string, gender model.Gender, meetings ...model.WeeklyMeeting) model.ClassSection {
	if meetings == nil {
		meetings = []model.WeeklyMeeting{}
	}
	return model.ClassSection{
		GroupID:      id,
		Name:         "درس " + id,
		Units:        model.Units{Total: 3},
		Gender:       gender,
		Professor:    "استاد " + id,
		Meetings:     meetings,
		Requirements: model.EmptyRequirements(),
	}
}

func groupIDs(classes []model.ClassSection) []string {
	ids := make([]string, 0, len(classes))
	for _, c := range classes {
		ids = append(ids, c.GroupID)
	}
	return ids
}
