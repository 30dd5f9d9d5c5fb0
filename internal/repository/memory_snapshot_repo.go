package repository

import (
	"context"
	"sync"

	pkgerrors "github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/pkg/errors"
)

// memorySnapshotRepo 进程内存实现（storage.driver=memory），进程退出即丢失
type memorySnapshotRepo struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemorySnapshotRepo 创建内存 SnapshotRepository
func NewMemorySnapshotRepo() SnapshotRepository {
	return &memorySnapshotRepo{data: make(map[string][]byte)}
}

func (r *memorySnapshotRepo) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.data[key]
	if !ok {
		return nil, pkgerrors.ErrSnapshotNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (r *memorySnapshotRepo) Set(_ context.Context, key string, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)
	r.mu.Lock()
	r.data[key] = v
	r.mu.Unlock()
	return nil
}
