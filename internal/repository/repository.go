package repository

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Snapshot SnapshotRepository
}

// NewRepository 创建 Repository 聚合。快照存储的具体实现由启动流程按
// storage.driver 选择（postgres / redis / memory）。
func NewRepository(snapshot SnapshotRepository) *Repository {
	return &Repository{
		Snapshot: snapshot,
	}
}
