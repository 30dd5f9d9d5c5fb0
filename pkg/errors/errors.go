package errors

import "errors"

// ErrSnapshotNotFound 快照键不存在（首次启动或已被清除）
var ErrSnapshotNotFound = errors.New("快照不存在")

// ErrPersistence 持久化读写失败：内存状态仍然有效，仅失去持久性
var ErrPersistence = errors.New("状态持久化失败")
