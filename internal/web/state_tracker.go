package web

import (
	"self-checkout/internal/types"
	"sync"
)

// StateTracker 保存最新的收银台快照，并通知前端更新
type StateTracker struct {
	mu    sync.RWMutex
	state types.Snapshot
	hub   *Hub
}

// NewStateTracker 创建一个新的 StateTracker 实例，hub 可以为 nil
func NewStateTracker(hub *Hub) *StateTracker {
	return &StateTracker{hub: hub, state: types.Snapshot{State: types.StateUnavailable, Entries: []types.EntryView{}}}
}

// Update 更新快照并广播；版本号不大于当前版本的快照被丢弃
func (st *StateTracker) Update(s types.Snapshot) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s.Version != 0 && s.Version <= st.state.Version {
		return false
	}
	st.state = s
	if st.hub != nil {
		st.hub.BroadcastState(s)
	}
	return true
}

// GetStateSnapshot 返回当前快照的副本
// 用于新客户端连接时获取一次全量数据
func (st *StateTracker) GetStateSnapshot() types.Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s := st.state
	s.Entries = append([]types.EntryView(nil), st.state.Entries...)
	return s
}
