package presence

import (
	"sync"
	"time"
)

// Handle 实时通道句柄，可向对应客户端推送事件
type Handle interface {
	SendEvent(event string, payload interface{}) error
}

// Entry 在线表条目
type Entry struct {
	UserID      string
	Handle      Handle
	ConnectedAt time.Time
}

// Registry 在线状态目录
//
// 进程本地实现：多实例部署时接在别的实例上的用户收不到实时消息，
// 只能退回推送通道。届时需换成共享目录（外部KV + 发布订阅扇出）
type Registry interface {
	// Register 注册用户的实时通道，无条件覆盖旧条目
	Register(userID string, handle Handle)

	// Lookup 查询用户当前的实时通道
	Lookup(userID string) (Handle, bool)

	// Unregister 按句柄注销
	// 断连事件只携带句柄，需要扫描匹配（在线表规模下O(n)可接受）
	Unregister(handle Handle)

	// Count 当前在线条目数
	Count() int
}

// MemoryRegistry 进程内在线表
type MemoryRegistry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryRegistry 创建进程内在线表
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{entries: make(map[string]Entry)}
}

// Register 注册实时通道，同一用户后注册的覆盖先注册的
func (r *MemoryRegistry) Register(userID string, handle Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[userID] = Entry{
		UserID:      userID,
		Handle:      handle,
		ConnectedAt: time.Now(),
	}
}

// Lookup 查询用户的实时通道
func (r *MemoryRegistry) Lookup(userID string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[userID]
	if !ok {
		return nil, false
	}
	return entry.Handle, true
}

// Unregister 按句柄扫描注销
// 句柄已被覆盖时什么都不删，避免误下线新连接
func (r *MemoryRegistry) Unregister(handle Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, entry := range r.entries {
		if entry.Handle == handle {
			delete(r.entries, userID)
			return
		}
	}
}

// Count 当前在线条目数
func (r *MemoryRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
