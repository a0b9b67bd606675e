package chat

import (
	"fmt"
	"sync"
)

// Conn 一条已接入的客户端连接
// Emit 为尽力而为：传输层缓冲满时直接丢弃，不阻塞调用方
type Conn interface {
	ID() string
	Emit(event string, payload map[string]interface{})
}

// Key 在线参与者标识，"customer:<id>" 或 "admin:<id>"
type Key string

func CustomerKey(id uint) Key {
	return Key(fmt.Sprintf("customer:%d", id))
}

func AdminKey(id uint) Key {
	return Key(fmt.Sprintf("admin:%d", id))
}

// Registry 在线注册表：参与者标识 -> 当前连接
// 纯内存，进程重启即清空（客户端重连后重新认证）
type Registry struct {
	mu    sync.RWMutex
	conns map[Key]Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[Key]Conn)}
}

// Bind 绑定连接，同一 key 后认证者覆盖先认证者
func (r *Registry) Bind(key Key, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[key] = conn
}

// Unbind 移除绑定，不存在时不报错
func (r *Registry) Unbind(key Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, key)
}

// UnbindOwned 仅当 key 仍绑定在 connID 上时移除
// 防止旧连接断开时误删新连接的绑定（后认证覆盖的场景）
func (r *Registry) UnbindOwned(key Key, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conn, ok := r.conns[key]; ok && conn.ID() == connID {
		delete(r.conns, key)
		return true
	}
	return false
}

// Lookup 查询当前绑定
func (r *Registry) Lookup(key Key) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[key]
	return conn, ok
}

// Len 当前在线数（监控用）
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
