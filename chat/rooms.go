package chat

import (
	"fmt"
	"sync"
)

// RoomAdmins 所有在线管理员所在的广播组
const RoomAdmins = "admins"

// CustomerRoom 某个顾客的会话房间名
func CustomerRoom(id uint) string {
	return fmt.Sprintf("customer:%d", id)
}

// Router 房间路由：把连接分配到命名广播组并按组分发事件
// 广播为尽力而为，无确认无重试；同一房间内按调用顺序逐个投递（FIFO）
type Router struct {
	mu    sync.RWMutex
	rooms map[string]map[string]Conn // room -> connID -> conn
}

func NewRouter() *Router {
	return &Router{rooms: make(map[string]map[string]Conn)}
}

// Join 把连接加入房间
func (r *Router) Join(conn Conn, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[room]; !ok {
		r.rooms[room] = make(map[string]Conn)
	}
	r.rooms[room][conn.ID()] = conn
}

// Leave 把连接移出房间，幂等
func (r *Router) Leave(conn Conn, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if members, ok := r.rooms[room]; ok {
		delete(members, conn.ID())
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
}

// LeaveAll 断开时把连接从所有房间移除
func (r *Router) LeaveAll(conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for room, members := range r.rooms {
		delete(members, conn.ID())
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
}

// Broadcast 向房间内所有成员投递事件，房间为空时为 no-op
func (r *Router) Broadcast(room, event string, payload map[string]interface{}) {
	r.BroadcastExcept(room, "", event, payload)
}

// BroadcastExcept 向房间内除 exceptID 外的成员投递事件
func (r *Router) BroadcastExcept(room, exceptID, event string, payload map[string]interface{}) {
	r.mu.RLock()
	members := make([]Conn, 0, len(r.rooms[room]))
	for id, conn := range r.rooms[room] {
		if exceptID != "" && id == exceptID {
			continue
		}
		members = append(members, conn)
	}
	r.mu.RUnlock()

	for _, conn := range members {
		conn.Emit(event, payload)
	}
}

// EmitTo 向单个连接投递事件
func (r *Router) EmitTo(conn Conn, event string, payload map[string]interface{}) {
	conn.Emit(event, payload)
}

// Members 房间当前成员数（监控用）
func (r *Router) Members(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}
