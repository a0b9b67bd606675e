package chat

import (
	"sync"
	"testing"
)

// fakeConn 测试用连接，记录收到的全部事件
type fakeConn struct {
	id string

	mu     sync.Mutex
	events []emitted
}

type emitted struct {
	event   string
	payload map[string]interface{}
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Emit(event string, payload map[string]interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, emitted{event: event, payload: payload})
}

// count 统计某事件收到的次数
func (c *fakeConn) count(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.events {
		if e.event == event {
			n++
		}
	}
	return n
}

// last 最后一次收到的某事件 payload，没有则返回 nil
func (c *fakeConn) last(event string) map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.events) - 1; i >= 0; i-- {
		if c.events[i].event == event {
			return c.events[i].payload
		}
	}
	return nil
}

func TestRegistryBindLookup(t *testing.T) {
	r := NewRegistry()
	conn := newFakeConn("c1")

	r.Bind(CustomerKey(1), conn)
	got, ok := r.Lookup(CustomerKey(1))
	if !ok || got.ID() != "c1" {
		t.Fatalf("Lookup = %v, %v; want c1, true", got, ok)
	}
	if _, ok := r.Lookup(CustomerKey(2)); ok {
		t.Fatal("Lookup of unbound key should report absent")
	}
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}
}

func TestRegistryLastAuthWins(t *testing.T) {
	r := NewRegistry()
	old := newFakeConn("old")
	fresh := newFakeConn("fresh")

	r.Bind(CustomerKey(7), old)
	r.Bind(CustomerKey(7), fresh)

	got, ok := r.Lookup(CustomerKey(7))
	if !ok || got.ID() != "fresh" {
		t.Fatalf("Lookup after rebind = %v; want fresh", got)
	}
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1 (rebind must not leak)", r.Len())
	}
}

func TestRegistryUnbindMissingKey(t *testing.T) {
	r := NewRegistry()
	// 不存在的 key 解绑不应 panic
	r.Unbind(AdminKey(99))
}

func TestRegistryUnbindOwned(t *testing.T) {
	r := NewRegistry()
	old := newFakeConn("old")
	fresh := newFakeConn("fresh")

	r.Bind(CustomerKey(3), old)
	r.Bind(CustomerKey(3), fresh)

	// 旧连接断开不能误删新连接的绑定
	if r.UnbindOwned(CustomerKey(3), "old") {
		t.Fatal("UnbindOwned by superseded conn should return false")
	}
	if got, ok := r.Lookup(CustomerKey(3)); !ok || got.ID() != "fresh" {
		t.Fatalf("binding lost after stale unbind: %v, %v", got, ok)
	}

	if !r.UnbindOwned(CustomerKey(3), "fresh") {
		t.Fatal("UnbindOwned by current conn should return true")
	}
	if _, ok := r.Lookup(CustomerKey(3)); ok {
		t.Fatal("binding should be gone after owned unbind")
	}
}

func TestCustomerAndAdminKeysDistinct(t *testing.T) {
	if CustomerKey(5) == AdminKey(5) {
		t.Fatal("customer and admin keys must not collide")
	}
}
