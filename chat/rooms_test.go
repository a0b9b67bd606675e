package chat

import "testing"

func TestRouterJoinBroadcast(t *testing.T) {
	r := NewRouter()
	a := newFakeConn("a")
	b := newFakeConn("b")

	r.Join(a, RoomAdmins)
	r.Join(b, RoomAdmins)

	r.Broadcast(RoomAdmins, "ping", map[string]interface{}{"n": 1})
	if a.count("ping") != 1 || b.count("ping") != 1 {
		t.Fatalf("broadcast delivery = %d/%d, want 1/1", a.count("ping"), b.count("ping"))
	}
}

func TestRouterBroadcastEmptyRoom(t *testing.T) {
	r := NewRouter()
	// 空房间广播为 no-op，不 panic
	r.Broadcast(CustomerRoom(42), "ping", nil)
}

func TestRouterBroadcastExcept(t *testing.T) {
	r := NewRouter()
	sender := newFakeConn("sender")
	other := newFakeConn("other")

	r.Join(sender, RoomAdmins)
	r.Join(other, RoomAdmins)

	r.BroadcastExcept(RoomAdmins, "sender", "msg", nil)
	if sender.count("msg") != 0 {
		t.Fatal("sender should be excluded from broadcast")
	}
	if other.count("msg") != 1 {
		t.Fatalf("other got %d, want 1", other.count("msg"))
	}
}

func TestRouterLeaveIdempotent(t *testing.T) {
	r := NewRouter()
	a := newFakeConn("a")

	r.Join(a, "room")
	r.Leave(a, "room")
	r.Leave(a, "room") // 重复离开不报错
	r.Leave(a, "never-existed")

	if r.Members("room") != 0 {
		t.Fatalf("Members = %d, want 0", r.Members("room"))
	}
	r.Broadcast("room", "ping", nil)
	if a.count("ping") != 0 {
		t.Fatal("left member must not receive broadcasts")
	}
}

func TestRouterJoinIdempotent(t *testing.T) {
	r := NewRouter()
	a := newFakeConn("a")

	r.Join(a, "room")
	r.Join(a, "room")
	if r.Members("room") != 1 {
		t.Fatalf("Members = %d, want 1", r.Members("room"))
	}
	r.Broadcast("room", "ping", nil)
	if a.count("ping") != 1 {
		t.Fatalf("duplicate join caused %d deliveries, want 1", a.count("ping"))
	}
}

func TestRouterLeaveAll(t *testing.T) {
	r := NewRouter()
	a := newFakeConn("a")
	b := newFakeConn("b")

	r.Join(a, "x")
	r.Join(a, "y")
	r.Join(b, "x")

	r.LeaveAll(a)
	if r.Members("x") != 1 {
		t.Fatalf("Members(x) = %d, want 1", r.Members("x"))
	}
	if r.Members("y") != 0 {
		t.Fatalf("Members(y) = %d, want 0", r.Members("y"))
	}
	r.Broadcast("x", "ping", nil)
	if a.count("ping") != 0 || b.count("ping") != 1 {
		t.Fatalf("delivery after LeaveAll = %d/%d, want 0/1", a.count("ping"), b.count("ping"))
	}
}
