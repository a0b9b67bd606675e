package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/PremSagarPadhy/REASTURANT-POS-sub001/models"
)

// fakeStore 内存版会话存储，按 ConversationStore 的原子性契约实现
type fakeStore struct {
	mu        sync.Mutex
	customers map[uint]*models.Customer
	messages  map[uint][]*models.ChatMessage
	nextMsgID uint
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		customers: make(map[uint]*models.Customer),
		messages:  make(map[uint][]*models.ChatMessage),
	}
}

func (s *fakeStore) addCustomer(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[id] = &models.Customer{ID: id, Status: models.CustomerStatusActive}
}

func (s *fakeStore) FindCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	if !ok {
		return nil, ErrCustomerNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *fakeStore) FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	return nil, ErrCustomerNotFound
}

func (s *fakeStore) FindCustomerByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	return nil, ErrCustomerNotFound
}

func (s *fakeStore) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	customer.ID = uint(len(s.customers) + 1)
	s.customers[customer.ID] = customer
	return nil
}

func (s *fakeStore) AppendMessage(ctx context.Context, customerID uint, msg *models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[customerID]
	if !ok {
		return ErrCustomerNotFound
	}
	s.nextMsgID++
	msg.ID = s.nextMsgID
	s.messages[customerID] = append(s.messages[customerID], msg)
	c.LastActive = time.Now()
	if msg.Sender == models.SenderCustomer {
		c.UnreadCount++
		c.Status = models.CustomerStatusActive
	}
	return nil
}

func (s *fakeStore) MarkAllRead(ctx context.Context, customerID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[customerID]
	if !ok {
		return ErrCustomerNotFound
	}
	for _, m := range s.messages[customerID] {
		m.Read = true
	}
	c.UnreadCount = 0
	return nil
}

func (s *fakeStore) SetStatus(ctx context.Context, customerID uint, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[customerID]
	if !ok {
		return ErrCustomerNotFound
	}
	c.Status = status
	return nil
}

func (s *fakeStore) TouchLastActive(ctx context.Context, customerID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.customers[customerID]; ok {
		c.LastActive = time.Now()
	}
	return nil
}

func (s *fakeStore) SetLastOrder(ctx context.Context, customerID uint, orderID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[customerID]
	if !ok {
		return ErrCustomerNotFound
	}
	c.LastOrderID = &orderID
	return nil
}

func (s *fakeStore) unread(id uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customers[id].UnreadCount
}

func (s *fakeStore) messageCount(id uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages[id])
}

// recountUnread 从消息序列重新统计，应与计数器一致
func (s *fakeStore) recountUnread(id uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.messages[id] {
		if m.Sender == models.SenderCustomer && !m.Read {
			n++
		}
	}
	return n
}

// ---- 组装工具 ----

func frame(t *testing.T, event string, payload interface{}) Frame {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return Frame{Event: event, Payload: raw}
}

func newTestDispatcher() (*Dispatcher, *fakeStore) {
	store := newFakeStore()
	return NewDispatcher(store, NewRegistry(), NewRouter()), store
}

func authCustomer(t *testing.T, d *Dispatcher, conn *fakeConn, id uint) {
	t.Helper()
	d.HandleConnect(conn)
	d.Dispatch(context.Background(), conn, frame(t, EventCustomerAuth, CustomerAuthPayload{CustomerID: id}))
	if conn.count(EventError) != 0 {
		t.Fatalf("customer auth failed: %v", conn.last(EventError))
	}
}

func authAdmin(t *testing.T, d *Dispatcher, conn *fakeConn, id uint) {
	t.Helper()
	d.HandleConnect(conn)
	d.Dispatch(context.Background(), conn, frame(t, EventAdminAuth, AdminAuthPayload{AdminID: id}))
	if conn.count(EventError) != 0 {
		t.Fatalf("admin auth failed: %v", conn.last(EventError))
	}
}

// ---- 测试 ----

func TestCustomerMessageReachesAdmins(t *testing.T) {
	d, store := newTestDispatcher()
	store.addCustomer(1)

	admin := newFakeConn("admin-1")
	customer := newFakeConn("cust-1")
	authAdmin(t, d, admin, 10)

	// 顾客上线时管理员收到通知
	authCustomer(t, d, customer, 1)
	if admin.count(EventCustomerOnline) != 1 {
		t.Fatalf("customer:online delivered %d times, want 1", admin.count(EventCustomerOnline))
	}

	d.Dispatch(context.Background(), customer, frame(t, EventCustomerMessage,
		CustomerMessagePayload{CustomerID: 1, Text: "Hi, my order is late"}))

	if store.messageCount(1) != 1 {
		t.Fatalf("stored %d messages, want 1", store.messageCount(1))
	}
	if store.unread(1) != 1 {
		t.Fatalf("unread = %d, want 1", store.unread(1))
	}
	if admin.count(EventCustomerMessage) != 1 {
		t.Fatalf("admin got %d customer:message, want 1", admin.count(EventCustomerMessage))
	}
	if customer.count(EventMessageSent) != 1 {
		t.Fatalf("sender got %d message:sent, want 1", customer.count(EventMessageSent))
	}
}

func TestAdminMessageSkipsSender(t *testing.T) {
	d, store := newTestDispatcher()
	store.addCustomer(1)

	admin1 := newFakeConn("admin-1")
	admin2 := newFakeConn("admin-2")
	customer := newFakeConn("cust-1")
	authAdmin(t, d, admin1, 10)
	authAdmin(t, d, admin2, 11)
	authCustomer(t, d, customer, 1)

	d.Dispatch(context.Background(), admin1, frame(t, EventAdminMessage,
		AdminMessagePayload{CustomerID: 1, AdminID: 10, Text: "On its way"}))

	if customer.count(EventAdminMessage) != 1 {
		t.Fatalf("customer got %d admin:message, want 1", customer.count(EventAdminMessage))
	}
	// 发送方不重复收到自己的消息，其他管理员同步收到
	if admin1.count(EventAdminMessage) != 0 {
		t.Fatalf("sending admin got %d admin:message, want 0", admin1.count(EventAdminMessage))
	}
	if admin2.count(EventAdminMessage) != 1 {
		t.Fatalf("other admin got %d admin:message, want 1", admin2.count(EventAdminMessage))
	}
	if admin1.count(EventMessageSent) != 1 {
		t.Fatalf("sending admin got %d message:sent, want 1", admin1.count(EventMessageSent))
	}
	// 管理员消息不推高未读数
	if store.unread(1) != 0 {
		t.Fatalf("unread = %d, want 0", store.unread(1))
	}
}

func TestAdminReadIdempotent(t *testing.T) {
	d, store := newTestDispatcher()
	store.addCustomer(1)

	admin := newFakeConn("admin-1")
	customer := newFakeConn("cust-1")
	authAdmin(t, d, admin, 10)
	authCustomer(t, d, customer, 1)

	for i := 0; i < 3; i++ {
		d.Dispatch(context.Background(), customer, frame(t, EventCustomerMessage,
			CustomerMessagePayload{CustomerID: 1, Text: "hello"}))
	}
	if store.unread(1) != 3 {
		t.Fatalf("unread = %d, want 3", store.unread(1))
	}

	d.Dispatch(context.Background(), admin, frame(t, EventAdminRead, ReadPayload{CustomerID: 1}))
	d.Dispatch(context.Background(), admin, frame(t, EventAdminRead, ReadPayload{CustomerID: 1}))

	if store.unread(1) != 0 {
		t.Fatalf("unread after read = %d, want 0", store.unread(1))
	}
	if customer.count(EventAdminRead) != 2 {
		t.Fatalf("customer got %d admin:read, want 2", customer.count(EventAdminRead))
	}
	if admin.count(EventError) != 0 {
		t.Fatalf("repeat read raised error: %v", admin.last(EventError))
	}
}

func TestValidationErrorOnlyToSender(t *testing.T) {
	d, store := newTestDispatcher()
	store.addCustomer(1)

	admin := newFakeConn("admin-1")
	customer := newFakeConn("cust-1")
	authAdmin(t, d, admin, 10)
	authCustomer(t, d, customer, 1)

	d.Dispatch(context.Background(), customer, frame(t, EventCustomerMessage,
		CustomerMessagePayload{CustomerID: 1, Text: "   "}))

	if customer.count(EventError) != 1 {
		t.Fatalf("sender got %d error events, want 1", customer.count(EventError))
	}
	if admin.count(EventCustomerMessage) != 0 || admin.count(EventError) != 0 {
		t.Fatal("invalid message must not reach other connections")
	}
	if store.messageCount(1) != 0 {
		t.Fatal("invalid message must not be persisted")
	}
}

func TestUnknownCustomerRejected(t *testing.T) {
	d, _ := newTestDispatcher()
	customer := newFakeConn("cust-1")
	d.HandleConnect(customer)

	d.Dispatch(context.Background(), customer, frame(t, EventCustomerMessage,
		CustomerMessagePayload{CustomerID: 404, Text: "hello"}))

	if customer.count(EventError) != 1 {
		t.Fatalf("got %d error events, want 1", customer.count(EventError))
	}
	if msg := customer.last(EventError)["message"]; msg != ErrCustomerNotFound.Error() {
		t.Fatalf("error message = %v, want %q", msg, ErrCustomerNotFound.Error())
	}
}

func TestDisconnectBroadcastsOfflineOnce(t *testing.T) {
	d, store := newTestDispatcher()
	store.addCustomer(1)

	admin := newFakeConn("admin-1")
	customer := newFakeConn("cust-1")
	authAdmin(t, d, admin, 10)
	authCustomer(t, d, customer, 1)

	d.HandleDisconnect(customer)
	if admin.count(EventCustomerOffline) != 1 {
		t.Fatalf("customer:offline delivered %d times, want 1", admin.count(EventCustomerOffline))
	}

	// 重复断开（传输层可能的边界）不再通告
	d.HandleDisconnect(customer)
	if admin.count(EventCustomerOffline) != 1 {
		t.Fatal("duplicate disconnect must not broadcast again")
	}
}

func TestReconnectSupersedesOldConn(t *testing.T) {
	d, store := newTestDispatcher()
	store.addCustomer(1)

	old := newFakeConn("old")
	fresh := newFakeConn("fresh")
	authCustomer(t, d, old, 1)
	authCustomer(t, d, fresh, 1)

	// 新连接覆盖旧绑定
	if got, _ := d.presence.Lookup(CustomerKey(1)); got.ID() != "fresh" {
		t.Fatalf("bound conn = %s, want fresh", got.ID())
	}

	// 旧连接随后断开，不能把新连接踢下线
	d.HandleDisconnect(old)
	if got, ok := d.presence.Lookup(CustomerKey(1)); !ok || got.ID() != "fresh" {
		t.Fatal("stale disconnect dropped the live binding")
	}

	// 新连接仍能收到管理员消息
	d.SendAdminMessage(context.Background(), 1, 10, "still there?", "")
	if fresh.count(EventAdminMessage) != 1 {
		t.Fatalf("fresh conn got %d admin:message, want 1", fresh.count(EventAdminMessage))
	}
}

func TestDoubleAuthRejected(t *testing.T) {
	d, store := newTestDispatcher()
	store.addCustomer(1)

	conn := newFakeConn("c1")
	authCustomer(t, d, conn, 1)

	d.Dispatch(context.Background(), conn, frame(t, EventAdminAuth, AdminAuthPayload{AdminID: 5}))
	if conn.count(EventError) != 1 {
		t.Fatalf("second auth produced %d errors, want 1", conn.count(EventError))
	}
	if _, ok := d.presence.Lookup(AdminKey(5)); ok {
		t.Fatal("second auth must not create a new binding")
	}
}

func TestTypingForwarded(t *testing.T) {
	d, store := newTestDispatcher()
	store.addCustomer(1)

	admin := newFakeConn("admin-1")
	customer := newFakeConn("cust-1")
	authAdmin(t, d, admin, 10)
	authCustomer(t, d, customer, 1)

	d.Dispatch(context.Background(), customer, frame(t, EventCustomerTyping,
		TypingPayload{CustomerID: 1, IsTyping: true}))
	if admin.count(EventCustomerTyping) != 1 {
		t.Fatalf("admin got %d customer:typing, want 1", admin.count(EventCustomerTyping))
	}

	d.Dispatch(context.Background(), admin, frame(t, EventAdminTyping,
		TypingPayload{CustomerID: 1, IsTyping: true}))
	if customer.count(EventAdminTyping) != 1 {
		t.Fatalf("customer got %d admin:typing, want 1", customer.count(EventAdminTyping))
	}
	// 输入状态不落库
	if store.messageCount(1) != 0 {
		t.Fatal("typing events must not be persisted")
	}
}

func TestStatusChangeNotifiesBothSides(t *testing.T) {
	d, store := newTestDispatcher()
	store.addCustomer(1)

	admin := newFakeConn("admin-1")
	customer := newFakeConn("cust-1")
	authAdmin(t, d, admin, 10)
	authCustomer(t, d, customer, 1)

	d.Dispatch(context.Background(), admin, frame(t, EventSupportStatus,
		StatusPayload{CustomerID: 1, Status: models.CustomerStatusResolved}))

	if c, _ := store.FindCustomer(context.Background(), 1); c.Status != models.CustomerStatusResolved {
		t.Fatalf("status = %s, want resolved", c.Status)
	}
	if admin.count(EventSupportStatus) != 1 || customer.count(EventSupportStatus) != 1 {
		t.Fatalf("status delivery = %d/%d, want 1/1",
			admin.count(EventSupportStatus), customer.count(EventSupportStatus))
	}

	// 非法状态被拒绝
	d.Dispatch(context.Background(), admin, frame(t, EventSupportStatus,
		StatusPayload{CustomerID: 1, Status: "archived"}))
	if admin.count(EventError) != 1 {
		t.Fatalf("invalid status produced %d errors, want 1", admin.count(EventError))
	}
}

func TestUnknownEvent(t *testing.T) {
	d, _ := newTestDispatcher()
	conn := newFakeConn("c1")
	d.HandleConnect(conn)

	d.Dispatch(context.Background(), conn, Frame{Event: "bogus:event", Payload: json.RawMessage(`{}`)})
	if conn.count(EventError) != 1 {
		t.Fatalf("unknown event produced %d errors, want 1", conn.count(EventError))
	}
}

func TestMissingPayload(t *testing.T) {
	d, _ := newTestDispatcher()
	conn := newFakeConn("c1")
	d.HandleConnect(conn)

	d.Dispatch(context.Background(), conn, Frame{Event: EventCustomerAuth})
	if conn.count(EventError) != 1 {
		t.Fatalf("missing payload produced %d errors, want 1", conn.count(EventError))
	}
}

func TestConcurrentAppendsLoseNothing(t *testing.T) {
	d, store := newTestDispatcher()
	store.addCustomer(1)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				d.SendCustomerMessage(context.Background(), 1, fmt.Sprintf("customer %d", i))
			} else {
				d.SendAdminMessage(context.Background(), 1, 10, fmt.Sprintf("admin %d", i), "")
			}
		}(i)
	}
	wg.Wait()

	if store.messageCount(1) != n {
		t.Fatalf("stored %d messages, want %d", store.messageCount(1), n)
	}
	if store.unread(1) != n/2 {
		t.Fatalf("unread = %d, want %d", store.unread(1), n/2)
	}
	// 计数器必须与从消息序列重算的结果一致
	if store.unread(1) != store.recountUnread(1) {
		t.Fatalf("unread counter %d != recount %d", store.unread(1), store.recountUnread(1))
	}
}

// panicStore 落库时 panic，验证兜底恢复
type panicStore struct{ *fakeStore }

func (s *panicStore) AppendMessage(ctx context.Context, customerID uint, msg *models.ChatMessage) error {
	panic("storage exploded")
}

func TestHandlerPanicRecovered(t *testing.T) {
	store := newFakeStore()
	store.addCustomer(1)
	d := NewDispatcher(&panicStore{store}, NewRegistry(), NewRouter())

	conn := newFakeConn("c1")
	d.HandleConnect(conn)
	d.Dispatch(context.Background(), conn, frame(t, EventCustomerMessage,
		CustomerMessagePayload{CustomerID: 1, Text: "boom"}))

	if conn.count(EventError) != 1 {
		t.Fatalf("panic produced %d error events, want 1", conn.count(EventError))
	}
	if msg := conn.last(EventError)["message"]; msg != "internal error" {
		t.Fatalf("error message = %v, want internal error", msg)
	}
}
