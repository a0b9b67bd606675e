package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/PremSagarPadhy/REASTURANT-POS-sub001/models"
)

// 连接上的认证标记：匿名 -> customer/admin
type session struct {
	role string // "" 表示匿名
	id   uint
}

const (
	roleCustomer = "customer"
	roleAdmin    = "admin"
)

// PresenceNotifier 在线状态变化的旁路回调（redis 镜像用），可选
// 回调失败不影响事件处理
type PresenceNotifier interface {
	CustomerOnline(id uint)
	CustomerOffline(id uint)
	AdminOnline(id uint)
	AdminOffline(id uint)
}

// Dispatcher 客服消息状态机
// 解析入站事件，落库后按房间广播；REST 适配层复用同一组核心操作，
// 保证两个入口的持久化和广播行为不会分叉
type Dispatcher struct {
	store    ConversationStore
	presence *Registry
	rooms    *Router
	notifier PresenceNotifier // 可为 nil

	mu       sync.Mutex
	sessions map[string]*session
}

func NewDispatcher(store ConversationStore, presence *Registry, rooms *Router) *Dispatcher {
	return &Dispatcher{
		store:    store,
		presence: presence,
		rooms:    rooms,
		sessions: make(map[string]*session),
	}
}

// SetNotifier 挂接在线状态旁路回调
func (d *Dispatcher) SetNotifier(n PresenceNotifier) {
	d.notifier = n
}

// HandleConnect 新连接接入，注册为匿名态，不加入任何房间
func (d *Dispatcher) HandleConnect(conn Conn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sessions[conn.ID()] = &session{}
}

// Dispatch 处理一帧入站事件
// 单个事件的失败只回给发起方一个 error 事件，绝不影响其他连接
func (d *Dispatcher) Dispatch(ctx context.Context, conn Conn, frame Frame) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("chat: handler panic recovered: %v", r)
			d.emitError(conn, "internal error")
		}
	}()

	switch frame.Event {
	case EventCustomerAuth:
		var p CustomerAuthPayload
		if d.decode(conn, frame.Payload, &p) {
			d.handleCustomerAuth(conn, p)
		}
	case EventAdminAuth:
		var p AdminAuthPayload
		if d.decode(conn, frame.Payload, &p) {
			d.handleAdminAuth(conn, p)
		}
	case EventCustomerMessage:
		var p CustomerMessagePayload
		if d.decode(conn, frame.Payload, &p) {
			d.handleCustomerMessage(ctx, conn, p)
		}
	case EventAdminMessage:
		var p AdminMessagePayload
		if d.decode(conn, frame.Payload, &p) {
			d.handleAdminMessage(ctx, conn, p)
		}
	case EventAdminRead:
		var p ReadPayload
		if d.decode(conn, frame.Payload, &p) {
			if err := d.MarkAllRead(ctx, p.CustomerID); err != nil {
				d.emitFailure(conn, err)
			}
		}
	case EventCustomerRead:
		var p ReadPayload
		if d.decode(conn, frame.Payload, &p) {
			// 不落库，原样转发给管理员
			d.rooms.Broadcast(RoomAdmins, EventCustomerRead, map[string]interface{}{
				"customer_id": p.CustomerID,
				"message_ids": p.MessageIDs,
			})
		}
	case EventCustomerTyping, EventAdminTyping:
		var p TypingPayload
		if d.decode(conn, frame.Payload, &p) {
			d.handleTyping(frame.Event, p)
		}
	case EventSupportStatus:
		var p StatusPayload
		if d.decode(conn, frame.Payload, &p) {
			if err := d.SetStatus(ctx, p.CustomerID, p.Status); err != nil {
				d.emitFailure(conn, err)
			}
		}
	default:
		d.emitError(conn, "unknown event: "+frame.Event)
	}
}

// HandleDisconnect 连接断开：清理在线绑定并通告下线
func (d *Dispatcher) HandleDisconnect(conn Conn) {
	d.mu.Lock()
	sess, ok := d.sessions[conn.ID()]
	delete(d.sessions, conn.ID())
	d.mu.Unlock()

	d.rooms.LeaveAll(conn)
	if !ok {
		return
	}

	switch sess.role {
	case roleCustomer:
		d.presence.UnbindOwned(CustomerKey(sess.id), conn.ID())
		// 没有管理员在线时广播是 no-op，不算错误
		d.rooms.Broadcast(RoomAdmins, EventCustomerOffline, map[string]interface{}{
			"customer_id": sess.id,
		})
		if d.notifier != nil {
			d.notifier.CustomerOffline(sess.id)
		}
	case roleAdmin:
		d.presence.UnbindOwned(AdminKey(sess.id), conn.ID())
		if d.notifier != nil {
			d.notifier.AdminOffline(sess.id)
		}
	}
}

// ---- 核心操作（socket 和 REST 共用）----

// SendCustomerMessage 顾客发消息：原子落库并广播给管理员
func (d *Dispatcher) SendCustomerMessage(ctx context.Context, customerID uint, text string) (*models.ChatMessage, error) {
	if customerID == 0 {
		return nil, ErrInvalidCustomer
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	if _, err := d.store.FindCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	msg := &models.ChatMessage{
		CustomerID: customerID,
		Sender:     models.SenderCustomer,
		Text:       text,
		CreatedAt:  time.Now(),
	}
	if err := d.store.AppendMessage(ctx, customerID, msg); err != nil {
		return nil, err
	}
	d.rooms.Broadcast(RoomAdmins, EventCustomerMessage, map[string]interface{}{
		"customer_id": customerID,
		"message":     msg,
	})
	return msg, nil
}

// SendAdminMessage 管理员回复：落库后发给顾客，并同步给其他管理员
// exceptConnID 为发送方连接（REST 入口传空串）
func (d *Dispatcher) SendAdminMessage(ctx context.Context, customerID, adminID uint, text, exceptConnID string) (*models.ChatMessage, error) {
	if customerID == 0 {
		return nil, ErrInvalidCustomer
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	if _, err := d.store.FindCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	msg := &models.ChatMessage{
		CustomerID: customerID,
		Sender:     models.SenderAdmin,
		AdminID:    &adminID,
		Text:       text,
		CreatedAt:  time.Now(),
	}
	if err := d.store.AppendMessage(ctx, customerID, msg); err != nil {
		return nil, err
	}
	payload := map[string]interface{}{
		"customer_id": customerID,
		"message":     msg,
	}
	d.rooms.Broadcast(CustomerRoom(customerID), EventAdminMessage, payload)
	d.rooms.BroadcastExcept(RoomAdmins, exceptConnID, EventAdminMessage, payload)
	return msg, nil
}

// MarkAllRead 管理员已读：全量标记并清零未读数，重复调用幂等
func (d *Dispatcher) MarkAllRead(ctx context.Context, customerID uint) error {
	if customerID == 0 {
		return ErrInvalidCustomer
	}
	if _, err := d.store.FindCustomer(ctx, customerID); err != nil {
		return err
	}
	if err := d.store.MarkAllRead(ctx, customerID); err != nil {
		return err
	}
	d.rooms.Broadcast(CustomerRoom(customerID), EventAdminRead, map[string]interface{}{
		"customer_id": customerID,
	})
	return nil
}

// SetStatus 切换会话状态（active/resolved），双向通告
func (d *Dispatcher) SetStatus(ctx context.Context, customerID uint, status string) error {
	if customerID == 0 {
		return ErrInvalidCustomer
	}
	if status != models.CustomerStatusActive && status != models.CustomerStatusResolved {
		return ErrInvalidStatus
	}
	if _, err := d.store.FindCustomer(ctx, customerID); err != nil {
		return err
	}
	if err := d.store.SetStatus(ctx, customerID, status); err != nil {
		return err
	}
	payload := map[string]interface{}{
		"customer_id": customerID,
		"status":      status,
	}
	d.rooms.Broadcast(CustomerRoom(customerID), EventSupportStatus, payload)
	d.rooms.Broadcast(RoomAdmins, EventSupportStatus, payload)
	return nil
}

// ---- socket 事件处理 ----

func (d *Dispatcher) handleCustomerAuth(conn Conn, p CustomerAuthPayload) {
	if p.CustomerID == 0 {
		d.emitError(conn, "invalid customer id")
		return
	}
	sess := d.session(conn)
	if sess.role != "" {
		d.emitError(conn, "already authenticated")
		return
	}
	sess.role = roleCustomer
	sess.id = p.CustomerID

	// 同一顾客重复认证时后来的连接覆盖旧绑定
	d.presence.Bind(CustomerKey(p.CustomerID), conn)
	d.rooms.Join(conn, CustomerRoom(p.CustomerID))
	d.rooms.Broadcast(RoomAdmins, EventCustomerOnline, map[string]interface{}{
		"customer_id": p.CustomerID,
	})
	if d.notifier != nil {
		d.notifier.CustomerOnline(p.CustomerID)
	}
}

func (d *Dispatcher) handleAdminAuth(conn Conn, p AdminAuthPayload) {
	if p.AdminID == 0 {
		d.emitError(conn, "invalid admin id")
		return
	}
	sess := d.session(conn)
	if sess.role != "" {
		d.emitError(conn, "already authenticated")
		return
	}
	sess.role = roleAdmin
	sess.id = p.AdminID

	d.presence.Bind(AdminKey(p.AdminID), conn)
	d.rooms.Join(conn, RoomAdmins)
	if d.notifier != nil {
		d.notifier.AdminOnline(p.AdminID)
	}
}

func (d *Dispatcher) handleCustomerMessage(ctx context.Context, conn Conn, p CustomerMessagePayload) {
	msg, err := d.SendCustomerMessage(ctx, p.CustomerID, p.Text)
	if err != nil {
		d.emitFailure(conn, err)
		return
	}
	conn.Emit(EventMessageSent, map[string]interface{}{"message": msg})
}

func (d *Dispatcher) handleAdminMessage(ctx context.Context, conn Conn, p AdminMessagePayload) {
	msg, err := d.SendAdminMessage(ctx, p.CustomerID, p.AdminID, p.Text, conn.ID())
	if err != nil {
		d.emitFailure(conn, err)
		return
	}
	conn.Emit(EventMessageSent, map[string]interface{}{"message": msg})
}

func (d *Dispatcher) handleTyping(event string, p TypingPayload) {
	// 输入状态不落库，转发到对端房间
	payload := map[string]interface{}{
		"customer_id": p.CustomerID,
		"is_typing":   p.IsTyping,
	}
	if event == EventCustomerTyping {
		d.rooms.Broadcast(RoomAdmins, EventCustomerTyping, payload)
	} else {
		d.rooms.Broadcast(CustomerRoom(p.CustomerID), EventAdminTyping, payload)
	}
}

// ---- 内部工具 ----

func (d *Dispatcher) session(conn Conn) *session {
	d.mu.Lock()
	defer d.mu.Unlock()
	sess, ok := d.sessions[conn.ID()]
	if !ok {
		sess = &session{}
		d.sessions[conn.ID()] = sess
	}
	return sess
}

func (d *Dispatcher) decode(conn Conn, raw json.RawMessage, v interface{}) bool {
	if len(raw) == 0 {
		d.emitError(conn, "missing payload")
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		d.emitError(conn, "invalid payload")
		return false
	}
	return true
}

// emitFailure 把核心操作的错误转成发给发起方的 error 事件
// 校验类错误原样透出，持久化错误只记日志并返回笼统提示
func (d *Dispatcher) emitFailure(conn Conn, err error) {
	switch {
	case errors.Is(err, ErrCustomerNotFound),
		errors.Is(err, ErrInvalidCustomer),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrEmptyMessage):
		d.emitError(conn, err.Error())
	default:
		log.Printf("chat: persistence error: %v", err)
		d.emitError(conn, "internal error")
	}
}

func (d *Dispatcher) emitError(conn Conn, message string) {
	// error 事件本身再失败就只能丢弃，兜底不再向外抛
	defer func() { _ = recover() }()
	conn.Emit(EventError, map[string]interface{}{"message": message})
}
