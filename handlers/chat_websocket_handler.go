package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/PremSagarPadhy/REASTURANT-POS-sub001/chat"
	"github.com/PremSagarPadhy/REASTURANT-POS-sub001/redis"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// 出站帧
type outFrame struct {
	Event   string                 `json:"event"`
	Payload map[string]interface{} `json:"payload"`
}

// wsClient 一条 WebSocket 连接，实现 chat.Conn
// Send 为缓冲队列（256 条），写满说明客户端读不过来，直接丢帧断开
type wsClient struct {
	id     string
	conn   *websocket.Conn
	send   chan outFrame
	ctx    context.Context
	cancel context.CancelFunc
}

func (c *wsClient) ID() string {
	return c.id
}

// Emit 尽力而为投递：不阻塞调用方
func (c *wsClient) Emit(event string, payload map[string]interface{}) {
	select {
	case c.send <- outFrame{Event: event, Payload: payload}:
	default:
		log.Printf("Client %s send buffer full, dropping %s", c.id, event)
		c.cancel()
	}
}

type ChatWebSocketHandler struct {
	dispatcher *chat.Dispatcher
	redis      *redis.RedisClient
}

func NewChatWebSocketHandler(dispatcher *chat.Dispatcher, redisClient *redis.RedisClient) *ChatWebSocketHandler {
	h := &ChatWebSocketHandler{
		dispatcher: dispatcher,
		redis:      redisClient,
	}
	if redisClient != nil {
		// 在线状态镜像写到 redis，REST 的在线列表从这里读
		dispatcher.SetNotifier(&redisPresenceMirror{redis: redisClient})
	}
	return h
}

// HandleWebSocket 客服通道入口
// 连接建立后处于匿名态，身份通过 customer:auth / admin:auth 事件绑定
func (h *ChatWebSocketHandler) HandleWebSocket(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := &wsClient{
		id:     uuid.New().String(),
		conn:   ws,
		send:   make(chan outFrame, 256),
		ctx:    ctx,
		cancel: cancel,
	}

	h.dispatcher.HandleConnect(client)

	// 启动写入goroutine
	go h.writePump(client)

	// 当前goroutine处理读取
	h.readPump(client)

	return nil
}

// 读取客户端消息
func (h *ChatWebSocketHandler) readPump(client *wsClient) {
	defer func() {
		client.cancel()
		client.conn.Close()
		h.dispatcher.HandleDisconnect(client)
	}()

	client.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		var frame chat.Frame
		err := client.conn.ReadJSON(&frame)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		h.dispatcher.Dispatch(client.ctx, client, frame)
	}
}

// 向客户端写入消息
func (h *ChatWebSocketHandler) writePump(client *wsClient) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case <-client.ctx.Done():
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			client.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case frame := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.conn.WriteJSON(frame); err != nil {
				log.Printf("WriteJSON error: %v", err)
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// GetOnlineUsers HTTP接口：当前在线的顾客和管理员（redis 镜像）
func (h *ChatWebSocketHandler) GetOnlineUsers(c echo.Context) error {
	ctx := c.Request().Context()

	customers, err := h.redis.GetOnlineCustomers(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to fetch online users",
		})
	}
	admins, err := h.redis.GetOnlineAdmins(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to fetch online users",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"customers": customers,
		"admins":    admins,
	})
}

// redisPresenceMirror 把在线状态异步写进 redis，失败只记日志
type redisPresenceMirror struct {
	redis *redis.RedisClient
}

func (m *redisPresenceMirror) CustomerOnline(id uint) {
	go m.run(func(ctx context.Context) error { return m.redis.MarkCustomerOnline(ctx, id) })
}

func (m *redisPresenceMirror) CustomerOffline(id uint) {
	go m.run(func(ctx context.Context) error { return m.redis.MarkCustomerOffline(ctx, id) })
}

func (m *redisPresenceMirror) AdminOnline(id uint) {
	go m.run(func(ctx context.Context) error { return m.redis.MarkAdminOnline(ctx, id) })
}

func (m *redisPresenceMirror) AdminOffline(id uint) {
	go m.run(func(ctx context.Context) error { return m.redis.MarkAdminOffline(ctx, id) })
}

func (m *redisPresenceMirror) run(fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Printf("Failed to update presence mirror: %v", err)
	}
}
