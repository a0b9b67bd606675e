package chat

import (
	"context"
	"errors"

	"github.com/PremSagarPadhy/REASTURANT-POS-sub001/models"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrEmptyMessage     = errors.New("message text is empty")
	ErrInvalidCustomer  = errors.New("invalid customer id")
)

// ConversationStore 会话持久化协作方
//
// AppendMessage 必须对单个顾客原子生效：插入消息和未读计数/状态/活跃时间的
// 调整要在同一个事务里完成，不允许「读出整条记录改完再写回」——否则并发的
// 管理员消息和顾客消息会互相覆盖造成丢消息
type ConversationStore interface {
	FindCustomer(ctx context.Context, id uint) (*models.Customer, error)
	FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error)
	FindCustomerByPhone(ctx context.Context, phone string) (*models.Customer, error)
	CreateCustomer(ctx context.Context, customer *models.Customer) error
	// AppendMessage 原子追加一条消息：
	// sender=customer 时同时 unread_count+1、status 置 active、刷新 last_active
	// sender=admin 时仅刷新 last_active
	AppendMessage(ctx context.Context, customerID uint, msg *models.ChatMessage) error
	// MarkAllRead 把该顾客全部消息标记已读并把 unread_count 清零，幂等
	MarkAllRead(ctx context.Context, customerID uint) error
	SetStatus(ctx context.Context, customerID uint, status string) error
	TouchLastActive(ctx context.Context, customerID uint) error
	SetLastOrder(ctx context.Context, customerID uint, orderID uint) error
}
