package services

import (
	"context"
	"errors"
	"time"

	"github.com/PremSagarPadhy/REASTURANT-POS-sub001/chat"
	"github.com/PremSagarPadhy/REASTURANT-POS-sub001/models"
	"gorm.io/gorm"
)

// SupportStore 基于 gorm/postgres 的会话持久化实现
// 所有写操作都是行内原子更新（INSERT / UPDATE ... SET x = x + 1），
// 不做「整条读出-修改-写回」，并发追加不会互相覆盖
type SupportStore struct {
	db *gorm.DB
}

var _ chat.ConversationStore = (*SupportStore)(nil)

func NewSupportStore(db *gorm.DB) *SupportStore {
	return &SupportStore{db: db}
}

func (s *SupportStore) FindCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := s.db.WithContext(ctx).First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, chat.ErrCustomerNotFound
		}
		return nil, err
	}
	return &customer, nil
}

func (s *SupportStore) FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var customer models.Customer
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, chat.ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (s *SupportStore) FindCustomerByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	var customer models.Customer
	err := s.db.WithContext(ctx).Where("phone = ?", phone).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, chat.ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (s *SupportStore) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	if customer.Status == "" {
		customer.Status = models.CustomerStatusActive
	}
	if customer.LastActive.IsZero() {
		customer.LastActive = time.Now()
	}
	return s.db.WithContext(ctx).Create(customer).Error
}

// AppendMessage 原子追加一条消息
// 消息插入和计数调整放在同一个事务里，计数用 SQL 表达式自增而不是回写快照
func (s *SupportStore) AppendMessage(ctx context.Context, customerID uint, msg *models.ChatMessage) error {
	msg.CustomerID = customerID
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"last_active": time.Now(),
		}
		if msg.Sender == models.SenderCustomer {
			updates["unread_count"] = gorm.Expr("unread_count + 1")
			updates["status"] = models.CustomerStatusActive
		}
		result := tx.Model(&models.Customer{}).Where("id = ?", customerID).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return chat.ErrCustomerNotFound
		}
		return tx.Create(msg).Error
	})
}

// MarkAllRead 全量标记已读并清零未读数，重复执行结果一致
func (s *SupportStore) MarkAllRead(ctx context.Context, customerID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.ChatMessage{}).
			Where("customer_id = ? AND read = ?", customerID, false).
			Update("read", true).Error
		if err != nil {
			return err
		}
		result := tx.Model(&models.Customer{}).
			Where("id = ?", customerID).
			Update("unread_count", 0)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return chat.ErrCustomerNotFound
		}
		return nil
	})
}

func (s *SupportStore) SetStatus(ctx context.Context, customerID uint, status string) error {
	if status != models.CustomerStatusActive && status != models.CustomerStatusResolved {
		return chat.ErrInvalidStatus
	}
	result := s.db.WithContext(ctx).Model(&models.Customer{}).
		Where("id = ?", customerID).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return chat.ErrCustomerNotFound
	}
	return nil
}

func (s *SupportStore) TouchLastActive(ctx context.Context, customerID uint) error {
	return s.db.WithContext(ctx).Model(&models.Customer{}).
		Where("id = ?", customerID).
		Update("last_active", time.Now()).Error
}

func (s *SupportStore) SetLastOrder(ctx context.Context, customerID uint, orderID uint) error {
	result := s.db.WithContext(ctx).Model(&models.Customer{}).
		Where("id = ?", customerID).
		Updates(map[string]interface{}{
			"last_order_id": orderID,
			"last_active":   time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return chat.ErrCustomerNotFound
	}
	return nil
}

// ---- 管理端列表查询（REST 用）----

// ListCustomers 客服工作台的顾客列表，未读和最近活跃优先
func (s *SupportStore) ListCustomers(ctx context.Context, status string) ([]models.Customer, error) {
	var customers []models.Customer
	query := s.db.WithContext(ctx).Order("last_active DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

// ListMessages 按时间正序分页返回某个顾客的消息
func (s *SupportStore) ListMessages(ctx context.Context, customerID uint, limit, offset int) ([]models.ChatMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var messages []models.ChatMessage
	err := s.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at ASC").
		Limit(limit).Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// RecountUnread 从消息序列重新统计未读数
// 正常情况下应与 customers.unread_count 一致，偏差说明有写入绕过了原子追加
func (s *SupportStore) RecountUnread(ctx context.Context, customerID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.ChatMessage{}).
		Where("customer_id = ? AND sender = ? AND read = ?", customerID, models.SenderCustomer, false).
		Count(&count).Error
	return count, err
}
