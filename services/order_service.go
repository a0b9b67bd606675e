package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/PremSagarPadhy/REASTURANT-POS-sub001/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrTableNotFound  = errors.New("table not found")
	ErrTableOccupied  = errors.New("table is occupied")
	ErrOrderNotFound  = errors.New("order not found")
	ErrOrderClosed    = errors.New("order already closed")
	ErrEmptyOrder     = errors.New("order has no items")
	ErrMenuItemGone   = errors.New("menu item not found")
	ErrOutOfStock     = errors.New("insufficient stock")
	ErrInvalidPayment = errors.New("invalid payment amount")
)

// OrderEvent 订单事件，发到 kafka 供下游消费
type OrderEvent struct {
	Type       string  `json:"type"` // created, completed, cancelled
	OrderID    uint    `json:"order_id"`
	Number     string  `json:"number"`
	TableID    uint    `json:"table_id"`
	CustomerID *uint   `json:"customer_id,omitempty"`
	Total      float64 `json:"total"`
	Timestamp  int64   `json:"timestamp"`
}

// OrderEventPublisher 事件发布方（kafka 实现，测试用假实现）
// 发布是 fire-and-forget：失败只记日志，不影响订单事务
type OrderEventPublisher interface {
	PublishOrderEvent(event *OrderEvent) error
}

type OrderItemInput struct {
	MenuItemID uint `json:"menu_item_id"`
	Quantity   int  `json:"quantity"`
}

type OrderService struct {
	db        *gorm.DB
	publisher OrderEventPublisher // 可为 nil（未配置 kafka 时）
}

func NewOrderService(db *gorm.DB, publisher OrderEventPublisher) *OrderService {
	return &OrderService{db: db, publisher: publisher}
}

// CreateOrder 开台下单：占用餐桌、扣减库存、生成订单
func (s *OrderService) CreateOrder(ctx context.Context, tableID uint, customerID *uint, items []OrderItemInput) (*models.Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 占桌必须原子：只允许 free -> occupied
		result := tx.Model(&models.Table{}).
			Where("id = ? AND status = ?", tableID, models.TableStatusFree).
			Update("status", models.TableStatusOccupied)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var table models.Table
			if err := tx.First(&table, tableID).Error; err != nil {
				return ErrTableNotFound
			}
			return ErrTableOccupied
		}

		order = models.Order{
			Number:     strings.ToUpper(uuid.New().String()[:8]),
			TableID:    tableID,
			CustomerID: customerID,
			Status:     models.OrderStatusOpen,
		}

		for _, input := range items {
			var item models.MenuItem
			if err := tx.First(&item, input.MenuItemID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrMenuItemGone
				}
				return err
			}
			if input.Quantity <= 0 {
				return ErrEmptyOrder
			}
			// 扣库存同样用条件更新，并发下单不会超卖
			result := tx.Model(&models.MenuItem{}).
				Where("id = ? AND stock >= ?", input.MenuItemID, input.Quantity).
				Update("stock", gorm.Expr("stock - ?", input.Quantity))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrOutOfStock
			}
			order.Items = append(order.Items, models.OrderItem{
				MenuItemID: item.ID,
				Name:       item.Name,
				Price:      item.Price,
				Quantity:   input.Quantity,
			})
			order.Total += item.Price * float64(input.Quantity)
		}

		return tx.Create(&order).Error
	})
	if err != nil {
		return nil, err
	}

	s.publish(&OrderEvent{
		Type:       "created",
		OrderID:    order.ID,
		Number:     order.Number,
		TableID:    order.TableID,
		CustomerID: order.CustomerID,
		Total:      order.Total,
		Timestamp:  time.Now().Unix(),
	})
	return &order, nil
}

// CompleteOrder 结单：订单完结的同时释放餐桌
func (s *OrderService) CompleteOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	return s.closeOrder(ctx, orderID, models.OrderStatusCompleted)
}

// CancelOrder 取消订单：释放餐桌并回补库存
func (s *OrderService) CancelOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	return s.closeOrder(ctx, orderID, models.OrderStatusCancelled)
}

func (s *OrderService) closeOrder(ctx context.Context, orderID uint, status string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if order.Status != models.OrderStatusOpen {
			return ErrOrderClosed
		}
		order.Status = status
		if err := tx.Model(&models.Order{}).Where("id = ?", orderID).Update("status", status).Error; err != nil {
			return err
		}
		// 释放餐桌
		if err := tx.Model(&models.Table{}).
			Where("id = ?", order.TableID).
			Update("status", models.TableStatusFree).Error; err != nil {
			return err
		}
		if status == models.OrderStatusCancelled {
			for _, item := range order.Items {
				if err := tx.Model(&models.MenuItem{}).
					Where("id = ?", item.MenuItemID).
					Update("stock", gorm.Expr("stock + ?", item.Quantity)).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(&OrderEvent{
		Type:       status,
		OrderID:    order.ID,
		Number:     order.Number,
		TableID:    order.TableID,
		CustomerID: order.CustomerID,
		Total:      order.Total,
		Timestamp:  time.Now().Unix(),
	})
	return &order, nil
}

// RecordPayment 记录支付并结单（不对接网关，只做状态流转）
func (s *OrderService) RecordPayment(ctx context.Context, orderID uint, amount float64, method string) (*models.Payment, error) {
	if amount <= 0 {
		return nil, ErrInvalidPayment
	}
	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.Status != models.OrderStatusOpen {
		return nil, ErrOrderClosed
	}

	payment := models.Payment{
		OrderID:   orderID,
		Amount:    amount,
		Method:    method,
		Status:    models.PaymentStatusPaid,
		CreatedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&payment).Error; err != nil {
		return nil, err
	}
	if _, err := s.CompleteOrder(ctx, orderID); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Preload("Items").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, status string) ([]models.Order, error) {
	var orders []models.Order
	query := s.db.WithContext(ctx).Preload("Items").Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *OrderService) publish(event *OrderEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOrderEvent(event); err != nil {
		log.Printf("Failed to publish order event: %v", err)
	}
}
