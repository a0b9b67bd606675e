package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/IBM/sarama"
	"github.com/PremSagarPadhy/REASTURANT-POS-sub001/chat"
	"github.com/PremSagarPadhy/REASTURANT-POS-sub001/services"
)

// EventHandler 消费一条 kafka 消息
type EventHandler interface {
	Handle(ctx context.Context, message *sarama.ConsumerMessage) error
}

// OrderEventHandler 消费订单事件，把结单信息回写到顾客档案
// （lastOrder 关联 + 刷新活跃时间），供客服工作台展示
type OrderEventHandler struct {
	store chat.ConversationStore
}

func NewOrderEventHandler(store chat.ConversationStore) *OrderEventHandler {
	return &OrderEventHandler{store: store}
}

func (h *OrderEventHandler) Handle(ctx context.Context, message *sarama.ConsumerMessage) error {
	var event services.OrderEvent

	if err := json.Unmarshal(message.Value, &event); err != nil {
		log.Printf("Failed to unmarshal order event: %v", err)
		return err
	}

	if event.Type != "completed" || event.CustomerID == nil {
		return nil
	}

	if err := h.store.SetLastOrder(ctx, *event.CustomerID, event.OrderID); err != nil {
		if errors.Is(err, chat.ErrCustomerNotFound) {
			// 订单没有关联到已建档的顾客，跳过
			return nil
		}
		return err
	}

	log.Printf("Linked order %s to customer %d", event.Number, *event.CustomerID)
	return nil
}
