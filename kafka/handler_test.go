package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/IBM/sarama"
	"github.com/PremSagarPadhy/REASTURANT-POS-sub001/chat"
	"github.com/PremSagarPadhy/REASTURANT-POS-sub001/services"
)

// linkStore 只记录 SetLastOrder 调用的假存储
type linkStore struct {
	chat.ConversationStore
	known map[uint]uint // customerID -> lastOrderID
}

func newLinkStore(customerIDs ...uint) *linkStore {
	s := &linkStore{known: make(map[uint]uint)}
	for _, id := range customerIDs {
		s.known[id] = 0
	}
	return s
}

func (s *linkStore) SetLastOrder(ctx context.Context, customerID uint, orderID uint) error {
	if _, ok := s.known[customerID]; !ok {
		return chat.ErrCustomerNotFound
	}
	s.known[customerID] = orderID
	return nil
}

func orderMessage(t *testing.T, event services.OrderEvent) *sarama.ConsumerMessage {
	t.Helper()
	value, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return &sarama.ConsumerMessage{Topic: "pos.orders", Value: value}
}

func TestCompletedOrderLinksCustomer(t *testing.T) {
	store := newLinkStore(7)
	h := NewOrderEventHandler(store)

	cid := uint(7)
	msg := orderMessage(t, services.OrderEvent{
		Type: "completed", OrderID: 99, Number: "A-99", CustomerID: &cid,
	})
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if store.known[7] != 99 {
		t.Fatalf("last order = %d, want 99", store.known[7])
	}
}

func TestNonCompletedEventsIgnored(t *testing.T) {
	store := newLinkStore(7)
	h := NewOrderEventHandler(store)

	cid := uint(7)
	for _, typ := range []string{"created", "cancelled"} {
		msg := orderMessage(t, services.OrderEvent{Type: typ, OrderID: 5, CustomerID: &cid})
		if err := h.Handle(context.Background(), msg); err != nil {
			t.Fatalf("Handle(%s): %v", typ, err)
		}
	}
	// 匿名订单（无 customer_id）同样跳过
	msg := orderMessage(t, services.OrderEvent{Type: "completed", OrderID: 5})
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("Handle anonymous: %v", err)
	}
	if store.known[7] != 0 {
		t.Fatalf("last order = %d, want untouched", store.known[7])
	}
}

func TestUnknownCustomerSkipped(t *testing.T) {
	h := NewOrderEventHandler(newLinkStore())

	cid := uint(404)
	msg := orderMessage(t, services.OrderEvent{Type: "completed", OrderID: 1, CustomerID: &cid})
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("unlinked customer should be skipped, got %v", err)
	}
}

func TestMalformedEventRejected(t *testing.T) {
	h := NewOrderEventHandler(newLinkStore())
	msg := &sarama.ConsumerMessage{Topic: "pos.orders", Value: []byte("{not json")}
	if err := h.Handle(context.Background(), msg); err == nil {
		t.Fatal("malformed payload must return an error")
	}
}
