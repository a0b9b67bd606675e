package kafka

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/IBM/sarama"
	"github.com/PremSagarPadhy/REASTURANT-POS-sub001/services"
)

type Producer struct {
	producer sarama.SyncProducer
}

func NewProducer(brokers []string, config *sarama.Config) (*Producer, error) {
	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}

	return &Producer{producer: producer}, nil
}

func (p *Producer) SendMessage(topic string, key string, value interface{}) error {
	// 序列化消息
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(jsonValue),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		log.Printf("Failed to send message: %v", err)
		return err
	}

	log.Printf("Message sent to partition %d at offset %d", partition, offset)
	return nil
}

func (p *Producer) Close() error {
	return p.producer.Close()
}

// OrderEventPublisher 把订单事件发到固定 topic，key 用订单 ID 保证同单有序
type OrderEventPublisher struct {
	producer *Producer
	topic    string
}

var _ services.OrderEventPublisher = (*OrderEventPublisher)(nil)

func NewOrderEventPublisher(producer *Producer, topic string) *OrderEventPublisher {
	return &OrderEventPublisher{producer: producer, topic: topic}
}

func (p *OrderEventPublisher) PublishOrderEvent(event *services.OrderEvent) error {
	return p.producer.SendMessage(p.topic, fmt.Sprintf("%d", event.OrderID), event)
}
