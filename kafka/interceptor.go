package kafka

import (
	"github.com/IBM/sarama"
)

// EventInterceptor 给出站消息补充来源 header
type EventInterceptor struct {
}

func (i *EventInterceptor) OnSend(msg *sarama.ProducerMessage) {
	msg.Headers = append(msg.Headers, sarama.RecordHeader{
		Key:   []byte("source"),
		Value: []byte("pos-backend"),
	})
}

func NewEventInterceptor() *EventInterceptor {
	return &EventInterceptor{}
}
