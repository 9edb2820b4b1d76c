// Package events publishes order lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"ecommerce-api/model"
)

const EventOrderSubmitted = "order.submitted"

// OrderSubmittedEvent is the message body written for each submitted order.
type OrderSubmittedEvent struct {
	Type      string          `json:"type"`
	OrderID   int64           `json:"orderId"`
	UserID    int64           `json:"userId"`
	Username  string          `json:"username"`
	ItemIDs   []int64         `json:"itemIds"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"createdAt"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes one message per submitted order, keyed by user id so
// a user's orders stay on one partition.
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *KafkaPublisher) OrderSubmitted(ctx context.Context, username string, order model.UserOrder) error {
	msg, err := orderMessage(username, order)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write order event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func orderMessage(username string, order model.UserOrder) (kafka.Message, error) {
	ids := make([]int64, len(order.Items))
	for i, it := range order.Items {
		ids[i] = it.ID
	}
	body, err := json.Marshal(OrderSubmittedEvent{
		Type:      EventOrderSubmitted,
		OrderID:   order.ID,
		UserID:    order.UserID,
		Username:  username,
		ItemIDs:   ids,
		Total:     order.Total,
		CreatedAt: order.CreatedAt,
	})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode order event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatInt(order.UserID, 10)),
		Value: body,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(EventOrderSubmitted)},
		},
	}, nil
}
