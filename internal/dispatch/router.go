package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Envelope is one subscriber's order on the wire: the built payload plus
// routing and pass-through fields the execution worker needs.
type Envelope struct {
	Exchange   string         `json:"exchange"`
	UserID     uint64         `json:"userId"`
	SignalID   uint64         `json:"signalId"`
	Credential datatypes.JSON `json:"credential,omitempty"`
	Order      any            `json:"order"`
}

// Producer is the slice of *kafka.Producer the router uses.
type Producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
}

// Router serializes envelopes onto one logical queue per exchange.
// Delivery is at-least-once and fire-and-forget: the router waits for the
// broker ack (bounded by DeliveryTTL) but never for downstream execution.
type Router struct {
	Producer    Producer
	TopicPrefix string
	DeliveryTTL time.Duration
	Logger      *zap.Logger
}

// TopicFor derives the queue name deterministically from the exchange.
func (r *Router) TopicFor(exchange string) string {
	prefix := r.TopicPrefix
	if prefix == "" {
		prefix = "orders"
	}
	return prefix + "." + strings.ToLower(exchange)
}

func (r *Router) Dispatch(ctx context.Context, env Envelope) error {
	if r == nil || r.Producer == nil {
		return fmt.Errorf("dispatch router not configured")
	}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal order envelope: %w", err)
	}

	topic := r.TopicFor(env.Exchange)
	deliveries := make(chan kafka.Event, 1)
	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(strconv.FormatUint(env.UserID, 10)),
		Value:          body,
	}
	if err := r.Producer.Produce(msg, deliveries); err != nil {
		return fmt.Errorf("produce to %s: %w", topic, err)
	}

	ttl := r.DeliveryTTL
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	timer := time.NewTimer(ttl)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("broker ack timeout for %s", topic)
	case ev := <-deliveries:
		if m, ok := ev.(*kafka.Message); ok && m.TopicPartition.Error != nil {
			return fmt.Errorf("delivery to %s failed: %w", topic, m.TopicPartition.Error)
		}
	}

	if r.Logger != nil {
		r.Logger.Debug("order dispatched",
			zap.String("topic", topic),
			zap.Uint64("user_id", env.UserID),
			zap.Uint64("signal_id", env.SignalID),
		)
	}
	return nil
}
