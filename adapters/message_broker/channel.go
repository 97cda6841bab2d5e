package message_broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/satriahrh/cocoa-fruit/assistant/domain"
	"github.com/satriahrh/cocoa-fruit/assistant/utils/log"
	"go.uber.org/zap"
)

const topicBuffer = 100

// ChannelMessageBroker implements MessageBroker using Go channels
type ChannelMessageBroker struct {
	topics map[string]chan domain.BrokerMessage
	mu     sync.RWMutex
	closed bool
}

func NewChannelMessageBroker() *ChannelMessageBroker {
	return &ChannelMessageBroker{
		topics: make(map[string]chan domain.BrokerMessage),
	}
}

func makeKey(topic, routingKey string) string {
	return topic + ":" + routingKey
}

// channel returns the channel for key, creating it under the write lock.
func (b *ChannelMessageBroker) channel(key string) (chan domain.BrokerMessage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("message broker is closed")
	}
	ch, ok := b.topics[key]
	if !ok {
		ch = make(chan domain.BrokerMessage, topicBuffer)
		b.topics[key] = ch
	}
	return ch, nil
}

// Publish delivers message to subscribers of (topic, routingKey) and to
// topic-wide subscribers (empty routing key).
func (b *ChannelMessageBroker) Publish(ctx context.Context, topic string, routingKey string, message []byte) error {
	keys := []string{makeKey(topic, routingKey)}
	if routingKey != "" {
		keys = append(keys, makeKey(topic, ""))
	}

	msg := domain.BrokerMessage{
		Topic:      topic,
		RoutingKey: routingKey,
		Payload:    message,
		Timestamp:  time.Now(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("message broker is closed")
	}

	delivered := false
	for _, key := range keys {
		ch, ok := b.topics[key]
		if !ok {
			continue
		}
		select {
		case ch <- msg:
			delivered = true
		case <-ctx.Done():
			return ctx.Err()
		default:
			return fmt.Errorf("topic channel is full: %s", key)
		}
	}

	log.WithCtx(ctx).Debug("📤 Message published to topic",
		zap.String("topic", topic),
		zap.String("routingKey", routingKey),
		zap.Bool("delivered", delivered),
		zap.Int("payload_size", len(message)))
	return nil
}

func (b *ChannelMessageBroker) Subscribe(ctx context.Context, topic string, routingKey string) (<-chan domain.BrokerMessage, error) {
	ch, err := b.channel(makeKey(topic, routingKey))
	if err != nil {
		return nil, err
	}

	log.WithCtx(ctx).Info("📡 Subscribed to topic", zap.String("topic", topic), zap.String("routingKey", routingKey))
	return ch, nil
}

// Close closes the message broker and all topic channels
func (b *ChannelMessageBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for key, ch := range b.topics {
		close(ch)
		log.Logger().Debug("🔒 Closed topic channel", zap.String("key", key))
	}
	b.topics = make(map[string]chan domain.BrokerMessage)

	log.Logger().Info("🔒 Message broker closed")
	return nil
}

func (b *ChannelMessageBroker) GetTopicCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics)
}

func (b *ChannelMessageBroker) IsClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}
