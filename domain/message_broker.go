package domain

import (
	"context"
	"time"
)

// MessageBroker fans conversation-independent events (history changes) out to
// every connected client.
type MessageBroker interface {
	Publish(ctx context.Context, topic string, routingKey string, message []byte) error

	// Subscribe returns a channel of messages for topic and routingKey. An empty
	// routingKey receives every message published on the topic.
	Subscribe(ctx context.Context, topic string, routingKey string) (<-chan BrokerMessage, error)

	Close() error
}

type BrokerMessage struct {
	Topic      string
	RoutingKey string
	Payload    []byte
	Timestamp  time.Time
}
