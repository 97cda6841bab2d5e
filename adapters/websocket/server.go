package websocket

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/satriahrh/cocoa-fruit/assistant/domain"
	"github.com/satriahrh/cocoa-fruit/assistant/usecase"
	"github.com/satriahrh/cocoa-fruit/assistant/utils/log"
	"go.uber.org/zap"
)

// ConversationFactory builds the orchestrator for a new connection. It fails
// with a *domain.ConfigurationError when no usable provider is configured.
type ConversationFactory func(ctx context.Context) (*usecase.Orchestrator, error)

type Server struct {
	upgrader        websocket.Upgrader
	newConversation ConversationFactory
	history         *usecase.HistoryService
	messageBroker   domain.MessageBroker
	hub             *Hub
}

// NewServer wires the chat endpoint. history and messageBroker may be nil.
func NewServer(newConversation ConversationFactory, history *usecase.HistoryService, messageBroker domain.MessageBroker) *Server {
	return &Server{
		upgrader:        websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		newConversation: newConversation,
		history:         history,
		messageBroker:   messageBroker,
		hub:             NewHub(),
	}
}

func (s *Server) Hub() *Hub {
	return s.hub
}

// Run serves the hub and relays history changes to every client until ctx is
// done.
func (s *Server) Run(ctx context.Context) error {
	if s.messageBroker != nil {
		messageChan, err := s.messageBroker.Subscribe(ctx, domain.HistoryTopic, "")
		if err != nil {
			return err
		}
		go s.relayHistory(ctx, messageChan)
	}
	s.hub.Run(ctx)
	return nil
}

func (s *Server) relayHistory(ctx context.Context, messageChan <-chan domain.BrokerMessage) {
	log.WithCtx(ctx).Info("🎧 WebSocket server listening to history events")
	for {
		select {
		case msg, ok := <-messageChan:
			if !ok {
				return
			}
			var event domain.HistoryEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				log.WithCtx(ctx).Error("❌ Failed to unmarshal history event", zap.Error(err))
				continue
			}

			data, err := json.Marshal(OutboundFrame{Type: FrameHistoryUpdated, Event: &event, Timestamp: msg.Timestamp})
			if err != nil {
				log.WithCtx(ctx).Error("❌ Failed to marshal WebSocket message", zap.Error(err))
				continue
			}
			s.hub.Broadcast(data)
			log.WithCtx(ctx).Debug("📤 Broadcasted history event",
				zap.String("city", event.City),
				zap.Bool("cleared", event.Cleared),
				zap.Int("clients", s.hub.ClientCount()))

		case <-ctx.Done():
			log.WithCtx(ctx).Info("🔒 History listener stopped")
			return
		}
	}
}
