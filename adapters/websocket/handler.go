package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/satriahrh/cocoa-fruit/assistant/domain"
	"github.com/satriahrh/cocoa-fruit/assistant/utils/log"
	"go.uber.org/zap"
)

// Handler serves the "/ws" endpoint. Each connection gets its own
// conversation.
func (s *Server) Handler(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	ctx := log.WithSession(log.WithRemote(context.Background(), c.RealIP()), uuid.NewString())
	conversation, err := s.newConversation(ctx)
	if err != nil {
		log.WithCtx(ctx).Warn("conversation not started", zap.Error(err))
		code := "internal"
		var cerr *domain.ConfigurationError
		if errors.As(err, &cerr) {
			code = "not_configured"
		}
		rejectConn(conn, code, err.Error())
		return nil
	}

	client := NewClient(ctx, conn, conversation, s.history)
	if !s.hub.Register(client) {
		rejectConn(conn, "shutting_down", "server is shutting down")
		return nil
	}
	defer s.hub.Unregister(client)

	log.WithCtx(ctx).Info("🔌 Chat session started")
	client.Run()

	<-client.Context().Done()
	log.WithCtx(ctx).Info("👋 Chat session ended")
	return nil
}

func rejectConn(conn *websocket.Conn, code, text string) {
	defer conn.Close()
	data, _ := json.Marshal(OutboundFrame{Type: FrameError, Code: code, Text: text, Timestamp: time.Now()})
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.TextMessage, data)
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, code), time.Now().Add(writeWait))
}
