package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/satriahrh/cocoa-fruit/assistant/usecase"
	"github.com/satriahrh/cocoa-fruit/assistant/utils/log"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
	inboxBuffer    = 16
)

// Client is one websocket connection and the conversation it drives. Frames
// are read by readPump, turns run one at a time on the worker goroutine and
// writes are serialized by writePump.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	inbox  chan InboundFrame
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.RWMutex
	closed bool

	conversation *usecase.Orchestrator
	history      *usecase.HistoryService

	turnMu   sync.Mutex
	stopTurn context.CancelFunc
}

// NewClient creates a client for conn. ctx carries the session log fields.
func NewClient(ctx context.Context, conn *websocket.Conn, conversation *usecase.Orchestrator, history *usecase.HistoryService) *Client {
	ctx, cancel := context.WithCancel(ctx)
	return &Client{
		conn:         conn,
		send:         make(chan []byte, sendBuffer),
		inbox:        make(chan InboundFrame, inboxBuffer),
		ctx:          ctx,
		cancel:       cancel,
		conversation: conversation,
		history:      history,
	}
}

func (c *Client) Run() {
	c.setupHandlers()

	go c.readPump()
	go c.writePump()
	go c.worker()
}

func (c *Client) setupHandlers() {
	c.conn.SetCloseHandler(func(code int, text string) error {
		log.WithCtx(c.ctx).Debug("WebSocket connection closed", zap.Int("code", code), zap.String("text", text))
		c.Close()
		return nil
	})

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// Close cancels any running turn and closes the connection. It is safe to
// call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	c.conn.Close()
}

func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *Client) Context() context.Context {
	return c.ctx
}

// SendMessage queues message for writing. A client whose buffer is full is
// too slow to keep up and gets disconnected.
func (c *Client) SendMessage(message []byte) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return websocket.ErrCloseSent
	}
	select {
	case c.send <- message:
		c.mu.RUnlock()
		return nil
	default:
		c.mu.RUnlock()
		log.WithCtx(c.ctx).Warn("send buffer full, closing client")
		c.Close()
		return websocket.ErrCloseSent
	}
}

func (c *Client) SendFrame(frame OutboundFrame) error {
	if frame.Timestamp.IsZero() {
		frame.Timestamp = time.Now()
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return c.SendMessage(data)
}

func (c *Client) sendError(code, text string) {
	if err := c.SendFrame(OutboundFrame{Type: FrameError, Code: code, Text: text}); err != nil {
		log.WithCtx(c.ctx).Debug("error frame not sent", zap.Error(err))
	}
}

func (c *Client) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.WithCtx(c.ctx).Error("WebSocket error", zap.Error(err))
			}
			return
		}

		var frame InboundFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			c.sendError("bad_frame", "frames must be JSON objects with a type")
			continue
		}
		log.WithCtx(c.ctx).Debug("Received frame", zap.String("type", frame.Type))

		// Stop has to bypass the inbox, which is blocked behind the running turn.
		if frame.Type == FrameStop {
			c.stopCurrentTurn()
			continue
		}

		select {
		case c.inbox <- frame:
		default:
			c.sendError("busy", "too many pending requests")
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.WithCtx(c.ctx).Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.WithCtx(c.ctx).Error("Failed to send ping", zap.Error(err))
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) worker() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case frame := <-c.inbox:
			c.dispatch(frame)
		}
	}
}

func (c *Client) dispatch(frame InboundFrame) {
	switch frame.Type {
	case FrameMessage:
		c.handleMessage(frame.Text)
	case FrameCancel:
		c.notice(c.conversation.CancelInterview())
	case FrameClear:
		c.notice(c.conversation.Clear())
	case FrameHistory:
		c.sendHistory()
	default:
		c.sendError("unknown_type", "unknown frame type "+frame.Type)
	}
}

func (c *Client) notice(text string) {
	frame := OutboundFrame{Type: FrameNotice, Text: text, Mode: c.conversation.Mode()}
	if err := c.SendFrame(frame); err != nil {
		log.WithCtx(c.ctx).Debug("notice not sent", zap.Error(err))
	}
}

func (c *Client) handleMessage(text string) {
	ctx, cancel := context.WithCancel(log.WithTurn(c.ctx, uuid.NewString()))
	c.turnMu.Lock()
	c.stopTurn = cancel
	c.turnMu.Unlock()
	defer func() {
		c.turnMu.Lock()
		c.stopTurn = nil
		c.turnMu.Unlock()
		cancel()
	}()

	start := time.Now()
	res := c.conversation.HandleTurn(ctx, text, func(delta string) bool {
		if ctx.Err() != nil {
			return false
		}
		return c.SendFrame(OutboundFrame{Type: FrameDelta, Text: delta}) == nil
	})
	if errors.Is(res.Err, usecase.ErrTurnInProgress) {
		c.sendError("turn_in_progress", res.Err.Error())
		return
	}

	done := OutboundFrame{
		Type:     FrameDone,
		Intent:   res.Intent,
		Mode:     res.Mode,
		Complete: res.InterviewComplete,
		Stopped:  res.Stopped,
	}
	if progress, ok := c.conversation.InterviewProgress(); ok {
		done.Progress = &progress
	}
	if err := c.SendFrame(done); err != nil {
		log.WithCtx(ctx).Debug("done frame not sent", zap.Error(err))
	}

	log.WithCtx(ctx).Info("💬 Turn finished",
		zap.String("intent", string(res.Intent)),
		zap.String("mode", string(res.Mode)),
		zap.Bool("stopped", res.Stopped),
		zap.Duration("took", time.Since(start)))
}

func (c *Client) stopCurrentTurn() {
	c.turnMu.Lock()
	defer c.turnMu.Unlock()
	if c.stopTurn != nil {
		log.WithCtx(c.ctx).Info("⏹️ Stopping current turn")
		c.stopTurn()
	}
}

func (c *Client) sendHistory() {
	frame := OutboundFrame{Type: FrameHistory}
	if c.history != nil {
		frame.Text = c.history.Listing()
		frame.Entries = historyItems(c.history)
	}
	if err := c.SendFrame(frame); err != nil {
		log.WithCtx(c.ctx).Debug("history frame not sent", zap.Error(err))
	}
}

func historyItems(history *usecase.HistoryService) []HistoryItem {
	top, hasTop := history.MostFrequent()
	entries := history.EntriesByRecency()
	items := make([]HistoryItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, HistoryItem{
			City:          e.DisplayName,
			QueryCount:    e.QueryCount,
			LastQueryTime: e.LastQueryTime,
			Temperature:   e.LastSnapshot.Temperature,
			Condition:     e.LastSnapshot.Condition,
			MostFrequent:  hasTop && e.Key == top.Key,
		})
	}
	return items
}
