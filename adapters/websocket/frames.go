package websocket

import (
	"time"

	"github.com/satriahrh/cocoa-fruit/assistant/domain"
)

// Inbound frame types.
const (
	FrameMessage = "message"
	FrameStop    = "stop"
	FrameCancel  = "cancel"
	FrameClear   = "clear"
	FrameHistory = "history"
)

// Outbound frame types.
const (
	FrameDelta          = "delta"
	FrameDone           = "done"
	FrameNotice         = "notice"
	FrameHistoryUpdated = "history_updated"
	FrameError          = "error"
)

type InboundFrame struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type HistoryItem struct {
	City          string    `json:"city"`
	QueryCount    int       `json:"query_count"`
	LastQueryTime time.Time `json:"last_query_time"`
	Temperature   float64   `json:"temperature"`
	Condition     string    `json:"condition,omitempty"`
	MostFrequent  bool      `json:"most_frequent,omitempty"`
}

type OutboundFrame struct {
	Type      string               `json:"type"`
	Text      string               `json:"text,omitempty"`
	Intent    domain.Intent        `json:"intent,omitempty"`
	Mode      domain.Mode          `json:"mode,omitempty"`
	Complete  bool                 `json:"complete,omitempty"`
	Stopped   bool                 `json:"stopped,omitempty"`
	Progress  *float64             `json:"progress,omitempty"`
	Code      string               `json:"code,omitempty"`
	Entries   []HistoryItem        `json:"entries,omitempty"`
	Event     *domain.HistoryEvent `json:"event,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}
