package domain

import (
	"context"
	"time"
)

// HistoryEntry is the persisted form of one weather lookup record.
type HistoryEntry struct {
	City          string          `json:"city"`
	LastQueryTime time.Time       `json:"last_query_time"`
	QueryCount    int             `json:"query_count"`
	LastWeather   WeatherSnapshot `json:"last_weather"`
}

// HistoryDocument is the persisted weather history.
type HistoryDocument struct {
	Entries    []HistoryEntry `json:"entries"`
	MaxEntries int            `json:"max_entries"`
}

// HistoryStore persists the weather history document.
type HistoryStore interface {
	LoadHistory(ctx context.Context) (HistoryDocument, error)
	SaveHistory(ctx context.Context, doc HistoryDocument) error
}

// HistoryEvent is published on the broker whenever the history changes.
type HistoryEvent struct {
	City       string    `json:"city"`
	QueryCount int       `json:"query_count"`
	Cleared    bool      `json:"cleared,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

const HistoryTopic = "weather.history"
