package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/satriahrh/cocoa-fruit/assistant/domain"
	"github.com/satriahrh/cocoa-fruit/assistant/utils/log"
	"go.uber.org/zap"
)

// HistoryService owns the weather history of one running service: it loads it
// once from the store, persists every change and announces it on the broker.
type HistoryService struct {
	mu      sync.Mutex
	history *WeatherHistory
	store   domain.HistoryStore
	broker  domain.MessageBroker
}

// NewHistoryService loads the persisted history. broker may be nil.
func NewHistoryService(ctx context.Context, store domain.HistoryStore, broker domain.MessageBroker) (*HistoryService, error) {
	doc, err := store.LoadHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading weather history: %w", err)
	}
	return &HistoryService{
		history: HistoryFromDocument(doc),
		store:   store,
		broker:  broker,
	}, nil
}

// Record touches city and persists the history. The in-memory history is only
// changed when the save succeeds.
func (s *HistoryService) Record(ctx context.Context, city string, snapshot domain.WeatherSnapshot) (HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := HistoryFromDocument(s.history.Document())
	next.now = s.history.now
	entry := next.Touch(city, snapshot)

	if err := s.store.SaveHistory(ctx, next.Document()); err != nil {
		return HistoryEntry{}, fmt.Errorf("saving weather history: %w", err)
	}
	s.history = next

	s.publish(ctx, domain.HistoryEvent{
		City:       entry.DisplayName,
		QueryCount: entry.QueryCount,
		Timestamp:  entry.LastQueryTime,
	})
	return entry, nil
}

func (s *HistoryService) EntriesByRecency() []HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.EntriesByRecency()
}

func (s *HistoryService) MostFrequent() (HistoryEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.MostFrequent()
}

func (s *HistoryService) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	empty := NewWeatherHistory(s.history.MaxSize())
	empty.now = s.history.now
	if err := s.store.SaveHistory(ctx, empty.Document()); err != nil {
		return fmt.Errorf("clearing weather history: %w", err)
	}
	s.history = empty
	s.publish(ctx, domain.HistoryEvent{Cleared: true, Timestamp: empty.now()})
	return nil
}

func (s *HistoryService) publish(ctx context.Context, event domain.HistoryEvent) {
	if s.broker == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.WithCtx(ctx).Error("❌ Failed to marshal history event", zap.Error(err))
		return
	}
	if err := s.broker.Publish(ctx, domain.HistoryTopic, "", payload); err != nil {
		log.WithCtx(ctx).Warn("history event not published", zap.Error(err))
	}
}

// Listing renders the history for display, see FormatHistory.
func (s *HistoryService) Listing() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	top, ok := s.history.MostFrequent()
	return FormatHistory(s.history.EntriesByRecency(), top, ok)
}
