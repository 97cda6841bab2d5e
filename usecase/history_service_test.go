package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/satriahrh/cocoa-fruit/assistant/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryServiceLoadsPersistedEntries(t *testing.T) {
	store := &memoryHistoryStore{doc: domain.HistoryDocument{
		MaxEntries: 10,
		Entries: []domain.HistoryEntry{
			{City: "Shanghai", QueryCount: 3, LastQueryTime: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)},
			{City: "Beijing", QueryCount: 1, LastQueryTime: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)},
		},
	}}

	svc, err := NewHistoryService(context.Background(), store, nil)
	require.NoError(t, err)

	top, ok := svc.MostFrequent()
	require.True(t, ok)
	assert.Equal(t, "Shanghai", top.DisplayName)
	assert.Len(t, svc.EntriesByRecency(), 2)
}

func TestHistoryServiceRecordPersistsAndPublishes(t *testing.T) {
	ctx := context.Background()
	store := &memoryHistoryStore{}
	broker := &recordingBroker{}
	svc, err := NewHistoryService(ctx, store, broker)
	require.NoError(t, err)

	_, err = svc.Record(ctx, "Beijing", domain.WeatherSnapshot{Temperature: 18})
	require.NoError(t, err)
	entry, err := svc.Record(ctx, "beijing", domain.WeatherSnapshot{Temperature: 19})
	require.NoError(t, err)

	assert.Equal(t, 2, entry.QueryCount)
	require.Len(t, store.doc.Entries, 1)
	assert.Equal(t, 2, store.doc.Entries[0].QueryCount)
	assert.Equal(t, 19.0, store.doc.Entries[0].LastWeather.Temperature)
	assert.Equal(t, DefaultHistorySize, store.doc.MaxEntries)

	require.Len(t, broker.published, 2)
	var event domain.HistoryEvent
	require.NoError(t, json.Unmarshal(broker.published[1], &event))
	assert.Equal(t, "beijing", event.City)
	assert.Equal(t, 2, event.QueryCount)
	assert.False(t, event.Cleared)
}

func TestHistoryServiceFailedSaveLeavesCacheUntouched(t *testing.T) {
	ctx := context.Background()
	store := &memoryHistoryStore{}
	broker := &recordingBroker{}
	svc, err := NewHistoryService(ctx, store, broker)
	require.NoError(t, err)
	_, err = svc.Record(ctx, "Oslo", domain.WeatherSnapshot{})
	require.NoError(t, err)

	store.saveErr = errors.New("read-only file system")
	_, err = svc.Record(ctx, "Lima", domain.WeatherSnapshot{})
	require.Error(t, err)

	entries := svc.EntriesByRecency()
	require.Len(t, entries, 1)
	assert.Equal(t, "Oslo", entries[0].DisplayName)
	assert.Len(t, broker.published, 1)
}

func TestHistoryServiceClear(t *testing.T) {
	ctx := context.Background()
	store := &memoryHistoryStore{}
	broker := &recordingBroker{}
	svc, err := NewHistoryService(ctx, store, broker)
	require.NoError(t, err)
	_, err = svc.Record(ctx, "Oslo", domain.WeatherSnapshot{})
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx))

	assert.Empty(t, svc.EntriesByRecency())
	assert.Empty(t, store.doc.Entries)
	var event domain.HistoryEvent
	require.NoError(t, json.Unmarshal(broker.published[len(broker.published)-1], &event))
	assert.True(t, event.Cleared)
}

func TestHistoryServiceListingStarsMostFrequent(t *testing.T) {
	ctx := context.Background()
	svc, err := NewHistoryService(ctx, &memoryHistoryStore{}, nil)
	require.NoError(t, err)
	assert.Equal(t, emptyHistoryMessage, svc.Listing())

	for _, city := range []string{"Paris", "Paris", "Tokyo"} {
		_, err := svc.Record(ctx, city, domain.WeatherSnapshot{})
		require.NoError(t, err)
	}

	lines := strings.Split(svc.Listing(), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "1. Tokyo (1×"), lines[1])
	assert.NotContains(t, lines[1], "⭐")
	assert.True(t, strings.HasPrefix(lines[2], "2. Paris (2×"), lines[2])
	assert.True(t, strings.HasSuffix(lines[2], "⭐"))
}
