package usecase

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/satriahrh/cocoa-fruit/assistant/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func newTestHistory() *WeatherHistory {
	h := NewWeatherHistory(DefaultHistorySize)
	h.now = fixedClock(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	return h
}

func keys(entries []HistoryEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Key
	}
	return out
}

func TestHistoryMostFrequentAndRecency(t *testing.T) {
	h := newTestHistory()
	h.Touch("Beijing", domain.WeatherSnapshot{City: "Beijing"})
	for i := 0; i < 3; i++ {
		h.Touch("Shanghai", domain.WeatherSnapshot{City: "Shanghai"})
	}
	h.Touch("Beijing", domain.WeatherSnapshot{City: "Beijing"})

	top, ok := h.MostFrequent()
	require.True(t, ok)
	assert.Equal(t, "Shanghai", top.DisplayName)
	assert.Equal(t, 3, top.QueryCount)

	recent := h.EntriesByRecency()
	assert.Equal(t, "Beijing", recent[0].DisplayName)
	assert.Equal(t, 2, recent[0].QueryCount)
}

func TestHistoryIsBounded(t *testing.T) {
	h := newTestHistory()
	for i := 0; i < 11; i++ {
		h.Touch(fmt.Sprintf("city-%d", i), domain.WeatherSnapshot{})
	}

	assert.Equal(t, 10, h.Len())
	assert.NotContains(t, keys(h.EntriesByRecency()), "city-0")
	assert.Equal(t, "city-10", h.EntriesByRecency()[0].Key)
}

func TestHistoryTouchMovesOnlyTouchedEntry(t *testing.T) {
	h := newTestHistory()
	for _, c := range []string{"a", "b", "c", "d"} {
		h.Touch(c, domain.WeatherSnapshot{})
	}
	before := h.EntriesByRecency()

	entry := h.Touch("B", domain.WeatherSnapshot{Condition: "Sunny"})

	after := h.EntriesByRecency()
	assert.Equal(t, []string{"b", "d", "c", "a"}, keys(after))
	assert.Equal(t, 2, entry.QueryCount)
	assert.Equal(t, "Sunny", after[0].LastSnapshot.Condition)
	assert.Equal(t, "B", after[0].DisplayName)
	assert.True(t, after[0].LastQueryTime.After(before[0].LastQueryTime))

	counts := map[string]int{}
	for _, e := range before {
		counts[e.Key] = e.QueryCount
	}
	for _, e := range after[1:] {
		assert.Equal(t, counts[e.Key], e.QueryCount, e.Key)
	}
}

func TestHistoryKeysAreCaseInsensitive(t *testing.T) {
	h := newTestHistory()
	h.Touch("Tokyo", domain.WeatherSnapshot{})
	h.Touch("  tokyo ", domain.WeatherSnapshot{})
	h.Touch("TOKYO", domain.WeatherSnapshot{})

	require.Equal(t, 1, h.Len())
	assert.Equal(t, 3, h.EntriesByRecency()[0].QueryCount)
}

func TestHistoryMostFrequentTieGoesToMostRecent(t *testing.T) {
	h := newTestHistory()
	h.Touch("Paris", domain.WeatherSnapshot{})
	h.Touch("London", domain.WeatherSnapshot{})
	h.Touch("Paris", domain.WeatherSnapshot{})
	h.Touch("London", domain.WeatherSnapshot{})

	top, ok := h.MostFrequent()
	require.True(t, ok)
	assert.Equal(t, "London", top.DisplayName)

	h.Touch("Paris", domain.WeatherSnapshot{})
	h.Touch("London", domain.WeatherSnapshot{})
	top, _ = h.MostFrequent()
	assert.Equal(t, "London", top.DisplayName)
}

func TestHistoryEmpty(t *testing.T) {
	h := newTestHistory()
	_, ok := h.MostFrequent()
	assert.False(t, ok)
	assert.Empty(t, h.EntriesByRecency())
}

func TestHistoryDocumentRoundTrip(t *testing.T) {
	h := newTestHistory()
	h.Touch("Beijing", domain.WeatherSnapshot{City: "Beijing", Temperature: 21.5, Humidity: 40})
	h.Touch("Shanghai", domain.WeatherSnapshot{City: "Shanghai", Condition: "Rain"})
	h.Touch("beijing", domain.WeatherSnapshot{City: "Beijing", Temperature: 23})

	doc := h.Document()
	restored := HistoryFromDocument(doc)

	assert.Empty(t, cmp.Diff(doc, restored.Document()))
	assert.Empty(t, cmp.Diff(h.EntriesByRecency(), restored.EntriesByRecency()))
	assert.Equal(t, 10, restored.MaxSize())
}

func TestHistoryFromDocumentRepairsBadInput(t *testing.T) {
	doc := domain.HistoryDocument{
		MaxEntries: 2,
		Entries: []domain.HistoryEntry{
			{City: "Rome", QueryCount: 0},
			{City: "rome", QueryCount: 7},
			{City: ""},
			{City: "Oslo", QueryCount: 2},
			{City: "Lima", QueryCount: 1},
		},
	}

	h := HistoryFromDocument(doc)
	entries := h.EntriesByRecency()
	require.Len(t, entries, 2)
	assert.Equal(t, "Rome", entries[0].DisplayName)
	assert.Equal(t, 1, entries[0].QueryCount)
	assert.Equal(t, "oslo", entries[1].Key)
}
