package usecase

import (
	"strings"
	"time"

	"github.com/satriahrh/cocoa-fruit/assistant/domain"
)

const DefaultHistorySize = 10

// HistoryEntry is one remembered lookup. Key is the case-folded city name,
// DisplayName keeps the casing of the most recent query.
type HistoryEntry struct {
	Key           string
	DisplayName   string
	LastQueryTime time.Time
	QueryCount    int
	LastSnapshot  domain.WeatherSnapshot
}

// WeatherHistory is a bounded recency list of weather lookups. Index 0 is the
// most recently touched entry, there is at most one entry per key and never
// more than maxSize entries. It is not safe for concurrent use; see
// HistoryService.
type WeatherHistory struct {
	entries []HistoryEntry
	maxSize int
	now     func() time.Time
}

func NewWeatherHistory(maxSize int) *WeatherHistory {
	if maxSize <= 0 {
		maxSize = DefaultHistorySize
	}
	return &WeatherHistory{maxSize: maxSize, now: time.Now}
}

func normalizeCity(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

func (h *WeatherHistory) MaxSize() int { return h.maxSize }

func (h *WeatherHistory) Len() int { return len(h.entries) }

// Touch records a lookup of city and returns the updated entry.
func (h *WeatherHistory) Touch(city string, snapshot domain.WeatherSnapshot) HistoryEntry {
	key := normalizeCity(city)
	now := h.now()

	entry := HistoryEntry{Key: key, DisplayName: strings.TrimSpace(city), QueryCount: 1}
	if i := h.index(key); i >= 0 {
		entry = h.entries[i]
		entry.QueryCount++
		entry.DisplayName = strings.TrimSpace(city)
		h.entries = append(h.entries[:i], h.entries[i+1:]...)
	}
	entry.LastQueryTime = now
	entry.LastSnapshot = snapshot

	h.entries = append([]HistoryEntry{entry}, h.entries...)
	if len(h.entries) > h.maxSize {
		h.entries = h.entries[:h.maxSize]
	}
	return entry
}

// MostFrequent returns the entry with the highest query count. Among equal
// counts the entry nearest index 0 (most recently touched) wins.
func (h *WeatherHistory) MostFrequent() (HistoryEntry, bool) {
	if len(h.entries) == 0 {
		return HistoryEntry{}, false
	}
	best := 0
	for i := 1; i < len(h.entries); i++ {
		if h.entries[i].QueryCount > h.entries[best].QueryCount {
			best = i
		}
	}
	return h.entries[best], true
}

// EntriesByRecency returns a copy of the entries, most recent first.
func (h *WeatherHistory) EntriesByRecency() []HistoryEntry {
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h *WeatherHistory) Clear() {
	h.entries = nil
}

func (h *WeatherHistory) index(key string) int {
	for i, e := range h.entries {
		if e.Key == key {
			return i
		}
	}
	return -1
}

// Document converts the history to its persisted form.
func (h *WeatherHistory) Document() domain.HistoryDocument {
	doc := domain.HistoryDocument{
		Entries:    make([]domain.HistoryEntry, 0, len(h.entries)),
		MaxEntries: h.maxSize,
	}
	for _, e := range h.entries {
		doc.Entries = append(doc.Entries, domain.HistoryEntry{
			City:          e.DisplayName,
			LastQueryTime: e.LastQueryTime,
			QueryCount:    e.QueryCount,
			LastWeather:   e.LastSnapshot,
		})
	}
	return doc
}

// HistoryFromDocument rebuilds a history from its persisted form. Stored order
// is kept; duplicate keys after the first, non-positive counts and entries
// beyond max_entries are repaired rather than rejected.
func HistoryFromDocument(doc domain.HistoryDocument) *WeatherHistory {
	h := NewWeatherHistory(doc.MaxEntries)
	seen := make(map[string]bool, len(doc.Entries))
	for _, e := range doc.Entries {
		key := normalizeCity(e.City)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		count := e.QueryCount
		if count < 1 {
			count = 1
		}
		h.entries = append(h.entries, HistoryEntry{
			Key:           key,
			DisplayName:   e.City,
			LastQueryTime: e.LastQueryTime,
			QueryCount:    count,
			LastSnapshot:  e.LastWeather,
		})
		if len(h.entries) == h.maxSize {
			break
		}
	}
	return h
}
