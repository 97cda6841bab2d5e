package usecase

import (
	"context"
	"errors"
	"iter"
	"sync"

	"github.com/satriahrh/cocoa-fruit/assistant/domain"
)

type fakeGenerator struct {
	mu       sync.Mutex
	deltas   []string
	err      error
	requests []domain.GenerateRequest
	pulled   int
}

func (g *fakeGenerator) Stream(ctx context.Context, req domain.GenerateRequest) iter.Seq2[string, error] {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()

	return func(yield func(string, error) bool) {
		for _, d := range g.deltas {
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}
			g.mu.Lock()
			g.pulled++
			g.mu.Unlock()
			if !yield(d, nil) {
				return
			}
		}
		if g.err != nil {
			yield("", g.err)
		}
	}
}

func (g *fakeGenerator) lastRequest() domain.GenerateRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.requests) == 0 {
		return domain.GenerateRequest{}
	}
	return g.requests[len(g.requests)-1]
}

type fakeWeather struct {
	report  domain.WeatherReport
	err     error
	lookups []string
}

func (w *fakeWeather) Current(ctx context.Context, city string) (domain.WeatherSnapshot, error) {
	r, err := w.Lookup(ctx, city, 0)
	return r.Current, err
}

func (w *fakeWeather) Forecast(ctx context.Context, city string, days int) ([]domain.ForecastDay, error) {
	r, err := w.Lookup(ctx, city, days)
	return r.Forecast, err
}

func (w *fakeWeather) Lookup(_ context.Context, city string, _ int) (domain.WeatherReport, error) {
	w.lookups = append(w.lookups, city)
	if w.err != nil {
		return domain.WeatherReport{}, w.err
	}
	r := w.report
	if r.Current.City == "" {
		r.Current.City = city
	}
	return r, nil
}

type memoryHistoryStore struct {
	doc     domain.HistoryDocument
	saves   int
	saveErr error
}

func (s *memoryHistoryStore) LoadHistory(context.Context) (domain.HistoryDocument, error) {
	return s.doc, nil
}

func (s *memoryHistoryStore) SaveHistory(_ context.Context, doc domain.HistoryDocument) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.doc = doc
	return nil
}

type recordingBroker struct {
	mu        sync.Mutex
	published [][]byte
}

func (b *recordingBroker) Publish(_ context.Context, topic, _ string, message []byte) error {
	if topic != domain.HistoryTopic {
		return errors.New("unexpected topic " + topic)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, message)
	return nil
}

func (b *recordingBroker) Subscribe(context.Context, string, string) (<-chan domain.BrokerMessage, error) {
	return nil, errors.New("not supported")
}

func (b *recordingBroker) Close() error { return nil }

type collector struct {
	chunks []string
	limit  int
}

func (c *collector) emit(chunk string) bool {
	c.chunks = append(c.chunks, chunk)
	return c.limit == 0 || len(c.chunks) < c.limit
}

type runeCounter struct{}

func (runeCounter) Count(text string) int { return len([]rune(text)) }
