package websocket

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/satriahrh/cocoa-fruit/assistant/adapters/llm"
	"github.com/satriahrh/cocoa-fruit/assistant/adapters/message_broker"
	"github.com/satriahrh/cocoa-fruit/assistant/adapters/storage/jsonfile"
	"github.com/satriahrh/cocoa-fruit/assistant/domain"
	"github.com/satriahrh/cocoa-fruit/assistant/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type sunnyWeather struct{}

func (sunnyWeather) Current(_ context.Context, city string) (domain.WeatherSnapshot, error) {
	return domain.WeatherSnapshot{City: city, Temperature: 24, Condition: "Sunny"}, nil
}

func (sunnyWeather) Forecast(context.Context, string, int) ([]domain.ForecastDay, error) {
	return nil, nil
}

func (w sunnyWeather) Lookup(ctx context.Context, city string, _ int) (domain.WeatherReport, error) {
	cur, err := w.Current(ctx, city)
	return domain.WeatherReport{Current: cur}, err
}

type env struct {
	url     string
	history *usecase.HistoryService
	close   func()
}

func newEnv(t *testing.T, generator domain.Generator, factoryErr error) *env {
	t.Helper()

	broker := message_broker.NewChannelMessageBroker()
	history, err := usecase.NewHistoryService(context.Background(),
		jsonfile.NewHistoryStore(filepath.Join(t.TempDir(), "history.json")), broker)
	require.NoError(t, err)

	srv := NewServer(func(context.Context) (*usecase.Orchestrator, error) {
		if factoryErr != nil {
			return nil, factoryErr
		}
		return usecase.NewOrchestrator(usecase.Dependencies{
			Streamer: usecase.NewStreamer(generator, "mock", nil),
			Weather:  sunnyWeather{},
			History:  history,
		}), nil
	}, history, broker)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		assert.NoError(t, srv.Run(ctx))
	}()

	e := echo.New()
	e.GET("/ws", srv.Handler)
	ts := httptest.NewServer(e)

	return &env{
		url:     "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws",
		history: history,
		close: func() {
			ts.Close()
			cancel()
			<-stopped
			broker.Close()
		},
	}
}

func (e *env) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(e.url, nil)
	require.NoError(t, err)
	return conn
}

// readUntil reads frames until stop returns true and returns all of them.
func readUntil(t *testing.T, conn *websocket.Conn, stop func(OutboundFrame) bool) []OutboundFrame {
	t.Helper()
	var frames []OutboundFrame
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var frame OutboundFrame
		require.NoError(t, conn.ReadJSON(&frame))
		frames = append(frames, frame)
		if stop(frame) {
			return frames
		}
	}
}

func isType(typ string) func(OutboundFrame) bool {
	return func(f OutboundFrame) bool { return f.Type == typ }
}

func deltaText(frames []OutboundFrame) string {
	var b strings.Builder
	for _, f := range frames {
		if f.Type == FrameDelta {
			b.WriteString(f.Text)
		}
	}
	return b.String()
}

func TestChatTurnStreamsDeltasThenDone(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	env := newEnv(t, &llm.MockClient{}, nil)
	defer env.close()

	conn := env.dial(t)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(InboundFrame{Type: FrameMessage, Text: "hello there"}))
	frames := readUntil(t, conn, isType(FrameDone))

	assert.Equal(t, "You said: hello there", deltaText(frames))
	done := frames[len(frames)-1]
	assert.Equal(t, domain.IntentGeneral, done.Intent)
	assert.Equal(t, domain.ModeIdle, done.Mode)
	assert.False(t, done.Stopped)
	assert.Nil(t, done.Progress)
}

func TestWeatherTurnBroadcastsHistoryToEveryClient(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	env := newEnv(t, &llm.MockClient{}, nil)
	defer env.close()

	asker := env.dial(t)
	defer asker.Close()
	watcher := env.dial(t)
	defer watcher.Close()

	// Make sure both sessions are registered before the lookup.
	for _, conn := range []*websocket.Conn{asker, watcher} {
		require.NoError(t, conn.WriteJSON(InboundFrame{Type: FrameHistory}))
		readUntil(t, conn, isType(FrameHistory))
	}

	require.NoError(t, asker.WriteJSON(InboundFrame{Type: FrameMessage, Text: "weather in Paris"}))

	var sawDone, sawUpdate bool
	readUntil(t, asker, func(f OutboundFrame) bool {
		switch f.Type {
		case FrameDone:
			sawDone = true
			assert.Equal(t, domain.IntentWeather, f.Intent)
		case FrameHistoryUpdated:
			sawUpdate = true
		}
		return sawDone && sawUpdate
	})

	update := readUntil(t, watcher, isType(FrameHistoryUpdated))
	event := update[len(update)-1].Event
	require.NotNil(t, event)
	assert.Equal(t, "Paris", event.City)
	assert.Equal(t, 1, event.QueryCount)

	require.NoError(t, watcher.WriteJSON(InboundFrame{Type: FrameHistory}))
	history := readUntil(t, watcher, isType(FrameHistory))
	last := history[len(history)-1]
	require.Len(t, last.Entries, 1)
	assert.Equal(t, "Paris", last.Entries[0].City)
	assert.True(t, last.Entries[0].MostFrequent)
	assert.Contains(t, last.Text, "Paris")
}

func TestInterviewCommands(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	env := newEnv(t, &llm.MockClient{}, nil)
	defer env.close()

	conn := env.dial(t)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(InboundFrame{Type: FrameMessage, Text: "help me plan my career"}))
	frames := readUntil(t, conn, isType(FrameDone))
	done := frames[len(frames)-1]
	assert.Equal(t, domain.IntentCareer, done.Intent)
	assert.Equal(t, domain.ModeInInterview, done.Mode)
	require.NotNil(t, done.Progress)
	assert.Equal(t, 0.0, *done.Progress)

	require.NoError(t, conn.WriteJSON(InboundFrame{Type: FrameCancel}))
	notice := readUntil(t, conn, isType(FrameNotice))
	assert.Equal(t, domain.ModeIdle, notice[0].Mode)
	assert.Contains(t, notice[0].Text, "cancelled")

	require.NoError(t, conn.WriteJSON(InboundFrame{Type: FrameCancel}))
	notice = readUntil(t, conn, isType(FrameNotice))
	assert.Contains(t, notice[0].Text, "no career planning interview")

	require.NoError(t, conn.WriteJSON(InboundFrame{Type: FrameClear}))
	notice = readUntil(t, conn, isType(FrameNotice))
	assert.Equal(t, "Conversation cleared.", notice[0].Text)
}

func TestStopFrameStopsRunningTurn(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	env := newEnv(t, &llm.MockClient{Delay: 50 * time.Millisecond}, nil)
	defer env.close()

	conn := env.dial(t)
	defer conn.Close()

	long := strings.Repeat("word ", 100)
	require.NoError(t, conn.WriteJSON(InboundFrame{Type: FrameMessage, Text: long}))
	readUntil(t, conn, isType(FrameDelta))
	require.NoError(t, conn.WriteJSON(InboundFrame{Type: FrameStop}))

	frames := readUntil(t, conn, isType(FrameDone))
	done := frames[len(frames)-1]
	assert.True(t, done.Stopped)
	assert.Less(t, len(strings.Fields(deltaText(frames))), 100)
}

func TestBadFramesGetErrors(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	env := newEnv(t, &llm.MockClient{}, nil)
	defer env.close()

	conn := env.dial(t)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	frames := readUntil(t, conn, isType(FrameError))
	assert.Equal(t, "bad_frame", frames[0].Code)

	require.NoError(t, conn.WriteJSON(InboundFrame{Type: "dance"}))
	frames = readUntil(t, conn, isType(FrameError))
	assert.Equal(t, "unknown_type", frames[0].Code)
}

func TestUnconfiguredServerRejectsSession(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	env := newEnv(t, nil, &domain.ConfigurationError{Err: errors.New("no API config")})
	defer env.close()

	conn := env.dial(t)
	defer conn.Close()

	frames := readUntil(t, conn, isType(FrameError))
	assert.Equal(t, "not_configured", frames[0].Code)
	assert.Contains(t, frames[0].Text, "no API config")
}
