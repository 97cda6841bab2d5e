package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/satriahrh/cocoa-fruit/assistant/adapters/storage/jsonfile"
	"github.com/satriahrh/cocoa-fruit/assistant/config"
	"github.com/satriahrh/cocoa-fruit/assistant/domain"
	"github.com/satriahrh/cocoa-fruit/assistant/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWeather struct {
	err      error
	lastDays int
}

func (s *stubWeather) Current(_ context.Context, city string) (domain.WeatherSnapshot, error) {
	if s.err != nil {
		return domain.WeatherSnapshot{}, s.err
	}
	return domain.WeatherSnapshot{City: city, Temperature: 21, Condition: "Sunny"}, nil
}

func (s *stubWeather) Forecast(_ context.Context, _ string, days int) ([]domain.ForecastDay, error) {
	s.lastDays = days
	if s.err != nil {
		return nil, s.err
	}
	return make([]domain.ForecastDay, days), nil
}

func (s *stubWeather) Lookup(ctx context.Context, city string, days int) (domain.WeatherReport, error) {
	cur, err := s.Current(ctx, city)
	if err != nil {
		return domain.WeatherReport{}, err
	}
	fc, _ := s.Forecast(ctx, city, days)
	return domain.WeatherReport{Current: cur, Forecast: fc}, nil
}

type stubVoice struct{}

func (stubVoice) Transcribe(_ context.Context, audio []byte) (string, error) {
	return "heard " + string(audio), nil
}

func (stubVoice) Synthesize(_ context.Context, text string) ([]byte, error) {
	return []byte("mp3:" + text), nil
}

type fixture struct {
	e       *echo.Echo
	weather *stubWeather
	history *usecase.HistoryService
	config  *config.Manager
}

func newFixture(t *testing.T, voice bool) *fixture {
	t.Helper()
	dir := t.TempDir()

	history, err := usecase.NewHistoryService(context.Background(), jsonfile.NewHistoryStore(filepath.Join(dir, "history.json")), nil)
	require.NoError(t, err)

	f := &fixture{
		e:       echo.New(),
		weather: &stubWeather{},
		history: history,
		config:  config.NewManager(filepath.Join(dir, "config.json")),
	}
	opts := Options{Weather: f.weather, History: history, Config: f.config}
	if voice {
		opts.Transcriber = stubVoice{}
		opts.Synthesizer = stubVoice{}
	}
	NewAPIHandler(opts).Register(f.e.Group("/api/v1"))
	return f
}

func (f *fixture) do(method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(http.MethodGet, "/api/v1/health", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, false, body["configured"])
}

func TestWeatherRecordsHistory(t *testing.T) {
	f := newFixture(t, false)

	for _, city := range []string{"Paris", "Tokyo", "paris"} {
		rec := f.do(http.MethodGet, "/api/v1/weather/"+city, "", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := f.do(http.MethodGet, "/api/v1/history", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[HistoryResponse](t, rec)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "paris", resp.Entries[0].City)
	assert.Equal(t, 2, resp.Entries[0].QueryCount)
	assert.Equal(t, "Tokyo", resp.Entries[1].City)
	assert.Equal(t, "paris", resp.MostFrequentCity)

	rec = f.do(http.MethodDelete, "/api/v1/history", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	resp = decode[HistoryResponse](t, f.do(http.MethodGet, "/api/v1/history", "", ""))
	assert.Empty(t, resp.Entries)
	assert.Empty(t, resp.MostFrequentCity)
}

func TestWeatherErrors(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{domain.ErrCityNotFound, http.StatusNotFound},
		{&domain.WeatherAPIError{Op: "current", Timeout: true, Err: errors.New("slow")}, http.StatusGatewayTimeout},
		{&domain.WeatherAPIError{Op: "current", Err: errors.New("status 500")}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		f := newFixture(t, false)
		f.weather.err = tt.err
		rec := f.do(http.MethodGet, "/api/v1/weather/Atlantis", "", "")
		assert.Equal(t, tt.code, rec.Code, tt.err.Error())
		assert.Empty(t, f.history.EntriesByRecency())
	}
}

func TestForecastClampsDays(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(http.MethodGet, "/api/v1/forecast/Paris?days=30", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, f.weather.lastDays)

	f.do(http.MethodGet, "/api/v1/forecast/Paris?days=0", "", "")
	assert.Equal(t, 1, f.weather.lastDays)

	f.do(http.MethodGet, "/api/v1/forecast/Paris", "", "")
	assert.Equal(t, usecase.DefaultForecastDays, f.weather.lastDays)

	rec = f.do(http.MethodGet, "/api/v1/forecast/Paris?days=soon", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfigEndpoints(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(http.MethodPost, "/api/v1/config/validate", echo.MIMEApplicationJSON, `{"provider":"openai","base_url":"https://api.openai.com/v1","model":"gpt-4o"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	v := decode[ValidateResponse](t, rec)
	assert.False(t, v.Valid)
	assert.Equal(t, "api_key", v.Field)

	body := `{"provider":"openai","base_url":"https://api.openai.com/v1","api_key":"sk-abcdefghijkl","model":"gpt-4o"}`
	rec = f.do(http.MethodPut, "/api/v1/config", echo.MIMEApplicationJSON, body)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[ConfigView](t, rec)
	assert.True(t, view.Configured)
	assert.Equal(t, "sk-a****ijkl", view.APIKey)
	assert.NotContains(t, rec.Body.String(), "sk-abcdefghijkl")

	rec = f.do(http.MethodPut, "/api/v1/config", echo.MIMEApplicationJSON, `{"provider":"openai","api_key":"k","base_url":"nope","model":"m"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "base_url", decode[ErrorResponse](t, rec).Field)

	rec = f.do(http.MethodGet, "/api/v1/config/presets", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.ProviderPreset](t, rec), len(config.Presets()))
}

func TestConfigTestWithMockProvider(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(http.MethodPost, "/api/v1/config/test", echo.MIMEApplicationJSON, `{"provider":"mock","model":"echo"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[TestResponse](t, rec)
	assert.True(t, resp.Success, resp.Message)

	rec = f.do(http.MethodPost, "/api/v1/config/test", "", "")
	resp = decode[TestResponse](t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "no API config is stored", resp.Message)
}

func TestAudioRoutesOnlyWithVoice(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(http.MethodPost, "/api/v1/audio/speak", echo.MIMEApplicationJSON, `{"text":"hi"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	f = newFixture(t, true)
	rec = f.do(http.MethodPost, "/api/v1/audio/speak", echo.MIMEApplicationJSON, `{"text":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "mp3:hi", rec.Body.String())

	rec = f.do(http.MethodPost, "/api/v1/audio/transcribe", "audio/l16", "pcm")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "heard pcm", decode[TranscribeResponse](t, rec).Text)

	rec = f.do(http.MethodPost, "/api/v1/audio/transcribe", "text/plain", "pcm")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
