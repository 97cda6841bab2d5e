package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/satriahrh/cocoa-fruit/assistant/adapters/weather"
	"github.com/satriahrh/cocoa-fruit/assistant/config"
	"github.com/satriahrh/cocoa-fruit/assistant/domain"
	"github.com/satriahrh/cocoa-fruit/assistant/usecase"
	"github.com/satriahrh/cocoa-fruit/assistant/utils/log"
	"go.uber.org/zap"
)

const (
	// Audio settings
	MaxAudioBytes     = 10 * 1024 * 1024
	transcribeTimeout = 30 * time.Second
	testTimeout       = 30 * time.Second
)

// Options are the collaborators of the REST API. Transcriber and Synthesizer
// are nil when voice is disabled.
type Options struct {
	Weather      domain.WeatherClient
	History      *usecase.HistoryService
	Config       *config.Manager
	Transcriber  domain.Transcriber
	Synthesizer  domain.Synthesizer
	ForecastDays int
}

type APIHandler struct {
	opts Options
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type HistoryEntryView struct {
	City          string                 `json:"city"`
	QueryCount    int                    `json:"query_count"`
	LastQueryTime time.Time              `json:"last_query_time"`
	LastWeather   domain.WeatherSnapshot `json:"last_weather"`
}

type HistoryResponse struct {
	Entries          []HistoryEntryView `json:"entries"`
	MostFrequentCity string             `json:"most_frequent_city,omitempty"`
}

type WeatherResponse struct {
	Current  domain.WeatherSnapshot `json:"current"`
	Forecast []domain.ForecastDay   `json:"forecast,omitempty"`
}

type ConfigView struct {
	Configured  bool   `json:"configured"`
	Provider    string `json:"provider,omitempty"`
	BaseURL     string `json:"base_url,omitempty"`
	Model       string `json:"model,omitempty"`
	APIKey      string `json:"api_key,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

type ValidateResponse struct {
	Valid bool   `json:"valid"`
	Field string `json:"field,omitempty"`
	Error string `json:"error,omitempty"`
}

type TestResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type SpeakRequest struct {
	Text string `json:"text"`
}

type TranscribeResponse struct {
	Text string `json:"text"`
}

func NewAPIHandler(opts Options) *APIHandler {
	if opts.ForecastDays <= 0 {
		opts.ForecastDays = usecase.DefaultForecastDays
	}
	return &APIHandler{opts: opts}
}

// Register mounts every route on g, normally the /api/v1 group.
func (h *APIHandler) Register(g *echo.Group) {
	g.GET("/health", h.HealthCheck)

	g.GET("/weather/:city", h.Weather)
	g.GET("/forecast/:city", h.Forecast)

	g.GET("/history", h.History)
	g.DELETE("/history", h.ClearHistory)

	g.GET("/config", h.ShowConfig)
	g.PUT("/config", h.UpdateConfig)
	g.GET("/config/presets", h.Presets)
	g.POST("/config/validate", h.ValidateConfig)
	g.POST("/config/test", h.TestConfig)

	if h.opts.Transcriber != nil && h.opts.Synthesizer != nil {
		audio := g.Group("/audio")
		audio.POST("/transcribe", h.Transcribe)
		audio.POST("/speak", h.Speak)
	}
}

func (h *APIHandler) HealthCheck(c echo.Context) error {
	configured := false
	if h.opts.Config != nil {
		configured = h.opts.Config.HasValidConfig()
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":     "healthy",
		"timestamp":  time.Now().UTC(),
		"service":    "assistant",
		"configured": configured,
		"voice":      h.opts.Transcriber != nil,
	})
}

// Weather looks a city up and records it in the history, like a chat turn.
func (h *APIHandler) Weather(c echo.Context) error {
	ctx := c.Request().Context()
	city := strings.TrimSpace(c.Param("city"))
	if city == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "bad_request", Message: "city is required"})
	}

	report, err := h.opts.Weather.Lookup(ctx, city, h.opts.ForecastDays)
	if err != nil {
		return weatherError(c, city, err)
	}
	if h.opts.History != nil {
		if _, err := h.opts.History.Record(ctx, city, report.Current); err != nil {
			log.WithCtx(ctx).Error("❌ Failed to record weather history", zap.String("city", city), zap.Error(err))
		}
	}
	return c.JSON(http.StatusOK, WeatherResponse{Current: report.Current, Forecast: report.Forecast})
}

func (h *APIHandler) Forecast(c echo.Context) error {
	ctx := c.Request().Context()
	city := strings.TrimSpace(c.Param("city"))
	if city == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "bad_request", Message: "city is required"})
	}

	days := h.opts.ForecastDays
	if raw := c.QueryParam("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "bad_request", Message: "days must be an integer"})
		}
		days = n
	}
	days = weather.ClampDays(days)

	forecast, err := h.opts.Weather.Forecast(ctx, city, days)
	if err != nil {
		return weatherError(c, city, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"city":     city,
		"days":     days,
		"forecast": forecast,
	})
}

func weatherError(c echo.Context, city string, err error) error {
	log.WithCtx(c.Request().Context()).Warn("weather lookup failed", zap.String("city", city), zap.Error(err))
	switch {
	case usecase.IsCityNotFound(err):
		return c.JSON(http.StatusNotFound, ErrorResponse{Code: "city_not_found", Message: "no weather found for " + city})
	case usecase.IsWeatherTimeout(err):
		return c.JSON(http.StatusGatewayTimeout, ErrorResponse{Code: "weather_timeout", Message: "the weather service timed out"})
	default:
		return c.JSON(http.StatusBadGateway, ErrorResponse{Code: "weather_unavailable", Message: "the weather service is unavailable"})
	}
}

func (h *APIHandler) History(c echo.Context) error {
	if h.opts.History == nil {
		return c.JSON(http.StatusOK, HistoryResponse{Entries: []HistoryEntryView{}})
	}

	entries := h.opts.History.EntriesByRecency()
	resp := HistoryResponse{Entries: make([]HistoryEntryView, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, HistoryEntryView{
			City:          e.DisplayName,
			QueryCount:    e.QueryCount,
			LastQueryTime: e.LastQueryTime,
			LastWeather:   e.LastSnapshot,
		})
	}
	if top, ok := h.opts.History.MostFrequent(); ok {
		resp.MostFrequentCity = top.DisplayName
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *APIHandler) ClearHistory(c echo.Context) error {
	if h.opts.History == nil {
		return c.NoContent(http.StatusNoContent)
	}
	if err := h.opts.History.Clear(c.Request().Context()); err != nil {
		log.WithCtx(c.Request().Context()).Error("❌ Failed to clear history", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "storage_error", Message: "failed to clear history"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *APIHandler) ShowConfig(c echo.Context) error {
	cfg, ok := h.opts.Config.Config()
	if !ok {
		return c.JSON(http.StatusOK, ConfigView{})
	}
	return c.JSON(http.StatusOK, ConfigView{
		Configured:  true,
		Provider:    cfg.Provider,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		APIKey:      config.MaskAPIKey(cfg.APIKey),
		Fingerprint: h.opts.Config.Fingerprint(),
	})
}

func (h *APIHandler) UpdateConfig(c echo.Context) error {
	var cfg domain.APIConfig
	if err := c.Bind(&cfg); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "bad_request", Message: "invalid JSON body"})
	}
	if err := h.opts.Config.Update(cfg); err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Code: "invalid_config", Message: verr.Error(), Field: verr.Field})
		}
		log.WithCtx(c.Request().Context()).Error("❌ Failed to save config", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "storage_error", Message: "failed to save config"})
	}
	return h.ShowConfig(c)
}

func (h *APIHandler) Presets(c echo.Context) error {
	return c.JSON(http.StatusOK, config.Presets())
}

func (h *APIHandler) ValidateConfig(c echo.Context) error {
	var cfg domain.APIConfig
	if err := c.Bind(&cfg); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "bad_request", Message: "invalid JSON body"})
	}
	if err := config.Validate(cfg); err != nil {
		resp := ValidateResponse{Error: err.Error()}
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			resp.Field = verr.Field
		}
		return c.JSON(http.StatusOK, resp)
	}
	return c.JSON(http.StatusOK, ValidateResponse{Valid: true})
}

// TestConfig tests the posted config, or the stored one when the body is
// empty.
func (h *APIHandler) TestConfig(c echo.Context) error {
	var cfg domain.APIConfig
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&cfg); err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "bad_request", Message: "invalid JSON body"})
		}
	}
	if cfg == (domain.APIConfig{}) {
		stored, ok := h.opts.Config.Config()
		if !ok {
			return c.JSON(http.StatusOK, TestResponse{Message: "no API config is stored"})
		}
		cfg = stored
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), testTimeout)
	defer cancel()
	if err := h.opts.Config.TestConnection(ctx, cfg); err != nil {
		return c.JSON(http.StatusOK, TestResponse{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, TestResponse{Success: true, Message: "connection OK"})
}

// Transcribe accepts raw LINEAR16 audio as the request body.
func (h *APIHandler) Transcribe(c echo.Context) error {
	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(contentType, "audio/") && !strings.HasPrefix(contentType, echo.MIMEOctetStream) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "bad_request", Message: "expected audio/* or application/octet-stream"})
	}

	audio, err := io.ReadAll(io.LimitReader(c.Request().Body, MaxAudioBytes))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "bad_request", Message: "failed to read audio"})
	}
	if len(audio) == 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "bad_request", Message: "empty audio"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), transcribeTimeout)
	defer cancel()

	text, err := h.opts.Transcriber.Transcribe(ctx, audio)
	if err != nil {
		log.WithCtx(ctx).Error("❌ Transcription failed", zap.Int("bytes", len(audio)), zap.Error(err))
		if errors.Is(err, context.DeadlineExceeded) {
			return c.JSON(http.StatusRequestTimeout, ErrorResponse{Code: "timeout", Message: "transcription timeout"})
		}
		return c.JSON(http.StatusBadGateway, ErrorResponse{Code: "transcription_failed", Message: "failed to transcribe audio"})
	}
	log.WithCtx(ctx).Debug("🎤 Transcribed audio", zap.Int("bytes", len(audio)), zap.Int("chars", len(text)))
	return c.JSON(http.StatusOK, TranscribeResponse{Text: text})
}

func (h *APIHandler) Speak(c echo.Context) error {
	var req SpeakRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "bad_request", Message: "text is required"})
	}

	ctx := c.Request().Context()
	audio, err := h.opts.Synthesizer.Synthesize(ctx, req.Text)
	if err != nil {
		log.WithCtx(ctx).Error("❌ Speech synthesis failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{Code: "synthesis_failed", Message: "failed to synthesize speech"})
	}
	return c.Blob(http.StatusOK, "audio/mpeg", audio)
}
