package main

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/satriahrh/cocoa-fruit/assistant/adapters/http"
	"github.com/satriahrh/cocoa-fruit/assistant/adapters/llm"
	"github.com/satriahrh/cocoa-fruit/assistant/adapters/message_broker"
	"github.com/satriahrh/cocoa-fruit/assistant/adapters/speech"
	"github.com/satriahrh/cocoa-fruit/assistant/adapters/storage/jsonfile"
	"github.com/satriahrh/cocoa-fruit/assistant/adapters/storage/sqlite"
	"github.com/satriahrh/cocoa-fruit/assistant/adapters/tokenizer"
	"github.com/satriahrh/cocoa-fruit/assistant/adapters/tts"
	"github.com/satriahrh/cocoa-fruit/assistant/adapters/weather"
	"github.com/satriahrh/cocoa-fruit/assistant/adapters/websocket"
	"github.com/satriahrh/cocoa-fruit/assistant/config"
	"github.com/satriahrh/cocoa-fruit/assistant/domain"
	"github.com/satriahrh/cocoa-fruit/assistant/usecase"
	"github.com/satriahrh/cocoa-fruit/assistant/utils/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the websocket chat endpoint",
	Long: `Starts the assistant server.

Endpoints:
  GET  /ws                        chat (websocket, JSON frames)
  GET  /api/v1/health             health check
  GET  /api/v1/weather/:city      current weather and forecast
  GET  /api/v1/forecast/:city     forecast, ?days=1..7
  GET  /api/v1/history            weather history
  DELETE /api/v1/history          clear weather history
  GET|PUT /api/v1/config          provider config (key masked)
  GET  /api/v1/config/presets     provider presets
  POST /api/v1/config/validate    validate a provider config
  POST /api/v1/config/test        test a provider config
  POST /api/v1/audio/transcribe   speech to text (voice enabled)
  POST /api/v1/audio/speak        text to speech (voice enabled)`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger := log.Logger()

	if err := os.MkdirAll(settings.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	store, closeStore, err := openHistoryStore(settings)
	if err != nil {
		return err
	}
	defer closeStore()

	broker := message_broker.NewChannelMessageBroker()
	defer broker.Close()

	history, err := usecase.NewHistoryService(ctx, store, broker)
	if err != nil {
		return err
	}

	manager := config.NewManager(settings.ConfigPath())
	if !manager.HasValidConfig() {
		logger.Warn("⚠️ No valid API config yet; chat sessions will be refused until one is set",
			zap.String("path", manager.Path()))
	}

	weatherClient := weather.NewWttrClient(settings.WeatherURL)

	opts := http.Options{
		Weather:      weatherClient,
		History:      history,
		Config:       manager,
		ForecastDays: settings.ForecastDays,
	}
	if settings.Voice.Enabled {
		googleSpeech, err := speech.NewGoogleSpeech(ctx, speech.Config{
			LanguageCode:    settings.Voice.LanguageCode,
			SampleRateHertz: settings.Voice.SampleRateHertz,
		})
		if err != nil {
			return err
		}
		defer googleSpeech.Close()

		googleTTS, err := tts.NewGoogleTTS(ctx, settings.Voice.LanguageCode)
		if err != nil {
			return err
		}
		defer googleTTS.Close()

		opts.Transcriber = googleSpeech
		opts.Synthesizer = googleTTS
	}

	counter := tokenizer.New(settings.Tokens.Encoding)
	newConversation := func(ctx context.Context) (*usecase.Orchestrator, error) {
		cfg, err := manager.Require()
		if err != nil {
			return nil, err
		}
		gen, err := llm.NewGenerator(ctx, cfg)
		if err != nil {
			return nil, &domain.ConfigurationError{Err: err}
		}
		return usecase.NewOrchestrator(usecase.Dependencies{
			Streamer:     usecase.NewStreamer(gen, cfg.Model, counter).WithTokenLimit(settings.Tokens.Limit),
			Weather:      weatherClient,
			History:      history,
			ForecastDays: settings.ForecastDays,
		}), nil
	}

	wsServer := websocket.NewServer(newConversation, history, broker)

	e := newEcho(settings)
	e.GET("/ws", wsServer.Handler)
	http.NewAPIHandler(opts).Register(e.Group("/api/v1"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return wsServer.Run(gctx)
	})
	g.Go(func() error {
		err := manager.Watch(gctx, func(cfg domain.APIConfig, ok bool) {
			if ok {
				logger.Info("🔑 New sessions will use the updated provider", zap.String("provider", cfg.Provider), zap.String("model", cfg.Model))
			}
		})
		if err != nil {
			logger.Warn("⚠️ Config hot reload disabled", zap.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("🚀 Starting server",
			zap.String("addr", settings.Addr),
			zap.String("history_backend", settings.HistoryBackend),
			zap.Bool("voice", settings.Voice.Enabled))
		if err := e.Start(settings.Addr); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("🛑 Shutting down server")
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newEcho(s config.Settings) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Security middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(s.RateLimit))))

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.OPTIONS},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			"Content-Length",
		},
		MaxAge: 86400,
	}))

	e.Use(middleware.BodyLimit("10M"))
	return e
}

// openHistoryStore opens the configured history backend. The returned close
// function is never nil.
func openHistoryStore(s config.Settings) (domain.HistoryStore, func() error, error) {
	switch s.HistoryBackend {
	case config.BackendSQLite:
		if err := os.MkdirAll(s.DataDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating data dir: %w", err)
		}
		db, err := sqlite.Open(s.DatabasePath())
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	default:
		return jsonfile.NewHistoryStore(s.HistoryPath()), func() error { return nil }, nil
	}
}
