package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/voice_exchange/internal/ai"
	"github.com/Vovarama1992/voice_exchange/internal/config"
	"github.com/Vovarama1992/voice_exchange/internal/delivery"
	"github.com/Vovarama1992/voice_exchange/internal/metrics"
	"github.com/Vovarama1992/voice_exchange/internal/pipeline"
	"github.com/Vovarama1992/voice_exchange/internal/speech"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const serviceName = "voice_exchange"

func main() {

	// =========================================================================
	// ENV / LOGGER
	// =========================================================================

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("invalid LOG_LEVEL %q: %v", cfg.LogLevel, err)
	}
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = level
	baseLogger, err := zapCfg.Build()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer baseLogger.Sync()
	sugar := baseLogger.Sugar()
	zl := logger.NewZapLogger(sugar)

	if cfg.Chat.APIKey == "" {
		zl.Log(logger.LogEntry{
			Level:   "warn",
			Message: "OPENROUTER_API_KEY is not set, every reply will be the fallback",
			Service: serviceName,
		})
	}

	// =========================================================================
	// CLIENTS (STT / TTS / CHAT)
	// =========================================================================

	whisper := speech.NewWhisperClient(cfg.STT.URL, cfg.STT.HealthURL, "", &http.Client{Timeout: 5 * time.Minute})

	warmCtx, cancelWarm := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := whisper.Warmup(warmCtx); err != nil {
		zl.Log(logger.LogEntry{Level: "warn", Message: "stt warmup failed", Error: err, Service: serviceName})
	}
	cancelWarm()

	sttEngine := speech.NewGuarded(whisper, cfg.STT.MaxConcurrent)
	ttsEngine := speech.NewGoogleTTS(cfg.TTS.URL, &http.Client{Timeout: 30 * time.Second})

	chatClient := ai.NewOpenAIClient(cfg.Chat.APIKey, cfg.Chat.BaseURL, cfg.Chat.Model, cfg.Chat.Timeout)

	// =========================================================================
	// DOMAIN SERVICES
	// =========================================================================

	m := metrics.NewMetrics()

	speechService := speech.NewService(
		sttEngine,
		ttsEngine,
		speech.TranscribeOptions{
			Model:    cfg.STT.Model,
			BeamSize: cfg.STT.BeamSize,
			Language: cfg.STT.Language,
		},
		cfg.TTS.Lang,
		sugar,
	)

	aiService := ai.NewService(chatClient, sugar)

	pipelineService := pipeline.NewService(
		speechService, // STT
		aiService,     // chat
		speechService, // TTS
		cfg.TempDir,
		m,
		sugar,
	)

	// =========================================================================
	// HTTP ROUTER
	// =========================================================================

	r := chi.NewRouter()

	voiceHandler := delivery.NewVoiceHandler(pipelineService, speechService, cfg.MaxUploadBytes, zl)

	delivery.RegisterRoutes(r, voiceHandler, delivery.RouteOptions{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Recorder:           m,
		MetricsHandler:     m.Handler(),
	})

	// =========================================================================
	// START SERVER
	// =========================================================================

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Log(logger.LogEntry{
			Level:   "info",
			Message: "listening at " + srv.Addr,
			Service: serviceName,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Log(logger.LogEntry{Level: "info", Message: "shutting down", Service: serviceName})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zl.Log(logger.LogEntry{Level: "error", Message: "forced shutdown", Error: err, Service: serviceName})
	}
}
