package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/leonw111/mac-ai-toolkit/adapters/audio"
	"github.com/leonw111/mac-ai-toolkit/adapters/history"
	"github.com/leonw111/mac-ai-toolkit/adapters/ocr"
	"github.com/leonw111/mac-ai-toolkit/adapters/stt"
	"github.com/leonw111/mac-ai-toolkit/adapters/tts"
	"github.com/leonw111/mac-ai-toolkit/domain/repositories"
	"github.com/leonw111/mac-ai-toolkit/internal/api"
	"github.com/leonw111/mac-ai-toolkit/internal/config"
	"github.com/leonw111/mac-ai-toolkit/internal/metrics"
	"github.com/leonw111/mac-ai-toolkit/usecase"
)

const version = "0.3.0"

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load(os.Getenv("TOOLKIT_CONFIG"))
	if err != nil {
		logger.Fatal("loading configuration failed", zap.Error(err))
	}

	// Engines
	recognizer, err := ocr.NewTesseractRecognizer(cfg.OCR.Command)
	if err != nil {
		logger.Fatal("creating recognition engine failed", zap.Error(err))
	}
	synthesizer, err := tts.NewExecSynthesizer(tts.Config{
		Command:       cfg.TTS.Command,
		VoicesCommand: cfg.TTS.VoicesCommand,
		SampleRate:    cfg.TTS.SampleRate,
		Channels:      cfg.TTS.Channels,
	})
	if err != nil {
		logger.Fatal("creating synthesis engine failed", zap.Error(err))
	}
	transcriber, err := stt.NewExecTranscriber(stt.Config{
		Command:    cfg.STT.Command,
		ModelPath:  cfg.STT.ModelPath,
		SampleRate: cfg.STT.SampleRate,
		Channels:   cfg.STT.Channels,
	})
	if err != nil {
		logger.Fatal("creating transcription engine failed", zap.Error(err))
	}
	encoder, err := audio.NewEncoder(cfg.TTS.EncoderCmd)
	if err != nil {
		logger.Fatal("creating audio encoder failed", zap.Error(err))
	}

	// History collaborator
	var recorder repositories.HistoryRecorder = history.NopRecorder{}
	if cfg.History.Enabled {
		store, err := history.Open(context.Background(), cfg.History.Path, logger)
		if err != nil {
			logger.Warn("history store unavailable, continuing without it", zap.Error(err))
		} else {
			defer store.Close()
			recorder = store
		}
	}

	// Capability service wrappers
	services := api.Services{
		Recognition: usecase.NewRecognitionService(recognizer, recorder, logger, cfg.Defaults.Language),
		Synthesis: usecase.NewSynthesisService(
			synthesizer,
			audio.NewMalgoPlayer(),
			encoder,
			recorder,
			logger,
			cfg.Defaults.Voice,
			cfg.Defaults.Language,
		),
		Transcription: usecase.NewTranscriptionService(
			transcriber,
			audio.NewMalgoInput(audio.DefaultCaptureConfig()),
			recorder,
			logger,
			cfg.Defaults.Language,
		),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	api.InitRoutes(e, services, metrics.NewRequestCounter(), api.Config{
		APIKey:       cfg.Server.APIKey,
		MaxImageBody: cfg.Server.MaxImageBody,
		MaxAudioBody: cfg.Server.MaxAudioBody,
		Version:      version,
	}, logger)

	address := cfg.Server.Host + ":" + cfg.Server.Port

	go func() {
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("gateway started", zap.String("address", address))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("gateway is shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("forced shutdown", zap.Error(err))
	}

	logger.Info("gateway exited")
}
