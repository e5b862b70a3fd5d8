package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"andse-chat/internal/chat"
	"andse-chat/internal/config"
	"andse-chat/internal/db"
	"andse-chat/internal/files"
	apihttp "andse-chat/internal/http"
	"andse-chat/internal/llm"
	"andse-chat/internal/repository"
	"andse-chat/internal/service"
	"andse-chat/internal/speech"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	sessionRepo := repository.NewPgSessionRepository(pool)
	messageRepo := repository.NewPgMessageRepository(pool)

	engine := llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)

	var transcriber speech.Transcriber = speech.NewDisabledTranscriber("stt provider not configured")
	if cfg.STTBaseURL != "" {
		transcriber = speech.NewHTTPTranscriber(cfg.STTBaseURL, cfg.STTAPIKey, time.Duration(cfg.STTTimeoutSec)*time.Second)
	}

	var limiter service.TranscribeRateLimiter = service.NewMemoryRateLimiter(time.Minute, 10)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			limiter = service.NewRedisRateLimiter(redisClient, time.Minute, 10)
		}
		cancel()
	}

	hub := chat.NewHub(logger)
	sessionSvc := service.NewSessionService(logger, sessionRepo, messageRepo)
	chatSvc := service.NewChatService(logger, sessionRepo, messageRepo, engine, hub, cfg.SystemPrompt)
	transcribeSvc := service.NewTranscribeService(logger, transcriber, limiter, time.Duration(cfg.STTTimeoutSec)*time.Second)
	store := files.NewDiskStore(cfg.UploadDir)

	verifier := service.NewTokenVerifier(cfg.JWTSecret)
	if !verifier.Enabled() {
		logger.Warn("jwt secret not configured, api runs open")
	}

	chatHandler := apihttp.NewChatHandler(logger, sessionSvc, transcribeSvc, store, cfg.UploadMaxMB<<20)
	wsHandler := apihttp.NewWSHandler(logger, hub, chatSvc)
	router := apihttp.NewRouter(logger, verifier, chatHandler, wsHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-runCtx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown failed", zap.Error(err))
	}
	hub.CloseAll()
}
