// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tripforge/trip-planner/internal/config"
	"github.com/tripforge/trip-planner/internal/handler"
	"github.com/tripforge/trip-planner/internal/llm"
	natsclient "github.com/tripforge/trip-planner/internal/nats"
	"github.com/tripforge/trip-planner/internal/planner"
	"github.com/tripforge/trip-planner/internal/service"
	"github.com/tripforge/trip-planner/internal/store"
	"github.com/tripforge/trip-planner/internal/tools"
	"github.com/tripforge/trip-planner/pkg/logger"
	"github.com/tripforge/trip-planner/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting API server",
		zap.String("llm_provider", cfg.LLMProvider),
		zap.String("session_backend", cfg.SessionBackend),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize tracing if enabled
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "tripforge-api", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(context.Background(), tp)
		}
	}

	// Session storage
	var (
		sessions store.SessionStore
		pinger   handler.Pinger
	)
	switch cfg.SessionBackend {
	case "redis":
		redisStore := store.NewRedisStore(store.NewRedisClient(cfg.RedisURL), cfg.SessionTTL)
		defer redisStore.Close()
		sessions, pinger = redisStore, redisStore
	default:
		memoryStore := store.NewMemoryStore(cfg.SessionTTL)
		sessions, pinger = memoryStore, memoryStore
	}

	// Optional NATS transcript stream
	var (
		publisher  service.Publisher
		transcript service.TranscriptReader
		natsHealth handler.ConnectionChecker
	)
	if cfg.NATSEnabled {
		natsClient, err := natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer natsClient.Close()

		streamManager := natsclient.NewStreamManager(natsClient)
		if err := streamManager.EnsureStream(ctx); err != nil {
			log.Fatal("failed to ensure stream", zap.Error(err))
		}
		go reportStreamMetrics(ctx, streamManager, log)

		publisher, transcript, natsHealth = streamManager, streamManager, natsClient
	}

	// LLM client
	llmClient, err := llm.NewClient(llm.Provider(cfg.LLMProvider), cfg.LLMAPIKey())
	if err != nil {
		log.Fatal("failed to create LLM client", zap.Error(err))
	}

	// Search tools
	search := tools.NewSearchClient(tools.SearchConfig{
		APIKey:  cfg.SerpAPIKey,
		BaseURL: cfg.SerpAPIBaseURL,
		Timeout: cfg.SerpAPITimeout,
	})
	if !search.Configured() {
		log.Warn("SERPAPI_API_KEY not set, search tools will report errors")
	}
	registry, err := tools.NewRegistry(tools.NewFlightSearch(search), tools.NewHotelSearch(search))
	if err != nil {
		log.Fatal("failed to build tool registry", zap.Error(err))
	}
	bridge := tools.NewBridge(registry, log)

	// Planner machines
	modelCfg := planner.ModelConfig{
		Model:       cfg.LLMModel,
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: cfg.LLMTemperature,
	}
	elicitor := planner.NewElicitor(llmClient, modelCfg, log)
	builder := planner.NewBuilder(llmClient, modelCfg, bridge, log)

	// Initialize services
	sessionSvc := service.NewSessionService(sessions, elicitor, builder, publisher, cfg.PlannerStepLimit, log)
	transcriptSvc := service.NewTranscriptService(transcript)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(pinger, natsHealth)
	sessionHandler := handler.NewSessionHandler(sessionSvc, transcriptSvc, log)

	router := handler.NewRouter(handler.RouterConfig{
		JWTSecret:          cfg.JWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRequests:  cfg.RateLimitRequests,
		RateLimitWindow:    cfg.RateLimitWindow,
	}, sessionHandler, healthHandler, log)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

func reportStreamMetrics(ctx context.Context, sm *natsclient.StreamManager, log *logger.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sm.ReportMetrics(ctx); err != nil {
				log.Debug("failed to report stream metrics", zap.Error(err))
			}
		}
	}
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	if cfg.Environment == "development" {
		return logger.NewDevelopment()
	}
	return logger.New(logger.Options{Level: cfg.LogLevel, FilePath: cfg.LogFile})
}
