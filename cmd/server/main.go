// Travel Bot - conversational trip planning server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/tripflow/tripflow/internal/api"
	"github.com/tripflow/tripflow/internal/config"
	"github.com/tripflow/tripflow/internal/conversation"
	"github.com/tripflow/tripflow/internal/llm"
	"github.com/tripflow/tripflow/internal/middleware"
	"github.com/tripflow/tripflow/internal/store"
	"github.com/tripflow/tripflow/internal/ws"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "store", cfg.Store.Driver, "model", cfg.LLM.Model)

	// Initialize dependencies.
	repo, err := store.New(context.Background(), store.Config{
		Driver:          cfg.Store.Driver,
		MongoURI:        cfg.Store.MongoURL,
		MongoDatabase:   cfg.Store.MongoDatabase,
		RedisAddr:       cfg.Store.RedisAddr,
		RedisPassword:   cfg.Store.RedisPassword,
		RedisDB:         cfg.Store.RedisDB,
		RedisSessionTTL: cfg.Store.RedisTTL,
		SQLitePath:      cfg.Store.SQLitePath,
	})
	if err != nil {
		slog.Error("Failed to initialize session store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close session store", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Session store health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Session store connected")

	client, err := llm.NewOpenAIClient(llm.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
	})
	if err != nil {
		slog.Error("Failed to initialize model client", "error", err)
		os.Exit(1)
	}

	engine := conversation.NewEngine(repo, client, conversation.Config{
		DefaultOrigin: cfg.Chat.DefaultOrigin,
		GreetingPause: cfg.Chat.GreetingPause,
		ThinkPause:    cfg.Chat.ThinkPause,
	})

	// Initialize handlers.
	baseHandler := api.NewHandler(repo, engine)
	chatHandler := api.NewChatHandler(baseHandler)
	healthHandler := api.NewHealthHandler(repo)
	wsHandler := ws.NewHandler(repo, engine, cfg.AllowedOrigins)

	// Setup router.
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	healthHandler.RegisterRoutes(r)
	chatHandler.RegisterRoutes(r)
	wsHandler.RegisterRoutes(r)

	// SSE and WebSocket connections need long-lived writes, so the
	// server runs without a write timeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
