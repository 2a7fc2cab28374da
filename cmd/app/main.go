package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"taskpulse/internal/ai"
	"taskpulse/internal/auth"
	"taskpulse/internal/config"
	"taskpulse/internal/feed"
	"taskpulse/internal/handler"
	"taskpulse/internal/repo"
	"taskpulse/internal/service"
	"taskpulse/internal/worker"
)

func main() {
	// Подключаем логгер
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Загрузка конфигурации
	cfg := config.Load()

	// Подключаем БД
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to Database.")
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal("Failed to ping the Database.")
	}
	logger.Info("Successfully connected to the Database!")

	// Генерация сообщений: без ключа работаем только на fallback
	var generator ai.Generator
	if cfg.GeminiAPIKey != "" {
		gemini, err := ai.NewGeminiGenerator(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Fatal("Failed to create Gemini client.")
		}
		generator = gemini
	} else {
		logger.Warn("GEMINI_API_KEY not set, message generation runs in fallback mode")
	}
	governor := ai.NewGovernor(generator, logger)

	taskRepo := repo.NewTaskRepo(pool)
	hub := feed.NewHub(taskRepo, logger)
	defer hub.Close()

	sessions := auth.NewGoogleGateway(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthRedirectURL, logger)

	workerPool := worker.NewPool(governor, logger, cfg.WorkerCount)
	workerPool.Start(context.Background())
	defer workerPool.Stop()

	taskService := service.NewTaskService(taskRepo, hub, governor, workerPool)
	taskHandler := handler.NewTaskHandler(taskService, logger)
	authHandler := handler.NewAuthHandler(sessions, logger)
	feedHandler := handler.NewFeedHandler(hub, sessions, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok"}`)
	})

	r.Get("/api/auth/login", authHandler.Login)
	r.Get("/api/auth/callback", authHandler.Callback)
	r.Post("/api/auth/logout", authHandler.Logout)

	r.Group(func(r chi.Router) {
		r.Use(handler.RequireSession(sessions))

		r.Get("/api/auth/me", authHandler.Me)

		r.Route("/api/tasks", func(r chi.Router) {
			r.Post("/", taskHandler.Create)
			r.Get("/", taskHandler.List)
			r.Get("/feed", feedHandler.Serve)
			r.Patch("/{id}", taskHandler.Update)
			r.Post("/{id}/toggle", taskHandler.SetCompleted)
			r.Delete("/{id}", taskHandler.Delete)
			r.Get("/{id}/message", taskHandler.Message)
		})

		r.Get("/api/stats", taskHandler.Stats)
	})

	srv := http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() { // Запуск сервера и обработка ошибок
		logger.Info("Server started at ", zap.String("port", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed: ", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Shutdown error: ", zap.Error(err))
	}
	logger.Info("Server stopped succsessfully!")
}
