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

	"github.com/n-translator/api/internal/api"
	"github.com/n-translator/api/internal/api/middleware"
	"github.com/n-translator/api/internal/config"
	"github.com/n-translator/api/internal/logger"
	"github.com/n-translator/api/internal/queue"
	"github.com/n-translator/api/internal/repository"
	"github.com/n-translator/api/internal/service"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: "translator-api",
		LogFile:     cfg.Log.File,
		MaxSize:     cfg.Log.MaxSize,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAge:      cfg.Log.MaxAge,
		Compress:    cfg.Log.Compress,
	})
	logger.SetDefaultLogger(appLogger)

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	// Initialize repositories
	translationRepo := repository.NewTranslationRepository(db)
	jobRepo := repository.NewJobRepository(db)

	// Initialize translation provider client
	translator := service.NewTranslatorService(&service.TranslatorConfig{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		Model:       cfg.OpenAI.Model,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Temperature: cfg.OpenAI.Temperature,
		Timeout:     cfg.OpenAI.Timeout,
	})

	// Initialize services
	translationService := service.NewTranslationService(
		db,
		translationRepo,
		jobRepo,
		appLogger,
		&service.TranslationServiceConfig{
			MaxAttempts:   cfg.Queue.MaxAttempts,
			MaxExceptions: cfg.Queue.MaxExceptions,
		},
	)
	processor := service.NewProcessor(translationRepo, translator, appLogger)

	// Start the in-process job queue workers
	jobQueue := queue.New(jobRepo, processor, appLogger, &queue.Config{
		Workers:           cfg.Queue.Workers,
		PollInterval:      cfg.Queue.PollInterval,
		VisibilityTimeout: cfg.Queue.VisibilityTimeout,
		JobTimeout:        cfg.Queue.JobTimeout,
	})
	jobQueue.Start()

	// Setup router
	router := api.SetupRouter(translationService, cfg.Server.Mode, middleware.CORSConfig{
		AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	// Let in-flight jobs settle before exit
	jobQueue.Stop()

	appLogger.Info("Server exited")
}
