// The worker command runs only the translation job queue, for deployments
// that split intake from processing. The api command runs both in one
// process; jobs are leased from the shared database either way.
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/n-translator/api/internal/config"
	"github.com/n-translator/api/internal/logger"
	"github.com/n-translator/api/internal/queue"
	"github.com/n-translator/api/internal/repository"
	"github.com/n-translator/api/internal/service"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: "translator-worker",
		LogFile:     cfg.Log.File,
		MaxSize:     cfg.Log.MaxSize,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAge:      cfg.Log.MaxAge,
		Compress:    cfg.Log.Compress,
	})
	logger.SetDefaultLogger(appLogger)

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	translationRepo := repository.NewTranslationRepository(db)
	jobRepo := repository.NewJobRepository(db)

	translator := service.NewTranslatorService(&service.TranslatorConfig{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		Model:       cfg.OpenAI.Model,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Temperature: cfg.OpenAI.Temperature,
		Timeout:     cfg.OpenAI.Timeout,
	})
	processor := service.NewProcessor(translationRepo, translator, appLogger)

	jobQueue := queue.New(jobRepo, processor, appLogger, &queue.Config{
		Workers:           cfg.Queue.Workers,
		PollInterval:      cfg.Queue.PollInterval,
		VisibilityTimeout: cfg.Queue.VisibilityTimeout,
		JobTimeout:        cfg.Queue.JobTimeout,
	})
	jobQueue.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down worker...")
	jobQueue.Stop()
	appLogger.Info("Worker exited")
}
