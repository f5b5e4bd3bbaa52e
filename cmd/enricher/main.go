package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/cache"
	redisCache "github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/cache/redis"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/enrichment"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/evidence"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/metrics"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/monitoring"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/sources"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/sources/dataforseo"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/sources/sentiment"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/sources/webmentions"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/storage"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/storage/memory"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/internal/storage/sqlite"
	"github.com/tindevelopers/api-blogwriting-python-gcr-sub002/pkg/config"
	appLogger "github.com/tindevelopers/api-blogwriting-python-gcr-sub002/pkg/logger"
)

const configVersion = "2024.2"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting evidence enrichment service")
	metrics.Init()

	var backend storage.Backend
	if cfg.SQLite.Enabled {
		sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
		if err != nil {
			appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
		}
		defer sqliteClient.Close()

		if err := sqliteClient.InitSchema(); err != nil {
			appLogger.Fatal("Failed to initialize schema", zap.Error(err))
		}
		backend = sqliteClient
	} else {
		appLogger.Warn("No durable store configured, evidence will not survive restarts")
		backend = memory.NewStore()
	}

	var store cache.Cache
	if cfg.Redis.Enabled {
		redisClient, err := redisCache.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Fatal("Failed to create Redis client", zap.Error(err))
		}
		defer redisClient.Close()
		store = redisClient
	} else {
		store = cache.NewMemoryCache()
	}

	cacheTTL := time.Duration(cfg.Cache.TTLSec) * time.Second
	evidenceStore := evidence.NewStore(store, backend, cacheTTL)

	registry := sources.NewRegistry()

	reviewClient := dataforseo.NewClient(
		cfg.DataForSEO.BaseURL,
		cfg.DataForSEO.Login,
		cfg.DataForSEO.Password,
		time.Duration(cfg.DataForSEO.TimeoutSec)*time.Second,
	)
	registry.Register(sources.Google, reviewClient)
	registry.Register(sources.Tripadvisor, reviewClient)
	registry.Register(sources.Trustpilot, reviewClient)

	registry.Register(sources.SocialMentions, webmentions.NewClient(
		cfg.Mentions.MaxResults,
		time.Duration(cfg.Mentions.TimeoutSec)*time.Second,
	))

	registry.Register(sources.Sentiment, sentiment.NewClient(
		cfg.OpenAI.APIKey,
		cfg.OpenAI.Model,
		cfg.OpenAI.Temperature,
		cfg.OpenAI.MaxTokens,
		time.Duration(cfg.OpenAI.TimeoutSec)*time.Second,
	))

	dispatcher := enrichment.NewDispatcher(registry)
	orchestrator := enrichment.NewOrchestrator(evidenceStore, dispatcher, configVersion)

	scheduler, err := monitoring.NewScheduler(evidenceStore, orchestrator, cfg.Monitoring.Workers)
	if err != nil {
		appLogger.Fatal("Failed to create monitoring scheduler", zap.Error(err))
	}
	defer scheduler.Close()

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Monitoring.Enabled {
		interval := time.Duration(cfg.Monitoring.IntervalSec) * time.Second
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				select {
				case <-rootCtx.Done():
					return
				case <-ticker.C:
					report, err := scheduler.Run(rootCtx, cfg.Monitoring.BatchLimit)
					if err != nil {
						appLogger.Error("Monitoring run failed", zap.Error(err))
						continue
					}
					appLogger.Info("Monitoring run finished",
						zap.Int("attempted", report.Attempted),
						zap.Int("updated", report.Updated),
					)
				}
			}
		}()
		appLogger.Info("Monitoring scheduler enabled", zap.Duration("interval", interval))
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	})

	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	app.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	cancel()
	app.Shutdown()
	appLogger.Info("Server stopped")
}
