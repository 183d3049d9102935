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

	"github.com/arunvm123/bookstore/cache/redis"
	"github.com/arunvm123/bookstore/catalog"
	"github.com/arunvm123/bookstore/config"
	"github.com/arunvm123/bookstore/logger"
	"github.com/arunvm123/bookstore/metrics"
	"github.com/arunvm123/bookstore/notification"
	"github.com/arunvm123/bookstore/repository/postgres"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Initialize configuration
	// Try to load from config.yaml first, fallback to environment variables
	cfg, err := config.Initialise("config.yaml", false)
	if err != nil {
		log.Printf("Config file not found or invalid, using environment variables: %v", err)
		cfg, err = config.Initialise("", true)
		if err != nil {
			log.Fatal("Failed to load configuration:", err)
		}
	}

	logr := logger.NewLogger("bookstore-api", cfg.LogLevel)
	defer logr.Sync()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.Open(&cfg.Database, logr)
	if err != nil {
		logr.Fatal("Failed to initialize database", zap.Error(err))
	}
	repos := postgres.NewRepositories(db, logr)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := redis.NewRedisCacheRepository(startCtx, cfg.Redis.GetRedisURL(), cfg.Redis.Password, cfg.Redis.DB, logr)
	cancelStart()
	if err != nil {
		logr.Fatal("Failed to initialize cache", zap.Error(err))
	}
	defer store.Close()

	m := metrics.New()

	kafkaWriter := notification.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.NotificationTopic)
	publisher := notification.NewKafkaPublisher(kafkaWriter, logr, m)
	defer publisher.Close()

	catalogService := catalog.NewService(repos.Books, store, cfg.Catalog, logr, m)

	router := SetupRouter(Dependencies{
		Config:    cfg,
		Repos:     repos,
		Cache:     store,
		Catalog:   catalogService,
		Publisher: publisher,
		Metrics:   m,
		Log:       logr,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("Bookstore API listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logr.Info("Received shutdown signal, draining requests")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("Forced shutdown", zap.Error(err))
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logr.Info("Server stopped")
}
