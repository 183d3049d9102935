package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/arunvm123/bookstore/config"
	"github.com/arunvm123/bookstore/logger"
	"github.com/arunvm123/bookstore/worker"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

func main() {
	// Load configuration (fallback to env variables if config file not found)
	cfg, err := config.Initialise("config.yaml", false)
	if err != nil {
		log.Printf("Config file not found or invalid, using environment variables: %v", err)
		cfg, err = config.Initialise("", true)
		if err != nil {
			log.Fatal("Failed to load configuration:", err)
		}
	}

	logr := logger.NewLogger("bookstore-mailer", cfg.LogLevel)
	defer logr.Sync()

	// Setup Kafka consumer
	consumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.NotificationTopic,
		GroupID: cfg.Kafka.ConsumerGroup,
	})
	defer consumer.Close()

	mailer := worker.NewMailer(cfg.Email, logr)
	processor := worker.NewNotificationProcessor(consumer, mailer, cfg.Worker.MaxWorkers, logr)

	// Graceful shutdown context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logr.Info("Received shutdown signal, stopping worker")
		cancel()
	}()

	logr.Info("Notification worker started",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.NotificationTopic),
	)
	if err := processor.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logr.Fatal("Worker error", zap.Error(err))
	}

	logr.Info("Worker stopped gracefully")
}
