package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arunvm123/bookstore/metrics"
	"github.com/arunvm123/bookstore/model"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher hands notification requests to the mail worker
type Publisher interface {
	Publish(ctx context.Context, req model.NotificationRequest) error
}

// MessageWriter is the part of *kafka.Writer the publisher needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter creates a writer for the notification topic. Messages with
// the same key land on the same partition, so one recipient's mails keep
// their order.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
}

type KafkaPublisher struct {
	writer  MessageWriter
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewKafkaPublisher(writer MessageWriter, log *zap.Logger, m *metrics.Metrics) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, log: log, metrics: m}
}

func (p *KafkaPublisher) Publish(ctx context.Context, req model.NotificationRequest) error {
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now()
	}

	value, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(req.RecipientEmail),
		Value: value,
	})
	p.metrics.NotificationPublished(req.Type, err)
	if err != nil {
		p.log.Error("Failed to publish notification",
			zap.String("type", req.Type),
			zap.String("recipient", req.RecipientEmail),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	p.log.Debug("Notification published", zap.String("type", req.Type), zap.String("recipient", req.RecipientEmail))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
