package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arunvm123/bookstore/model"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the part of *kafka.Reader the processor needs
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type NotificationProcessor struct {
	consumer MessageReader
	mailer   Mailer
	log      *zap.Logger

	// Worker pool for managing goroutines
	workerPool chan chan kafka.Message
	workers    []*notificationWorker
	wg         sync.WaitGroup

	processedCount int64
	failedCount    int64
	activeWorkers  int64
}

type notificationWorker struct {
	id         int
	processor  *NotificationProcessor
	jobChannel chan kafka.Message
	workerPool chan chan kafka.Message
	quit       chan struct{}
}

func NewNotificationProcessor(consumer MessageReader, mailer Mailer, maxWorkers int, log *zap.Logger) *NotificationProcessor {
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	processor := &NotificationProcessor{
		consumer:   consumer,
		mailer:     mailer,
		log:        log,
		workerPool: make(chan chan kafka.Message, maxWorkers),
		workers:    make([]*notificationWorker, maxWorkers),
	}

	for i := 0; i < maxWorkers; i++ {
		processor.workers[i] = &notificationWorker{
			id:         i,
			processor:  processor,
			jobChannel: make(chan kafka.Message),
			workerPool: processor.workerPool,
			quit:       make(chan struct{}),
		}
	}

	return processor
}

// Start consumes the notification topic until ctx is cancelled or the
// reader is closed
func (p *NotificationProcessor) Start(ctx context.Context) error {
	p.log.Info("Starting notification processor", zap.Int("workers", len(p.workers)))

	for _, w := range p.workers {
		w.start()
	}
	defer p.shutdown()

	go p.reportMetrics(ctx)

	for {
		msg, err := p.consumer.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			p.log.Warn("Error reading message", zap.Error(err))
			continue
		}

		// Dispatch to worker pool (blocks if all workers busy)
		select {
		case jobChannel := <-p.workerPool:
			select {
			case jobChannel <- msg:
			case <-ctx.Done():
				return ctx.Err()
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *notificationWorker) start() {
	w.processor.wg.Add(1)
	go func() {
		defer w.processor.wg.Done()
		for {
			// Register this worker in the pool
			select {
			case w.workerPool <- w.jobChannel:
			case <-w.quit:
				return
			}

			select {
			case job := <-w.jobChannel:
				atomic.AddInt64(&w.processor.activeWorkers, 1)
				if err := w.processor.processNotification(context.Background(), job); err != nil {
					atomic.AddInt64(&w.processor.failedCount, 1)
					w.processor.log.Error("Failed to process notification", zap.Int("worker", w.id), zap.Error(err))
				}
				atomic.AddInt64(&w.processor.processedCount, 1)
				atomic.AddInt64(&w.processor.activeWorkers, -1)

			case <-w.quit:
				return
			}
		}
	}()
}

// shutdown stops every worker once its current mail is sent
func (p *NotificationProcessor) shutdown() {
	p.log.Info("Shutting down notification workers")
	for _, w := range p.workers {
		close(w.quit)
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info("All workers finished gracefully")
	case <-time.After(30 * time.Second):
		p.log.Warn("Shutdown timeout reached, forcing exit")
	}
}

func (p *NotificationProcessor) reportMetrics(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.log.Info("Notification processor metrics",
				zap.Int64("processed", atomic.LoadInt64(&p.processedCount)),
				zap.Int64("failed", atomic.LoadInt64(&p.failedCount)),
				zap.Int64("active_workers", atomic.LoadInt64(&p.activeWorkers)),
			)
		}
	}
}

// Processed returns how many messages the workers have handled
func (p *NotificationProcessor) Processed() int64 {
	return atomic.LoadInt64(&p.processedCount)
}

func (p *NotificationProcessor) processNotification(ctx context.Context, msg kafka.Message) error {
	var req model.NotificationRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		return fmt.Errorf("failed to unmarshal notification request: %w", err)
	}

	email := req.RenderEmail()
	if email == nil {
		p.log.Warn("Skipping unknown notification", zap.String("type", req.Type))
		return nil
	}

	if err := p.mailer.Send(ctx, email); err != nil {
		return fmt.Errorf("failed to send %s email: %w", req.Type, err)
	}

	p.log.Info("Notification sent", zap.String("type", req.Type), zap.String("to", email.To))
	return nil
}
