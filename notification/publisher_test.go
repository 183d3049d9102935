package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/arunvm123/bookstore/metrics"
	"github.com/arunvm123/bookstore/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishWritesKeyedJSON(t *testing.T) {
	writer := &fakeWriter{}
	m := metrics.New()
	publisher := NewKafkaPublisher(writer, zap.NewNop(), m)

	err := publisher.Publish(context.Background(), model.NotificationRequest{
		Type:           model.NotificationWelcome,
		RecipientEmail: "reader@example.com",
		RecipientName:  "Avid Reader",
	})
	require.NoError(t, err)
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	assert.Equal(t, "reader@example.com", string(msg.Key))

	var decoded model.NotificationRequest
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, model.NotificationWelcome, decoded.Type)
	assert.Equal(t, "Avid Reader", decoded.RecipientName)
	assert.False(t, decoded.Timestamp.IsZero())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsPublished.WithLabelValues("welcome", "ok")))

	require.NoError(t, publisher.Close())
	assert.True(t, writer.closed)
}

func TestPublishFailure(t *testing.T) {
	writer := &fakeWriter{err: errors.New("no brokers")}
	m := metrics.New()
	publisher := NewKafkaPublisher(writer, zap.NewNop(), m)

	err := publisher.Publish(context.Background(), model.NotificationRequest{Type: model.NotificationOrderPlaced})
	assert.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsPublished.WithLabelValues("order_placed", "error")))
}
