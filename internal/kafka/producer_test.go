package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"ms-booking/internal/config"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *captureWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *captureWriter) Close() error {
	w.closed = true
	return nil
}

var testTopics = config.TopicConfig{
	BookingCreated:   "booking.created",
	BookingCancelled: "booking.cancelled",
	PaymentProcessed: "payment.processed",
	PaymentRefunded:  "payment.refunded",
}

func newTestProducer(w *captureWriter) *Producer {
	p := NewProducerWithWriter(w, testTopics, logger.NewNop())
	p.now = func() time.Time { return time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC) }
	return p
}

func TestPublishBookingEvents(t *testing.T) {
	w := &captureWriter{}
	p := newTestProducer(w)
	booking := models.Booking{ID: "b1", UserID: "u1", EventID: "e1", Status: models.BookingConfirmed, TotalPrice: 100, Quantity: 2}

	require.NoError(t, p.PublishBookingCreated(context.Background(), booking))
	booking.Status = models.BookingCancelled
	require.NoError(t, p.PublishBookingCancelled(context.Background(), booking))

	require.Len(t, w.messages, 2)
	assert.Equal(t, "booking.created", w.messages[0].Topic)
	assert.Equal(t, "booking.cancelled", w.messages[1].Topic)
	assert.Equal(t, []byte("b1"), w.messages[0].Key)

	var evt models.BookingEvent
	require.NoError(t, json.Unmarshal(w.messages[1].Value, &evt))
	assert.Equal(t, EventBookingCancelled, evt.Type)
	assert.Equal(t, models.BookingCancelled, evt.Status)
	assert.Equal(t, 2, evt.Quantity)
}

func TestPublishPaymentEvents(t *testing.T) {
	w := &captureWriter{}
	p := newTestProducer(w)
	payment := models.Payment{TransactionID: "TXN-ABC", BookingID: "b1", Status: models.PaymentSuccess, Amount: 50, Currency: "INR"}

	require.NoError(t, p.PublishPaymentProcessed(context.Background(), payment))
	require.NoError(t, p.PublishPaymentRefunded(context.Background(), payment))

	require.Len(t, w.messages, 2)
	assert.Equal(t, "payment.processed", w.messages[0].Topic)
	assert.Equal(t, "payment.refunded", w.messages[1].Topic)
	assert.Equal(t, []byte("TXN-ABC"), w.messages[1].Key)
}

func TestPublishWriterFailure(t *testing.T) {
	w := &captureWriter{err: errors.New("broker down")}
	p := newTestProducer(w)

	err := p.PublishBookingCreated(context.Background(), models.Booking{ID: "b1"})
	assert.Error(t, err)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestTopicNames(t *testing.T) {
	assert.Equal(t, []string{"booking.created", "booking.cancelled", "payment.processed", "payment.refunded"}, TopicNames(testTopics))
}
