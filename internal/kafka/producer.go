package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ms-booking/internal/config"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"

	"github.com/segmentio/kafka-go"
)

const (
	EventBookingCreated   = "BOOKING_CREATED"
	EventBookingCancelled = "BOOKING_CANCELLED"
	EventPaymentProcessed = "PAYMENT_PROCESSED"
	EventPaymentRefunded  = "PAYMENT_REFUNDED"
)

// MessageWriter is the part of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes booking and payment lifecycle events. Messages are keyed
// by booking id or transaction id so one entity's events stay ordered.
type Producer struct {
	writer MessageWriter
	topics config.TopicConfig
	logger *logger.Logger
	now    func() time.Time
}

func NewProducer(cfg config.KafkaConfig, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}
	return NewProducerWithWriter(writer, cfg.Topics, log)
}

func NewProducerWithWriter(writer MessageWriter, topics config.TopicConfig, log *logger.Logger) *Producer {
	return &Producer{writer: writer, topics: topics, logger: log, now: time.Now}
}

func (p *Producer) publish(ctx context.Context, topic, key string, payload any) error {
	msgBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	p.logger.LogKafka("PUBLISH", topic, string(msgBytes))

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: msgBytes,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

func (p *Producer) bookingEvent(eventType string, b models.Booking) models.BookingEvent {
	return models.BookingEvent{
		Type:       eventType,
		BookingID:  b.ID,
		UserID:     b.UserID,
		EventID:    b.EventID,
		Status:     b.Status,
		TotalPrice: b.TotalPrice,
		Quantity:   b.Quantity,
		Timestamp:  p.now().UTC(),
	}
}

func (p *Producer) paymentEvent(eventType string, pay models.Payment) models.PaymentEvent {
	return models.PaymentEvent{
		Type:          eventType,
		TransactionID: pay.TransactionID,
		BookingID:     pay.BookingID,
		Status:        pay.Status,
		Amount:        pay.Amount,
		Currency:      pay.Currency,
		Timestamp:     p.now().UTC(),
	}
}

func (p *Producer) PublishBookingCreated(ctx context.Context, b models.Booking) error {
	return p.publish(ctx, p.topics.BookingCreated, b.ID, p.bookingEvent(EventBookingCreated, b))
}

func (p *Producer) PublishBookingCancelled(ctx context.Context, b models.Booking) error {
	return p.publish(ctx, p.topics.BookingCancelled, b.ID, p.bookingEvent(EventBookingCancelled, b))
}

func (p *Producer) PublishPaymentProcessed(ctx context.Context, pay models.Payment) error {
	return p.publish(ctx, p.topics.PaymentProcessed, pay.TransactionID, p.paymentEvent(EventPaymentProcessed, pay))
}

func (p *Producer) PublishPaymentRefunded(ctx context.Context, pay models.Payment) error {
	return p.publish(ctx, p.topics.PaymentRefunded, pay.TransactionID, p.paymentEvent(EventPaymentRefunded, pay))
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
