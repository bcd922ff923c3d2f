package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ms-booking/internal/logger"
	"ms-booking/internal/metrics"
	"ms-booking/internal/models"
)

const deliveryTimeout = 30 * time.Second

// RecordStore appends notification audit records.
type RecordStore interface {
	Append(ctx context.Context, record *models.NotificationRecord) error
}

// Dispatcher queues e-mails in memory and delivers them from a single
// background worker. Send never blocks on delivery. The queue is unbounded.
type Dispatcher struct {
	transport Transport
	store     RecordStore
	metrics   *metrics.Metrics
	logger    *logger.Logger
	now       func() time.Time

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []models.EmailRequest
	closed bool
	done   chan struct{}
}

// NewDispatcher starts the worker. store may be nil when records are kept by
// the service at the other end of the transport.
func NewDispatcher(transport Transport, store RecordStore, log *logger.Logger, m *metrics.Metrics) *Dispatcher {
	d := &Dispatcher{
		transport: transport,
		store:     store,
		metrics:   m,
		logger:    log,
		now:       time.Now,
		done:      make(chan struct{}),
	}
	d.cond = sync.NewCond(&d.mu)
	go d.run()
	return d
}

// Send enqueues an e-mail and returns at once.
func (d *Dispatcher) Send(recipient, subject, body string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		d.logger.Warn("NOTIFICATION", fmt.Sprintf("Dispatcher closed, dropping e-mail to %s", recipient))
		return
	}
	d.queue = append(d.queue, models.EmailRequest{To: recipient, Subject: subject, Body: body})
	d.cond.Signal()
}

// Close stops accepting e-mails and waits until the queue is drained or ctx ends.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.cond.Broadcast()
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.closed {
			d.cond.Wait()
		}
		if len(d.queue) == 0 {
			d.mu.Unlock()
			return
		}
		email := d.queue[0]
		d.queue[0] = models.EmailRequest{}
		d.queue = d.queue[1:]
		d.mu.Unlock()

		d.dispatch(email)
	}
}

func (d *Dispatcher) dispatch(email models.EmailRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	if err := d.deliver(ctx, email); err != nil {
		d.logger.Error("NOTIFICATION", fmt.Sprintf("Failed to send e-mail to %s: %v", email.To, err))
		d.metrics.NotificationDispatched("failed")
	} else {
		d.logger.LogNotification("SEND", email.To, email.Subject)
		d.metrics.NotificationDispatched("delivered")
	}

	if d.store == nil {
		return
	}

	// The record says the attempt happened; it is written whatever the outcome.
	record := &models.NotificationRecord{
		Recipient: email.To,
		Subject:   email.Subject,
		Body:      email.Body,
		Status:    models.NotificationSent,
		SentAt:    d.now(),
	}
	if err := d.store.Append(ctx, record); err != nil {
		d.logger.Error("NOTIFICATION", fmt.Sprintf("Failed to record e-mail to %s: %v", email.To, err))
	}
}

func (d *Dispatcher) deliver(ctx context.Context, email models.EmailRequest) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transport panic: %v", r)
		}
	}()
	return d.transport.Deliver(ctx, email)
}
