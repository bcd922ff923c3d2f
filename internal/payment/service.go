package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ms-booking/internal/logger"
	"ms-booking/internal/metrics"
	"ms-booking/internal/models"
	"ms-booking/internal/payment/processor"
	"ms-booking/internal/utils"
)

type DBLayer interface {
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPaymentByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error)
	UpdatePayment(ctx context.Context, payment *models.Payment) error
	ListPaymentsByUser(ctx context.Context, userID string) ([]models.Payment, error)
	ListPaymentsByBooking(ctx context.Context, bookingID string) ([]models.Payment, error)
}

type EventPublisher interface {
	PublishPaymentProcessed(ctx context.Context, payment models.Payment) error
	PublishPaymentRefunded(ctx context.Context, payment models.Payment) error
}

// InitiateRequest is the body of POST /payments/initiate. Amount is kept raw
// because anything other than a JSON number is accepted and treated as 0.
type InitiateRequest struct {
	BookingID string          `json:"bookingId"`
	UserID    string          `json:"userId"`
	EventID   string          `json:"eventId"`
	Amount    json.RawMessage `json:"amount"`
	Currency  string          `json:"currency"`
	Method    string          `json:"method"`
}

func (r InitiateRequest) AmountValue() float64 {
	raw := bytes.TrimSpace(r.Amount)
	if len(raw) == 0 || raw[0] == '"' {
		return 0
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0
	}
	return v
}

type PaymentService struct {
	DB        DBLayer
	Gateway   processor.Gateway
	Publisher EventPublisher
	Metrics   *metrics.Metrics
	Logger    *logger.Logger
	now       func() time.Time
}

func NewPaymentService(db DBLayer, gateway processor.Gateway, publisher EventPublisher, m *metrics.Metrics, log *logger.Logger) *PaymentService {
	return &PaymentService{DB: db, Gateway: gateway, Publisher: publisher, Metrics: m, Logger: log, now: time.Now}
}

// InitiatePayment records a PENDING payment and returns it with its transaction id.
func (s *PaymentService) InitiatePayment(ctx context.Context, req InitiateRequest) (*models.Payment, error) {
	now := s.now()
	p := &models.Payment{
		ID:            utils.NewID(),
		TransactionID: utils.NewPaymentTransactionID(),
		BookingID:     req.BookingID,
		UserID:        req.UserID,
		EventID:       req.EventID,
		Amount:        req.AmountValue(),
		Currency:      req.Currency,
		Method:        req.Method,
		Status:        models.PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if p.Currency == "" {
		p.Currency = models.DefaultCurrency
	}

	if err := s.DB.CreatePayment(ctx, p); err != nil {
		s.Logger.Error("PAYMENT", fmt.Sprintf("Failed to store payment for booking %s: %v", req.BookingID, err))
		return nil, fmt.Errorf("initiate payment: %w", err)
	}

	s.Logger.LogPayment("INITIATE", p.TransactionID, fmt.Sprintf("booking=%s amount=%.2f %s method=%s", p.BookingID, p.Amount, p.Currency, p.Method))
	return p, nil
}

// ProcessPayment asks the gateway for an outcome and always leaves the payment
// SUCCESS or FAILED. Every call charges again, whatever the current status.
func (s *PaymentService) ProcessPayment(ctx context.Context, transactionID string) (*models.Payment, error) {
	p, err := s.GetPaymentByTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	outcome, err := s.Gateway.Charge(ctx, p)
	if err != nil {
		s.Logger.Error("PAYMENT", fmt.Sprintf("Gateway error for %s, marking FAILED: %v", transactionID, err))
		outcome = processor.Outcome{}
	}

	if outcome.Success {
		p.Status = models.PaymentSuccess
	} else {
		p.Status = models.PaymentFailed
	}
	p.GatewayReference = outcome.Reference
	if p.GatewayReference == "" {
		p.GatewayReference = utils.NewGatewayReference()
	}
	p.UpdatedAt = s.now()

	if err := s.DB.UpdatePayment(ctx, p); err != nil {
		return nil, fmt.Errorf("process payment %s: %w", transactionID, err)
	}

	s.Logger.LogPayment("PROCESS", transactionID, fmt.Sprintf("status=%s ref=%s", p.Status, p.GatewayReference))
	s.Metrics.PaymentProcessed(string(p.Status))
	if s.Publisher != nil {
		if err := s.Publisher.PublishPaymentProcessed(ctx, *p); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish processed event for %s: %v", transactionID, err))
		}
	}
	return p, nil
}

// RefundPayment only accepts SUCCESS payments.
func (s *PaymentService) RefundPayment(ctx context.Context, transactionID string) (*models.Payment, error) {
	p, err := s.GetPaymentByTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if p.Status != models.PaymentSuccess {
		s.Logger.Warn("PAYMENT", fmt.Sprintf("Refund rejected for %s in status %s", transactionID, p.Status))
		return nil, fmt.Errorf("only successful payments can be refunded, %s is %s: %w", transactionID, p.Status, models.ErrInvalidState)
	}

	p.Status = models.PaymentRefunded
	p.UpdatedAt = s.now()
	if err := s.DB.UpdatePayment(ctx, p); err != nil {
		return nil, fmt.Errorf("refund payment %s: %w", transactionID, err)
	}

	s.Logger.LogPayment("REFUND", transactionID, "refunded")
	s.Metrics.PaymentRefunded()
	if s.Publisher != nil {
		if err := s.Publisher.PublishPaymentRefunded(ctx, *p); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish refund event for %s: %v", transactionID, err))
		}
	}
	return p, nil
}

func (s *PaymentService) GetPaymentByTransaction(ctx context.Context, transactionID string) (*models.Payment, error) {
	p, err := s.DB.GetPaymentByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("payment %s: %w", transactionID, err)
	}
	return p, nil
}

func (s *PaymentService) GetPaymentsByUser(ctx context.Context, userID string) ([]models.Payment, error) {
	return s.DB.ListPaymentsByUser(ctx, userID)
}

func (s *PaymentService) GetPaymentsByBooking(ctx context.Context, bookingID string) ([]models.Payment, error) {
	return s.DB.ListPaymentsByBooking(ctx, bookingID)
}
