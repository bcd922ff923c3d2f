package booking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ms-booking/internal/logger"
	"ms-booking/internal/metrics"
	"ms-booking/internal/models"
	"ms-booking/internal/utils"
)

type DBLayer interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBookingByID(ctx context.Context, id string) (*models.Booking, error)
	ListBookings(ctx context.Context) ([]models.Booking, error)
	ListBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error)
	ListBookingsByEvent(ctx context.Context, eventID string) ([]models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id string, status models.BookingStatus) error
}

// Inventory reserves ticket-tier stock. Reserve reports tracked=false when the
// tier has no stock counter, which means the tier is unlimited.
type Inventory interface {
	Reserve(ctx context.Context, eventID, tierID string, quantity int) (tracked bool, err error)
	Release(ctx context.Context, eventID, tierID string, quantity int) error
}

type EventPublisher interface {
	PublishBookingCreated(ctx context.Context, booking models.Booking) error
	PublishBookingCancelled(ctx context.Context, booking models.Booking) error
}

// Notifier must return without waiting for delivery.
type Notifier interface {
	Send(recipient, subject, body string)
}

type BookingService struct {
	DB        DBLayer
	Notifier  Notifier
	Inventory Inventory
	Publisher EventPublisher
	Metrics   *metrics.Metrics
	Logger    *logger.Logger
	now       func() time.Time
}

type Option func(*BookingService)

// WithInventory turns on tier stock enforcement.
func WithInventory(inv Inventory) Option {
	return func(s *BookingService) { s.Inventory = inv }
}

func WithPublisher(p EventPublisher) Option {
	return func(s *BookingService) { s.Publisher = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *BookingService) { s.Metrics = m }
}

func NewBookingService(db DBLayer, notifier Notifier, log *logger.Logger, opts ...Option) *BookingService {
	s := &BookingService{DB: db, Notifier: notifier, Logger: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateBooking stamps, persists and announces a booking. The confirmation
// e-mail is queued after the write and never affects the result.
func (s *BookingService) CreateBooking(ctx context.Context, b models.Booking) (*models.Booking, error) {
	b.ID = utils.NewID()
	b.BookingDate = s.now().UTC().Truncate(time.Microsecond)
	if b.Status == "" {
		b.Status = models.BookingConfirmed
	}
	if b.QRCode == "" {
		b.QRCode = utils.NewQRToken()
	}
	if b.TransactionID == "" {
		b.TransactionID = utils.NewBookingTransactionID()
	}
	if b.AttendeeDetails == nil {
		b.AttendeeDetails = []models.Attendee{}
	}

	reserved, err := s.reserve(ctx, b)
	if err != nil {
		return nil, err
	}
	b.StockReserved = reserved

	if err := s.DB.CreateBooking(ctx, &b); err != nil {
		if reserved {
			if relErr := s.Inventory.Release(ctx, b.EventID, b.TicketTierID, b.Quantity); relErr != nil {
				s.Logger.Error("BOOKING", fmt.Sprintf("Failed to release %d of tier %s after failed insert: %v", b.Quantity, b.TicketTierID, relErr))
			}
		}
		s.Logger.Error("BOOKING", fmt.Sprintf("Failed to persist booking for user %s: %v", b.UserID, err))
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.Logger.LogBooking("CREATE", b.ID, fmt.Sprintf("event=%s tier=%s qty=%d txn=%s", b.EventID, b.TicketTierID, b.Quantity, b.TransactionID))
	s.Metrics.BookingCreated()
	s.publish(ctx, b, true)

	if s.Notifier != nil {
		s.Notifier.Send(b.UserEmail, confirmationSubject(b), confirmationBody(b))
	}
	return &b, nil
}

func (s *BookingService) reserve(ctx context.Context, b models.Booking) (bool, error) {
	if s.Inventory == nil || b.TicketTierID == "" {
		return false, nil
	}
	if b.Quantity <= 0 {
		s.Logger.Warn("BOOKING", fmt.Sprintf("Rejected quantity %d for tier %s of event %s", b.Quantity, b.TicketTierID, b.EventID))
		return false, fmt.Errorf("reserve tier %s: %w", b.TicketTierID, models.ErrInvalidQuantity)
	}
	tracked, err := s.Inventory.Reserve(ctx, b.EventID, b.TicketTierID, b.Quantity)
	if err != nil {
		if errors.Is(err, models.ErrSoldOut) {
			s.Logger.Warn("BOOKING", fmt.Sprintf("Tier %s of event %s cannot cover %d tickets", b.TicketTierID, b.EventID, b.Quantity))
		} else {
			s.Logger.Error("BOOKING", fmt.Sprintf("Inventory reservation failed: %v", err))
		}
		return false, fmt.Errorf("reserve tier %s: %w", b.TicketTierID, err)
	}
	return tracked, nil
}

func (s *BookingService) publish(ctx context.Context, b models.Booking, created bool) {
	if s.Publisher == nil {
		return
	}
	var err error
	if created {
		err = s.Publisher.PublishBookingCreated(ctx, b)
	} else {
		err = s.Publisher.PublishBookingCancelled(ctx, b)
	}
	if err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish event for booking %s: %v", b.ID, err))
	}
}

func (s *BookingService) GetBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	return s.DB.ListBookingsByUser(ctx, userID)
}

func (s *BookingService) GetBookingsByEvent(ctx context.Context, eventID string) ([]models.Booking, error) {
	return s.DB.ListBookingsByEvent(ctx, eventID)
}

func (s *BookingService) GetAllBookings(ctx context.Context) ([]models.Booking, error) {
	return s.DB.ListBookings(ctx)
}

func (s *BookingService) GetBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	b, err := s.DB.GetBookingByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", id, err)
	}
	return b, nil
}

// CancelBooking sets CANCELLED whatever the current status. Stock is returned
// only on the first cancellation of a booking that actually reserved it.
func (s *BookingService) CancelBooking(ctx context.Context, id string) error {
	b, err := s.GetBookingByID(ctx, id)
	if err != nil {
		return err
	}
	previous := b.Status

	if err := s.DB.UpdateBookingStatus(ctx, id, models.BookingCancelled); err != nil {
		return fmt.Errorf("cancel booking %s: %w", id, err)
	}
	b.Status = models.BookingCancelled

	if previous != models.BookingCancelled {
		if s.Inventory != nil && b.StockReserved {
			if err := s.Inventory.Release(ctx, b.EventID, b.TicketTierID, b.Quantity); err != nil {
				s.Logger.Error("BOOKING", fmt.Sprintf("Failed to release stock for booking %s: %v", id, err))
			}
		}
		s.Metrics.BookingCancelled()
	}

	s.Logger.LogBooking("CANCEL", id, fmt.Sprintf("status %s -> CANCELLED", previous))
	s.publish(ctx, *b, false)
	return nil
}

func confirmationSubject(b models.Booking) string {
	return "Booking Confirmed: " + b.EventTitle
}

func confirmationBody(b models.Booking) string {
	return "Your booking for " + b.EventTitle + " is confirmed.\n" +
		"Booking ID: " + b.ID + "\n" +
		"Total Price: $" + formatPrice(b.TotalPrice) + "\n" +
		"Please present your QR Code at the venue."
}

// formatPrice keeps at least one decimal place: 100 -> "100.0", 99.5 -> "99.5".
func formatPrice(p float64) string {
	s := strconv.FormatFloat(p, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
