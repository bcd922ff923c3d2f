package analytics

import (
	"context"
	"fmt"
	"sort"

	"ms-booking/internal/gateway"
	"ms-booking/internal/logger"
	"ms-booking/internal/metrics"
	"ms-booking/internal/models"

	"golang.org/x/sync/errgroup"
)

// CommissionRate is the platform share of booking revenue.
const CommissionRate = 0.10

// BookingStats is the read side of the booking store used for aggregation
type BookingStats interface {
	CountBookings(ctx context.Context) (int, error)
	SumRevenue(ctx context.Context) (float64, error)
	ListBookingsByOrganizer(ctx context.Context, organizerID string) ([]models.Booking, error)
}

// PaymentStats is the read side of the payment store
type PaymentStats interface {
	CountPayments(ctx context.Context) (int, error)
}

// SystemStats is the platform-wide report. When any source fails every
// numeric field is zero and Error carries the reason.
type SystemStats struct {
	TotalEvents     int     `json:"totalEvents"`
	TotalUsers      int     `json:"totalUsers"`
	TotalBookings   int     `json:"totalBookings"`
	TotalRevenue    float64 `json:"totalRevenue"`
	AdminCommission float64 `json:"adminCommission"`
	TotalPayments   int     `json:"totalPayments"`
	Error           string  `json:"error,omitempty"`
}

// OrganizerRevenue is one group of an organizer's bookings sharing an event title
type OrganizerRevenue struct {
	EventTitle  string  `json:"eventTitle"`
	Revenue     float64 `json:"revenue"`
	TicketsSold int     `json:"ticketsSold"`
}

// Service composes the sibling services and both local stores into reports
type Service struct {
	Catalog  gateway.CatalogClient
	Identity gateway.IdentityClient
	Bookings BookingStats
	Payments PaymentStats
	Metrics  *metrics.Metrics
	Logger   *logger.Logger
}

// NewService creates a new analytics service. payments may be nil when the
// payment ledger lives in another process.
func NewService(catalog gateway.CatalogClient, identity gateway.IdentityClient, bookings BookingStats, payments PaymentStats, m *metrics.Metrics, log *logger.Logger) *Service {
	return &Service{
		Catalog:  catalog,
		Identity: identity,
		Bookings: bookings,
		Payments: payments,
		Metrics:  m,
		Logger:   log,
	}
}

// GetSystemStats queries every source concurrently and returns either the
// full report or the zeroed degraded one. It never returns partial data.
func (s *Service) GetSystemStats(ctx context.Context) SystemStats {
	var stats SystemStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(recovered("list events", func() error {
		events, err := s.Catalog.ListEvents(gctx)
		if err != nil {
			return err
		}
		stats.TotalEvents = len(events)
		return nil
	}))
	g.Go(recovered("list users", func() error {
		users, err := s.Identity.ListUsers(gctx)
		if err != nil {
			return err
		}
		stats.TotalUsers = len(users)
		return nil
	}))
	g.Go(recovered("count bookings", func() error {
		count, err := s.Bookings.CountBookings(gctx)
		if err != nil {
			return fmt.Errorf("count bookings: %w", err)
		}
		stats.TotalBookings = count
		return nil
	}))
	g.Go(recovered("sum revenue", func() error {
		revenue, err := s.Bookings.SumRevenue(gctx)
		if err != nil {
			return fmt.Errorf("sum revenue: %w", err)
		}
		stats.TotalRevenue = revenue
		return nil
	}))
	if s.Payments != nil {
		g.Go(recovered("count payments", func() error {
			count, err := s.Payments.CountPayments(gctx)
			if err != nil {
				return fmt.Errorf("count payments: %w", err)
			}
			stats.TotalPayments = count
			return nil
		}))
	}

	// Each goroutine writes a distinct field, and Wait orders those writes
	// before the reads below.
	if err := g.Wait(); err != nil {
		s.Logger.Error("ANALYTICS", fmt.Sprintf("System stats degraded: %v", err))
		s.Metrics.AnalyticsDegraded()
		return SystemStats{Error: "Could not fetch stats: " + err.Error()}
	}

	stats.AdminCommission = stats.TotalRevenue * CommissionRate
	s.Logger.Debug("ANALYTICS", fmt.Sprintf("System stats: events=%d users=%d bookings=%d revenue=%.2f",
		stats.TotalEvents, stats.TotalUsers, stats.TotalBookings, stats.TotalRevenue))
	return stats
}

// recovered reports a panic in fn as an error naming the source.
func recovered(source string, fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s panicked: %v", source, r)
			}
		}()
		return fn()
	}
}

// GetRevenueByOrganizer groups the organizer's bookings by event title.
// Distinct events with the same title are reported as one group.
func (s *Service) GetRevenueByOrganizer(ctx context.Context, organizerID string) ([]OrganizerRevenue, error) {
	bookings, err := s.Bookings.ListBookingsByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("organizer %s bookings: %w", organizerID, err)
	}

	groups := make(map[string]*OrganizerRevenue)
	for _, b := range bookings {
		g, ok := groups[b.EventTitle]
		if !ok {
			g = &OrganizerRevenue{EventTitle: b.EventTitle}
			groups[b.EventTitle] = g
		}
		g.Revenue += b.TotalPrice
		g.TicketsSold += b.Quantity
	}

	result := make([]OrganizerRevenue, 0, len(groups))
	for _, g := range groups {
		result = append(result, *g)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EventTitle < result[j].EventTitle })
	return result, nil
}
