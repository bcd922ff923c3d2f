package analytics_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"ms-booking/internal/analytics"
	"ms-booking/internal/logger"
	"ms-booking/internal/metrics"
	"ms-booking/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) ListEvents(ctx context.Context) ([]map[string]any, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]map[string]any), args.Error(1)
}

type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) ListUsers(ctx context.Context) ([]map[string]any, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]map[string]any), args.Error(1)
}

type stubBookings struct {
	count    int
	revenue  float64
	bookings []models.Booking
	err      error
}

func (s stubBookings) CountBookings(ctx context.Context) (int, error) { return s.count, s.err }

func (s stubBookings) SumRevenue(ctx context.Context) (float64, error) { return s.revenue, s.err }

func (s stubBookings) ListBookingsByOrganizer(ctx context.Context, organizerID string) ([]models.Booking, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Booking
	for _, b := range s.bookings {
		if b.OrganizerID == organizerID {
			out = append(out, b)
		}
	}
	return out, nil
}

type stubPayments struct {
	count int
	err   error
}

func (s stubPayments) CountPayments(ctx context.Context) (int, error) { return s.count, s.err }

func records(n int) []map[string]any {
	out := make([]map[string]any, n)
	for i := range out {
		out[i] = map[string]any{"id": fmt.Sprint(i)}
	}
	return out
}

func degradedCount(t *testing.T, m *metrics.Metrics) float64 {
	t.Helper()
	families, err := m.Registry.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "analytics_degraded_total" {
			return f.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}

func TestGetSystemStats(t *testing.T) {
	catalog := new(MockCatalog)
	catalog.On("ListEvents", mock.Anything).Return(records(4), nil)
	identity := new(MockIdentity)
	identity.On("ListUsers", mock.Anything).Return(records(7), nil)

	svc := analytics.NewService(catalog, identity, stubBookings{count: 3, revenue: 1200}, stubPayments{count: 5}, nil, logger.NewNop())
	stats := svc.GetSystemStats(context.Background())

	assert.Equal(t, analytics.SystemStats{
		TotalEvents:     4,
		TotalUsers:      7,
		TotalBookings:   3,
		TotalRevenue:    1200,
		AdminCommission: 120,
		TotalPayments:   5,
	}, stats)
	catalog.AssertExpectations(t)
	identity.AssertExpectations(t)
}

func TestGetSystemStatsWithoutPaymentStore(t *testing.T) {
	catalog := new(MockCatalog)
	catalog.On("ListEvents", mock.Anything).Return(records(1), nil)
	identity := new(MockIdentity)
	identity.On("ListUsers", mock.Anything).Return(records(0), nil)

	svc := analytics.NewService(catalog, identity, stubBookings{count: 1, revenue: 50}, nil, nil, logger.NewNop())
	stats := svc.GetSystemStats(context.Background())

	assert.Empty(t, stats.Error)
	assert.Equal(t, 0, stats.TotalPayments)
	assert.InDelta(t, 5.0, stats.AdminCommission, 1e-9)
}

func TestGetSystemStatsDegradesOnAnyFailure(t *testing.T) {
	remote := fmt.Errorf("%w: catalog returned 503", models.ErrRemoteUnavailable)

	cases := map[string]struct {
		catalogErr  error
		identityErr error
		bookings    stubBookings
		payments    stubPayments
	}{
		"catalog":  {catalogErr: remote, bookings: stubBookings{count: 3, revenue: 900}},
		"identity": {identityErr: remote, bookings: stubBookings{count: 3, revenue: 900}},
		"bookings": {bookings: stubBookings{err: errors.New("db closed")}},
		"payments": {bookings: stubBookings{count: 3, revenue: 900}, payments: stubPayments{err: errors.New("db closed")}},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			catalog := new(MockCatalog)
			if tc.catalogErr != nil {
				catalog.On("ListEvents", mock.Anything).Return(nil, tc.catalogErr).Maybe()
			} else {
				catalog.On("ListEvents", mock.Anything).Return(records(2), nil).Maybe()
			}
			identity := new(MockIdentity)
			if tc.identityErr != nil {
				identity.On("ListUsers", mock.Anything).Return(nil, tc.identityErr).Maybe()
			} else {
				identity.On("ListUsers", mock.Anything).Return(records(2), nil).Maybe()
			}

			m := metrics.New()
			svc := analytics.NewService(catalog, identity, tc.bookings, tc.payments, m, logger.NewNop())
			stats := svc.GetSystemStats(context.Background())

			assert.Zero(t, stats.TotalEvents)
			assert.Zero(t, stats.TotalUsers)
			assert.Zero(t, stats.TotalBookings)
			assert.Zero(t, stats.TotalRevenue)
			assert.Zero(t, stats.AdminCommission)
			assert.Zero(t, stats.TotalPayments)
			assert.True(t, strings.HasPrefix(stats.Error, "Could not fetch stats: "), stats.Error)
			assert.Equal(t, 1.0, degradedCount(t, m))
		})
	}
}

func TestGetSystemStatsDegradesOnPanickingSource(t *testing.T) {
	catalog := new(MockCatalog)
	catalog.On("ListEvents", mock.Anything).Panic("nil event payload")
	identity := new(MockIdentity)
	identity.On("ListUsers", mock.Anything).Return(records(2), nil).Maybe()

	m := metrics.New()
	svc := analytics.NewService(catalog, identity, stubBookings{count: 3, revenue: 900}, stubPayments{count: 1}, m, logger.NewNop())

	var stats analytics.SystemStats
	require.NotPanics(t, func() { stats = svc.GetSystemStats(context.Background()) })

	assert.Equal(t, analytics.SystemStats{Error: stats.Error}, stats)
	assert.Contains(t, stats.Error, "Could not fetch stats: list events panicked: nil event payload")
	assert.Equal(t, 1.0, degradedCount(t, m))
}

func TestGetRevenueByOrganizer(t *testing.T) {
	bookings := stubBookings{bookings: []models.Booking{
		{ID: "b1", OrganizerID: "org1", EventID: "e1", EventTitle: "Concert", Quantity: 2, TotalPrice: 100},
		{ID: "b2", OrganizerID: "org1", EventID: "e1", EventTitle: "Concert", Quantity: 3, TotalPrice: 150},
		{ID: "b3", OrganizerID: "org1", EventID: "e2", EventTitle: "Art Fair", Quantity: 1, TotalPrice: 40},
		{ID: "b4", OrganizerID: "org2", EventID: "e3", EventTitle: "Concert", Quantity: 9, TotalPrice: 999},
	}}
	svc := analytics.NewService(nil, nil, bookings, nil, nil, logger.NewNop())

	groups, err := svc.GetRevenueByOrganizer(context.Background(), "org1")
	require.NoError(t, err)
	assert.Equal(t, []analytics.OrganizerRevenue{
		{EventTitle: "Art Fair", Revenue: 40, TicketsSold: 1},
		{EventTitle: "Concert", Revenue: 250, TicketsSold: 5},
	}, groups)
}

func TestGetRevenueByOrganizerMergesSameTitle(t *testing.T) {
	bookings := stubBookings{bookings: []models.Booking{
		{ID: "b1", OrganizerID: "org1", EventID: "e1", EventTitle: "Gala", Quantity: 1, TotalPrice: 10},
		{ID: "b2", OrganizerID: "org1", EventID: "e2", EventTitle: "Gala", Quantity: 2, TotalPrice: 20},
	}}
	svc := analytics.NewService(nil, nil, bookings, nil, nil, logger.NewNop())

	groups, err := svc.GetRevenueByOrganizer(context.Background(), "org1")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 3, groups[0].TicketsSold)
	assert.InDelta(t, 30.0, groups[0].Revenue, 1e-9)
}

func TestGetRevenueByOrganizerEmpty(t *testing.T) {
	svc := analytics.NewService(nil, nil, stubBookings{}, nil, nil, logger.NewNop())
	groups, err := svc.GetRevenueByOrganizer(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestGetRevenueByOrganizerStoreError(t *testing.T) {
	svc := analytics.NewService(nil, nil, stubBookings{err: errors.New("db closed")}, nil, nil, logger.NewNop())
	_, err := svc.GetRevenueByOrganizer(context.Background(), "org1")
	assert.Error(t, err)
}
