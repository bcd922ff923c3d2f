package payment_api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/payment"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) payment(args mock.Arguments) (*models.Payment, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentService) InitiatePayment(ctx context.Context, req payment.InitiateRequest) (*models.Payment, error) {
	return m.payment(m.Called(ctx, req))
}

func (m *MockPaymentService) ProcessPayment(ctx context.Context, transactionID string) (*models.Payment, error) {
	return m.payment(m.Called(ctx, transactionID))
}

func (m *MockPaymentService) RefundPayment(ctx context.Context, transactionID string) (*models.Payment, error) {
	return m.payment(m.Called(ctx, transactionID))
}

func (m *MockPaymentService) GetPaymentByTransaction(ctx context.Context, transactionID string) (*models.Payment, error) {
	return m.payment(m.Called(ctx, transactionID))
}

func (m *MockPaymentService) GetPaymentsByUser(ctx context.Context, userID string) ([]models.Payment, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Payment), args.Error(1)
}

func (m *MockPaymentService) GetPaymentsByBooking(ctx context.Context, bookingID string) ([]models.Payment, error) {
	args := m.Called(ctx, bookingID)
	return args.Get(0).([]models.Payment), args.Error(1)
}

func newTestRouter(svc PaymentService) http.Handler {
	r := chi.NewRouter()
	NewHandler(svc, logger.NewNop()).RegisterRoutes(r)
	return r
}

func TestInitiate(t *testing.T) {
	svc := new(MockPaymentService)
	svc.On("InitiatePayment", mock.Anything, mock.MatchedBy(func(req payment.InitiateRequest) bool {
		return req.BookingID == "b1" && req.UserID == "u1" && req.AmountValue() == 500
	})).Return(&models.Payment{TransactionID: "TXN-1", Amount: 500, Currency: "INR", Status: models.PaymentPending}, nil)

	body := bytes.NewBufferString(`{"bookingId":"b1","userId":"u1","amount":500}`)
	req := httptest.NewRequest(http.MethodPost, "/payments/initiate", body)
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Payment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "TXN-1", got.TransactionID)
	assert.Equal(t, models.PaymentPending, got.Status)
	svc.AssertExpectations(t)
}

func TestInitiateRejectsMalformedBody(t *testing.T) {
	svc := new(MockPaymentService)
	req := httptest.NewRequest(http.MethodPost, "/payments/initiate", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "InitiatePayment", mock.Anything, mock.Anything)
}

func TestProcessAndRefund(t *testing.T) {
	svc := new(MockPaymentService)
	svc.On("ProcessPayment", mock.Anything, "TXN-1").Return(&models.Payment{TransactionID: "TXN-1", Status: models.PaymentSuccess}, nil)
	svc.On("RefundPayment", mock.Anything, "TXN-1").Return(&models.Payment{TransactionID: "TXN-1", Status: models.PaymentRefunded}, nil)
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payments/process/TXN-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"SUCCESS"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payments/refund/TXN-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"REFUNDED"`)
}

func TestServiceErrorsAreInternal(t *testing.T) {
	svc := new(MockPaymentService)
	svc.On("ProcessPayment", mock.Anything, "TXN-X").Return(nil, fmt.Errorf("payment TXN-X: %w", models.ErrNotFound))
	svc.On("RefundPayment", mock.Anything, "TXN-P").Return(nil, fmt.Errorf("refund: %w", models.ErrInvalidState))
	svc.On("GetPaymentByTransaction", mock.Anything, "TXN-X").Return(nil, fmt.Errorf("payment TXN-X: %w", models.ErrNotFound))
	router := newTestRouter(svc)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/payments/process/TXN-X"},
		{http.MethodPost, "/payments/refund/TXN-P"},
		{http.MethodGet, "/payments/TXN-X"},
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code, tc.path)
	}
}

func TestListRoutes(t *testing.T) {
	svc := new(MockPaymentService)
	svc.On("GetPaymentsByUser", mock.Anything, "u1").Return([]models.Payment{{TransactionID: "TXN-1"}, {TransactionID: "TXN-2"}}, nil)
	svc.On("GetPaymentsByBooking", mock.Anything, "b9").Return([]models.Payment{}, nil)
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payments/user/u1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var byUser []models.Payment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &byUser))
	assert.Len(t, byUser, 2)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payments/booking/b9", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}
