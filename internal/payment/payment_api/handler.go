package payment_api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/payment"
	"ms-booking/internal/utils"

	"github.com/go-chi/chi/v5"
)

type PaymentService interface {
	InitiatePayment(ctx context.Context, req payment.InitiateRequest) (*models.Payment, error)
	ProcessPayment(ctx context.Context, transactionID string) (*models.Payment, error)
	RefundPayment(ctx context.Context, transactionID string) (*models.Payment, error)
	GetPaymentByTransaction(ctx context.Context, transactionID string) (*models.Payment, error)
	GetPaymentsByUser(ctx context.Context, userID string) ([]models.Payment, error)
	GetPaymentsByBooking(ctx context.Context, bookingID string) ([]models.Payment, error)
}

type Handler struct {
	Service PaymentService
	Logger  *logger.Logger
}

func NewHandler(service PaymentService, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payments", func(r chi.Router) {
		r.Post("/initiate", h.Initiate)
		r.Post("/process/{transactionId}", h.Process)
		r.Post("/refund/{transactionId}", h.Refund)
		r.Get("/user/{userId}", h.ListByUser)
		r.Get("/booking/{bookingId}", h.ListByBooking)
		r.Get("/{transactionId}", h.Get)
	})
}

// respond writes the result, or a 500 for any service error including
// unknown transactions and refunds of non-successful payments.
func (h *Handler) respond(w http.ResponseWriter, data interface{}, err error) {
	if err != nil {
		h.Logger.Error("API", err.Error())
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := utils.WriteJSON(w, http.StatusOK, data); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Failed to write response: %v", err))
	}
}

func (h *Handler) Initiate(w http.ResponseWriter, r *http.Request) {
	var req payment.InitiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	p, err := h.Service.InitiatePayment(r.Context(), req)
	h.respond(w, p, err)
}

func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.ProcessPayment(r.Context(), chi.URLParam(r, "transactionId"))
	h.respond(w, p, err)
}

func (h *Handler) Refund(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.RefundPayment(r.Context(), chi.URLParam(r, "transactionId"))
	h.respond(w, p, err)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.GetPaymentByTransaction(r.Context(), chi.URLParam(r, "transactionId"))
	h.respond(w, p, err)
}

func (h *Handler) ListByUser(w http.ResponseWriter, r *http.Request) {
	payments, err := h.Service.GetPaymentsByUser(r.Context(), chi.URLParam(r, "userId"))
	h.respond(w, payments, err)
}

func (h *Handler) ListByBooking(w http.ResponseWriter, r *http.Request) {
	payments, err := h.Service.GetPaymentsByBooking(r.Context(), chi.URLParam(r, "bookingId"))
	h.respond(w, payments, err)
}
