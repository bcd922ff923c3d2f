package booking_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ms-booking/internal/booking/qr_generator"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/utils"

	"github.com/go-chi/chi/v5"
)

type BookingService interface {
	CreateBooking(ctx context.Context, b models.Booking) (*models.Booking, error)
	GetAllBookings(ctx context.Context) ([]models.Booking, error)
	GetBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error)
	GetBookingsByEvent(ctx context.Context, eventID string) ([]models.Booking, error)
	GetBookingByID(ctx context.Context, id string) (*models.Booking, error)
	CancelBooking(ctx context.Context, id string) error
}

// StockAdmin seeds and reads tier counters. It is nil when inventory is off.
type StockAdmin interface {
	SetStock(ctx context.Context, eventID, tierID string, stock int) error
	Available(ctx context.Context, eventID, tierID string) (int, bool, error)
}

type Handler struct {
	Service     BookingService
	Stock       StockAdmin
	QRGenerator *qr_generator.QRGenerator
	Logger      *logger.Logger
}

func NewHandler(service BookingService, stock StockAdmin, qr *qr_generator.QRGenerator, log *logger.Logger) *Handler {
	return &Handler{Service: service, Stock: stock, QRGenerator: qr, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/bookings", func(r chi.Router) {
		r.Post("/", h.CreateBooking)
		r.Get("/", h.ListBookings)
		r.Get("/user/{userId}", h.ListByUser)
		r.Get("/event/{eventId}", h.ListByEvent)
		r.Get("/{id}", h.GetBooking)
		r.Post("/{id}/cancel", h.CancelBooking)
		r.Get("/{id}/qr", h.GetQRCode)
		r.Put("/inventory/{eventId}/{tierId}", h.SetStock)
		r.Get("/inventory/{eventId}/{tierId}", h.GetStock)
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	if err := utils.WriteJSON(w, status, data); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Failed to write response: %v", err))
	}
}

// serviceError maps domain errors to statuses. Lookup misses are reported as
// 500 like every other failed booking operation. A sold-out tier is 409 and a
// non-positive quantity against a tracked tier is 400.
func (h *Handler) serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrSoldOut):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, models.ErrInvalidQuantity):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.Logger.Error("API", err.Error())
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req models.Booking
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.Service.CreateBooking(r.Context(), req)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, created)
}

func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.Service.GetAllBookings(r.Context())
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, bookings)
}

func (h *Handler) ListByUser(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.Service.GetBookingsByUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, bookings)
}

func (h *Handler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.Service.GetBookingsByEvent(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, bookings)
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.Service.GetBookingByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, b)
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.CancelBooking(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) GetQRCode(w http.ResponseWriter, r *http.Request) {
	b, err := h.Service.GetBookingByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.serviceError(w, err)
		return
	}

	img, err := h.QRGenerator.GeneratePNG(qr_generator.PayloadFor(*b))
	if err != nil {
		h.Logger.Error("BOOKING", fmt.Sprintf("Failed to render QR for booking %s: %v", b.ID, err))
		http.Error(w, "failed to generate QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(img)
}

type stockRequest struct {
	Stock *int `json:"stock"`
}

type stockResponse struct {
	EventID   string `json:"eventId"`
	TierID    string `json:"tierId"`
	Available int    `json:"available"`
	Tracked   bool   `json:"tracked"`
}

func (h *Handler) SetStock(w http.ResponseWriter, r *http.Request) {
	if h.Stock == nil {
		http.Error(w, "tier inventory is disabled", http.StatusNotFound)
		return
	}

	var req stockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Stock == nil || *req.Stock < 0 {
		http.Error(w, "stock must be a non-negative integer", http.StatusBadRequest)
		return
	}

	eventID, tierID := chi.URLParam(r, "eventId"), chi.URLParam(r, "tierId")
	if err := h.Stock.SetStock(r.Context(), eventID, tierID, *req.Stock); err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stockResponse{EventID: eventID, TierID: tierID, Available: *req.Stock, Tracked: true})
}

func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	if h.Stock == nil {
		http.Error(w, "tier inventory is disabled", http.StatusNotFound)
		return
	}

	eventID, tierID := chi.URLParam(r, "eventId"), chi.URLParam(r, "tierId")
	available, tracked, err := h.Stock.Available(r.Context(), eventID, tierID)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stockResponse{EventID: eventID, TierID: tierID, Available: available, Tracked: tracked})
}
