package analytics_api

import (
	"context"
	"fmt"
	"net/http"

	"ms-booking/internal/analytics"
	"ms-booking/internal/logger"
	"ms-booking/internal/utils"

	"github.com/go-chi/chi/v5"
)

// Reporter is the analytics service as seen by the handler
type Reporter interface {
	GetSystemStats(ctx context.Context) analytics.SystemStats
	GetRevenueByOrganizer(ctx context.Context, organizerID string) ([]analytics.OrganizerRevenue, error)
}

// Handler handles analytics HTTP endpoints
type Handler struct {
	Service Reporter
	Logger  *logger.Logger
}

// NewHandler creates a new analytics handler
func NewHandler(service Reporter, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// RegisterRoutes registers the analytics routes on a chi router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/system-stats", h.GetSystemStats)
		r.Get("/organizer/{organizerId}", h.GetOrganizerRevenue)
	})
}

// GetSystemStats always answers 200. A degraded report carries its own error field.
func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	stats := h.Service.GetSystemStats(r.Context())
	if err := utils.WriteJSON(w, http.StatusOK, stats); err != nil {
		h.Logger.Error("ANALYTICS", fmt.Sprintf("Failed to write system stats: %v", err))
	}
}

func (h *Handler) GetOrganizerRevenue(w http.ResponseWriter, r *http.Request) {
	organizerID := chi.URLParam(r, "organizerId")
	h.Logger.Debug("ANALYTICS", fmt.Sprintf("Revenue requested for organizer %s", organizerID))

	groups, err := h.Service.GetRevenueByOrganizer(r.Context(), organizerID)
	if err != nil {
		h.Logger.Error("ANALYTICS", err.Error())
		http.Error(w, "Failed to compute organizer revenue", http.StatusInternalServerError)
		return
	}
	if err := utils.WriteJSON(w, http.StatusOK, groups); err != nil {
		h.Logger.Error("ANALYTICS", fmt.Sprintf("Failed to write organizer revenue: %v", err))
	}
}
