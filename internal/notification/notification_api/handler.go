package notification_api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/utils"

	"github.com/go-chi/chi/v5"
)

const ackMessage = "Email notification processed successfully"

type Sender interface {
	Send(recipient, subject, body string)
}

type RecordLister interface {
	List(ctx context.Context) ([]models.NotificationRecord, error)
}

type Handler struct {
	Sender  Sender
	Records RecordLister
	Logger  *logger.Logger
}

func NewHandler(sender Sender, records RecordLister, log *logger.Logger) *Handler {
	return &Handler{Sender: sender, Records: records, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Post("/send-email", h.SendEmail)
		r.Get("/", h.ListNotifications)
	})
}

// SendEmail queues the e-mail and acknowledges before delivery happens.
// Missing fields are sent as empty strings.
func (h *Handler) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req models.EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	h.Sender.Send(req.To, req.Subject, req.Body)

	if err := utils.WriteText(w, http.StatusOK, ackMessage); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Failed to write response: %v", err))
	}
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	records, err := h.Records.List(r.Context())
	if err != nil {
		h.Logger.Error("NOTIFICATION", fmt.Sprintf("Failed to list notifications: %v", err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := utils.WriteJSON(w, http.StatusOK, records); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Failed to write response: %v", err))
	}
}
