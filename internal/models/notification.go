package models

import (
	"time"

	"github.com/uptrace/bun"
)

const NotificationSent = "SENT"

// NotificationRecord is an append-only audit entry; it records that a delivery
// was attempted, not that it arrived.
type NotificationRecord struct {
	bun.BaseModel `bun:"table:notification_logs"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Recipient string    `bun:"recipient" json:"recipient"`
	Subject   string    `bun:"subject" json:"subject"`
	Body      string    `bun:"body" json:"body"`
	Status    string    `bun:"status,notnull" json:"status"`
	SentAt    time.Time `bun:"sent_at,notnull" json:"sentAt"`
}

// EmailRequest is the wire shape of POST /notifications/send-email.
type EmailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
