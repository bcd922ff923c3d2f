package models

import (
	"time"

	"github.com/uptrace/bun"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentSuccess  PaymentStatus = "SUCCESS"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

const DefaultCurrency = "INR"

type Payment struct {
	bun.BaseModel `bun:"table:payments"`

	ID               string        `bun:"id,pk" json:"id"`
	TransactionID    string        `bun:"transaction_id,unique,notnull" json:"transactionId"`
	BookingID        string        `bun:"booking_id" json:"bookingId"`
	UserID           string        `bun:"user_id" json:"userId"`
	EventID          string        `bun:"event_id" json:"eventId"`
	Amount           float64       `bun:"amount" json:"amount"`
	Currency         string        `bun:"currency" json:"currency"`
	Method           string        `bun:"method" json:"method"` // UPI, CARD, NETBANKING, WALLET
	Status           PaymentStatus `bun:"status,notnull" json:"status"`
	GatewayReference string        `bun:"gateway_reference,nullzero" json:"gatewayReference,omitempty"`
	CreatedAt        time.Time     `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt        time.Time     `bun:"updated_at,notnull" json:"updatedAt"`
}

type PaymentEvent struct {
	Type          string        `json:"type"`
	TransactionID string        `json:"transactionId"`
	BookingID     string        `json:"bookingId"`
	Status        PaymentStatus `json:"status"`
	Amount        float64       `json:"amount"`
	Currency      string        `json:"currency"`
	Timestamp     time.Time     `json:"timestamp"`
}
