package models

import (
	"time"

	"github.com/uptrace/bun"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
)

type Attendee struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	ID            string `bun:"id,pk" json:"id"`
	UserID        string `bun:"user_id" json:"userId"`
	UserName      string `bun:"user_name" json:"userName"`
	UserEmail     string `bun:"user_email" json:"userEmail"`
	EventID       string `bun:"event_id" json:"eventId"`
	EventTitle    string `bun:"event_title" json:"eventTitle"`
	OrganizerID   string `bun:"organizer_id" json:"organizerId"`
	OrganizerName string `bun:"organizer_name" json:"organizerName"`
	EventDate     string `bun:"event_date" json:"eventDate"`
	EventTime     string `bun:"event_time" json:"eventTime"`
	Venue         string `bun:"venue" json:"venue"`
	Location      string `bun:"location" json:"location"`

	BookingDate time.Time     `bun:"booking_date,notnull" json:"bookingDate"`
	Status      BookingStatus `bun:"status,notnull" json:"status"`
	TotalPrice  float64       `bun:"total_price" json:"totalPrice"`

	TicketTierID   string `bun:"ticket_tier_id" json:"ticketTierId"`
	TicketTierName string `bun:"ticket_tier_name" json:"ticketTierName"`
	Quantity       int    `bun:"quantity" json:"quantity"`

	// StockReserved is set when Quantity was taken from a tracked tier
	// counter, and only such bookings give stock back on cancellation.
	StockReserved bool `bun:"stock_reserved,notnull,default:false" json:"-"`

	AttendeeDetails []Attendee `bun:"attendee_details,type:jsonb" json:"attendeeDetails"`

	TransactionID string `bun:"transaction_id" json:"transactionId"`
	QRCode        string `bun:"qr_code" json:"qrCode"`
}

// BookingEvent is the payload published for booking lifecycle changes.
type BookingEvent struct {
	Type       string        `json:"type"`
	BookingID  string        `json:"bookingId"`
	UserID     string        `json:"userId"`
	EventID    string        `json:"eventId"`
	Status     BookingStatus `json:"status"`
	TotalPrice float64       `json:"totalPrice"`
	Quantity   int           `json:"quantity"`
	Timestamp  time.Time     `json:"timestamp"`
}
