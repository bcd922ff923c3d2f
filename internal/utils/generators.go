package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns an opaque record identifier.
func NewID() string {
	return uuid.NewString()
}

// NewQRToken returns the token embedded in a booking's QR code.
func NewQRToken() string {
	return uuid.NewString()
}

// NewBookingTransactionID returns a correlation handle like TXN-1a2b3c4d.
func NewBookingTransactionID() string {
	return "TXN-" + uuid.NewString()[:8]
}

// NewPaymentTransactionID returns a short caller-facing token like TXN-1A2B3C4D-E.
func NewPaymentTransactionID() string {
	return "TXN-" + strings.ToUpper(uuid.NewString()[:10])
}

func NewGatewayReference() string {
	return "GW-" + strings.ToUpper(uuid.NewString()[:8])
}
