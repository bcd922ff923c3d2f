package processor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

var ErrStripeClientInitFailed = errors.New("failed to initialize Stripe client")

// StripeGateway confirms a card PaymentIntent with a fixed payment method,
// typically a Stripe test method such as pm_card_visa.
type StripeGateway struct {
	client        *client.API
	paymentMethod string
	log           *logger.Logger
}

func NewStripeGateway(secretKey, paymentMethod string, log *logger.Logger) (*StripeGateway, error) {
	return NewStripeGatewayWithBackends(secretKey, paymentMethod, nil, log)
}

// NewStripeGatewayWithBackends lets tests point the client at a local server.
func NewStripeGatewayWithBackends(secretKey, paymentMethod string, backends *stripe.Backends, log *logger.Logger) (*StripeGateway, error) {
	if secretKey == "" {
		log.Error("STRIPE", "STRIPE_SECRET_KEY is not set")
		return nil, ErrStripeClientInitFailed
	}
	if paymentMethod == "" {
		paymentMethod = "pm_card_visa"
	}

	sc := client.New(secretKey, backends)
	log.Info("STRIPE", "Stripe client initialized successfully")
	return &StripeGateway{client: sc, paymentMethod: paymentMethod, log: log}, nil
}

func (g *StripeGateway) Charge(ctx context.Context, payment *models.Payment) (Outcome, error) {
	amountInMinor := int64(math.Round(payment.Amount * 100))

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amountInMinor),
		Currency:           stripe.String(strings.ToLower(payment.Currency)),
		PaymentMethod:      stripe.String(g.paymentMethod),
		Confirm:            stripe.Bool(true),
		PaymentMethodTypes: []*string{stripe.String("card")},
		Description:        stripe.String("Booking " + payment.BookingID),
	}
	params.Context = ctx
	params.AddMetadata("transaction_id", payment.TransactionID)
	params.AddMetadata("booking_id", payment.BookingID)

	pi, err := g.client.PaymentIntents.New(params)
	if err != nil {
		g.log.Error("STRIPE", fmt.Sprintf("Failed to confirm payment intent for %s: %v", payment.TransactionID, err))
		return Outcome{}, fmt.Errorf("stripe payment intent: %w", err)
	}

	success := pi.Status == stripe.PaymentIntentStatusSucceeded
	g.log.Info("STRIPE", fmt.Sprintf("Payment intent %s for %s finished with status %s", pi.ID, payment.TransactionID, pi.Status))
	return Outcome{Success: success, Reference: pi.ID}, nil
}
