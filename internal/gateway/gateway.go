// Package gateway holds the outbound clients for the sibling services: the
// event catalog, the identity service and the notification service.
package gateway

import (
	"context"

	"ms-booking/internal/models"
)

type CatalogClient interface {
	ListEvents(ctx context.Context) ([]map[string]any, error)
}

type IdentityClient interface {
	ListUsers(ctx context.Context) ([]map[string]any, error)
}

type NotificationClient interface {
	SendEmail(ctx context.Context, email models.EmailRequest) error
}

// TokenSource supplies the bearer token attached to outbound calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}
