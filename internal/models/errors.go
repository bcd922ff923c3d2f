package models

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("invalid state")
	ErrRemoteUnavailable = errors.New("remote service unavailable")
	ErrSoldOut           = errors.New("ticket tier sold out")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
)
