package service

import "errors"

// Expected domain failures. Callers branch with errors.Is; anything else is an
// infrastructure error and gets logged with context.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidState    = errors.New("invalid order state")
	ErrUnavailable     = errors.New("product unavailable")
	ErrGatewayDisabled = errors.New("payment gateway disabled")
	ErrDisabled        = errors.New("feature disabled")
)
