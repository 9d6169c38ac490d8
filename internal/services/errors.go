package services

import "errors"

// Error kinds surfaced by the notification core. Handlers map these onto HTTP
// statuses; everything unexpected from storage is folded into ErrUnavailable.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrUnavailable    = errors.New("storage unavailable")
)
