package game

import (
	"errors"
)

// Error taxonomy. Callers wrap these with fmt.Errorf("%w: ...") and match
// them with errors.Is.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not found")
	ErrInvalidState   = errors.New("invalid state")
	ErrFull           = errors.New("game is full")
	ErrInternal       = errors.New("internal error")
)

// Code returns the taxonomy name for err, "InternalError" when it matches none.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "InvalidRequest"
	case errors.Is(err, ErrUnauthorized):
		return "Unauthorized"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrInvalidState):
		return "InvalidState"
	case errors.Is(err, ErrFull):
		return "Full"
	default:
		return "InternalError"
	}
}

// IsInternal reports whether err falls outside the client-facing taxonomy.
func IsInternal(err error) bool {
	return Code(err) == "InternalError"
}
