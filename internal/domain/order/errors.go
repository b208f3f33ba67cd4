package order

import "errors"

// Transition failures. All of them are terminal for the triggering call.
var (
	ErrNotFound           = errors.New("order not found")
	ErrUnauthorized       = errors.New("caller is not allowed to perform this transition")
	ErrPreconditionFailed = errors.New("order precondition failed")
	ErrConflict           = errors.New("order changed concurrently")
	ErrTransferFailed     = errors.New("value transfer failed")
	ErrInvalidInput       = errors.New("invalid input")
)

// Code classifies err into a stable label for metrics and API payloads.
func Code(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrPreconditionFailed):
		return "precondition_failed"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrTransferFailed):
		return "transfer_failed"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "internal"
	}
}
