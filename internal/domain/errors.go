package domain

import "errors"

// Error kinds the handler boundary switches on. Handlers wrap these with
// fmt.Errorf("%w: ...") so errors.Is keeps working through the chain.
var (
	// ErrAuthentication means the handshake credential was rejected.
	// It terminates the connection attempt; nothing is registered.
	ErrAuthentication = errors.New("authentication failed")

	// ErrValidation means the intent was malformed (missing or empty fields).
	// Raised before any persistence attempt.
	ErrValidation = errors.New("invalid request")

	// ErrAuthorization means the acting identity lacks the required
	// group relationship. Raised before any persistence attempt.
	ErrAuthorization = errors.New("not authorized")

	// ErrPersistence means a durable write or read failed. The operation
	// is aborted with no fan-out.
	ErrPersistence = errors.New("storage failure")
)
