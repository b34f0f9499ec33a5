package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown        = errors.New("unknown error occurred")
	ErrInvalidRequest = errors.New("invalid request parameters or format")
	ErrNotFound       = errors.New("resource not found")

	// Journal Specific Errors
	ErrAccountNotFound  = errors.New("account not found")
	ErrTradeNotFound    = errors.New("trade not found")
	ErrTradeClosed      = errors.New("trade already closed; planning fields cannot be edited")
	ErrUnknownDirection = errors.New("trade direction must be long or short")

	// Database Specific Errors
	ErrDuplicateEntry = errors.New("database record already exists")
	ErrDBConnection   = errors.New("database connection error")
	ErrQueryFailed    = errors.New("database query failed")
	ErrUpdateFailed   = errors.New("database update failed")
	ErrDeleteFailed   = errors.New("database delete failed")
)
