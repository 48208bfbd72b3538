package service

import "errors"

// Errors returned by the service layer. Handlers map them to HTTP statuses.
var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvoiceNotFound   = errors.New("invoice not found")
	ErrPODNotFound       = errors.New("pod not found")
	ErrPlanogramNotFound = errors.New("planogram not found")
	ErrVersionConflict   = errors.New("order was modified by someone else, reload and retry")
	ErrInvalidPOD        = errors.New("invalid proof of delivery")
	ErrValidation        = errors.New("validation failed")
)
