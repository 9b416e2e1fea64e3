package model

import "errors"

// Validation failures returned by request Validate methods.
var (
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrNegativeAmount      = errors.New("amount must not be negative")
	ErrMissingTitle        = errors.New("title is required")
	ErrMissingName         = errors.New("name is required")
	ErrMissingGroup        = errors.New("group_id is required")
	ErrMissingCounterparty = errors.New("counterparty is required")
	ErrMissingEmail        = errors.New("email is required")
	ErrInvalidShares       = errors.New("split shares must be positive and name a participant")
	ErrUnknownTrigger      = errors.New("unknown trigger event")
)

var validationErrors = []error{
	ErrInvalidAmount,
	ErrNegativeAmount,
	ErrMissingTitle,
	ErrMissingName,
	ErrMissingGroup,
	ErrMissingCounterparty,
	ErrMissingEmail,
	ErrInvalidShares,
	ErrUnknownTrigger,
}

// IsValidation reports whether err is one of the request validation errors.
func IsValidation(err error) bool {
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}
