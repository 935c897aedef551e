package service

import "errors"

var (
	ErrInvalidUser      = errors.New("invalid user")
	ErrDuplicateUser    = errors.New("user already exists")
	ErrUnknownOwner     = errors.New("unknown reminder owner")
	ErrInvalidPayload   = errors.New("payload must be non-empty text or a stored photo")
	ErrInvalidDueAt     = errors.New("invalid due time")
	ErrReminderNotFound = errors.New("reminder not found")
	ErrDelivery         = errors.New("delivery failed")
)
