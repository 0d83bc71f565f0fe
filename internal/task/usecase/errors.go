package usecase

import "errors"

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidRecurrence = errors.New("invalid recurrence")
	ErrInvalidTask       = errors.New("invalid task")
)
