package domain

import "errors"

// Loan flow outcomes. All of them are expected, user-facing conditions.
var (
	ErrPolicyViolation = errors.New("borrowing policy violation")
	ErrDuplicateLoan   = errors.New("you already have an active loan for this book")
	ErrNotAvailable    = errors.New("book is not available for borrowing")
	ErrInvalidDueDate  = errors.New("invalid due date")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrAlreadyReturned = errors.New("this book has already been returned")
)

var (
	// ErrTransient marks a storage conflict (serialization failure, deadlock)
	// that the caller may retry. It is never retried internally.
	ErrTransient = errors.New("transient storage conflict, retry the request")

	ErrConflict     = errors.New("conflict")
	ErrBookInUse    = errors.New("book has active loans")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
)
