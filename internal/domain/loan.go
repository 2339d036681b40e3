package domain

import (
	"fmt"
	"time"
)

type LoanStatus string

const (
	LoanStatusActive   LoanStatus = "active"
	LoanStatusOverdue  LoanStatus = "overdue"
	LoanStatusReturned LoanStatus = "returned"
)

func (s LoanStatus) Valid() bool {
	switch s {
	case LoanStatusActive, LoanStatusOverdue, LoanStatusReturned:
		return true
	}
	return false
}

// OpenLoanStatuses are the statuses that hold a copy and count against the
// borrower's limit.
var OpenLoanStatuses = []LoanStatus{LoanStatusActive, LoanStatusOverdue}

const (
	DefaultLoanPeriod = 14 * 24 * time.Hour
	MaxLoanPeriod     = 30 * 24 * time.Hour
)

// LoanPeriods bounds the due date of a new loan.
type LoanPeriods struct {
	Default time.Duration
	Max     time.Duration
}

func DefaultLoanPeriods() LoanPeriods {
	return LoanPeriods{Default: DefaultLoanPeriod, Max: MaxLoanPeriod}
}

// DueDate resolves the due date for a loan created at now. A caller supplied
// date must be in the future and no further out than p.Max.
func (p LoanPeriods) DueDate(requested *time.Time, now time.Time) (time.Time, error) {
	if requested == nil {
		return now.Add(p.Default), nil
	}
	due := *requested
	if !due.After(now) {
		return time.Time{}, fmt.Errorf("%w: due date must be in the future", ErrInvalidDueDate)
	}
	if due.After(now.Add(p.Max)) {
		return time.Time{}, fmt.Errorf("%w: due date cannot be more than %d days from now", ErrInvalidDueDate, int(p.Max.Hours()/24))
	}
	return due, nil
}

type Loan struct {
	ID         int64      `json:"id" db:"id"`
	UserID     int64      `json:"user_id" db:"user_id"`
	BookID     int64      `json:"book_id" db:"book_id"`
	BorrowedOn time.Time  `json:"borrowed_on" db:"borrowed_on"`
	DueOn      time.Time  `json:"due_on" db:"due_on"`
	ReturnedOn *time.Time `json:"returned_on,omitempty" db:"returned_on"`
	Status     LoanStatus `json:"status" db:"status"`
	Notes      string     `json:"notes" db:"notes"`

	// Populated when fetching loan details.
	Username string `json:"username,omitempty" db:"-"`
	Book     *Book  `json:"book,omitempty" db:"-"`
}

func NewLoan(userID, bookID int64, borrowedOn, dueOn time.Time, notes string) *Loan {
	return &Loan{
		UserID:     userID,
		BookID:     bookID,
		BorrowedOn: borrowedOn,
		DueOn:      dueOn,
		Status:     LoanStatusActive,
		Notes:      notes,
	}
}

// IsOpen reports whether the loan still holds a copy.
func (l *Loan) IsOpen() bool {
	return l.Status == LoanStatusActive || l.Status == LoanStatusOverdue
}

// IsOverdue is a read-time derivation; it never changes the stored status.
func (l *Loan) IsOverdue(now time.Time) bool {
	if l.Status == LoanStatusReturned {
		return false
	}
	return now.After(l.DueOn)
}

// RefreshStatus moves an active loan past its due date to overdue and
// reports whether it changed anything.
func (l *Loan) RefreshStatus(now time.Time) bool {
	if l.Status == LoanStatusActive && l.IsOverdue(now) {
		l.Status = LoanStatusOverdue
		return true
	}
	return false
}

// Close ends the loan. Returned is terminal: closing a returned loan
// reports false and changes nothing. The caller owns putting the copy back
// in the same transaction.
func (l *Loan) Close(now time.Time) bool {
	if !l.IsOpen() {
		return false
	}
	returned := now
	l.ReturnedOn = &returned
	l.Status = LoanStatusReturned
	return true
}
