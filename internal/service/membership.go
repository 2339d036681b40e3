package service

import (
	"context"
	"errors"

	"library-backend/internal/domain"
	"library-backend/internal/repository"
)

type membershipService struct {
	store repository.UnitOfWork
}

func NewMembershipService(store repository.UnitOfWork) MembershipService {
	return &membershipService{store: store}
}

func (s *membershipService) CanBorrow(ctx context.Context, userID int64) (bool, error) {
	e, err := s.Eligibility(ctx, userID)
	if err != nil {
		return false, err
	}
	return e.CanBorrow, nil
}

func (s *membershipService) Eligibility(ctx context.Context, userID int64) (*Eligibility, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	open, err := s.store.Loans().CountOpenByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	e := &Eligibility{
		CanBorrow:       true,
		IsActiveMember:  user.Profile.IsActiveMember,
		MaxBooksAllowed: user.Profile.MaxBooksAllowed,
		OpenLoans:       open,
	}
	if err := user.Profile.CheckBorrow(open); err != nil {
		e.CanBorrow = false
		e.Reason = err.Error()
	}
	return e, nil
}

// checkMembership re-evaluates the policy inside a borrow transaction, after
// the user row is locked, so concurrent borrows by one user see each other.
func checkMembership(ctx context.Context, uow repository.UnitOfWork, user *domain.User) error {
	open, err := uow.Loans().CountOpenByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	return user.Profile.CheckBorrow(open)
}

// expected reports whether err is a user-facing domain outcome rather than
// an infrastructure failure.
func expected(err error) bool {
	for _, target := range []error{
		domain.ErrPolicyViolation, domain.ErrDuplicateLoan, domain.ErrNotAvailable,
		domain.ErrInvalidDueDate, domain.ErrNotFound, domain.ErrForbidden,
		domain.ErrAlreadyReturned, domain.ErrConflict, domain.ErrBookInUse,
		domain.ErrValidation, domain.ErrUnauthorized,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
