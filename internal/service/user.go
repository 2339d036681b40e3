package service

import (
	"context"
	"fmt"
	"net/mail"

	"library-backend/internal/clock"
	"library-backend/internal/domain"
	"library-backend/internal/logger"
	"library-backend/internal/repository"
)

type userService struct {
	store repository.Store
	clock clock.Clock
}

func NewUserService(store repository.Store, clk clock.Clock) UserService {
	return &userService{store: store, clock: clk}
}

func (s *userService) GetProfile(ctx context.Context, userID int64) (*domain.User, error) {
	return s.store.Users().GetByID(ctx, userID)
}

// UpdateProfile changes contact details only. Membership fields are
// administrator-owned and ignored here.
func (s *userService) UpdateProfile(ctx context.Context, userID int64, upd ProfileUpdate) (*domain.User, error) {
	if upd.Email != nil {
		if _, err := mail.ParseAddress(*upd.Email); err != nil {
			return nil, fmt.Errorf("%w: invalid email address", domain.ErrValidation)
		}
	}
	return s.modify(ctx, userID, func(u *domain.User) {
		if upd.Email != nil {
			u.Email = *upd.Email
		}
		if upd.FirstName != nil {
			u.FirstName = *upd.FirstName
		}
		if upd.LastName != nil {
			u.LastName = *upd.LastName
		}
		if upd.PhoneNumber != nil {
			u.Profile.PhoneNumber = *upd.PhoneNumber
		}
		if upd.Address != nil {
			u.Profile.Address = *upd.Address
		}
		if upd.DateOfBirth != nil {
			dob := *upd.DateOfBirth
			u.Profile.DateOfBirth = &dob
		}
	})
}

func (s *userService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]domain.User, int64, error) {
	return s.store.Users().List(ctx, filter)
}

func (s *userService) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	return s.store.Users().GetByID(ctx, userID)
}

// UpdateMembership locks the user row, so it serialises with that user's
// borrows and a new cap applies to the next borrow.
func (s *userService) UpdateMembership(ctx context.Context, userID int64, upd MembershipUpdate) (*domain.User, error) {
	if upd.MaxBooksAllowed != nil && *upd.MaxBooksAllowed < 1 {
		return nil, fmt.Errorf("%w: max books allowed must be at least 1", domain.ErrValidation)
	}
	user, err := s.modify(ctx, userID, func(u *domain.User) {
		if upd.MaxBooksAllowed != nil {
			u.Profile.MaxBooksAllowed = *upd.MaxBooksAllowed
		}
		if upd.IsActiveMember != nil {
			u.Profile.IsActiveMember = *upd.IsActiveMember
		}
		if upd.IsStaff != nil {
			u.IsStaff = *upd.IsStaff
		}
	})
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "Membership updated", "userID", userID,
		"maxBooksAllowed", user.Profile.MaxBooksAllowed, "isActiveMember", user.Profile.IsActiveMember)
	return user, nil
}

func (s *userService) DeactivateUser(ctx context.Context, userID int64) error {
	_, err := s.modify(ctx, userID, func(u *domain.User) {
		u.IsActive = false
	})
	if err == nil {
		logger.InfoContext(ctx, "User deactivated", "userID", userID)
	}
	return err
}

func (s *userService) modify(ctx context.Context, userID int64, fn func(u *domain.User)) (*domain.User, error) {
	var updated *domain.User
	err := s.store.WithinTx(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		user, err := uow.Users().GetByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		fn(user)
		user.Profile.UpdatedOn = s.clock.Now()
		if err := uow.Users().Update(ctx, user); err != nil {
			return err
		}
		updated = user
		return nil
	})
	return updated, err
}
