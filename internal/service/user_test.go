package service

import (
	"context"
	"testing"

	"library-backend/internal/domain"
	"library-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewUserService(f.store, f.clock)
	u := f.user(t, "alice", 3)

	phone := "555-0100"
	updated, err := svc.UpdateProfile(ctx, u.ID, ProfileUpdate{PhoneNumber: &phone})
	require.NoError(t, err)
	assert.Equal(t, "555-0100", updated.Profile.PhoneNumber)
	assert.Equal(t, int32(3), updated.Profile.MaxBooksAllowed)
	assert.Equal(t, testNow, updated.Profile.UpdatedOn)

	bad := "not-an-email"
	_, err = svc.UpdateProfile(ctx, u.ID, ProfileUpdate{Email: &bad})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUserService_UpdateMembership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewUserService(f.store, f.clock)
	u := f.user(t, "alice", 1)

	_, err := f.loans.Borrow(ctx, u.ID, f.book(t, 1, 1).ID, nil, "")
	require.NoError(t, err)
	_, err = f.loans.Borrow(ctx, u.ID, f.book(t, 1, 1).ID, nil, "")
	require.ErrorIs(t, err, domain.ErrPolicyViolation)

	limit := int32(2)
	updated, err := svc.UpdateMembership(ctx, u.ID, MembershipUpdate{MaxBooksAllowed: &limit})
	require.NoError(t, err)
	assert.Equal(t, int32(2), updated.Profile.MaxBooksAllowed)

	_, err = f.loans.Borrow(ctx, u.ID, f.book(t, 1, 1).ID, nil, "")
	assert.NoError(t, err)

	zero := int32(0)
	_, err = svc.UpdateMembership(ctx, u.ID, MembershipUpdate{MaxBooksAllowed: &zero})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.UpdateMembership(ctx, 999, MembershipUpdate{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserService_ListUsers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewUserService(f.store, f.clock)
	f.user(t, "alice", 3)
	bob := f.user(t, "bob", 3)
	require.NoError(t, svc.DeactivateUser(ctx, bob.ID))

	active := true
	users, total, err := svc.ListUsers(ctx, repository.UserFilter{IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "alice", users[0].Username)
}
