package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"library-backend/internal/clock"
	"library-backend/internal/domain"
	"library-backend/internal/repository/memory"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store *memory.Store
	clock *clock.Manual
	loans LoanService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	clk := clock.NewManual(testNow)
	return &fixture{
		store: store,
		clock: clk,
		loans: NewLoanService(store, clk, domain.DefaultLoanPeriods()),
	}
}

func (f *fixture) user(t *testing.T, username string, maxBooks int32) *domain.User {
	t.Helper()
	u := &domain.User{
		Username: username,
		Email:    username + "@example.com",
		IsActive: true,
		Profile:  domain.NewMembershipProfile(maxBooks),
	}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u
}

func (f *fixture) staff(t *testing.T, username string) *domain.User {
	t.Helper()
	u := f.user(t, username, 3)
	u.IsStaff = true
	require.NoError(t, f.store.Users().Update(context.Background(), u))
	return u
}

var isbnSeq int

func (f *fixture) book(t *testing.T, total, available int32) *domain.Book {
	t.Helper()
	isbnSeq++
	b := &domain.Book{
		Title:           fmt.Sprintf("Book %d", isbnSeq),
		Author:          "Author",
		ISBN:            fmt.Sprintf("%010d", isbnSeq),
		PageCount:       100,
		Genre:           domain.GenreOther,
		TotalCopies:     total,
		AvailableCopies: available,
	}
	require.NoError(t, f.store.Books().Create(context.Background(), b))
	return b
}

func (f *fixture) available(t *testing.T, bookID int64) int32 {
	t.Helper()
	b, err := f.store.Books().GetByID(context.Background(), bookID)
	require.NoError(t, err)
	return b.AvailableCopies
}
