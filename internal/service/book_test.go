package service

import (
	"context"
	"testing"
	"time"

	"library-backend/internal/domain"
	"library-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBook() *domain.Book {
	return &domain.Book{
		Title:           "The Left Hand of Darkness",
		Author:          "Ursula K. Le Guin",
		ISBN:            "9780441478125",
		PageCount:       304,
		PublishedDate:   time.Date(1969, 3, 1, 0, 0, 0, 0, time.UTC),
		TotalCopies:     2,
		AvailableCopies: 2,
	}
}

func TestBookService_CreateBook(t *testing.T) {
	ctx := context.Background()

	t.Run("Defaults", func(t *testing.T) {
		f := newFixture(t)
		svc := NewBookService(f.store, f.clock)

		b := newBook()
		require.NoError(t, svc.CreateBook(ctx, b))
		assert.NotZero(t, b.ID)
		assert.Equal(t, domain.GenreOther, b.Genre)
		assert.Equal(t, testNow, b.CreatedOn)
	})

	t.Run("Available copies clamped", func(t *testing.T) {
		f := newFixture(t)
		svc := NewBookService(f.store, f.clock)

		b := newBook()
		b.AvailableCopies = 10
		require.NoError(t, svc.CreateBook(ctx, b))
		assert.Equal(t, int32(2), f.available(t, b.ID))
	})

	t.Run("Validation", func(t *testing.T) {
		f := newFixture(t)
		svc := NewBookService(f.store, f.clock)

		cases := map[string]func(b *domain.Book){
			"isbn":   func(b *domain.Book) { b.ISBN = "12345" },
			"title":  func(b *domain.Book) { b.Title = "  " },
			"pages":  func(b *domain.Book) { b.PageCount = 0 },
			"copies": func(b *domain.Book) { b.TotalCopies = 0 },
			"genre":  func(b *domain.Book) { b.Genre = "poetry" },
		}
		for name, mutate := range cases {
			t.Run(name, func(t *testing.T) {
				b := newBook()
				mutate(b)
				assert.ErrorIs(t, svc.CreateBook(ctx, b), domain.ErrValidation)
			})
		}
	})

	t.Run("Duplicate isbn", func(t *testing.T) {
		f := newFixture(t)
		svc := NewBookService(f.store, f.clock)

		require.NoError(t, svc.CreateBook(ctx, newBook()))
		assert.ErrorIs(t, svc.CreateBook(ctx, newBook()), domain.ErrConflict)
	})
}

func TestBookService_UpdateBook(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewBookService(f.store, f.clock)

	b := newBook()
	require.NoError(t, svc.CreateBook(ctx, b))

	t.Run("Shrinking total clamps available", func(t *testing.T) {
		total := int32(1)
		updated, err := svc.UpdateBook(ctx, b.ID, BookPatch{TotalCopies: &total})
		require.NoError(t, err)
		assert.Equal(t, int32(1), updated.TotalCopies)
		assert.Equal(t, int32(1), updated.AvailableCopies)
	})

	t.Run("Negative available clamps to zero", func(t *testing.T) {
		available := int32(-4)
		updated, err := svc.UpdateBook(ctx, b.ID, BookPatch{AvailableCopies: &available})
		require.NoError(t, err)
		assert.Equal(t, int32(0), updated.AvailableCopies)
	})

	t.Run("Partial update keeps other fields", func(t *testing.T) {
		title := "The Dispossessed"
		updated, err := svc.UpdateBook(ctx, b.ID, BookPatch{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "The Dispossessed", updated.Title)
		assert.Equal(t, "Ursula K. Le Guin", updated.Author)
	})

	t.Run("Invalid patch is rejected", func(t *testing.T) {
		isbn := "abc"
		_, err := svc.UpdateBook(ctx, b.ID, BookPatch{ISBN: &isbn})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("Unknown book", func(t *testing.T) {
		_, err := svc.UpdateBook(ctx, 999, BookPatch{})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestBookService_DeleteBook(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewBookService(f.store, f.clock)
	u := f.user(t, "alice", 3)

	b := newBook()
	require.NoError(t, svc.CreateBook(ctx, b))
	loan, err := f.loans.Borrow(ctx, u.ID, b.ID, nil, "")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteBook(ctx, b.ID), domain.ErrBookInUse)

	_, err = f.loans.Return(ctx, u.ID, loan.ID)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteBook(ctx, b.ID))

	_, err = svc.GetBook(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	history, _, err := f.loans.History(ctx, u.ID, nil, repository.DefaultLoanSort, repository.Page{})
	require.NoError(t, err)
	require.Len(t, history, 1, "loan history survives deletion")
}

func TestBookService_ListBooks(t *testing.T) {
	f := newFixture(t)
	svc := NewBookService(f.store, f.clock)

	_, _, err := svc.ListBooks(context.Background(), repository.BookFilter{Genre: "poetry"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
