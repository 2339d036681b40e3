package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"library-backend/internal/domain"
	"library-backend/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookRepository_GetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "title", "author", "isbn", "genre", "total_copies", "available_copies"}).
			AddRow(1, "Dune", "Frank Herbert", "9780441013593", "science-fiction", 3, 2)

		mock.ExpectQuery("SELECT (.+) FROM books WHERE id = \\$1 AND deleted_on IS NULL").
			WithArgs(int64(1)).
			WillReturnRows(rows)

		book, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), book.ID)
		assert.Equal(t, domain.GenreScienceFiction, book.Genre)
		assert.Equal(t, int32(2), book.AvailableCopies)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM books WHERE id = \\$1").
			WithArgs(int64(2)).
			WillReturnError(sql.ErrNoRows)

		book, err := repo.GetByID(ctx, 2)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Nil(t, book)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_GetByIDForUpdate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM books WHERE id = \\$1 AND deleted_on IS NULL FOR UPDATE").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "total_copies", "available_copies"}).AddRow(5, 1, 1))

	book, err := repo.GetByIDForUpdate(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, book.IsAvailable())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookRepository(db)

	b := &domain.Book{
		Title:           "Dune",
		Author:          "Frank Herbert",
		ISBN:            "9780441013593",
		PageCount:       412,
		PublishedDate:   time.Date(1965, 8, 1, 0, 0, 0, 0, time.UTC),
		Genre:           domain.GenreScienceFiction,
		TotalCopies:     2,
		AvailableCopies: 5,
	}

	mock.ExpectQuery("INSERT INTO books").
		WithArgs(b.Title, b.Author, b.ISBN, b.PageCount, b.PublishedDate, b.Genre, b.Description,
			int32(2), int32(2), nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))

	err := repo.Create(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, int64(10), b.ID)
	assert.Equal(t, int32(2), b.AvailableCopies, "available copies are clamped to total before insert")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_CopyAdjustments(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookRepository(db)
	ctx := context.Background()

	t.Run("Decrement takes a copy", func(t *testing.T) {
		mock.ExpectExec("UPDATE books SET available_copies = available_copies - 1(.+)available_copies > 0").
			WithArgs(int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.DecrementAvailable(ctx, 1)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Decrement on empty shelf", func(t *testing.T) {
		mock.ExpectExec("UPDATE books SET available_copies = available_copies - 1").
			WithArgs(int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.DecrementAvailable(ctx, 1)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Increment is capped at total", func(t *testing.T) {
		mock.ExpectExec("UPDATE books SET available_copies = available_copies \\+ 1(.+)available_copies < total_copies").
			WithArgs(int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.IncrementAvailable(ctx, 1)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_SoftDelete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookRepository(db)
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE books SET deleted_on=\\$1").
		WithArgs(at, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SoftDelete(context.Background(), 3, at)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_List(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookRepository(db)
	available := true

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "books" WHERE (.+)"deleted_on" IS NULL`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT id, title(.+)FROM "books"(.+)ORDER BY "author" DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "author", "available_copies"}).
			AddRow(1, "Dune", "Frank Herbert", 2))

	books, total, err := repo.List(context.Background(), repository.BookFilter{
		Search:      "dune",
		IsAvailable: &available,
		Ordering:    repository.Ordering{Field: "author", Desc: true},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}
