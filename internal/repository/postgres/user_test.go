package postgres

import (
	"context"
	"database/sql"
	"testing"

	"library-backend/internal/domain"
	"library-backend/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "username", "email", "is_staff", "max_books_allowed", "is_active_member"}).
			AddRow(1, "alice", "alice@example.com", false, 3, true)

		mock.ExpectQuery("SELECT (.+) FROM users WHERE id = \\$1").
			WithArgs(int64(1)).
			WillReturnRows(rows)

		user, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, int32(3), user.Profile.MaxBooksAllowed)
		assert.True(t, user.Profile.IsActiveMember)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM users WHERE id = \\$1").
			WithArgs(int64(2)).
			WillReturnError(sql.ErrNoRows)

		user, err := repo.GetByID(ctx, 2)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Nil(t, user)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		u := &domain.User{
			Username:     "bob",
			Email:        "bob@example.com",
			PasswordHash: "hash",
			IsActive:     true,
			Profile:      domain.NewMembershipProfile(0),
		}

		mock.ExpectQuery("INSERT INTO users").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

		require.NoError(t, repo.Create(ctx, u))
		assert.Equal(t, int64(1), u.ID)
		assert.False(t, u.DateJoined.IsZero())
	})

	t.Run("Username taken", func(t *testing.T) {
		u := &domain.User{Username: "bob", Email: "other@example.com"}
		mock.ExpectQuery("INSERT INTO users").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_username_key"})

		err := repo.Create(ctx, u)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_List(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	active := false

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "users" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT id, username(.+)FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "is_active"}).AddRow(4, "carol", false))

	users, total, err := repo.List(context.Background(), repository.UserFilter{IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, "carol", users[0].Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepository(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTokenRepository(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT EXISTS \\(SELECT 1 FROM revoked_tokens").
		WithArgs("jti-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	revoked, err := repo.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.NoError(t, mock.ExpectationsWereMet())
}
