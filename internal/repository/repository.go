package repository

import (
	"context"
	"time"

	"library-backend/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	// GetByIDForUpdate locks the user row for the rest of the transaction.
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	List(ctx context.Context, filter UserFilter) ([]domain.User, int64, error)
}

type BookRepository interface {
	Create(ctx context.Context, book *domain.Book) error
	GetByID(ctx context.Context, id int64) (*domain.Book, error)
	// GetByIDForUpdate locks the book row for the rest of the transaction.
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Book, error)
	Update(ctx context.Context, book *domain.Book) error
	SoftDelete(ctx context.Context, id int64, at time.Time) error
	List(ctx context.Context, filter BookFilter) ([]domain.Book, int64, error)

	// DecrementAvailable takes one copy iff available_copies > 0.
	DecrementAvailable(ctx context.Context, id int64) (bool, error)
	// IncrementAvailable returns one copy iff available_copies < total_copies.
	IncrementAvailable(ctx context.Context, id int64) (bool, error)
}

type LoanRepository interface {
	Create(ctx context.Context, loan *domain.Loan) error
	GetByID(ctx context.Context, id int64) (*domain.Loan, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Loan, error)
	Update(ctx context.Context, loan *domain.Loan) error
	List(ctx context.Context, filter LoanFilter) ([]domain.Loan, int64, error)

	CountOpenByUser(ctx context.Context, userID int64) (int, error)
	CountOpenByBook(ctx context.Context, bookID int64) (int, error)
	HasOpenLoan(ctx context.Context, userID, bookID int64) (bool, error)

	// MarkOverdue persists active -> overdue for every active loan due before
	// now, optionally restricted to one user, and returns the loan ids moved.
	MarkOverdue(ctx context.Context, now time.Time, userID *int64) ([]int64, error)
}

type TokenRepository interface {
	Revoke(ctx context.Context, jti string, expiresOn time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// UnitOfWork exposes repositories bound to one transaction (or to the pool
// when used outside WithinTx).
type UnitOfWork interface {
	Users() UserRepository
	Books() BookRepository
	Loans() LoanRepository
}

// Transactor runs fn inside one isolated storage transaction. fn's error
// rolls everything back; storage conflicts surface as domain.ErrTransient.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
}

type Store interface {
	UnitOfWork
	Transactor
	Tokens() TokenRepository
	Ping(ctx context.Context) error
	Close() error
}
