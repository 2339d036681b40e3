// Package memory is an in-process Store for local development and tests.
// Transactions are serialised by one mutex, so it only upholds the
// concurrency contract within a single process.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"library-backend/internal/domain"
	"library-backend/internal/repository"
)

type state struct {
	users   map[int64]domain.User
	books   map[int64]domain.Book
	loans   map[int64]domain.Loan
	revoked map[string]time.Time

	nextUserID int64
	nextBookID int64
	nextLoanID int64
}

func newState() *state {
	return &state{
		users:   map[int64]domain.User{},
		books:   map[int64]domain.Book{},
		loans:   map[int64]domain.Loan{},
		revoked: map[string]time.Time{},
	}
}

// clone copies the maps. Values hold pointers only to immutable data
// (timestamps, cover strings), so a shallow value copy is enough.
func (s *state) clone() *state {
	c := *s
	c.users = maps.Clone(s.users)
	c.books = maps.Clone(s.books)
	c.loans = maps.Clone(s.loans)
	c.revoked = maps.Clone(s.revoked)
	return &c
}

type Store struct {
	mu sync.Mutex
	st *state
}

func NewStore() *Store {
	return &Store{st: newState()}
}

// access runs fn against the current state, taking the store lock unless
// the caller already holds it inside WithinTx.
type access struct {
	s      *Store
	locked bool
}

func (a access) do(fn func(st *state) error) error {
	if !a.locked {
		a.s.mu.Lock()
		defer a.s.mu.Unlock()
	}
	return fn(a.s.st)
}

type unit struct {
	users *userRepository
	books *bookRepository
	loans *loanRepository
}

func (u *unit) Users() repository.UserRepository { return u.users }
func (u *unit) Books() repository.BookRepository { return u.books }
func (u *unit) Loans() repository.LoanRepository { return u.loans }

func (s *Store) unit(locked bool) *unit {
	a := access{s: s, locked: locked}
	return &unit{
		users: &userRepository{a},
		books: &bookRepository{a},
		loans: &loanRepository{a},
	}
}

func (s *Store) Users() repository.UserRepository { return s.unit(false).users }
func (s *Store) Books() repository.BookRepository { return s.unit(false).books }
func (s *Store) Loans() repository.LoanRepository { return s.unit(false).loans }

func (s *Store) Tokens() repository.TokenRepository {
	return &tokenRepository{access{s: s}}
}

// WithinTx holds the store lock for the whole of fn and restores the
// previous state when fn fails or panics.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, uow repository.UnitOfWork) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	defer func() {
		if p := recover(); p != nil {
			s.st = snapshot
			panic(p)
		}
	}()

	if err := fn(ctx, s.unit(true)); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}

var _ repository.Store = (*Store)(nil)
