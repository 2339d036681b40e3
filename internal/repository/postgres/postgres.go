package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"library-backend/internal/config"
	"library-backend/internal/logger"
	"library-backend/internal/repository"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// dialect builds prepared ($n) postgres statements for the dynamic list
// queries. Fixed statements are written by hand.
var dialect = goqu.Dialect("postgres")

// Open connects to PostgreSQL with the configured driver ("postgres" for
// lib/pq, "pgx" for the pgx stdlib adapter) and verifies the connection.
func Open(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	driver := cfg.Database.Driver
	if driver != "postgres" && driver != "pgx" {
		return nil, fmt.Errorf("unsupported sql driver: %s", driver)
	}

	db, err := sqlx.Open(driver, cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// unit groups repositories bound to one executor: the pool or a transaction.
type unit struct {
	users *userRepository
	books *bookRepository
	loans *loanRepository
}

func newUnit(q sqlx.ExtContext) *unit {
	return &unit{
		users: &userRepository{q: q},
		books: &bookRepository{q: q},
		loans: &loanRepository{q: q},
	}
}

func (u *unit) Users() repository.UserRepository { return u.users }
func (u *unit) Books() repository.BookRepository { return u.books }
func (u *unit) Loans() repository.LoanRepository { return u.loans }

type Store struct {
	db *sqlx.DB
	*unit
	tokens *tokenRepository
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{
		db:     db,
		unit:   newUnit(db),
		tokens: &tokenRepository{q: db},
	}
}

func (s *Store) Tokens() repository.TokenRepository { return s.tokens }

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// WithinTx runs fn in a READ COMMITTED transaction. Invariants that depend
// on concurrent writers are enforced with row locks (FOR UPDATE) and guarded
// updates inside fn, so serialization failures are rare and surface as
// domain.ErrTransient.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, uow repository.UnitOfWork) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return translateError(fmt.Errorf("failed to begin transaction: %w", err))
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, newUnit(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.ErrorContext(ctx, "Failed to rollback transaction", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return translateError(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

var _ repository.Store = (*Store)(nil)
