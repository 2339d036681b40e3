package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"library-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeForeignKeyViolation  = "23503"

	openLoanIndex = "loans_one_open_per_book"
)

// translateError maps driver errors from either lib/pq or pgx onto domain
// errors. Unknown errors pass through unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return classify(string(pqErr.Code), pqErr.Constraint, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classify(pgErr.Code, pgErr.ConstraintName, err)
	}
	return err
}

func classify(code, constraint string, err error) error {
	switch code {
	case codeSerializationFailure, codeDeadlockDetected:
		return fmt.Errorf("%w: %v", domain.ErrTransient, err)
	case codeUniqueViolation:
		if constraint == openLoanIndex {
			return domain.ErrDuplicateLoan
		}
		return fmt.Errorf("%w: %s", domain.ErrConflict, constraint)
	case codeCheckViolation:
		return fmt.Errorf("%w: %s", domain.ErrValidation, constraint)
	case codeForeignKeyViolation:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, constraint)
	}
	return err
}

// requireRow turns a zero-row write into domain.ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
