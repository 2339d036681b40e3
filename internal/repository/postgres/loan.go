package postgres

import (
	"context"
	"time"

	"library-backend/internal/domain"
	"library-backend/internal/logger"
	"library-backend/internal/repository"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
)

const loanColumns = `id, user_id, book_id, borrowed_on, due_on, returned_on, status, notes`

// loanRow is a loan joined with its borrower and book summary.
type loanRow struct {
	domain.Loan
	Borrower   string  `db:"username"`
	BookTitle  string  `db:"book_title"`
	BookAuthor string  `db:"book_author"`
	BookISBN   string  `db:"book_isbn"`
	BookCover  *string `db:"book_cover_image"`
}

func (r *loanRow) toDomain() domain.Loan {
	l := r.Loan
	l.Username = r.Borrower
	l.Book = &domain.Book{
		ID:         r.BookID,
		Title:      r.BookTitle,
		Author:     r.BookAuthor,
		ISBN:       r.BookISBN,
		CoverImage: r.BookCover,
	}
	return l
}

type loanRepository struct {
	q sqlx.ExtContext
}

func NewLoanRepository(db *sqlx.DB) repository.LoanRepository {
	return &loanRepository{q: db}
}

func (r *loanRepository) Create(ctx context.Context, l *domain.Loan) error {
	query := `INSERT INTO loans (user_id, book_id, borrowed_on, due_on, status, notes)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := r.q.QueryRowxContext(ctx, query, l.UserID, l.BookID, l.BorrowedOn, l.DueOn, l.Status, l.Notes).Scan(&l.ID)
	return translateError(err)
}

// detailed selects loans with the borrower's username and a book summary.
func detailed() *goqu.SelectDataset {
	return dialect.From(goqu.T("loans").As("l")).Prepared(true).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("l.book_id")))).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("l.user_id"))))
}

var detailedColumns = []any{
	goqu.I("l.id"), goqu.I("l.user_id"), goqu.I("l.book_id"), goqu.I("l.borrowed_on"),
	goqu.I("l.due_on"), goqu.I("l.returned_on"), goqu.I("l.status"), goqu.I("l.notes"),
	goqu.I("u.username"),
	goqu.I("b.title").As("book_title"),
	goqu.I("b.author").As("book_author"),
	goqu.I("b.isbn").As("book_isbn"),
	goqu.I("b.cover_image").As("book_cover_image"),
}

func (r *loanRepository) GetByID(ctx context.Context, id int64) (*domain.Loan, error) {
	query, args, err := detailed().Select(detailedColumns...).Where(goqu.I("l.id").Eq(id)).ToSQL()
	if err != nil {
		return nil, err
	}
	var row loanRow
	if err := sqlx.GetContext(ctx, r.q, &row, query, args...); err != nil {
		return nil, translateError(err)
	}
	l := row.toDomain()
	return &l, nil
}

// GetByIDForUpdate locks only the loan row; the book row is locked later by
// the guarded copy update.
func (r *loanRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Loan, error) {
	var l domain.Loan
	if err := sqlx.GetContext(ctx, r.q, &l, `SELECT `+loanColumns+` FROM loans WHERE id = $1 FOR UPDATE`, id); err != nil {
		return nil, translateError(err)
	}
	return &l, nil
}

func (r *loanRepository) Update(ctx context.Context, l *domain.Loan) error {
	query := `UPDATE loans SET due_on=$1, returned_on=$2, status=$3, notes=$4 WHERE id=$5`
	res, err := r.q.ExecContext(ctx, query, l.DueOn, l.ReturnedOn, l.Status, l.Notes, l.ID)
	if err != nil {
		return translateError(err)
	}
	return requireRow(res)
}

var loanSortColumns = map[string]string{
	"borrowed_on": "l.borrowed_on",
	"due_on":      "l.due_on",
	"returned_on": "l.returned_on",
}

func (r *loanRepository) List(ctx context.Context, filter repository.LoanFilter) ([]domain.Loan, int64, error) {
	logger.EnterMethod(ctx, "loanRepository.List", "userID", filter.UserID, "statuses", filter.Statuses)

	ds := detailed()
	if filter.UserID != nil {
		ds = ds.Where(goqu.I("l.user_id").Eq(*filter.UserID))
	}
	if filter.BookID != nil {
		ds = ds.Where(goqu.I("l.book_id").Eq(*filter.BookID))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		ds = ds.Where(goqu.I("l.status").In(statuses))
	}
	if filter.Search != "" {
		p := contains(filter.Search)
		ds = ds.Where(goqu.Or(
			goqu.I("u.username").ILike(p),
			goqu.I("b.title").ILike(p),
			goqu.I("b.isbn").ILike(p),
		))
	}

	total, err := count(ctx, r.q, ds)
	if err != nil {
		logger.ExitMethodWithError(ctx, "loanRepository.List", err, false)
		return nil, 0, err
	}

	ordering := filter.Ordering
	col, ok := loanSortColumns[ordering.Field]
	if !ok {
		ordering = repository.DefaultLoanSort
		col = loanSortColumns[ordering.Field]
	}
	order := goqu.I(col).Asc().NullsLast()
	if ordering.Desc {
		order = goqu.I(col).Desc().NullsLast()
	}

	query, args, err := ds.Select(detailedColumns...).
		Order(order, goqu.I("l.id").Desc()).
		Limit(uint(filter.Page.Limit())).
		Offset(uint(filter.Page.Offset())).
		ToSQL()
	if err != nil {
		return nil, 0, err
	}

	var rows []loanRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, query, args...); err != nil {
		logger.ExitMethodWithError(ctx, "loanRepository.List", err, false)
		return nil, 0, translateError(err)
	}
	loans := make([]domain.Loan, 0, len(rows))
	for i := range rows {
		loans = append(loans, rows[i].toDomain())
	}

	logger.ExitMethod(ctx, "loanRepository.List", "count", len(loans), "total", total)
	return loans, total, nil
}

func (r *loanRepository) CountOpenByUser(ctx context.Context, userID int64) (int, error) {
	return r.countOpen(ctx, `SELECT COUNT(*) FROM loans WHERE user_id = $1 AND status IN ('active', 'overdue')`, userID)
}

func (r *loanRepository) CountOpenByBook(ctx context.Context, bookID int64) (int, error) {
	return r.countOpen(ctx, `SELECT COUNT(*) FROM loans WHERE book_id = $1 AND status IN ('active', 'overdue')`, bookID)
}

func (r *loanRepository) countOpen(ctx context.Context, query string, id int64) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, r.q, &n, query, id); err != nil {
		return 0, translateError(err)
	}
	return n, nil
}

func (r *loanRepository) HasOpenLoan(ctx context.Context, userID, bookID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM loans WHERE user_id = $1 AND book_id = $2 AND status IN ('active', 'overdue'))`
	var exists bool
	if err := sqlx.GetContext(ctx, r.q, &exists, query, userID, bookID); err != nil {
		return false, translateError(err)
	}
	return exists, nil
}

func (r *loanRepository) MarkOverdue(ctx context.Context, now time.Time, userID *int64) ([]int64, error) {
	ds := dialect.Update("loans").Prepared(true).
		Set(goqu.Record{"status": string(domain.LoanStatusOverdue)}).
		Where(
			goqu.C("status").Eq(string(domain.LoanStatusActive)),
			goqu.C("due_on").Lt(now),
		).
		Returning("id")
	if userID != nil {
		ds = ds.Where(goqu.C("user_id").Eq(*userID))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, err
	}

	logger.DatabaseCall(ctx, "loanRepository.MarkOverdue", query, "userID", userID)
	var ids []int64
	err = sqlx.SelectContext(ctx, r.q, &ids, query, args...)
	logger.DatabaseResult(ctx, "loanRepository.MarkOverdue", int64(len(ids)), err)
	if err != nil {
		return nil, translateError(err)
	}
	return ids, nil
}
