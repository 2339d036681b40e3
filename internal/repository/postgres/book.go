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

const bookColumns = `id, title, author, isbn, page_count, published_date, genre, description,
	total_copies, available_copies, cover_image, created_on, updated_on, deleted_on`

type bookRepository struct {
	q sqlx.ExtContext
}

func NewBookRepository(db *sqlx.DB) repository.BookRepository {
	return &bookRepository{q: db}
}

func (r *bookRepository) Create(ctx context.Context, b *domain.Book) error {
	query := `INSERT INTO books (title, author, isbn, page_count, published_date, genre, description,
	          total_copies, available_copies, cover_image, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`
	b.Normalize()
	if b.CreatedOn.IsZero() {
		b.CreatedOn = time.Now().UTC()
	}
	b.UpdatedOn = b.CreatedOn
	err := r.q.QueryRowxContext(ctx, query,
		b.Title, b.Author, b.ISBN, b.PageCount, b.PublishedDate, b.Genre, b.Description,
		b.TotalCopies, b.AvailableCopies, b.CoverImage, b.CreatedOn, b.UpdatedOn,
	).Scan(&b.ID)
	return translateError(err)
}

func (r *bookRepository) GetByID(ctx context.Context, id int64) (*domain.Book, error) {
	return r.get(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1 AND deleted_on IS NULL`, id)
}

func (r *bookRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Book, error) {
	return r.get(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1 AND deleted_on IS NULL FOR UPDATE`, id)
}

func (r *bookRepository) get(ctx context.Context, query string, id int64) (*domain.Book, error) {
	var b domain.Book
	if err := sqlx.GetContext(ctx, r.q, &b, query, id); err != nil {
		return nil, translateError(err)
	}
	return &b, nil
}

func (r *bookRepository) Update(ctx context.Context, b *domain.Book) error {
	query := `UPDATE books SET title=$1, author=$2, isbn=$3, page_count=$4, published_date=$5, genre=$6, description=$7,
	          total_copies=$8, available_copies=$9, cover_image=$10, updated_on=$11
	          WHERE id=$12 AND deleted_on IS NULL`
	b.Normalize()
	if b.UpdatedOn.IsZero() {
		b.UpdatedOn = time.Now().UTC()
	}
	res, err := r.q.ExecContext(ctx, query,
		b.Title, b.Author, b.ISBN, b.PageCount, b.PublishedDate, b.Genre, b.Description,
		b.TotalCopies, b.AvailableCopies, b.CoverImage, b.UpdatedOn,
		b.ID,
	)
	if err != nil {
		return translateError(err)
	}
	return requireRow(res)
}

func (r *bookRepository) SoftDelete(ctx context.Context, id int64, at time.Time) error {
	res, err := r.q.ExecContext(ctx, `UPDATE books SET deleted_on=$1, updated_on=$1 WHERE id=$2 AND deleted_on IS NULL`, at, id)
	if err != nil {
		return translateError(err)
	}
	return requireRow(res)
}

func (r *bookRepository) DecrementAvailable(ctx context.Context, id int64) (bool, error) {
	query := `UPDATE books SET available_copies = available_copies - 1, updated_on = NOW()
	          WHERE id = $1 AND available_copies > 0`
	return r.adjust(ctx, "DecrementAvailable", query, id)
}

func (r *bookRepository) IncrementAvailable(ctx context.Context, id int64) (bool, error) {
	query := `UPDATE books SET available_copies = available_copies + 1, updated_on = NOW()
	          WHERE id = $1 AND available_copies < total_copies`
	return r.adjust(ctx, "IncrementAvailable", query, id)
}

// adjust runs a guarded copy update and reports whether a row changed.
func (r *bookRepository) adjust(ctx context.Context, op, query string, id int64) (bool, error) {
	logger.DatabaseCall(ctx, "bookRepository."+op, query, "bookID", id)
	res, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		logger.DatabaseResult(ctx, "bookRepository."+op, 0, err)
		return false, translateError(err)
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult(ctx, "bookRepository."+op, n, err)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

var bookSortColumns = map[string]string{
	"title":            "title",
	"author":           "author",
	"published_date":   "published_date",
	"page_count":       "page_count",
	"available_copies": "available_copies",
}

func (r *bookRepository) List(ctx context.Context, filter repository.BookFilter) ([]domain.Book, int64, error) {
	logger.EnterMethod(ctx, "bookRepository.List", "search", filter.Search)

	ds := dialect.From("books").Prepared(true).Where(goqu.C("deleted_on").IsNull())
	for _, e := range bookConditions(filter) {
		ds = ds.Where(e)
	}

	total, err := count(ctx, r.q, ds)
	if err != nil {
		logger.ExitMethodWithError(ctx, "bookRepository.List", err, false)
		return nil, 0, err
	}

	ordering := filter.Ordering
	col, ok := bookSortColumns[ordering.Field]
	if !ok {
		ordering = repository.DefaultBookSort
		col = bookSortColumns[ordering.Field]
	}
	order := goqu.C(col).Asc()
	if ordering.Desc {
		order = goqu.C(col).Desc()
	}

	query, args, err := ds.Select(goqu.L(bookColumns)).
		Order(order, goqu.C("id").Asc()).
		Limit(uint(filter.Page.Limit())).
		Offset(uint(filter.Page.Offset())).
		ToSQL()
	if err != nil {
		return nil, 0, err
	}

	books := []domain.Book{}
	if err := sqlx.SelectContext(ctx, r.q, &books, query, args...); err != nil {
		logger.ExitMethodWithError(ctx, "bookRepository.List", err, false)
		return nil, 0, translateError(err)
	}

	logger.ExitMethod(ctx, "bookRepository.List", "count", len(books), "total", total)
	return books, total, nil
}

func bookConditions(f repository.BookFilter) []goqu.Expression {
	var exps []goqu.Expression
	if f.Title != "" {
		exps = append(exps, goqu.C("title").ILike(contains(f.Title)))
	}
	if f.Author != "" {
		exps = append(exps, goqu.C("author").ILike(contains(f.Author)))
	}
	if f.ISBN != "" {
		exps = append(exps, goqu.C("isbn").Eq(f.ISBN))
	}
	if f.Genre != "" {
		exps = append(exps, goqu.C("genre").Eq(string(f.Genre)))
	}
	if f.IsAvailable != nil {
		if *f.IsAvailable {
			exps = append(exps, goqu.C("available_copies").Gt(0))
		} else {
			exps = append(exps, goqu.C("available_copies").Eq(0))
		}
	}
	if f.PublishedAfter != nil {
		exps = append(exps, goqu.C("published_date").Gte(*f.PublishedAfter))
	}
	if f.PublishedBefore != nil {
		exps = append(exps, goqu.C("published_date").Lte(*f.PublishedBefore))
	}
	if f.MinPages != nil {
		exps = append(exps, goqu.C("page_count").Gte(*f.MinPages))
	}
	if f.MaxPages != nil {
		exps = append(exps, goqu.C("page_count").Lte(*f.MaxPages))
	}
	if f.Search != "" {
		p := contains(f.Search)
		exps = append(exps, goqu.Or(
			goqu.C("title").ILike(p),
			goqu.C("author").ILike(p),
			goqu.C("isbn").ILike(p),
			goqu.C("description").ILike(p),
		))
	}
	return exps
}

func contains(s string) string {
	return "%" + s + "%"
}
