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

const userColumns = `id, username, email, password_hash, first_name, last_name, is_staff, is_active, date_joined,
	phone_number, address, date_of_birth, max_books_allowed, is_active_member, profile_updated_on`

// userRow flattens the user and its membership profile, which share a row.
type userRow struct {
	domain.User
	PhoneNumber      string     `db:"phone_number"`
	Address          string     `db:"address"`
	DateOfBirth      *time.Time `db:"date_of_birth"`
	MaxBooksAllowed  int32      `db:"max_books_allowed"`
	IsActiveMember   bool       `db:"is_active_member"`
	ProfileUpdatedOn time.Time  `db:"profile_updated_on"`
}

func (r *userRow) toDomain() *domain.User {
	u := r.User
	u.Profile = domain.MembershipProfile{
		PhoneNumber:     r.PhoneNumber,
		Address:         r.Address,
		DateOfBirth:     r.DateOfBirth,
		MaxBooksAllowed: r.MaxBooksAllowed,
		IsActiveMember:  r.IsActiveMember,
		UpdatedOn:       r.ProfileUpdatedOn,
	}
	return &u
}

type userRepository struct {
	q sqlx.ExtContext
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{q: db}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (username, email, password_hash, first_name, last_name, is_staff, is_active, date_joined,
	          phone_number, address, date_of_birth, max_books_allowed, is_active_member, profile_updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14) RETURNING id`
	if u.DateJoined.IsZero() {
		u.DateJoined = time.Now().UTC()
	}
	if u.Profile.UpdatedOn.IsZero() {
		u.Profile.UpdatedOn = u.DateJoined
	}
	p := u.Profile
	err := r.q.QueryRowxContext(ctx, query,
		u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.IsStaff, u.IsActive, u.DateJoined,
		p.PhoneNumber, p.Address, p.DateOfBirth, p.MaxBooksAllowed, p.IsActiveMember, p.UpdatedOn,
	).Scan(&u.ID)
	return translateError(err)
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *userRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
}

func (r *userRepository) get(ctx context.Context, query string, arg any) (*domain.User, error) {
	var row userRow
	if err := sqlx.GetContext(ctx, r.q, &row, query, arg); err != nil {
		return nil, translateError(err)
	}
	return row.toDomain(), nil
}

func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	query := `UPDATE users SET email=$1, first_name=$2, last_name=$3, is_staff=$4, is_active=$5,
	          phone_number=$6, address=$7, date_of_birth=$8, max_books_allowed=$9, is_active_member=$10, profile_updated_on=$11
	          WHERE id=$12`
	p := u.Profile
	res, err := r.q.ExecContext(ctx, query,
		u.Email, u.FirstName, u.LastName, u.IsStaff, u.IsActive,
		p.PhoneNumber, p.Address, p.DateOfBirth, p.MaxBooksAllowed, p.IsActiveMember, p.UpdatedOn,
		u.ID,
	)
	if err != nil {
		return translateError(err)
	}
	return requireRow(res)
}

func (r *userRepository) List(ctx context.Context, filter repository.UserFilter) ([]domain.User, int64, error) {
	logger.EnterMethod(ctx, "userRepository.List")

	ds := dialect.From("users").Prepared(true)
	if filter.IsActive != nil {
		ds = ds.Where(goqu.C("is_active").Eq(*filter.IsActive))
	}

	total, err := count(ctx, r.q, ds)
	if err != nil {
		logger.ExitMethodWithError(ctx, "userRepository.List", err, false)
		return nil, 0, err
	}

	query, args, err := ds.Select(goqu.L(userColumns)).
		Order(goqu.C("id").Asc()).
		Limit(uint(filter.Page.Limit())).
		Offset(uint(filter.Page.Offset())).
		ToSQL()
	if err != nil {
		return nil, 0, err
	}

	var rows []userRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, query, args...); err != nil {
		logger.ExitMethodWithError(ctx, "userRepository.List", err, false)
		return nil, 0, translateError(err)
	}
	users := make([]domain.User, 0, len(rows))
	for i := range rows {
		users = append(users, *rows[i].toDomain())
	}

	logger.ExitMethod(ctx, "userRepository.List", "count", len(users), "total", total)
	return users, total, nil
}

// count runs SELECT COUNT(*) over the filtered dataset.
func count(ctx context.Context, q sqlx.QueryerContext, ds *goqu.SelectDataset) (int64, error) {
	query, args, err := ds.Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return 0, err
	}
	var n int64
	if err := sqlx.GetContext(ctx, q, &n, query, args...); err != nil {
		return 0, translateError(err)
	}
	return n, nil
}
