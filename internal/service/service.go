package service

import (
	"context"
	"time"

	"library-backend/internal/domain"
	"library-backend/internal/repository"
)

type LoanService interface {
	// Borrow checks membership, duplicate, availability and due date in that
	// order, then takes a copy and records the loan in one transaction.
	Borrow(ctx context.Context, userID, bookID int64, dueOn *time.Time, notes string) (*domain.Loan, error)
	// Return closes the loan and puts the copy back in one transaction.
	// actorID must own the loan or be staff.
	Return(ctx context.Context, actorID, loanID int64) (*domain.Loan, error)
	RefreshStatus(ctx context.Context, loanID int64) (*domain.Loan, error)
	MarkOverdue(ctx context.Context) (int, error)

	History(ctx context.Context, userID int64, statuses []domain.LoanStatus, ordering repository.Ordering, page repository.Page) ([]domain.Loan, int64, error)
	Active(ctx context.Context, userID int64) ([]domain.Loan, error)
	ListLoans(ctx context.Context, filter repository.LoanFilter) ([]domain.Loan, int64, error)
	GetLoan(ctx context.Context, loanID int64) (*domain.Loan, error)
	ListOverdue(ctx context.Context) ([]domain.Loan, error)
}

type MembershipService interface {
	CanBorrow(ctx context.Context, userID int64) (bool, error)
	Eligibility(ctx context.Context, userID int64) (*Eligibility, error)
}

type BookService interface {
	CreateBook(ctx context.Context, book *domain.Book) error
	GetBook(ctx context.Context, id int64) (*domain.Book, error)
	UpdateBook(ctx context.Context, id int64, patch BookPatch) (*domain.Book, error)
	DeleteBook(ctx context.Context, id int64) error
	ListBooks(ctx context.Context, filter repository.BookFilter) ([]domain.Book, int64, error)
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, *TokenPair, error)
	Login(ctx context.Context, username, password string) (*domain.User, *TokenPair, error)
	RefreshToken(ctx context.Context, refresh string) (string, error)
	Logout(ctx context.Context, refresh string) error
	CreateStaffUser(ctx context.Context, in RegisterInput) (*domain.User, error)
}

type UserService interface {
	GetProfile(ctx context.Context, userID int64) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID int64, upd ProfileUpdate) (*domain.User, error)

	ListUsers(ctx context.Context, filter repository.UserFilter) ([]domain.User, int64, error)
	GetUser(ctx context.Context, userID int64) (*domain.User, error)
	UpdateMembership(ctx context.Context, userID int64, upd MembershipUpdate) (*domain.User, error)
	DeactivateUser(ctx context.Context, userID int64) error
}

type EmailService interface {
	SendOverdueReminder(ctx context.Context, email, name, bookTitle string, dueOn time.Time) error
}

// Eligibility is the membership policy evaluated against live loan counts.
type Eligibility struct {
	CanBorrow       bool   `json:"can_borrow"`
	Reason          string `json:"reason,omitempty"`
	IsActiveMember  bool   `json:"is_active_member"`
	MaxBooksAllowed int32  `json:"max_books_allowed"`
	OpenLoans       int    `json:"open_loans"`
}

type TokenPair struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`
}

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// BookPatch carries the fields of a partial book update; nil means unchanged.
type BookPatch struct {
	Title           *string
	Author          *string
	ISBN            *string
	PageCount       *int32
	PublishedDate   *time.Time
	Genre           *domain.Genre
	Description     *string
	TotalCopies     *int32
	AvailableCopies *int32
	CoverImage      *string
}

type ProfileUpdate struct {
	Email       *string
	FirstName   *string
	LastName    *string
	PhoneNumber *string
	Address     *string
	DateOfBirth *time.Time
}

type MembershipUpdate struct {
	MaxBooksAllowed *int32
	IsActiveMember  *bool
	IsStaff         *bool
}
