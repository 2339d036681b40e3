package http

import (
	"time"

	"library-backend/internal/domain"
	"library-backend/internal/service"
)

type registerRequest struct {
	Username        string `json:"username" validate:"required,max=150"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	FirstName       string `json:"first_name" validate:"max=150"`
	LastName        string `json:"last_name" validate:"max=150"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	User   *domain.User       `json:"user"`
	Tokens *service.TokenPair `json:"tokens"`
}

type profileResponse struct {
	*domain.User
	Eligibility *service.Eligibility `json:"eligibility"`
}

type profileRequest struct {
	Email       *string `json:"email" validate:"omitempty,email"`
	FirstName   *string `json:"first_name" validate:"omitempty,max=150"`
	LastName    *string `json:"last_name" validate:"omitempty,max=150"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=20"`
	Address     *string `json:"address" validate:"omitempty,max=500"`
	DateOfBirth *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
}

func (p profileRequest) toUpdate() service.ProfileUpdate {
	return service.ProfileUpdate{
		Email:       p.Email,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		PhoneNumber: p.PhoneNumber,
		Address:     p.Address,
		DateOfBirth: parseDate(p.DateOfBirth),
	}
}

type membershipRequest struct {
	MaxBooksAllowed *int32 `json:"max_books_allowed" validate:"omitempty,min=1,max=50"`
	IsActiveMember  *bool  `json:"is_active_member"`
	IsStaff         *bool  `json:"is_staff"`
}

// bookRequest is the full representation accepted by create and PUT
type bookRequest struct {
	Title           string  `json:"title" validate:"required,max=200"`
	Author          string  `json:"author" validate:"required,max=100"`
	ISBN            string  `json:"isbn" validate:"required,numeric,len=10|len=13"`
	PageCount       int32   `json:"page_count" validate:"required,min=1"`
	PublishedDate   string  `json:"published_date" validate:"required,datetime=2006-01-02"`
	Genre           string  `json:"genre"`
	Description     string  `json:"description"`
	TotalCopies     *int32  `json:"total_copies" validate:"omitempty,min=1"`
	AvailableCopies *int32  `json:"available_copies"`
	CoverImage      *string `json:"cover_image" validate:"omitempty,url"`
}

func (b bookRequest) toBook() *domain.Book {
	book := &domain.Book{
		Title:       b.Title,
		Author:      b.Author,
		ISBN:        b.ISBN,
		PageCount:   b.PageCount,
		Genre:       domain.Genre(b.Genre),
		Description: b.Description,
		TotalCopies: 1,
		CoverImage:  b.CoverImage,
	}
	if d := parseDate(&b.PublishedDate); d != nil {
		book.PublishedDate = *d
	}
	if b.TotalCopies != nil {
		book.TotalCopies = *b.TotalCopies
	}
	book.AvailableCopies = book.TotalCopies
	if b.AvailableCopies != nil {
		book.AvailableCopies = *b.AvailableCopies
	}
	return book
}

func (b bookRequest) toPatch() service.BookPatch {
	book := b.toBook()
	patch := service.BookPatch{
		Title:         &book.Title,
		Author:        &book.Author,
		ISBN:          &book.ISBN,
		PageCount:     &book.PageCount,
		PublishedDate: &book.PublishedDate,
		Genre:         &book.Genre,
		Description:   &book.Description,
		TotalCopies:   &book.TotalCopies,
		CoverImage:    b.CoverImage,
	}
	if b.AvailableCopies != nil {
		patch.AvailableCopies = b.AvailableCopies
	}
	return patch
}

type bookPatchRequest struct {
	Title           *string `json:"title" validate:"omitempty,min=1,max=200"`
	Author          *string `json:"author" validate:"omitempty,min=1,max=100"`
	ISBN            *string `json:"isbn" validate:"omitempty,numeric,len=10|len=13"`
	PageCount       *int32  `json:"page_count" validate:"omitempty,min=1"`
	PublishedDate   *string `json:"published_date" validate:"omitempty,datetime=2006-01-02"`
	Genre           *string `json:"genre"`
	Description     *string `json:"description"`
	TotalCopies     *int32  `json:"total_copies" validate:"omitempty,min=1"`
	AvailableCopies *int32  `json:"available_copies"`
	CoverImage      *string `json:"cover_image" validate:"omitempty,url"`
}

func (b bookPatchRequest) toPatch() service.BookPatch {
	patch := service.BookPatch{
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            b.ISBN,
		PageCount:       b.PageCount,
		PublishedDate:   parseDate(b.PublishedDate),
		Description:     b.Description,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
		CoverImage:      b.CoverImage,
	}
	if b.Genre != nil {
		genre := domain.Genre(*b.Genre)
		patch.Genre = &genre
	}
	return patch
}

type borrowRequest struct {
	BookID  int64      `json:"book_id" validate:"required,gt=0"`
	DueDate *time.Time `json:"due_date"`
	Notes   string     `json:"notes" validate:"max=1000"`
}

type returnRequest struct {
	LoanID int64 `json:"loan_id" validate:"required,gt=0"`
}

// loanView is a loan as the API returns it, with the read-time overdue flag
type loanView struct {
	domain.Loan
	IsOverdue bool `json:"is_overdue"`
}

func newLoanView(l *domain.Loan, now time.Time) loanView {
	return loanView{Loan: *l, IsOverdue: l.IsOverdue(now)}
}

func newLoanViews(loans []domain.Loan, now time.Time) []loanView {
	out := make([]loanView, len(loans))
	for i := range loans {
		out[i] = newLoanView(&loans[i], now)
	}
	return out
}

// parseDate reads a date already checked by the datetime validator
func parseDate(raw *string) *time.Time {
	if raw == nil || *raw == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, *raw)
	if err != nil {
		return nil
	}
	return &t
}
