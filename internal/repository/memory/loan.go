package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"library-backend/internal/domain"
	"library-backend/internal/repository"
)

type loanRepository struct {
	access
}

func (r *loanRepository) Create(ctx context.Context, l *domain.Loan) error {
	return r.do(func(st *state) error {
		if _, ok := st.users[l.UserID]; !ok {
			return fmt.Errorf("%w: loans_user_id_fkey", domain.ErrNotFound)
		}
		if _, ok := st.books[l.BookID]; !ok {
			return fmt.Errorf("%w: loans_book_id_fkey", domain.ErrNotFound)
		}
		if l.IsOpen() && hasOpen(st, l.UserID, l.BookID) {
			return domain.ErrDuplicateLoan
		}
		st.nextLoanID++
		l.ID = st.nextLoanID
		st.loans[l.ID] = stripped(l)
		return nil
	})
}

// stripped drops the read-only join fields before a loan is stored.
func stripped(l *domain.Loan) domain.Loan {
	s := *l
	s.Username = ""
	s.Book = nil
	return s
}

func hasOpen(st *state, userID, bookID int64) bool {
	for _, l := range st.loans {
		if l.UserID == userID && l.BookID == bookID && l.IsOpen() {
			return true
		}
	}
	return false
}

// detailed attaches the borrower's username and a book summary.
func detailed(st *state, l domain.Loan) domain.Loan {
	if u, ok := st.users[l.UserID]; ok {
		l.Username = u.Username
	}
	if b, ok := st.books[l.BookID]; ok {
		l.Book = &domain.Book{
			ID:         b.ID,
			Title:      b.Title,
			Author:     b.Author,
			ISBN:       b.ISBN,
			CoverImage: b.CoverImage,
		}
	}
	return l
}

func (r *loanRepository) GetByID(ctx context.Context, id int64) (*domain.Loan, error) {
	var out *domain.Loan
	err := r.do(func(st *state) error {
		l, ok := st.loans[id]
		if !ok {
			return domain.ErrNotFound
		}
		l = detailed(st, l)
		out = &l
		return nil
	})
	return out, err
}

func (r *loanRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Loan, error) {
	var out *domain.Loan
	err := r.do(func(st *state) error {
		l, ok := st.loans[id]
		if !ok {
			return domain.ErrNotFound
		}
		out = &l
		return nil
	})
	return out, err
}

func (r *loanRepository) Update(ctx context.Context, l *domain.Loan) error {
	return r.do(func(st *state) error {
		existing, ok := st.loans[l.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if !l.Status.Valid() || (l.Status == domain.LoanStatusReturned) != (l.ReturnedOn != nil) {
			return fmt.Errorf("%w: loans_returned_on_matches_status", domain.ErrValidation)
		}
		if l.IsOpen() && !existing.IsOpen() && hasOpen(st, l.UserID, l.BookID) {
			return domain.ErrDuplicateLoan
		}
		updated := stripped(l)
		updated.UserID = existing.UserID
		updated.BookID = existing.BookID
		updated.BorrowedOn = existing.BorrowedOn
		st.loans[l.ID] = updated
		return nil
	})
}

func (r *loanRepository) List(ctx context.Context, filter repository.LoanFilter) ([]domain.Loan, int64, error) {
	var out []domain.Loan
	var total int64
	err := r.do(func(st *state) error {
		matched := make([]domain.Loan, 0)
		for _, l := range st.loans {
			if filter.UserID != nil && l.UserID != *filter.UserID {
				continue
			}
			if filter.BookID != nil && l.BookID != *filter.BookID {
				continue
			}
			if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, l.Status) {
				continue
			}
			l = detailed(st, l)
			if filter.Search != "" && !matchLoanSearch(&l, filter.Search) {
				continue
			}
			matched = append(matched, l)
		}

		ordering := filter.Ordering
		if !slices.Contains(repository.LoanOrderings, ordering.Field) {
			ordering = repository.DefaultLoanSort
		}
		slices.SortFunc(matched, func(a, b domain.Loan) int {
			c := compareLoans(&a, &b, ordering.Field)
			if ordering.Desc {
				c = -c
			}
			if c == 0 {
				c = cmp.Compare(b.ID, a.ID)
			}
			return c
		})
		total = int64(len(matched))
		out = paginate(matched, filter.Page)
		return nil
	})
	return out, total, err
}

func matchLoanSearch(l *domain.Loan, q string) bool {
	if containsFold(l.Username, q) {
		return true
	}
	return l.Book != nil && (containsFold(l.Book.Title, q) || containsFold(l.Book.ISBN, q))
}

func compareLoans(a, b *domain.Loan, field string) int {
	switch field {
	case "due_on":
		return a.DueOn.Compare(b.DueOn)
	case "returned_on":
		// Open loans sort last in either direction, as NULLS LAST does.
		switch {
		case a.ReturnedOn == nil && b.ReturnedOn == nil:
			return 0
		case a.ReturnedOn == nil:
			return 1
		case b.ReturnedOn == nil:
			return -1
		}
		return a.ReturnedOn.Compare(*b.ReturnedOn)
	default:
		return a.BorrowedOn.Compare(b.BorrowedOn)
	}
}

func (r *loanRepository) CountOpenByUser(ctx context.Context, userID int64) (int, error) {
	return r.countOpen(func(l *domain.Loan) bool { return l.UserID == userID })
}

func (r *loanRepository) CountOpenByBook(ctx context.Context, bookID int64) (int, error) {
	return r.countOpen(func(l *domain.Loan) bool { return l.BookID == bookID })
}

func (r *loanRepository) countOpen(match func(*domain.Loan) bool) (int, error) {
	var n int
	err := r.do(func(st *state) error {
		for _, l := range st.loans {
			if l.IsOpen() && match(&l) {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *loanRepository) HasOpenLoan(ctx context.Context, userID, bookID int64) (bool, error) {
	var exists bool
	err := r.do(func(st *state) error {
		exists = hasOpen(st, userID, bookID)
		return nil
	})
	return exists, err
}

func (r *loanRepository) MarkOverdue(ctx context.Context, now time.Time, userID *int64) ([]int64, error) {
	var ids []int64
	err := r.do(func(st *state) error {
		for id, l := range st.loans {
			if userID != nil && l.UserID != *userID {
				continue
			}
			if l.RefreshStatus(now) {
				st.loans[id] = l
				ids = append(ids, id)
			}
		}
		slices.Sort(ids)
		return nil
	})
	return ids, err
}
