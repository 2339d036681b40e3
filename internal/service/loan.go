package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"library-backend/internal/clock"
	"library-backend/internal/domain"
	"library-backend/internal/logger"
	"library-backend/internal/repository"
)

type loanService struct {
	store   repository.Store
	clock   clock.Clock
	periods domain.LoanPeriods
}

func NewLoanService(store repository.Store, clk clock.Clock, periods domain.LoanPeriods) LoanService {
	return &loanService{
		store:   store,
		clock:   clk,
		periods: periods,
	}
}

func (s *loanService) Borrow(ctx context.Context, userID, bookID int64, dueOn *time.Time, notes string) (*domain.Loan, error) {
	logger.EnterMethod(ctx, "loanService.Borrow", "userID", userID, "bookID", bookID)

	now := s.clock.Now()
	var loan *domain.Loan
	err := s.store.WithinTx(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		// Lock order is user then book; Return locks loan then book.
		user, err := uow.Users().GetByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if !user.IsActive {
			return domain.ErrForbidden
		}
		if err := checkMembership(ctx, uow, user); err != nil {
			return err
		}

		dup, err := uow.Loans().HasOpenLoan(ctx, userID, bookID)
		if err != nil {
			return err
		}
		if dup {
			return domain.ErrDuplicateLoan
		}

		book, err := uow.Books().GetByIDForUpdate(ctx, bookID)
		if err != nil {
			return err
		}
		if !book.IsAvailable() {
			return domain.ErrNotAvailable
		}

		due, err := s.periods.DueDate(dueOn, now)
		if err != nil {
			return err
		}

		taken, err := uow.Books().DecrementAvailable(ctx, bookID)
		if err != nil {
			return err
		}
		if !taken {
			return domain.ErrNotAvailable
		}
		book.DecrementCopy()

		loan = domain.NewLoan(userID, bookID, now, due, notes)
		if err := uow.Loans().Create(ctx, loan); err != nil {
			return err
		}
		loan.Username = user.Username
		loan.Book = book
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError(ctx, "loanService.Borrow", err, expected(err), "userID", userID, "bookID", bookID)
		return nil, err
	}

	logger.InfoContext(ctx, "Book borrowed", "loanID", loan.ID, "userID", userID, "bookID", bookID, "dueOn", loan.DueOn)
	logger.ExitMethod(ctx, "loanService.Borrow", "loanID", loan.ID)
	return loan, nil
}

func (s *loanService) Return(ctx context.Context, actorID, loanID int64) (*domain.Loan, error) {
	logger.EnterMethod(ctx, "loanService.Return", "actorID", actorID, "loanID", loanID)

	now := s.clock.Now()
	err := s.store.WithinTx(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		loan, err := uow.Loans().GetByIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}

		if loan.UserID != actorID {
			actor, err := uow.Users().GetByID(ctx, actorID)
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrForbidden
			}
			if err != nil {
				return err
			}
			if !actor.IsActive || !actor.IsAdmin() {
				return domain.ErrForbidden
			}
		}

		if !loan.Close(now) {
			return domain.ErrAlreadyReturned
		}
		if err := uow.Loans().Update(ctx, loan); err != nil {
			return err
		}

		restored, err := uow.Books().IncrementAvailable(ctx, loan.BookID)
		if err != nil {
			return err
		}
		if !restored {
			logger.WarnContext(ctx, "Copy count already at total on return", "loanID", loanID, "bookID", loan.BookID)
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError(ctx, "loanService.Return", err, expected(err), "loanID", loanID)
		return nil, err
	}

	logger.InfoContext(ctx, "Book returned", "loanID", loanID, "actorID", actorID)
	logger.ExitMethod(ctx, "loanService.Return", "loanID", loanID)
	return s.store.Loans().GetByID(ctx, loanID)
}

func (s *loanService) RefreshStatus(ctx context.Context, loanID int64) (*domain.Loan, error) {
	now := s.clock.Now()
	err := s.store.WithinTx(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		loan, err := uow.Loans().GetByIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		if !loan.RefreshStatus(now) {
			return nil
		}
		logger.InfoContext(ctx, "Loan marked overdue", "loanID", loanID, "dueOn", loan.DueOn)
		return uow.Loans().Update(ctx, loan)
	})
	if err != nil {
		return nil, err
	}
	return s.store.Loans().GetByID(ctx, loanID)
}

func (s *loanService) MarkOverdue(ctx context.Context) (int, error) {
	ids, err := s.store.Loans().MarkOverdue(ctx, s.clock.Now(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue loans: %w", err)
	}
	if len(ids) > 0 {
		logger.InfoContext(ctx, "Loans marked overdue", "count", len(ids))
	}
	return len(ids), nil
}

// refreshUser persists active -> overdue for one user's loans before they
// are read.
func (s *loanService) refreshUser(ctx context.Context, userID int64) error {
	if _, err := s.store.Loans().MarkOverdue(ctx, s.clock.Now(), &userID); err != nil {
		return fmt.Errorf("failed to refresh loan status: %w", err)
	}
	return nil
}

func (s *loanService) History(ctx context.Context, userID int64, statuses []domain.LoanStatus, ordering repository.Ordering, page repository.Page) ([]domain.Loan, int64, error) {
	if err := s.refreshUser(ctx, userID); err != nil {
		return nil, 0, err
	}
	return s.store.Loans().List(ctx, repository.LoanFilter{
		UserID:   &userID,
		Statuses: statuses,
		Ordering: ordering,
		Page:     page,
	})
}

func (s *loanService) Active(ctx context.Context, userID int64) ([]domain.Loan, error) {
	if err := s.refreshUser(ctx, userID); err != nil {
		return nil, err
	}
	return collect(ctx, func(page repository.Page) ([]domain.Loan, int64, error) {
		return s.store.Loans().List(ctx, repository.LoanFilter{
			UserID:   &userID,
			Statuses: domain.OpenLoanStatuses,
			Ordering: repository.Ordering{Field: "due_on"},
			Page:     page,
		})
	})
}

func (s *loanService) ListLoans(ctx context.Context, filter repository.LoanFilter) ([]domain.Loan, int64, error) {
	if _, err := s.MarkOverdue(ctx); err != nil {
		return nil, 0, err
	}
	return s.store.Loans().List(ctx, filter)
}

func (s *loanService) GetLoan(ctx context.Context, loanID int64) (*domain.Loan, error) {
	return s.RefreshStatus(ctx, loanID)
}

func (s *loanService) ListOverdue(ctx context.Context) ([]domain.Loan, error) {
	if _, err := s.MarkOverdue(ctx); err != nil {
		return nil, err
	}
	return collect(ctx, func(page repository.Page) ([]domain.Loan, int64, error) {
		return s.store.Loans().List(ctx, repository.LoanFilter{
			Statuses: []domain.LoanStatus{domain.LoanStatusOverdue},
			Ordering: repository.Ordering{Field: "due_on"},
			Page:     page,
		})
	})
}

// collect walks every page of a listing.
func collect(ctx context.Context, list func(repository.Page) ([]domain.Loan, int64, error)) ([]domain.Loan, error) {
	all := []domain.Loan{}
	for p := 1; ; p++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		loans, total, err := list(repository.Page{Page: p, PageSize: repository.MaxPageSize})
		if err != nil {
			return nil, err
		}
		all = append(all, loans...)
		if len(loans) == 0 || int64(len(all)) >= total {
			return all, nil
		}
	}
}
